package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/testrift/viewer/internal/models"
)

// ErrNotRecord is returned when a frame does not decode to a MessagePack map.
var ErrNotRecord = errors.New("protocol: frame is not a msgpack record")

// DecodeError reports a record that could not be decoded into any message.
// It is an indicator for logging, not a failure of the stream: the caller
// logs it and keeps consuming frames.
type DecodeError struct {
	TypeCode int
	Reason   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: decode %s (type %d): %s",
		MessageTypeName(e.TypeCode), e.TypeCode, e.Reason)
}

// Decoder converts compact wire records into models.Message values,
// resolving interned strings through its per-session StringTable.
//
// A Decoder is scoped to one connection/session; use Reset (or a fresh
// Decoder) when switching to a different test case's stream so ids from
// unrelated runs cannot cross-contaminate.
type Decoder struct {
	table *StringTable
	log   *zap.Logger
}

// NewDecoder creates a decoder with an empty string table.
func NewDecoder(logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{table: NewStringTable(), log: logger}
}

// Table exposes the session string table, mainly for tests and diagnostics.
func (d *Decoder) Table() *StringTable {
	return d.table
}

// Reset begins a new decoding session with an empty string table.
func (d *Decoder) Reset() {
	d.table.Reset()
}

// Decode unmarshals one framed binary message and decodes it.
func (d *Decoder) Decode(frame []byte) (models.Message, error) {
	var rec map[string]any
	if err := msgpack.Unmarshal(frame, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRecord, err)
	}
	return d.DecodeRecord(rec)
}

// DecodeRecord decodes one record map into its message variant. Malformed
// input downgrades to best-effort partial results; only a record with no
// usable type code yields a DecodeError.
func (d *Decoder) DecodeRecord(rec map[string]any) (models.Message, error) {
	code, ok := asInt(rec[fType])
	if !ok {
		return nil, &DecodeError{Reason: "missing or non-integer type field"}
	}
	return d.decodeTyped(code, rec)
}

func (d *Decoder) decodeTyped(code int, rec map[string]any) (models.Message, error) {
	switch code {
	case MsgRunStarted:
		return models.RunStarted{
			RunID:     getString(rec, fRunID),
			RunName:   getString(rec, fRunName),
			Timestamp: getTime(rec, fTimestamp),
			LocalRun:  getBool(rec, fLocalRun),
			Metadata:  getMap(rec, fUserMetadata),
		}, nil

	case MsgRunStartedResponse:
		return models.RunStartedResponse{
			RunID:    getString(rec, fRunID),
			RunURL:   getString(rec, fRunURL),
			GroupURL: getString(rec, fGroupURL),
		}, nil

	case MsgTestCaseStarted:
		return models.TestCaseStarted{
			RunID:      getString(rec, fRunID),
			TestCaseID: getString(rec, fTCID),
			FullName:   getString(rec, fTCFullName),
			Timestamp:  getTime(rec, fTimestamp),
		}, nil

	case MsgLogBatch:
		return d.decodeLogBatch(rec), nil

	case MsgException:
		return models.Exception{
			RunID:         getString(rec, fRunID),
			TestCaseID:    getString(rec, fTCID),
			Timestamp:     getTime(rec, fTimestamp),
			Message:       getString(rec, fMessage),
			ExceptionType: getString(rec, fExceptionType),
			StackTrace:    getStringSlice(rec, fStackTrace),
			IsError:       getBool(rec, fIsError),
		}, nil

	case MsgTestCaseFinished:
		status, _ := asInt(rec[fStatus])
		return models.TestCaseFinished{
			RunID:      getString(rec, fRunID),
			TestCaseID: getString(rec, fTCID),
			Status:     StatusFromCode(status),
			Timestamp:  getTime(rec, fTimestamp),
		}, nil

	case MsgRunFinished:
		status, _ := asInt(rec[fStatus])
		return models.RunFinished{
			RunID:     getString(rec, fRunID),
			Status:    StatusFromCode(status),
			Timestamp: getTime(rec, fTimestamp),
		}, nil

	case MsgBatch:
		return d.decodeBatch(rec), nil

	case MsgHeartbeat:
		return models.Heartbeat{Timestamp: getTime(rec, fTimestamp)}, nil

	case MsgStringTable:
		return d.decodeStringTable(rec), nil

	default:
		// Unknown type: carry whatever common fields are present so the
		// stream keeps flowing when the producer is newer than the viewer.
		status, _ := asInt(rec[fStatus])
		d.log.Warn("unknown message type code",
			zap.Int("type", code))
		return models.Generic{
			TypeCode:  code,
			RunID:     getString(rec, fRunID),
			Status:    StatusFromCode(status),
			Timestamp: getTime(rec, fTimestamp),
			Message:   getString(rec, fMessage),
		}, nil
	}
}

// decodeLogBatch decodes every element independently, dropping any element
// that fails so one malformed entry cannot lose the entire batch.
func (d *Decoder) decodeLogBatch(rec map[string]any) models.LogBatch {
	batch := models.LogBatch{
		RunID:      getString(rec, fRunID),
		TestCaseID: getString(rec, fTCID),
	}
	raw, _ := rec[fEntries].([]any)
	dropped := 0
	for _, el := range raw {
		m, ok := el.(map[string]any)
		if !ok {
			dropped++
			continue
		}
		entry, err := d.decodeEntry(m)
		if err != nil {
			dropped++
			continue
		}
		batch.Entries = append(batch.Entries, entry)
	}
	if dropped > 0 {
		d.log.Warn("dropped malformed log batch entries",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(batch.Entries)))
	}
	return batch
}

// decodeBatch dispatches each event by its embedded sub-type code, reusing
// the per-type decoding used for standalone messages.
func (d *Decoder) decodeBatch(rec map[string]any) models.Batch {
	batch := models.Batch{}
	raw, _ := rec[fEvents].([]any)
	for _, el := range raw {
		m, ok := el.(map[string]any)
		if !ok {
			d.log.Warn("dropped non-map batch event")
			continue
		}
		code, ok := asInt(m[fEventType])
		if !ok {
			// Fall back to the standalone type field.
			code, ok = asInt(m[fType])
		}
		if !ok {
			d.log.Warn("dropped batch event without type code")
			continue
		}
		msg, err := d.decodeTyped(code, m)
		if err != nil {
			d.log.Warn("dropped undecodable batch event",
				zap.Int("type", code), zap.Error(err))
			continue
		}
		batch.Events = append(batch.Events, msg)
	}
	return batch
}

func (d *Decoder) decodeStringTable(rec map[string]any) models.StringTableUpdate {
	update := models.StringTableUpdate{Strings: make(map[int]string)}
	raw, ok := rec[fStrings].(map[string]any)
	if ok {
		for k, v := range raw {
			id, err := strconv.Atoi(k)
			s, sOK := v.(string)
			if err == nil && sOK {
				d.table.Define(id, s)
				update.Strings[id] = s
			}
		}
		return update
	}
	// msgpack may deliver integer-keyed maps as map[any]any
	if anyKeyed, ok := rec[fStrings].(map[any]any); ok {
		for k, v := range anyKeyed {
			id, idOK := asInt(k)
			s, sOK := v.(string)
			if idOK && sOK {
				d.table.Define(id, s)
				update.Strings[id] = s
			}
		}
	}
	return update
}

// decodeEntry decodes a single log-batch element. A missing timestamp makes
// the entry undecodable; every other field degrades to its zero value.
func (d *Decoder) decodeEntry(m map[string]any) (models.LogEntry, error) {
	ms, ok := asInt(m[fTimestamp])
	if !ok {
		return models.LogEntry{}, &DecodeError{TypeCode: MsgLogBatch, Reason: "entry missing timestamp"}
	}
	ts := time.UnixMilli(int64(ms)).UTC()

	entry := models.LogEntry{
		Timestamp:    ts,
		RawTimestamp: FormatWireTime(ts),
		Message:      getString(m, fMessage),
		Component:    d.table.Resolve(m[fComponent]),
		Channel:      d.table.Resolve(m[fChannel]),
	}
	if code, ok := asInt(m[fDirection]); ok {
		entry.Direction = DirectionFromCode(code)
	}
	if code, ok := asInt(m[fPhase]); ok {
		entry.Phase = PhaseFromCode(code)
	}
	return entry, nil
}

// FormatWireTime renders an instant the way the wire's ISO form does:
// UTC with millisecond precision and a Z suffix.
func FormatWireTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000") + "Z"
}

func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func getBool(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func getTime(m map[string]any, key string) time.Time {
	ms, ok := asInt(m[key])
	if !ok {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms)).UTC()
}

func getMap(m map[string]any, key string) map[string]any {
	mm, _ := m[key].(map[string]any)
	return mm
}

func getStringSlice(m map[string]any, key string) []string {
	raw, _ := m[key].([]any)
	if raw == nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, el := range raw {
		if s, ok := el.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
