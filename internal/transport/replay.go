package transport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/testrift/viewer/internal/models"
)

// transcriptRecord is one line of a recorded test case log: either a
// sanitized log entry or an exception record tagged "type":"exception".
type transcriptRecord struct {
	Type          string   `json:"type,omitempty"`
	Timestamp     string   `json:"timestamp"`
	Message       string   `json:"message"`
	Component     string   `json:"component,omitempty"`
	Channel       string   `json:"channel,omitempty"`
	Dir           string   `json:"dir,omitempty"`
	Phase         string   `json:"phase,omitempty"`
	ExceptionType string   `json:"exception_type,omitempty"`
	StackTrace    []string `json:"stack_trace,omitempty"`
}

// ServerNotice is a protocol-level error message delivered in-band on the
// log stream. It is surfaced as a visible notice, not a crash.
type ServerNotice struct {
	Message string
}

func (e *ServerNotice) Error() string {
	return fmt.Sprintf("server notice: %s", e.Message)
}

// ParseStreamRecord parses one JSON record from the live log stream: a
// sanitized log entry, an exception record, or an in-band error notice
// (returned as *ServerNotice).
func ParseStreamRecord(data []byte) (models.LogEntry, error) {
	var rec transcriptRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.LogEntry{}, fmt.Errorf("parsing stream record: %w", err)
	}
	if rec.Type == "error" {
		return models.LogEntry{}, &ServerNotice{Message: rec.Message}
	}
	if rec.Timestamp == "" {
		return models.LogEntry{}, fmt.Errorf("stream record missing timestamp")
	}
	entry := models.LogEntry{
		RawTimestamp: rec.Timestamp,
		Message:      rec.Message,
		Component:    rec.Component,
		Channel:      rec.Channel,
		Direction:    models.DirectionFromName(rec.Dir),
		Phase:        models.PhaseFromName(rec.Phase),
	}
	if rec.Type == "exception" {
		entry.Kind = models.KindException
		entry.ExceptionType = rec.ExceptionType
		entry.StackTrace = rec.StackTrace
	}
	return entry, nil
}

// ReadTranscript reads a JSONL test case transcript, sanitizes each record,
// and returns the entries sorted by timestamp, ready to feed the builder
// one at a time in batch mode.
//
// Sanitization mirrors what the server applies before persisting: records
// without a timestamp are skipped (counted and logged), unknown direction
// or phase values are dropped from the entry while the entry itself is
// kept, and malformed JSON lines are skipped rather than failing the whole
// replay.
func ReadTranscript(r io.Reader, logger *zap.Logger) ([]models.LogEntry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var entries []models.LogEntry
	skipped := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec transcriptRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		if rec.Timestamp == "" {
			skipped++
			continue
		}

		entry := models.LogEntry{
			RawTimestamp: rec.Timestamp,
			Message:      rec.Message,
			Component:    rec.Component,
			Channel:      rec.Channel,
			Direction:    models.DirectionFromName(rec.Dir),
			Phase:        models.PhaseFromName(rec.Phase),
		}
		if rec.Type == "exception" {
			entry.Kind = models.KindException
			entry.ExceptionType = rec.ExceptionType
			entry.StackTrace = rec.StackTrace
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("reading transcript: %w", err)
	}
	if skipped > 0 {
		logger.Warn("skipped transcript records",
			zap.Int("skipped", skipped), zap.Int("kept", len(entries)))
	}

	// The builder performs no sorting; replay feeds in timestamp order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RawTimestamp < entries[j].RawTimestamp
	})
	return entries, nil
}
