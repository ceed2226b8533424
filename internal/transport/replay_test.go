package transport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testrift/viewer/internal/models"
)

func TestParseStreamRecord(t *testing.T) {
	entry, err := ParseStreamRecord([]byte(`{
		"timestamp": "2025-10-01T18:49:17.803300Z",
		"message": "PING",
		"component": "DUT",
		"channel": "UART0",
		"dir": "tx"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "2025-10-01T18:49:17.803300Z", entry.RawTimestamp)
	assert.Equal(t, "PING", entry.Message)
	assert.Equal(t, "DUT", entry.Component)
	assert.Equal(t, "UART0", entry.Channel)
	assert.Equal(t, models.DirectionTx, entry.Direction)
	assert.Equal(t, models.KindLog, entry.Kind)
}

func TestParseStreamRecordException(t *testing.T) {
	entry, err := ParseStreamRecord([]byte(`{
		"type": "exception",
		"timestamp": "2025-10-01T18:49:18Z",
		"message": "assertion failed",
		"exception_type": "AssertionError",
		"stack_trace": ["at test.py:10"]
	}`))
	require.NoError(t, err)
	assert.Equal(t, models.KindException, entry.Kind)
	assert.Equal(t, "AssertionError", entry.ExceptionType)
	assert.Equal(t, []string{"at test.py:10"}, entry.StackTrace)
}

func TestParseStreamRecordServerNotice(t *testing.T) {
	_, err := ParseStreamRecord([]byte(`{"type":"error","message":"run not found"}`))
	var notice *ServerNotice
	require.ErrorAs(t, err, &notice)
	assert.Equal(t, "run not found", notice.Message)
	assert.Contains(t, notice.Error(), "run not found")
}

func TestParseStreamRecordMissingTimestamp(t *testing.T) {
	_, err := ParseStreamRecord([]byte(`{"message":"no time"}`))
	assert.Error(t, err)
}

func TestParseStreamRecordMalformedJSON(t *testing.T) {
	_, err := ParseStreamRecord([]byte(`{not json`))
	assert.Error(t, err)
}

func TestReadTranscriptSortsByTimestamp(t *testing.T) {
	transcript := strings.Join([]string{
		`{"timestamp":"2025-10-01T18:49:19Z","message":"third"}`,
		`{"timestamp":"2025-10-01T18:49:17Z","message":"first"}`,
		`{"timestamp":"2025-10-01T18:49:18Z","message":"second"}`,
	}, "\n")

	entries, err := ReadTranscript(strings.NewReader(transcript), nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, "second", entries[1].Message)
	assert.Equal(t, "third", entries[2].Message)
}

func TestReadTranscriptSanitizes(t *testing.T) {
	transcript := strings.Join([]string{
		``,
		`not json at all`,
		`{"message":"no timestamp"}`,
		`{"timestamp":"2025-10-01T18:49:17Z","message":"kept","dir":"sideways","phase":"warmup"}`,
		`{"type":"exception","timestamp":"2025-10-01T18:49:18Z","message":"boom","exception_type":"RuntimeError"}`,
	}, "\n")

	entries, err := ReadTranscript(strings.NewReader(transcript), nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Unknown dir/phase values are dropped; the entry itself survives.
	assert.Equal(t, "kept", entries[0].Message)
	assert.Equal(t, models.DirectionNone, entries[0].Direction)
	assert.Equal(t, models.PhaseNone, entries[0].Phase)

	assert.Equal(t, models.KindException, entries[1].Kind)
	assert.Equal(t, "RuntimeError", entries[1].ExceptionType)
}

func TestReadTranscriptEmpty(t *testing.T) {
	entries, err := ReadTranscript(strings.NewReader(""), nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadTranscriptStableForEqualTimestamps(t *testing.T) {
	transcript := strings.Join([]string{
		`{"timestamp":"2025-10-01T18:49:17Z","message":"a"}`,
		`{"timestamp":"2025-10-01T18:49:17Z","message":"b"}`,
	}, "\n")

	entries, err := ReadTranscript(strings.NewReader(transcript), nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Message)
	assert.Equal(t, "b", entries[1].Message)
}
