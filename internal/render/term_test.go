package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testrift/viewer/internal/ansi"
	"github.com/testrift/viewer/internal/models"
	"github.com/testrift/viewer/internal/timeline"
)

var baseTime = time.Date(2025, 10, 1, 18, 49, 17, 0, time.UTC)

// screen replays the raw output the way a terminal would, honoring the
// carriage-return-plus-erase sequence the live indicator uses.
func screen(out string) string {
	var lines []string
	var cur strings.Builder
	for i := 0; i < len(out); i++ {
		switch {
		case out[i] == '\n':
			lines = append(lines, cur.String())
			cur.Reset()
		case out[i] == '\r' && strings.HasPrefix(out[i+1:], "\x1b[K"):
			cur.Reset()
			i += 3
		default:
			cur.WriteByte(out[i])
		}
	}
	lines = append(lines, cur.String())
	return strings.Join(lines, "\n")
}

func row(id, timeText, message string) timeline.Row {
	return timeline.Row{
		ID:       id,
		TimeText: timeText,
		Badges:   []timeline.Badge{{Label: "DUT", Color: "#aabbcc"}},
		Lines:    []ansi.Text{ansi.Translate(message)},
	}
}

func TestAppendRowPrints(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerm(&buf)

	term.AppendRow(row("r-1", "18:49:17.803", "PING"))

	out := buf.String()
	assert.Contains(t, out, "18:49:17.803")
	assert.Contains(t, out, "[DUT]")
	assert.Contains(t, out, "PING")
}

func TestDirectionMarkers(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerm(&buf)

	tx := row("r-1", "0ms", "cmd")
	tx.Direction = models.DirectionTx
	term.AppendRow(tx)
	assert.Contains(t, buf.String(), "→")

	buf.Reset()
	rx := row("r-2", "1ms", "resp")
	rx.Direction = models.DirectionRx
	term.AppendRow(rx)
	assert.Contains(t, buf.String(), "←")
}

func TestEchoMarker(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerm(&buf)

	echo := row("r-1", "1ms", "PING")
	echo.Echo = true
	term.AppendRow(echo)

	assert.Contains(t, buf.String(), "(echo)")
}

func TestUpdatePrintsOnlyNewLines(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerm(&buf)

	r := row("r-1", "0ms", "first")
	term.AppendRow(r)
	buf.Reset()

	r.Lines = append(r.Lines, ansi.Translate("second"))
	term.UpdateRow(r)

	out := buf.String()
	assert.NotContains(t, out, "first", "already-printed lines are not repeated")
	assert.Contains(t, out, "second")
}

func TestLiveIndicator(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerm(&buf)

	term.AppendRow(timeline.Row{ID: "live", Live: true})
	assert.Contains(t, buf.String(), "waiting for more entries")
}

func TestTeardownHiddenByDefault(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerm(&buf)

	td := row("r-1", "0ms", "closing port")
	td.Teardown = true
	term.AppendRow(td)
	assert.NotContains(t, buf.String(), "closing port")

	// Expanding the group makes subsequent teardown output visible.
	term.SetVisible(timeline.TeardownLabel, true)
	term.UpdateRow(td)
	assert.Contains(t, buf.String(), "closing port")
}

func TestTeardownHeaderAlwaysPrints(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerm(&buf)

	header := timeline.Row{
		ID:       "h-1",
		TimeText: "0ms",
		Header:   true,
		Lines:    []ansi.Text{ansi.Translate("Teardown")},
	}
	term.AppendRow(header)
	assert.Contains(t, buf.String(), "Teardown")
}

func TestExpandingTeardownPrintsHiddenRows(t *testing.T) {
	var buf bytes.Buffer
	b := timeline.NewBuilder(NewTerm(&buf), timeline.Options{})

	b.AddEntry(models.LogEntry{
		Timestamp: baseTime,
		Message:   "closing port",
		Component: "DUT",
		Channel:   "UART0",
		Phase:     models.PhaseTeardown,
	})
	assert.NotContains(t, buf.String(), "closing port")

	// Absolute mode leaves every time text unchanged, so expansion itself
	// must get the rows onto the stream.
	b.ToggleTeardown()
	assert.Contains(t, buf.String(), "closing port")
}

func TestLiveIndicatorLeavesNoTrace(t *testing.T) {
	var buf bytes.Buffer
	b := timeline.NewBuilder(NewTerm(&buf), timeline.Options{})

	b.Handle(models.TestCaseStarted{TestCaseID: "tc-1", Timestamp: baseTime})
	for i, msg := range []string{"one", "two", "three"} {
		b.AddEntry(models.LogEntry{
			Timestamp: baseTime.Add(time.Duration(i) * time.Second),
			Message:   msg,
			Component: "DUT",
			Channel:   "UART0",
		})
	}
	b.Handle(models.RunFinished{Status: models.StatusFinished})

	shown := screen(buf.String())
	assert.NotContains(t, shown, "waiting for more entries",
		"a finished stream keeps no stale indicator lines")
	assert.Contains(t, shown, "one")
	assert.Contains(t, shown, "two")
	assert.Contains(t, shown, "three")
}

func TestLiveIndicatorNotDuplicated(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerm(&buf)

	live := timeline.Row{ID: "live", Live: true}
	term.AppendRow(live)
	term.AppendRow(live)

	assert.Equal(t, 1, strings.Count(buf.String(), "waiting for more entries"))
}

func TestMultiLineRowIndentsContinuations(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerm(&buf)

	r := row("r-1", "0ms", "first")
	r.Lines = append(r.Lines, ansi.Translate("second"))
	term.AppendRow(r)

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "[DUT]")
	assert.NotContains(t, string(lines[1]), "[DUT]", "continuation lines repeat no prefix")
}
