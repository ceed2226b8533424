// Package render provides a terminal implementation of the timeline's
// rendering sink. It streams rows to a writer as they arrive, styling
// badges with the registry's colors and translated ANSI runs with their
// accumulated styles.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/testrift/viewer/internal/ansi"
	"github.com/testrift/viewer/internal/timeline"
)

var (
	timeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a8a8a"))
	echoStyle     = lipgloss.NewStyle().Faint(true)
	excStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#f14c4c")).Bold(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e5e510"))
	liveStyle     = lipgloss.NewStyle().Faint(true).Italic(true)
	terminalStyle = lipgloss.NewStyle().Background(lipgloss.Color("#1e1e1e")).Padding(0, 1)
)

// Term streams timeline rows to a terminal. Appends print immediately;
// updates to a coalesced row print only the lines added since the row was
// last printed, so a burst renders as a growing block rather than a
// repaint.
type Term struct {
	mu       sync.Mutex
	w        io.Writer
	printed  map[string]int // row id -> lines already printed
	hidden   map[string]bool
	liveOpen bool // indicator line currently occupies the cursor row
}

// NewTerm creates a terminal sink writing to w.
func NewTerm(w io.Writer) *Term {
	return &Term{
		w:       w,
		printed: make(map[string]int),
		hidden:  map[string]bool{timeline.TeardownLabel: true},
	}
}

// AppendRow implements timeline.Sink. The live indicator is printed without
// a newline so the next output can overwrite it in place; re-appends while
// it is still showing are no-ops.
func (t *Term) AppendRow(row timeline.Row) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if row.Live {
		if t.liveOpen {
			return
		}
		fmt.Fprint(t.w, liveStyle.Render("⋯ waiting for more entries"))
		t.liveOpen = true
		return
	}
	if row.Teardown && t.hidden[timeline.TeardownLabel] {
		t.printed[row.ID] = 0
		return
	}
	t.eraseLive()
	t.printRow(row, 0)
}

// UpdateRow implements timeline.Sink.
func (t *Term) UpdateRow(row timeline.Row) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if row.Teardown && t.hidden[timeline.TeardownLabel] {
		return
	}
	t.eraseLive()
	t.printRow(row, t.printed[row.ID])
}

// RemoveRow implements timeline.Sink. A streaming terminal cannot unprint
// committed rows; removal erases only the in-place live indicator line.
func (t *Term) RemoveRow(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.eraseLive()
	delete(t.printed, id)
}

// eraseLive clears the unterminated indicator line so the cursor is back at
// the start of a blank row. Callers hold the mutex.
func (t *Term) eraseLive() {
	if !t.liveOpen {
		return
	}
	fmt.Fprint(t.w, "\r\x1b[K")
	t.liveOpen = false
}

// SetVisible implements timeline.Sink.
func (t *Term) SetVisible(label string, visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hidden[label] = !visible
}

func (t *Term) printRow(row timeline.Row, fromLine int) {
	prefix := t.rowPrefix(row)
	for i := fromLine; i < len(row.Lines); i++ {
		line := renderText(row.Lines[i], row)
		if i == fromLine && fromLine == 0 {
			fmt.Fprintf(t.w, "%s %s\n", prefix, line)
		} else {
			fmt.Fprintf(t.w, "%s %s\n", strings.Repeat(" ", lipgloss.Width(prefix)), line)
		}
	}
	t.printed[row.ID] = len(row.Lines)
}

func (t *Term) rowPrefix(row timeline.Row) string {
	var b strings.Builder
	b.WriteString(timeStyle.Render(fmt.Sprintf("%12s", row.TimeText)))
	if row.Header {
		b.WriteString(" ")
		b.WriteString(headerStyle.Render("▸ Teardown"))
		return b.String()
	}
	for _, badge := range row.Badges {
		b.WriteString(" ")
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(badge.Color))
		b.WriteString(style.Render("[" + badge.Label + "]"))
	}
	switch row.Direction.String() {
	case "tx":
		b.WriteString(" →")
	case "rx":
		b.WriteString(" ←")
	}
	return b.String()
}

// renderText draws one translated line, wrapping escape-bearing text in the
// terminal-like container and de-emphasizing echoes.
func renderText(text ansi.Text, row timeline.Row) string {
	var b strings.Builder
	for _, run := range text.Runs {
		style := lipgloss.NewStyle()
		if run.Style.Foreground != "" {
			style = style.Foreground(lipgloss.Color(run.Style.Foreground))
		}
		if run.Style.Background != "" {
			style = style.Background(lipgloss.Color(run.Style.Background))
		}
		if run.Style.Bold {
			style = style.Bold(true)
		}
		b.WriteString(style.Render(run.Text))
	}
	out := b.String()
	if text.Terminal {
		out = terminalStyle.Render(out)
	}
	if row.Exception {
		out = excStyle.Render(out)
	}
	if row.Echo {
		out = echoStyle.Render(out) + echoStyle.Render(" (echo)")
	}
	return out
}
