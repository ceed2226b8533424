package timeline

import (
	"time"

	"github.com/testrift/viewer/internal/ansi"
	"github.com/testrift/viewer/internal/models"
)

// Badge is a colored label attached to a row: its component, an optional
// synthetic phase, and its channel. Badges are additive decorations; they
// never alter the underlying entry.
type Badge struct {
	Label string
	Color string
}

// Row is one visual timeline row handed to the rendering sink. A coalesced
// burst of same-origin messages is a single row with multiple lines.
type Row struct {
	ID        string
	Timestamp time.Time
	RawTime   string // original representation, display fallback when unparseable
	TimeText  string // rendered per the active time mode
	Badges    []Badge
	Lines     []ansi.Text
	Direction models.Direction
	Echo      bool // received reflection of the last transmit; de-emphasized, not dropped
	Exception bool
	Teardown  bool // routed under the collapsible teardown group
	Header    bool // the teardown group header itself
	Live      bool // trailing live indicator
}

// Sink is the abstract rendering target. The engine treats it as an opaque
// surface so timeline logic stays testable without a real display.
type Sink interface {
	AppendRow(row Row)
	UpdateRow(row Row)
	RemoveRow(id string)
	// SetVisible toggles visibility of all rows carrying the label.
	SetVisible(label string, visible bool)
}

// TeardownLabel is the visibility label shared by rows under the teardown
// group.
const TeardownLabel = "teardown"
