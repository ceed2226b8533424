// Package timeline turns decoded wire messages into ordered visual rows:
// it labels entries through the component registry, suppresses echo
// traffic, coalesces bursts of same-origin messages, routes teardown rows
// under a single collapsible group, and keeps a trailing live indicator
// while the run is still executing.
//
// All state is owned by one Builder instance; exactly one logical flow of
// control may mutate it. Live-mode entries are processed strictly in
// arrival order; batch/replay callers presort by timestamp before feeding
// entries one at a time, as the builder performs no sorting itself.
package timeline

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/testrift/viewer/internal/ansi"
	"github.com/testrift/viewer/internal/models"
	"github.com/testrift/viewer/internal/registry"
)

// State is the run-liveness indicator state.
type State int

const (
	StateIdle State = iota
	StateLive
)

// TeardownGroup is the single collapsible section aggregating all
// teardown-phase rows of a rendered run. Created lazily on the first
// teardown entry, collapsed by default.
type TeardownGroup struct {
	HeaderPresent bool
	Collapsed     bool
	headerID      string
}

// openGroup tracks the currently open coalescing unit. The start time never
// advances as members merge, so a long burst stays bounded to the join
// window measured from its first member.
type openGroup struct {
	signature string
	start     time.Time
	rowID     string
}

// Options configures a Builder.
type Options struct {
	Logger *zap.Logger
	Filter *ContentFilter
	Mode   TimeMode
	// ExpandTeardown starts the teardown group expanded instead of the
	// default collapsed state.
	ExpandTeardown bool
}

// Builder orchestrates the per-entry pipeline and owns all per-session
// timeline state: the registry, echo memory, the open coalescing group, and
// the teardown group. Switching to a different test case must discard the
// Builder (or call Reset) rather than mutate it in place.
type Builder struct {
	sink   Sink
	reg    *registry.Registry
	filter *ContentFilter
	log    *zap.Logger
	mode   TimeMode

	rows     []Row
	rowIndex map[string]int

	echo     map[string]string // channel name -> last transmitted text
	group    *openGroup
	teardown TeardownGroup

	state          State
	status         models.Status
	counts         map[models.Status]int
	runStart       time.Time
	liveRow        *Row
	expandTeardown bool

	lastVisible time.Time
	haveVisible bool
}

// NewBuilder creates a builder rendering into sink.
func NewBuilder(sink Sink, opts Options) *Builder {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		sink:           sink,
		reg:            registry.New(logger),
		filter:         opts.Filter,
		log:            logger,
		mode:           opts.Mode,
		rowIndex:       make(map[string]int),
		echo:           make(map[string]string),
		teardown:       TeardownGroup{Collapsed: !opts.ExpandTeardown},
		counts:         make(map[models.Status]int),
		expandTeardown: opts.ExpandTeardown,
	}
}

// Registry exposes the session's component registry (for legends and
// row-visibility toggles keyed by component identity).
func (b *Builder) Registry() *registry.Registry {
	return b.reg
}

// Status returns the last observed run/test-case status.
func (b *Builder) Status() models.Status {
	return b.status
}

// State returns the liveness indicator state.
func (b *Builder) State() State {
	return b.state
}

// Counts returns the per-status tally of finished test cases.
func (b *Builder) Counts() map[models.Status]int {
	out := make(map[models.Status]int, len(b.counts))
	for k, v := range b.counts {
		out[k] = v
	}
	return out
}

// Elapsed returns execution time since the run started, zero before then.
func (b *Builder) Elapsed(now time.Time) time.Duration {
	if b.runStart.IsZero() {
		return 0
	}
	return now.Sub(b.runStart)
}

// Handle dispatches one decoded message. Unknown variants degrade to a
// warning; the timeline keeps rendering everything decodable.
func (b *Builder) Handle(msg models.Message) {
	switch m := msg.(type) {
	case models.RunStarted:
		b.status = models.StatusRunning
		b.runStart = m.Timestamp
		b.ensureLive()
	case models.RunStartedResponse:
		b.log.Info("run registered", zap.String("run_id", m.RunID), zap.String("url", m.RunURL))
	case models.TestCaseStarted:
		b.status = models.StatusRunning
		if b.runStart.IsZero() {
			b.runStart = m.Timestamp
		}
		b.ensureLive()
	case models.LogBatch:
		for _, entry := range m.Entries {
			b.AddEntry(entry)
		}
	case models.Exception:
		b.AddEntry(models.LogEntry{
			Timestamp:     m.Timestamp,
			Message:       m.Message,
			Kind:          models.KindException,
			ExceptionType: m.ExceptionType,
			StackTrace:    m.StackTrace,
		})
	case models.TestCaseFinished:
		b.counts[m.Status]++
		if m.Status.Terminal() {
			b.status = m.Status
			b.removeLive()
		}
	case models.RunFinished:
		if m.Status.Terminal() {
			b.status = m.Status
			b.removeLive()
		}
	case models.Batch:
		for _, ev := range m.Events {
			b.Handle(ev)
		}
	case models.Heartbeat, models.StringTableUpdate:
		// Consumed upstream; nothing to render.
	case models.Generic:
		b.log.Warn("ignoring message with unknown type code", zap.Int("type", m.TypeCode))
	}
}

// AddEntry runs one entry through the pipeline: timestamp repair, ANSI
// translation, content filtering, registry labeling, echo detection,
// coalescing, teardown routing, and row insertion. Filtered-out entries
// contribute no side effects at all.
func (b *Builder) AddEntry(e models.LogEntry) {
	ts, raw := b.normalizeTime(e)

	text := ansi.Translate(e.Message)

	if !b.filter.Allow(text.Plain()) {
		return
	}

	badges, signature, comp := b.labelEntry(e)

	teardown := e.Phase == models.PhaseTeardown ||
		(comp != nil && comp.Phase == registry.PhaseTeardown)

	echoFlag := false
	coalescable := e.Direction == models.DirectionNone && e.Kind != models.KindException
	switch {
	case e.Direction == models.DirectionTx:
		b.echo[e.Channel] = e.Message
		b.group = nil
	case e.Direction == models.DirectionRx:
		if last, ok := b.echo[e.Channel]; ok && last == e.Message {
			echoFlag = true
		}
		b.group = nil
	case !coalescable:
		b.group = nil
	default:
		if b.merge(signature, ts, text) {
			b.bumpLive()
			return
		}
	}

	row := Row{
		ID:        uuid.New().String(),
		Timestamp: ts,
		RawTime:   raw,
		Badges:    badges,
		Lines:     []ansi.Text{text},
		Direction: e.Direction,
		Echo:      echoFlag,
		Exception: e.Kind == models.KindException,
		Teardown:  teardown,
	}
	if e.Kind == models.KindException {
		if e.ExceptionType != "" {
			row.Lines = append(row.Lines, ansi.Translate(e.ExceptionType))
		}
		for _, line := range e.StackTrace {
			row.Lines = append(row.Lines, ansi.Translate(line))
		}
	}

	if teardown {
		b.ensureTeardownHeader(ts, raw)
	}

	b.appendRow(row)

	if coalescable {
		b.group = &openGroup{signature: signature, start: ts, rowID: row.ID}
	}

	b.bumpLive()
}

// normalizeTime repairs and parses the entry's timestamp representation.
// Unparseable timestamps fall back to the raw string for display and never
// block row insertion.
func (b *Builder) normalizeTime(e models.LogEntry) (time.Time, string) {
	ts := e.Timestamp
	raw := e.RawTimestamp
	if ts.IsZero() && raw != "" {
		parsed, err := ParseTimestamp(RepairTimestamp(raw))
		if err != nil {
			b.log.Warn("unparseable entry timestamp", zap.String("raw", raw))
		} else {
			ts = parsed
		}
	}
	return ts, raw
}

// labelEntry resolves the component and channel, advances the phase
// machine, and returns the row's badges plus the badge signature used as
// the coalescing join key.
func (b *Builder) labelEntry(e models.LogEntry) ([]Badge, string, *registry.Component) {
	if e.Component == "" {
		return nil, "", nil
	}
	comp := b.reg.EnsureComponent(e.Component)
	phase := comp.Advance(e.Channel, e.Message)

	badges := []Badge{{Label: comp.Name, Color: comp.Color}}
	parts := []string{comp.Name}

	if label := phase.Label(); label != "" && e.Channel != label {
		badges = append(badges, Badge{Label: label, Color: comp.Color})
		parts = append(parts, label)
	}
	if e.Channel != "" {
		ch := comp.EnsureChannel(e.Channel)
		badges = append(badges, Badge{Label: ch.Name, Color: ch.Color})
		parts = append(parts, ch.Name)
	}
	return badges, strings.Join(parts, "|"), comp
}

// merge appends the text to the open group's row when the signature matches
// and the entry falls inside the join window anchored at the group's first
// member.
func (b *Builder) merge(signature string, ts time.Time, text ansi.Text) bool {
	if b.group == nil || b.group.signature != signature {
		return false
	}
	if ts.IsZero() || b.group.start.IsZero() {
		return false
	}
	gap := ts.Sub(b.group.start)
	if gap < 0 || gap > CoalesceWindow {
		return false
	}
	idx, ok := b.rowIndex[b.group.rowID]
	if !ok {
		return false
	}
	b.rows[idx].Lines = append(b.rows[idx].Lines, text)
	b.sink.UpdateRow(b.rows[idx])
	return true
}

func (b *Builder) ensureTeardownHeader(ts time.Time, raw string) {
	if b.teardown.HeaderPresent {
		return
	}
	header := Row{
		ID:        uuid.New().String(),
		Timestamp: ts,
		RawTime:   raw,
		Badges:    []Badge{{Label: "Teardown"}},
		Lines:     []ansi.Text{ansi.Translate("Teardown")},
		Header:    true,
	}
	b.teardown.HeaderPresent = true
	b.teardown.headerID = header.ID
	b.appendRow(header)
	b.sink.SetVisible(TeardownLabel, !b.teardown.Collapsed)
}

// Teardown returns the current teardown group state.
func (b *Builder) Teardown() TeardownGroup {
	return b.teardown
}

// ToggleTeardown expands or collapses the teardown group and recomputes
// delta times over the new set of visible rows.
func (b *Builder) ToggleTeardown() {
	if !b.teardown.HeaderPresent {
		return
	}
	b.teardown.Collapsed = !b.teardown.Collapsed
	b.sink.SetVisible(TeardownLabel, !b.teardown.Collapsed)
	b.refreshTimes()
	if b.teardown.Collapsed {
		return
	}
	// Streaming sinks could not print these rows while hidden; push them
	// explicitly, since refreshTimes only updates rows whose time text
	// changed.
	for i := range b.rows {
		if b.rows[i].Teardown {
			b.sink.UpdateRow(b.rows[i])
		}
	}
}

// SetTimeMode switches the time presentation mode, regenerating every
// visible timestamp from its stored raw value.
func (b *Builder) SetTimeMode(mode TimeMode) {
	if mode == b.mode {
		return
	}
	b.mode = mode
	b.refreshTimes()
}

// TimeMode returns the active presentation mode.
func (b *Builder) TimeMode() TimeMode {
	return b.mode
}

// VisibleRows returns the content rows currently visible, in order. Rows
// under a collapsed teardown group are excluded; the header stays visible.
func (b *Builder) VisibleRows() []Row {
	out := make([]Row, 0, len(b.rows))
	for _, row := range b.rows {
		if row.Teardown && b.teardown.Collapsed {
			continue
		}
		out = append(out, row)
	}
	return out
}

// appendRow assigns the row's time text, appends it in arrival order, and
// hands it to the sink.
func (b *Builder) appendRow(row Row) {
	row.TimeText = b.timeText(row)
	if b.rowVisible(row) && !row.Timestamp.IsZero() {
		b.lastVisible = row.Timestamp
		b.haveVisible = true
	}
	b.rowIndex[row.ID] = len(b.rows)
	b.rows = append(b.rows, row)
	b.sink.AppendRow(row)
}

func (b *Builder) rowVisible(row Row) bool {
	return !(row.Teardown && b.teardown.Collapsed)
}

// timeText renders the row's timestamp for the active mode at append time.
// Delta mode measures against the previously visible row.
func (b *Builder) timeText(row Row) string {
	if row.Timestamp.IsZero() {
		return row.RawTime
	}
	switch b.mode {
	case TimeDelta:
		if !b.rowVisible(row) || !b.haveVisible {
			return FormatDelta(0)
		}
		return FormatDelta(row.Timestamp.Sub(b.lastVisible))
	default:
		return FormatAbsolute(row.Timestamp)
	}
}

// refreshTimes recomputes every visible row's time text from raw
// timestamps. Called on mode toggles and visibility changes so displayed
// values are never derived from previously rendered text.
func (b *Builder) refreshTimes() {
	b.haveVisible = false
	b.lastVisible = time.Time{}
	for i := range b.rows {
		row := &b.rows[i]
		if !b.rowVisible(*row) {
			continue
		}
		var text string
		switch {
		case row.Timestamp.IsZero():
			text = row.RawTime
		case b.mode == TimeDelta && !b.haveVisible:
			text = FormatDelta(0)
		case b.mode == TimeDelta:
			text = FormatDelta(row.Timestamp.Sub(b.lastVisible))
		default:
			text = FormatAbsolute(row.Timestamp)
		}
		if !row.Timestamp.IsZero() {
			b.lastVisible = row.Timestamp
			b.haveVisible = true
		}
		if text != row.TimeText {
			row.TimeText = text
			b.sink.UpdateRow(*row)
		}
	}
}

// ensureLive keeps the trailing live placeholder as the last row while the
// run status is running or unknown.
func (b *Builder) ensureLive() {
	if b.status.Terminal() {
		return
	}
	if b.liveRow == nil {
		b.liveRow = &Row{ID: uuid.New().String(), Live: true}
	} else {
		b.sink.RemoveRow(b.liveRow.ID)
	}
	b.state = StateLive
	b.sink.AppendRow(*b.liveRow)
}

// bumpLive re-appends the live indicator after a row insertion so it stays
// the last row.
func (b *Builder) bumpLive() {
	if b.status == models.StatusRunning || b.status == models.StatusUnknown {
		b.ensureLive()
	}
}

func (b *Builder) removeLive() {
	if b.liveRow != nil {
		b.sink.RemoveRow(b.liveRow.ID)
		b.liveRow = nil
	}
	b.state = StateIdle
}

// ConnectionOpened marks the transport as live; the indicator appears when
// the run has not reached a terminal status.
func (b *Builder) ConnectionOpened() {
	if !b.status.Terminal() {
		b.ensureLive()
	}
}

// ConnectionClosed deterministically removes the live indicator.
func (b *Builder) ConnectionClosed() {
	b.removeLive()
}

// Reset tears the session state down: every row is removed from the sink
// and the registry, echo memory, group cursors, and counters are recreated
// so a new test case's stream cannot be contaminated by the old one.
func (b *Builder) Reset() {
	b.removeLive()
	for _, row := range b.rows {
		b.sink.RemoveRow(row.ID)
	}
	b.rows = nil
	b.rowIndex = make(map[string]int)
	b.reg = registry.New(b.log)
	b.echo = make(map[string]string)
	b.group = nil
	b.teardown = TeardownGroup{Collapsed: !b.expandTeardown}
	b.counts = make(map[models.Status]int)
	b.status = models.StatusUnknown
	b.runStart = time.Time{}
	b.lastVisible = time.Time{}
	b.haveVisible = false
}
