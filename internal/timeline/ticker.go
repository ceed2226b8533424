package timeline

import (
	"sync"
	"time"
)

// Ticker delivers periodic ticks for the elapsed-execution-time display.
// Ticks are events on a channel consumed by the same loop that processes
// transport messages, so the timeline keeps a single mutating flow of
// control. Start and Stop are idempotent: starting a running ticker and
// stopping a stopped one are both no-ops.
type Ticker struct {
	interval time.Duration

	mu    sync.Mutex
	stop  chan struct{}
	ticks chan time.Time
}

// NewTicker creates a stopped ticker. A non-positive interval defaults to
// one second.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{
		interval: interval,
		ticks:    make(chan time.Time, 1),
	}
}

// Ticks returns the tick channel. Ticks are dropped, not queued, when the
// consumer lags behind.
func (t *Ticker) Ticks() <-chan time.Time {
	return t.ticks
}

// Start begins ticking. No-op when already running.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	stop := make(chan struct{})
	t.stop = stop
	go t.run(stop)
}

// Stop halts ticking. No-op when already stopped. After Stop returns no
// further ticks are produced.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
}

// Running reports whether the ticker is currently started.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

func (t *Ticker) run(stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			select {
			case t.ticks <- now:
			default:
			}
		}
	}
}
