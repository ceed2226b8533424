package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickerDelivers(t *testing.T) {
	tk := NewTicker(5 * time.Millisecond)
	assert.False(t, tk.Running())

	tk.Start()
	defer tk.Stop()
	assert.True(t, tk.Running())

	select {
	case <-tk.Ticks():
	case <-time.After(time.Second):
		t.Fatal("no tick within a second")
	}
}

func TestTickerStartStopIdempotent(t *testing.T) {
	tk := NewTicker(5 * time.Millisecond)

	tk.Start()
	tk.Start()
	assert.True(t, tk.Running())

	tk.Stop()
	tk.Stop()
	assert.False(t, tk.Running())

	// Restart after stop works.
	tk.Start()
	assert.True(t, tk.Running())
	tk.Stop()
}

func TestTickerDefaultsInterval(t *testing.T) {
	tk := NewTicker(0)
	assert.Equal(t, time.Second, tk.interval)
}
