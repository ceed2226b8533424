package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestEnsureComponentIdempotent(t *testing.T) {
	r := New(nil)

	first := r.EnsureComponent("DUT")
	second := r.EnsureComponent("DUT")

	assert.Same(t, first, second)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, first.Color, second.Color)
	assert.Equal(t, first.Tag, second.Tag)
}

func TestComponentColorsAreDistinct(t *testing.T) {
	r := New(nil)

	seen := make(map[string]string)
	names := []string{"DUT", "PowerSupply", "Relay", "Logger", "Host", "Probe"}
	for _, name := range names {
		c := r.EnsureComponent(name)
		if prev, ok := seen[c.Color]; ok {
			t.Fatalf("color %s assigned to both %s and %s", c.Color, prev, name)
		}
		seen[c.Color] = name
	}
}

func TestComponentsInCreationOrder(t *testing.T) {
	r := New(nil)
	r.EnsureComponent("B")
	r.EnsureComponent("A")
	r.EnsureComponent("C")
	r.EnsureComponent("A")

	var got []string
	for _, c := range r.Components() {
		got = append(got, c.Name)
	}
	assert.Equal(t, []string{"B", "A", "C"}, got)
}

func TestEnsureChannelIdempotent(t *testing.T) {
	r := New(nil)
	c := r.EnsureComponent("DUT")

	uart := c.EnsureChannel("UART0")
	again := c.EnsureChannel("UART0")
	can := c.EnsureChannel("CAN0")

	assert.Same(t, uart, again)
	assert.NotEqual(t, uart.Tag, can.Tag)
	assert.Len(t, c.Channels(), 2)
	assert.Equal(t, "UART0", c.Channels()[0].Name)
}

func TestPhaseMachineSetup(t *testing.T) {
	r := New(nil)
	c := r.EnsureComponent("DUT")

	assert.Equal(t, PhaseNormal, c.Phase)

	// A Setup-channel message without both markers enters Setup.
	c.Advance("Setup", "initializing power rails")
	assert.Equal(t, PhaseSetup, c.Phase)

	// Traffic on other channels does not change the phase.
	c.Advance("UART0", "hello")
	assert.Equal(t, PhaseSetup, c.Phase)

	// SETUP ... DONE completes the phase.
	c.Advance("Setup", "SETUP DONE")
	assert.Equal(t, PhaseNormal, c.Phase)
}

func TestPhaseMachineSetupNeedsBothMarkers(t *testing.T) {
	r := New(nil)
	c := r.EnsureComponent("DUT")

	c.Advance("Setup", "SETUP started")
	assert.Equal(t, PhaseSetup, c.Phase, "SETUP alone must not complete setup")

	c.Advance("Setup", "almost DONE")
	assert.Equal(t, PhaseSetup, c.Phase, "DONE alone must not complete setup")
}

func TestPhaseMachineTeardownIsTerminal(t *testing.T) {
	r := New(nil)
	c := r.EnsureComponent("DUT")

	c.Advance("Teardown", "closing connections")
	assert.Equal(t, PhaseTeardown, c.Phase)

	// No defined transition back.
	c.Advance("Setup", "SETUP DONE")
	assert.Equal(t, PhaseTeardown, c.Phase)
	c.Advance("UART0", "bye")
	assert.Equal(t, PhaseTeardown, c.Phase)
}

func TestPhaseLabels(t *testing.T) {
	assert.Equal(t, "", PhaseNormal.Label())
	assert.Equal(t, "Setup", PhaseSetup.Label())
	assert.Equal(t, "Teardown", PhaseTeardown.Label())
}

// Identity and color must stay stable no matter how many lookups happen in
// whatever order.
func TestIdentityStabilityProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := New(nil)
		names := rapid.SliceOfN(rapid.StringMatching(`[A-Za-z][A-Za-z0-9]{0,8}`), 1, 20).Draw(rt, "names")

		colors := make(map[string]string)
		tags := make(map[string]string)
		for _, name := range names {
			c := r.EnsureComponent(name)
			if prev, ok := colors[name]; ok && prev != c.Color {
				rt.Fatalf("color for %q changed from %s to %s", name, prev, c.Color)
			}
			if prev, ok := tags[name]; ok && prev != c.Tag {
				rt.Fatalf("identity tag for %q changed", name)
			}
			colors[name] = c.Color
			tags[name] = c.Tag
		}

		unique := make(map[string]bool)
		for _, name := range names {
			unique[name] = true
		}
		if r.Len() != len(unique) {
			rt.Fatalf("registry has %d components, want %d", r.Len(), len(unique))
		}
	})
}
