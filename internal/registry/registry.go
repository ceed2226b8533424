// Package registry assigns stable identity, deterministic display colors,
// and a per-component execution-phase machine to every distinct component
// and channel name observed in a run.
package registry

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExecPhase is the execution phase of a component, driven by traffic on its
// reserved "Setup" and "Teardown" channels.
type ExecPhase int

const (
	PhaseNormal ExecPhase = iota
	PhaseSetup
	PhaseTeardown
)

// Label returns the synthetic badge text for the phase, "" for normal.
func (p ExecPhase) Label() string {
	switch p {
	case PhaseSetup:
		return "Setup"
	case PhaseTeardown:
		return "Teardown"
	}
	return ""
}

// Reserved channel names and the markers that complete a setup phase.
const (
	setupChannelName    = "Setup"
	teardownChannelName = "Teardown"
	setupMarker         = "SETUP"
	doneMarker          = "DONE"
)

// Channel is a named stream within a component. Identity and color never
// change once assigned.
type Channel struct {
	Name  string
	Color string
	Tag   string
}

// Component is a named participant in the run. It owns its channels and its
// execution-phase machine. Created on first observation, never destroyed
// until the run's view is torn down.
type Component struct {
	Name  string
	Color string
	Tag   string
	Phase ExecPhase

	index        int
	channels     map[string]*Channel
	channelOrder []string
}

// EnsureChannel creates-or-fetches the named channel on this component.
func (c *Component) EnsureChannel(name string) *Channel {
	if ch, ok := c.channels[name]; ok {
		return ch
	}
	ch := &Channel{
		Name:  name,
		Color: channelColor(c.index, len(c.channelOrder)),
		Tag:   uuid.New().String(),
	}
	c.channels[name] = ch
	c.channelOrder = append(c.channelOrder, name)
	return ch
}

// Channels returns the component's channels in creation order.
func (c *Component) Channels() []*Channel {
	out := make([]*Channel, 0, len(c.channelOrder))
	for _, name := range c.channelOrder {
		out = append(out, c.channels[name])
	}
	return out
}

// Advance runs the phase machine for one message on the given channel.
//
// A message on the "Setup" channel moves the component into Setup, unless
// the text carries both the SETUP and DONE markers, which completes setup
// and returns the component to Normal. A message on the "Teardown" channel
// moves the component into Teardown, which is terminal for the remainder of
// the component's timeline.
func (c *Component) Advance(channel, message string) ExecPhase {
	if c.Phase == PhaseTeardown {
		return c.Phase
	}
	switch channel {
	case setupChannelName:
		if strings.Contains(message, setupMarker) && strings.Contains(message, doneMarker) {
			c.Phase = PhaseNormal
		} else {
			c.Phase = PhaseSetup
		}
	case teardownChannelName:
		c.Phase = PhaseTeardown
	}
	return c.Phase
}

// Registry owns all components observed in the current timeline session.
// It is not safe for concurrent use; the timeline's single processing flow
// is the only mutator.
type Registry struct {
	components map[string]*Component
	order      []*Component
	log        *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		components: make(map[string]*Component),
		log:        logger,
	}
}

// EnsureComponent creates-or-fetches the named component. Colors follow the
// golden-angle sequence in creation order, so identity and color are stable
// for the life of the session no matter how many entries stream in later.
func (r *Registry) EnsureComponent(name string) *Component {
	if c, ok := r.components[name]; ok {
		return c
	}
	c := &Component{
		Name:     name,
		Color:    colorForIndex(len(r.order)),
		Tag:      uuid.New().String(),
		index:    len(r.order),
		channels: make(map[string]*Channel),
	}
	r.components[name] = c
	r.order = append(r.order, c)
	r.log.Debug("registered component",
		zap.String("name", name), zap.String("color", c.Color))
	return c
}

// Components returns all components in creation order.
func (r *Registry) Components() []*Component {
	out := make([]*Component, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	return len(r.order)
}
