// Package models contains domain types for the TestRift timeline viewer.
package models

import "time"

// Direction indicates which way a log entry travelled on its channel.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionTx             // host -> device
	DirectionRx             // device -> host
)

// String returns the wire name of the direction, or "" for DirectionNone.
func (d Direction) String() string {
	switch d {
	case DirectionTx:
		return "tx"
	case DirectionRx:
		return "rx"
	}
	return ""
}

// DirectionFromName parses a direction name ("tx"/"rx", case-insensitive).
// Anything else maps to DirectionNone.
func DirectionFromName(name string) Direction {
	switch name {
	case "tx", "TX", "Tx":
		return DirectionTx
	case "rx", "RX", "Rx":
		return DirectionRx
	}
	return DirectionNone
}

// Phase marks an entry as belonging to a special execution phase.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseTeardown
)

// String returns the wire name of the phase, or "" for PhaseNone.
func (p Phase) String() string {
	if p == PhaseTeardown {
		return "teardown"
	}
	return ""
}

// PhaseFromName parses a phase name. Unknown names map to PhaseNone.
func PhaseFromName(name string) Phase {
	if name == "teardown" || name == "Teardown" {
		return PhaseTeardown
	}
	return PhaseNone
}

// Kind distinguishes ordinary log entries from exception entries.
type Kind int

const (
	KindLog Kind = iota
	KindException
)

// LogEntry is the canonical post-decode unit fed to the timeline builder.
// Immutable once constructed. Timestamp may be the zero value when only
// RawTimestamp is known (replay transcripts carry ISO strings, possibly
// malformed); the builder repairs and parses those.
type LogEntry struct {
	Timestamp     time.Time
	RawTimestamp  string // original wire/transcript representation
	Message       string
	Component     string
	Channel       string
	Direction     Direction
	Phase         Phase
	Kind          Kind
	ExceptionType string   // set for KindException
	StackTrace    []string // set for KindException
}
