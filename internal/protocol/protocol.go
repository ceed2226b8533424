/*
Package protocol decodes the optimized MessagePack wire format used between
the test runner, the TestRift server, and this viewer.

The format is size-optimized two ways:

 1. Field names are short ASCII tokens ("t", "ts", "ch", ...) so MessagePack
    encodes them as one- or two-byte fixstrs.
 2. Component and channel names are interned per connection: the first
    occurrence travels as an [id, "name"] pair, later occurrences as the bare
    integer id, resolved through a per-session StringTable.

Decoding is best-effort by design: a malformed record degrades to a partial
result or a typed DecodeError for logging, never a panic, because the
timeline must stay live even when one frame is corrupt.
*/
package protocol

import "github.com/testrift/viewer/internal/models"

// Message type codes (the "t" field).
const (
	MsgRunStarted         = 1
	MsgRunStartedResponse = 2
	MsgTestCaseStarted    = 3
	MsgLogBatch           = 4
	MsgException          = 5
	MsgTestCaseFinished   = 6
	MsgRunFinished        = 7
	MsgBatch              = 8
	MsgHeartbeat          = 9
	MsgStringTable        = 10
)

var msgTypeNames = map[int]string{
	MsgRunStarted:         "run_started",
	MsgRunStartedResponse: "run_started_response",
	MsgTestCaseStarted:    "test_case_started",
	MsgLogBatch:           "log_batch",
	MsgException:          "exception",
	MsgTestCaseFinished:   "test_case_finished",
	MsgRunFinished:        "run_finished",
	MsgBatch:              "batch",
	MsgHeartbeat:          "heartbeat",
	MsgStringTable:        "string_table",
}

// MessageTypeName returns the readable name of a type code for logging.
func MessageTypeName(code int) string {
	if name, ok := msgTypeNames[code]; ok {
		return name
	}
	return "unknown"
}

// Status codes (the "s" field).
const (
	StatusRunning  = 1
	StatusPassed   = 2
	StatusFailed   = 3
	StatusSkipped  = 4
	StatusAborted  = 5
	StatusFinished = 6
)

// StatusFromCode maps a wire status code to its semantic status.
// Unrecognized codes map to StatusUnknown.
func StatusFromCode(code int) models.Status {
	switch code {
	case StatusRunning:
		return models.StatusRunning
	case StatusPassed:
		return models.StatusPassed
	case StatusFailed:
		return models.StatusFailed
	case StatusSkipped:
		return models.StatusSkipped
	case StatusAborted:
		return models.StatusAborted
	case StatusFinished:
		return models.StatusFinished
	}
	return models.StatusUnknown
}

// Direction codes (the "d" field).
const (
	DirTx = 1
	DirRx = 2
)

// DirectionFromCode maps a wire direction code to its semantic direction.
func DirectionFromCode(code int) models.Direction {
	switch code {
	case DirTx:
		return models.DirectionTx
	case DirRx:
		return models.DirectionRx
	}
	return models.DirectionNone
}

// Phase codes (the "p" field).
const (
	PhaseTeardown = 1
)

// PhaseFromCode maps a wire phase code to its semantic phase.
func PhaseFromCode(code int) models.Phase {
	if code == PhaseTeardown {
		return models.PhaseTeardown
	}
	return models.PhaseNone
}

// Field keys. MessagePack encodes strings under 32 bytes as fixstr with a
// one-byte length prefix, so single-character keys are optimal.
const (
	fType          = "t"   // message type (int)
	fRunID         = "r"   // run id (string)
	fRunName       = "n"   // run name (string)
	fStatus        = "s"   // status code (int)
	fTimestamp     = "ts"  // milliseconds since epoch (int64)
	fError         = "err" // error message (string)
	fTCFullName    = "f"   // test case full name (string)
	fTCID          = "i"   // test case id (string)
	fMessage       = "m"   // log message (string)
	fComponent     = "c"   // component id or [id, name] pair
	fChannel       = "ch"  // channel id or [id, name] pair
	fDirection     = "d"   // direction code (int)
	fPhase         = "p"   // phase code (int)
	fEntries       = "e"   // log entries array
	fEvents        = "ev"  // events array in a batch message
	fEventType     = "et"  // event sub-type code within a batch (int)
	fExceptionType = "xt"  // exception type name (string)
	fStackTrace    = "st"  // stack trace lines (array of strings)
	fIsError       = "ie"  // is-error flag (bool)
	fUserMetadata  = "md"  // user metadata (object)
	fLocalRun      = "lr"  // local run flag (bool)
	fRunURL        = "ru"  // run URL (string)
	fGroupURL      = "gu"  // group URL (string)
	fStrings       = "str" // string table entries {id: string}
)
