package models

import "time"

// Message is the tagged union of decoded wire messages. Each variant carries
// only the fields relevant to it. Produced by the protocol decoder, consumed
// by the timeline builder.
type Message interface {
	isMessage()
}

// RunStarted announces a new test run.
type RunStarted struct {
	RunID     string
	RunName   string
	Timestamp time.Time
	LocalRun  bool
	Metadata  map[string]any
}

// RunStartedResponse is the server acknowledgement with the run's URLs.
type RunStartedResponse struct {
	RunID    string
	RunURL   string
	GroupURL string
}

// TestCaseStarted announces the start of a test case within a run.
type TestCaseStarted struct {
	RunID      string
	TestCaseID string
	FullName   string
	Timestamp  time.Time
}

// LogBatch carries an ordered sequence of log entries sharing the same
// run/test-case context.
type LogBatch struct {
	RunID      string
	TestCaseID string
	Entries    []LogEntry
}

// Exception reports an error raised during a test case.
type Exception struct {
	RunID         string
	TestCaseID    string
	Timestamp     time.Time
	Message       string
	ExceptionType string
	StackTrace    []string
	IsError       bool
}

// TestCaseFinished closes a test case with its final status.
type TestCaseFinished struct {
	RunID      string
	TestCaseID string
	Status     Status
	Timestamp  time.Time
}

// RunFinished closes a run with its final status.
type RunFinished struct {
	RunID     string
	Status    Status
	Timestamp time.Time
}

// Batch carries heterogeneous events, each decoded by its own sub-type code.
type Batch struct {
	Events []Message
}

// Heartbeat keeps the connection state fresh; the builder ignores it.
type Heartbeat struct {
	Timestamp time.Time
}

// StringTableUpdate registers id -> string mappings in bulk. Consumed at the
// decode layer; it never reaches the builder with unresolved ids.
type StringTableUpdate struct {
	Strings map[int]string
}

// Generic is produced for unrecognized type codes. It carries whatever
// common fields were present so the timeline can stay live even when a
// newer producer sends message types this viewer does not know.
type Generic struct {
	TypeCode  int
	RunID     string
	Status    Status
	Timestamp time.Time
	Message   string
}

func (RunStarted) isMessage()         {}
func (RunStartedResponse) isMessage() {}
func (TestCaseStarted) isMessage()    {}
func (LogBatch) isMessage()           {}
func (Exception) isMessage()          {}
func (TestCaseFinished) isMessage()   {}
func (RunFinished) isMessage()        {}
func (Batch) isMessage()              {}
func (Heartbeat) isMessage()          {}
func (StringTableUpdate) isMessage()  {}
func (Generic) isMessage()            {}
