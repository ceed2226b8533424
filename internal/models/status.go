package models

// Status represents the execution status of a run or test case.
type Status int

const (
	StatusUnknown Status = iota
	StatusRunning
	StatusPassed
	StatusFailed
	StatusSkipped
	StatusAborted
	StatusFinished
)

var statusNames = map[Status]string{
	StatusUnknown:  "unknown",
	StatusRunning:  "running",
	StatusPassed:   "passed",
	StatusFailed:   "failed",
	StatusSkipped:  "skipped",
	StatusAborted:  "aborted",
	StatusFinished: "finished",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the status ends a run or test case. Running and
// unknown statuses keep the live indicator in place.
func (s Status) Terminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusSkipped, StatusAborted, StatusFinished:
		return true
	}
	return false
}
