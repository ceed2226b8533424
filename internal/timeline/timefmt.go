package timeline

import (
	"fmt"
	"strings"
	"time"
)

// TimeMode selects how row timestamps are presented. The two modes are
// mutually consistent: both are derived from the stored raw timestamps, so
// toggling between them reproduces the original text exactly.
type TimeMode int

const (
	TimeAbsolute TimeMode = iota
	TimeDelta
)

func (m TimeMode) String() string {
	if m == TimeDelta {
		return "delta"
	}
	return "absolute"
}

// ParseTimeMode parses a persisted mode name; anything unrecognized falls
// back to absolute.
func ParseTimeMode(s string) TimeMode {
	if s == "delta" {
		return TimeDelta
	}
	return TimeAbsolute
}

// FormatAbsolute renders an instant in viewer-local time with millisecond
// precision.
func FormatAbsolute(t time.Time) string {
	return t.Local().Format("15:04:05.000")
}

// FormatDelta renders elapsed time since the previously visible row:
// milliseconds below one second, seconds with two decimals below a minute,
// minutes plus seconds above that.
func FormatDelta(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		mins := int(d / time.Minute)
		secs := (d - time.Duration(mins)*time.Minute).Seconds()
		return fmt.Sprintf("%dm %05.2fs", mins, secs)
	}
}

// FormatElapsed renders a running execution duration as H:MM:SS.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// RepairTimestamp normalizes the known malformed pattern that combines a
// numeric UTC offset with a trailing zone marker ("...+00:00Z") into the
// canonical "...Z" form. Kept as a compatibility fix for transcripts
// produced by older runners; well-formed input passes through untouched.
func RepairTimestamp(s string) string {
	if strings.HasSuffix(s, "Z") && strings.Contains(s, "+00:00") {
		return strings.Replace(s, "+00:00", "", 1)
	}
	return s
}

// timestampLayouts are the transcript forms observed in practice. Layouts
// without a zone are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses a (possibly repaired) transcript timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
