package timeline

import (
	"regexp"
	"time"

	"go.uber.org/zap"
)

// CoalesceWindow is the join window for merging adjacent same-origin rows.
// It is measured from the first member of the open group, not a sliding
// window, which bounds worst-case group duration and keeps delta-time
// calculations meaningful.
const CoalesceWindow = 10 * time.Millisecond

// ContentFilter applies user-supplied include/exclude patterns to a row's
// translated text. A pattern that fails to compile is surfaced as "no
// filter applied" for that pattern rather than silently matching nothing.
type ContentFilter struct {
	include *regexp.Regexp
	exclude *regexp.Regexp
}

// NewContentFilter compiles the patterns. Empty patterns are inactive;
// invalid patterns log a warning and stay inactive.
func NewContentFilter(include, exclude string, logger *zap.Logger) *ContentFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &ContentFilter{}
	if include != "" {
		re, err := regexp.Compile(include)
		if err != nil {
			logger.Warn("invalid include pattern, no filter applied",
				zap.String("pattern", include), zap.Error(err))
		} else {
			f.include = re
		}
	}
	if exclude != "" {
		re, err := regexp.Compile(exclude)
		if err != nil {
			logger.Warn("invalid exclude pattern, no filter applied",
				zap.String("pattern", exclude), zap.Error(err))
		} else {
			f.exclude = re
		}
	}
	return f
}

// Allow reports whether the text passes the active patterns. A nil filter
// allows everything.
func (f *ContentFilter) Allow(text string) bool {
	if f == nil {
		return true
	}
	if f.include != nil && !f.include.MatchString(text) {
		return false
	}
	if f.exclude != nil && f.exclude.MatchString(text) {
		return false
	}
	return true
}
