package srt

import (
	"strings"
	"time"
)

// Cue represents a single subtitle entry with absolute timings.
type Cue struct {
	ID    int
	Start time.Duration
	End   time.Duration
	Lines []string
}

// Text joins the cue's lines with newlines.
func (c Cue) Text() string {
	return strings.Join(c.Lines, "\n")
}

// Overlaps reports whether the cue shares any time strictly inside (start, end).
// Full containment and partial overlap of either boundary both count; a cue
// that only touches start or end does not.
func (c Cue) Overlaps(start, end time.Duration) bool {
	return c.Start < end && c.End > start
}

// Span returns lastEnd - firstStart over the cues, or 0 for an empty set.
func Span(cues []Cue) time.Duration {
	if len(cues) == 0 {
		return 0
	}
	first := cues[0].Start
	last := cues[0].End
	for _, c := range cues[1:] {
		if c.Start < first {
			first = c.Start
		}
		if c.End > last {
			last = c.End
		}
	}
	return last - first
}
