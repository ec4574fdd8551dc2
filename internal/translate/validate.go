package translate

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hrishioa/ipgu/internal/srt"
	"github.com/hrishioa/ipgu/internal/subparse"
)

// Validation thresholds.
const (
	MaxParseErrorRate    = 0.05
	MinCountCoverage     = 0.90
	MinIDCoverage        = 0.90
	MaxTimingMismatch    = 0.10
	TimingAbsoluteMargin = 3 * time.Second
)

// ValidateOptions tune one validation pass.
type ValidateOptions struct {
	DisableTiming bool
	// LastSegment and FinalRetry together downgrade a timing failure to a
	// warning: the tail segment routinely ends mid-scene and is not worth
	// another attempt.
	LastSegment bool
	FinalRetry  bool
}

// Scores is the result of checking parsed output against the reference slice.
type Scores struct {
	RefCount           int
	ParsedCount        int
	ParseErrorRate     float64
	CountCoverage      float64
	IDCoverage         float64
	TimingMismatchRate float64
	TimingPairs        int
	MissingIDs         []string

	Critical []string
	Warnings []string
}

// Passed reports whether no critical check failed.
func (s Scores) Passed() bool {
	return len(s.Critical) == 0
}

// Validate scores one segment's parsed entries against its reference slice.
func Validate(entries []subparse.Entry, ref []srt.Cue, parseErrors int, opts ValidateOptions) Scores {
	s := Scores{
		RefCount:    len(ref),
		ParsedCount: len(entries),
	}

	denom := float64(len(ref))
	if denom < 1 {
		denom = 1
	}

	s.ParseErrorRate = float64(parseErrors) / denom
	if s.ParseErrorRate > MaxParseErrorRate {
		s.Critical = append(s.Critical,
			fmt.Sprintf("parse error rate %.2f exceeds %.2f", s.ParseErrorRate, MaxParseErrorRate))
	}

	s.CountCoverage = float64(len(entries)) / denom
	if s.CountCoverage < MinCountCoverage {
		s.Critical = append(s.Critical,
			fmt.Sprintf("count coverage %.2f below %.2f (%d of %d)", s.CountCoverage, MinCountCoverage, len(entries), len(ref)))
	}

	byID := make(map[string]subparse.Entry, len(entries))
	for _, e := range entries {
		byID[e.OriginalID] = e
	}
	missing := 0
	for _, r := range ref {
		if _, ok := byID[strconv.Itoa(r.ID)]; !ok {
			missing++
			s.MissingIDs = append(s.MissingIDs, strconv.Itoa(r.ID))
		}
	}
	s.IDCoverage = 1 - float64(missing)/denom
	if s.IDCoverage < MinIDCoverage {
		s.Critical = append(s.Critical,
			fmt.Sprintf("id coverage %.2f below %.2f (%d reference ids missing)", s.IDCoverage, MinIDCoverage, missing))
	}

	if !opts.DisableTiming {
		mismatches := 0
		for _, r := range ref {
			e, ok := byID[strconv.Itoa(r.ID)]
			if !ok || !e.HasTiming {
				continue
			}
			s.TimingPairs++
			startDelta := absDuration(e.Start - r.Start)
			durDelta := absDuration((e.End - e.Start) - (r.End - r.Start))
			if startDelta > TimingAbsoluteMargin || durDelta > TimingAbsoluteMargin {
				mismatches++
			}
		}
		if s.TimingPairs > 0 {
			s.TimingMismatchRate = float64(mismatches) / float64(s.TimingPairs)
		}
		if s.TimingMismatchRate > MaxTimingMismatch {
			msg := fmt.Sprintf("timing mismatch rate %.2f exceeds %.2f (%d of %d pairs)",
				s.TimingMismatchRate, MaxTimingMismatch, mismatches, s.TimingPairs)
			if opts.LastSegment && opts.FinalRetry {
				s.Warnings = append(s.Warnings, msg+" (tolerated on final retry of last segment)")
			} else {
				s.Critical = append(s.Critical, msg)
			}
		}
	}

	return s
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
