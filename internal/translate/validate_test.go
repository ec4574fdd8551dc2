package translate

import (
	"strconv"
	"testing"
	"time"

	"github.com/hrishioa/ipgu/internal/srt"
	"github.com/hrishioa/ipgu/internal/subparse"
)

func refCues(n int) []srt.Cue {
	cues := make([]srt.Cue, n)
	for i := range cues {
		start := time.Duration(i*4) * time.Second
		cues[i] = srt.Cue{ID: i + 1, Start: start, End: start + 3*time.Second, Lines: []string{"line"}}
	}
	return cues
}

func matchingEntries(ref []srt.Cue) []subparse.Entry {
	entries := make([]subparse.Entry, len(ref))
	for i, r := range ref {
		text := "t"
		entries[i] = subparse.Entry{
			OriginalID:   strconv.Itoa(r.ID),
			Translations: map[string]*string{"english": &text},
			HasTiming:    true,
			Start:        r.Start,
			End:          r.End,
		}
	}
	return entries
}

func TestValidatePasses(t *testing.T) {
	ref := refCues(20)
	s := Validate(matchingEntries(ref), ref, 0, ValidateOptions{})
	if !s.Passed() {
		t.Fatalf("expected pass, critical: %v", s.Critical)
	}
	if s.CountCoverage != 1 || s.IDCoverage != 1 {
		t.Errorf("coverage = %v, %v", s.CountCoverage, s.IDCoverage)
	}
}

func TestValidateCountCoverage(t *testing.T) {
	ref := refCues(20)
	entries := matchingEntries(ref)[:17] // 0.85 coverage
	s := Validate(entries, ref, 0, ValidateOptions{})
	if s.Passed() {
		t.Fatalf("expected count coverage failure")
	}
}

func TestValidateParseErrorRate(t *testing.T) {
	ref := refCues(20)
	s := Validate(matchingEntries(ref), ref, 2, ValidateOptions{}) // 0.10 > 0.05
	if s.Passed() {
		t.Fatalf("expected parse error rate failure")
	}
	s = Validate(matchingEntries(ref), ref, 1, ValidateOptions{}) // 0.05, at limit
	if !s.Passed() {
		t.Fatalf("rate at the threshold should pass, critical: %v", s.Critical)
	}
}

func TestValidateTimingMismatch(t *testing.T) {
	ref := refCues(10)
	entries := matchingEntries(ref)
	// Shift two entries well past the 3s margin: 0.2 mismatch rate.
	entries[0].Start += 5 * time.Second
	entries[0].End += 5 * time.Second
	entries[1].End += 10 * time.Second

	s := Validate(entries, ref, 0, ValidateOptions{})
	if s.Passed() {
		t.Fatalf("expected timing mismatch failure, rate=%v", s.TimingMismatchRate)
	}

	t.Run("disabled check passes", func(t *testing.T) {
		s := Validate(entries, ref, 0, ValidateOptions{DisableTiming: true})
		if !s.Passed() {
			t.Errorf("timing check should be disabled: %v", s.Critical)
		}
	})

	t.Run("last segment final retry downgrades to warning", func(t *testing.T) {
		s := Validate(entries, ref, 0, ValidateOptions{LastSegment: true, FinalRetry: true})
		if !s.Passed() {
			t.Errorf("expected leniency, critical: %v", s.Critical)
		}
		if len(s.Warnings) == 0 {
			t.Errorf("expected a downgraded warning")
		}
	})

	t.Run("last segment alone is not lenient", func(t *testing.T) {
		s := Validate(entries, ref, 0, ValidateOptions{LastSegment: true})
		if s.Passed() {
			t.Errorf("leniency requires the final retry too")
		}
	})
}

func TestValidateEmptyResponse(t *testing.T) {
	// With no reference the denominators clamp to 1, so an empty response
	// still fails count coverage instead of dividing by zero.
	s := Validate(nil, nil, 0, ValidateOptions{})
	if s.Passed() {
		t.Errorf("an empty response should not validate")
	}
}

func TestValidateMissingIDs(t *testing.T) {
	ref := refCues(10)
	entries := matchingEntries(ref)[2:] // drop ids 1 and 2: 0.8 coverage

	s := Validate(entries, ref, 0, ValidateOptions{})
	if len(s.MissingIDs) != 2 || s.MissingIDs[0] != "1" || s.MissingIDs[1] != "2" {
		t.Errorf("MissingIDs = %v", s.MissingIDs)
	}
	if s.Passed() {
		t.Errorf("0.8 coverage should fail")
	}
}

func TestValidateBoundaryCoveragePasses(t *testing.T) {
	ref := refCues(10)
	entries := matchingEntries(ref)[1:] // exactly 0.9 coverage

	s := Validate(entries, ref, 0, ValidateOptions{})
	if !s.Passed() {
		t.Errorf("coverage at the 0.90 threshold should pass, critical: %v", s.Critical)
	}
}
