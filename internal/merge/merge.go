package merge

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/hrishioa/ipgu/internal/apperrors"
	"github.com/hrishioa/ipgu/internal/issues"
	"github.com/hrishioa/ipgu/internal/srt"
	"github.com/hrishioa/ipgu/internal/subparse"
	"github.com/hrishioa/ipgu/internal/translate"
)

// Timing sources for a merged subtitle.
const (
	TimingOriginal = "original"
	TimingLLM      = "llm"
)

// FinalCue is a merged subtitle on its way to the output file.
type FinalCue struct {
	OriginalID   string
	FinalID      int
	Start        time.Duration
	End          time.Duration
	Translations map[string]*string
	IsFallback   bool
	TimingSource string
}

// Options steer the merge.
type Options struct {
	TargetLang         string // lowercase language key
	UseResponseTimings bool
}

// Merge collapses entries from all completed segments into one subtitle per
// original id. For ids produced by several overlapping segments the entry
// from the highest chunk wins: the later segment saw the subtitle inside its
// upstream overlap with more surrounding context. Skip-marked entries are
// dropped, and reference text backfills missing english translations.
func Merge(entries []subparse.Entry, ref []srt.Cue, opts Options, log *issues.Collector) ([]FinalCue, error) {
	if !opts.UseResponseTimings && len(ref) == 0 {
		return nil, apperrors.New(apperrors.KindMerge,
			"reference subtitles are required when response timings are disabled", nil)
	}

	best := make(map[string]subparse.Entry)
	for _, e := range entries {
		if cur, ok := best[e.OriginalID]; !ok || e.SourceChunk > cur.SourceChunk {
			best[e.OriginalID] = e
		}
	}

	refByID := make(map[string]srt.Cue, len(ref))
	for _, r := range ref {
		refByID[strconv.Itoa(r.ID)] = r
	}

	var out []FinalCue
	for _, e := range best {
		if isSkipped(e, opts.TargetLang) {
			continue
		}

		translations := e.Translations
		if translations == nil {
			translations = map[string]*string{}
		}
		f := FinalCue{
			OriginalID:   e.OriginalID,
			Translations: translations,
		}

		r, hasRef := refByID[e.OriginalID]
		switch {
		case opts.UseResponseTimings && e.HasTiming:
			f.Start, f.End = e.Start, e.End
			f.TimingSource = TimingLLM
		case hasRef:
			f.Start, f.End = r.Start, r.End
			f.TimingSource = TimingOriginal
		default:
			log.Add(issues.Issue{
				Kind:       issues.KindMergeError,
				Severity:   issues.SeverityWarning,
				Message:    fmt.Sprintf("dropping id %s: no usable timing from response or reference", e.OriginalID),
				SubtitleID: e.OriginalID,
			})
			continue
		}

		eng := e.Translations["english"]
		if (eng == nil || *eng == "") && hasRef {
			text := r.Text()
			f.Translations["english"] = &text
			f.IsFallback = true
		}

		out = append(out, f)
	}

	sort.Slice(out, func(i, j int) bool {
		a, aerr := strconv.Atoi(out[i].OriginalID)
		b, berr := strconv.Atoi(out[j].OriginalID)
		if aerr != nil || berr != nil {
			return out[i].OriginalID < out[j].OriginalID
		}
		return a < b
	})
	return out, nil
}

// isSkipped reports whether either translation is exactly the skip marker.
// Partial matches do not skip.
func isSkipped(e subparse.Entry, targetLang string) bool {
	for _, key := range []string{"english", targetLang} {
		if v := e.Translations[key]; v != nil && *v == translate.SkipMarker {
			return true
		}
	}
	return false
}
