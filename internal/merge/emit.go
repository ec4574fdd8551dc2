package merge

import (
	"fmt"
	"sort"
	"time"

	"github.com/hrishioa/ipgu/internal/issues"
	"github.com/hrishioa/ipgu/internal/srt"
)

// DefaultFallbackMarker prefixes english lines that were taken from the
// reference rather than the model.
const DefaultFallbackMarker = "※ "

// EmitOptions shape the final file.
type EmitOptions struct {
	TargetLang     string // lowercase language key
	ColorEnglish   string // hex color, e.g. "#FFFFFF"
	ColorTarget    string
	MarkFallbacks  bool
	FallbackMarker string
	OutputOffset   time.Duration
}

func (o EmitOptions) marker() string {
	if o.FallbackMarker != "" {
		return o.FallbackMarker
	}
	return DefaultFallbackMarker
}

// Emit orders the final sequence by start time, applies the output offset,
// assigns dense final ids from 1, and writes the bilingual subtitle file.
// Entries shifted to a negative start are dropped with a warning. Returns
// the number of emitted cues. Repair hands cues over sorted by original id;
// with response timings in play that order can disagree with start order, and
// the file's cue numbers must follow the timeline.
func Emit(path string, cues []FinalCue, opts EmitOptions, log *issues.Collector) (int, error) {
	sort.SliceStable(cues, func(i, j int) bool {
		return cues[i].Start < cues[j].Start
	})

	var out []srt.Cue
	for i := range cues {
		c := &cues[i]
		start := c.Start + opts.OutputOffset
		end := c.End + opts.OutputOffset
		if start < 0 {
			log.Add(issues.Issue{
				Kind:       issues.KindFormatError,
				Severity:   issues.SeverityWarning,
				Message:    fmt.Sprintf("dropping id %s: output offset pushes start below zero", c.OriginalID),
				SubtitleID: c.OriginalID,
			})
			continue
		}

		lines := composeLines(*c, opts)
		if len(lines) == 0 {
			log.Add(issues.Issue{
				Kind:       issues.KindFormatError,
				Severity:   issues.SeverityWarning,
				Message:    fmt.Sprintf("dropping id %s: no text in either language", c.OriginalID),
				SubtitleID: c.OriginalID,
			})
			continue
		}

		c.FinalID = len(out) + 1
		out = append(out, srt.Cue{
			ID:    c.FinalID,
			Start: start,
			End:   end,
			Lines: lines,
		})
	}

	if err := srt.Write(path, out); err != nil {
		return 0, err
	}
	return len(out), nil
}

func composeLines(c FinalCue, opts EmitOptions) []string {
	var lines []string

	if eng := c.Translations["english"]; eng != nil && *eng != "" {
		text := *eng
		if c.IsFallback && opts.MarkFallbacks {
			text = opts.marker() + text
		}
		lines = append(lines, colorSpan(text, opts.ColorEnglish))
	}
	if tgt := c.Translations[opts.TargetLang]; tgt != nil && *tgt != "" {
		lines = append(lines, colorSpan(*tgt, opts.ColorTarget))
	}
	return lines
}

func colorSpan(text, hex string) string {
	if hex == "" {
		return text
	}
	return fmt.Sprintf(`<font color="%s">%s</font>`, hex, text)
}
