package transcribe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrishioa/ipgu/internal/apperrors"
	"github.com/hrishioa/ipgu/internal/files"
	"github.com/hrishioa/ipgu/internal/logger"
	"github.com/hrishioa/ipgu/internal/pricing"
	"github.com/hrishioa/ipgu/internal/srt"
)

// Validation defaults.
const (
	DefaultMinRanges     = 5
	DefaultCoverageRatio = 0.75
	DefaultSpanMargin    = 0.10
)

// MediaTranscriber is the multimodal LLM surface the transcriber drives.
type MediaTranscriber interface {
	TranscribeFile(ctx context.Context, model, mediaPath, mimeType, prompt string) (string, pricing.TokenUsage, error)
}

// Request carries everything needed to transcribe one media slice.
type Request struct {
	MediaPath     string
	MIMEType      string
	ChunkDuration time.Duration
	ReferenceSpan time.Duration // 0 when no reference slice exists
	FailedPath    string        // where rejected transcripts are kept
}

// Transcriber uploads media slices and validates the returned transcripts.
type Transcriber struct {
	Client          MediaTranscriber
	Model           string
	SourceLanguages []string
	Retries         int
	MinRanges       int
	CoverageRatio   float64
	SpanMargin      float64
}

func (t *Transcriber) minRanges() int {
	if t.MinRanges > 0 {
		return t.MinRanges
	}
	return DefaultMinRanges
}

func (t *Transcriber) coverageRatio() float64 {
	if t.CoverageRatio > 0 {
		return t.CoverageRatio
	}
	return DefaultCoverageRatio
}

func (t *Transcriber) spanMargin() float64 {
	if t.SpanMargin > 0 {
		return t.SpanMargin
	}
	return DefaultSpanMargin
}

// Prompt builds the fixed transcription instruction.
func (t *Transcriber) Prompt() string {
	langs := "the spoken language"
	if len(t.SourceLanguages) > 0 {
		langs = strings.Join(t.SourceLanguages, " and ")
	}
	return fmt.Sprintf(`Transcribe the dialogue in this recording. The audio is in %s.

Output one line per utterance, formatted exactly as:
mm:ss - mm:ss - transcribed line

where the timestamps are the start and end of the utterance relative to the
beginning of this recording. Do not add commentary, headers, or translations;
output only transcript lines.`, langs)
}

// Transcribe uploads the slice and collects a validated transcript, retrying
// on validation failure up to the configured budget. API errors abort
// immediately: retrying a broken connection inside the validation loop only
// multiplies upload cost. Rejected transcripts are saved with the failure
// reason prepended.
func (t *Transcriber) Transcribe(ctx context.Context, req Request) (string, pricing.TokenUsage, error) {
	var total pricing.TokenUsage

	attempts := t.Retries + 1
	var lastReason string
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", total, err
		}

		text, usage, err := t.Client.TranscribeFile(ctx, t.Model, req.MediaPath, req.MIMEType, t.Prompt())
		total.Add(usage)
		if err != nil {
			return "", total, apperrors.New(apperrors.KindTranscription, "", err)
		}

		reason := t.validate(text, req.ChunkDuration, req.ReferenceSpan)
		if reason == "" {
			return text, total, nil
		}
		lastReason = reason
		logger.Warn("Transcript rejected", "attempt", attempt, "reason", reason)

		if req.FailedPath != "" {
			artifact := fmt.Sprintf("REJECTED (attempt %d): %s\n\n%s", attempt, reason, text)
			if werr := files.AtomicWrite(req.FailedPath, []byte(artifact), 0o644); werr != nil {
				logger.Warn("Failed to save rejected transcript", "path", req.FailedPath, "error", werr)
			}
		}
	}

	return "", total, apperrors.New(apperrors.KindTranscription,
		fmt.Sprintf("transcript failed validation after %d attempts: %s", attempts, lastReason), nil)
}

// validate returns an empty string for a usable transcript, or the failure
// reason. A transcript passes when it has enough timestamped ranges, covers
// enough of the chunk, and is not materially shorter than the reference span.
func (t *Transcriber) validate(text string, chunkDur, refSpan time.Duration) string {
	var firstStart, lastEnd time.Duration
	count := 0
	for _, line := range strings.Split(text, "\n") {
		_, start, end, ok := srt.FindClockRange(line)
		if !ok || end <= start {
			continue
		}
		if count == 0 || start < firstStart {
			firstStart = start
		}
		if end > lastEnd {
			lastEnd = end
		}
		count++
	}

	if count < t.minRanges() {
		return fmt.Sprintf("only %d valid timestamp ranges (need %d)", count, t.minRanges())
	}

	span := lastEnd - firstStart
	if chunkDur > 0 {
		needed := time.Duration(t.coverageRatio() * float64(chunkDur))
		if span < needed {
			return fmt.Sprintf("span %s covers less than %.0f%% of the %s chunk",
				span, t.coverageRatio()*100, chunkDur)
		}
	}

	if refSpan > time.Second {
		needed := time.Duration((1 - t.spanMargin()) * float64(refSpan))
		if span < needed {
			return fmt.Sprintf("span %s is shorter than the reference span %s beyond the allowed margin",
				span, refSpan)
		}
	}

	return ""
}
