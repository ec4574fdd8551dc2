package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/hrishioa/ipgu/internal/apperrors"
	"github.com/hrishioa/ipgu/internal/pricing"
	"github.com/hrishioa/ipgu/internal/srt"
	"github.com/hrishioa/ipgu/internal/subparse"
	"github.com/hrishioa/ipgu/internal/translate"
)

// Status is the lifecycle state of one segment.
type Status string

const (
	StatusPending      Status = "pending"
	StatusSplitting    Status = "splitting"
	StatusTranscribing Status = "transcribing"
	StatusPrompting    Status = "prompting"
	StatusTranslating  Status = "translating"
	StatusParsing      Status = "parsing"
	StatusValidating   Status = "validating"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// Segment is the unit of work. The orchestrator owns the segment vector;
// stage workers receive one segment each and mutate it in place.
type Segment struct {
	Part  int
	Start time.Duration
	End   time.Duration

	MediaPath            string
	RefSlicePath         string
	RawTranscriptPath    string
	FailedTranscriptPath string
	AdjustedPath         string
	ResponsePath         string
	ParsedPath           string

	Status  Status
	Err     string
	RefCues []srt.Cue

	TranscriptionUsage  pricing.TokenUsage
	TranslationAttempts []translate.Attempt

	Entries []subparse.Entry
}

func (s *Segment) fail(err error) {
	s.Status = StatusFailed
	s.Err = apperrors.PublicMessage(err)
}

// Duration returns the segment's window length.
func (s *Segment) Duration() time.Duration {
	return s.End - s.Start
}

// layout resolves every artifact path under the intermediate directory.
type layout struct {
	root string
}

func (l layout) mediaDir() string    { return filepath.Join(l.root, "media") }
func (l layout) refSliceDir() string { return filepath.Join(l.root, "srt") }
func (l layout) rawDir() string      { return filepath.Join(l.root, "raw_llm_transcripts") }
func (l layout) adjustedDir() string { return filepath.Join(l.root, "transcripts") }
func (l layout) responseDir() string { return filepath.Join(l.root, "responses") }
func (l layout) parsedDir() string   { return filepath.Join(l.root, "parsed_data") }

func (l layout) raw(part int) string {
	return filepath.Join(l.rawDir(), fmt.Sprintf("part%02d_raw.txt", part))
}

func (l layout) rawFailed(part int) string {
	return filepath.Join(l.rawDir(), fmt.Sprintf("part%02d_raw_transcript_FAILED.txt", part))
}

func (l layout) adjusted(part int) string {
	return filepath.Join(l.adjustedDir(), fmt.Sprintf("part%02d_adjusted.txt", part))
}

func (l layout) response(part int) string {
	return filepath.Join(l.responseDir(), fmt.Sprintf("part%02d_response.txt", part))
}

func (l layout) parsed(part int) string {
	return filepath.Join(l.parsedDir(), fmt.Sprintf("part%02d_parsed.json", part))
}
