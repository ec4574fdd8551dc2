package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hrishioa/ipgu/internal/config"
	"github.com/hrishioa/ipgu/internal/files"
	"github.com/hrishioa/ipgu/internal/gemini"
	"github.com/hrishioa/ipgu/internal/issues"
	"github.com/hrishioa/ipgu/internal/logger"
	"github.com/hrishioa/ipgu/internal/media"
	"github.com/hrishioa/ipgu/internal/merge"
	"github.com/hrishioa/ipgu/internal/pricing"
	"github.com/hrishioa/ipgu/internal/segmenter"
	"github.com/hrishioa/ipgu/internal/srt"
	"github.com/hrishioa/ipgu/internal/subparse"
	"github.com/hrishioa/ipgu/internal/transcribe"
	"github.com/hrishioa/ipgu/internal/translate"
)

// Pipeline runs the staged segment flow from probe to emitted subtitle file.
type Pipeline struct {
	cfg        config.Config
	lay        layout
	log        *issues.Collector
	agg        *pricing.Aggregator
	transcoder *media.Transcoder
	gem        *gemini.Client
}

// Run executes the whole pipeline for one video.
func Run(ctx context.Context, cfg config.Config) (Result, error) {
	cfg, notes := cfg.Normalize()
	for _, note := range notes {
		logger.Warn("Config normalized", "detail", note)
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid configuration: %w", err)
	}

	p := &Pipeline{
		cfg:        cfg,
		lay:        layout{root: cfg.IntermediateDir},
		log:        issues.NewCollector(),
		agg:        pricing.NewAggregator(),
		transcoder: media.NewTranscoder(),
	}

	if key := cfg.APIKeys["gemini"]; key != "" {
		gem, err := gemini.NewClient(ctx, key)
		if err != nil {
			return Result{}, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		defer gem.Close()
		p.gem = gem
	} else {
		return Result{}, fmt.Errorf("a Gemini API key is required for transcription uploads")
	}

	result := Result{RunID: uuid.NewString(), OutputPath: cfg.OutputPath()}

	// Probe. A non-parseable duration is fatal for the whole run.
	videoDur, err := p.transcoder.Duration(ctx, cfg.VideoPath)
	if err != nil {
		return result, fmt.Errorf("probe failed: %w", err)
	}
	result.VideoDuration = videoDur
	logger.Info("Probed video", "path", cfg.VideoPath, "duration", videoDur)

	// Reference subtitles.
	var ref []srt.Cue
	if cfg.SRTPath != "" {
		ref, err = srt.LoadReference(cfg.SRTPath, cfg.InputOffset(), p.log)
		if err != nil {
			return result, fmt.Errorf("failed to load reference subtitles: %w", err)
		}
		logger.Info("Loaded reference subtitles", "count", len(ref))
	}

	// S1: windows and slices.
	windows := segmenter.ComputeWindows(videoDur, cfg.ChunkDur(), cfg.OverlapDur())
	if len(windows) == 0 {
		return result, fmt.Errorf("no usable windows for duration %s", videoDur)
	}
	lastPart := windows[len(windows)-1].Part
	if cfg.ProcessOnlyPart > 0 {
		windows = filterWindows(windows, cfg.ProcessOnlyPart)
		if len(windows) == 0 {
			return result, fmt.Errorf("processOnlyPart %d is out of range", cfg.ProcessOnlyPart)
		}
	}

	segs, err := p.split(ctx, windows, ref)
	if err != nil {
		return result, err
	}
	result.Total = len(segs)

	live := filterStatus(segs, func(s *Segment) bool { return s.Status != StatusFailed })
	if len(live) == 0 {
		p.finishResult(&result, segs, videoDur)
		return result, fmt.Errorf("all %d segments failed during segmentation", len(segs))
	}

	// S2+S3: transcribe and rebase.
	if err := p.forEach(ctx, live, p.transcribeSegment); err != nil {
		return result, err
	}

	// S4–S6: translate, parse, validate (the retry loop is worker-local).
	live = filterStatus(segs, func(s *Segment) bool { return s.Status == StatusPrompting || s.Status == StatusCompleted })
	provider, err := translate.SelectProvider(cfg.TranslationModel, p.gem, cfg.APIKeys)
	if err != nil {
		return result, err
	}
	translator := &translate.Translator{Provider: provider, Retries: cfg.Retries}
	if err := p.forEach(ctx, live, func(ctx context.Context, s *Segment) {
		p.translateSegment(ctx, s, translator, lastPart)
	}); err != nil {
		return result, err
	}

	// S7: merge across segments; failed segments contribute their last
	// parsed data on a best-effort basis.
	var entries []subparse.Entry
	for _, s := range segs {
		entries = append(entries, s.Entries...)
	}
	merged, err := merge.Merge(entries, ref, merge.Options{
		TargetLang:         cfg.TargetLangKey(),
		UseResponseTimings: cfg.UseResponseTimings,
	}, p.log)
	if err != nil {
		return result, err
	}
	if len(merged) == 0 {
		p.finishResult(&result, segs, videoDur)
		return result, fmt.Errorf("no subtitles survived the merge")
	}
	logger.Info("Merged segments", "entries", len(entries), "subtitles", len(merged))

	// S8: timing repair.
	merged = merge.Repair(merged, p.log)

	// S9: emit and account.
	emitted, err := merge.Emit(result.OutputPath, merged, merge.EmitOptions{
		TargetLang:    cfg.TargetLangKey(),
		ColorEnglish:  cfg.ColorEnglish,
		ColorTarget:   cfg.ColorTarget,
		MarkFallbacks: cfg.MarkFallbacks,
		OutputOffset:  cfg.OutputOffset(),
	}, p.log)
	if err != nil {
		return result, fmt.Errorf("failed to write output file: %w", err)
	}
	result.Emitted = emitted
	logger.Info("Wrote bilingual subtitles", "path", result.OutputPath, "count", emitted)

	p.finishResult(&result, segs, videoDur)
	return result, nil
}

// split runs S1 and materializes the segment records.
func (p *Pipeline) split(ctx context.Context, windows []segmenter.Window, ref []srt.Cue) ([]*Segment, error) {
	seg := &segmenter.Segmenter{
		Transcoder:    p.transcoder,
		MediaDir:      p.lay.mediaDir(),
		RefSliceDir:   p.lay.refSliceDir(),
		Format:        media.Format(p.cfg.ChunkFormat),
		MaxConcurrent: p.cfg.MaxConcurrent,
		Force:         p.cfg.Force,
	}

	var refCues []srt.Cue
	if p.cfg.SRTPath != "" {
		refCues = ref
		if refCues == nil {
			refCues = []srt.Cue{}
		}
	}

	results, err := seg.Run(ctx, p.cfg.VideoPath, windows, refCues, p.log)
	if err != nil {
		return nil, err
	}

	segs := make([]*Segment, len(results))
	for i, r := range results {
		s := &Segment{
			Part:                 r.Part,
			Start:                r.Window.Start,
			End:                  r.Window.End,
			MediaPath:            r.MediaPath,
			RefSlicePath:         r.RefPath,
			RefCues:              r.RefCues,
			RawTranscriptPath:    p.lay.raw(r.Part),
			FailedTranscriptPath: p.lay.rawFailed(r.Part),
			AdjustedPath:         p.lay.adjusted(r.Part),
			ResponsePath:         p.lay.response(r.Part),
			ParsedPath:           p.lay.parsed(r.Part),
			Status:               StatusSplitting,
		}
		if r.Err != nil {
			s.fail(r.Err)
		} else {
			s.Status = StatusPending
		}
		segs[i] = s
	}
	return segs, nil
}

// forEach runs fn over the segments with the configured concurrency bound.
// Stage barriers fall out of the join.
func (p *Pipeline) forEach(ctx context.Context, segs []*Segment, fn func(context.Context, *Segment)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrent)
	for _, s := range segs {
		g.Go(func() error {
			fn(gctx, s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// transcribeSegment covers S2 and S3 for one segment.
func (p *Pipeline) transcribeSegment(ctx context.Context, s *Segment) {
	if !p.cfg.Force && fileNonEmpty(s.AdjustedPath) {
		logger.Debug("Adjusted transcript exists, skipping transcription", "part", s.Part)
		s.Status = StatusPrompting
		return
	}

	s.Status = StatusTranscribing
	tr := &transcribe.Transcriber{
		Client:          p.gem,
		Model:           p.cfg.TranscriptionModel,
		SourceLanguages: p.cfg.SourceLanguages,
		Retries:         p.cfg.TranscriptionRetries,
	}
	req := transcribe.Request{
		MediaPath:     s.MediaPath,
		MIMEType:      media.Format(p.cfg.ChunkFormat).MIMEType(),
		ChunkDuration: s.Duration(),
		ReferenceSpan: srt.Span(s.RefCues),
		FailedPath:    s.FailedTranscriptPath,
	}

	text, usage, err := tr.Transcribe(ctx, req)
	s.TranscriptionUsage.Add(usage)
	if err != nil {
		p.log.Add(issues.Issue{
			Kind:        issues.KindTranscriptionError,
			Severity:    issues.SeverityError,
			Message:     err.Error(),
			SegmentPart: s.Part,
		})
		s.fail(err)
		return
	}

	if err := files.AtomicWrite(s.RawTranscriptPath, []byte(text), 0o644); err != nil {
		s.fail(err)
		return
	}
	adjusted := transcribe.Rebase(text, s.Start)
	if err := files.AtomicWrite(s.AdjustedPath, []byte(adjusted), 0o644); err != nil {
		s.fail(err)
		return
	}
	s.Status = StatusPrompting
	logger.Info("Transcribed segment", "part", s.Part, "tokens_in", usage.InputTokens, "tokens_out", usage.OutputTokens)
}

// translateSegment covers the S4→S5→S6 loop for one segment. Validation
// failures re-prompt within the retry budget; the final attempt's parsed
// data is kept even on failure for best-effort merging.
func (p *Pipeline) translateSegment(ctx context.Context, s *Segment, translator *translate.Translator, lastPart int) {
	if !p.cfg.Force && fileNonEmpty(s.ParsedPath) {
		if err := p.loadParsed(s); err == nil {
			logger.Debug("Parsed data exists, skipping translation", "part", s.Part)
			s.Status = StatusCompleted
			return
		}
	}

	transcript, err := os.ReadFile(s.AdjustedPath)
	if err != nil {
		s.fail(fmt.Errorf("missing adjusted transcript: %w", err))
		return
	}
	var refText string
	if s.RefSlicePath != "" {
		if data, err := os.ReadFile(s.RefSlicePath); err == nil {
			refText = string(data)
		}
	}

	for attempt := 0; attempt <= p.cfg.Retries; attempt++ {
		s.Status = StatusTranslating
		prompt := translate.BuildPrompt(string(transcript), refText, p.cfg.TargetLanguage)

		text, attempts, err := translator.Translate(ctx, prompt)
		s.TranslationAttempts = append(s.TranslationAttempts, attempts...)
		if err != nil {
			p.log.Add(issues.Issue{
				Kind:        issues.KindTranslationError,
				Severity:    issues.SeverityError,
				Message:     err.Error(),
				SegmentPart: s.Part,
			})
			s.fail(err)
			return
		}
		if werr := files.AtomicWrite(s.ResponsePath, []byte(text), 0o644); werr != nil {
			s.fail(werr)
			return
		}

		s.Status = StatusParsing
		parser := subparse.New(p.cfg.TargetLangKey(), s.Part, p.log)
		entries, stats := parser.Parse(text)
		s.Entries = entries
		if werr := p.saveParsed(s); werr != nil {
			s.fail(werr)
			return
		}

		s.Status = StatusValidating
		scores := translate.Validate(entries, s.RefCues, stats.Errors, translate.ValidateOptions{
			DisableTiming: p.cfg.DisableTimingValidation,
			LastSegment:   s.Part == lastPart,
			FinalRetry:    attempt == p.cfg.Retries,
		})
		for _, w := range scores.Warnings {
			p.log.Add(issues.Issue{
				Kind:        issues.KindValidationError,
				Severity:    issues.SeverityWarning,
				Message:     w,
				SegmentPart: s.Part,
			})
		}
		if scores.Passed() {
			s.Status = StatusCompleted
			logger.Info("Segment completed", "part", s.Part, "entries", len(entries), "attempt", attempt+1)
			return
		}

		for _, c := range scores.Critical {
			p.log.Add(issues.Issue{
				Kind:        issues.KindValidationError,
				Severity:    issues.SeverityError,
				Message:     c,
				SegmentPart: s.Part,
			})
		}
		if attempt == p.cfg.Retries {
			s.fail(fmt.Errorf("validation failed after %d attempts: %s", attempt+1, scores.Critical[0]))
			return
		}
		logger.Warn("Validation failed, re-prompting", "part", s.Part, "attempt", attempt+1, "problems", len(scores.Critical))
	}
}

type parsedArtifact struct {
	Part    int              `json:"part"`
	Entries []subparse.Entry `json:"entries"`
}

func (p *Pipeline) saveParsed(s *Segment) error {
	data, err := json.MarshalIndent(parsedArtifact{Part: s.Part, Entries: s.Entries}, "", "  ")
	if err != nil {
		return err
	}
	return files.AtomicWrite(s.ParsedPath, data, 0o644)
}

func (p *Pipeline) loadParsed(s *Segment) error {
	data, err := os.ReadFile(s.ParsedPath)
	if err != nil {
		return err
	}
	var artifact parsedArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return err
	}
	s.Entries = artifact.Entries
	return nil
}

func (p *Pipeline) finishResult(result *Result, segs []*Segment, videoDur time.Duration) {
	for _, s := range segs {
		if s.Status == StatusCompleted {
			result.Completed++
		} else if s.Status == StatusFailed {
			result.Failed++
		}
		p.agg.Record(p.cfg.TranscriptionModel, s.TranscriptionUsage)
		for _, a := range s.TranslationAttempts {
			p.agg.Record(a.Model, a.Usage)
		}
	}
	result.Total = len(segs)
	result.Costs = p.agg.Totals()
	for _, t := range result.Costs {
		if !t.KnownRates {
			logger.Warn("No pricing data for model; reporting token counts only", "model", t.Model)
		}
	}
	if videoDur > 0 {
		result.CostPerMinute = p.agg.GrandTotal() / videoDur.Minutes()
	}
	result.Issues = p.log.Issues()
}

func filterWindows(windows []segmenter.Window, part int) []segmenter.Window {
	var out []segmenter.Window
	for _, w := range windows {
		if w.Part == part {
			out = append(out, w)
		}
	}
	return out
}

func filterStatus(segs []*Segment, keep func(*Segment) bool) []*Segment {
	var out []*Segment
	for _, s := range segs {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func fileNonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
