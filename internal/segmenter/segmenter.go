package segmenter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hrishioa/ipgu/internal/issues"
	"github.com/hrishioa/ipgu/internal/logger"
	"github.com/hrishioa/ipgu/internal/media"
	"github.com/hrishioa/ipgu/internal/srt"
)

// Window is one time slice of the source media. Parts are dense and 1-based.
type Window struct {
	Part  int
	Start time.Duration
	End   time.Duration
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return w.End - w.Start
}

// ComputeWindows derives the chunk windows for a media file of the given
// total duration. Windows step by chunk-overlap; a final window shorter than
// a third of the chunk duration is merged into the previous window's end
// rather than emitted on its own. The result is a pure function of the
// three inputs.
func ComputeWindows(total, chunk, overlap time.Duration) []Window {
	if total <= 0 || chunk <= 0 || overlap >= chunk {
		return nil
	}

	step := chunk - overlap
	var windows []Window
	for start := time.Duration(0); start < total; start += step {
		end := start + chunk
		if end > total {
			end = total
		}
		windows = append(windows, Window{
			Part:  len(windows) + 1,
			Start: start,
			End:   end,
		})
		if end == total {
			break
		}
	}

	if n := len(windows); n > 1 && windows[n-1].Duration() < chunk/3 {
		windows[n-2].End = total
		windows = windows[:n-1]
	}
	return windows
}

// Result describes the slicing outcome for one window.
type Result struct {
	Window
	MediaPath string
	RefPath   string // empty when no reference subtitle was provided
	RefCues   []srt.Cue
	Skipped   bool // slice file already existed and force was off
	Err       error
}

// Segmenter drives the transcoder to produce per-window media slices and
// reference subtitle slices.
type Segmenter struct {
	Transcoder    *media.Transcoder
	MediaDir      string
	RefSliceDir   string
	Format        media.Format
	MaxConcurrent int
	Force         bool
}

// Run slices every window concurrently (bounded) and, when reference cues
// are supplied, writes the overlapping subset for each window with original
// ids preserved. A failed transcoder invocation fails only its own window.
func (s *Segmenter) Run(ctx context.Context, input string, windows []Window, ref []srt.Cue, log *issues.Collector) ([]Result, error) {
	for _, dir := range []string{s.MediaDir, s.RefSliceDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create intermediate directory: %w", err)
		}
	}

	results := make([]Result, len(windows))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	limit := s.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, w := range windows {
		g.Go(func() error {
			res := s.sliceWindow(gctx, input, w, ref, log)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Segmenter) sliceWindow(ctx context.Context, input string, w Window, ref []srt.Cue, log *issues.Collector) Result {
	res := Result{
		Window:    w,
		MediaPath: filepath.Join(s.MediaDir, fmt.Sprintf("part%02d%s", w.Part, s.Format.Ext())),
	}

	if ref != nil {
		res.RefPath = filepath.Join(s.RefSliceDir, fmt.Sprintf("part%02d.srt", w.Part))
		res.RefCues = srt.SliceOverlapping(ref, w.Start, w.End)
		if err := srt.WriteSlice(res.RefPath, res.RefCues); err != nil {
			res.Err = err
			log.Add(issues.Issue{
				Kind:        issues.KindSplitError,
				Severity:    issues.SeverityError,
				Message:     fmt.Sprintf("failed to write reference slice: %v", err),
				SegmentPart: w.Part,
			})
			return res
		}
	}

	if _, err := os.Stat(res.MediaPath); err == nil && !s.Force {
		logger.Debug("Slice exists, skipping transcode", "part", w.Part, "path", res.MediaPath)
		res.Skipped = true
		return res
	}

	if err := s.Transcoder.Slice(ctx, input, res.MediaPath, w.Start, w.Duration(), s.Format); err != nil {
		res.Err = err
		log.Add(issues.Issue{
			Kind:        issues.KindSplitError,
			Severity:    issues.SeverityError,
			Message:     fmt.Sprintf("transcoder failed: %v", err),
			SegmentPart: w.Part,
		})
		return res
	}
	logger.Info("Sliced segment", "part", w.Part, "start", w.Start, "end", w.End)
	return res
}
