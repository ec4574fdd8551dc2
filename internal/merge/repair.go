package merge

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/hrishioa/ipgu/internal/issues"
	"github.com/hrishioa/ipgu/internal/logger"
)

// Timing repair parameters.
const (
	MinDuration = 500 * time.Millisecond
	MaxDuration = 7 * time.Second
	OverlapGap  = 50 * time.Millisecond
	MaxPasses   = 10
)

// Repair eliminates overlaps between adjacent cues and clamps durations.
// Overlaps are resolved by shortening the earlier cue; when shortening would
// violate the minimum duration the overlap is left in place with a warning.
// Clamping runs after overlap repair and may reintroduce overlap; that is
// the accepted terminal state. The result is ordered by numeric original id.
func Repair(cues []FinalCue, log *issues.Collector) []FinalCue {
	sort.Slice(cues, func(i, j int) bool {
		return cues[i].Start < cues[j].Start
	})

	for pass := 1; pass <= MaxPasses; pass++ {
		changed := 0
		for i := 0; i < len(cues)-1; i++ {
			cur := &cues[i]
			nxt := &cues[i+1]
			if cur.End <= nxt.Start {
				continue
			}

			target := cur.Start + MaxDuration
			if limit := nxt.Start - OverlapGap; limit < target {
				target = limit
			}
			if target-cur.Start >= MinDuration {
				cur.End = target
				changed++
				continue
			}
			log.Add(issues.Issue{
				Kind:       issues.KindMergeError,
				Severity:   issues.SeverityWarning,
				Message:    fmt.Sprintf("overlap between %s and %s left in place: shortening would violate minimum duration", cur.OriginalID, nxt.OriginalID),
				SubtitleID: cur.OriginalID,
			})
		}
		if changed == 0 {
			break
		}
		logger.Debug("Overlap repair pass complete", "pass", pass, "changes", changed)
	}

	for i := range cues {
		dur := cues[i].End - cues[i].Start
		if dur < MinDuration {
			cues[i].End = cues[i].Start + MinDuration
		} else if dur > MaxDuration {
			cues[i].End = cues[i].Start + MaxDuration
		}
	}

	sort.Slice(cues, func(i, j int) bool {
		a, aerr := strconv.Atoi(cues[i].OriginalID)
		b, berr := strconv.Atoi(cues[j].OriginalID)
		if aerr != nil || berr != nil {
			return cues[i].OriginalID < cues[j].OriginalID
		}
		return a < b
	})
	return cues
}
