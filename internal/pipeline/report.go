package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/hrishioa/ipgu/internal/issues"
	"github.com/hrishioa/ipgu/internal/pricing"
)

// maxReportedIssues bounds the issue listing in the rendered report.
const maxReportedIssues = 50

// Result is the run summary handed back to the CLI.
type Result struct {
	RunID         string
	OutputPath    string
	VideoDuration time.Duration

	Total     int
	Completed int
	Failed    int
	Emitted   int

	Costs         []pricing.ModelTotal
	CostPerMinute float64
	Issues        []issues.Issue
}

// Render produces the human-readable pipeline summary.
func (r Result) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "--- Pipeline Summary (run %s) ---\n", r.RunID)
	fmt.Fprintf(&b, "Segments: %d total, %d completed, %d failed\n", r.Total, r.Completed, r.Failed)
	if r.Emitted > 0 {
		fmt.Fprintf(&b, "Output: %s (%d subtitles)\n", r.OutputPath, r.Emitted)
	}

	if len(r.Costs) > 0 {
		b.WriteString("Token usage:\n")
		var grand float64
		for _, t := range r.Costs {
			if t.KnownRates {
				fmt.Fprintf(&b, "  %s: in=%d out=%d cost=$%.4f\n",
					t.Model, t.Usage.InputTokens, t.Usage.OutputTokens, t.Cost)
				grand += t.Cost
			} else {
				fmt.Fprintf(&b, "  %s: in=%d out=%d (no pricing data)\n",
					t.Model, t.Usage.InputTokens, t.Usage.OutputTokens)
			}
		}
		if r.VideoDuration > 0 && grand > 0 {
			fmt.Fprintf(&b, "Estimated cost: $%.4f ($%.4f per minute of video)\n", grand, r.CostPerMinute)
		}
	}

	if len(r.Issues) > 0 {
		errs, warns := 0, 0
		for _, i := range r.Issues {
			switch i.Severity {
			case issues.SeverityError:
				errs++
			case issues.SeverityWarning:
				warns++
			}
		}
		fmt.Fprintf(&b, "Issues: %d (%d errors, %d warnings)\n", len(r.Issues), errs, warns)
		for i, issue := range r.Issues {
			if i >= maxReportedIssues {
				fmt.Fprintf(&b, "  … and %d more\n", len(r.Issues)-maxReportedIssues)
				break
			}
			fmt.Fprintf(&b, "  %s\n", issue)
		}
	}

	return b.String()
}
