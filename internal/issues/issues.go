package issues

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rivo/uniseg"
)

// Severity of a recorded processing issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Kind identifies what went wrong. The parse sub-kinds mirror the failure
// modes of the tolerant response parser.
type Kind string

const (
	KindSplitError         Kind = "SplitError"
	KindTranscriptionError Kind = "TranscriptionError"
	KindTranslationError   Kind = "TranslationError"
	KindValidationError    Kind = "ValidationError"
	KindMergeError         Kind = "MergeError"
	KindFormatError        Kind = "FormatError"

	KindMissingTag                  Kind = "MissingTag"
	KindMalformedTag                Kind = "MalformedTag"
	KindNumberNotFound              Kind = "NumberNotFound"
	KindTextNotFound                Kind = "TextNotFound"
	KindInvalidTimingFormat         Kind = "InvalidTimingFormat"
	KindInvalidTimingValue          Kind = "InvalidTimingValue"
	KindDuplicateID                 Kind = "DuplicateId"
	KindAmbiguousStructure          Kind = "AmbiguousStructure"
	KindExtractionFailed            Kind = "ExtractionFailed"
	KindMarkdownBlockEmptyOrInvalid Kind = "MarkdownBlockEmptyOrInvalid"
)

// maxSnippetGraphemes bounds the stored context excerpt.
const maxSnippetGraphemes = 150

// Issue is an immutable structured log record describing one processing problem.
type Issue struct {
	Kind        Kind     `json:"kind"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	SegmentPart int      `json:"segmentPart,omitempty"`
	SubtitleID  string   `json:"subtitleId,omitempty"`
	Line        int      `json:"lineNumber,omitempty"`
	Snippet     string   `json:"contextSnippet,omitempty"`
}

func (i Issue) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", i.Severity, i.Kind, i.Message)
	if i.SegmentPart > 0 {
		fmt.Fprintf(&b, " (part %d", i.SegmentPart)
		if i.SubtitleID != "" {
			fmt.Fprintf(&b, ", id %s", i.SubtitleID)
		}
		if i.Line > 0 {
			fmt.Fprintf(&b, ", line %d", i.Line)
		}
		b.WriteString(")")
	} else if i.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", i.Line)
	}
	return b.String()
}

// Snippet truncates context to the bounded grapheme budget.
func Snippet(s string) string {
	s = strings.TrimSpace(s)
	if uniseg.GraphemeClusterCount(s) <= maxSnippetGraphemes {
		return s
	}
	var b strings.Builder
	gr := uniseg.NewGraphemes(s)
	count := 0
	for gr.Next() {
		if count >= maxSnippetGraphemes-1 {
			break
		}
		b.WriteString(gr.Str())
		count++
	}
	b.WriteString("…")
	return b.String()
}

// Collector is an append-only, concurrency-safe issue log shared across stages.
type Collector struct {
	mu     sync.Mutex
	issues []Issue
}

func NewCollector() *Collector {
	return &Collector{}
}

// Add records an issue. The snippet is truncated on the way in so stored
// records stay bounded.
func (c *Collector) Add(issue Issue) {
	issue.Snippet = Snippet(issue.Snippet)
	c.mu.Lock()
	c.issues = append(c.issues, issue)
	c.mu.Unlock()
}

// Issues returns a copy of everything recorded so far.
func (c *Collector) Issues() []Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Issue, len(c.issues))
	copy(out, c.issues)
	return out
}

// CountBySeverity returns how many issues carry the given severity.
func (c *Collector) CountBySeverity(sev Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, i := range c.issues {
		if i.Severity == sev {
			n++
		}
	}
	return n
}

// ForPart returns all issues recorded against one segment part.
func (c *Collector) ForPart(part int) []Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Issue
	for _, i := range c.issues {
		if i.SegmentPart == part {
			out = append(out, i)
		}
	}
	return out
}

// Len returns the total number of recorded issues.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.issues)
}
