package subparse

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hrishioa/ipgu/internal/issues"
	"github.com/hrishioa/ipgu/internal/srt"
)

// Source formats an entry can be recovered from.
const (
	SourceFencedBlock   = "fencedBlock"
	SourceBareTag       = "bareTag"
	SourceRegexFallback = "regexFallback"
)

// Entry is one parsed translation record, keyed by the reference subtitle id.
type Entry struct {
	OriginalID     string             `json:"originalId"`
	OriginalLine   string             `json:"originalLine,omitempty"`
	OriginalTiming string             `json:"originalTiming,omitempty"`
	Start          time.Duration      `json:"start,omitempty"`
	End            time.Duration      `json:"end,omitempty"`
	HasTiming      bool               `json:"hasTiming"`
	Translations   map[string]*string `json:"translations"`
	SourceChunk    int                `json:"sourceChunk"`
	SourceFormat   string             `json:"sourceFormat"`
	Line           int                `json:"lineNumber,omitempty"`
}

// Stats summarizes what the parser recorded for one response.
type Stats struct {
	Entries  int
	Errors   int
	Warnings int
}

var (
	fenceRe   = regexp.MustCompile("(?s)```[a-zA-Z]*\n?(.*?)```")
	sublineRe = regexp.MustCompile(`<subline>`)
	numberRe  = regexp.MustCompile(`<\s*(?:original_number|number|id)\s*>`)
)

// tagAliases maps each canonical field to the tag names accepted for it.
var tagAliases = map[string][]string{
	"original_number": {"original_number", "number", "id"},
	"original_line":   {"original_line"},
	"original_timing": {"original_timing", "timing"},
	"english":         {"better_english_translation", "english_translation", "english"},
}

// Parser extracts translation entries from semi-structured LLM output.
type Parser struct {
	targetLang string // lowercase language key, e.g. "korean"
	chunk      int
	log        *issues.Collector
	stats      Stats
}

func New(targetLang string, chunk int, log *issues.Collector) *Parser {
	return &Parser{
		targetLang: strings.ToLower(targetLang),
		chunk:      chunk,
		log:        log,
	}
}

// Parse runs the full tolerant extraction over one response document:
// fenced blocks first, then bare <subline> tags outside any fence, then a
// regex fallback when nothing structured was found. Entries are deduplicated
// by id (first wins) and sorted by numeric id.
func (p *Parser) Parse(text string) ([]Entry, Stats) {
	var entries []Entry

	fences := fenceRe.FindAllStringSubmatchIndex(text, -1)
	var fenceRanges [][2]int
	for _, m := range fences {
		fenceRanges = append(fenceRanges, [2]int{m[0], m[1]})
		inner := text[m[2]:m[3]]
		found := p.parseSublines(inner, m[2], text, SourceFencedBlock)
		if len(found) == 0 && strings.Contains(inner, "<") {
			p.warn(issues.KindMarkdownBlockEmptyOrInvalid,
				"fenced block contains markup but no usable subline entries",
				"", lineAt(text, m[0]), inner)
		}
		entries = append(entries, found...)
	}

	// Bare <subline> blocks outside every fenced range.
	for _, m := range sublineRe.FindAllStringIndex(text, -1) {
		if inRanges(m[0], fenceRanges) {
			continue
		}
		block, blockStart, ok := p.cutSubline(text, m[0])
		if !ok {
			continue
		}
		if e, ok := p.extractEntry(block, blockStart, text, SourceBareTag); ok {
			entries = append(entries, e)
		}
	}

	// Last resort: no structure at all, but number tags are present.
	if len(entries) == 0 {
		entries = p.regexFallback(text)
	}

	entries = p.dedupe(entries)
	sort.SliceStable(entries, func(i, j int) bool {
		a, aerr := strconv.Atoi(entries[i].OriginalID)
		b, berr := strconv.Atoi(entries[j].OriginalID)
		if aerr != nil || berr != nil {
			return entries[i].OriginalID < entries[j].OriginalID
		}
		return a < b
	})

	p.stats.Entries = len(entries)
	return entries, p.stats
}

// parseSublines finds every <subline> block inside region and extracts an
// entry from each. base is the region's offset in the full document, used
// for line numbers.
func (p *Parser) parseSublines(region string, base int, doc string, source string) []Entry {
	var out []Entry
	for _, m := range sublineRe.FindAllStringIndex(region, -1) {
		block, blockStart, ok := p.cutSubline(region, m[0])
		if !ok {
			continue
		}
		if e, ok := p.extractEntry(block, base+blockStart, doc, source); ok {
			out = append(out, e)
		}
	}
	return out
}

// cutSubline returns the content of the <subline> block opening at off. A
// missing closer is tolerated: the block runs to the next <subline> opener
// or the end of the region, with a warning.
func (p *Parser) cutSubline(region string, off int) (string, int, bool) {
	contentStart := off + len("<subline>")
	rest := region[contentStart:]

	next := sublineRe.FindStringIndex(rest)
	if end := strings.Index(rest, "</subline>"); end >= 0 && (next == nil || end < next[0]) {
		return rest[:end], contentStart, true
	}

	end := len(rest)
	if next != nil {
		end = next[0]
	}
	p.warn(issues.KindMalformedTag,
		"subline block has no closing tag; content recovered up to the next block",
		"", lineAt(region, off), rest[:end])
	return rest[:end], contentStart, true
}

// extractEntry pulls all fields out of one subline block.
func (p *Parser) extractEntry(block string, base int, doc string, source string) (Entry, bool) {
	line := lineAt(doc, base)

	id, ok := p.extractField(block, "original_number", "", line)
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		p.fail(issues.KindNumberNotFound, "subline block carries no original number", "", line, block)
		return Entry{}, false
	}

	e := Entry{
		OriginalID:   id,
		SourceChunk:  p.chunk,
		SourceFormat: source,
		Line:         line,
		Translations: map[string]*string{},
	}

	if v, ok := p.extractField(block, "original_line", id, line); ok {
		e.OriginalLine = strings.TrimSpace(v)
	}

	if eng, ok := p.extractField(block, "english", id, line); ok {
		v := strings.TrimSpace(eng)
		e.Translations["english"] = &v
	} else {
		e.Translations["english"] = nil
	}

	targetNames := []string{p.targetLang + "_translation", p.targetLang}
	if tgt, ok := p.extractTag(block, targetNames, id, line); ok {
		v := strings.TrimSpace(tgt)
		e.Translations[p.targetLang] = &v
	} else {
		e.Translations[p.targetLang] = nil
	}

	if e.Translations["english"] == nil && e.Translations[p.targetLang] == nil {
		p.warn(issues.KindTextNotFound,
			fmt.Sprintf("subline %s carries no translation in either language", id),
			id, line, block)
	}

	if timing, ok := p.extractField(block, "original_timing", id, line); ok {
		e.OriginalTiming = strings.TrimSpace(timing)
		p.parseTiming(&e)
	}

	return e, true
}

func (p *Parser) parseTiming(e *Entry) {
	start, end, present, err := srt.ParseRange(e.OriginalTiming)
	if !present {
		if e.OriginalTiming != "" {
			p.warn(issues.KindInvalidTimingFormat,
				fmt.Sprintf("unrecognized timing format %q", e.OriginalTiming),
				e.OriginalID, e.Line, e.OriginalTiming)
		}
		return
	}
	if err != nil {
		p.warn(issues.KindInvalidTimingFormat,
			fmt.Sprintf("timing failed to parse: %v", err),
			e.OriginalID, e.Line, e.OriginalTiming)
		return
	}
	if end <= start {
		p.warn(issues.KindInvalidTimingValue,
			fmt.Sprintf("timing is non-monotonic (%s)", e.OriginalTiming),
			e.OriginalID, e.Line, e.OriginalTiming)
		return
	}
	e.Start = start
	e.End = end
	e.HasTiming = true
}

// extractField resolves a canonical field through its alias table.
func (p *Parser) extractField(block, canonical, id string, line int) (string, bool) {
	return p.extractTag(block, tagAliases[canonical], id, line)
}

// extractTag is the tolerant extractor: the value is everything between the
// opening tag and the next "</" occurrence. A closer that does not match the
// opener is kept with a warning instead of losing the content.
func (p *Parser) extractTag(block string, names []string, id string, line int) (string, bool) {
	for _, name := range names {
		re := regexp.MustCompile(`<\s*` + regexp.QuoteMeta(name) + `\s*>`)
		m := re.FindStringIndex(block)
		if m == nil {
			continue
		}
		rest := block[m[1]:]
		closeIdx := strings.Index(rest, "</")
		if closeIdx < 0 {
			p.warn(issues.KindMalformedTag,
				fmt.Sprintf("tag <%s> never closes; taking remainder of block", name),
				id, line, rest)
			return rest, true
		}
		value := rest[:closeIdx]
		expected := "</" + name + ">"
		if !strings.HasPrefix(rest[closeIdx:], expected) {
			p.warn(issues.KindMalformedTag,
				fmt.Sprintf("tag <%s> closed by a mismatched tag; content kept", name),
				id, line, rest[closeIdx:min(len(rest), closeIdx+30)])
		}
		return value, true
	}
	return "", false
}

// regexFallback recovers entries from documents with number tags but no
// recognizable subline structure.
func (p *Parser) regexFallback(text string) []Entry {
	matches := numberRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	p.warn(issues.KindAmbiguousStructure,
		"no subline blocks found; falling back to number-tag regions",
		"", lineAt(text, matches[0][0]), "")

	var out []Entry
	for i, m := range matches {
		regionEnd := len(text)
		if i+1 < len(matches) {
			regionEnd = matches[i+1][0]
		}
		region := text[m[0]:regionEnd]
		if e, ok := p.extractEntry(region, m[0], text, SourceRegexFallback); ok {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		p.fail(issues.KindExtractionFailed, "regex fallback recovered no entries", "", 1, text)
	}
	return out
}

// dedupe keeps the first entry per id, warning once per duplicate.
func (p *Parser) dedupe(entries []Entry) []Entry {
	seen := make(map[string]bool, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if seen[e.OriginalID] {
			p.warn(issues.KindDuplicateID,
				fmt.Sprintf("duplicate entry for id %s; keeping the first", e.OriginalID),
				e.OriginalID, e.Line, "")
			continue
		}
		seen[e.OriginalID] = true
		out = append(out, e)
	}
	return out
}

func (p *Parser) warn(kind issues.Kind, msg, id string, line int, snippet string) {
	p.stats.Warnings++
	p.log.Add(issues.Issue{
		Kind:        kind,
		Severity:    issues.SeverityWarning,
		Message:     msg,
		SegmentPart: p.chunk,
		SubtitleID:  id,
		Line:        line,
		Snippet:     snippet,
	})
}

func (p *Parser) fail(kind issues.Kind, msg, id string, line int, snippet string) {
	p.stats.Errors++
	p.log.Add(issues.Issue{
		Kind:        kind,
		Severity:    issues.SeverityError,
		Message:     msg,
		SegmentPart: p.chunk,
		SubtitleID:  id,
		Line:        line,
		Snippet:     snippet,
	})
}

func inRanges(off int, ranges [][2]int) bool {
	for _, r := range ranges {
		if off >= r[0] && off < r[1] {
			return true
		}
	}
	return false
}

// lineAt returns the 1-based line number of a byte offset.
func lineAt(text string, off int) int {
	if off > len(text) {
		off = len(text)
	}
	return strings.Count(text[:off], "\n") + 1
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
