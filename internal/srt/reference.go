package srt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hrishioa/ipgu/internal/files"
	"github.com/hrishioa/ipgu/internal/issues"
)

// ParseReference reads a numbered-block subtitle file tolerantly: the UTF-8
// BOM, CRLF line endings and stray blank lines are accepted, malformed blocks
// are skipped with a warning. The signed offset is applied to every entry;
// entries whose adjusted start becomes negative are dropped with a warning,
// not clipped.
func ParseReference(r io.Reader, offset time.Duration, log *issues.Collector) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}
	if len(lines) > 0 {
		lines[0] = strings.TrimPrefix(lines[0], "\ufeff")
	}

	var cues []Cue
	i := 0
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == "" {
			i++
			continue
		}

		blockStart := i
		id, err := strconv.Atoi(strings.TrimSpace(lines[i]))
		if err != nil || id < 0 {
			log.Add(issues.Issue{
				Kind:     issues.KindFormatError,
				Severity: issues.SeverityWarning,
				Message:  "skipping block without a numeric id",
				Line:     blockStart + 1,
				Snippet:  lines[i],
			})
			i = skipBlock(lines, i)
			continue
		}
		i++
		if i >= len(lines) {
			log.Add(issues.Issue{
				Kind:     issues.KindFormatError,
				Severity: issues.SeverityWarning,
				Message:  fmt.Sprintf("block %d truncated before timing line", id),
				Line:     blockStart + 1,
			})
			break
		}

		m := srtRangeRe.FindStringSubmatch(lines[i])
		if m == nil {
			log.Add(issues.Issue{
				Kind:       issues.KindFormatError,
				Severity:   issues.SeverityWarning,
				Message:    fmt.Sprintf("skipping block %d with malformed timing line", id),
				SubtitleID: strconv.Itoa(id),
				Line:       i + 1,
				Snippet:    lines[i],
			})
			i = skipBlock(lines, i)
			continue
		}
		start, err1 := ParseTimestamp(m[1])
		end, err2 := ParseTimestamp(m[2])
		if err1 != nil || err2 != nil || end <= start {
			log.Add(issues.Issue{
				Kind:       issues.KindFormatError,
				Severity:   issues.SeverityWarning,
				Message:    fmt.Sprintf("skipping block %d with invalid timing values", id),
				SubtitleID: strconv.Itoa(id),
				Line:       i + 1,
				Snippet:    lines[i],
			})
			i = skipBlock(lines, i)
			continue
		}
		i++

		var text []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			text = append(text, lines[i])
			i++
		}

		start += offset
		end += offset
		if start < 0 {
			log.Add(issues.Issue{
				Kind:       issues.KindFormatError,
				Severity:   issues.SeverityWarning,
				Message:    fmt.Sprintf("dropping subtitle %d: adjusted start time is negative", id),
				SubtitleID: strconv.Itoa(id),
				Line:       blockStart + 1,
			})
			continue
		}

		cues = append(cues, Cue{ID: id, Start: start, End: end, Lines: text})
	}

	return cues, nil
}

func skipBlock(lines []string, i int) int {
	for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
		i++
	}
	return i
}

// LoadReference opens and parses a reference subtitle file.
func LoadReference(path string, offset time.Duration, log *issues.Collector) ([]Cue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer f.Close()
	return ParseReference(f, offset, log)
}

// SliceOverlapping returns the cues whose interval overlaps the window:
// fully contained or partially overlapping either boundary.
func SliceOverlapping(cues []Cue, start, end time.Duration) []Cue {
	var out []Cue
	for _, c := range cues {
		if c.Overlaps(start, end) {
			out = append(out, c)
		}
	}
	return out
}

// WriteSlice serializes cues as a numbered-block subtitle file, preserving
// the original ids. Slices feed the transcription and translation prompts, so
// the ids must survive the round trip.
func WriteSlice(path string, cues []Cue) error {
	var b strings.Builder
	for i, c := range cues {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n", c.ID)
		fmt.Fprintf(&b, "%s --> %s\n", FormatTimestamp(c.Start), FormatTimestamp(c.End))
		for _, line := range c.Lines {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return files.AtomicWrite(path, []byte(b.String()), 0o644)
}
