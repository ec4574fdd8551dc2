package srt

import (
	"bytes"
	"fmt"
	"html"

	"github.com/asticode/go-astisub"
	"github.com/hrishioa/ipgu/internal/files"
)

// Write serializes cues to an SRT file. Item numbering follows slice order,
// so callers are expected to pass cues already in their final sequence.
func Write(path string, cues []Cue) error {
	subs := astisub.NewSubtitles()
	for _, c := range cues {
		item := &astisub.Item{
			StartAt: c.Start,
			EndAt:   c.End,
		}
		for _, l := range c.Lines {
			item.Lines = append(item.Lines, astisub.Line{
				Items: []astisub.LineItem{{Text: l}},
			})
		}
		subs.Items = append(subs.Items, item)
	}

	var buf bytes.Buffer
	if err := subs.WriteToSRT(&buf); err != nil {
		return fmt.Errorf("failed to serialize subtitles: %w", err)
	}
	// WriteToSRT prepends a UTF-8 BOM and HTML-escapes item text. Cue lines
	// carry their own <font> markup, so both are undone before writing.
	out := bytes.TrimPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF})
	return files.AtomicWrite(path, []byte(html.UnescapeString(string(out))), 0o644)
}
