package transcribe

import (
	"fmt"
	"strings"
	"time"

	"github.com/hrishioa/ipgu/internal/srt"
)

// Rebase rewrites transcript-relative "mm:ss - mm:ss" ranges to absolute
// "HH:MM:SS,mmm --> HH:MM:SS,mmm" form by shifting both endpoints with the
// segment's start offset. Only the first range on each line is rewritten;
// lines without a valid range pass through unchanged.
func Rebase(transcript string, offset time.Duration) string {
	lines := strings.Split(transcript, "\n")
	for i, line := range lines {
		loc, start, end, ok := srt.FindClockRange(line)
		if !ok {
			continue
		}
		absolute := fmt.Sprintf("%s --> %s",
			srt.FormatTimestamp(start+offset),
			srt.FormatTimestamp(end+offset))
		lines[i] = line[:loc[0]] + absolute + line[loc[1]:]
	}
	return strings.Join(lines, "\n")
}
