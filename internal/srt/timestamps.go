package srt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseTimestamp parses an SRT timestamp ("HH:MM:SS,mmm") into a duration
// since 00:00:00,000. It supports hours beyond 23.
func ParseTimestamp(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid timestamp format: %s", s)
	}

	msStr := parts[1]
	if len(msStr) != 3 {
		return 0, fmt.Errorf("invalid millisecond format: %s", s)
	}

	ms, err := strconv.Atoi(msStr)
	if err != nil || ms < 0 || ms > 999 {
		return 0, fmt.Errorf("invalid milliseconds: %s", s)
	}

	hms := strings.Split(parts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid time format: %s", s)
	}

	hours, err := strconv.Atoi(hms[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("invalid hours: %s", s)
	}

	minutes, err := strconv.Atoi(hms[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minutes: %s", s)
	}

	seconds, err := strconv.Atoi(hms[2])
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("invalid seconds: %s", s)
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// FormatTimestamp formats a duration since 00:00:00,000 into an SRT timestamp.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond

	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

var (
	srtRangeRe   = regexp.MustCompile(`(\d{1,2}:\d{2}:\d{2},\d{3})\s*-->\s*(\d{1,2}:\d{2}:\d{2},\d{3})`)
	clockRangeRe = regexp.MustCompile(`(\d{1,2}(?::\d{2}){1,2})\s*-\s*(\d{1,2}(?::\d{2}){1,2})`)
)

// ParseClock parses "MM:SS" or "HH:MM:SS" into a duration.
func ParseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock value: %s", s)
	}
	var total time.Duration
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid clock value: %s", s)
		}
		total = total*60 + time.Duration(n)*time.Second
	}
	return total, nil
}

// ParseRange extracts a start/end pair from one timing expression. Accepted
// forms: "HH:MM:SS,mmm --> HH:MM:SS,mmm", "MM:SS - MM:SS" and
// "HH:MM:SS - HH:MM:SS". The ok result is false when no range is present.
func ParseRange(s string) (start, end time.Duration, ok bool, err error) {
	if m := srtRangeRe.FindStringSubmatch(s); m != nil {
		start, err = ParseTimestamp(m[1])
		if err != nil {
			return 0, 0, true, err
		}
		end, err = ParseTimestamp(m[2])
		if err != nil {
			return 0, 0, true, err
		}
		return start, end, true, nil
	}
	if m := clockRangeRe.FindStringSubmatch(s); m != nil {
		start, err = ParseClock(m[1])
		if err != nil {
			return 0, 0, true, err
		}
		end, err = ParseClock(m[2])
		if err != nil {
			return 0, 0, true, err
		}
		return start, end, true, nil
	}
	return 0, 0, false, nil
}

// FindClockRange locates the first "mm:ss - mm:ss" style range in a line and
// returns the matched substring boundaries along with the parsed endpoints.
func FindClockRange(line string) (loc []int, start, end time.Duration, ok bool) {
	m := clockRangeRe.FindStringSubmatchIndex(line)
	if m == nil {
		return nil, 0, 0, false
	}
	var err error
	start, err = ParseClock(line[m[2]:m[3]])
	if err != nil {
		return nil, 0, 0, false
	}
	end, err = ParseClock(line[m[4]:m[5]])
	if err != nil {
		return nil, 0, 0, false
	}
	return m[0:2], start, end, true
}
