package srt

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"00:00:00,000", 0, false},
		{"00:01:05,250", time.Minute + 5*time.Second + 250*time.Millisecond, false},
		{"25:00:00,000", 25 * time.Hour, false},
		{"00:00:00", 0, true},
		{"00:61:00,000", 0, true},
		{"00:00:00,1000", 0, true},
		{"garbage", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTimestamp(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatTimestampRoundTrip(t *testing.T) {
	for _, d := range []time.Duration{0, 1500 * time.Millisecond, time.Hour + 2*time.Minute + 3*time.Second} {
		got, err := ParseTimestamp(FormatTimestamp(d))
		if err != nil {
			t.Fatalf("round trip of %v failed: %v", d, err)
		}
		if got != d {
			t.Errorf("round trip of %v = %v", d, got)
		}
	}
	if FormatTimestamp(-time.Second) != "00:00:00,000" {
		t.Errorf("negative duration should clamp to zero")
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantStart time.Duration
		wantEnd   time.Duration
		wantOK    bool
		wantErr   bool
	}{
		{
			name:      "srt arrow form",
			in:        "00:00:05,000 --> 00:00:07,500",
			wantStart: 5 * time.Second,
			wantEnd:   7500 * time.Millisecond,
			wantOK:    true,
		},
		{
			name:      "short clock form",
			in:        "01:30 - 02:15",
			wantStart: 90 * time.Second,
			wantEnd:   135 * time.Second,
			wantOK:    true,
		},
		{
			name:      "long clock form",
			in:        "01:02:03 - 01:02:30",
			wantStart: time.Hour + 2*time.Minute + 3*time.Second,
			wantEnd:   time.Hour + 2*time.Minute + 30*time.Second,
			wantOK:    true,
		},
		{
			name:   "no range present",
			in:     "just some words",
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok, err := ParseRange(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParseRange(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRange(%q) err = %v", tt.in, err)
			}
			if ok && err == nil {
				if start != tt.wantStart || end != tt.wantEnd {
					t.Errorf("ParseRange(%q) = %v, %v; want %v, %v", tt.in, start, end, tt.wantStart, tt.wantEnd)
				}
			}
		})
	}
}

func TestFindClockRange(t *testing.T) {
	loc, start, end, ok := FindClockRange("00:15 - 00:18 - hello there")
	if !ok {
		t.Fatalf("expected a range")
	}
	if start != 15*time.Second || end != 18*time.Second {
		t.Errorf("got %v, %v", start, end)
	}
	if loc[0] != 0 {
		t.Errorf("range should start at offset 0, got %d", loc[0])
	}

	if _, _, _, ok := FindClockRange("no timestamps here"); ok {
		t.Errorf("unexpected match")
	}
}

func TestSpan(t *testing.T) {
	cues := []Cue{
		{ID: 1, Start: 10 * time.Second, End: 12 * time.Second},
		{ID: 2, Start: 14 * time.Second, End: 20 * time.Second},
		{ID: 3, Start: 5 * time.Second, End: 6 * time.Second},
	}
	if got := Span(cues); got != 15*time.Second {
		t.Errorf("Span() = %v, want 15s", got)
	}
	if Span(nil) != 0 {
		t.Errorf("Span(nil) should be 0")
	}
}
