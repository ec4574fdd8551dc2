package segmenter

import (
	"reflect"
	"testing"
	"time"
)

func sec(n float64) time.Duration {
	return time.Duration(n * float64(time.Second))
}

func TestComputeWindows(t *testing.T) {
	tests := []struct {
		name    string
		total   time.Duration
		chunk   time.Duration
		overlap time.Duration
		want    []Window
	}{
		{
			name:    "two overlapping windows",
			total:   sec(1800),
			chunk:   sec(1200),
			overlap: sec(300),
			want: []Window{
				{Part: 1, Start: 0, End: sec(1200)},
				{Part: 2, Start: sec(900), End: sec(1800)},
			},
		},
		{
			name:    "short video yields one window",
			total:   sec(300),
			chunk:   sec(1200),
			overlap: sec(300),
			want: []Window{
				{Part: 1, Start: 0, End: sec(300)},
			},
		},
		{
			name:    "short tail merges into previous window",
			total:   sec(2150),
			chunk:   sec(1200),
			overlap: sec(300),
			// third window would be [1800, 2150], 350s < 1200/3, so the
			// second window absorbs it.
			want: []Window{
				{Part: 1, Start: 0, End: sec(1200)},
				{Part: 2, Start: sec(900), End: sec(2150)},
			},
		},
		{
			name:    "exact multiple keeps all windows",
			total:   sec(2700),
			chunk:   sec(1200),
			overlap: sec(300),
			want: []Window{
				{Part: 1, Start: 0, End: sec(1200)},
				{Part: 2, Start: sec(900), End: sec(2100)},
				{Part: 3, Start: sec(1800), End: sec(2700)},
			},
		},
		{
			name:    "zero duration",
			total:   0,
			chunk:   sec(1200),
			overlap: sec(300),
			want:    nil,
		},
		{
			name:    "overlap not below chunk",
			total:   sec(600),
			chunk:   sec(300),
			overlap: sec(300),
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeWindows(tt.total, tt.chunk, tt.overlap)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ComputeWindows() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeWindowsIsPure(t *testing.T) {
	a := ComputeWindows(sec(5400), sec(1200), sec(300))
	b := ComputeWindows(sec(5400), sec(1200), sec(300))
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same inputs produced different window lists")
	}
}

func TestComputeWindowsDensePartNumbers(t *testing.T) {
	windows := ComputeWindows(sec(10000), sec(1200), sec(300))
	for i, w := range windows {
		if w.Part != i+1 {
			t.Fatalf("window %d has part %d, want %d", i, w.Part, i+1)
		}
		if w.End <= w.Start {
			t.Fatalf("window %d has non-positive duration", i)
		}
	}
}
