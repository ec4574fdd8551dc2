package transcribe

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hrishioa/ipgu/internal/apperrors"
	"github.com/hrishioa/ipgu/internal/pricing"
)

// mockClient returns canned transcripts per call.
type mockClient struct {
	responses []string
	err       error
	calls     int
}

func (m *mockClient) TranscribeFile(ctx context.Context, model, mediaPath, mimeType, prompt string) (string, pricing.TokenUsage, error) {
	m.calls++
	if m.err != nil {
		return "", pricing.TokenUsage{}, m.err
	}
	idx := m.calls - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], pricing.TokenUsage{InputTokens: 100, OutputTokens: 50}, nil
}

// goodTranscript spans 0:00 to 18:28 with plenty of ranges.
func goodTranscript() string {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		start := i * 112
		end := start + 100
		fmt.Fprintf(&b, "%02d:%02d - %02d:%02d - line %d\n", start/60, start%60, end/60, end%60, i)
	}
	return b.String()
}

func TestTranscribeAcceptsValidTranscript(t *testing.T) {
	client := &mockClient{responses: []string{goodTranscript()}}
	tr := &Transcriber{Client: client, Model: "gemini-2.5-pro", Retries: 2}

	text, usage, err := tr.Transcribe(context.Background(), Request{
		MediaPath:     "part01.mp3",
		ChunkDuration: 20 * time.Minute,
	})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text == "" || client.calls != 1 {
		t.Errorf("text=%q calls=%d", text, client.calls)
	}
	if usage.InputTokens != 100 {
		t.Errorf("usage not propagated: %+v", usage)
	}
}

func TestTranscribeRetriesOnValidationFailure(t *testing.T) {
	client := &mockClient{responses: []string{"00:01 - 00:02 - too sparse", goodTranscript()}}
	tr := &Transcriber{Client: client, Model: "gemini-2.5-pro", Retries: 2}

	failedPath := filepath.Join(t.TempDir(), "failed.txt")
	_, _, err := tr.Transcribe(context.Background(), Request{
		MediaPath:     "part01.mp3",
		ChunkDuration: 20 * time.Minute,
		FailedPath:    failedPath,
	})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if client.calls != 2 {
		t.Errorf("expected a retry, got %d calls", client.calls)
	}
}

func TestTranscribeAbortsOnAPIError(t *testing.T) {
	client := &mockClient{err: apperrors.Transient(errors.New("503"))}
	tr := &Transcriber{Client: client, Model: "gemini-2.5-pro", Retries: 3}

	_, _, err := tr.Transcribe(context.Background(), Request{MediaPath: "part01.mp3"})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if client.calls != 1 {
		t.Errorf("API errors must not be retried in this stage, got %d calls", client.calls)
	}
	if kind, _ := apperrors.KindOf(err); kind != apperrors.KindTranscription {
		t.Errorf("kind = %v", kind)
	}
}

func TestTranscribeExhaustsRetries(t *testing.T) {
	client := &mockClient{responses: []string{"no timestamps at all"}}
	tr := &Transcriber{Client: client, Model: "gemini-2.5-pro", Retries: 1}

	_, _, err := tr.Transcribe(context.Background(), Request{
		MediaPath:     "part01.mp3",
		ChunkDuration: 20 * time.Minute,
	})
	if err == nil {
		t.Fatalf("expected failure")
	}
	if client.calls != 2 {
		t.Errorf("got %d calls, want 2", client.calls)
	}
}

func TestValidate(t *testing.T) {
	tr := &Transcriber{}
	tests := []struct {
		name     string
		text     string
		chunkDur time.Duration
		refSpan  time.Duration
		wantOK   bool
	}{
		{
			name:     "good coverage",
			text:     goodTranscript(),
			chunkDur: 20 * time.Minute,
			wantOK:   true,
		},
		{
			name:     "too few ranges",
			text:     "00:00 - 15:00 - one\n00:01 - 16:00 - two\n",
			chunkDur: 20 * time.Minute,
			wantOK:   false,
		},
		{
			name:     "insufficient chunk coverage",
			text:     "00:00 - 00:10 - a\n00:10 - 00:20 - b\n00:20 - 00:30 - c\n00:30 - 00:40 - d\n00:40 - 00:50 - e\n",
			chunkDur: 20 * time.Minute,
			wantOK:   false,
		},
		{
			name:     "shorter than reference span",
			text:     goodTranscript(), // spans ~18:28
			chunkDur: 20 * time.Minute,
			refSpan:  25 * time.Minute,
			wantOK:   false,
		},
		{
			name:     "longer than reference span is fine",
			text:     goodTranscript(),
			chunkDur: 20 * time.Minute,
			refSpan:  10 * time.Minute,
			wantOK:   true,
		},
		{
			name:     "tiny reference span ignored",
			text:     goodTranscript(),
			chunkDur: 20 * time.Minute,
			refSpan:  500 * time.Millisecond,
			wantOK:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason := tr.validate(tt.text, tt.chunkDur, tt.refSpan)
			if (reason == "") != tt.wantOK {
				t.Errorf("validate() = %q, wantOK %v", reason, tt.wantOK)
			}
		})
	}
}
