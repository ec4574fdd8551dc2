package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "explicit safe message",
			err:  New(KindTranscription, "chunk 3 rejected", errors.New("raw detail")),
			want: "chunk 3 rejected",
		},
		{
			name: "default message per kind",
			err:  Split(errors.New("ffmpeg exit status 1")),
			want: "Media segmentation failed.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Validation(cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the cause")
	}
	wrapped := fmt.Errorf("stage failed: %w", err)
	kind, ok := KindOf(wrapped)
	if !ok || kind != KindValidation {
		t.Errorf("KindOf(wrapped) = %v, %v; want validation, true", kind, ok)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transient", Transient(errors.New("503")), true},
		{"rate limit", RateLimit(errors.New("429")), true},
		{"validation", Validation(errors.New("bad output")), true},
		{"auth", Auth(errors.New("401")), false},
		{"bad request", BadRequest(errors.New("400")), false},
		{"plain error", errors.New("nope"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRateLimit(t *testing.T) {
	if !IsRateLimit(RateLimit(nil)) {
		t.Errorf("expected rate limit error to be detected")
	}
	if IsRateLimit(Transient(nil)) {
		t.Errorf("transient error misdetected as rate limit")
	}
}
