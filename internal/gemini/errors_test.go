package gemini

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/api/googleapi"

	"github.com/hrishioa/ipgu/internal/apperrors"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind apperrors.Kind
	}{
		{"rate limit", &googleapi.Error{Code: 429}, apperrors.KindRateLimit},
		{"auth", &googleapi.Error{Code: 403}, apperrors.KindAuth},
		{"not found", &googleapi.Error{Code: 404}, apperrors.KindBadRequest},
		{"bad request", &googleapi.Error{Code: 400}, apperrors.KindBadRequest},
		{"server error", &googleapi.Error{Code: 503}, apperrors.KindTransient},
		{"wrapped api error", fmt.Errorf("call: %w", &googleapi.Error{Code: 500}), apperrors.KindTransient},
		{"network error", errors.New("dial tcp: timeout"), apperrors.KindTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			if kind, ok := apperrors.KindOf(got); !ok || kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", kind, tt.wantKind)
			}
		})
	}

	if classifyError(nil) != nil {
		t.Errorf("nil should classify to nil")
	}
}
