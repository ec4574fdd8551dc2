package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hrishioa/ipgu/internal/apperrors"
	"github.com/hrishioa/ipgu/internal/httpclient"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	restore := httpclient.SetDefaultClientForTesting(server.Client())
	t.Cleanup(restore)
	return NewClient("test-key", "gpt-4o", WithBaseURL(server.URL))
}

func TestGenerateText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		var req RequestData
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Model != "gpt-4o" || len(req.Messages) != 1 {
			t.Errorf("request = %+v", req)
		}

		resp := ResponseData{
			ID:      "chatcmpl-1",
			Choices: []Choice{{Message: Message{Role: "assistant", Content: "translated"}}},
			Usage:   Usage{PromptTokens: 12, CompletionTokens: 7},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	text, usage, err := client.GenerateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if text != "translated" {
		t.Errorf("text = %q", text)
	}
	if usage.InputTokens != 12 || usage.OutputTokens != 7 {
		t.Errorf("usage = %+v", usage)
	}
}

func TestGenerateTextErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind apperrors.Kind
	}{
		{"rate limit", http.StatusTooManyRequests, apperrors.KindRateLimit},
		{"auth", http.StatusUnauthorized, apperrors.KindAuth},
		{"model not found", http.StatusNotFound, apperrors.KindBadRequest},
		{"server error", http.StatusInternalServerError, apperrors.KindTransient},
		{"bad request", http.StatusBadRequest, apperrors.KindBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"test"}}`))
			})
			_, _, err := client.GenerateText(context.Background(), "prompt")
			if err == nil {
				t.Fatalf("expected error")
			}
			if kind, ok := apperrors.KindOf(err); !ok || kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", kind, tt.wantKind)
			}
		})
	}
}

func TestGenerateTextEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ResponseData{ID: "x"})
	})
	_, _, err := client.GenerateText(context.Background(), "prompt")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if kind, _ := apperrors.KindOf(err); kind != apperrors.KindValidation {
		t.Errorf("kind = %v", kind)
	}
}
