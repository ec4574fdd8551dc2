package translate

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/hrishioa/ipgu/internal/apperrors"
	"github.com/hrishioa/ipgu/internal/logger"
	"github.com/hrishioa/ipgu/internal/pricing"
)

// Attempt records one translation invocation for cost accounting.
type Attempt struct {
	Model string             `json:"model"`
	Usage pricing.TokenUsage `json:"usage"`
	Err   string             `json:"error,omitempty"`
}

// Translator submits prompts to the selected provider, retrying API errors
// with exponential backoff. Validation-driven retries are the caller's loop;
// this only absorbs transport failures.
type Translator struct {
	Provider Provider
	Retries  int
}

// Translate runs one prompt to completion. Every attempt, failed or not, is
// returned for accounting.
func (t *Translator) Translate(ctx context.Context, prompt string) (string, []Attempt, error) {
	var attempts []Attempt

	maxAttempts := t.Retries + 1
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, usage, err := t.Provider.GenerateText(ctx, prompt)
		rec := Attempt{Model: t.Provider.ModelID(), Usage: usage}
		if err != nil {
			rec.Err = apperrors.PublicMessage(err)
		}
		attempts = append(attempts, rec)

		if err == nil {
			return text, attempts, nil
		}
		lastErr = err

		retry, backoff := retryDecision(err, attempt, maxAttempts)
		if !retry {
			break
		}
		logger.Warn("Translation attempt failed, backing off", "attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return "", attempts, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return "", attempts, apperrors.New(apperrors.KindTranslation, "", lastErr)
}

func retryDecision(err error, attempt, maxAttempts int) (bool, time.Duration) {
	if err == nil || attempt >= maxAttempts {
		return false, 0
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, 0
	}
	if !apperrors.IsRetryable(err) {
		return false, 0
	}

	base := 1 * time.Second
	maxBackoff := 20 * time.Second
	jitterMax := 1 * time.Second

	backoff := base << (attempt - 1)
	if apperrors.IsRateLimit(err) {
		backoff *= 2
	}
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(jitterMax)))
	return true, backoff + jitter
}
