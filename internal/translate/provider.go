package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrishioa/ipgu/internal/gemini"
	"github.com/hrishioa/ipgu/internal/openai"
	"github.com/hrishioa/ipgu/internal/pricing"
)

// Provider is a text LLM capable of answering a single prompt.
type Provider interface {
	GenerateText(ctx context.Context, prompt string) (string, pricing.TokenUsage, error)
	ModelID() string
}

// geminiProvider binds a shared Gemini client to one model name.
type geminiProvider struct {
	client *gemini.Client
	model  string
}

func (g *geminiProvider) GenerateText(ctx context.Context, prompt string) (string, pricing.TokenUsage, error) {
	return g.client.GenerateText(ctx, g.model, prompt)
}

func (g *geminiProvider) ModelID() string {
	return g.model
}

// deepseekBaseURL is the OpenAI-compatible endpoint DeepSeek models live on.
const deepseekBaseURL = "https://api.deepseek.com/v1"

// SelectProvider picks the provider by substring match on the model
// identifier: "gemini" models ride the shared Gemini client, everything else
// goes through the OpenAI-compatible client.
func SelectProvider(model string, geminiClient *gemini.Client, apiKeys map[string]string) (Provider, error) {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "gemini"):
		if geminiClient == nil {
			return nil, fmt.Errorf("model %q requires a Gemini API key", model)
		}
		return &geminiProvider{client: geminiClient, model: model}, nil
	case strings.Contains(lower, "deepseek"):
		key := apiKeys["deepseek"]
		if key == "" {
			return nil, fmt.Errorf("model %q requires a DeepSeek API key", model)
		}
		return openai.NewClient(key, model, openai.WithBaseURL(deepseekBaseURL)), nil
	default:
		key := apiKeys["openai"]
		if key == "" {
			return nil, fmt.Errorf("model %q requires an OpenAI API key", model)
		}
		return openai.NewClient(key, model), nil
	}
}
