package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hrishioa/ipgu/internal/apperrors"
	"github.com/hrishioa/ipgu/internal/httpclient"
	"github.com/hrishioa/ipgu/internal/pricing"
)

// RequestData is the chat-completions request body.
type RequestData struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseData is the subset of the chat-completions response we consume.
type ResponseData struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type errorEnvelope struct {
	Error errorDetails `json:"error"`
}

type errorDetails struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Code    interface{} `json:"code"`
}

func (e errorDetails) codeString() string {
	if e.Code == nil {
		return ""
	}
	return fmt.Sprint(e.Code)
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	apiKey  string
	model   string
	baseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

func NewClient(apiKey, model string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.openai.com/v1",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ModelID returns the configured model identifier.
func (c *Client) ModelID() string {
	return c.model
}

// GenerateText sends a single user prompt and returns the full assistant
// response with token counts.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, pricing.TokenUsage, error) {
	var usage pricing.TokenUsage

	req := RequestData{
		Model: c.model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
	}
	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", usage, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", usage, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	client := httpclient.GetDefaultClient()
	body, resp, err := httpclient.DoAndRead(client, httpReq)
	if err != nil {
		return "", usage, apperrors.New(
			apperrors.KindTransient,
			"Chat completion request failed due to a temporary network/runtime error.",
			fmt.Errorf("request failed: %w", err),
		)
	}

	if resp.StatusCode != http.StatusOK {
		return "", usage, classifyStatus(resp.StatusCode, resp.Status, parseErrorDetails(body))
	}

	var result ResponseData
	if err := json.Unmarshal(body, &result); err != nil {
		return "", usage, apperrors.New(
			apperrors.KindValidation,
			"Chat completion response format was invalid.",
			fmt.Errorf("failed to decode response: %w", err),
		)
	}
	usage = pricing.TokenUsage{
		InputTokens:  result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
	}

	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", usage, apperrors.Validation(fmt.Errorf("no content in chat completion response"))
	}
	return result.Choices[0].Message.Content, usage, nil
}

func parseErrorDetails(body []byte) errorDetails {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return errorDetails{}
	}
	return envelope.Error
}

func classifyStatus(statusCode int, status string, details errorDetails) error {
	cause := fmt.Errorf("chat completion status=%s type=%s code=%s message=%s",
		status, details.Type, details.codeString(), details.Message)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return apperrors.New(
			apperrors.KindRateLimit,
			"API rate limit exceeded (429): please try again later.",
			cause,
		)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return apperrors.New(
			apperrors.KindAuth,
			fmt.Sprintf("API authentication/authorization failed (%d): please verify your API key and permissions.", statusCode),
			cause,
		)
	case statusCode == http.StatusNotFound:
		return apperrors.New(
			apperrors.KindBadRequest,
			"The model does not exist or you do not have access to it.",
			cause,
		)
	case statusCode >= 500:
		return apperrors.New(
			apperrors.KindTransient,
			fmt.Sprintf("Server error (%d): please try again later.", statusCode),
			cause,
		)
	default:
		return apperrors.New(
			apperrors.KindBadRequest,
			fmt.Sprintf("API error (%d): %s", statusCode, status),
			cause,
		)
	}
}
