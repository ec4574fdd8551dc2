package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/hrishioa/ipgu/internal/apperrors"
	"github.com/hrishioa/ipgu/internal/logger"
	"github.com/hrishioa/ipgu/internal/pricing"
)

// uploadPollInterval is how often we check whether an uploaded file has
// finished server-side processing.
const uploadPollInterval = 2 * time.Second

// uploadPollTimeout bounds the wait for an uploaded file to become active.
const uploadPollTimeout = 5 * time.Minute

// Client wraps the genai SDK for both multimodal transcription and plain
// text generation.
type Client struct {
	client *genai.Client
}

// NewClient creates a new Gemini client.
// We avoid option.WithHTTPClient because it interferes with the genai
// library's internal header injection for API keys; timeouts are enforced
// via context instead.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Client{client: client}, nil
}

// Close closes the underlying genai client.
func (c *Client) Close() error {
	return c.client.Close()
}

// TranscribeFile uploads a media file, streams a transcription response for
// it, and deletes the remote file before returning. The remote file is
// removed on every exit path, including cancellation.
func (c *Client) TranscribeFile(ctx context.Context, model, mediaPath, mimeType, prompt string) (string, pricing.TokenUsage, error) {
	var usage pricing.TokenUsage

	f, err := os.Open(mediaPath)
	if err != nil {
		return "", usage, apperrors.New(apperrors.KindTranscription, "Failed to open media slice for upload.", err)
	}
	defer f.Close()

	uploaded, err := c.client.UploadFile(ctx, "", f, &genai.UploadFileOptions{MIMEType: mimeType})
	if err != nil {
		return "", usage, classifyError(err)
	}
	defer func() {
		// Deletion must survive cancellation of the request context.
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if derr := c.client.DeleteFile(dctx, uploaded.Name); derr != nil {
			logger.Warn("Failed to delete uploaded file", "name", uploaded.Name, "error", derr)
		}
	}()

	uploaded, err = c.waitForActive(ctx, uploaded)
	if err != nil {
		return "", usage, err
	}

	gm := c.client.GenerativeModel(model)
	iter := gm.GenerateContentStream(ctx,
		genai.FileData{MIMEType: uploaded.MIMEType, URI: uploaded.URI},
		genai.Text(prompt),
	)

	var sb strings.Builder
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", usage, classifyError(err)
		}
		sb.WriteString(responseText(resp))
		if resp.UsageMetadata != nil {
			usage = pricing.TokenUsage{
				InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
				OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			}
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", usage, apperrors.Validation(fmt.Errorf("empty transcription response"))
	}
	return text, usage, nil
}

func (c *Client) waitForActive(ctx context.Context, f *genai.File) (*genai.File, error) {
	deadline := time.Now().Add(uploadPollTimeout)
	for f.State == genai.FileStateProcessing {
		if time.Now().After(deadline) {
			return nil, apperrors.Transient(fmt.Errorf("uploaded file %s stuck in processing", f.Name))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(uploadPollInterval):
		}
		var err error
		f, err = c.client.GetFile(ctx, f.Name)
		if err != nil {
			return nil, classifyError(err)
		}
	}
	if f.State != genai.FileStateActive {
		return nil, apperrors.Transient(fmt.Errorf("uploaded file %s in unusable state %v", f.Name, f.State))
	}
	return f, nil
}

// GenerateText sends a single text prompt and returns the full response with
// token counts.
func (c *Client) GenerateText(ctx context.Context, model, prompt string) (string, pricing.TokenUsage, error) {
	var usage pricing.TokenUsage

	gm := c.client.GenerativeModel(model)
	resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", usage, classifyError(err)
	}
	if resp.UsageMetadata != nil {
		usage = pricing.TokenUsage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", usage, apperrors.Validation(fmt.Errorf("no text parts in Gemini response"))
	}
	return text, usage, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		if sb.Len() > 0 {
			break
		}
	}
	return sb.String()
}
