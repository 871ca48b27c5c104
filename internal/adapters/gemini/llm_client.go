package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/project-digest/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiClient is an implementation of the LLMClient interface using Google Gemini
type GeminiClient struct {
	client    *genai.Client
	modelName string
	topP      float32
	logger    *zap.Logger
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	ctx context.Context,
	apiKey string,
	modelName string,
	topP float32,
	logger *zap.Logger,
	opts ...option.ClientOption,
) (*GeminiClient, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
		topP:      topP,
		logger:    logger,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// ModelName returns the configured model
func (c *GeminiClient) ModelName() string {
	return c.modelName
}

// Complete generates content for a single prompt
func (c *GeminiClient) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	// GenerativeModel carries its own parameters, so each request gets a fresh one
	model := c.client.GenerativeModel(c.modelName)
	model.SetTemperature(req.Temperature)
	model.SetTopP(c.topP)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return text, nil
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
