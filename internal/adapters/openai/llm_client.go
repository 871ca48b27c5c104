package openai

import (
	"context"
	"fmt"

	"github.com/mikey/project-digest/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// API modes
const (
	ModeCompletion = "completion"
	ModeChat       = "chat"
)

// OpenAIClient is an implementation of the LLMClient interface using OpenAI
type OpenAIClient struct {
	client    *openai.Client
	modelName string
	mode      string
	topP      float32
	logger    *zap.Logger
}

// NewOpenAIClient creates a new OpenAI client. baseURL may be empty.
func NewOpenAIClient(
	apiKey string,
	baseURL string,
	modelName string,
	mode string,
	topP float32,
	logger *zap.Logger,
) (*OpenAIClient, error) {
	switch mode {
	case "":
		mode = ModeCompletion
	case ModeCompletion, ModeChat:
	default:
		return nil, fmt.Errorf("unsupported OpenAI mode: %s", mode)
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	return &OpenAIClient{
		client:    openai.NewClientWithConfig(clientCfg),
		modelName: modelName,
		mode:      mode,
		topP:      topP,
		logger:    logger,
	}, nil
}

// ModelName returns the configured model
func (c *OpenAIClient) ModelName() string {
	return c.modelName
}

// Complete sends one prompt and returns the first choice's text
func (c *OpenAIClient) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	if c.mode == ModeChat {
		return c.chat(ctx, req)
	}

	resp, err := c.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       c.modelName,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        c.topP,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	c.logger.Debug("OpenAI completion",
		zap.String("id", resp.ID),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return resp.Choices[0].Text, nil
}

func (c *OpenAIClient) chat(ctx context.Context, req core.CompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You extract facts from project emails. Answer with the requested value only.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        c.topP,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	c.logger.Debug("OpenAI chat completion",
		zap.String("id", resp.ID),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return resp.Choices[0].Message.Content, nil
}
