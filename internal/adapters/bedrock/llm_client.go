package bedrock

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/goccy/go-json"
	"github.com/mikey/project-digest/internal/core"
	"go.uber.org/zap"
)

// InvokeModelAPI is the part of the Bedrock runtime client used here
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient is an implementation of the LLMClient interface using Amazon Bedrock
type BedrockClient struct {
	client  InvokeModelAPI
	modelID string
	topP    float32
	logger  *zap.Logger
}

// NewBedrockClient creates a new Bedrock client
func NewBedrockClient(client InvokeModelAPI, modelID string, topP float32, logger *zap.Logger) *BedrockClient {
	return &BedrockClient{
		client:  client,
		modelID: modelID,
		topP:    topP,
		logger:  logger,
	}
}

// ModelName returns the Bedrock model id
func (c *BedrockClient) ModelName() string {
	return c.modelID
}

// Complete invokes the model with a payload in its family's format
func (c *BedrockClient) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	payload, err := c.buildPayload(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	text, err := c.parseResponse(resp.Body)
	if err != nil {
		return "", err
	}
	c.logger.Debug("Bedrock completion", zap.String("model", c.modelID), zap.Int("response_size", len(resp.Body)))
	return text, nil
}

func (c *BedrockClient) buildPayload(req core.CompletionRequest) ([]byte, error) {
	switch {
	case c.isAnthropicModel():
		return json.Marshal(map[string]interface{}{
			"anthropic_version": "bedrock-2023-05-31",
			"max_tokens":        req.MaxTokens,
			"temperature":       req.Temperature,
			"top_p":             c.topP,
			"messages": []map[string]interface{}{
				{
					"role":    "user",
					"content": []map[string]string{{"type": "text", "text": req.Prompt}},
				},
			},
		})
	case c.isAmazonTitanModel():
		return json.Marshal(map[string]interface{}{
			"inputText": req.Prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": req.MaxTokens,
				"temperature":   req.Temperature,
				"topP":          c.topP,
			},
		})
	default:
		return json.Marshal(map[string]interface{}{
			"prompt":      req.Prompt,
			"max_tokens":  req.MaxTokens,
			"temperature": req.Temperature,
			"top_p":       c.topP,
		})
	}
}

func (c *BedrockClient) parseResponse(body []byte) (string, error) {
	switch {
	case c.isAnthropicModel():
		var claudeResp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		var b strings.Builder
		for _, block := range claudeResp.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		if b.Len() == 0 {
			return "", fmt.Errorf("empty response from Claude model")
		}
		return b.String(), nil

	case c.isAmazonTitanModel():
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil

	default:
		var genericResp struct {
			Output     string `json:"output"`
			Text       string `json:"text"`
			Response   string `json:"response"`
			Generation string `json:"generation"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
		}
		for _, s := range []string{genericResp.Output, genericResp.Text, genericResp.Response, genericResp.Generation} {
			if s != "" {
				return s, nil
			}
		}
		return string(body), nil
	}
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (c *BedrockClient) isAnthropicModel() bool {
	return strings.Contains(c.modelID, "anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (c *BedrockClient) isAmazonTitanModel() bool {
	return strings.Contains(c.modelID, "amazon.titan")
}
