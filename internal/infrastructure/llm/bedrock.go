package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"

	"AWSNewsBot/internal/config"
	"AWSNewsBot/internal/ports"
)

const anthropicVersion = "bedrock-2023-05-31"

var throttlingCodes = map[string]struct{}{
	"ThrottlingException":      {},
	"TooManyRequestsException": {},
}

// InvokeModelAPI is the slice of the Bedrock runtime client the adapter needs.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient implements ports.Model with Anthropic messages on Bedrock.
type BedrockClient struct {
	api         InvokeModelAPI
	modelID     string
	maxTokens   int
	temperature float64
}

var _ ports.Model = (*BedrockClient)(nil)

// NewBedrockClient builds a client from configuration.
func NewBedrockClient(api InvokeModelAPI, cfg config.BedrockConfig) *BedrockClient {
	return &BedrockClient{
		api:         api,
		modelID:     cfg.ModelID,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type invokeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Messages         []message `json:"messages"`
	Temperature      float64   `json:"temperature"`
}

type invokeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Generate sends the prompt as one user turn and returns the first text block.
// Throttling failures are wrapped with ports.ErrRateLimited.
func (c *BedrockClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.api == nil {
		return "", fmt.Errorf("bedrock client is nil")
	}
	if c.modelID == "" {
		return "", fmt.Errorf("bedrock client misconfigured")
	}

	body, err := json.Marshal(invokeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        c.maxTokens,
		Messages:         []message{{Role: "user", Content: prompt}},
		Temperature:      c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal bedrock payload: %w", err)
	}

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		if isThrottling(err) {
			return "", fmt.Errorf("invoke model: %w: %w", ports.ErrRateLimited, err)
		}
		return "", fmt.Errorf("invoke model: %w", err)
	}

	var resp invokeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("decode bedrock response: %w", err)
	}
	for _, block := range resp.Content {
		if text := strings.TrimSpace(block.Text); text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("bedrock response has no text content")
}

func isThrottling(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := throttlingCodes[apiErr.ErrorCode()]; ok {
			return true
		}
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusTooManyRequests {
		return true
	}
	return false
}
