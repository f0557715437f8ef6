package moderation

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClassifier talks to any OpenAI-compatible chat completion
// endpoint, including Cloudflare Workers AI's /ai/v1 gateway.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

// NewOpenAIClassifier creates a classifier. baseURL may be empty to use
// api.openai.com.
func NewOpenAIClassifier(apiKey, baseURL, model string) (*OpenAIClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("moderation API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIClassifier{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Complete implements Classifier.
func (c *OpenAIClassifier) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
