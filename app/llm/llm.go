// Package llm wraps the chat-completion API the assistant endpoint proxies to.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"collab-go/app/config"

	"github.com/sashabaranov/go-openai"
)

// Client completes a single prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const systemPrompt = "You are a helpful assistant for a project collaboration workspace."

// OpenAIClient talks to any OpenAI-compatible endpoint, OpenRouter by default.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(cfg config.LLMConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: api key not set (OPENROUTER_API_KEY)")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	slog.Info("Initializing LLM client", "model", cfg.Model, "base_url", oc.BaseURL)
	return &OpenAIClient{client: openai.NewClientWithConfig(oc), model: cfg.Model}, nil
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	slog.Debug("Requesting completion", "model", c.model)
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
