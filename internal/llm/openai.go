package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// OpenAI calls an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client    openai.Client
	model     string
	maxTokens int
}

type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int // 0 leaves the server default.
	Options   []option.RequestOption
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(base),
		option.WithMaxRetries(0),
	}
	opts = append(opts, cfg.Options...)
	return &OpenAI{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

func (o *OpenAI) Model() string { return o.model }

func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if o.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(o.maxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{StatusCode: apiErr.StatusCode, Body: apiErr.Message}
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	text := resp.Choices[0].Message.Content
	if text == "" {
		return "", fmt.Errorf("chat completion returned empty content (finish reason %q)", resp.Choices[0].FinishReason)
	}
	return text, nil
}
