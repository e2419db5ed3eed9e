package embed

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// OpenAI calls an OpenAI-compatible /embeddings endpoint.
type OpenAI struct {
	client openai.Client
	model  string
}

// OpenAIConfig configures the remote embedder. Extra request options (for
// example option.WithHTTPClient) are appended last.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Options []option.RequestOption
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
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

func (o *OpenAI) Model() string { return o.model }

// Embed sends all texts in one request. Batching across requests is the
// caller's job.
func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(o.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, d := range resp.Data {
		idx := int(d.Index)
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			// Some compatible servers omit the index; fall back to order.
			idx = i
		}
		v := make([]float32, len(d.Embedding))
		for j, x := range d.Embedding {
			v[j] = float32(x)
		}
		out[idx] = v
	}
	return out, nil
}
