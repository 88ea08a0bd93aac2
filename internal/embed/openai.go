package embed

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/deusflow/datatools/internal/retry"
)

const DefaultOpenAIModel = string(openai.SmallEmbedding3)

type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAI(apiKey, model string) *OpenAIEmbedder {
	return NewOpenAIWithConfig(openai.DefaultConfig(apiKey), model)
}

// NewOpenAIWithConfig allows pointing the client at a different base URL.
func NewOpenAIWithConfig(cfg openai.ClientConfig, model string) *OpenAIEmbedder {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
	}
}

func (e *OpenAIEmbedder) Name() string {
	return "openai:" + string(e.model)
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		err = fmt.Errorf("OpenAI embeddings request failed: %w", err)
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && isPermanentStatus(apiErr.HTTPStatusCode) {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("OpenAI returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("OpenAI returned embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// 429 and 5xx are worth retrying, other client errors are not.
func isPermanentStatus(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}
