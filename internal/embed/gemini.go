package embed

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/deusflow/datatools/internal/retry"
)

const DefaultGeminiModel = "text-embedding-004"

type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiEmbedder{client: client, model: model}, nil
}

func (e *GeminiEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

func (e *GeminiEmbedder) Name() string {
	return "gemini:" + e.model
}

func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	em := e.client.EmbeddingModel(e.model)
	em.TaskType = genai.TaskTypeRetrievalDocument

	b := em.NewBatch()
	for _, t := range texts {
		b.AddContent(genai.Text(t))
	}

	res, err := em.BatchEmbedContents(ctx, b)
	if err != nil {
		err = fmt.Errorf("Gemini embeddings request failed: %w", err)
		switch status.Code(err) {
		case codes.InvalidArgument, codes.PermissionDenied, codes.Unauthenticated, codes.NotFound:
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("Gemini returned %d embeddings for %d inputs", len(res.Embeddings), len(texts))
	}
	out := make([][]float32, len(texts))
	for i, emb := range res.Embeddings {
		if emb == nil {
			return nil, fmt.Errorf("Gemini returned no embedding for input %d", i)
		}
		out[i] = emb.Values
	}
	return out, nil
}
