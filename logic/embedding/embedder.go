package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contract-risk-rag/vars"

	"github.com/cloudwego/eino-ext/components/embedding/ollama"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/generative-ai-go/genai"
)

// NewEmbedder builds the embedder for the configured provider, wrapped so
// NaN/Inf values never reach the vector store.
func NewEmbedder(ctx context.Context, cfg *vars.Config, gc *genai.Client) (embedding.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case vars.ProviderGemini:
		if gc == nil {
			return nil, errors.New("gemini embedder requires a genai client")
		}
		return NewCleanEmbedder(NewGeminiEmbedder(gc, cfg.EmbeddingModel)), nil
	default:
		emb, err := ollama.NewEmbedder(ctx, &ollama.EmbeddingConfig{
			BaseURL: cfg.OllamaPath,
			Model:   cfg.EmbeddingModel,
			Timeout: 60 * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama embedder failed: %w", err)
		}
		return NewCleanEmbedder(emb), nil
	}
}

// Dimension embeds one sample text to learn the vector size.
func Dimension(ctx context.Context, emb embedding.Embedder) (int, error) {
	vecs, err := emb.EmbedStrings(ctx, []string{"test"})
	if err != nil {
		return 0, fmt.Errorf("embed dimension check failed: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return 0, errors.New("embed dimension check returned an empty vector")
	}
	return len(vecs[0]), nil
}
