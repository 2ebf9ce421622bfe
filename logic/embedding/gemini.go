package embedding

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/generative-ai-go/genai"
)

// gemini rejects batches larger than this
const geminiBatchLimit = 100

type GeminiEmbedder struct {
	em *genai.EmbeddingModel
}

func NewGeminiEmbedder(client *genai.Client, modelName string) *GeminiEmbedder {
	return &GeminiEmbedder{em: client.EmbeddingModel(modelName)}
}

func (g *GeminiEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += geminiBatchLimit {
		end := min(start+geminiBatchLimit, len(texts))

		batch := g.em.NewBatch()
		for _, t := range texts[start:end] {
			batch.AddContent(genai.Text(t))
		}
		res, err := g.em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("gemini embed failed: %w", err)
		}
		if len(res.Embeddings) != end-start {
			return nil, fmt.Errorf("gemini embed returned %d vectors for %d texts", len(res.Embeddings), end-start)
		}
		for _, e := range res.Embeddings {
			vec := make([]float64, len(e.Values))
			for i, v := range e.Values {
				vec[i] = float64(v)
			}
			out = append(out, vec)
		}
	}
	return out, nil
}
