package embedding

import (
	"context"
	"log"
	"math"

	"github.com/cloudwego/eino/components/embedding"
)

// CleanEmbedder wraps an embedder and zeroes NaN/Inf components.
type CleanEmbedder struct {
	inner embedding.Embedder
}

func NewCleanEmbedder(inner embedding.Embedder) *CleanEmbedder {
	return &CleanEmbedder{inner: inner}
}

func (e *CleanEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	vectors, err := e.inner.EmbedStrings(ctx, texts, opts...)
	if err != nil {
		return nil, err
	}

	cleaned := 0
	for _, vec := range vectors {
		for j, val := range vec {
			if math.IsNaN(val) || math.IsInf(val, 0) {
				vec[j] = 0.0
				cleaned++
			}
		}
	}
	if cleaned > 0 {
		log.Printf("⚠️ [Embedding] replaced %d NaN/Inf components with 0.0", cleaned)
	}
	return vectors, nil
}
