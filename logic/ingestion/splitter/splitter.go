package splitter

import (
	"context"
	"fmt"
	"unicode/utf8"

	"contract-risk-rag/vars"

	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/semantic"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/embedding"
)

// New returns the page splitter selected by cfg.Splitter. The semantic
// splitter needs the embedder; the recursive one ignores it.
func New(ctx context.Context, cfg *vars.Config, emb embedding.Embedder) (document.Transformer, error) {
	switch cfg.Splitter {
	case vars.SplitterSemantic:
		s, err := semantic.NewSplitter(ctx, &semantic.Config{
			Embedding:    emb,
			BufferSize:   5,
			MinChunkSize: cfg.ChunkOverlap,
			Separators:   cfg.Separators[:len(cfg.Separators)-1],
			LenFunc:      utf8.RuneCountInString,
			Percentile:   0.85,
		})
		if err != nil {
			return nil, fmt.Errorf("create semantic splitter failed: %w", err)
		}
		return s, nil
	default:
		s, err := recursive.NewSplitter(ctx, &recursive.Config{
			ChunkSize:   cfg.ChunkSize,
			OverlapSize: cfg.ChunkOverlap,
			Separators:  cfg.Separators,
			LenFunc:     utf8.RuneCountInString,
			KeepType:    recursive.KeepTypeEnd,
		})
		if err != nil {
			return nil, fmt.Errorf("create recursive splitter failed: %w", err)
		}
		return s, nil
	}
}
