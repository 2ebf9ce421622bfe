package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"contract-risk-rag/storage"
	"contract-risk-rag/types"
	"contract-risk-rag/vars"

	"github.com/cloudwego/eino/components/embedding"
)

// Retriever fetches knowledge-base context for a query.
type Retriever interface {
	FetchRelevantDocs(ctx context.Context, query string, k int, threshold float64) ([]types.RetrievedMatch, error)
}

type RetrievalService struct {
	embedder embedding.Embedder
	store    storage.Matcher
}

func NewRetrievalService(embedder embedding.Embedder, store storage.Matcher) *RetrievalService {
	return &RetrievalService{embedder: embedder, store: store}
}

// FetchRelevantDocs embeds the query and returns up to k matches, best
// first. threshold is accepted for callers but not applied to the results.
func (s *RetrievalService) FetchRelevantDocs(ctx context.Context, query string, k int, threshold float64) ([]types.RetrievedMatch, error) {
	start := time.Now()
	if k <= 0 {
		k = vars.DefaultMatchCount
	}

	vecs, err := s.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, errors.New("embed query failed: empty embedding")
	}
	log.Printf(">>> [Retrieval] embedding took %v", time.Since(start))

	matches, err := s.store.MatchDocuments(ctx, types.MatchRequest{
		QueryEmbedding: vecs[0],
		MatchCount:     k,
		Filter:         map[string]any{},
	})
	if err != nil {
		return nil, fmt.Errorf("match_documents failed: %w", err)
	}
	if matches == nil {
		matches = []types.RetrievedMatch{}
	}
	if len(matches) > k {
		matches = matches[:k]
	}
	log.Printf(">>> [Retrieval] %d matches (k=%d, threshold=%.2f not applied), took %v", len(matches), k, threshold, time.Since(start))
	return matches, nil
}
