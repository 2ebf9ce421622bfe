package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"contract-risk-rag/types"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Source struct {
				Content  string         `json:"content"`
				Metadata map[string]any `json:"metadata"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// MatchDocuments runs an approximate kNN query on the embedding field.
func (s *Store) MatchDocuments(ctx context.Context, req types.MatchRequest) ([]types.RetrievedMatch, error) {
	if len(req.QueryEmbedding) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}
	if req.MatchCount <= 0 {
		return []types.RetrievedMatch{}, nil
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(BuildKNNQuery(req)); err != nil {
		return nil, fmt.Errorf("error encoding query: %w", err)
	}
	res, err := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  &buf,
	}.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("error getting response: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("error response: %s", res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("error parsing response body: %w", err)
	}

	matches := make([]types.RetrievedMatch, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		meta := hit.Source.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		matches = append(matches, types.RetrievedMatch{
			Content:    hit.Source.Content,
			Metadata:   meta,
			Similarity: CosineFromScore(hit.Score),
		})
	}
	log.Printf(">>> [ES] kNN returned %d hits", len(matches))
	return matches, nil
}

// BuildKNNQuery builds the search body; filter entries become term clauses
// on the metadata object.
func BuildKNNQuery(req types.MatchRequest) map[string]any {
	knn := map[string]any{
		"field":          "embedding",
		"query_vector":   req.QueryEmbedding,
		"k":              req.MatchCount,
		"num_candidates": max(req.MatchCount*10, 100),
	}
	if len(req.Filter) > 0 {
		keys := make([]string, 0, len(req.Filter))
		for k := range req.Filter {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		terms := make([]map[string]any, 0, len(keys))
		for _, k := range keys {
			terms = append(terms, map[string]any{
				"term": map[string]any{"metadata." + k: req.Filter[k]},
			})
		}
		knn["filter"] = terms
	}
	return map[string]any{
		"knn":     knn,
		"size":    req.MatchCount,
		"_source": []string{"content", "metadata"},
	}
}

// CosineFromScore undoes the (1 + cosine) / 2 scaling ES applies to
// cosine kNN scores.
func CosineFromScore(score float64) float64 {
	sim := 2*score - 1
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
