package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"contract-risk-rag/types"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// MatchDocuments returns the nearest chunks by cosine similarity, best first.
func (s *Store) MatchDocuments(ctx context.Context, req types.MatchRequest) ([]types.RetrievedMatch, error) {
	if len(req.QueryEmbedding) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}
	k := req.MatchCount
	if k <= 0 {
		return []types.RetrievedMatch{}, nil
	}
	sp, err := entity.NewIndexHNSWSearchParam(max(64, k))
	if err != nil {
		return nil, fmt.Errorf("build search params failed: %w", err)
	}

	results, err := s.cli.Search(ctx, s.collection, nil, BuildExpr(req.Filter),
		[]string{"content", "metadata"},
		[]entity.Vector{entity.FloatVector(toFloat32(req.QueryEmbedding))},
		vectorField, entity.COSINE, k, sp)
	if err != nil {
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}
	if len(results) == 0 {
		return []types.RetrievedMatch{}, nil
	}
	return toMatches(results[0])
}

func toMatches(result client.SearchResult) ([]types.RetrievedMatch, error) {
	if result.Err != nil {
		return nil, result.Err
	}
	contentCol := result.Fields.GetColumn("content")
	metaCol := result.Fields.GetColumn("metadata")

	matches := make([]types.RetrievedMatch, 0, result.ResultCount)
	for i := 0; i < result.ResultCount; i++ {
		m := types.RetrievedMatch{Metadata: map[string]any{}}
		if contentCol != nil {
			content, err := contentCol.GetAsString(i)
			if err != nil {
				return nil, fmt.Errorf("read content %d failed: %w", i, err)
			}
			m.Content = content
		}
		if jc, ok := metaCol.(*entity.ColumnJSONBytes); ok {
			raw, err := jc.ValueByIdx(i)
			if err == nil && len(raw) > 0 {
				if err := json.Unmarshal(raw, &m.Metadata); err != nil {
					log.Printf(">>> [Milvus] bad metadata at %d: %v", i, err)
				}
			}
		}
		if i < len(result.Scores) {
			m.Similarity = clamp01(float64(result.Scores[i]))
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// BuildExpr turns an equality filter into a boolean expression over the
// JSON metadata field. Keys are sorted so the output is stable.
func BuildExpr(filter map[string]any) string {
	if len(filter) == 0 {
		return ""
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var val string
		switch v := filter[k].(type) {
		case string:
			val = strconv.Quote(v)
		case bool:
			val = strconv.FormatBool(v)
		case int:
			val = strconv.Itoa(v)
		case int64:
			val = strconv.FormatInt(v, 10)
		case float64:
			val = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			log.Printf(">>> [Milvus] unsupported filter value for %s: %T", k, v)
			continue
		}
		parts = append(parts, fmt.Sprintf("metadata[%s] == %s", strconv.Quote(k), val))
	}
	return strings.Join(parts, " and ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
