package storage

import (
	"context"
	"fmt"
	"strings"

	"contract-risk-rag/storage/es"
	"contract-risk-rag/storage/milvus"
	"contract-risk-rag/storage/postgres"
	"contract-risk-rag/types"
	"contract-risk-rag/vars"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/indexer"
	"gorm.io/gorm"
)

// Matcher is the match_documents RPC: nearest chunks to a precomputed
// query embedding, best first, at most MatchCount of them.
type Matcher interface {
	MatchDocuments(ctx context.Context, req types.MatchRequest) ([]types.RetrievedMatch, error)
}

// VectorStore is a backend that indexes, matches and removes chunks.
type VectorStore interface {
	indexer.Indexer
	Matcher
	DeleteBySource(ctx context.Context, sourceFile string) error
}

var (
	_ VectorStore = (*milvus.Store)(nil)
	_ VectorStore = (*es.Store)(nil)
	_ VectorStore = (*postgres.VectorStore)(nil)
)

// NewVectorStore opens the backend named by cfg.VectorStore. The embedder
// indexes chunk contents; dim is its output dimension. db is only used by
// the postgres backend and is opened from cfg when nil.
func NewVectorStore(ctx context.Context, cfg *vars.Config, embedder embedding.Embedder, dim int, db *gorm.DB) (VectorStore, error) {
	switch cfg.VectorStore {
	case vars.StoreMilvus:
		return milvus.NewStore(ctx, embedder, cfg.MilvusAddr, cfg.Collection, dim)
	case vars.StoreES:
		return es.NewStore(ctx, strings.Split(cfg.ESAddr, ","), cfg.ESIndex, embedder, dim)
	case vars.StorePostgres:
		if db == nil {
			var err error
			if db, err = postgres.InitDB(cfg.PostgresDSN()); err != nil {
				return nil, err
			}
		}
		return postgres.NewVectorStore(ctx, db, embedder, dim)
	default:
		return nil, fmt.Errorf("unknown vector store %q", cfg.VectorStore)
	}
}
