package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"contract-risk-rag/types"

	"github.com/cloudwego/eino-ext/components/indexer/milvus"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const vectorField = "vector"

// Store keeps knowledge-base chunks in a Milvus collection. Writes go through
// the eino indexer; similarity search talks to the SDK directly because the
// query embedding is computed by the caller.
type Store struct {
	cli        client.Client
	indexer    indexer.Indexer
	collection string
}

// NewStore connects to Milvus and prepares the collection.
func NewStore(ctx context.Context, embedder embedding.Embedder, addr, collection string, dim int) (*Store, error) {
	log.Printf(">>> [Milvus] connecting: %s ...", addr)
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cli, err := client.NewClient(connectCtx, client.Config{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("connect milvus failed: %w", err)
	}
	log.Println(">>> [Milvus] connected")
	return NewStoreWithClient(ctx, cli, embedder, collection, dim)
}

// NewStoreWithClient reuses an existing client.
func NewStoreWithClient(ctx context.Context, cli client.Client, embedder embedding.Embedder, collection string, dim int) (*Store, error) {
	fields := []*entity.Field{
		{
			Name:       "id",
			DataType:   entity.FieldTypeVarChar,
			PrimaryKey: true,
			AutoID:     false,
			TypeParams: map[string]string{"max_length": "64"},
		},
		{
			Name:       vectorField,
			DataType:   entity.FieldTypeFloatVector,
			TypeParams: map[string]string{"dim": fmt.Sprintf("%d", dim)},
		},
		{
			Name:       "content",
			DataType:   entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": "65535"},
		},
		{
			Name: types.MetaSourceFile, DataType: entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": "255"},
		},
		{
			Name: types.MetaChunkIndex, DataType: entity.FieldTypeInt64,
		},
		{
			Name:     "metadata",
			DataType: entity.FieldTypeJSON,
		},
	}

	idx, err := milvus.NewIndexer(ctx, &milvus.IndexerConfig{
		Client:            cli,
		Collection:        collection,
		Embedding:         embedder,
		Fields:            fields,
		DocumentConverter: convertDocuments,
		MetricType:        milvus.L2,
	})
	if err != nil {
		return nil, fmt.Errorf("[Milvus] create collection failed: %w", err)
	}

	// the indexer creates an L2 index; matches are ranked by cosine similarity
	_ = cli.ReleaseCollection(ctx, collection)
	if err := cli.DropIndex(ctx, collection, vectorField); err != nil {
		log.Printf(">>> [Milvus] DropIndex: %v", err)
	}
	hnsw, err := entity.NewIndexHNSW(entity.COSINE, 16, 200)
	if err != nil {
		return nil, fmt.Errorf("build hnsw index params failed: %w", err)
	}
	if err := cli.CreateIndex(ctx, collection, vectorField, hnsw, false); err != nil {
		return nil, fmt.Errorf("create HNSW index failed: %w", err)
	}
	if err := cli.CreateIndex(ctx, collection, types.MetaSourceFile, entity.NewScalarIndex(), false); err != nil {
		return nil, fmt.Errorf("create %s index failed: %w", types.MetaSourceFile, err)
	}

	log.Println(">>> [Milvus] loading collection...")
	if err := cli.LoadCollection(ctx, collection, false); err != nil {
		return nil, fmt.Errorf("load collection failed: %w", err)
	}
	return &Store{cli: cli, indexer: idx, collection: collection}, nil
}

// Store embeds and inserts the documents.
func (s *Store) Store(ctx context.Context, docs []*schema.Document, opts ...indexer.Option) ([]string, error) {
	ids, err := s.indexer.Store(ctx, docs, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.cli.Flush(ctx, s.collection, false); err != nil {
		log.Printf(">>> [Milvus] flush: %v", err)
	}
	return ids, nil
}

// DeleteBySource removes every chunk ingested from the given file.
func (s *Store) DeleteBySource(ctx context.Context, sourceFile string) error {
	if err := s.cli.Delete(ctx, s.collection, "", SourceExpr(sourceFile)); err != nil {
		return fmt.Errorf("[Milvus] delete chunks of %s failed: %w", sourceFile, err)
	}
	log.Printf(">>> [Milvus] removed chunks of %s", sourceFile)
	return nil
}

// SourceExpr matches the scalar source_file field.
func SourceExpr(sourceFile string) string {
	return fmt.Sprintf("%s == %s", types.MetaSourceFile, strconv.Quote(sourceFile))
}

// Close releases the client connection.
func (s *Store) Close() error {
	return s.cli.Close()
}

func convertDocuments(_ context.Context, docs []*schema.Document, vectors [][]float64) ([]interface{}, error) {
	if len(docs) != len(vectors) {
		return nil, fmt.Errorf("got %d vectors for %d documents", len(vectors), len(docs))
	}
	rows := make([]interface{}, len(docs))
	for i, doc := range docs {
		if doc.MetaData == nil {
			doc.MetaData = make(map[string]any)
		}
		metaBytes, err := json.Marshal(doc.MetaData)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata of %s failed: %w", doc.ID, err)
		}
		sourceFile, _ := doc.MetaData[types.MetaSourceFile].(string)
		var chunkIndex int64
		switch v := doc.MetaData[types.MetaChunkIndex].(type) {
		case int:
			chunkIndex = int64(v)
		case int64:
			chunkIndex = v
		}
		rows[i] = map[string]interface{}{
			"id":                 doc.ID,
			vectorField:          toFloat32(vectors[i]),
			"content":            doc.Content,
			types.MetaSourceFile: sourceFile,
			types.MetaChunkIndex: chunkIndex,
			"metadata":           metaBytes,
		}
	}
	return rows, nil
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
