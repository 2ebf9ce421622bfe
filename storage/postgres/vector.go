package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"contract-risk-rag/types"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
	"gorm.io/gorm"
)

const matchDocumentsFn = `CREATE OR REPLACE FUNCTION match_documents (
  query_embedding vector(%d),
  match_count int DEFAULT null,
  filter jsonb DEFAULT '{}'
) RETURNS TABLE (id uuid, content text, metadata jsonb, similarity float)
LANGUAGE plpgsql AS $$
#variable_conflict use_column
BEGIN
  RETURN QUERY
  SELECT id, content, metadata, 1 - (documents.embedding <=> query_embedding) AS similarity
  FROM documents
  WHERE metadata @> filter
  ORDER BY documents.embedding <=> query_embedding
  LIMIT match_count;
END;
$$`

// VectorStore keeps chunks in a pgvector "documents" table and searches
// them through the match_documents function.
type VectorStore struct {
	db       *gorm.DB
	embedder embedding.Embedder
	dim      int
}

// NewVectorStore creates the extension, table and search function when missing.
func NewVectorStore(ctx context.Context, db *gorm.DB, embedder embedding.Embedder, dim int) (*VectorStore, error) {
	s := &VectorStore{db: db, embedder: embedder, dim: dim}
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
  id uuid PRIMARY KEY,
  content text NOT NULL,
  metadata jsonb NOT NULL DEFAULT '{}'::jsonb,
  embedding vector(%d)
)`, dim),
		fmt.Sprintf(matchDocumentsFn, dim),
	}
	for _, stmt := range stmts {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("prepare documents table failed: %w", err)
		}
	}
	log.Printf(">>> [PG] documents table ready (dims=%d)", dim)
	return s, nil
}

// Store embeds the chunks and upserts them in one transaction.
func (s *VectorStore) Store(ctx context.Context, docs []*schema.Document, _ ...indexer.Option) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	vectors, err := s.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks failed: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(docs))
	}

	ids := make([]string, 0, len(docs))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, doc := range docs {
			meta, err := json.Marshal(doc.MetaData)
			if err != nil {
				return fmt.Errorf("encode metadata of %s failed: %w", doc.ID, err)
			}
			if doc.MetaData == nil {
				meta = []byte("{}")
			}
			err = tx.Exec(`INSERT INTO documents (id, content, metadata, embedding)
VALUES (?, ?, ?::jsonb, ?::vector)
ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding`,
				doc.ID, doc.Content, string(meta), FormatVector(vectors[i])).Error
			if err != nil {
				return fmt.Errorf("insert chunk %s failed: %w", doc.ID, err)
			}
			ids = append(ids, doc.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf(">>> [PG] stored %d chunks", len(ids))
	return ids, nil
}

var deleteBySourceSQL = "DELETE FROM documents WHERE metadata->>'" + types.MetaSourceFile + "' = ?"

// DeleteBySource removes every chunk ingested from the given file.
func (s *VectorStore) DeleteBySource(ctx context.Context, sourceFile string) error {
	result := s.db.WithContext(ctx).Exec(deleteBySourceSQL, sourceFile)
	if result.Error != nil {
		return fmt.Errorf("delete chunks of %s failed: %w", sourceFile, result.Error)
	}
	log.Printf(">>> [PG] removed %d chunks of %s", result.RowsAffected, sourceFile)
	return nil
}

type matchRow struct {
	Content    string
	Metadata   string
	Similarity float64
}

// MatchDocuments calls match_documents(query_embedding, match_count, filter).
func (s *VectorStore) MatchDocuments(ctx context.Context, req types.MatchRequest) ([]types.RetrievedMatch, error) {
	if len(req.QueryEmbedding) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}
	if req.MatchCount <= 0 {
		return []types.RetrievedMatch{}, nil
	}
	filter := req.Filter
	if filter == nil {
		filter = map[string]any{}
	}
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("encode filter failed: %w", err)
	}

	var rows []matchRow
	err = s.db.WithContext(ctx).
		Raw("SELECT content, metadata::text AS metadata, similarity FROM match_documents(?::vector, ?, ?::jsonb)",
			FormatVector(req.QueryEmbedding), req.MatchCount, string(filterJSON)).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("match_documents failed: %w", err)
	}

	matches := make([]types.RetrievedMatch, 0, len(rows))
	for _, row := range rows {
		meta := map[string]any{}
		if row.Metadata != "" {
			if err := json.Unmarshal([]byte(row.Metadata), &meta); err != nil {
				log.Printf(">>> [PG] bad metadata: %v", err)
			}
		}
		matches = append(matches, types.RetrievedMatch{
			Content:    row.Content,
			Metadata:   meta,
			Similarity: min(max(row.Similarity, 0), 1),
		})
	}
	return matches, nil
}

// FormatVector renders a pgvector literal such as "[0.1,0.2]".
func FormatVector(vec []float64) string {
	var sb strings.Builder
	sb.Grow(len(vec) * 10)
	sb.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(v, 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
