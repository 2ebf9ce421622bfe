package types

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// chunk metadata keys
const (
	MetaSourceFile = "source_file"
	MetaFullPath   = "full_path"
	MetaPage       = "page"
	MetaChunkIndex = "chunk_index"
	MetaDocID      = "doc_id"
	MetaIngestedAt = "ingested_at"
)

// ChunkMetadata is the provenance attached to every stored chunk.
type ChunkMetadata struct {
	SourceFile string    `json:"source_file"`
	FullPath   string    `json:"full_path"`
	Page       *int      `json:"page"`
	ChunkIndex int       `json:"chunk_index"`
	DocID      string    `json:"doc_id"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Chunk is a bounded slice of knowledge-base text plus provenance.
type Chunk struct {
	ID       string        `json:"id"`
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Map flattens the metadata for stores that keep it as a JSON object.
func (m ChunkMetadata) Map() map[string]any {
	out := map[string]any{
		MetaSourceFile: m.SourceFile,
		MetaFullPath:   m.FullPath,
		MetaPage:       nil,
		MetaChunkIndex: m.ChunkIndex,
		MetaDocID:      m.DocID,
		MetaIngestedAt: m.IngestedAt.UTC().Format(time.RFC3339),
	}
	if m.Page != nil {
		out[MetaPage] = *m.Page
	}
	return out
}

// Document converts the chunk into the eino document the indexers consume.
func (c Chunk) Document() *schema.Document {
	return &schema.Document{
		ID:       c.ID,
		Content:  c.Content,
		MetaData: c.Metadata.Map(),
	}
}

// RetrievedMatch is one similarity-search hit.
type RetrievedMatch struct {
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
	Similarity float64        `json:"similarity"`
}

// Page returns the page number recorded in the match metadata, if any.
func (m RetrievedMatch) Page() (int, bool) {
	switch v := m.Metadata[MetaPage].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// MatchRequest mirrors the match_documents RPC input.
type MatchRequest struct {
	QueryEmbedding []float64      `json:"query_embedding"`
	MatchCount     int            `json:"match_count"`
	Filter         map[string]any `json:"filter"`
}
