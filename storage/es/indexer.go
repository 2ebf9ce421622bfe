package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"contract-risk-rag/types"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
)

// Store keeps knowledge-base chunks in an Elasticsearch index with a
// dense_vector field and answers kNN queries against it.
type Store struct {
	client   *elasticsearch.Client
	index    string
	embedder embedding.Embedder
}

// NewStore initialises the client and makes sure the index exists.
func NewStore(ctx context.Context, addresses []string, index string, embedder embedding.Embedder, dim int) (*Store, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("error creating the client: %w", err)
	}
	s := &Store{client: es, index: index, embedder: embedder}
	if err := s.initMapping(ctx, dim); err != nil {
		return nil, err
	}
	return s, nil
}

// Mapping returns the index body for vectors of the given dimension.
func Mapping(dim int) string {
	return fmt.Sprintf(`{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "properties": {
      "chunk_id": { "type": "keyword" },
      "content":  { "type": "text" },
      "embedding": {
        "type": "dense_vector",
        "dims": %d,
        "index": true,
        "similarity": "cosine"
      },
      "metadata": {
        "properties": {
          "source_file": { "type": "keyword" },
          "full_path":   { "type": "keyword" },
          "page":        { "type": "integer" },
          "chunk_index": { "type": "integer" },
          "doc_id":      { "type": "keyword" },
          "ingested_at": { "type": "date" }
        }
      }
    }
  }
}`, dim)
}

func (s *Store) initMapping(ctx context.Context, dim int) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return err
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	log.Printf(">>> [ES] creating index %s (dims=%d)...", s.index, dim)
	res, err = s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(strings.NewReader(Mapping(dim))),
	)
	if err != nil {
		return fmt.Errorf("create index error: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index response error: %s", res.String())
	}
	return nil
}

// Store embeds the documents and bulk-indexes them, keyed by document ID.
func (s *Store) Store(ctx context.Context, docs []*schema.Document, _ ...indexer.Option) ([]string, error) {
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

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:   s.index,
		Client:  s.client,
		Refresh: "wait_for",
	})
	if err != nil {
		return nil, err
	}

	var failed atomic.Int64
	ids := make([]string, 0, len(docs))
	for i, doc := range docs {
		data, err := json.Marshal(map[string]any{
			"chunk_id":  doc.ID,
			"content":   doc.Content,
			"embedding": vectors[i],
			"metadata":  doc.MetaData,
		})
		if err != nil {
			return nil, fmt.Errorf("encode chunk %s failed: %w", doc.ID, err)
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: doc.ID,
			Body:       bytes.NewReader(data),
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				if err != nil {
					log.Printf(">>> [ES] index %s failed: %v", item.DocumentID, err)
				} else {
					log.Printf(">>> [ES] index %s failed: %s: %s", item.DocumentID, res.Error.Type, res.Error.Reason)
				}
			},
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	if err := bi.Close(ctx); err != nil {
		return nil, err
	}
	if n := failed.Load(); n > 0 {
		return nil, fmt.Errorf("%d of %d chunks failed to index", n, len(docs))
	}
	log.Printf(">>> [ES] indexed %d chunks into %s", len(ids), s.index)
	return ids, nil
}

// DeleteBySource removes every chunk ingested from the given file.
func (s *Store) DeleteBySource(ctx context.Context, sourceFile string) error {
	query := map[string]any{
		"query": map[string]any{
			"term": map[string]any{"metadata." + types.MetaSourceFile: sourceFile},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return fmt.Errorf("error encoding query: %w", err)
	}
	res, err := s.client.DeleteByQuery(
		[]string{s.index},
		&buf,
		s.client.DeleteByQuery.WithContext(ctx),
		s.client.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("ES delete request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ES delete response error: %s", res.String())
	}
	log.Printf(">>> [ES] removed chunks of %s", sourceFile)
	return nil
}
