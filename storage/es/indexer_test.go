package es

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func newTestStore(t *testing.T, status int, reqs *[]recordedRequest) *Store {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		rec := recordedRequest{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.body)
		}
		*reqs = append(*reqs, rec)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"deleted": 2}`))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return &Store{client: client, index: "kb_chunks"}
}

func TestDeleteBySource(t *testing.T) {
	var reqs []recordedRequest
	s := newTestStore(t, http.StatusOK, &reqs)

	require.NoError(t, s.DeleteBySource(context.Background(), "kb.pdf"))

	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].method)
	assert.Equal(t, "/kb_chunks/_delete_by_query", reqs[0].path)
	assert.Contains(t, reqs[0].query, "refresh=true")
	assert.Equal(t, map[string]any{
		"query": map[string]any{
			"term": map[string]any{"metadata.source_file": "kb.pdf"},
		},
	}, reqs[0].body)
}

func TestDeleteBySourceErrorResponse(t *testing.T) {
	var reqs []recordedRequest
	s := newTestStore(t, http.StatusBadRequest, &reqs)

	err := s.DeleteBySource(context.Background(), "kb.pdf")
	assert.ErrorContains(t, err, "ES delete response error")
}
