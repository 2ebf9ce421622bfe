package service

import (
	"context"
	"testing"
	"time"

	"contract-risk-rag/types"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestPages(t *testing.T) {
	idx := &fakeIndexer{}
	svc := NewIngestionService(idx, paragraphSplitter{}, time.Second)

	pages := []*schema.Document{
		{Content: "Payment terms.\n\nLate fees\x00 apply.", MetaData: map[string]any{types.MetaPage: 1}},
		{Content: "   ", MetaData: map[string]any{types.MetaPage: 2}},
		{Content: "Termination needs 30 days notice.", MetaData: map[string]any{types.MetaPage: 3}},
	}

	n, err := svc.IngestPages(context.Background(), "Knowledge_Base.pdf", "public/Knowledge_Base.pdf", pages)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, idx.docs, 3)

	second := idx.docs[1]
	assert.Equal(t, "Late fees apply.", second.Content)
	assert.Equal(t, "Knowledge_Base.pdf", second.MetaData[types.MetaSourceFile])
	assert.Equal(t, "public/Knowledge_Base.pdf", second.MetaData[types.MetaFullPath])
	assert.Equal(t, 1, second.MetaData[types.MetaPage])
	assert.Equal(t, 1, second.MetaData[types.MetaChunkIndex])
	assert.Equal(t, "knowledge_base_1", second.MetaData[types.MetaDocID])
	assert.NotEmpty(t, second.MetaData[types.MetaIngestedAt])

	third := idx.docs[2]
	assert.Equal(t, 3, third.MetaData[types.MetaPage])
	assert.Equal(t, 2, third.MetaData[types.MetaChunkIndex])

	ids := map[string]bool{}
	for _, d := range idx.docs {
		ids[d.ID] = true
	}
	assert.Len(t, ids, 3, "chunk ids are unique")
}

func TestIngestPagesWithoutPageNumbers(t *testing.T) {
	idx := &fakeIndexer{}
	_, err := NewIngestionService(idx, paragraphSplitter{}, time.Second).
		IngestPages(context.Background(), "kb.pdf", "kb.pdf", []*schema.Document{{Content: "text"}})
	require.NoError(t, err)
	assert.Nil(t, idx.docs[0].MetaData[types.MetaPage])
}

func TestIngestPagesEmpty(t *testing.T) {
	_, err := NewIngestionService(&fakeIndexer{}, paragraphSplitter{}, time.Second).
		IngestPages(context.Background(), "kb.pdf", "kb.pdf", []*schema.Document{{Content: "\x00 "}})
	assert.ErrorIs(t, err, ErrNoChunks)
}

func TestIngestPagesStoreFailure(t *testing.T) {
	_, err := NewIngestionService(&fakeIndexer{err: errBoom}, paragraphSplitter{}, time.Second).
		IngestPages(context.Background(), "kb.pdf", "kb.pdf", []*schema.Document{{Content: "text"}})
	assert.ErrorIs(t, err, errBoom)
}

func TestIngestPagesReplacesPreviousChunks(t *testing.T) {
	idx := &replacingIndexer{}
	svc := NewIngestionService(idx, paragraphSplitter{}, time.Second)
	pages := []*schema.Document{{Content: "Payment terms."}}

	_, err := svc.IngestPages(context.Background(), "kb.pdf", "public/kb.pdf", pages)
	require.NoError(t, err)
	_, err = svc.IngestPages(context.Background(), "kb.pdf", "public/kb.pdf", pages)
	require.NoError(t, err)

	assert.Equal(t, []string{"delete kb.pdf", "store 1", "delete kb.pdf", "store 1"}, idx.ops)
}

func TestIngestPagesDeleteFailureSkipsStore(t *testing.T) {
	idx := &replacingIndexer{deleteErr: errBoom}
	_, err := NewIngestionService(idx, paragraphSplitter{}, time.Second).
		IngestPages(context.Background(), "kb.pdf", "kb.pdf", []*schema.Document{{Content: "text"}})
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, idx.docs)
}

func TestIngestPagesStoreTimesOut(t *testing.T) {
	start := time.Now()
	_, err := NewIngestionService(blockingIndexer{}, paragraphSplitter{}, 20*time.Millisecond).
		IngestPages(context.Background(), "kb.pdf", "kb.pdf", []*schema.Document{{Content: "text"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
