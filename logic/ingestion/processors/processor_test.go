package processors

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Late fees apply.", CleanText("  Late\x00 fees\x07 apply.\x7f \n"))
	assert.Equal(t, "line one\n\tline two", CleanText("line one\n\tline two"))
	assert.Equal(t, "ok", CleanText("o\xffk"))
}

func TestCleanDocuments(t *testing.T) {
	docs := CleanDocuments([]*schema.Document{
		{ID: "1", Content: " page one "},
		nil,
		{ID: "2", Content: "\x00\x01  "},
		{ID: "3", Content: "page three"},
	})
	require.Len(t, docs, 2)
	assert.Equal(t, "page one", docs[0].Content)
	assert.Equal(t, "3", docs[1].ID)
}
