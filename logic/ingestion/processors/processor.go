package processors

import (
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
)

// control characters other than \t \n \r
var controlChars = regexp.MustCompile(`[\x00-\x08\x0B-\x0C\x0E-\x1F\x7F]`)

// CleanText strips NUL/control bytes and invalid UTF-8 and trims the result.
func CleanText(content string) string {
	content = controlChars.ReplaceAllString(content, "")
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}
	return strings.TrimSpace(content)
}

// CleanDocuments cleans every document in place and drops the empty ones,
// which the embedder would otherwise reject.
func CleanDocuments(src []*schema.Document) []*schema.Document {
	clean := make([]*schema.Document, 0, len(src))
	for _, doc := range src {
		if doc == nil {
			continue
		}
		doc.Content = CleanText(doc.Content)
		if doc.Content == "" {
			log.Printf("⚠️ [Ingestion] empty document %q skipped", doc.ID)
			continue
		}
		clean = append(clean, doc)
	}
	return clean
}
