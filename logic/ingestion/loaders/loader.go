package loaders

import (
	"context"
	"fmt"
	"io"

	"contract-risk-rag/types"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
)

// LoadPDF loads a PDF from disk, one document per page.
func LoadPDF(ctx context.Context, path string) ([]*schema.Document, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: true})
	if err != nil {
		return nil, fmt.Errorf("create pdf parser failed: %w", err)
	}
	loader, err := file.NewFileLoader(ctx, &file.FileLoaderConfig{
		UseNameAsID: true,
		Parser:      p,
	})
	if err != nil {
		return nil, fmt.Errorf("create file loader failed: %w", err)
	}
	docs, err := loader.Load(ctx, document.Source{URI: path})
	if err != nil {
		return nil, fmt.Errorf("load %s failed: %w", path, err)
	}
	return numberPages(docs, path), nil
}

// ParsePDF parses an uploaded PDF stream, one document per page.
func ParsePDF(ctx context.Context, r io.Reader, name string) ([]*schema.Document, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: true})
	if err != nil {
		return nil, fmt.Errorf("create pdf parser failed: %w", err)
	}
	docs, err := p.Parse(ctx, r, parser.WithURI(name))
	if err != nil {
		return nil, fmt.Errorf("parse pdf failed: %w", err)
	}
	return numberPages(docs, name), nil
}

// numberPages records the 1-based page and file name on every page document.
func numberPages(docs []*schema.Document, name string) []*schema.Document {
	for i, doc := range docs {
		if doc.MetaData == nil {
			doc.MetaData = make(map[string]any)
		}
		if _, ok := doc.MetaData[file.MetaKeyFileName]; !ok {
			doc.MetaData[file.MetaKeyFileName] = name
		}
		doc.MetaData[types.MetaPage] = i + 1
	}
	return docs
}
