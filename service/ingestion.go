package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"contract-risk-rag/logic/ingestion/loaders"
	"contract-risk-rag/logic/ingestion/processors"
	"contract-risk-rag/types"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

var ErrNoChunks = errors.New("document produced no chunks")

// SourceDeleter is implemented by stores that can drop every chunk of one
// source file. Ingesting a file again then replaces its chunks.
type SourceDeleter interface {
	DeleteBySource(ctx context.Context, sourceFile string) error
}

type IngestionService struct {
	indexer  indexer.Indexer
	splitter document.Transformer
	timeout  time.Duration
}

// NewIngestionService wires the ingestion pipeline. Each split, delete and
// store call runs under timeout; zero disables it.
func NewIngestionService(idx indexer.Indexer, splitter document.Transformer, timeout time.Duration) *IngestionService {
	return &IngestionService{indexer: idx, splitter: splitter, timeout: timeout}
}

// IngestFile loads a PDF from disk and stores its chunks.
func (s *IngestionService) IngestFile(ctx context.Context, path string) (int, error) {
	startTime := time.Now()
	pages, err := loaders.LoadPDF(ctx, path)
	if err != nil {
		return 0, err
	}
	log.Printf(">>> [Ingestion] loaded %d pages from %s in %v", len(pages), path, time.Since(startTime))
	return s.IngestPages(ctx, filepath.Base(path), path, pages)
}

// IngestUpload parses an uploaded PDF and stores its chunks.
func (s *IngestionService) IngestUpload(ctx context.Context, fileHeader *multipart.FileHeader) (int, error) {
	srcFile, err := fileHeader.Open()
	if err != nil {
		return 0, err
	}
	defer srcFile.Close()

	pages, err := loaders.ParsePDF(ctx, srcFile, fileHeader.Filename)
	if err != nil {
		return 0, err
	}
	return s.IngestPages(ctx, fileHeader.Filename, fileHeader.Filename, pages)
}

// IngestPages cleans and splits page documents, attaches provenance and
// stores everything in one batch. It returns the number of stored chunks.
func (s *IngestionService) IngestPages(ctx context.Context, sourceFile, fullPath string, pages []*schema.Document) (int, error) {
	startTime := time.Now()
	pages = processors.CleanDocuments(pages)

	stem := strings.ToLower(strings.TrimSuffix(sourceFile, filepath.Ext(sourceFile)))
	ingestedAt := time.Now().UTC()

	var docs []*schema.Document
	for _, page := range pages {
		pageNum := pageNumber(page)
		splitCtx, cancel := s.withTimeout(ctx)
		parts, err := s.splitter.Transform(splitCtx, []*schema.Document{page})
		cancel()
		if err != nil {
			return 0, fmt.Errorf("split page %v failed: %w", pageNum, err)
		}
		for _, part := range parts {
			content := processors.CleanText(part.Content)
			if content == "" {
				continue
			}
			idx := len(docs)
			chunk := types.Chunk{
				ID:      uuid.NewString(),
				Content: content,
				Metadata: types.ChunkMetadata{
					SourceFile: sourceFile,
					FullPath:   fullPath,
					Page:       pageNum,
					ChunkIndex: idx,
					DocID:      fmt.Sprintf("%s_%d", stem, idx),
					IngestedAt: ingestedAt,
				},
			}
			docs = append(docs, chunk.Document())
		}
	}
	if len(docs) == 0 {
		return 0, ErrNoChunks
	}
	log.Printf(">>> [Ingestion] %d pages -> %d chunks in %v", len(pages), len(docs), time.Since(startTime))

	if deleter, ok := s.indexer.(SourceDeleter); ok {
		delCtx, cancel := s.withTimeout(ctx)
		err := deleter.DeleteBySource(delCtx, sourceFile)
		cancel()
		if err != nil {
			return 0, fmt.Errorf("remove previous chunks of %s failed: %w", sourceFile, err)
		}
	}

	storeStart := time.Now()
	storeCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	ids, err := s.indexer.Store(storeCtx, docs)
	if err != nil {
		return 0, fmt.Errorf("store chunks failed: %w", err)
	}
	log.Printf(">>> [Ingestion] stored %d chunks in %v", len(ids), time.Since(storeStart))
	return len(ids), nil
}

func (s *IngestionService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func pageNumber(doc *schema.Document) *int {
	switch v := doc.MetaData[types.MetaPage].(type) {
	case int:
		return &v
	case int64:
		n := int(v)
		return &n
	}
	return nil
}
