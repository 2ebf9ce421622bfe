package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"contract-risk-rag/logic/chat"
	"contract-risk-rag/logic/embedding"
	"contract-risk-rag/logic/ingestion/splitter"
	"contract-risk-rag/service"
	"contract-risk-rag/storage"
	"contract-risk-rag/vars"

	"github.com/google/generative-ai-go/genai"
)

func main() {
	file := flag.String("file", "", "PDF to ingest (default: KNOWLEDGE_BASE_PATH)")
	flag.Parse()

	cfg, err := vars.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.CredentialsError(); err != nil {
		log.Fatal(err)
	}
	path := *file
	if path == "" {
		path = cfg.KnowledgeBasePath
	}

	if err := run(cfg, path); err != nil {
		log.Printf("❌ ingestion failed: %v", err)
		os.Exit(1)
	}
}

func run(cfg *vars.Config, path string) error {
	ctx := context.Background()
	start := time.Now()

	var gc *genai.Client
	if cfg.EmbeddingProvider == vars.ProviderGemini {
		var err error
		if gc, err = chat.NewGeminiClient(ctx, cfg.GeminiKey); err != nil {
			return err
		}
		defer gc.Close()
	}
	embedder, err := embedding.NewEmbedder(ctx, cfg, gc)
	if err != nil {
		return err
	}
	dim, err := embedding.Dimension(ctx, embedder)
	if err != nil {
		return err
	}
	store, err := storage.NewVectorStore(ctx, cfg, embedder, dim, nil)
	if err != nil {
		return err
	}
	docSplitter, err := splitter.New(ctx, cfg, embedder)
	if err != nil {
		return err
	}

	n, err := service.NewIngestionService(store, docSplitter, cfg.IngestTimeout).IngestFile(ctx, path)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Ingested %d chunks from %s into %s in %v\n", n, path, cfg.VectorStore, time.Since(start))
	return nil
}
