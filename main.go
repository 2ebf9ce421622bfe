package main

import (
	"context"
	"fmt"
	"log"

	"contract-risk-rag/api/handler"
	"contract-risk-rag/api/router"
	"contract-risk-rag/job"
	"contract-risk-rag/logic/chat"
	"contract-risk-rag/logic/embedding"
	"contract-risk-rag/logic/ingestion/splitter"
	"contract-risk-rag/service"
	"contract-risk-rag/storage"
	"contract-risk-rag/storage/postgres"
	"contract-risk-rag/vars"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	ctx := context.Background()
	cfg, err := vars.Load()
	if err != nil {
		panic(err)
	}

	r := gin.Default()
	if configErr := cfg.CredentialsError(); configErr != nil {
		// every model-backed route answers 500 with the configuration error
		router.RegisterRoutes(r, handler.NewContractHandler(handler.Deps{ConfigErr: configErr}))
		log.Printf("Server running on :%s (unconfigured)", cfg.Port)
		_ = r.Run(":" + cfg.Port)
		return
	}

	// 1. DB + analysis history
	var (
		db      *gorm.DB
		reports service.ReportStore
		history handler.HistoryLister
	)
	db, err = postgres.InitDB(cfg.PostgresDSN())
	if err != nil {
		if cfg.VectorStore == vars.StorePostgres {
			panic(err)
		}
		log.Printf("⚠️ PostgreSQL unavailable, analysis history disabled: %v", err)
	} else {
		if err := postgres.Migrate(db); err != nil {
			panic(err)
		}
		repo := postgres.NewReportRepo(db)
		reports, history = repo, repo
		if _, err := job.StartCronJob(repo, cfg.ReportPruneSpec, cfg.ReportRetentionDays); err != nil {
			panic(fmt.Sprintf("schedule report retention failed: %v", err))
		}
	}

	// 2. LLM + embedder
	var gc *genai.Client
	if cfg.LLMProvider == vars.ProviderGemini || cfg.EmbeddingProvider == vars.ProviderGemini {
		gc, err = chat.NewGeminiClient(ctx, cfg.GeminiKey)
		if err != nil {
			panic(err)
		}
		defer gc.Close()
	}
	chatModel, err := chat.NewChatModel(ctx, cfg, gc)
	if err != nil {
		panic(err)
	}
	embedder, err := embedding.NewEmbedder(ctx, cfg, gc)
	if err != nil {
		panic(err)
	}
	dim, err := embedding.Dimension(ctx, embedder)
	if err != nil {
		panic(err)
	}
	log.Printf("✅ embedder %s ready (dim=%d)", cfg.EmbeddingModel, dim)

	// query embeddings go through Redis when configured
	queryEmbedder := embedder
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("⚠️ Redis unavailable, embedding cache disabled: %v", err)
		} else {
			defer rdb.Close()
			queryEmbedder = embedding.NewCachedEmbedder(embedder, rdb, cfg.EmbeddingModel, cfg.EmbeddingTTL)
			log.Println("✅ Redis embedding cache enabled")
		}
	}

	// 3. vector store
	store, err := storage.NewVectorStore(ctx, cfg, embedder, dim, db)
	if err != nil {
		panic(fmt.Sprintf("vector store init failed: %v", err))
	}
	log.Printf("✅ vector store %s ready", cfg.VectorStore)

	docSplitter, err := splitter.New(ctx, cfg, embedder)
	if err != nil {
		panic(err)
	}

	// 4. services
	retrievalSvc := service.NewRetrievalService(queryEmbedder, store)
	answerSvc := service.NewAnswerService(chatModel, retrievalSvc, cfg.LLMTimeout)
	analysisSvc := service.NewContractAnalysisService(chatModel, retrievalSvc, reports, cfg.LLMTimeout)
	ingestionSvc := service.NewIngestionService(store, docSplitter, cfg.IngestTimeout)

	// 5. handler
	contractHandler := handler.NewContractHandler(handler.Deps{
		Answer:            answerSvc,
		Analysis:          analysisSvc,
		Ingestion:         ingestionSvc,
		History:           history,
		KnowledgeBasePath: cfg.KnowledgeBasePath,
	})

	// 6. web server
	router.RegisterRoutes(r, contractHandler)
	log.Printf("Server running on :%s", cfg.Port)
	_ = r.Run(":" + cfg.Port)
}
