package vars

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// GetEnv returns the environment variable or fallback when unset.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf(">>> [Config] invalid integer for %s, using default: %d", key, fallback)
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf(">>> [Config] invalid duration for %s, using default: %v", key, fallback)
		return fallback
	}
	return value
}

const (
	// model names
	NOMIC       = "nomic-embed-text"
	QWEN7B      = "qwen2.5:7b"
	GPT4OMINI   = "gpt-4o-mini"
	GEMINIFLASH = "gemini-1.5-flash"
	GEMINIEMB   = "text-embedding-004"

	// providers
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	// vector stores
	StoreMilvus   = "milvus"
	StoreES       = "es"
	StorePostgres = "postgres"

	// splitters
	SplitterRecursive = "recursive"
	SplitterSemantic  = "semantic"

	// Milvus collection / ES index / PG table
	COLLECTION = "knowledge_base_chunks"
	ESINDEX    = "knowledge_base_chunks_v1"

	// retrieval
	DefaultMatchCount  = 6
	DefaultThreshold   = 0.65
	AnalysisMatchCount = 8

	// streaming sentinels
	StreamDone        = "[DONE]"
	StreamErrorPrefix = "Error: "
)

// DefaultSeparators are tried in order when splitting knowledge-base pages.
var DefaultSeparators = []string{"\n\n", "\n", ".", "!", "?", ",", " ", ""}

// Config is built once in main and handed to constructors.
type Config struct {
	Port string

	LLMProvider       string
	EmbeddingProvider string
	ChatModel         string
	EmbeddingModel    string
	OllamaPath        string
	OpenAIKey         string
	OpenAIBaseURL     string
	GeminiKey         string
	LLMTimeout        time.Duration

	VectorStore string
	MilvusAddr  string
	Collection  string
	ESAddr      string
	ESIndex     string

	PGUser string
	PGPwd  string
	PGDB   string
	PGHost string
	PGPort string

	RedisAddr    string
	EmbeddingTTL time.Duration

	KnowledgeBasePath string
	IngestTimeout     time.Duration
	Splitter          string
	ChunkSize         int
	ChunkOverlap      int
	Separators        []string

	ReportRetentionDays int
	ReportPruneSpec     string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println(">>> [Config] no .env file found, using environment variables")
	}

	llm := strings.ToLower(GetEnv("LLM_PROVIDER", ProviderOllama))
	cfg := &Config{
		Port: GetEnv("PORT", "8081"),

		LLMProvider:       llm,
		EmbeddingProvider: strings.ToLower(GetEnv("EMBEDDING_PROVIDER", ProviderOllama)),
		ChatModel:         GetEnv("CHAT_MODEL", defaultChatModel(llm)),
		OllamaPath:        GetEnv("OLLAMA_PATH", "http://localhost:11434"),
		OpenAIKey:         GetEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     GetEnv("OPENAI_BASE_URL", ""),
		GeminiKey:         GetEnv("GEMINI_API_KEY", ""),
		LLMTimeout:        getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),

		VectorStore: strings.ToLower(GetEnv("VECTOR_STORE", StoreMilvus)),
		MilvusAddr:  GetEnv("MILVUSADDR", "127.0.0.1:19530"),
		Collection:  GetEnv("COLLECTION", COLLECTION),
		ESAddr:      GetEnv("ESADDR", "http://localhost:9200"),
		ESIndex:     GetEnv("ESINDEX", ESINDEX),

		PGUser: GetEnv("PGUSER", "postgres"),
		PGPwd:  GetEnv("PGPWD", ""),
		PGDB:   GetEnv("PGDB", "contract_risk"),
		PGHost: GetEnv("PGHOST", "localhost"),
		PGPort: GetEnv("PGPORT", "5432"),

		RedisAddr:    GetEnv("REDIS_ADDR", ""),
		EmbeddingTTL: getEnvAsDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),

		KnowledgeBasePath: GetEnv("KNOWLEDGE_BASE_PATH", "public/Knowledge_Base.pdf"),
		IngestTimeout:     getEnvAsDuration("INGEST_TIMEOUT", 10*time.Minute),
		Splitter:          strings.ToLower(GetEnv("SPLITTER", SplitterRecursive)),
		ChunkSize:         getEnvAsInt("CHUNK_SIZE", 3500),
		ChunkOverlap:      getEnvAsInt("CHUNK_OVERLAP", 500),
		Separators:        DefaultSeparators,

		ReportRetentionDays: getEnvAsInt("REPORT_RETENTION_DAYS", 90),
		ReportPruneSpec:     GetEnv("REPORT_PRUNE_SPEC", "0 0 2 * * *"),
	}
	cfg.EmbeddingModel = GetEnv("EMBEDDING_MODEL", defaultEmbeddingModel(cfg.EmbeddingProvider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.CredentialsError(); err != nil {
		log.Printf("⚠️ %v", err)
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOllama, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	switch c.EmbeddingProvider {
	case ProviderOllama, ProviderGemini:
	default:
		return fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider)
	}
	switch c.VectorStore {
	case StoreMilvus, StoreES, StorePostgres:
	default:
		return fmt.Errorf("unknown VECTOR_STORE %q", c.VectorStore)
	}
	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("invalid chunking: size=%d overlap=%d", c.ChunkSize, c.ChunkOverlap)
	}
	return nil
}

// CredentialsError reports a missing API key for the configured providers.
// Requests fail with it before any external call is made.
func (c *Config) CredentialsError() error {
	var errs []error
	if c.LLMProvider == ProviderOpenAI && c.OpenAIKey == "" {
		errs = append(errs, errors.New("OpenAI API key not configured. Please set OPENAI_API_KEY environment variable."))
	}
	if (c.LLMProvider == ProviderGemini || c.EmbeddingProvider == ProviderGemini) && c.GeminiKey == "" {
		errs = append(errs, errors.New("Gemini API key not configured. Please set GEMINI_API_KEY environment variable."))
	}
	return errors.Join(errs...)
}

// PostgresDSN formats the gorm DSN.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.PGHost, c.PGUser, c.PGPwd, c.PGDB, c.PGPort)
}

func defaultChatModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return GPT4OMINI
	case ProviderGemini:
		return GEMINIFLASH
	default:
		return QWEN7B
	}
}

func defaultEmbeddingModel(provider string) string {
	if provider == ProviderGemini {
		return GEMINIEMB
	}
	return NOMIC
}
