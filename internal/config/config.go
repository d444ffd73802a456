package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"ai-docsearch-be/pkg/rag"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Ai          AIConfig
	VectorStore VectorStoreConfig
	Checkpoint  CheckpointConfig
	Pipeline    rag.Config
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
	OtelEnabled        bool
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider          string // "openai" or "ollama"
	LLMModel             string
	EmbeddingProvider    string // "openai" or "ollama"
	EmbeddingModel       string
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	OllamaBaseURL        string
	OllamaEmbeddingModel string
}

type VectorStoreConfig struct {
	Backend            string // "qdrant" or "postgres"
	QdrantHost         string
	QdrantPort         int
	QdrantAPIKey       string
	QdrantUseTLS       bool
	ChunksCollection   string
	FullDocsCollection string
}

type CheckpointConfig struct {
	Backend string // "memory", "redis" or "none"
	TTL     time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:          getEnv("LLM_PROVIDER", "openai"),
			LLMModel:             getEnv("LLM_MODEL", os.Getenv("RAG_MODEL_NAME")),
			EmbeddingProvider:    getEnv("EMBEDDING_PROVIDER", "openai"),
			EmbeddingModel:       getEnv("EMBEDDING_MODEL", ""),
			OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", ""),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		},
		VectorStore: VectorStoreConfig{
			Backend:            getEnv("VECTOR_STORE", "qdrant"),
			QdrantHost:         getEnv("QDRANT_HOST", "localhost"),
			QdrantPort:         getEnvAsInt("QDRANT_PORT", 6334),
			QdrantAPIKey:       getEnv("QDRANT_API_KEY", ""),
			QdrantUseTLS:       getEnvAsBool("QDRANT_USE_TLS", false),
			ChunksCollection:   getEnv("QDRANT_CHUNKS_COLLECTION", "langchain1_chunks"),
			FullDocsCollection: getEnv("QDRANT_FULL_DOCS_COLLECTION", "langchain1_full_docs"),
		},
		Checkpoint: CheckpointConfig{
			Backend: getEnv("CHECKPOINT_STORE", "memory"),
			TTL:     getEnvAsDuration("CHECKPOINT_TTL", 0),
		},
		Pipeline: loadPipeline(),
	}

	if path := os.Getenv("PIPELINE_CONFIG_FILE"); path != "" {
		if err := cfg.overlayPipeline(path); err != nil {
			log.Printf("[WARN] Failed to apply pipeline config %s: %v", path, err)
		}
	}

	return cfg
}

// loadPipeline reads the per-turn defaults. The model sent with every call
// falls back to LLM_MODEL so it matches the configured provider.
func loadPipeline() rag.Config {
	def := rag.DefaultConfig()
	return rag.Config{
		TopK:                  getEnvAsInt("RAG_TOP_K", def.TopK),
		MaxIterations:         getEnvAsInt("RAG_MAX_ITERATIONS", def.MaxIterations),
		EnableQueryRefinement: getEnvAsBool("RAG_ENABLE_QUERY_REFINEMENT", def.EnableQueryRefinement),
		ModelName:             getEnv("RAG_MODEL_NAME", getEnv("LLM_MODEL", def.ModelName)),
		Temperature:           getEnvAsFloat("RAG_TEMPERATURE", def.Temperature),
		AnalysisFallback:      getEnvAsBool("RAG_ANALYSIS_FALLBACK", def.AnalysisFallback),
		ChunkFallback:         getEnvAsBool("RAG_CHUNK_FALLBACK", def.ChunkFallback),
		StageTimeout:          getEnvAsDuration("RAG_STAGE_TIMEOUT", def.StageTimeout),
	}
}

// overlayPipeline decodes a YAML pipeline block over the env values.
// Keys missing from the file keep their current value.
func (c *Config) overlayPipeline(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file struct {
		Pipeline *rag.Config `yaml:"pipeline"`
	}
	file.Pipeline = &c.Pipeline
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings every backend combination needs.
func (c *Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if c.Ai.LLMProvider == "ollama" && c.Ai.LLMModel == "" {
		return fmt.Errorf("%w: LLM_MODEL is required for the ollama provider", rag.ErrConfiguration)
	}
	switch c.VectorStore.Backend {
	case "qdrant":
	case "postgres":
		if c.Database.Connection == "" {
			return fmt.Errorf("%w: DB_CONNECTION_STRING is required for the postgres vector store", rag.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unsupported VECTOR_STORE: %s", rag.ErrConfiguration, c.VectorStore.Backend)
	}
	switch c.Checkpoint.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("%w: unsupported CHECKPOINT_STORE: %s", rag.ErrConfiguration, c.Checkpoint.Backend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
