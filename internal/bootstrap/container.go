package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-docsearch-be/internal/config"
	"ai-docsearch-be/internal/controller"
	"ai-docsearch-be/internal/metrics"
	"ai-docsearch-be/internal/pkg/logger"
	"ai-docsearch-be/internal/pkg/serverutils"
	"ai-docsearch-be/internal/repository/implementation"
	"ai-docsearch-be/internal/repository/memory"
	"ai-docsearch-be/internal/repository/redisstore"
	"ai-docsearch-be/internal/service"
	"ai-docsearch-be/pkg/database"
	"ai-docsearch-be/pkg/embedding"
	"ai-docsearch-be/pkg/events"
	"ai-docsearch-be/pkg/llm/factory"
	pktNats "ai-docsearch-be/pkg/nats"
	"ai-docsearch-be/pkg/rag"
	"ai-docsearch-be/pkg/rag/executor"
	"ai-docsearch-be/pkg/rag/search"
	"ai-docsearch-be/pkg/rag/session"
	"ai-docsearch-be/pkg/store"
	"ai-docsearch-be/pkg/vectorstore/qdrant"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const turnTopic = "rag.turns"

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Services
	ChatService     service.IChatService
	ConsumerService service.IConsumerService

	Pipeline *executor.PipelineExecutor
	Metrics  *metrics.Recorder
	Logger   logger.ILogger

	closers []func() error
}

// NewContainer builds every dependency from cfg. Backends that cannot be
// reached fail here rather than on the first question.
func NewContainer(cfg *config.Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{}
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c.Logger = sysLogger
	c.closers = append(c.closers, sysLogger.Sync)

	// 1. Models
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  llmBaseURL(cfg),
		APIKey:   cfg.Ai.OpenAIAPIKey,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Using LLM Provider: %s", cfg.Ai.LLMProvider)

	embeddingProvider, err := NewEmbeddingProvider(cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Using Embedding Provider: %s", cfg.Ai.EmbeddingProvider)

	// 2. Corpus
	searcher, docs, err := c.newCorpus(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	index := search.NewOrchestrator(embeddingProvider, searcher, sysLogger)

	// 3. Checkpoints
	sessions, err := c.newSessionStore(cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	// 4. Event bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, pubSub.Close)

	publishers := events.MultiPublisher{service.NewPublisherService(turnTopic, pubSub)}
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publishers = append(publishers, natsPub)
			c.closers = append(c.closers, func() error { natsPub.Close(); return nil })
		}
	}

	auditLogger := logger.NewIsolatedLogger("logs/turns.log")
	c.ConsumerService = service.NewConsumerService(pubSub, turnTopic, auditLogger)

	// 5. Pipeline
	c.Metrics = metrics.NewRecorder()
	c.Pipeline = executor.NewPipelineExecutor(
		llmProvider,
		index,
		docs,
		sysLogger,
		executor.WithSessionStore(sessions),
		executor.WithPublisher(publishers),
		executor.WithObserver(c.Metrics),
	)

	// 6. Services & controllers
	c.ChatService = service.NewChatService(c.Pipeline, cfg.Pipeline, sysLogger)
	c.ChatController = controller.NewChatController(
		c.ChatService,
		serverutils.JwtMiddleware(cfg.App.JWTSecret, false),
	)

	return c, nil
}

func llmBaseURL(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "ollama" {
		return cfg.Ai.OllamaBaseURL
	}
	return cfg.Ai.OpenAIBaseURL
}

// NewEmbeddingProvider selects the embedding backend named by EMBEDDING_PROVIDER.
func NewEmbeddingProvider(cfg *config.Config) (embedding.EmbeddingProvider, error) {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		p, err := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", rag.ErrConfiguration, err)
		}
		return p, nil
	case "openai", "":
		if cfg.Ai.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is required for openai embeddings", rag.ErrConfiguration)
		}
		return embedding.NewOpenAIProvider(cfg.Ai.OpenAIAPIKey, cfg.Ai.OpenAIBaseURL, cfg.Ai.EmbeddingModel), nil
	default:
		return nil, fmt.Errorf("%w: unsupported EMBEDDING_PROVIDER: %s", rag.ErrConfiguration, cfg.Ai.EmbeddingProvider)
	}
}

func (c *Container) newCorpus(cfg *config.Config) (store.VectorSearcher, store.DocumentStore, error) {
	switch cfg.VectorStore.Backend {
	case "postgres":
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.closers = append(c.closers, func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
		repo := implementation.NewDocumentRepository(db)
		log.Printf("[INFO] Using Vector Store: postgres")
		return repo, repo, nil
	default:
		client, err := qdrant.NewClient(qdrant.Config{
			Host:               cfg.VectorStore.QdrantHost,
			Port:               cfg.VectorStore.QdrantPort,
			APIKey:             cfg.VectorStore.QdrantAPIKey,
			UseTLS:             cfg.VectorStore.QdrantUseTLS,
			ChunksCollection:   cfg.VectorStore.ChunksCollection,
			FullDocsCollection: cfg.VectorStore.FullDocsCollection,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect qdrant: %w", err)
		}
		c.closers = append(c.closers, client.Close)
		log.Printf("[INFO] Using Vector Store: qdrant (%s, %s)", cfg.VectorStore.ChunksCollection, cfg.VectorStore.FullDocsCollection)
		return client.ChunkIndex(""), client.DocumentStore(""), nil
	}
}

func (c *Container) newSessionStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Checkpoint.Backend {
	case "redis":
		rdb := redisstore.NewClient(cfg.App.RedisURL)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.closers = append(c.closers, rdb.Close)
		return redisstore.NewSessionRepository(rdb, redisstore.DefaultKeyPrefix, cfg.Checkpoint.TTL), nil
	case "none":
		return session.NopStore{}, nil
	default:
		return memory.NewSessionRepository(cfg.Checkpoint.TTL), nil
	}
}

// Close releases backends in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			log.Printf("[WARN] Close failed: %v", err)
		}
	}
	c.closers = nil
}
