package bootstrap

import (
	"context"
	"log"

	"shopassist-be/internal/config"
	"shopassist-be/internal/controller"
	"shopassist-be/internal/pkg/logger"
	"shopassist-be/internal/repository/implementation"
	"shopassist-be/internal/service"
	"shopassist-be/pkg/assist/condense"
	"shopassist-be/pkg/assist/contextmgr"
	"shopassist-be/pkg/assist/entity"
	"shopassist-be/pkg/assist/intent"
	"shopassist-be/pkg/assist/pipeline"
	"shopassist-be/pkg/assist/retrieval"
	"shopassist-be/pkg/assist/rewrite"
	"shopassist-be/pkg/assist/state"
	"shopassist-be/pkg/assist/synth"
	"shopassist-be/pkg/embedding"
	"shopassist-be/pkg/embedding/jina"
	"shopassist-be/pkg/llm/factory"

	pktNats "shopassist-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AssistController controller.IAssistController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Initialize Embedding Provider based on Config
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "gemini" {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	}

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.HuggingFace,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 3. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Conversation state store: in-memory TTL cache by default, Redis when
	// turns must survive restarts or be shared across instances.
	var stateStore state.Store
	if cfg.Assist.StateBackend == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		stateStore = state.NewRedisStore(rdb, cfg.Assist.StateTTL)
		log.Printf("[INFO] Using State Backend: REDIS")
	} else {
		stateStore = state.NewMemoryStore(cfg.Assist.StateTTL, cfg.Assist.StatePurgeInterval)
		log.Printf("[INFO] Using State Backend: MEMORY (ttl %s)", cfg.Assist.StateTTL)
	}

	// 4. Repositories
	chunkRepo := implementation.NewCatalogChunkRepository(db)
	productRepo := implementation.NewProductRepository(db)
	availabilityRepo := implementation.NewAvailabilityRepository(db)

	// 5. Pipeline stages
	router := intent.NewRouter()
	resolver := entity.NewResolver(productRepo, sysLogger)
	manager := contextmgr.NewManager(stateStore, sysLogger)
	rewriter := rewrite.NewRewriter(llmProvider, sysLogger)

	retrievalCfg := retrieval.DefaultConfig()
	if cfg.Assist.ChunkBudget > 0 {
		retrievalCfg.ChunkBudget = cfg.Assist.ChunkBudget
	}
	engine := retrieval.NewEngine(chunkRepo, embeddingProvider, retrievalCfg, sysLogger)

	condenser := condense.NewCondenser(llmProvider, sysLogger)
	synthesizer := synth.NewSynthesizer(llmProvider, sysLogger)

	executor := pipeline.NewTurnExecutor(
		router,
		resolver,
		manager,
		rewriter,
		engine,
		condenser,
		synthesizer,
		productRepo,
		availabilityRepo,
		sysLogger,
		cfg.Assist.MaxContextTokens,
	)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Keys.TurnTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.Keys.TurnTopic, natsPub)
	assistService := service.NewAssistService(executor, stateStore, publisherService, sysLogger)

	// 7. Controllers
	return &Container{
		AssistController: controller.NewAssistController(assistService),
		ConsumerService:  consumerService,
	}
}
