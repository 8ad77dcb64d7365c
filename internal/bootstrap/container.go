package bootstrap

import (
	"context"
	"log"
	"time"

	"interview-assist-be/internal/config"
	"interview-assist-be/internal/controller"
	"interview-assist-be/internal/handler"
	"interview-assist-be/internal/pkg/logger"
	"interview-assist-be/internal/repository/memory"
	"interview-assist-be/internal/service"
	"interview-assist-be/internal/websocket"
	"interview-assist-be/pkg/extract"
	"interview-assist-be/pkg/llm/factory"
	"interview-assist-be/pkg/pipeline"
	"interview-assist-be/pkg/rubric/template"
	"interview-assist-be/pkg/segment"
	"interview-assist-be/pkg/stt"
	"interview-assist-be/pkg/stt/whisper"

	pktNats "interview-assist-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const pipelineEventsTopic = "pipeline_events"

type Container struct {
	// Controllers
	SessionController  controller.ISessionController
	TemplateController controller.ITemplateController
	HealthController   controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	StreamHandler *handler.StreamHandler
	WebSocketHub  *websocket.Hub
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Pipeline Providers
	// A missing key degrades that stage instead of failing startup; the
	// pipeline reports the gap per segment through pipeline-error events.
	var sttGateway *stt.Gateway
	if cfg.Stt.OpenAIAPIKey != "" {
		whisperProvider := whisper.NewProvider(cfg.Stt.OpenAIAPIKey, cfg.Stt.WhisperModel)
		sttGateway = stt.NewGateway(
			whisperProvider,
			cfg.Stt.Language,
			time.Duration(cfg.Stt.RequestTimeout)*time.Second,
			sysLogger,
		)
		log.Printf("[INFO] Using STT Provider: WHISPER (%s)", cfg.Stt.WhisperModel)
	} else {
		log.Printf("[WARN] No STT API key configured, transcription disabled")
	}

	var extractor *extract.Extractor
	llmProvider, err := factory.NewLLMProvider(
		cfg.Llm.Provider,
		cfg.Llm.Model,
		cfg.Llm.OllamaBaseURL,
		cfg.Llm.OpenAIAPIKey,
	)
	if err != nil {
		log.Printf("[WARN] Failed to initialize LLM Provider: %v. Extraction disabled", err)
	} else {
		extractor = extract.NewExtractor(llmProvider, sysLogger)
		log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Llm.Provider, cfg.Llm.Model)
	}

	// Initialize In-Memory Session Storage
	sessionRepo := memory.NewSessionRepository(sysLogger)

	segmentStore := segment.NewStore(cfg.Audio.StorageDir, cfg.Audio.NominalSegmentSeconds, sysLogger)
	templateLoader := template.NewLoader(cfg.Template.Dir, cfg.Template.DefaultID, sysLogger)

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis (optional cross-instance websocket relay)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/stream.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	publisherService := service.NewPublisherService(pipelineEventsTopic, pubSub, natsPub, sysLogger)
	consumerService := service.NewConsumerService(pubSub, pipelineEventsTopic, wsHub, wsLogger)

	// 4. Pipeline
	orchestrator := pipeline.NewOrchestrator(
		segmentStore,
		sttGateway,
		extractor,
		templateLoader,
		sessionRepo,
		publisherService,
		cfg.Stt.BatchConcurrency,
		sysLogger,
	)

	streamHandler := handler.NewStreamHandler(orchestrator, wsHub, wsLogger)

	// 5. Controllers
	return &Container{
		SessionController:  controller.NewSessionController(orchestrator),
		TemplateController: controller.NewTemplateController(templateLoader),
		HealthController:   controller.NewHealthController(orchestrator),

		StreamHandler: streamHandler,
		WebSocketHub:  wsHub,

		ConsumerService: consumerService,
	}
}
