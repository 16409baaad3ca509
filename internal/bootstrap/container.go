package bootstrap

import (
	"context"
	"log"

	"market-assist-be/internal/assistant"
	"market-assist-be/internal/config"
	"market-assist-be/internal/controller"
	"market-assist-be/internal/pkg/logger"
	"market-assist-be/internal/pkg/mailer"
	"market-assist-be/internal/ratelimit"
	"market-assist-be/internal/repository/implementation"
	"market-assist-be/internal/repository/memory"
	"market-assist-be/internal/service"
	"market-assist-be/internal/websocket"
	"market-assist-be/pkg/cache"
	"market-assist-be/pkg/llm/factory"
	"market-assist-be/pkg/llm/ollama"

	pktNats "market-assist-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController

	// Background workers (exposed for main.go to run)
	SessionReaper   *service.SessionReaper
	AlertService    service.IAlertService
	SupportNotifier *service.SupportNotifierService

	// WebSocket
	WebSocketHub *websocket.Hub

	// Shutdown hooks
	NatsPublisher  *pktNats.Publisher
	NatsSubscriber *pktNats.Subscriber
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	alertMailer := mailer.NewAlertMailer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.Alerts.Recipient,
	)

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	}

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

	// The rate limiter and response cache share one cache service.
	var cacheService cache.Service = cache.NewRedisService(rdb)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.Provider,
		cfg.Ai.Model,
		cfg.Ai.BaseURL,
		cfg.Ai.APIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.Provider, cfg.Ai.Model)

	// Local models pay a load cost on the first call; warm them in the
	// background so the first visitor does not.
	if ollamaProvider, ok := llmProvider.(*ollama.OllamaProvider); ok {
		go func() {
			if err := ollamaProvider.Warmup(context.Background()); err != nil {
				log.Printf("[WARN] LLM warmup failed: %v", err)
			}
		}()
	}

	// 4. Repositories
	sessionRepo := implementation.NewChatSessionRepository(db)
	messageRepo := implementation.NewChatMessageRepository(db)
	analyticsRepo := implementation.NewChatAnalyticsRepository(db)
	sessionCache := memory.NewSessionCache(cfg.Assistant.SessionCacheTTL)

	// 5. WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/assistant.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 6. Services
	sessionService := service.NewSessionService(sessionRepo, sessionCache, sysLogger)
	sessionReaper := service.NewSessionReaper(
		sessionService,
		cfg.Assistant.ReaperInterval,
		cfg.Assistant.SessionStaleAfter,
		sysLogger,
	)
	telemetryService := service.NewTelemetryService(pubSub, sysLogger)
	alertService := service.NewAlertService(pubSub, alertMailer, natsPub, cfg.Alerts, sysLogger)

	var supportNotifier *service.SupportNotifierService
	if natsSub != nil {
		supportNotifier = service.NewSupportNotifierService(natsSub, alertMailer, sysLogger)
	}

	processor := assistant.NewResponseProcessor(
		llmProvider,
		cacheService,
		cfg.Assistant.ResponseCacheTTL,
		cfg.Ai.Timeout,
		sysLogger,
	)
	limiter := ratelimit.NewLimiter(
		cacheService,
		cfg.Assistant.RateLimitWindow,
		cfg.Assistant.RateLimitMax,
		sysLogger,
	)

	handlerDeps := websocket.HandlerDeps{
		Sessions:  sessionService,
		Messages:  messageRepo,
		Analytics: analyticsRepo,
		Processor: processor,
		Detector:  assistant.NewEscalationDetector(),
		Limiter:   limiter,
		Telemetry: telemetryService,
		NatsPub:   natsPub,
		Validator: validator.New(),
		Logger:    wsLogger,
		Cfg:       cfg.Assistant,
	}

	// 7. Controllers
	assistantController := controller.NewAssistantController(
		wsHub,
		handlerDeps,
		sessionService,
		cacheService,
		db,
		cfg,
		sysLogger,
	)

	return &Container{
		AssistantController: assistantController,
		SessionReaper:       sessionReaper,
		AlertService:        alertService,
		SupportNotifier:     supportNotifier,
		WebSocketHub:        wsHub,
		NatsPublisher:       natsPub,
		NatsSubscriber:      natsSub,
	}
}
