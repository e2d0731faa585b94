package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harvlabs/harv-backend/internal/data/db"
	"github.com/harvlabs/harv-backend/internal/data/repos"
	"github.com/harvlabs/harv-backend/internal/handlers"
	"github.com/harvlabs/harv-backend/internal/middleware"
	"github.com/harvlabs/harv-backend/internal/observability"
	"github.com/harvlabs/harv-backend/internal/platform/envutil"
	"github.com/harvlabs/harv-backend/internal/platform/logger"
	"github.com/harvlabs/harv-backend/internal/realtime/bus"
	"github.com/harvlabs/harv-backend/internal/server"
	"github.com/harvlabs/harv-backend/internal/services"
)

func main() {
	// Logger
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "harv-backend",
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),
	})

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(thePG, log)
	surveyRepo := repos.NewOnboardingSurveyRepo(thePG, log)
	moduleRepo := repos.NewModuleRepo(thePG, log)
	conversationRepo := repos.NewConversationRepo(thePG, log)
	messageRepo := repos.NewMessageRepo(thePG, log)
	insightRepo := repos.NewInsightSummaryRepo(thePG, log)
	progressRepo := repos.NewProgressRecordRepo(thePG, log)

	// Metrics
	metrics := observability.NewMetrics()

	// Strategy rules, with an optional YAML override
	strategies := services.DefaultStrategyTable()
	if path := envutil.String("SOCRATIC_RULES_PATH", ""); path != "" {
		loaded, err := services.LoadStrategyTable(path)
		if err != nil {
			log.Error("Could not load Socratic strategy rules", "path", path, "error", err)
			os.Exit(1)
		}
		strategies = loaded
	}

	// Event bus (optional)
	var eventBus bus.TutorEventBus
	if b, err := bus.NewTutorEventBus(log); err != nil {
		log.Warn("Tutor event bus disabled", "error", err)
	} else {
		eventBus = b
		defer func() { _ = b.Close() }()
	}

	// LLM (optional: without a key the tutor falls back to canned questions)
	llm, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Warn("OpenAI client unavailable, using fallback replies", "error", err)
		llm = services.UnavailableLLM(err.Error())
	}

	// Services
	log.Info("Setting up services...")
	memoryService := services.NewMemoryContextService(
		log,
		userRepo,
		surveyRepo,
		moduleRepo,
		conversationRepo,
		messageRepo,
		insightRepo,
		progressRepo,
		strategies,
		metrics,
	)
	insightService := services.NewInsightService(log, insightRepo, progressRepo, metrics)
	chatService := services.NewChatService(
		log,
		conversationRepo,
		messageRepo,
		insightRepo,
		progressRepo,
		memoryService,
		insightService,
		llm,
		eventBus,
		metrics,
	)

	// Handlers
	log.Info("Setting up handlers...")
	healthHandler := handlers.NewHealthHandler(metrics)
	userHandler := handlers.NewUserHandler(userRepo, surveyRepo)
	moduleHandler := handlers.NewModuleHandler(moduleRepo)
	chatHandler := handlers.NewChatHandler(chatService)
	memoryHandler := handlers.NewMemoryHandler(memoryService, insightService)
	progressHandler := handlers.NewProgressHandler(insightService, progressRepo)

	// Router
	router := server.NewRouter(server.RouterConfig{
		IdentityMiddleware: middleware.NewIdentityMiddleware(log),
		HealthHandler:      healthHandler,
		UserHandler:        userHandler,
		ModuleHandler:      moduleHandler,
		ChatHandler:        chatHandler,
		MemoryHandler:      memoryHandler,
		ProgressHandler:    progressHandler,
	})

	port := envutil.String("PORT", "8080")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server failed", "error", err)
	}

	if otelShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Warn("otel shutdown failed", "error", err)
		}
	}
}
