package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/world-forge/internal/config"
	"github.com/jwebster45206/world-forge/internal/forge"
	"github.com/jwebster45206/world-forge/internal/handlers"
	"github.com/jwebster45206/world-forge/internal/logger"
	"github.com/jwebster45206/world-forge/internal/middleware"
	"github.com/jwebster45206/world-forge/internal/services"
	"github.com/jwebster45206/world-forge/internal/services/events"
	queueService "github.com/jwebster45206/world-forge/internal/services/queue"
	"github.com/jwebster45206/world-forge/internal/storage"
	"github.com/jwebster45206/world-forge/pkg/rules"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting World Forge API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"model_name", cfg.ModelName,
		"image_model_name", cfg.ImageModelName)

	if cfg.VeniceAPIKey == "" {
		log.Error("Cannot start", "error", forge.ErrMissingAPIKey)
		os.Exit(1)
	}
	genai := services.NewVeniceService(cfg.VeniceAPIKey, cfg.ModelName, cfg.ImageModelName)

	store := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	// Initialize the models on startup
	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := genai.InitModel(initCtx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	worldRules := rules.Default()
	if cfg.RulesPath != "" {
		worldRules, err = rules.Load(cfg.RulesPath)
		if err != nil {
			log.Error("Failed to load world rules", "error", err, "path", cfg.RulesPath)
			os.Exit(1)
		}
		log.Info("World rules loaded", "path", cfg.RulesPath, "categories", len(worldRules.Categories))
	}

	counters, counterCleanup, err := storage.NewCounterStore(cfg.CounterStore, cfg.CounterDB, store.GetRedisClient(), log)
	if err != nil {
		log.Error("Failed to initialize counter store", "error", err, "store", cfg.CounterStore)
		os.Exit(1)
	}
	defer counterCleanup()
	log.Info("Counter store initialized", "store", cfg.CounterStore)

	broadcaster := events.NewBroadcaster(store.GetRedisClient(), log)
	orchestrator, err := forge.NewOrchestrator(genai, counters, broadcaster, cfg.StageTimeout, log)
	if err != nil {
		log.Error("Failed to initialize orchestrator", "error", err)
		os.Exit(1)
	}

	queueClient, err := queueService.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()
	generationQueue := queueService.NewGenerationQueue(queueClient)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	entityHandler := handlers.NewEntityHandler(orchestrator, store, worldRules, log)
	mux.Handle("/v1/entities", entityHandler)
	mux.Handle("/v1/entities/", entityHandler)

	generateHandler := handlers.NewGenerateHandler(generationQueue, log)
	mux.Handle("/v1/generate", generateHandler)

	eventsHandler := handlers.NewEventsHandler(store.GetRedisClient(), log)
	mux.Handle("/v1/events/requests/", eventsHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout removed to enable SSE streaming
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
