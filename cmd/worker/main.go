package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/world-forge/internal/config"
	"github.com/jwebster45206/world-forge/internal/forge"
	"github.com/jwebster45206/world-forge/internal/logger"
	"github.com/jwebster45206/world-forge/internal/services"
	"github.com/jwebster45206/world-forge/internal/services/events"
	queueService "github.com/jwebster45206/world-forge/internal/services/queue"
	"github.com/jwebster45206/world-forge/internal/storage"
	"github.com/jwebster45206/world-forge/internal/worker"
	"github.com/jwebster45206/world-forge/pkg/rules"
	"github.com/jwebster45206/world-forge/pkg/world"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting World Forge Worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL)

	// Initialize queue service
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
	log.Info("Queue service initialized successfully")

	// Initialize storage
	store := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage service initialized successfully")

	// Initialize the generation vendor
	if cfg.VeniceAPIKey == "" {
		log.Error("Cannot start", "error", forge.ErrMissingAPIKey)
		os.Exit(1)
	}
	genai := services.NewVeniceService(cfg.VeniceAPIKey, cfg.ModelName, cfg.ImageModelName)

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := genai.InitModel(initCtx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}
	log.Info("Vendor service initialized successfully", "model", cfg.ModelName)

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

	// Create and start worker
	w := worker.New(generationQueue, orchestrator, store, worldRules, world.Context{}, log, os.Getenv("WORKER_ID"))

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Worker started, waiting for requests...")

	<-quit
	log.Info("Worker shutdown signal received")

	w.Stop()

	// Give worker time to finish current request
	time.Sleep(2 * time.Second)

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Worker exited")
}
