package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nutriscope/backend/config"
	httpDelivery "github.com/nutriscope/backend/internal/delivery/http"
	"github.com/nutriscope/backend/internal/domain"
	"github.com/nutriscope/backend/internal/infrastructure/adapters"
	"github.com/nutriscope/backend/internal/infrastructure/cache"
	"github.com/nutriscope/backend/internal/infrastructure/discovery"
	"github.com/nutriscope/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Nutriscope Engine v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Discovery store: %s", cfg.Discovery.StoreType)

	// Infrastructure
	profileCache := cache.NewMemoryProfileCache()

	taskStore, closeStore, err := buildTaskStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open task store: %v", err)
	}
	defer closeStore()

	fdc := adapters.NewFoodDataAdapter(cfg.Adapters.FDCAPIKey, cfg.Adapters.FDCBaseURL)
	off := adapters.NewOpenFoodFactsAdapter(cfg.Adapters.OpenFoodFactsURL)
	if cfg.Server.Environment == "development" || cfg.Adapters.EnableDebugLogging {
		fdc.SetDebug(true)
		off.SetDebug(true)
	}

	// The AI estimator only serves the discovery worker; it never joins the
	// request-path fan-out.
	var aiFallback domain.SourceAdapter
	if cfg.Adapters.AIEstimatorURL != "" {
		ai := adapters.NewAIEstimateAdapter(cfg.Adapters.AIEstimatorURL)
		aiFallback = ai
		log.Printf("AI estimator configured: %s", cfg.Adapters.AIEstimatorURL)
	} else {
		log.Printf("AI estimator not configured; discovery will rely on providers only")
	}

	primaryAdapters := []domain.SourceAdapter{off, fdc}

	// Usecase layer
	resolution := usecase.NewResolutionService(primaryAdapters, profileCache, taskStore, usecase.ResolutionConfig{
		AdapterTimeout:      cfg.Adapters.Timeout,
		AcceptanceThreshold: cfg.Resolver.AcceptanceThreshold,
		CacheTTL:            cfg.Resolver.CacheTTL,
		EnableDebugLogging:  cfg.Adapters.EnableDebugLogging,
	})

	worker := usecase.NewDiscoveryWorker(taskStore, primaryAdapters, aiFallback, profileCache, usecase.WorkerConfig{
		PollInterval: cfg.Discovery.PollInterval,
		MaxAttempts:  cfg.Discovery.MaxAttempts,
		Workers:      cfg.Discovery.Workers,
		CacheTTL:     cfg.Resolver.CacheTTL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go worker.Run(ctx)

	// HTTP delivery
	handler := httpDelivery.NewHandler(resolution)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildTaskStore picks the configured discovery task store.
func buildTaskStore(cfg *config.Config) (domain.TaskStore, func(), error) {
	if cfg.Discovery.StoreType == "sqlite" {
		store, err := discovery.NewSQLiteTaskStore(cfg.Discovery.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
	return discovery.NewMemoryTaskStore(), func() {}, nil
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
