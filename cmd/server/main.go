package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Sdiabate1337/reput/internal/classifier"
	"github.com/Sdiabate1337/reput/internal/dispatcher"
	"github.com/Sdiabate1337/reput/internal/engine"
	"github.com/Sdiabate1337/reput/internal/escalation"
	"github.com/Sdiabate1337/reput/internal/locker"
	"github.com/Sdiabate1337/reput/internal/quota"
	"github.com/Sdiabate1337/reput/internal/storage"
	"github.com/Sdiabate1337/reput/internal/transcriber"
	"github.com/Sdiabate1337/reput/internal/webhook"
	"github.com/Sdiabate1337/reput/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Initialize storage
	var store storage.Store
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		store, err = storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	// Initialize the conversation locker: redis when configured, else
	// in-process.
	var locks locker.Locker
	if cfg.Redis.Addr != "" {
		logger.Info("Using redis conversation locker", zap.String("addr", cfg.Redis.Addr))
		locks, err = locker.NewRedisLocker(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
	} else {
		logger.Info("Using in-memory conversation locker")
		locks = locker.NewMemoryLocker()
	}
	defer locks.Close()

	// Initialize collaborators
	clf := classifier.NewOpenAIClassifier(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.MaxTokens,
		cfg.OpenAI.Temperature,
		logger,
	)
	trans := transcriber.NewWhisperTranscriber(cfg.OpenAI.APIKey, cfg.OpenAI.TranscribeModel, logger)
	disp := dispatcher.NewProviderClient(
		cfg.Provider.BaseURL,
		cfg.Provider.AccountSID,
		cfg.Provider.AuthToken,
		cfg.Provider.FromNumber,
		logger,
	)
	notifier := escalation.NewNotifier(disp, logger)

	features := make([]quota.Feature, 0, len(cfg.Features.StartupAllowed))
	for _, f := range cfg.Features.StartupAllowed {
		features = append(features, quota.Feature(f))
	}
	gate := quota.NewGate(features)

	// Wire the orchestrator and HTTP surface
	orch := engine.NewOrchestrator(store, clf, trans, disp, notifier, gate, locks, cfg.Provider.RatingTemplateID, logger)
	router := webhook.NewRouter(webhook.NewHandler(orch, logger))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting webhook server", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
}
