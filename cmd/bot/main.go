package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/azure/answer-engine-bot/internal/adapters"
	"github.com/azure/answer-engine-bot/internal/config"
	"github.com/azure/answer-engine-bot/internal/lexicon"
	"github.com/azure/answer-engine-bot/internal/monitoring"
	"github.com/azure/answer-engine-bot/internal/notifications"
	"github.com/azure/answer-engine-bot/internal/scheduler"
	"github.com/azure/answer-engine-bot/internal/storage"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Infof("Starting Answer Engine Bot for %d brand(s)", len(cfg.Brands))

	ctx := context.Background()

	lex := lexicon.Default()
	if cfg.LexiconFile != "" {
		lex, err = lexicon.Load(cfg.LexiconFile)
		if err != nil {
			logrus.Fatalf("Failed to load lexicon: %v", err)
		}
	}

	repo, err := storage.NewSQLRepository(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer repo.Close()

	archive, err := newArchive(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	notificationService := notifications.NewService(cfg)
	engines := adapters.NewFromConfig(cfg)
	if len(adapters.Enabled(engines)) == 0 {
		logrus.Warn("No answer engine is configured; analysis runs will fail until an API key is set")
	}

	monitoringService := monitoring.NewService(cfg, repo, archive, notificationService, engines, lex)

	schedulerService, err := scheduler.NewService(cfg, monitoringService)
	if err != nil {
		logrus.Fatalf("Failed to create scheduler: %v", err)
	}
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      newRouter(monitoringService),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

// newArchive uses Azure Blob Storage when an account is configured and a local directory otherwise
func newArchive(ctx context.Context, cfg *config.Config) (storage.StorageInterface, error) {
	if cfg.StorageAccount != "" {
		return storage.NewAzureStorage(ctx, cfg.StorageAccount, cfg.StorageContainer)
	}
	logrus.Infof("AZURE_STORAGE_ACCOUNT not set, archiving to %s", cfg.LocalStorageDir)
	return storage.NewFileStorage(cfg.LocalStorageDir)
}
