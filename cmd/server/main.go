package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hitbot-agency/suno-downloader/api"
	"github.com/hitbot-agency/suno-downloader/internal/app"
	"github.com/hitbot-agency/suno-downloader/internal/domain"
	"github.com/hitbot-agency/suno-downloader/internal/infrastructure"
	"github.com/hitbot-agency/suno-downloader/pkg/logger"
)

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting suno-downloader server",
		zap.String("version", api.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.Int("max_concurrent_jobs", config.Download.MaxConcurrentJobs))

	if err := createDirectories(config); err != nil {
		log.Fatal("Failed to create directories", zap.Error(err))
	}

	// Initialize ledger
	ledger, err := infrastructure.NewSQLiteLedger(config.Ledger.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize ledger", zap.Error(err))
	}
	defer ledger.Close()

	// Initialize source adapter and notifier
	source := infrastructure.NewSunoSource(&config.Source, log)
	notifier := infrastructure.NewNotificationService(&config.Notification, log)

	// Initialize job execution
	registry := infrastructure.NewMemoryJobRegistry()
	pipeline := app.NewFetchPipeline(source, &config.Download, log)
	packager := infrastructure.NewZipPackager(log)

	controller := app.NewJobController(
		registry,
		source,
		ledger,
		packager,
		pipeline,
		notifier,
		config,
		log,
		func(jobID string) domain.ProgressReporter {
			return infrastructure.NewFileProgressReporter(config.Download.BaseDir, jobID)
		},
	)

	// Setup HTTP router
	router := api.SetupRouter(controller, ledger, log)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Stop job tasks and wait for them to observe cancellation.
	controller.Close()

	log.Info("Server exited")
}

func createDirectories(config *domain.Config) error {
	dirs := []string{
		config.Download.BaseDir,
		filepath.Dir(config.Ledger.DatabasePath),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
