package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guardian/config"
	"guardian/internal/api"
	"guardian/internal/logging"
	"guardian/internal/notify"
	"guardian/internal/policy"
	"guardian/internal/scheduler"
	"guardian/internal/storage"
	"guardian/internal/storage/bolt"
	"guardian/internal/storage/sqlite"

	"github.com/joho/godotenv"
)

const (
	shutdownTimeout   = 10 * time.Second
	defaultConfigPath = "config.json"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Parse command-line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	useEnv := flag.Bool("env", false, "Load configuration from environment variables")
	flag.Parse()

	// Load .env if present; environment wins over file values
	_ = godotenv.Load()

	// Load configuration
	var cfg *config.Config
	var err error

	if *useEnv {
		cfg, err = config.LoadFromEnv()
	} else {
		cfg, err = config.Load(*configPath)
	}

	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(logging.LoggerConfig{
		Format: cfg.Logging.Format,
		Level:  logging.ParseLevel(cfg.Logging.Level),
		File:   cfg.Logging.File,
	})

	logger.Info("Starting Guardian",
		"storage_driver", cfg.Storage.Driver,
		"storage_path", cfg.Storage.Path,
	)

	// Initialize storage backend
	var store storage.Store
	switch cfg.Storage.Driver {
	case "bolt":
		store, err = bolt.Open(cfg.Storage.Path)
	default:
		store, err = sqlite.New(cfg.Storage.Path)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	// Initialize policy engine
	engine := logging.NewEngineLogger(
		policy.NewEngine(store, policy.RealClock{}, logger),
		logger,
	)

	// Start the policy clock
	tickInterval := scheduler.DefaultTickInterval
	if cfg.Engine.TickIntervalSeconds > 0 {
		tickInterval = time.Duration(cfg.Engine.TickIntervalSeconds) * time.Second
	}

	clock := scheduler.NewPolicyClock(engine, tickInterval, logger)

	// Wire the optional Telegram notifier
	if cfg.Telegram.Enabled() {
		notifier, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize telegram notifier: %w", err)
		}
		clock.Subscribe(notifier.NotifyVerdict)
	}

	clock.Start()
	defer clock.Stop()

	// Initialize REST API
	router := api.NewRouter(api.RouterConfig{
		Engine: engine,
		APIKey: cfg.Security.APIKey,
		Logger: logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
		)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("Received signal, starting graceful shutdown", "signal", sig.String())

		clock.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		logger.Info("Graceful shutdown complete")
	}

	return nil
}
