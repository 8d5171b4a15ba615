package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rewired-gh/fixtureverify/internal/config"
	"github.com/rewired-gh/fixtureverify/internal/logger"
	"github.com/rewired-gh/fixtureverify/internal/storage"
	"github.com/rewired-gh/fixtureverify/internal/telegram"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	envPath    = flag.String("env", ".env", "Optional .env file loaded before the environment is read")
)

func main() {
	flag.Parse()

	// Optional .env; a missing file is normal outside development
	if err := godotenv.Load(*envPath); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load %s: %v", *envPath, err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup logging with level support
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	// Initialize history storage
	history, err := storage.NewHistoryStore(
		cfg.Storage.HistoryBackend,
		cfg.Storage.HistoryPath,
		cfg.Storage.FilePermissions,
		cfg.Storage.DirPermissions,
	)
	if err != nil {
		logger.Fatal("Failed to initialize history storage: %v", err)
	}
	closeHistory := func() {
		if err := history.Close(); err != nil {
			logger.Error("Failed to close history storage: %v", err)
		}
	}
	defer closeHistory()

	// Initialize Telegram client
	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	r := newRunner(cfg, history, telegramClient)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	logger.Info("Starting verification (interval: %v, deadline: %v, web_search: %v, budget: %d, apply_corrections: %v)",
		cfg.Run.Interval,
		cfg.Verify.Deadline,
		cfg.Verify.WebSearchEnabled,
		cfg.Verify.WebSearchBudget,
		cfg.Verify.ApplyCorrections,
	)

	consecutiveFailures := 0

	handleRunResult := func(err error) {
		if err != nil {
			consecutiveFailures++
			logger.Error("Verification run failed: %v", err)
			if consecutiveFailures == 1 && telegramClient != nil {
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
				}
			}
		} else {
			if consecutiveFailures > 0 && telegramClient != nil {
				if sendErr := telegramClient.SendRecovery(consecutiveFailures); sendErr != nil {
					logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
				}
			}
			consecutiveFailures = 0
		}
	}

	// Run once immediately
	handleRunResult(r.run(ctx, time.Now()))

	if cfg.Run.Interval <= 0 {
		if consecutiveFailures > 0 {
			// os.Exit skips deferred calls
			closeHistory()
			os.Exit(1)
		}
		return
	}

	ticker := time.NewTicker(cfg.Run.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Service stopped")
			return

		case tickTime := <-ticker.C:
			logger.Debug("Starting scheduled verification run")
			handleRunResult(r.run(ctx, tickTime))
		}
	}
}
