// Package cli provides common process bootstrap utilities shared by the
// contabilidad server, its admin commands and the sheets worker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/EleazarRC/contabilidad-personal/internal/amqp"
	"github.com/EleazarRC/contabilidad-personal/internal/config"
	applog "github.com/EleazarRC/contabilidad-personal/internal/log"
	"github.com/EleazarRC/contabilidad-personal/internal/services"
	"github.com/EleazarRC/contabilidad-personal/internal/sheets"
	gsheet "github.com/EleazarRC/contabilidad-personal/internal/sheets/google"
	"github.com/EleazarRC/contabilidad-personal/internal/sheets/memory"
	"github.com/EleazarRC/contabilidad-personal/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger installs the process logger described by cfg.
func SetupLogger(cfg *config.Config, component string) (*applog.Logger, error) {
	logger, err := applog.Setup(cfg.LogLevel, cfg.LogFormat, component)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	return logger, nil
}

// LoadAndValidateConfig validates cfg and sets up logging for component.
func LoadAndValidateConfig(cfg *config.Config, component string) (*applog.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return SetupLogger(cfg, component)
}

// InitSQLite opens the repository at dbPath, running pending migrations.
func InitSQLite(logger *applog.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		return nil, err
	}
	return repo, nil
}

// NewPublisher connects to the broker when AMQP_URL is set. Without a URL
// it returns nil and the service runs without events.
func NewPublisher(logger *applog.Logger, cfg *config.Config) (services.EventPublisher, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPPrefetch)
	if err != nil {
		return nil, fmt.Errorf("connect AMQP: %w", err)
	}
	logger.Info("AMQP publisher connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, nil
}

// NewMirror builds the spreadsheet backend selected by SHEETS_BACKEND.
func NewMirror(ctx context.Context, logger *applog.Logger, cfg *config.Config) (sheets.Mirror, error) {
	switch cfg.SheetsBackend {
	case "google":
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
		}
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		return client, nil
	case "memory", "":
		logger.Info("Using in-memory sheets mirror")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown sheets backend %q", cfg.SheetsBackend)
	}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// IsShutdown reports whether err only signals a requested shutdown.
func IsShutdown(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

// CloseQuietly closes c, logging rather than returning a failure.
func CloseQuietly(name string, c interface{ Close() error }) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("Close failed", "resource", name, "error", err)
	}
}
