package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/EleazarRC/contabilidad-personal/internal/cli"
	"github.com/EleazarRC/contabilidad-personal/internal/config"
	apphttp "github.com/EleazarRC/contabilidad-personal/internal/http"
	applog "github.com/EleazarRC/contabilidad-personal/internal/log"
	"github.com/EleazarRC/contabilidad-personal/internal/services"
)

func serveCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}
	cmd.Flags().String("port", "", "listen port (env PORT)")
	_ = v.BindPFlag(config.KeyPort, cmd.Flags().Lookup("port"))
	return cmd
}

func runServe(parent context.Context, v *viper.Viper) error {
	cfg := config.FromViper(v)
	logger, err := cli.LoadAndValidateConfig(cfg, applog.ComponentApp)
	if err != nil {
		return err
	}

	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	publisher, err := cli.NewPublisher(logger, cfg)
	if err != nil {
		// events are best effort; serve without them
		logger.Error("Failed to initialize AMQP publisher, continuing without events", "error", err)
		publisher = nil
	}
	ledger := services.NewLedgerService(repo, publisher)
	defer cli.CloseQuietly("ledger", ledger)

	srv := apphttp.NewServer(cfg.Addr(), ledger, apphttp.Options{
		Logger:         logger.WithComponent(applog.ComponentHTTP),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	ctx, cancel := cli.SignalContext(parent, logger)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting contabilidad server",
			"port", cfg.Port,
			"db", cfg.SQLiteDBPath,
			"amqp", cfg.AMQPURL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
