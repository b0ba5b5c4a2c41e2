package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/EleazarRC/contabilidad-personal/internal/cli"
	"github.com/EleazarRC/contabilidad-personal/internal/config"
	applog "github.com/EleazarRC/contabilidad-personal/internal/log"
	"github.com/EleazarRC/contabilidad-personal/internal/services"
)

var version = "dev"

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "contabilidad",
		Short:         "Personal ledger: transactions, savings, debts, budgets and forecasts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("db", "", "SQLite database path (env SQLITE_DB_PATH)")
	flags.String("log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	flags.String("log-format", "", "log format: text, json (env LOG_FORMAT)")
	_ = v.BindPFlag(config.KeySQLiteDBPath, flags.Lookup("db"))
	_ = v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = v.BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))

	root.AddCommand(
		serveCmd(v),
		migrateCmd(v),
		resetCmd(v),
		exportCmd(v),
		statsCmd(v),
	)
	return root
}

func main() {
	cli.LoadEnvFile()

	if err := newRootCmd(config.NewViper()).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openLedger builds a service without an event publisher for one-shot
// admin commands.
func openLedger(v *viper.Viper) (*config.Config, *applog.Logger, *services.LedgerService, error) {
	cfg := config.FromViper(v)
	logger, err := cli.LoadAndValidateConfig(cfg, applog.ComponentApp)
	if err != nil {
		return nil, nil, nil, err
	}
	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, services.NewLedgerService(repo, nil), nil
}
