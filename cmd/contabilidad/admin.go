package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/EleazarRC/contabilidad-personal/internal/cli"
	"github.com/EleazarRC/contabilidad-personal/internal/config"
	"github.com/EleazarRC/contabilidad-personal/internal/export"
	applog "github.com/EleazarRC/contabilidad-personal/internal/log"
	"github.com/EleazarRC/contabilidad-personal/internal/services"
	"github.com/EleazarRC/contabilidad-personal/internal/storage"
)

func migrateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromViper(v)
			logger, err := cli.LoadAndValidateConfig(cfg, applog.ComponentStorage)
			if err != nil {
				return err
			}
			dsn := storage.DSN(cfg.SQLiteDBPath)
			if err := storage.RunMigrations(dsn); err != nil {
				return err
			}
			version, dirty, err := storage.MigrationVersion(dsn)
			if err != nil {
				return err
			}
			logger.Info("Migrations applied", "version", version, "dirty", dirty)
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromViper(v)
			if err := cfg.Validate(); err != nil {
				return err
			}
			version, dirty, err := storage.MigrationVersion(storage.DSN(cfg.SQLiteDBPath))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
			return nil
		},
	})
	return cmd
}

func resetCmd(v *viper.Viper) *cobra.Command {
	var confirm string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all ledger data, keeping the default categories",
		Long: fmt.Sprintf(`Delete every transaction, forecast, savings account, debt and budget,
plus user-created categories, and restart the id sequences.

Requires --confirm %s.`, services.DeleteAllConfirmation),
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, ledger, err := openLedger(v)
			if err != nil {
				return err
			}
			defer cli.CloseQuietly("ledger", ledger)

			res, err := ledger.DeleteAllData(cmd.Context(), confirm)
			if err != nil {
				return err
			}
			logger.Warn("All ledger data deleted", "transactions", res.Transactions, "forecasts", res.Forecasts)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TABLE\tDELETED")
			for _, row := range []struct {
				name string
				n    int64
			}{
				{"transactions", res.Transactions},
				{"forecasts", res.Forecasts},
				{"categories", res.Categories},
				{"savings_accounts", res.SavingsAccounts},
				{"savings_movements", res.SavingsMovements},
				{"debts", res.Debts},
				{"debt_payments", res.DebtPayments},
				{"budgets", res.Budgets},
			} {
				fmt.Fprintf(w, "%s\t%d\n", row.name, row.n)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&confirm, "confirm", "", "confirmation token")
	return cmd
}

func exportCmd(v *viper.Viper) *cobra.Command {
	var (
		year int
		out  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the annual summary and movements to an xlsx workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, ledger, err := openLedger(v)
			if err != nil {
				return err
			}
			defer cli.CloseQuietly("ledger", ledger)

			if out == "" {
				out = export.Filename(year)
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := ledger.ExportAnnual(cmd.Context(), year, f); err != nil {
				f.Close()
				os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}
			logger.Info("Annual report exported", "year", year, "path", out)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "year to export")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default contabilidad_<year>.xlsx)")
	return cmd
}

func statsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print row counts of the main tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, ledger, err := openLedger(v)
			if err != nil {
				return err
			}
			defer cli.CloseQuietly("ledger", ledger)

			stats, err := ledger.DataStats(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TABLE\tROWS")
			fmt.Fprintf(w, "transactions\t%d\n", stats.Transactions)
			fmt.Fprintf(w, "forecasts\t%d\n", stats.Forecasts)
			fmt.Fprintf(w, "categories\t%d\n", stats.Categories)
			fmt.Fprintf(w, "savings_accounts\t%d\n", stats.SavingsAccounts)
			fmt.Fprintf(w, "debts\t%d\n", stats.Debts)
			fmt.Fprintf(w, "budgets\t%d\n", stats.Budgets)
			return w.Flush()
		},
	}
}
