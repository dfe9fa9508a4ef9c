package cmd

import (
	"fmt"
	"os"

	"ledger-recon/core/config"
	"ledger-recon/core/database"
	"ledger-recon/core/logger"
	"ledger-recon/feature/ledger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ledgerCmd groups ledger table maintenance.
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Manage the ledger transaction table",
}

// ledgerMigrateCmd creates or updates the ledger table.
var ledgerMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the ledger table",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Sync()

		if err := store.Migrate(); err != nil {
			return err
		}
		l.Info("Ledger table migrated", zap.String("table", ledger.TableName))
		return nil
	},
}

// ledgerVerifyCmd checks the ledger table against the extract layout.
var ledgerVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that the ledger table has every extract column",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Sync()

		missing, err := store.VerifySchema()
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", ledger.TableName, err)
		}
		rows, err := store.Count(cmd.Context())
		if err != nil {
			return err
		}

		table := [][]string{
			{"table", ledger.TableName},
			{"rows", count(rows)},
			{"missing columns", count(int64(len(missing)))},
		}
		for _, col := range missing {
			table = append(table, []string{"missing", col})
		}
		if err := renderTable(os.Stdout, []string{"check", "result"}, table); err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("%s is missing %d columns; run 'ledger migrate'", ledger.TableName, len(missing))
		}
		return nil
	},
}

func init() {
	ledgerCmd.AddCommand(ledgerMigrateCmd)
	ledgerCmd.AddCommand(ledgerVerifyCmd)
	RootCmd.AddCommand(ledgerCmd)
}

func openLedger() (*ledger.Store, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return ledger.NewStore(db, l), l, nil
}
