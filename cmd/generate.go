package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"ledger-recon/core/config"
	"ledger-recon/feature/generator"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	genFile           string
	genRecords        int
	genSeedLedger     bool
	genMismatchRate   float64
	genDropRate       float64
	genDropLedgerRate float64
	genDate           string
	genSeed           uint64
	yesConfirm        bool
)

// generateCmd writes a synthetic extract and optionally seeds the ledger.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic extract and ledger rows",
	Long: `Generates a synthetic 42-column extract. With --seed-ledger the same
transactions are upserted into the ledger, so a following 'reconcile run'
reports exactly the planted differences.

Examples:
  # 100k records, feed only
  generate --file extract.csv --records 100000

  # Seed the ledger with 2% perturbed amounts and 1% rows missing on each side
  generate --file extract.csv --records 10000 --seed-ledger \
    --mismatch-rate 0.02 --drop-rate 0.01 --drop-ledger-rate 0.01 --yes`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genFile, "file", "extract.csv", "Feed file to write")
	generateCmd.Flags().IntVar(&genRecords, "records", 1000, "Number of transactions")
	generateCmd.Flags().BoolVar(&genSeedLedger, "seed-ledger", false, "Upsert the transactions into the ledger table")
	generateCmd.Flags().Float64Var(&genMismatchRate, "mismatch-rate", 0, "Share of ledger rows with a perturbed amount")
	generateCmd.Flags().Float64Var(&genDropRate, "drop-rate", 0, "Share of transactions left out of the feed")
	generateCmd.Flags().Float64Var(&genDropLedgerRate, "drop-ledger-rate", 0, "Share of transactions left out of the ledger")
	generateCmd.Flags().StringVar(&genDate, "date", "", "Business date (YYYY-MM-DD); defaults to today")
	generateCmd.Flags().Uint64Var(&genSeed, "seed", uint64(time.Now().UnixNano()), "Random seed")
	generateCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm ledger writes (non-interactive)")

	RootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	opts := generator.Options{
		Records:        genRecords,
		MismatchRate:   genMismatchRate,
		DropFileRate:   genDropRate,
		DropLedgerRate: genDropLedgerRate,
		Seed:           genSeed,
	}
	if genDate != "" {
		date, err := time.Parse("2006-01-02", genDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		opts.Date = date
	}

	ds, err := generator.Generate(opts)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := generator.WriteFeed(genFile, ds.File, cfg.Reconcile.Delimiter); err != nil {
		return err
	}

	rows := [][]string{
		{"feed", genFile},
		{"feed records", count(int64(len(ds.File)))},
		{"ledger records", count(int64(len(ds.Ledger)))},
		{"perturbed amounts", count(int64(len(ds.Perturbed)))},
		{"only in ledger", count(int64(len(ds.OnlyInLedger)))},
		{"only in feed", count(int64(len(ds.OnlyInFile)))},
	}
	if err := renderTable(os.Stdout, []string{"generated", "value"}, rows); err != nil {
		return err
	}

	if !genSeedLedger {
		return nil
	}
	if !confirmDestructiveAction() {
		fmt.Println("Ledger left untouched.")
		return nil
	}

	store, l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Sync()

	if err := store.Migrate(); err != nil {
		return err
	}
	if err := generator.Seed(cmd.Context(), store, ds.Ledger, l); err != nil {
		return err
	}
	l.Info("Synthetic data ready", zap.String("feed", genFile), zap.Int("ledger_rows", len(ds.Ledger)))
	return nil
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\nAuto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\nExisting ledger rows with the same ids will be overwritten. Type 'yes' to continue: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
