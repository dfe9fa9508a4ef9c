package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ledger-recon/core/config"
	"ledger-recon/core/database"
	"ledger-recon/core/logger"
	"ledger-recon/core/reconcile"
	"ledger-recon/core/storage"
	"ledger-recon/feature/ledger"
	"ledger-recon/feature/reconciliation"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for reconcile run
	runFile      string
	runReport    string
	runBatchSize int
	runWorkers   int
	runOutput    string

	// Flags for reconcile match
	matchSource    string
	matchTarget    string
	matchFuzzy     bool
	matchThreshold float64
)

// reconcileCmd is the parent command for all reconcile operations.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile transaction extracts against the ledger",
	Long: `Reconcile transaction extracts to detect missing transactions,
duplicates and field mismatches between the network feed and the ledger.`,
}

// reconcileRunCmd performs one synchronous two-way reconciliation.
var reconcileRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a two-way reconciliation of a feed against the ledger",
	Long: `Reads the feed, compares every record with the ledger (file to ledger),
then lists ledger records absent from the feed (ledger to file), and writes the
report. The report format follows the extension: .xlsx, .csv, .json or .yaml.

Ctrl-C stops scheduling new batches; batches already running complete.

Examples:
  # Reconcile a local extract with the configured defaults
  reconcile run --file extract.csv

  # Read the feed from object storage and upload the workbook
  reconcile run --file s3://feeds/2025-03-23.csv --report s3://reports/2025-03-23.xlsx

  # Smaller batches, more workers
  reconcile run --file extract.csv --batch-size 200 --workers 8`,
	RunE: runReconcile,
}

// reconcileMatchCmd matches two extracts in memory.
var reconcileMatchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a switch extract against a network extract in memory",
	Long: `Loads both extracts, pairs records on id, time and amount, and optionally
pairs the leftovers by fuzzy score. Unpaired switch records are reported as
Missing in Network, unpaired network records as Missing in Database.`,
	RunE: runMatch,
}

func init() {
	reconcileCmd.AddCommand(reconcileRunCmd)
	reconcileCmd.AddCommand(reconcileMatchCmd)

	reconcileRunCmd.Flags().StringVar(&runFile, "file", "", "Feed location (path or s3://bucket/key); defaults to reconcile.file_path")
	reconcileRunCmd.Flags().StringVar(&runReport, "report", "", "Report location; defaults to reconcile.report_path")
	reconcileRunCmd.Flags().IntVar(&runBatchSize, "batch-size", 0, "Records per ledger lookup (0 uses the configured value)")
	reconcileRunCmd.Flags().IntVar(&runWorkers, "workers", 0, "Worker pool size (0 uses the configured value)")
	reconcileRunCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Summary format: table, json or yaml (auto-detected when empty)")

	reconcileMatchCmd.Flags().StringVar(&matchSource, "source", "", "Switch extract")
	reconcileMatchCmd.Flags().StringVar(&matchTarget, "target", "", "Network extract")
	reconcileMatchCmd.Flags().BoolVar(&matchFuzzy, "fuzzy", true, "Fuzzy match records left after exact matching")
	reconcileMatchCmd.Flags().Float64Var(&matchThreshold, "threshold", 0, "Minimum fuzzy score (0 uses the configured value)")
	_ = reconcileMatchCmd.MarkFlagRequired("source")
	_ = reconcileMatchCmd.MarkFlagRequired("target")

	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	format, err := detectFormat(runOutput)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	client, err := optionalStorage(cfg, runFile, runReport)
	if err != nil {
		return err
	}

	svc := reconciliation.NewService(ledger.NewStore(db, l), client, cfg.Storage, cfg.Reconcile, l)
	defer svc.Close(context.Background())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := svc.Start(ctx, reconciliation.Request{
		FilePath:   runFile,
		ReportPath: runReport,
		BatchSize:  runBatchSize,
		Workers:    runWorkers,
	})
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-ctx.Done():
			l.Warn("Interrupt received, finishing in-flight batches", zap.String("run_id", run.Handle.ID()))
			run.Handle.Cancel()
		case <-run.Handle.Done():
		}
	}()
	<-run.Handle.Done()

	res, runErr := run.Handle.Result()
	if res != nil {
		if err := printRunSummary(os.Stdout, format, newRunSummary(res, run.Request.ReportPath)); err != nil {
			return err
		}
	}
	if errors.Is(runErr, reconcile.ErrCancelled) {
		l.Warn("Reconciliation cancelled; counters cover completed batches only")
	}
	return runErr
}

// optionalStorage connects to object storage when uploads are configured or
// any location is an s3:// URI.
func optionalStorage(cfg *config.Config, locations ...string) (storage.Client, error) {
	needed := cfg.Storage.Enabled()
	for _, loc := range locations {
		if _, _, ok := storage.ParseURI(loc); ok {
			needed = true
		}
	}
	for _, loc := range []string{cfg.Reconcile.FilePath, cfg.Reconcile.ReportPath} {
		if _, _, ok := storage.ParseURI(loc); ok {
			needed = true
		}
	}
	if !needed {
		return nil, nil
	}
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}
	return client, nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	ctx := cmd.Context()
	format := cfg.Reconcile.Format()

	switchSet, err := loadRecords(ctx, matchSource, format, l)
	if err != nil {
		return err
	}
	networkSet, err := loadRecords(ctx, matchTarget, format, l)
	if err != nil {
		return err
	}

	opts := cfg.Reconcile.Options()
	if matchThreshold != 0 {
		opts.MatchThreshold = matchThreshold
	}
	if err := opts.WithDefaults().Validate(); err != nil {
		return err
	}
	m := reconcile.NewMatcher(opts)

	var (
		pairs     []reconcile.MatchedPair
		breakdown map[reconcile.Kind]int
		summary   reconcile.MatchSummary
	)
	if matchFuzzy {
		res := reconcile.ReconcileSets(switchSet, networkSet, m)
		pairs, summary = res.Pairs, res.Summary
		breakdown = reconcile.CountByKind(res.Discrepancies)
	} else {
		res := m.ExactMatch(switchSet, networkSet)
		pairs = res.Pairs
		summary = reconcile.MatchSummary{
			SourceTotal:     len(switchSet),
			TargetTotal:     len(networkSet),
			ExactMatches:    len(res.Pairs),
			UnmatchedSource: len(res.SourceResidual),
			UnmatchedTarget: len(res.TargetResidual),
			Invalid:         len(res.Invalid),
		}
	}

	if err := reconcile.WriteMatchReport(os.Stdout, pairs); err != nil {
		return err
	}
	rows := [][]string{
		{"switch records", count(int64(summary.SourceTotal))},
		{"network records", count(int64(summary.TargetTotal))},
		{"exact matches", count(int64(summary.ExactMatches))},
		{"fuzzy matches", count(int64(summary.FuzzyMatches))},
		{"unmatched switch", count(int64(summary.UnmatchedSource))},
		{"unmatched network", count(int64(summary.UnmatchedTarget))},
		{"invalid", count(int64(summary.Invalid))},
		{"discrepancies", count(int64(summary.Discrepancies))},
	}
	if err := renderTable(os.Stdout, []string{"metric", "value"}, rows); err != nil {
		return err
	}
	return printBreakdown(os.Stdout, breakdown)
}

func loadRecords(ctx context.Context, path string, format reconcile.Format, l *zap.Logger) ([]reconcile.TransactionRecord, error) {
	src := reconcile.Open(path, format, l)
	if err := src.Validate(); err != nil {
		return nil, err
	}
	var out []reconcile.TransactionRecord
	stats, err := src.Each(ctx, func(r reconcile.TransactionRecord) error {
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	l.Info("Extract loaded", zap.String("path", path), zap.Int64("records", stats.Emitted), zap.Int64("malformed", stats.Malformed))
	return out, nil
}
