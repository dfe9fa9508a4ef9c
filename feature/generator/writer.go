package generator

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ledger-recon/core/reconcile"

	"go.uber.org/zap"
)

// SeedBatchSize is the number of ledger rows saved per call.
const SeedBatchSize = 1000

// Seeder persists ledger records.
type Seeder interface {
	SaveBatch(ctx context.Context, records []reconcile.TransactionRecord) error
}

// WriteFeed writes records as a delimited extract with a header line.
func WriteFeed(path string, records []reconcile.TransactionRecord, delimiter string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create feed: %w", err)
	}

	w := bufio.NewWriterSize(fh, 64*1024)
	_, err = fmt.Fprintln(w, reconcile.FormatHeader(delimiter))
	for i := 0; err == nil && i < len(records); i++ {
		_, err = fmt.Fprintln(w, reconcile.FormatLine(records[i], delimiter))
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := fh.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write feed %s: %w", path, err)
	}
	return nil
}

// Seed saves records in batches of SeedBatchSize.
func Seed(ctx context.Context, seeder Seeder, records []reconcile.TransactionRecord, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for start := 0; start < len(records); start += SeedBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+SeedBatchSize, len(records))
		if err := seeder.SaveBatch(ctx, records[start:end]); err != nil {
			return fmt.Errorf("seed rows %d-%d: %w", start, end, err)
		}
		logger.Debug("Ledger batch seeded", zap.Int("rows", end))
	}
	logger.Info("Ledger seeded", zap.Int("rows", len(records)))
	return nil
}
