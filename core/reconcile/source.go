package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// PassStats counts what one pass over a feed saw.
type PassStats struct {
	Emitted   int64
	Malformed int64
}

// RecordSource is a finite, restartable sequence of records. Each call to
// Each or Batches is an independent pass over the same logical content.
type RecordSource interface {
	// Validate checks the source can be read.
	Validate() error

	// Each calls fn once per parsed record.
	Each(ctx context.Context, fn func(TransactionRecord) error) (PassStats, error)

	// Batches calls fn with consecutive groups of at most size records.
	// Every parsed record appears in exactly one batch.
	Batches(ctx context.Context, size int, fn func([]TransactionRecord) error) (PassStats, error)
}

// FileSource streams a feed file through a Format. Nothing is read until a
// pass starts.
type FileSource struct {
	path   string
	format Format
	logger *zap.Logger
}

// Open returns a lazy source over path.
func Open(path string, format Format, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{path: path, format: format, logger: logger}
}

// Path returns the feed path.
func (s *FileSource) Path() string {
	return s.path
}

// Validate implements RecordSource.
func (s *FileSource) Validate() error {
	return s.format.Validate(s.path)
}

// Each implements RecordSource.
func (s *FileSource) Each(ctx context.Context, fn func(TransactionRecord) error) (PassStats, error) {
	return Stream(ctx, s.path, s.format, s.logger, fn)
}

// Batches implements RecordSource.
func (s *FileSource) Batches(ctx context.Context, size int, fn func([]TransactionRecord) error) (PassStats, error) {
	if size <= 0 {
		return PassStats{}, &ConfigurationError{Option: "batch_size", Message: fmt.Sprintf("must be positive, got %d", size)}
	}

	batch := make([]TransactionRecord, 0, size)
	stats, err := s.Each(ctx, func(rec TransactionRecord) error {
		batch = append(batch, rec)
		if len(batch) < size {
			return nil
		}
		full := batch
		batch = make([]TransactionRecord, 0, size)
		return fn(full)
	})
	if err != nil {
		return stats, err
	}
	if len(batch) > 0 {
		if err := fn(batch); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// Stream is the generic pipeline: it opens path, lets the format split it
// into lines and parse them, drops malformed lines and hands every record to fn.
func Stream(ctx context.Context, path string, format Format, logger *zap.Logger, fn func(TransactionRecord) error) (PassStats, error) {
	var stats PassStats

	fh, err := os.Open(path)
	if err != nil {
		return stats, fmt.Errorf("open feed %s: %w", path, err)
	}
	defer fh.Close()

	err = format.ReadLines(ctx, fh, func(lineNo int, line string) error {
		rec, err := format.Parse(lineNo, line)
		if err != nil {
			if errors.Is(err, ErrMalformedRecord) {
				stats.Malformed++
				logger.Debug("Dropped malformed line", zap.String("path", path), zap.Error(err))
				return nil
			}
			return err
		}
		stats.Emitted++
		return fn(rec)
	})
	return stats, err
}

// SliceSource serves records from memory. It is used for in-process feeds
// and tests.
type SliceSource struct {
	Records   []TransactionRecord
	Malformed int64
}

// Validate implements RecordSource.
func (s *SliceSource) Validate() error {
	return nil
}

// Each implements RecordSource.
func (s *SliceSource) Each(ctx context.Context, fn func(TransactionRecord) error) (PassStats, error) {
	stats := PassStats{Malformed: s.Malformed}
	for _, rec := range s.Records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Emitted++
		if err := fn(rec); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// Batches implements RecordSource.
func (s *SliceSource) Batches(ctx context.Context, size int, fn func([]TransactionRecord) error) (PassStats, error) {
	if size <= 0 {
		return PassStats{}, &ConfigurationError{Option: "batch_size", Message: fmt.Sprintf("must be positive, got %d", size)}
	}
	stats := PassStats{Malformed: s.Malformed}
	for start := 0; start < len(s.Records); start += size {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		end := min(start+size, len(s.Records))
		batch := make([]TransactionRecord, end-start)
		copy(batch, s.Records[start:end])
		stats.Emitted += int64(len(batch))
		if err := fn(batch); err != nil {
			return stats, err
		}
	}
	return stats, nil
}
