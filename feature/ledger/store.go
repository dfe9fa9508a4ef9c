package ledger

import (
	"context"
	"errors"
	"fmt"

	"ledger-recon/core/database"
	"ledger-recon/core/reconcile"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// MaxIDsPerQuery bounds the IN list of a single lookup.
	MaxIDsPerQuery = 1000

	// insertBatch keeps the bound parameters of one upsert under the
	// SQLite limit.
	insertBatch = 200
)

// Store is the gorm-backed ledger gateway.
type Store struct {
	db        *gorm.DB
	logger    *zap.Logger
	scanBatch int
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger, scanBatch: MaxIDsPerQuery}
}

var _ reconcile.Gateway = (*Store)(nil)

// FindByID implements reconcile.Gateway.
func (s *Store) FindByID(ctx context.Context, id string) (*reconcile.TransactionRecord, error) {
	var row Transaction
	err := s.db.WithContext(ctx).Where("transaction_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction %s: %w", id, err)
	}
	rec := row.ToRecord()
	return &rec, nil
}

// FindByIDs implements reconcile.Gateway. Batches larger than
// MaxIDsPerQuery are split into several IN queries.
func (s *Store) FindByIDs(ctx context.Context, ids []string) ([]reconcile.TransactionRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out := make([]reconcile.TransactionRecord, 0, len(ids))
	for start := 0; start < len(ids); start += MaxIDsPerQuery {
		chunk := ids[start:min(start+MaxIDsPerQuery, len(ids))]
		var rows []Transaction
		if err := s.db.WithContext(ctx).Where("transaction_id IN ?", chunk).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("find %d transactions: %w", len(chunk), err)
		}
		for _, row := range rows {
			out = append(out, row.ToRecord())
		}
	}
	return out, nil
}

// FindAll implements reconcile.Gateway. Rows are read in primary key order,
// batch by batch.
func (s *Store) FindAll(ctx context.Context) ([]reconcile.TransactionRecord, error) {
	var (
		rows []Transaction
		out  []reconcile.TransactionRecord
	)
	result := s.db.WithContext(ctx).FindInBatches(&rows, s.scanBatch, func(tx *gorm.DB, batch int) error {
		for _, row := range rows {
			out = append(out, row.ToRecord())
		}
		s.logger.Debug("Ledger batch loaded", zap.Int("batch", batch), zap.Int("rows", len(rows)))
		return nil
	})
	if result.Error != nil {
		return nil, fmt.Errorf("scan ledger: %w", result.Error)
	}
	return out, nil
}

// SaveBatch upserts records by transaction id.
func (s *Store) SaveBatch(ctx context.Context, records []reconcile.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]Transaction, len(records))
	for i, r := range records {
		rows[i] = FromRecord(r)
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		UpdateAll: true,
	}).CreateInBatches(rows, insertBatch).Error
	if err != nil {
		return fmt.Errorf("save %d transactions: %w", len(rows), err)
	}
	return nil
}

// Count returns the number of ledger rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Transaction{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// Migrate creates or updates the ledger table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&Transaction{}); err != nil {
		return fmt.Errorf("migrate %s: %w", TableName, err)
	}
	return nil
}

// VerifySchema returns the extract columns missing from the ledger table.
func (s *Store) VerifySchema() ([]string, error) {
	missing, err := database.MissingColumns(s.db, TableName, ColumnNames())
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		s.logger.Warn("Ledger table is missing columns", zap.Strings("columns", missing))
	}
	return missing, nil
}
