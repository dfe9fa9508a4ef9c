package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ledger-recon/core/database"
	"ledger-recon/core/reconcile"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func testRecord(id, amount string) reconcile.TransactionRecord {
	fields := make([]string, reconcile.FieldCount)
	fields[reconcile.ColTransactionType] = "PURCHASE"
	fields[reconcile.ColTransactionID] = id
	fields[reconcile.ColAmount] = amount
	fields[reconcile.ColCurrencyCode] = "USD"
	fields[reconcile.ColTransactionDate] = "2024-03-01"
	fields[reconcile.ColTransactionTime] = "10:00:00"
	fields[reconcile.ColResponseCode] = "00"
	fields[reconcile.ColMerchantName] = "ACME"
	fields[reconcile.ColNarrative] = "groceries"
	return reconcile.RecordFromFields(fields)
}

func setupStore(t *testing.T) *Store {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	store := NewStore(db, nil)
	require.NoError(t, store.Migrate())
	return store
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestTransaction_RoundTrip(t *testing.T) {
	rec := testRecord("T1", "12.50")
	row := FromRecord(rec)

	assert.Equal(t, "T1", row.TransactionID)
	assert.Equal(t, "ACME", row.MerchantName)
	assert.Equal(t, "groceries", row.Narrative)
	assert.Equal(t, rec.Fields(), row.ToRecord().Fields())
	assert.Len(t, ColumnNames(), reconcile.FieldCount)
}

func TestStore_FindByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveBatch(ctx, []reconcile.TransactionRecord{testRecord("T1", "10.00")}))

	rec, err := store.FindByID(ctx, "T1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "10.00", rec.Amount)
	assert.Equal(t, "ACME", rec.Extra["merchantName"])

	rec, err = store.FindByID(ctx, "absent")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStore_FindByIDs_Chunked(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	records := make([]reconcile.TransactionRecord, 1500)
	ids := make([]string, 0, 1501)
	for i := range records {
		records[i] = testRecord(fmt.Sprintf("TXN%06d", i), "1.00")
		ids = append(ids, records[i].TransactionID)
	}
	require.NoError(t, store.SaveBatch(ctx, records))

	found, err := store.FindByIDs(ctx, append(ids, "absent"))
	require.NoError(t, err)
	assert.Len(t, found, 1500)

	found, err = store.FindByIDs(ctx, nil)
	assert.NoError(t, err)
	assert.Empty(t, found)
}

func TestStore_FindAll(t *testing.T) {
	store := setupStore(t)
	store.scanBatch = 7
	ctx := context.Background()

	records := make([]reconcile.TransactionRecord, 20)
	for i := range records {
		records[i] = testRecord(fmt.Sprintf("L%02d", i), "2.00")
	}
	require.NoError(t, store.SaveBatch(ctx, records))

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 20)
	assert.Equal(t, "L00", all[0].TransactionID)
	assert.Equal(t, "L19", all[19].TransactionID)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20), n)
}

func TestStore_SaveBatch_Upserts(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBatch(ctx, []reconcile.TransactionRecord{testRecord("T1", "1.00")}))
	require.NoError(t, store.SaveBatch(ctx, []reconcile.TransactionRecord{testRecord("T1", "2.00")}))

	rec, err := store.FindByID(ctx, "T1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "2.00", rec.Amount)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_VerifySchema(t *testing.T) {
	store := setupStore(t)

	missing, err := store.VerifySchema()
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestStore_QueryErrors(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()
	boom := errors.New("connection reset")

	mock.ExpectQuery("SELECT \\* FROM `visa_base2_transactions`").WillReturnError(boom)
	_, err := store.FindByID(ctx, "T1")
	assert.ErrorIs(t, err, boom)

	mock.ExpectQuery("SELECT \\* FROM `visa_base2_transactions`").WillReturnError(boom)
	_, err = store.FindByIDs(ctx, []string{"T1", "T2"})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "find 2 transactions")

	mock.ExpectQuery("SELECT \\* FROM `visa_base2_transactions`").WillReturnError(boom)
	_, err = store.FindAll(ctx)
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}
