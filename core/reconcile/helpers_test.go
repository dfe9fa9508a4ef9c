package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// testRecord builds a complete record with sensible defaults.
func testRecord(id, amount string) TransactionRecord {
	fields := make([]string, FieldCount)
	fields[ColTransactionType] = "PURCHASE"
	fields[ColTransactionID] = id
	fields[ColCardNumber] = "4111111111111111"
	fields[ColAmount] = amount
	fields[ColStan] = "123456"
	fields[ColCurrencyCode] = "USD"
	fields[ColTransactionDate] = "2024-03-01"
	fields[ColTransactionTime] = "10:00:00"
	fields[ColResponseCode] = "00"
	fields[ColAuthorizationCode] = "A1B2C3"
	fields[ColMerchantName] = "ACME"
	fields[ColRRN] = "RRN-" + id
	return RecordFromFields(fields)
}

func testRecords(n int) []TransactionRecord {
	out := make([]TransactionRecord, n)
	for i := range out {
		out[i] = testRecord(fmt.Sprintf("TXN%06d", i), fmt.Sprintf("%d.%02d", 10+i%90, i%100))
	}
	return out
}

// writeFeed writes a feed file with a header, the given records and any
// extra raw lines appended at the end.
func writeFeed(t *testing.T, records []TransactionRecord, extra ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(FormatHeader(","))
	b.WriteString("\n")
	for _, r := range records {
		b.WriteString(FormatLine(r, ","))
		b.WriteString("\n")
	}
	for _, line := range extra {
		b.WriteString(line)
		b.WriteString("\n")
	}
	path := filepath.Join(t.TempDir(), "extract.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

// memGateway is an in-memory ledger.
type memGateway struct {
	mu      sync.Mutex
	records []TransactionRecord
	calls   int
}

func newMemGateway(records []TransactionRecord) *memGateway {
	return &memGateway{records: records}
}

func (g *memGateway) FindByID(_ context.Context, id string) (*TransactionRecord, error) {
	for _, r := range g.records {
		if r.TransactionID == id {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

func (g *memGateway) FindByIDs(_ context.Context, ids []string) ([]TransactionRecord, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []TransactionRecord
	for _, r := range g.records {
		if _, ok := want[r.TransactionID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (g *memGateway) FindAll(_ context.Context) ([]TransactionRecord, error) {
	return g.records, nil
}

// mockGateway is a testify mock of Gateway.
type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) FindByID(ctx context.Context, id string) (*TransactionRecord, error) {
	args := m.Called(ctx, id)
	rec, _ := args.Get(0).(*TransactionRecord)
	return rec, args.Error(1)
}

func (m *mockGateway) FindByIDs(ctx context.Context, ids []string) ([]TransactionRecord, error) {
	args := m.Called(ctx, ids)
	recs, _ := args.Get(0).([]TransactionRecord)
	return recs, args.Error(1)
}

func (m *mockGateway) FindAll(ctx context.Context) ([]TransactionRecord, error) {
	args := m.Called(ctx)
	recs, _ := args.Get(0).([]TransactionRecord)
	return recs, args.Error(1)
}

// mockSink is a testify mock of Sink.
type mockSink struct {
	mock.Mock
}

func (m *mockSink) Render(ctx context.Context, report *Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *mockSink) Target() string {
	return "report.xlsx"
}

func kinds(ds []Discrepancy) []Kind {
	out := make([]Kind, len(ds))
	for i, d := range ds {
		out[i] = d.Kind
	}
	return out
}

func idsOf(ds []Discrepancy, kind Kind) []string {
	var out []string
	for _, d := range ds {
		if d.Kind == kind {
			out = append(out, d.TransactionID)
		}
	}
	return out
}
