package reconciliation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ledger-recon/core/reconcile"

	"github.com/stretchr/testify/require"
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
	fields[reconcile.ColAuthorizationCode] = "A1B2C3"
	fields[reconcile.ColRRN] = "RRN-" + id
	return reconcile.RecordFromFields(fields)
}

func testRecords(n int) []reconcile.TransactionRecord {
	out := make([]reconcile.TransactionRecord, n)
	for i := range out {
		out[i] = testRecord(fmt.Sprintf("TXN%04d", i), "10.00")
	}
	return out
}

func feedContent(records []reconcile.TransactionRecord) string {
	var b strings.Builder
	b.WriteString(reconcile.FormatHeader(","))
	b.WriteString("\n")
	for _, r := range records {
		b.WriteString(reconcile.FormatLine(r, ","))
		b.WriteString("\n")
	}
	return b.String()
}

func writeFeed(t *testing.T, records []reconcile.TransactionRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "extract.csv")
	require.NoError(t, os.WriteFile(path, []byte(feedContent(records)), 0o644))
	return path
}

// stubGateway serves ledger records from memory. When release is set,
// bulk lookups block until it is closed.
type stubGateway struct {
	records map[string]reconcile.TransactionRecord
	order   []string
	release chan struct{}
}

func newStubGateway(records []reconcile.TransactionRecord) *stubGateway {
	g := &stubGateway{records: make(map[string]reconcile.TransactionRecord)}
	for _, r := range records {
		g.records[r.TransactionID] = r
		g.order = append(g.order, r.TransactionID)
	}
	return g
}

func (g *stubGateway) FindByID(_ context.Context, id string) (*reconcile.TransactionRecord, error) {
	r, ok := g.records[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (g *stubGateway) FindByIDs(ctx context.Context, ids []string) ([]reconcile.TransactionRecord, error) {
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	var out []reconcile.TransactionRecord
	for _, id := range ids {
		if r, ok := g.records[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (g *stubGateway) FindAll(context.Context) ([]reconcile.TransactionRecord, error) {
	out := make([]reconcile.TransactionRecord, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.records[id])
	}
	return out, nil
}
