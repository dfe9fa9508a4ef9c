package reconcile

import (
	"context"
	"errors"
)

// Gateway is read-only keyed access to the ledger.
type Gateway interface {
	// FindByID returns the ledger record for id, or nil when absent.
	FindByID(ctx context.Context, id string) (*TransactionRecord, error)

	// FindByIDs returns the ledger records whose ids are in ids, in one
	// round trip. Absent ids are simply not returned.
	FindByIDs(ctx context.Context, ids []string) ([]TransactionRecord, error)

	// FindAll returns every ledger record.
	FindAll(ctx context.Context) ([]TransactionRecord, error)
}

// Sink renders the final report of a run into an artifact.
type Sink interface {
	Render(ctx context.Context, report *Report) error
}

// Target is implemented by sinks that write to a nameable location.
type Target interface {
	Target() string
}

// RenderReport hands report to sink, wrapping any failure in a
// *ReportGenerationError. It can be called again with the same report.
func RenderReport(ctx context.Context, sink Sink, report *Report) error {
	if sink == nil {
		return &ReportGenerationError{Err: errors.New("no report sink configured")}
	}
	if report == nil {
		return &ReportGenerationError{Err: errors.New("no report to render")}
	}

	err := sink.Render(ctx, report)
	if err == nil {
		return nil
	}
	var rge *ReportGenerationError
	if errors.As(err, &rge) {
		return err
	}

	path := ""
	if t, ok := sink.(Target); ok {
		path = t.Target()
	}
	return &ReportGenerationError{Path: path, Err: err}
}
