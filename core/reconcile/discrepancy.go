package reconcile

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a discrepancy. The set is closed.
type Kind string

const (
	KindAmountMismatch            Kind = "Amount Mismatch"
	KindResponseCodeMismatch      Kind = "Response Code Mismatch"
	KindAuthorizationCodeMismatch Kind = "Authorization Code Mismatch"
	KindTransactionDateMismatch   Kind = "Transaction Date Mismatch"
	KindRRNMismatch               Kind = "RRN Mismatch"
	KindTransactionTypeMismatch   Kind = "Transaction Type Mismatch"
	KindMissingInDatabase         Kind = "Missing in Database"
	KindMissingInNetwork          Kind = "Missing in Network"
	KindMissingInFile             Kind = "Missing in File"
	KindDuplicateTransaction      Kind = "Duplicate Transaction"
	KindProcessingError           Kind = "Processing Error"
)

// Kinds lists every discrepancy kind in reporting order.
var Kinds = []Kind{
	KindAmountMismatch,
	KindResponseCodeMismatch,
	KindAuthorizationCodeMismatch,
	KindTransactionDateMismatch,
	KindRRNMismatch,
	KindTransactionTypeMismatch,
	KindMissingInDatabase,
	KindMissingInNetwork,
	KindMissingInFile,
	KindDuplicateTransaction,
	KindProcessingError,
}

// Valid reports whether k belongs to the closed set.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Discrepancy is one detected difference or absence for a transaction id.
// Values are created once and never mutated.
type Discrepancy struct {
	TransactionID string           `json:"transaction_id" yaml:"transaction_id"`
	Kind          Kind             `json:"kind" yaml:"kind"`
	SourceAmount  *decimal.Decimal `json:"source_amount,omitempty" yaml:"source_amount,omitempty"`
	TargetAmount  *decimal.Decimal `json:"target_amount,omitempty" yaml:"target_amount,omitempty"`
	Detail        string           `json:"detail,omitempty" yaml:"detail,omitempty"`
	CreatedAt     time.Time        `json:"created_at" yaml:"created_at"`
}

// NewDiscrepancy creates a discrepancy without amounts.
func NewDiscrepancy(id string, kind Kind) Discrepancy {
	return Discrepancy{TransactionID: id, Kind: kind, CreatedAt: time.Now()}
}

// NewAmountMismatch creates an Amount Mismatch carrying both sides.
func NewAmountMismatch(id string, source, target decimal.Decimal) Discrepancy {
	d := NewDiscrepancy(id, KindAmountMismatch)
	d.SourceAmount = &source
	d.TargetAmount = &target
	return d
}

// NewProcessingError creates a Processing Error carrying the failure message.
func NewProcessingError(id string, err error) Discrepancy {
	d := NewDiscrepancy(id, KindProcessingError)
	if err != nil {
		d.Detail = err.Error()
	}
	return d
}

// Difference returns source minus target when both amounts are present.
func (d Discrepancy) Difference() (decimal.Decimal, bool) {
	if d.SourceAmount == nil || d.TargetAmount == nil {
		return decimal.Zero, false
	}
	return d.SourceAmount.Sub(*d.TargetAmount), true
}

// Label is the display form of the discrepancy type, including the failure
// message for processing errors.
func (d Discrepancy) Label() string {
	if d.Kind == KindProcessingError && d.Detail != "" {
		return string(d.Kind) + ": " + d.Detail
	}
	return string(d.Kind)
}

// CountByKind tallies discrepancies per kind.
func CountByKind(ds []Discrepancy) map[Kind]int {
	out := make(map[Kind]int)
	for _, d := range ds {
		out[d.Kind]++
	}
	return out
}
