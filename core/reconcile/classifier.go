package reconcile

import (
	"strings"
)

// Direction tells which side issued the record that has no counterpart.
type Direction int

const (
	// FileToLedger is the forward direction: a feed record absent from the ledger.
	FileToLedger Direction = iota
	// LedgerToFile is the backward direction: a ledger record absent from the feed.
	LedgerToFile
	// SwitchToNetwork is the in-memory direction: a switch record absent from the network set.
	SwitchToNetwork
)

// Compare checks a file record against its ledger counterpart. Every check
// runs; the result lists all mismatches in a fixed order. An unparsable
// amount on either side returns a *ValidationError and no discrepancies.
func Compare(file, ledger TransactionRecord) ([]Discrepancy, error) {
	src, err := file.Decimal()
	if err != nil {
		return nil, err
	}
	dst, err := ledger.Decimal()
	if err != nil {
		return nil, err
	}

	id := file.TransactionID
	var out []Discrepancy

	if !src.Equal(dst) {
		out = append(out, NewAmountMismatch(id, src, dst))
	}
	for _, check := range fieldChecks {
		if !sameField(check.get(file), check.get(ledger)) {
			d := NewDiscrepancy(id, check.kind)
			d.Detail = check.get(file) + " != " + check.get(ledger)
			out = append(out, d)
		}
	}
	return out, nil
}

var fieldChecks = []struct {
	kind Kind
	get  func(TransactionRecord) string
}{
	{KindResponseCodeMismatch, func(r TransactionRecord) string { return r.ResponseCode }},
	{KindAuthorizationCodeMismatch, func(r TransactionRecord) string { return r.AuthorizationCode }},
	{KindTransactionDateMismatch, func(r TransactionRecord) string { return r.TransactionDate }},
	{KindRRNMismatch, func(r TransactionRecord) string { return r.RRN }},
	{KindTransactionTypeMismatch, func(r TransactionRecord) string { return r.TransactionType }},
}

func sameField(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

// Missing returns the absence discrepancy for id in the given direction.
func Missing(id string, dir Direction) Discrepancy {
	switch dir {
	case LedgerToFile:
		return NewDiscrepancy(id, KindMissingInFile)
	case SwitchToNetwork:
		return NewDiscrepancy(id, KindMissingInNetwork)
	default:
		return NewDiscrepancy(id, KindMissingInDatabase)
	}
}

// DetectDuplicates returns one Duplicate Transaction per id that occurs
// more than once in records, in order of first duplication.
func DetectDuplicates(records []TransactionRecord) []Discrepancy {
	counts := make(map[string]int, len(records))
	var out []Discrepancy
	for _, r := range records {
		counts[r.TransactionID]++
		if counts[r.TransactionID] == 2 {
			out = append(out, NewDiscrepancy(r.TransactionID, KindDuplicateTransaction))
		}
	}
	return out
}
