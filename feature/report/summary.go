package report

import (
	"fmt"
	"strconv"
	"time"

	"ledger-recon/core/reconcile"
)

// Line is one label/value row of the report summary.
type Line struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Summarize builds the summary block shared by every output format.
func Summarize(r *reconcile.Report, generatedAt time.Time) []Line {
	s := r.Stats
	lines := []Line{
		{"Generated At", generatedAt.Format(time.RFC3339)},
		{"Run ID", r.RunID},
		{"Feed", r.FilePath},
		{"Start Time", r.StartTime.Format(time.RFC3339)},
		{"End Time", r.EndTime.Format(time.RFC3339)},
		{"Duration", r.Duration().Round(time.Millisecond).String()},
		{"Total File Records", itoa(s.TotalFileRecords)},
		{"Total Ledger Records", itoa(s.TotalLedgerRecords)},
		{"Processed", itoa(s.Processed)},
		{"Matched", itoa(s.Matched)},
		{"Malformed", itoa(s.Malformed)},
		{"Validation Failures", itoa(s.ValidationFailures)},
		{"Lookup Failures", itoa(s.LookupFailures)},
		{"Processing Errors", itoa(s.ProcessingErrors)},
		{"Records Per Second", fmt.Sprintf("%.2f", r.RecordsPerSecond())},
		{"Forward Discrepancies", strconv.Itoa(len(r.Forward))},
		{"Backward Discrepancies", strconv.Itoa(len(r.Backward))},
		{"Total Discrepancies", strconv.Itoa(r.TotalDiscrepancies())},
		{"Match Rate", fmt.Sprintf("%.2f%%", s.MatchRate())},
	}

	counts := r.CountByKind()
	for _, k := range reconcile.Kinds {
		lines = append(lines, Line{Label: string(k), Value: strconv.Itoa(counts[k])})
	}
	return lines
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// Direction names used in combined listings.
const (
	DirectionForward  = "File to Ledger"
	DirectionBackward = "Ledger to File"
)

var discrepancyHeader = []string{
	"Transaction ID", "Discrepancy Type", "Source Amount", "Target Amount",
	"Difference", "Detail", "Detected At",
}

func discrepancyRow(d reconcile.Discrepancy) []string {
	row := []string{d.TransactionID, d.Label(), "", "", "", d.Detail, d.CreatedAt.Format(time.RFC3339)}
	if d.SourceAmount != nil {
		row[2] = d.SourceAmount.StringFixed(2)
	}
	if d.TargetAmount != nil {
		row[3] = d.TargetAmount.StringFixed(2)
	}
	if diff, ok := d.Difference(); ok {
		row[4] = diff.StringFixed(2)
	}
	return row
}
