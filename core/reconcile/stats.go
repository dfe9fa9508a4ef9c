package reconcile

import (
	"sync/atomic"
)

// Phase is a step of the two-way reconciliation state machine.
type Phase string

const (
	PhaseInit      Phase = "INIT"
	PhaseIndexing  Phase = "INDEXING"
	PhaseForward   Phase = "FORWARD_COMPARE"
	PhaseBackward  Phase = "BACKWARD_COMPARE"
	PhaseReport    Phase = "REPORT"
	PhaseDone      Phase = "DONE"
	PhaseFailed    Phase = "FAILED"
	PhaseCancelled Phase = "CANCELLED"
)

// Terminal reports whether no further transition can happen from p.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed || p == PhaseCancelled
}

// RunStats holds the counters of one run. Fields are only incremented
// atomically and are read through Snapshot after a phase barrier.
type RunStats struct {
	totalFileRecords   atomic.Int64
	totalLedgerRecords atomic.Int64
	processed          atomic.Int64
	matched            atomic.Int64
	malformed          atomic.Int64
	validationFailures atomic.Int64
	lookupFailures     atomic.Int64
	processingErrors   atomic.Int64
}

// StatsSnapshot is a point-in-time copy of RunStats.
type StatsSnapshot struct {
	TotalFileRecords   int64 `json:"total_file_records" yaml:"total_file_records"`
	TotalLedgerRecords int64 `json:"total_ledger_records" yaml:"total_ledger_records"`
	Processed          int64 `json:"processed" yaml:"processed"`
	Matched            int64 `json:"matched" yaml:"matched"`
	Malformed          int64 `json:"malformed" yaml:"malformed"`
	ValidationFailures int64 `json:"validation_failures" yaml:"validation_failures"`
	LookupFailures     int64 `json:"lookup_failures" yaml:"lookup_failures"`
	ProcessingErrors   int64 `json:"processing_errors" yaml:"processing_errors"`
}

// Snapshot copies the current counter values.
func (s *RunStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		TotalFileRecords:   s.totalFileRecords.Load(),
		TotalLedgerRecords: s.totalLedgerRecords.Load(),
		Processed:          s.processed.Load(),
		Matched:            s.matched.Load(),
		Malformed:          s.malformed.Load(),
		ValidationFailures: s.validationFailures.Load(),
		LookupFailures:     s.lookupFailures.Load(),
		ProcessingErrors:   s.processingErrors.Load(),
	}
}

// MatchRate returns matched over processed as a percentage.
func (s StatsSnapshot) MatchRate() float64 {
	if s.Processed == 0 {
		return 0
	}
	return float64(s.Matched) / float64(s.Processed) * 100
}
