package reconcile

import (
	"fmt"
	"math"
	"time"
)

const (
	// DefaultBatchSize is used when a run is triggered without a batch size.
	DefaultBatchSize = 1000
	// DefaultWorkers is the default worker pool size.
	DefaultWorkers = 4
	// DefaultTimeToleranceMinutes is the default fuzzy time window.
	DefaultTimeToleranceMinutes = 15
	// DefaultAmountTolerancePercent is the default fuzzy amount window.
	DefaultAmountTolerancePercent = 1.0
	// DefaultMatchThreshold is the minimum fuzzy score accepted as a match.
	DefaultMatchThreshold = 0.8
)

// Options controls one reconciliation run.
type Options struct {
	// BatchSize is the number of file records looked up per ledger round trip.
	// Zero selects DefaultBatchSize.
	BatchSize int

	// Workers bounds the number of batches processed concurrently.
	// Zero selects DefaultWorkers.
	Workers int

	// TimeToleranceMinutes is the fuzzy matching time window.
	TimeToleranceMinutes float64

	// AmountTolerancePercent is the fuzzy matching amount window.
	AmountTolerancePercent float64

	// MatchThreshold is the minimum fuzzy score, in [0,1].
	MatchThreshold float64
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		BatchSize:              DefaultBatchSize,
		Workers:                DefaultWorkers,
		TimeToleranceMinutes:   DefaultTimeToleranceMinutes,
		AmountTolerancePercent: DefaultAmountTolerancePercent,
		MatchThreshold:         DefaultMatchThreshold,
	}
}

// WithDefaults fills unset sizes with their defaults.
func (o Options) WithDefaults() Options {
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	return o
}

// Validate returns a *ConfigurationError describing the first invalid value.
func (o Options) Validate() error {
	if o.BatchSize <= 0 {
		return &ConfigurationError{Option: "batch_size", Message: fmt.Sprintf("must be positive, got %d", o.BatchSize)}
	}
	if o.Workers <= 0 {
		return &ConfigurationError{Option: "workers", Message: fmt.Sprintf("must be positive, got %d", o.Workers)}
	}
	if o.TimeToleranceMinutes < 0 || math.IsNaN(o.TimeToleranceMinutes) {
		return &ConfigurationError{Option: "time_tolerance_minutes", Message: "must not be negative"}
	}
	if o.AmountTolerancePercent < 0 || math.IsNaN(o.AmountTolerancePercent) {
		return &ConfigurationError{Option: "amount_tolerance_percent", Message: "must not be negative"}
	}
	if o.MatchThreshold < 0 || o.MatchThreshold > 1 || math.IsNaN(o.MatchThreshold) {
		return &ConfigurationError{Option: "match_threshold", Message: fmt.Sprintf("must be within [0,1], got %v", o.MatchThreshold)}
	}
	return nil
}

// Report is everything the Report Sink receives at the end of a run.
type Report struct {
	// RunID identifies the run that produced the report.
	RunID string `json:"run_id" yaml:"run_id"`

	// FilePath is the feed that was reconciled.
	FilePath string `json:"file_path" yaml:"file_path"`

	// Forward holds file to ledger discrepancies.
	Forward []Discrepancy `json:"forward" yaml:"forward"`

	// Backward holds ledger to file discrepancies.
	Backward []Discrepancy `json:"backward" yaml:"backward"`

	// Stats are the run counters read after both compare phases drained.
	Stats StatsSnapshot `json:"stats" yaml:"stats"`

	StartTime time.Time `json:"start_time" yaml:"start_time"`
	EndTime   time.Time `json:"end_time" yaml:"end_time"`
}

// TotalDiscrepancies returns the size of both lists.
func (r *Report) TotalDiscrepancies() int {
	return len(r.Forward) + len(r.Backward)
}

// Duration returns the processing time covered by the report.
func (r *Report) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// RecordsPerSecond returns processed file records per second.
func (r *Report) RecordsPerSecond() float64 {
	secs := r.Duration().Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.Stats.Processed) / secs
}

// CountByKind tallies both lists per discrepancy kind.
func (r *Report) CountByKind() map[Kind]int {
	out := CountByKind(r.Forward)
	for k, n := range CountByKind(r.Backward) {
		out[k] += n
	}
	return out
}

// Result is the outcome of one run.
type Result struct {
	// RunID identifies the run.
	RunID string `json:"run_id"`

	// Phase is the terminal phase: DONE, FAILED or CANCELLED.
	Phase Phase `json:"phase"`

	// Report is populated once both compare phases completed, even when
	// rendering failed, so the render step can be retried. A cancelled run
	// carries the partial report of the batches that drained; it is never
	// rendered.
	Report *Report `json:"report,omitempty"`

	// Stats are the counters at the time the run ended.
	Stats StatsSnapshot `json:"stats"`

	// Rendered is true when the sink accepted the report.
	Rendered bool `json:"rendered"`
}

// Renderable reports whether the run holds a complete report the sink has
// not accepted yet.
func (r *Result) Renderable() bool {
	return r != nil && r.Report != nil && !r.Rendered && r.Phase != PhaseCancelled
}

// MatchSummary aggregates an in-memory set reconciliation.
type MatchSummary struct {
	SourceTotal     int `json:"source_total"`
	TargetTotal     int `json:"target_total"`
	ExactMatches    int `json:"exact_matches"`
	FuzzyMatches    int `json:"fuzzy_matches"`
	UnmatchedSource int `json:"unmatched_source"`
	UnmatchedTarget int `json:"unmatched_target"`
	Invalid         int `json:"invalid"`
	Discrepancies   int `json:"discrepancies"`
}
