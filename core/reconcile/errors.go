package reconcile

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks against the typed errors below.
var (
	ErrMalformedRecord  = errors.New("malformed record")
	ErrValidation       = errors.New("validation failed")
	ErrLookup           = errors.New("ledger lookup failed")
	ErrReportGeneration = errors.New("report generation failed")
	ErrConfiguration    = errors.New("invalid configuration")
	ErrCancelled        = errors.New("run cancelled")
)

// ParseError reports a feed line that could not be turned into a record.
type ParseError struct {
	Line   int
	Fields int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s (%d fields)", e.Line, e.Reason, e.Fields)
}

// Is implements errors.Is support.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// ValidationError reports a record field that cannot be interpreted.
type ValidationError struct {
	TransactionID string
	Field         string
	Value         string
	Message       string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("transaction %s: invalid %s %q: %s", e.TransactionID, e.Field, e.Value, e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(id, field, value, message string) *ValidationError {
	return &ValidationError{TransactionID: id, Field: field, Value: value, Message: message}
}

// LookupError wraps a failed ledger gateway call.
type LookupError struct {
	Operation string
	Count     int
	Err       error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("ledger %s (%d ids): %v", e.Operation, e.Count, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *LookupError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *LookupError) Is(target error) bool {
	return target == ErrLookup
}

// ReportGenerationError wraps a report sink failure.
type ReportGenerationError struct {
	Path string
	Err  error
}

func (e *ReportGenerationError) Error() string {
	return fmt.Sprintf("render report %s: %v", e.Path, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *ReportGenerationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *ReportGenerationError) Is(target error) bool {
	return target == ErrReportGeneration
}

// ConfigurationError reports an invalid run input detected before any phase starts.
type ConfigurationError struct {
	Option  string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Option, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Option, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// PhaseError is a run-fatal error annotated with the phase it happened in
// and the counters gathered up to that point.
type PhaseError struct {
	Phase Phase
	Stats StatsSnapshot
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s (file=%d ledger=%d processed=%d matched=%d): %v",
		e.Phase, e.Stats.TotalFileRecords, e.Stats.TotalLedgerRecords, e.Stats.Processed, e.Stats.Matched, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *PhaseError) Unwrap() error {
	return e.Err
}
