// Package scheduler runs recurring jobs on cron expressions.
//
// It wraps robfig/cron with a seconds field, skip-if-still-running
// semantics and zap logging. The reconciliation feature registers its
// trigger here; the scheduler knows nothing about reconciliation.
package scheduler
