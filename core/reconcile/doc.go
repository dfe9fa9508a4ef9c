// Package reconcile reconciles a delimited transaction feed (the network
// extract) against the authoritative ledger and reports discrepancies.
//
// The package is built to handle multi-million record feeds without loading
// the feed into memory:
//   - The feed is streamed lazily, once per phase, through a Format
//   - Ledger lookups are done in bulk, one round trip per batch
//   - Batches fan out to a bounded worker pool
//   - Per-record failures become discrepancies instead of aborting the run
//
// # Architecture
//
// 1. Record Source: FileSource streams a feed through a Format (validate,
// read lines, parse) and groups records into batches. Malformed lines are
// dropped and counted.
//
// 2. Matching: Matcher pairs two record sets exactly (id, timestamp and
// amount in minor units) or fuzzily (weighted score within time and amount
// tolerances, greedy).
//
// 3. Classification: Compare collects every field mismatch between a feed
// record and its ledger counterpart; Missing and DetectDuplicates cover
// absence and duplicate ids.
//
// 4. Orchestrator: runs INIT, INDEXING, FORWARD_COMPARE, BACKWARD_COMPARE and
// REPORT in order. Phases are separated by barriers; work inside a phase
// runs concurrently.
//
// # Usage Example
//
//	source := reconcile.Open(path, reconcile.NewDelimitedFormat(",", reconcile.FieldCount), logger)
//	orch := reconcile.NewOrchestrator(source, ledgerStore, fileSink, reconcile.DefaultOptions(), logger)
//
//	// Synchronous
//	result, err := orch.Run(ctx)
//
//	// Background, with cancellation
//	handle := orch.Start(ctx, "")
//	handle.Cancel()
//	result, err = handle.Wait(ctx)
//
// The Gateway and Sink interfaces are implemented outside this package
// (see feature/ledger and feature/report).
package reconcile
