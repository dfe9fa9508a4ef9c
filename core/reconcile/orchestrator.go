package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"ledger-recon/core/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Orchestrator drives the two-way reconciliation of a record source
// against the ledger. One orchestrator may run many times; every run owns
// its own accumulator.
type Orchestrator struct {
	source  RecordSource
	gateway Gateway
	sink    Sink
	opts    Options
	logger  *zap.Logger
}

// NewOrchestrator creates a new Orchestrator. Options are completed with
// defaults; validation happens when a run starts.
func NewOrchestrator(source RecordSource, gateway Gateway, sink Sink, opts Options, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		source:  source,
		gateway: gateway,
		sink:    sink,
		opts:    opts.WithDefaults(),
		logger:  logger,
	}
}

// run is the per-run state shared with the run handle.
type run struct {
	id    string
	phase atomic.Value
	acc   *accumulator
	start time.Time
}

func newRun(id string) *run {
	if id == "" {
		id = uuid.NewString()
	}
	r := &run{id: id, acc: newAccumulator(), start: time.Now()}
	r.phase.Store(PhaseInit)
	return r
}

func (r *run) Phase() Phase {
	return r.phase.Load().(Phase)
}

// Run executes a full run synchronously.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	return o.execute(ctx, newRun(""))
}

// Start launches a run in the background and returns its handle. The run
// stops scheduling new work when ctx is cancelled or the handle's Cancel
// is called.
func (o *Orchestrator) Start(ctx context.Context, id string) *RunHandle {
	ctx, cancel := context.WithCancel(ctx)
	r := newRun(id)
	h := &RunHandle{run: r, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer cancel()
		res, err := o.execute(ctx, r)
		h.finish(res, err)
	}()
	return h
}

// Rerender hands the report of a finished run to the sink again.
func (o *Orchestrator) Rerender(ctx context.Context, res *Result) error {
	if res == nil || res.Report == nil {
		return &ReportGenerationError{Err: errors.New("run has no report")}
	}
	if res.Phase == PhaseCancelled {
		return &ReportGenerationError{Err: errors.New("run was cancelled; its report is partial")}
	}
	if err := RenderReport(ctx, o.sink, res.Report); err != nil {
		return err
	}
	res.Rendered = true
	res.Phase = PhaseDone
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, r *run) (*Result, error) {
	log := logger.WithRun(o.logger, r.id)
	stats := &r.acc.stats

	fail := func(phase Phase, err error) (*Result, error) {
		r.phase.Store(PhaseFailed)
		snap := stats.Snapshot()
		log.Error("Reconciliation failed", zap.String("phase", string(phase)), zap.Error(err))
		return &Result{RunID: r.id, Phase: PhaseFailed, Stats: snap}, &PhaseError{Phase: phase, Stats: snap, Err: err}
	}
	// A cancelled run keeps what the drained batches found, unrendered.
	cancelled := func(phase Phase) (*Result, error) {
		r.phase.Store(PhaseCancelled)
		partial := o.collect(r)
		log.Warn("Reconciliation cancelled",
			zap.String("phase", string(phase)),
			zap.Int64("processed", partial.Stats.Processed),
			zap.Int("discrepancies", partial.TotalDiscrepancies()))
		res := &Result{RunID: r.id, Phase: PhaseCancelled, Report: partial, Stats: partial.Stats}
		return res, &PhaseError{Phase: phase, Stats: partial.Stats, Err: ErrCancelled}
	}

	if err := o.validate(); err != nil {
		return fail(PhaseInit, err)
	}
	log.Info("Reconciliation started", zap.Int("batch_size", o.opts.BatchSize), zap.Int("workers", o.opts.Workers))

	steps := []struct {
		phase Phase
		fn    func(context.Context, *run, *zap.Logger) error
	}{
		{PhaseIndexing, o.index},
		{PhaseForward, o.forward},
		{PhaseBackward, o.backward},
	}
	for _, step := range steps {
		if ctx.Err() != nil {
			return cancelled(step.phase)
		}
		r.phase.Store(step.phase)
		began := time.Now()
		err := step.fn(ctx, r, log)
		if ctx.Err() != nil {
			return cancelled(step.phase)
		}
		if err != nil {
			return fail(step.phase, err)
		}
		snap := stats.Snapshot()
		log.Info("Phase completed",
			zap.String("phase", string(step.phase)),
			zap.Duration("took", time.Since(began)),
			zap.Int64("file_records", snap.TotalFileRecords),
			zap.Int64("ledger_records", snap.TotalLedgerRecords),
			zap.Int64("processed", snap.Processed),
			zap.Int64("matched", snap.Matched))
	}

	if ctx.Err() != nil {
		return cancelled(PhaseReport)
	}
	r.phase.Store(PhaseReport)
	report := o.collect(r)
	res := &Result{RunID: r.id, Report: report, Stats: report.Stats}

	if err := RenderReport(ctx, o.sink, report); err != nil {
		if ctx.Err() != nil {
			return cancelled(PhaseReport)
		}
		r.phase.Store(PhaseFailed)
		res.Phase = PhaseFailed
		log.Error("Report generation failed", zap.Error(err))
		return res, &PhaseError{Phase: PhaseReport, Stats: report.Stats, Err: err}
	}

	r.phase.Store(PhaseDone)
	res.Phase = PhaseDone
	res.Rendered = true
	log.Info("Reconciliation completed",
		zap.Int("forward_discrepancies", len(report.Forward)),
		zap.Int("backward_discrepancies", len(report.Backward)),
		zap.Float64("match_rate", report.Stats.MatchRate()),
		zap.Duration("took", report.Duration()))
	return res, nil
}

// collect snapshots the accumulated discrepancies and counters of r.
func (o *Orchestrator) collect(r *run) *Report {
	report := &Report{
		RunID:     r.id,
		Forward:   r.acc.forward.Snapshot(),
		Backward:  r.acc.backward.Snapshot(),
		Stats:     r.acc.stats.Snapshot(),
		StartTime: r.start,
		EndTime:   time.Now(),
	}
	if fs, ok := o.source.(*FileSource); ok {
		report.FilePath = fs.Path()
	}
	return report
}

func (o *Orchestrator) validate() error {
	if o.source == nil {
		return &ConfigurationError{Option: "source", Message: "is required"}
	}
	if o.gateway == nil {
		return &ConfigurationError{Option: "gateway", Message: "is required"}
	}
	if o.sink == nil {
		return &ConfigurationError{Option: "sink", Message: "is required"}
	}
	if err := o.opts.Validate(); err != nil {
		return err
	}
	return o.source.Validate()
}

// schedule streams the source in batches and fans them out to the worker
// pool. Once ctx is done no further batch is scheduled; batches already
// scheduled run to completion on a context detached from cancellation.
func (o *Orchestrator) schedule(ctx context.Context, work func(context.Context, []TransactionRecord)) (PassStats, error) {
	var g errgroup.Group
	g.SetLimit(o.opts.Workers)
	detached := context.WithoutCancel(ctx)

	stats, err := o.source.Batches(ctx, o.opts.BatchSize, func(batch []TransactionRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.Go(func() error {
			work(detached, batch)
			return nil
		})
		return nil
	})
	_ = g.Wait()
	if err != nil && ctx.Err() == nil {
		return stats, fmt.Errorf("stream %s: %w", o.describeSource(), err)
	}
	return stats, nil
}

func (o *Orchestrator) describeSource() string {
	if fs, ok := o.source.(*FileSource); ok {
		return fs.Path()
	}
	return "source"
}

func (o *Orchestrator) index(ctx context.Context, r *run, log *zap.Logger) error {
	acc := r.acc
	pass, err := o.schedule(ctx, func(_ context.Context, batch []TransactionRecord) {
		for _, rec := range batch {
			acc.stats.totalFileRecords.Add(1)
			if acc.fileIDs.Add(rec.TransactionID) {
				acc.forward.Add(NewDiscrepancy(rec.TransactionID, KindDuplicateTransaction))
			}
		}
	})
	acc.stats.malformed.Add(pass.Malformed)
	if pass.Malformed > 0 {
		log.Warn("Malformed records dropped", zap.Int64("count", pass.Malformed))
	}
	log.Debug("File indexed", zap.Int("distinct_ids", acc.fileIDs.Len()))
	return err
}

func (o *Orchestrator) forward(ctx context.Context, r *run, log *zap.Logger) error {
	_, err := o.schedule(ctx, func(ctx context.Context, batch []TransactionRecord) {
		o.compareBatch(ctx, r.acc, batch, log)
	})
	return err
}

func (o *Orchestrator) compareBatch(ctx context.Context, acc *accumulator, batch []TransactionRecord, log *zap.Logger) {
	ids := make([]string, len(batch))
	for i, rec := range batch {
		ids[i] = rec.TransactionID
	}

	found, err := o.lookup(ctx, ids)
	if err != nil {
		acc.stats.lookupFailures.Add(1)
		log.Warn("Ledger lookup failed for batch", zap.Int("size", len(batch)), zap.Error(err))
		for _, rec := range batch {
			acc.stats.processed.Add(1)
			acc.stats.processingErrors.Add(1)
			acc.forward.Add(NewProcessingError(rec.TransactionID, err))
		}
		return
	}

	index := make(map[string]TransactionRecord, len(found))
	for _, rec := range found {
		index[rec.TransactionID] = rec
	}
	for _, rec := range batch {
		o.compareRecord(acc, rec, index, log)
	}
}

// lookup converts gateway failures, including panics, into a *LookupError.
func (o *Orchestrator) lookup(ctx context.Context, ids []string) (found []TransactionRecord, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &LookupError{Operation: "findByIds", Count: len(ids), Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	found, err = o.gateway.FindByIDs(ctx, ids)
	if err != nil {
		return nil, &LookupError{Operation: "findByIds", Count: len(ids), Err: err}
	}
	return found, nil
}

func (o *Orchestrator) compareRecord(acc *accumulator, rec TransactionRecord, index map[string]TransactionRecord, log *zap.Logger) {
	acc.stats.processed.Add(1)
	defer func() {
		if p := recover(); p != nil {
			acc.stats.processingErrors.Add(1)
			acc.forward.Add(NewProcessingError(rec.TransactionID, fmt.Errorf("panic: %v", p)))
			log.Warn("Recovered while classifying record", zap.String("transaction_id", rec.TransactionID), zap.Any("panic", p))
		}
	}()

	target, ok := index[rec.TransactionID]
	if !ok {
		acc.forward.Add(Missing(rec.TransactionID, FileToLedger))
		return
	}

	ds, err := Compare(rec, target)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			acc.stats.validationFailures.Add(1)
		}
		acc.stats.processingErrors.Add(1)
		acc.forward.Add(NewProcessingError(rec.TransactionID, err))
		log.Debug("Record failed classification", zap.String("transaction_id", rec.TransactionID), zap.Error(err))
		return
	}
	if len(ds) == 0 {
		acc.stats.matched.Add(1)
		return
	}
	acc.forward.Add(ds...)
}

func (o *Orchestrator) backward(ctx context.Context, r *run, log *zap.Logger) error {
	acc := r.acc

	ledger, err := o.fetchAll(ctx)
	if err != nil {
		acc.stats.lookupFailures.Add(1)
		acc.stats.processingErrors.Add(1)
		acc.backward.Add(NewProcessingError("", err))
		log.Warn("Ledger scan failed", zap.Error(err))
		return nil
	}
	acc.stats.totalLedgerRecords.Store(int64(len(ledger)))

	var g errgroup.Group
	g.SetLimit(o.opts.Workers)
	for start := 0; start < len(ledger); start += o.opts.BatchSize {
		if ctx.Err() != nil {
			break
		}
		chunk := ledger[start:min(start+o.opts.BatchSize, len(ledger))]
		g.Go(func() error {
			for _, rec := range chunk {
				if !acc.fileIDs.Contains(rec.TransactionID) {
					acc.backward.Add(Missing(rec.TransactionID, LedgerToFile))
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (o *Orchestrator) fetchAll(ctx context.Context) (all []TransactionRecord, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &LookupError{Operation: "findAll", Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	all, err = o.gateway.FindAll(ctx)
	if err != nil {
		return nil, &LookupError{Operation: "findAll", Err: err}
	}
	return all, nil
}
