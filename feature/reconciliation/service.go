package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"ledger-recon/core/logger"
	"ledger-recon/core/reconcile"
	"ledger-recon/core/storage"
	"ledger-recon/feature/report"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrRunNotFound is returned for unknown run ids.
	ErrRunNotFound = errors.New("run not found")
	// ErrRunActive is returned when an operation needs a finished run.
	ErrRunActive = errors.New("run is still active")
	// ErrNothingToRender is returned when a run has no pending report.
	ErrNothingToRender = errors.New("run has no report to render")
)

// Request describes one reconciliation trigger. Zero values fall back to
// the configured defaults.
type Request struct {
	FilePath       string  `json:"filePath"`
	ReportPath     string  `json:"reportPath"`
	BatchSize      int     `json:"batchSize"`
	Workers        int     `json:"workers,omitempty"`
	MatchThreshold float64 `json:"matchThreshold,omitempty"`
}

func (r Request) key() string {
	return fmt.Sprintf("%s|%s|%d|%d|%g", r.FilePath, r.ReportPath, r.BatchSize, r.Workers, r.MatchThreshold)
}

// Run is the tracked state of one triggered reconciliation.
type Run struct {
	Handle    *reconcile.RunHandle
	Request   Request
	StartedAt time.Time

	orch    *reconcile.Orchestrator
	cleanup func()
}

// Service starts and tracks reconciliation runs.
type Service struct {
	gateway    reconcile.Gateway
	client     storage.Client
	storageCfg storage.Config
	cfg        reconcile.Config
	logger     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	group singleflight.Group
	mu    sync.RWMutex
	runs  map[string]*Run
}

// NewService creates a new reconciliation service. client may be nil when
// object storage is not configured.
func NewService(gateway reconcile.Gateway, client storage.Client, storageCfg storage.Config, cfg reconcile.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		gateway:    gateway,
		client:     client,
		storageCfg: storageCfg,
		cfg:        cfg,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		runs:       make(map[string]*Run),
	}
}

// Config returns the default run configuration.
func (s *Service) Config() reconcile.Config {
	return s.cfg
}

// StartTwoWayReconciliation starts a run of filePath against the ledger and
// returns its handle without waiting. A trigger identical to a run that is
// still active returns that run's handle.
func (s *Service) StartTwoWayReconciliation(ctx context.Context, filePath, reportPath string, batchSize int) (*reconcile.RunHandle, error) {
	run, err := s.Start(ctx, Request{FilePath: filePath, ReportPath: reportPath, BatchSize: batchSize})
	if err != nil {
		return nil, err
	}
	return run.Handle, nil
}

// Start starts a run for req.
func (s *Service) Start(ctx context.Context, req Request) (*Run, error) {
	if req.FilePath == "" {
		req.FilePath = s.cfg.FilePath
	}
	if req.ReportPath == "" {
		req.ReportPath = s.cfg.ReportPath
	}

	v, err, shared := s.group.Do(req.key(), func() (interface{}, error) {
		if run := s.active(req); run != nil {
			return run, nil
		}
		return s.launch(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	run := v.(*Run)
	if shared {
		s.logger.Debug("Trigger collapsed into existing run", zap.String("run_id", run.Handle.ID()))
	}
	return run, nil
}

func (s *Service) active(req Request) *Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, run := range s.runs {
		if run.Request == req && !run.Handle.Phase().Terminal() {
			return run
		}
	}
	return nil
}

func (s *Service) launch(ctx context.Context, req Request) (*Run, error) {
	id := uuid.NewString()
	log := logger.WithRun(s.logger, id)

	opts := s.cfg.Options()
	if req.BatchSize != 0 {
		opts.BatchSize = req.BatchSize
	}
	if req.Workers != 0 {
		opts.Workers = req.Workers
	}
	if req.MatchThreshold != 0 {
		opts.MatchThreshold = req.MatchThreshold
	}
	if err := opts.WithDefaults().Validate(); err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp("", "recon-"+id+"-")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(workDir) }

	feed, err := s.fetchFeed(ctx, req.FilePath, workDir)
	if err != nil {
		cleanup()
		return nil, err
	}

	sink, err := report.ForPath(req.ReportPath, s.client, s.storageCfg, workDir, log)
	if err != nil {
		cleanup()
		return nil, err
	}

	orch := reconcile.NewOrchestrator(reconcile.Open(feed, s.cfg.Format(), log), s.gateway, sink, opts, log)
	run := &Run{
		Request:   req,
		StartedAt: time.Now(),
		orch:      orch,
		cleanup:   cleanup,
	}

	s.mu.Lock()
	run.Handle = orch.Start(s.ctx, id)
	s.runs[id] = run
	s.mu.Unlock()

	log.Info("Reconciliation started",
		zap.String("file", req.FilePath),
		zap.String("report", req.ReportPath),
		zap.Int("batch_size", opts.BatchSize),
		zap.Int("workers", opts.Workers),
	)
	go s.watch(run, log)
	return run, nil
}

// watch logs the outcome of a run once it ends. The work dir is kept while
// a report is still waiting to be rendered.
func (s *Service) watch(run *Run, log *zap.Logger) {
	<-run.Handle.Done()
	res, err := run.Handle.Result()
	if !res.Renderable() {
		run.cleanup()
	}
	if err != nil {
		log.Error("Reconciliation ended", zap.String("phase", string(run.Handle.Phase())), zap.Error(err))
		return
	}
	log.Info("Reconciliation ended",
		zap.String("phase", string(res.Phase)),
		zap.Int64("processed", res.Stats.Processed),
		zap.Int64("matched", res.Stats.Matched),
		zap.Int("discrepancies", res.Report.TotalDiscrepancies()),
	)
}

// fetchFeed returns a local path for the feed, downloading s3:// locations
// into dir.
func (s *Service) fetchFeed(ctx context.Context, location, dir string) (string, error) {
	bucket, key, ok := storage.ParseURI(location)
	if !ok {
		return location, nil
	}
	if s.client == nil {
		return "", &reconcile.ConfigurationError{Option: "file_path", Message: "object storage is not configured"}
	}

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", &reconcile.ConfigurationError{Option: "file_path", Message: "feed not readable", Err: err}
	}
	defer obj.Close()

	local := filepath.Join(dir, filepath.Base(key))
	fh, err := os.Create(local)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fh, obj); err != nil {
		fh.Close()
		return "", &reconcile.ConfigurationError{Option: "file_path", Message: "feed download failed", Err: err}
	}
	if err := fh.Close(); err != nil {
		return "", err
	}
	s.logger.Info("Feed downloaded", zap.String("object", location), zap.String("path", local))
	return local, nil
}

// Get returns a tracked run.
func (s *Service) Get(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// List returns the tracked runs, most recent first.
func (s *Service) List() []*Run {
	s.mu.RLock()
	out := make([]*Run, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// Cancel requests cancellation of a run.
func (s *Service) Cancel(id string) (*Run, error) {
	run, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	run.Handle.Cancel()
	return run, nil
}

// Rerender retries the render step of a finished run whose report could
// not be written.
func (s *Service) Rerender(ctx context.Context, id string) (*reconcile.Result, error) {
	run, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !run.Handle.Phase().Terminal() {
		return nil, ErrRunActive
	}

	res, _ := run.Handle.Result()
	if !res.Renderable() {
		return nil, ErrNothingToRender
	}

	retry := *res
	if err := run.orch.Rerender(ctx, &retry); err != nil {
		return nil, err
	}
	run.Handle.SetResult(&retry, nil)
	run.cleanup()
	s.logger.Info("Report re-rendered", zap.String("run_id", id))
	return &retry, nil
}

// Reports lists uploaded reports.
func (s *Service) Reports(ctx context.Context) ([]report.Object, error) {
	if s.client == nil || !s.storageCfg.Enabled() {
		return nil, &reconcile.ConfigurationError{Option: "storage.bucket", Message: "report uploads are disabled"}
	}
	return report.List(ctx, s.client, s.storageCfg.Bucket, s.storageCfg.ReportPrefix)
}

// Close cancels every active run and waits for them to stop or ctx to end.
func (s *Service) Close(ctx context.Context) error {
	s.cancel()
	for _, run := range s.List() {
		select {
		case <-run.Handle.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
		run.cleanup()
	}
	return nil
}
