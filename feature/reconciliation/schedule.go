package reconciliation

import (
	"context"
	"fmt"

	"ledger-recon/core/reconcile"
	"ledger-recon/core/scheduler"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobName is the scheduler entry of the recurring reconciliation.
const JobName = "two-way-reconciliation"

// Schedule registers the recurring reconciliation of the configured feed.
// It returns false when scheduling is disabled.
func Schedule(s *scheduler.Scheduler, svc *Service, cfg scheduler.Config) (cron.EntryID, bool, error) {
	if !cfg.Enabled {
		return 0, false, nil
	}
	defaults := svc.Config()
	if defaults.FilePath == "" {
		return 0, false, &reconcile.ConfigurationError{Option: "reconcile.file_path", Message: "scheduled runs need a feed location"}
	}

	id, err := s.Add(JobName, cfg.Cron, func(ctx context.Context) error {
		return runScheduled(ctx, svc)
	})
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func runScheduled(ctx context.Context, svc *Service) error {
	defaults := svc.Config()
	handle, err := svc.StartTwoWayReconciliation(ctx, defaults.FilePath, defaults.ReportPath, defaults.BatchSize)
	if err != nil {
		return err
	}

	res, err := handle.Wait(ctx)
	if err != nil {
		return fmt.Errorf("run %s: %w", handle.ID(), err)
	}
	svc.logger.Info("Scheduled reconciliation finished",
		zap.String("run_id", handle.ID()),
		zap.Float64("match_rate", res.Stats.MatchRate()),
		zap.Int("discrepancies", res.Report.TotalDiscrepancies()),
	)
	return nil
}
