package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"wordreel/internal/logging"
	"wordreel/internal/services"
)

func (m *Manager) worker(index int) {
	defer m.wg.Done()
	logger := m.logger.With(logging.Int("worker", index))
	for {
		select {
		case <-m.ctx.Done():
			return
		case id := <-m.queue:
			m.runJob(id, logger)
		}
	}
}

func (m *Manager) runJob(id string, logger *slog.Logger) {
	// Store writes must land even when shutdown cancels the manager context,
	// otherwise a finished job could be left recorded as processing.
	ctx := context.WithoutCancel(m.ctx)

	job, err := m.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			logger.Error("failed to load queued job", logging.String("job_id", id), logging.Error(err))
		}
		return
	}
	if job.Status != StatusPending {
		// Cancelled or deleted while queued.
		return
	}

	ok, err := m.store.MarkProcessing(ctx, id)
	if err != nil {
		logger.Error("failed to start job", logging.String("job_id", id), logging.Error(err))
		return
	}
	if !ok {
		return
	}

	jobCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if m.opts.JobTimeout > 0 {
		var cancelTimeout context.CancelFunc
		jobCtx, cancelTimeout = context.WithTimeoutCause(jobCtx, m.opts.JobTimeout, services.ErrTimeout)
		defer cancelTimeout()
	}

	if !m.registerCancel(id, cancel) {
		return
	}
	defer m.unregisterCancel(id)

	// A cancel request that raced the processing transition set the flag
	// before the cancel func was registered. Honor it now.
	if fresh, err := m.store.Get(ctx, id); err == nil && fresh.CancelRequested {
		cancel(services.ErrCancelled)
	}

	started := time.Now()
	logger.Info("job started", logging.String("job_id", id))

	lastPercent := -1
	report := func(current, total int) {
		if err := m.store.UpdateProgress(ctx, id, current, total); err != nil {
			logger.Warn("failed to record progress", logging.String("job_id", id), logging.Error(err))
			return
		}
		if total > 0 {
			if percent := current * 100 / total; percent != lastPercent {
				lastPercent = percent
				logger.Debug("job progress",
					logging.String("job_id", id),
					logging.Int("percent", percent),
					logging.Int("current", current),
					logging.Int("total", total))
			}
		}
	}

	outputPath, runErr := m.pipeline.Run(jobCtx, job, report)
	if runErr != nil {
		m.finalizeFailure(ctx, id, runErr, logger)
		return
	}

	finalized, err := m.store.MarkCompleted(ctx, id, outputPath)
	if err != nil {
		logger.Error("failed to finalize job", logging.String("job_id", id), logging.Error(err))
		return
	}
	if !finalized {
		// The row reached a terminal state through another path while the
		// pipeline finished. The artifact must not outlive the record.
		removeArtifact(outputPath, logger)
		logger.Info("discarded artifact of job finalized elsewhere", logging.String("job_id", id))
		return
	}
	logger.Info("job completed",
		logging.String("job_id", id),
		logging.String("output", outputPath),
		logging.Duration("elapsed", time.Since(started)))
}

func (m *Manager) finalizeFailure(ctx context.Context, id string, runErr error, logger *slog.Logger) {
	if services.IsCancellation(runErr) {
		if _, err := m.store.MarkCancelled(ctx, id); err != nil {
			logger.Error("failed to record cancellation", logging.String("job_id", id), logging.Error(err))
		}
		logger.Info("job cancelled", logging.String("job_id", id))
		return
	}

	code := services.Code(runErr)
	if _, err := m.store.MarkFailed(ctx, id, code, runErr.Error()); err != nil {
		logger.Error("failed to record job failure", logging.String("job_id", id), logging.Error(err))
	}
	logger.Error("job failed",
		logging.String("job_id", id),
		logging.String("code", code),
		logging.Error(runErr))
}

func (m *Manager) sweeper() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.sweepOnce(m.ctx)
		}
	}
}

// sweepOnce removes terminal jobs older than the retention window along with
// their artifacts.
func (m *Manager) sweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-m.opts.Retention)
	expired, err := m.store.Expired(ctx, cutoff)
	if err != nil {
		m.logger.Warn("retention sweep failed", logging.Error(err))
		return
	}
	for _, job := range expired {
		if _, err := m.store.Delete(ctx, job.ID); err != nil {
			m.logger.Warn("failed to remove expired job", logging.String("job_id", job.ID), logging.Error(err))
			continue
		}
		removeArtifact(job.OutputPath, m.logger)
		m.logger.Info("expired job removed",
			logging.String("job_id", job.ID),
			logging.String("status", string(job.Status)))
	}
}
