package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"wordreel/internal/logging"
	"wordreel/internal/rsvp"
	"wordreel/internal/services"
)

// Pipeline runs the render and encode stages for one job. report is called
// after each display unit is handed to the encoder; implementations must
// honor context cancellation between units.
type Pipeline interface {
	Run(ctx context.Context, job *Job, report func(current, total int)) (outputPath string, err error)
}

// Options bound the manager's queue and worker pool.
type Options struct {
	Workers       int
	QueueCapacity int
	JobTimeout    time.Duration
	Retention     time.Duration
	SweepInterval time.Duration
	MaxWords      int
}

// Manager owns the job lifecycle: admission, the bounded FIFO queue, the
// worker pool, cancellation, and retention. All state a restart must survive
// lives in the store; the queue itself is in memory, so interrupted jobs are
// failed at startup rather than resumed.
type Manager struct {
	store    *Store
	pipeline Pipeline
	opts     Options
	logger   *slog.Logger

	queue chan string

	mu      sync.Mutex
	cancels map[string]context.CancelCauseFunc

	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
	closed bool
}

// NewManager wires a manager around an open store and a pipeline.
func NewManager(store *Store, pipeline Pipeline, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		store:    store,
		pipeline: pipeline,
		opts:     opts,
		logger:   logging.WithComponent(logger, "jobs"),
		queue:    make(chan string, opts.QueueCapacity),
		cancels:  make(map[string]context.CancelCauseFunc),
	}
}

// Start fails any jobs interrupted by a previous run, then launches the
// worker pool and the retention sweeper.
func (m *Manager) Start(ctx context.Context) error {
	interrupted, err := m.store.FailInterrupted(ctx)
	if err != nil {
		return err
	}
	if interrupted > 0 {
		m.logger.Warn("failed jobs left over from previous run", logging.Int64("count", interrupted))
	}

	m.ctx, m.stop = context.WithCancel(context.Background())
	for i := 0; i < m.opts.Workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
	if m.opts.SweepInterval > 0 && m.opts.Retention > 0 {
		m.wg.Add(1)
		go m.sweeper()
	}
	m.logger.Info("job manager started",
		logging.Int("workers", m.opts.Workers),
		logging.Int("queue_capacity", m.opts.QueueCapacity))
	return nil
}

// Stop cancels all running jobs and waits for the workers to drain.
func (m *Manager) Stop() {
	m.once.Do(func() {
		m.mu.Lock()
		m.closed = true
		for _, cancel := range m.cancels {
			cancel(services.ErrCancelled)
		}
		m.mu.Unlock()
		if m.stop != nil {
			m.stop()
		}
		m.wg.Wait()
	})
}

// Submit validates the request, persists a pending job, and enqueues it.
// A full queue rejects the request with a capacity error and leaves no row
// behind, so a retried submit is indistinguishable from a first attempt.
func (m *Manager) Submit(ctx context.Context, text string, settings rsvp.Settings) (*Job, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	words := rsvp.WordCount(text)
	if words == 0 {
		return nil, services.Wrap(services.ErrValidation, "jobs", "submit", "text contains no words", nil)
	}
	if m.opts.MaxWords > 0 && words > m.opts.MaxWords {
		return nil, services.Wrap(services.ErrValidation, "jobs", "submit",
			fmt.Sprintf("text has %d words, limit is %d", words, m.opts.MaxWords), nil)
	}

	id := uuid.NewString()
	job, err := m.store.Create(ctx, id, text, settings)
	if err != nil {
		return nil, err
	}

	select {
	case m.queue <- id:
	default:
		if _, delErr := m.store.Delete(ctx, id); delErr != nil {
			m.logger.Error("failed to remove rejected job", logging.String("job_id", id), logging.Error(delErr))
		}
		return nil, services.Wrap(services.ErrCapacity, "jobs", "submit",
			fmt.Sprintf("queue is full (%d jobs)", m.opts.QueueCapacity), nil)
	}

	m.logger.Info("job accepted",
		logging.String("job_id", id),
		logging.Int("words", words),
		logging.Int("wpm", settings.WPM))
	return job, nil
}

// Status returns a snapshot of one job.
func (m *Manager) Status(ctx context.Context, id string) (*Job, error) {
	return m.store.Get(ctx, id)
}

// List returns snapshots of all jobs, newest first.
func (m *Manager) List(ctx context.Context) ([]*Job, error) {
	return m.store.List(ctx)
}

// Cancel aborts a pending or processing job. Pending jobs are finalized
// immediately; processing jobs are interrupted at the next unit boundary.
// Cancelling a job that already reached a terminal state is a no-op.
func (m *Manager) Cancel(ctx context.Context, id string) error {
	status, err := m.store.RequestCancel(ctx, id)
	if err != nil {
		return err
	}
	if status.Terminal() {
		return nil
	}

	if status == StatusPending {
		// Finalize now; the worker skips any dequeued job that is no longer
		// pending. The guard can lose the race against MarkProcessing, in
		// which case the job is running and must be cancelled in flight.
		done, err := m.store.CancelPending(ctx, id)
		if err != nil {
			return err
		}
		if done {
			m.logger.Info("queued job cancelled", logging.String("job_id", id))
			return nil
		}
	}

	m.mu.Lock()
	cancel, running := m.cancels[id]
	m.mu.Unlock()
	if running {
		cancel(services.ErrCancelled)
	}
	m.logger.Info("cancellation requested", logging.String("job_id", id))
	return nil
}

// Delete removes a terminal job and its artifact.
func (m *Manager) Delete(ctx context.Context, id string) error {
	job, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !job.Status.Terminal() {
		return services.Wrap(services.ErrValidation, "jobs", "delete",
			fmt.Sprintf("job is still %s, cancel it first", job.Status), nil)
	}
	outputPath, err := m.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	removeArtifact(outputPath, m.logger)
	m.logger.Info("job deleted", logging.String("job_id", id))
	return nil
}

// Artifact returns the output path of a completed job. Non-completed jobs
// report not found, the same as unknown or expired ids, so callers cannot
// probe lifecycle details through the download path.
func (m *Manager) Artifact(ctx context.Context, id string) (string, error) {
	job, err := m.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if job.Status != StatusCompleted {
		return "", services.Wrap(services.ErrNotFound, "jobs", "artifact",
			fmt.Sprintf("job is %s, no artifact available", job.Status), nil)
	}
	return job.OutputPath, nil
}

func (m *Manager) registerCancel(id string, cancel context.CancelCauseFunc) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.cancels[id] = cancel
	return true
}

func (m *Manager) unregisterCancel(id string) {
	m.mu.Lock()
	delete(m.cancels, id)
	m.mu.Unlock()
}

func removeArtifact(path string, logger *slog.Logger) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove artifact", logging.String("path", path), logging.Error(err))
	}
}
