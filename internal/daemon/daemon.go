package daemon

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"wordreel/internal/api"
	"wordreel/internal/config"
	"wordreel/internal/encoder"
	"wordreel/internal/jobs"
	"wordreel/internal/logging"
	"wordreel/internal/rsvp"
)

// Daemon wires the job manager and API server together and enforces
// single-instance execution with a lock file.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *jobs.Store
	manager *jobs.Manager
	server  *api.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies. The ffmpeg binary is
// probed here so a broken installation fails at startup, not on the first job.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	enc := encoder.New(
		cfg.Render.FFmpegBinary,
		cfg.Render.Width, cfg.Render.Height, cfg.Render.FPS,
		cfg.Render.FFmpegPreset, cfg.Render.FFmpegCRF,
		logger,
	)
	if err := enc.Check(); err != nil {
		return nil, err
	}

	store, err := jobs.OpenStore(cfg.QueueDBPath())
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}

	engine := rsvp.NewEngine(cfg.Limits.MaxWords, cfg.Render.SentencePauseFactor, cfg.Render.ClausePauseFactor)
	pipeline := jobs.NewVideoPipeline(engine, enc, cfg.ArtifactDir(), cfg.Render.Width, cfg.Render.Height, logger)
	manager := jobs.NewManager(store, pipeline, jobs.Options{
		Workers:       cfg.Pipeline.Workers,
		QueueCapacity: cfg.Pipeline.QueueCapacity,
		JobTimeout:    time.Duration(cfg.Pipeline.JobTimeout) * time.Second,
		Retention:     time.Duration(cfg.Pipeline.RetentionSeconds) * time.Second,
		SweepInterval: time.Duration(cfg.Pipeline.SweepInterval) * time.Second,
		MaxWords:      cfg.Limits.MaxWords,
	}, logger)

	server := api.NewServer(cfg.Paths.APIBind, manager, cfg.Limits.MaxUploadBytes, logger)

	lockPath := filepath.Join(cfg.Paths.DataDir, "wordreeld.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    store,
		manager:  manager,
		server:   server,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the worker pool and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another wordreel daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.manager.Start(d.ctx); err != nil {
		d.teardown()
		return fmt.Errorf("start job manager: %w", err)
	}
	if err := d.server.Start(d.ctx); err != nil {
		d.manager.Stop()
		d.teardown()
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("wordreel daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.server.Addr()),
		logging.String("artifacts", d.cfg.ArtifactDir()))
	return nil
}

// Stop shuts down the API server and worker pool and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.server.Stop()
	d.manager.Stop()
	d.teardown()
	d.running.Store(false)
	d.logger.Info("wordreel daemon stopped")
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the API server's bound address.
func (d *Daemon) Addr() string {
	return d.server.Addr()
}

// LockPath returns the lock file location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

func (d *Daemon) teardown() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.cancel = nil
	d.ctx = nil
}
