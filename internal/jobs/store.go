package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"wordreel/internal/rsvp"
	"wordreel/internal/services"
)

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore initializes or connects to the job database and applies the
// schema. The parent directory is created if needed.
func OpenStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

const jobColumns = `id, status, text, settings_json, total_units, current_unit,
    message, error_code, error_message, output_path, cancel_requested,
    created_at, started_at, completed_at`

// Create inserts a new pending job.
func (s *Store) Create(ctx context.Context, id, text string, settings rsvp.Settings) (*Job, error) {
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, text, settings_json, message, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id, StatusPending, text, string(settingsJSON), "waiting in queue", timestamp(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	return s.Get(ctx, id)
}

// Get returns one job by id.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get job", id, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// List returns all jobs, newest first.
func (s *Store) List(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var items []*Job
	for rows.Next() {
		job, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan job: %w", scanErr)
		}
		items = append(items, job)
	}
	return items, rows.Err()
}

// MarkProcessing moves a pending job to processing. The guard keeps the
// transition forward-only: it reports false when the job was cancelled or
// deleted while queued, and the caller must then skip it.
func (s *Store) MarkProcessing(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, message = ?, started_at = ?
         WHERE id = ? AND status = ?`,
		StatusProcessing, "segmenting text", timestamp(time.Now()), id, StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("mark processing %s: %w", id, err)
	}
	return rowChanged(res)
}

// UpdateProgress records how many units have been streamed so far. The unit
// count is only known once segmentation runs, so it is written here rather
// than at the processing transition.
func (s *Store) UpdateProgress(ctx context.Context, id string, currentUnit, totalUnits int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET current_unit = ?, total_units = ?, message = ? WHERE id = ? AND status = ?`,
		currentUnit, totalUnits, fmt.Sprintf("encoded %d of %d units", currentUnit, totalUnits),
		id, StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("update progress %s: %w", id, err)
	}
	return nil
}

// MarkCompleted finalizes a processing job with its artifact path.
func (s *Store) MarkCompleted(ctx context.Context, id, outputPath string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, output_path = ?, current_unit = total_units, message = ?, completed_at = ?
         WHERE id = ? AND status = ?`,
		StatusCompleted, outputPath, "video ready", timestamp(time.Now()), id, StatusProcessing,
	)
	if err != nil {
		return false, fmt.Errorf("mark completed %s: %w", id, err)
	}
	return rowChanged(res)
}

// MarkFailed finalizes a job with an error code and message. Pending jobs can
// fail too, for example when segmentation rejects the text before any worker
// picks it up.
func (s *Store) MarkFailed(ctx context.Context, id, code, message string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, message = ?, error_code = ?, error_message = ?, completed_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusFailed, "generation failed", code, message, timestamp(time.Now()), id, StatusPending, StatusProcessing,
	)
	if err != nil {
		return false, fmt.Errorf("mark failed %s: %w", id, err)
	}
	return rowChanged(res)
}

// MarkCancelled finalizes a job as cancelled.
func (s *Store) MarkCancelled(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, message = ?, error_code = ?, completed_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusCancelled, "cancelled", services.CodeCancelled, timestamp(time.Now()), id, StatusPending, StatusProcessing,
	)
	if err != nil {
		return false, fmt.Errorf("mark cancelled %s: %w", id, err)
	}
	return rowChanged(res)
}

// CancelPending finalizes a job as cancelled only while it is still pending.
// It reports false when a worker already claimed the job, in which case the
// caller must cancel the running work instead of touching the row.
func (s *Store) CancelPending(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, message = ?, error_code = ?, completed_at = ?
         WHERE id = ? AND status = ?`,
		StatusCancelled, "cancelled", services.CodeCancelled, timestamp(time.Now()), id, StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("cancel pending %s: %w", id, err)
	}
	return rowChanged(res)
}

// RequestCancel flags a non-terminal job for cancellation and returns its
// status at the time of the request. The flag survives a daemon restart so a
// half-processed job is never resumed against the user's wishes.
func (s *Store) RequestCancel(ctx context.Context, id string) (Status, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if job.Status.Terminal() {
		return job.Status, nil
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE jobs SET cancel_requested = 1 WHERE id = ? AND status IN (?, ?)`,
		id, StatusPending, StatusProcessing,
	)
	if err != nil {
		return "", fmt.Errorf("request cancel %s: %w", id, err)
	}
	return job.Status, nil
}

// Delete removes a job row and returns its artifact path, if any, so the
// caller can remove the file as well.
func (s *Store) Delete(ctx context.Context, id string) (string, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return "", fmt.Errorf("delete job %s: %w", id, err)
	}
	return job.OutputPath, nil
}

// Expired returns terminal jobs whose completion time is older than the
// cutoff. The sweeper removes them and their artifacts.
func (s *Store) Expired(ctx context.Context, cutoff time.Time) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs
         WHERE status IN (?, ?, ?) AND completed_at IS NOT NULL AND completed_at < ?`,
		StatusCompleted, StatusFailed, StatusCancelled, timestamp(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("query expired jobs: %w", err)
	}
	defer rows.Close()

	var items []*Job
	for rows.Next() {
		job, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan expired job: %w", scanErr)
		}
		items = append(items, job)
	}
	return items, rows.Err()
}

// FailInterrupted marks any job left pending or processing by a previous run
// as failed. In-memory queue positions do not survive a restart, so these
// jobs can never make progress again.
func (s *Store) FailInterrupted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, message = ?, error_code = ?, error_message = ?, completed_at = ?
         WHERE status IN (?, ?)`,
		StatusFailed, "generation failed", services.CodeInternal, "interrupted by daemon restart",
		timestamp(time.Now()), StatusPending, StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job          Job
		settingsJSON string
		errorCode    sql.NullString
		errorMessage sql.NullString
		outputPath   sql.NullString
		cancelFlag   int
		createdAt    string
		startedAt    sql.NullString
		completedAt  sql.NullString
	)
	err := row.Scan(
		&job.ID, &job.Status, &job.Text, &settingsJSON,
		&job.TotalUnits, &job.CurrentUnit,
		&job.Message, &errorCode, &errorMessage, &outputPath, &cancelFlag,
		&createdAt, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(settingsJSON), &job.Settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	job.ErrorCode = errorCode.String
	job.ErrorMessage = errorMessage.String
	job.OutputPath = outputPath.String
	job.CancelRequested = cancelFlag != 0
	job.CreatedAt = parseTimestamp(createdAt)
	if startedAt.Valid {
		t := parseTimestamp(startedAt.String)
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := parseTimestamp(completedAt.String)
		job.CompletedAt = &t
	}
	return &job, nil
}

func rowChanged(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
