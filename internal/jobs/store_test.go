package jobs_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wordreel/internal/jobs"
	"wordreel/internal/rsvp"
	"wordreel/internal/services"
)

func mustOpenStore(t *testing.T) *jobs.Store {
	t.Helper()
	store, err := jobs.OpenStore(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustCreate(t *testing.T, store *jobs.Store, id string) *jobs.Job {
	t.Helper()
	job, err := store.Create(context.Background(), id, "some words to read", rsvp.DefaultSettings())
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}

func TestStoreCreateAndGet(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()

	created := mustCreate(t, store, "job-1")
	if created.Status != jobs.StatusPending {
		t.Fatalf("new job status %s, want pending", created.Status)
	}
	if created.Percent() != 0 {
		t.Fatalf("new job percent %d, want 0", created.Percent())
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Text != "some words to read" {
		t.Fatalf("text did not round-trip: %q", got.Text)
	}
	if got.Settings.WPM != rsvp.DefaultSettings().WPM {
		t.Fatalf("settings did not round-trip: %+v", got.Settings)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("created_at not recorded")
	}
}

func TestStoreGetNotFound(t *testing.T) {
	store := mustOpenStore(t)
	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreTransitionsForwardOnly(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()
	mustCreate(t, store, "job-1")

	ok, err := store.MarkProcessing(ctx, "job-1")
	if err != nil || !ok {
		t.Fatalf("first MarkProcessing = %v, %v", ok, err)
	}
	ok, err = store.MarkProcessing(ctx, "job-1")
	if err != nil || ok {
		t.Fatalf("second MarkProcessing should be a no-op, got %v, %v", ok, err)
	}

	ok, err = store.MarkCompleted(ctx, "job-1", "/tmp/out.mp4")
	if err != nil || !ok {
		t.Fatalf("MarkCompleted = %v, %v", ok, err)
	}

	// Terminal states never change.
	if ok, _ := store.MarkFailed(ctx, "job-1", services.CodeEncode, "boom"); ok {
		t.Fatal("MarkFailed should not overwrite a completed job")
	}
	if ok, _ := store.MarkCancelled(ctx, "job-1"); ok {
		t.Fatal("MarkCancelled should not overwrite a completed job")
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != jobs.StatusCompleted || got.OutputPath != "/tmp/out.mp4" {
		t.Fatalf("unexpected final state: %+v", got)
	}
	if got.Percent() != 100 {
		t.Fatalf("completed percent %d, want 100", got.Percent())
	}
	if got.CompletedAt == nil {
		t.Fatal("completed_at not recorded")
	}
}

func TestStoreProgressFloor(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()
	mustCreate(t, store, "job-1")
	if _, err := store.MarkProcessing(ctx, "job-1"); err != nil {
		t.Fatalf("mark processing: %v", err)
	}

	if err := store.UpdateProgress(ctx, "job-1", 1, 3); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Percent() != 33 {
		t.Fatalf("percent = %d, want 33 (floored)", got.Percent())
	}

	if err := store.UpdateProgress(ctx, "job-1", 2, 3); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	got, _ = store.Get(ctx, "job-1")
	if got.Percent() != 66 {
		t.Fatalf("percent = %d, want 66", got.Percent())
	}
}

func TestStoreRequestCancel(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()
	mustCreate(t, store, "job-1")

	status, err := store.RequestCancel(ctx, "job-1")
	if err != nil {
		t.Fatalf("request cancel: %v", err)
	}
	if status != jobs.StatusPending {
		t.Fatalf("status at cancel = %s, want pending", status)
	}
	got, _ := store.Get(ctx, "job-1")
	if !got.CancelRequested {
		t.Fatal("cancel_requested flag not set")
	}

	if _, err := store.MarkCancelled(ctx, "job-1"); err != nil {
		t.Fatalf("mark cancelled: %v", err)
	}
	status, err = store.RequestCancel(ctx, "job-1")
	if err != nil {
		t.Fatalf("request cancel on terminal job: %v", err)
	}
	if !status.Terminal() {
		t.Fatalf("expected terminal status, got %s", status)
	}
}

func TestStoreCancelPendingGuard(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()

	mustCreate(t, store, "queued")
	ok, err := store.CancelPending(ctx, "queued")
	if err != nil || !ok {
		t.Fatalf("CancelPending on a pending job = %v, %v", ok, err)
	}
	got, _ := store.Get(ctx, "queued")
	if got.Status != jobs.StatusCancelled {
		t.Fatalf("status after cancel = %s", got.Status)
	}

	// Once a worker has claimed the job the pending-only guard must refuse,
	// leaving the row to the in-flight cancellation path.
	mustCreate(t, store, "claimed")
	if _, err := store.MarkProcessing(ctx, "claimed"); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	ok, err = store.CancelPending(ctx, "claimed")
	if err != nil || ok {
		t.Fatalf("CancelPending on a claimed job = %v, %v", ok, err)
	}
	got, _ = store.Get(ctx, "claimed")
	if got.Status != jobs.StatusProcessing {
		t.Fatalf("claimed job status = %s, want processing", got.Status)
	}
}

func TestStoreStatusMessages(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()

	created := mustCreate(t, store, "job-1")
	if created.Message != "waiting in queue" {
		t.Fatalf("pending message = %q", created.Message)
	}

	if _, err := store.MarkProcessing(ctx, "job-1"); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	if err := store.UpdateProgress(ctx, "job-1", 2, 5); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	got, _ := store.Get(ctx, "job-1")
	if got.Message != "encoded 2 of 5 units" {
		t.Fatalf("progress message = %q", got.Message)
	}

	if _, err := store.MarkCompleted(ctx, "job-1", "/tmp/out.mp4"); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	got, _ = store.Get(ctx, "job-1")
	if got.Message != "video ready" {
		t.Fatalf("completed message = %q", got.Message)
	}
}

func TestStoreFailInterrupted(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()
	mustCreate(t, store, "queued")
	mustCreate(t, store, "running")
	if _, err := store.MarkProcessing(ctx, "running"); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	mustCreate(t, store, "done")
	if _, err := store.MarkProcessing(ctx, "done"); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	if _, err := store.MarkCompleted(ctx, "done", "/tmp/out.mp4"); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	n, err := store.FailInterrupted(ctx)
	if err != nil {
		t.Fatalf("fail interrupted: %v", err)
	}
	if n != 2 {
		t.Fatalf("interrupted count = %d, want 2", n)
	}
	for _, id := range []string{"queued", "running"} {
		got, _ := store.Get(ctx, id)
		if got.Status != jobs.StatusFailed || got.ErrorCode != services.CodeInternal {
			t.Fatalf("job %s: status=%s code=%s", id, got.Status, got.ErrorCode)
		}
	}
	got, _ := store.Get(ctx, "done")
	if got.Status != jobs.StatusCompleted {
		t.Fatal("completed job should be untouched by interrupt recovery")
	}
}

func TestStoreExpired(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()
	mustCreate(t, store, "old")
	if _, err := store.MarkProcessing(ctx, "old"); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	if _, err := store.MarkCompleted(ctx, "old", "/tmp/old.mp4"); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	mustCreate(t, store, "fresh")

	expired, err := store.Expired(ctx, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("expired: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != "old" {
		t.Fatalf("expected only the terminal job to expire, got %+v", expired)
	}

	none, err := store.Expired(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("expired: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("cutoff in the past should match nothing, got %d", len(none))
	}
}

func TestStoreDeleteReturnsArtifact(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()
	mustCreate(t, store, "job-1")
	if _, err := store.MarkProcessing(ctx, "job-1"); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	if _, err := store.MarkCompleted(ctx, "job-1", "/tmp/out.mp4"); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	path, err := store.Delete(ctx, "job-1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if path != "/tmp/out.mp4" {
		t.Fatalf("delete returned %q", path)
	}
	if _, err := store.Get(ctx, "job-1"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("deleted job still readable: %v", err)
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	store := mustOpenStore(t)
	ctx := context.Background()
	mustCreate(t, store, "first")
	time.Sleep(5 * time.Millisecond)
	mustCreate(t, store, "second")

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("list returned %d jobs", len(items))
	}
	if items[0].ID != "second" {
		t.Fatalf("expected newest first, got %s", items[0].ID)
	}
}
