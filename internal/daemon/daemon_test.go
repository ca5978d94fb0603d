package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"wordreel/internal/api"
	"wordreel/internal/daemon"
	"wordreel/internal/logging"
	"wordreel/internal/testsupport"
)

func startDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedFFmpeg(),
		testsupport.WithGeometry(64, 48),
	)
	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDaemonEndToEnd(t *testing.T) {
	d := startDaemon(t)
	base := "http://" + d.Addr()

	body, _ := json.Marshal(api.GenerateRequest{Text: "end to end words"})
	resp, err := http.Post(base+"/api/generate", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("generate request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("generate returned %d", resp.StatusCode)
	}
	var accepted api.GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		t.Fatalf("decode acceptance: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	var view api.JobView
	for time.Now().Before(deadline) {
		statusResp, err := http.Get(fmt.Sprintf("%s/api/status/%s", base, accepted.JobID))
		if err != nil {
			t.Fatalf("status request: %v", err)
		}
		err = json.NewDecoder(statusResp.Body).Decode(&view)
		statusResp.Body.Close()
		if err != nil {
			t.Fatalf("decode status: %v", err)
		}
		if view.Status == "completed" || view.Status == "failed" {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	if view.Status != "completed" {
		t.Fatalf("job finished as %s (%s: %s)", view.Status, view.ErrorCode, view.ErrorMessage)
	}

	dl, err := http.Get(fmt.Sprintf("%s/api/download/%s", base, accepted.JobID))
	if err != nil {
		t.Fatalf("download request: %v", err)
	}
	defer dl.Body.Close()
	if dl.StatusCode != http.StatusOK {
		t.Fatalf("download returned %d", dl.StatusCode)
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedFFmpeg(),
		testsupport.WithGeometry(64, 48),
	)
	first, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() { _ = first.Close() })

	second, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New for second instance: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("second daemon should fail to acquire the lock")
	}
}
