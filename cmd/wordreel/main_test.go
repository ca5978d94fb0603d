package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wordreel/internal/api"
	"wordreel/internal/rsvp"
)

func fakeDaemon(t *testing.T) *httptest.Server {
	t.Helper()
	now := time.Now().UTC()
	completed := api.JobView{
		JobID:       "abc",
		Status:      "completed",
		Percent:     100,
		CurrentUnit: 4,
		TotalUnits:  4,
		Message:     "video ready",
		WordCount:   4,
		DownloadURL: "/api/download/abc",
		CreatedAt:   now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(api.GenerateResponse{
			JobID:     "abc",
			Status:    "pending",
			WordCount: 2,
			StatusURL: "/api/status/abc",
		})
	})
	mux.HandleFunc("/api/status/abc", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completed)
	})
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.JobListResponse{Jobs: []api.JobView{completed}})
	})
	mux.HandleFunc("/api/cancel/abc", func(w http.ResponseWriter, r *http.Request) {
		cancelled := completed
		cancelled.Status = "cancelled"
		json.NewEncoder(w).Encode(cancelled)
	})
	mux.HandleFunc("/api/job/abc", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/download/abc", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("mp4-bytes"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSubmitTextCommand(t *testing.T) {
	srv := fakeDaemon(t)
	out, err := runCommand(t, "--server", srv.URL, "submit", "--text", "hello world", "--wpm", "400")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !strings.Contains(out, "job abc accepted") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestSubmitRejectsInvalidSettingsLocally(t *testing.T) {
	srv := fakeDaemon(t)
	_, err := runCommand(t, "--server", srv.URL, "submit", "--text", "hello", "--wpm", "50")
	if err == nil {
		t.Fatal("invalid wpm should fail before reaching the daemon")
	}
}

func TestSubmitRequiresInput(t *testing.T) {
	srv := fakeDaemon(t)
	_, err := runCommand(t, "--server", srv.URL, "submit")
	if err == nil || !strings.Contains(err.Error(), "no input") {
		t.Fatalf("expected missing-input error, got %v", err)
	}
}

func TestStatusCommandJSON(t *testing.T) {
	srv := fakeDaemon(t)
	out, err := runCommand(t, "--server", srv.URL, "status", "abc", "--json")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	var view api.JobView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("output is not JSON: %q", out)
	}
	if view.JobID != "abc" || view.Percent != 100 {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.Message != "video ready" || view.WordCount != 4 {
		t.Fatalf("missing message or word count: %+v", view)
	}
}

func TestJobsCommandTable(t *testing.T) {
	srv := fakeDaemon(t)
	out, err := runCommand(t, "--server", srv.URL, "jobs")
	if err != nil {
		t.Fatalf("jobs failed: %v", err)
	}
	for _, want := range []string{"ID", "STATUS", "abc", "completed", "100%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestCancelCommand(t *testing.T) {
	srv := fakeDaemon(t)
	out, err := runCommand(t, "--server", srv.URL, "cancel", "abc")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if !strings.Contains(out, "job abc is now cancelled") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestDeleteCommand(t *testing.T) {
	srv := fakeDaemon(t)
	out, err := runCommand(t, "--server", srv.URL, "delete", "abc")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !strings.Contains(out, "job abc deleted") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestDownloadCommand(t *testing.T) {
	srv := fakeDaemon(t)
	dest := filepath.Join(t.TempDir(), "video.mp4")
	out, err := runCommand(t, "--server", srv.URL, "download", "abc", "-o", dest)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if !strings.Contains(out, "saved "+dest) {
		t.Fatalf("unexpected output: %q", out)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "mp4-bytes" {
		t.Fatalf("downloaded file wrong: %q, %v", data, err)
	}
	if _, err := os.Stat(dest + ".partial"); !os.IsNotExist(err) {
		t.Fatal("partial file left behind")
	}
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCommand(t, "config", "init", "-p", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected output: %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("sample config missing: %v", err)
	}
	if !strings.Contains(string(data), "[render]") {
		t.Fatalf("sample config content unexpected:\n%s", data)
	}

	// Second init without --overwrite must refuse.
	if _, err := runCommand(t, "config", "init", "-p", target); err == nil {
		t.Fatal("second init should fail without --overwrite")
	}
}

func TestSettingsFlagsRoundTrip(t *testing.T) {
	flags := settingsFlags{
		wpm:            450,
		grouping:       2,
		font:           rsvp.FontMono,
		textColor:      "#111111",
		bgColor:        "#EEEEEE",
		highlightColor: "#FF0000",
		noPause:        true,
	}
	s := flags.settings()
	if s.WPM != 450 || s.WordGrouping != 2 || s.Font != rsvp.FontMono || s.PauseOnPunctuation {
		t.Fatalf("settings not mapped from flags: %+v", s)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("flag-built settings should validate: %v", err)
	}
}
