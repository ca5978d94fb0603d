package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"wordreel/internal/extract"
	"wordreel/internal/jobs"
	"wordreel/internal/logging"
	"wordreel/internal/rsvp"
	"wordreel/internal/services"
)

// Server serves the job API over HTTP. It binds to a local address; there is
// no authentication layer, the daemon is a single-user tool.
type Server struct {
	bind           string
	manager        *jobs.Manager
	maxUploadBytes int64
	logger         *slog.Logger

	listener net.Listener
	server   *http.Server
}

// NewServer wires the API around a started job manager.
func NewServer(bind string, manager *jobs.Manager, maxUploadBytes int64, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	srv := &Server{
		bind:           bind,
		manager:        manager,
		maxUploadBytes: maxUploadBytes,
		logger:         logging.WithComponent(logger, "api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", srv.handleGenerate)
	mux.HandleFunc("/api/status/", srv.handleStatus)
	mux.HandleFunc("/api/download/", srv.handleDownload)
	mux.HandleFunc("/api/cancel/", srv.handleCancel)
	mux.HandleFunc("/api/job/", srv.handleJob)
	mux.HandleFunc("/api/jobs", srv.handleJobs)
	mux.HandleFunc("/api/health", srv.handleHealth)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Handler exposes the routing table for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins listening and shuts the server down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down outside of context cancellation.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound address, useful when the port was chosen by the OS.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// handleGenerate accepts either a JSON body with inline text or a multipart
// upload with a document to extract. Both paths end at the same Submit call.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "", "method not allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	var (
		text     string
		settings rsvp.Settings
		err      error
	)
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		text, settings, err = s.parseUpload(r)
	} else {
		text, settings, err = parseGenerateJSON(r.Body)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, services.CodeValidation,
				fmt.Sprintf("request exceeds %d byte upload limit", s.maxUploadBytes))
			return
		}
		s.writeServiceError(w, err)
		return
	}

	job, err := s.manager.Submit(r.Context(), text, settings)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, GenerateResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		WordCount: job.WordCount(),
		StatusURL: "/api/status/" + job.ID,
	})
}

func (s *Server) parseUpload(r *http.Request) (string, rsvp.Settings, error) {
	settings := rsvp.DefaultSettings()
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		return "", settings, services.Wrap(services.ErrValidation, "api", "parse upload", "", err)
	}
	if raw := r.FormValue("settings"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			return "", settings, services.Wrap(services.ErrValidation, "api", "parse upload", "malformed settings", err)
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", settings, services.Wrap(services.ErrValidation, "api", "parse upload", "missing file field", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", settings, services.Wrap(services.ErrValidation, "api", "read upload", header.Filename, err)
	}
	text, err := extract.FromUpload(header.Filename, data)
	if err != nil {
		return "", settings, err
	}
	return text, settings, nil
}

func parseGenerateJSON(body io.Reader) (string, rsvp.Settings, error) {
	var req GenerateRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return "", rsvp.Settings{}, services.Wrap(services.ErrValidation, "api", "decode request", "malformed JSON body", err)
	}
	settings := rsvp.DefaultSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}
	return req.Text, settings, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "", "method not allowed")
		return
	}
	id, ok := pathID(r.URL.Path, "/api/status/")
	if !ok {
		s.writeError(w, http.StatusNotFound, services.CodeNotFound, "job not found")
		return
	}
	job, err := s.manager.Status(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ViewFromJob(job))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "", "method not allowed")
		return
	}
	id, ok := pathID(r.URL.Path, "/api/download/")
	if !ok {
		s.writeError(w, http.StatusNotFound, services.CodeNotFound, "job not found")
		return
	}
	path, err := s.manager.Artifact(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".mp4"))
	http.ServeFile(w, r, path)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "", "method not allowed")
		return
	}
	id, ok := pathID(r.URL.Path, "/api/cancel/")
	if !ok {
		s.writeError(w, http.StatusNotFound, services.CodeNotFound, "job not found")
		return
	}
	if err := s.manager.Cancel(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	job, err := s.manager.Status(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ViewFromJob(job))
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		s.writeError(w, http.StatusMethodNotAllowed, "", "method not allowed")
		return
	}
	id, ok := pathID(r.URL.Path, "/api/job/")
	if !ok {
		s.writeError(w, http.StatusNotFound, services.CodeNotFound, "job not found")
		return
	}
	if err := s.manager.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "", "method not allowed")
		return
	}
	items, err := s.manager.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	views := make([]JobView, 0, len(items))
	for _, job := range items {
		views = append(views, ViewFromJob(job))
	}
	s.writeJSON(w, http.StatusOK, JobListResponse{Jobs: views})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "", "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func pathID(path, prefix string) (string, bool) {
	id := strings.TrimPrefix(path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// writeServiceError maps the error taxonomy onto HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	code := services.Code(err)
	status := http.StatusInternalServerError
	switch code {
	case services.CodeValidation, services.CodeExtraction:
		status = http.StatusBadRequest
	case services.CodeCapacity:
		status = http.StatusServiceUnavailable
	case services.CodeNotFound:
		status = http.StatusNotFound
	case services.CodeCancelled:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", logging.Error(err))
	}
	s.writeError(w, status, code, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
