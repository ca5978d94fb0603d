// Package api exposes the daemon's HTTP surface and the wire types shared
// with the CLI client.
package api

import (
	"time"

	"wordreel/internal/jobs"
	"wordreel/internal/rsvp"
)

// GenerateRequest is the JSON body for submitting text directly.
type GenerateRequest struct {
	Text     string         `json:"text"`
	Settings *rsvp.Settings `json:"settings,omitempty"`
}

// GenerateResponse acknowledges an accepted job.
type GenerateResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	WordCount int    `json:"word_count"`
	StatusURL string `json:"status_url"`
}

// JobView is the serialized snapshot of one job. The source text is omitted;
// it can be megabytes and status polls happen every second.
type JobView struct {
	JobID        string         `json:"job_id"`
	Status       string         `json:"status"`
	Percent      int            `json:"percent"`
	CurrentUnit  int            `json:"current_unit"`
	TotalUnits   int            `json:"total_units"`
	Message      string         `json:"message"`
	WordCount    int            `json:"word_count"`
	DownloadURL  string         `json:"download_url,omitempty"`
	ErrorCode    string         `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Settings     *rsvp.Settings `json:"settings,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// JobListResponse wraps the full job listing.
type JobListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// HealthResponse reports daemon liveness.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the uniform error body. Code carries the taxonomy code so
// clients can branch without parsing messages.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ViewFromJob converts a stored job into its wire form. Completed jobs carry
// a download reference so pollers never have to construct the URL themselves.
func ViewFromJob(job *jobs.Job) JobView {
	settings := job.Settings
	view := JobView{
		JobID:        job.ID,
		Status:       string(job.Status),
		Percent:      job.Percent(),
		CurrentUnit:  job.CurrentUnit,
		TotalUnits:   job.TotalUnits,
		Message:      job.Message,
		WordCount:    job.WordCount(),
		ErrorCode:    job.ErrorCode,
		ErrorMessage: job.ErrorMessage,
		Settings:     &settings,
		CreatedAt:    job.CreatedAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
	}
	if job.Status == jobs.StatusCompleted {
		view.DownloadURL = "/api/download/" + job.ID
	}
	return view
}
