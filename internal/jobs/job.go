package jobs

import (
	"time"

	"wordreel/internal/rsvp"
)

// Status is the lifecycle state of a job. Transitions only move forward:
// pending to processing, then to exactly one of the terminal states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Job is one video generation request and its progress. Every read is a
// snapshot of a single database row, so callers never observe a half-applied
// transition.
type Job struct {
	ID              string
	Status          Status
	Text            string
	Settings        rsvp.Settings
	TotalUnits      int
	CurrentUnit     int
	Message         string
	ErrorCode       string
	ErrorMessage    string
	OutputPath      string
	CancelRequested bool
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

// Percent is the integer progress value, floored so it never overstates how
// far along the job is. It only moves forward because CurrentUnit only moves
// forward.
func (j *Job) Percent() int {
	if j.Status == StatusCompleted {
		return 100
	}
	if j.TotalUnits <= 0 {
		return 0
	}
	return j.CurrentUnit * 100 / j.TotalUnits
}

// WordCount is the whitespace-token count of the submitted text.
func (j *Job) WordCount() int {
	return rsvp.WordCount(j.Text)
}
