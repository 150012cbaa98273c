package catalog

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a job or clip does not exist.
var ErrNotFound = errors.New("not found")

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Done reports whether s is terminal.
func (s Status) Done() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one batch run: a source video split into clips in OutputDir.
type Job struct {
	ID         string        `json:"id"`
	URL        string        `json:"url,omitempty"`
	SourcePath string        `json:"source_path,omitempty"`
	Duration   time.Duration `json:"-"`
	OutputDir  string        `json:"output_dir"`
	Title      string        `json:"title"`
	Subtitle   string        `json:"subtitle"`
	Status     Status        `json:"status"`
	Progress   int           `json:"progress"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
