package api

import (
	"time"

	"github.com/kikiluvv/ytclipper/internal/catalog"
	"github.com/kikiluvv/ytclipper/internal/clips"
)

type HealthResponse struct {
	Status  string `json:"status"`
	UptimeS int64  `json:"uptime_s"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type CreateJobRequest struct {
	URL        string `json:"url,omitempty"`
	SourcePath string `json:"source_path,omitempty"`
	OutputDir  string `json:"output_dir,omitempty"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
}

type CreateJobResponse struct {
	JobID string `json:"job_id"`
}

type JobResponse struct {
	ID              string `json:"id"`
	URL             string `json:"url,omitempty"`
	SourcePath      string `json:"source_path,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
	OutputDir       string `json:"output_dir"`
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	Status          string `json:"status"`
	Progress        int    `json:"progress"`
	Error           string `json:"error,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

// UpdateClipRequest carries new source bounds in seconds.
type UpdateClipRequest struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

type ClipResponse struct {
	ID      string  `json:"id"`
	JobID   string  `json:"job_id"`
	Index   int     `json:"index"`
	Path    string  `json:"path"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	FileURL string  `json:"file_url"`
}

type ClipsResponse struct {
	Clips []ClipResponse `json:"clips"`
}

func JobToResponse(j *catalog.Job) JobResponse {
	return JobResponse{
		ID:              j.ID,
		URL:             j.URL,
		SourcePath:      j.SourcePath,
		DurationSeconds: int(j.Duration / time.Second),
		OutputDir:       j.OutputDir,
		Title:           j.Title,
		Subtitle:        j.Subtitle,
		Status:          string(j.Status),
		Progress:        j.Progress,
		Error:           j.Error,
		CreatedAt:       j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       j.UpdatedAt.Format(time.RFC3339),
	}
}

func ClipToResponse(c *clips.Clip) ClipResponse {
	return ClipResponse{
		ID:      c.ID,
		JobID:   c.JobID,
		Index:   c.Index,
		Path:    c.Path,
		Start:   c.Start.Seconds(),
		End:     c.End.Seconds(),
		FileURL: "/clips/" + c.ID + "/file",
	}
}
