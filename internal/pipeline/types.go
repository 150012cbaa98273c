package pipeline

import (
	"errors"
	"strings"
	"time"

	"github.com/kikiluvv/ytclipper/internal/clips"
	"github.com/kikiluvv/ytclipper/internal/video"
)

// Request describes one batch: where the video comes from, where clips
// go, and the text put on each clip. Exactly one of URL and SourcePath is
// set.
type Request struct {
	URL        string
	SourcePath string
	OutputDir  string
	Annotation clips.Annotation
}

// Validate checks the request shape.
func (r Request) Validate() error {
	url := strings.TrimSpace(r.URL)
	switch {
	case url == "" && r.SourcePath == "":
		return errors.New("a video url or source path is required")
	case url != "" && r.SourcePath != "":
		return errors.New("url and source path are mutually exclusive")
	case r.OutputDir == "":
		return errors.New("output directory is required")
	}
	return nil
}

// EventType identifies a job event.
type EventType int

const (
	// EventSource carries the acquired source video.
	EventSource EventType = iota
	// EventClip carries a finished clip and the batch progress.
	EventClip
	// EventCompleted carries every clip in window order. Terminal.
	EventCompleted
	// EventFailed carries the error that aborted the batch. Terminal.
	EventFailed
)

func (t EventType) String() string {
	switch t {
	case EventSource:
		return "source"
	case EventClip:
		return "clip"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	}
	return "unknown"
}

// Event is published by a running job.
type Event struct {
	Type     EventType
	Source   *video.Source
	Clip     *clips.Clip
	Progress int
	Clips    []*clips.Clip
	Err      error
}

// Result is the outcome of a completed job.
type Result struct {
	JobID  string
	Source *video.Source
	Clips  []*clips.Clip
}

// Progress is the integer percentage after done of total clips.
func Progress(done, total int) int {
	if total <= 0 {
		return 100
	}
	return (done * 100) / total
}

// Manifest describes a finished batch. It is written as manifest.json in
// the output directory.
type Manifest struct {
	JobID           string         `json:"job_id"`
	URL             string         `json:"url,omitempty"`
	Source          string         `json:"source"`
	DurationSeconds int            `json:"duration_seconds"`
	Title           string         `json:"title"`
	Subtitle        string         `json:"subtitle"`
	Clips           []ManifestClip `json:"clips"`
	CreatedAt       time.Time      `json:"created_at"`
}

// ManifestClip is one clip entry of a manifest. Times are in seconds.
type ManifestClip struct {
	ID    string  `json:"id"`
	Index int     `json:"index"`
	File  string  `json:"file"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}
