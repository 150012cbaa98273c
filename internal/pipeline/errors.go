package pipeline

import (
	"errors"

	"github.com/kikiluvv/ytclipper/internal/clips"
)

// Failure kinds of a batch job. Match with errors.Is.
var (
	// ErrDownload means acquisition did not yield a usable source video.
	ErrDownload = errors.New("video download failed")

	ErrExtraction    = clips.ErrExtraction
	ErrRender        = clips.ErrRender
	ErrInvalidWindow = clips.ErrInvalidWindow
)
