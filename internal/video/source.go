package video

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kikiluvv/ytclipper/internal/ffmpeg"
	"github.com/kikiluvv/ytclipper/pkg/util"
)

// Source is a downloaded (or local) video. Immutable once created.
type Source struct {
	Path     string
	Duration time.Duration // whole seconds
	URL      string
	Title    string
}

// Seconds returns the duration in whole seconds.
func (s Source) Seconds() int {
	return int(s.Duration / time.Second)
}

// Prober reads media metadata.
type Prober interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
}

// Open builds a Source from a local file, probing its duration.
func Open(ctx context.Context, prober Prober, path string) (*Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if !util.FileExists(abs) {
		return nil, fmt.Errorf("%w: %s", ffmpeg.ErrNotFound, abs)
	}

	info, err := prober.ProbeVideo(ctx, abs)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", abs, err)
	}

	return &Source{
		Path:     abs,
		Duration: info.Duration.Truncate(time.Second),
		Title:    filepath.Base(abs),
	}, nil
}
