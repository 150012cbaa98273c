package clips

import (
	"context"

	"github.com/kikiluvv/ytclipper/internal/ffmpeg"
)

// Encoder is the subset of the ffmpeg executor the renderer and editor use.
type Encoder interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
	ExtractClip(ctx context.Context, input string, opts ffmpeg.ClipOptions) error
	RenderTextCard(ctx context.Context, opts ffmpeg.TextCardOptions) error
	Concat(ctx context.Context, opts ffmpeg.ConcatOptions) error
	OverlayText(ctx context.Context, input, output string, overlays []ffmpeg.TextOverlay, progress ffmpeg.ProgressFunc) error
}

var _ Encoder = (*ffmpeg.Executor)(nil)
