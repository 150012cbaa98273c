package clips

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/ytclipper/internal/ffmpeg"
	"github.com/kikiluvv/ytclipper/internal/segments"
	"github.com/kikiluvv/ytclipper/internal/video"
	"github.com/kikiluvv/ytclipper/pkg/util"
)

// BoundsStore persists edited clip bounds.
type BoundsStore interface {
	UpdateClipBounds(ctx context.Context, clipID string, start, end time.Duration) error
}

// Editor re-trims rendered clips.
type Editor struct {
	enc    Encoder
	store  BoundsStore
	logger zerolog.Logger
}

// NewEditor creates an editor. store may be nil.
func NewEditor(enc Encoder, store BoundsStore, logger zerolog.Logger) *Editor {
	return &Editor{
		enc:    enc,
		store:  store,
		logger: logger.With().Str("component", "editor").Logger(),
	}
}

// Retrim re-extracts [start, end) from the original source into the clip's
// file and updates the clip in place. Title and subtitle are not reapplied.
func (e *Editor) Retrim(ctx context.Context, clip *Clip, src *video.Source, start, end time.Duration) error {
	w := segments.Window{Start: start, End: end}
	if err := w.Validate(src.Duration); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	if clip.Path == src.Path {
		return fmt.Errorf("%w: clip path is the source video", ErrInvalidWindow)
	}

	e.logger.Info().
		Str("clip", clip.Path).
		Str("from", clip.Window().String()).
		Str("to", w.String()).
		Msg("re-trimming clip")

	tmpPath := util.SiblingPath(clip.Path, "tmp")
	defer util.CleanupFiles(tmpPath)

	err := e.enc.ExtractClip(ctx, src.Path, ffmpeg.ClipOptions{
		Start:  start,
		End:    end,
		Output: tmpPath,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	if err := util.ReplaceFile(tmpPath, clip.Path); err != nil {
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	clip.Start, clip.End = start, end

	if e.store != nil && clip.ID != "" {
		if err := e.store.UpdateClipBounds(ctx, clip.ID, start, end); err != nil {
			return fmt.Errorf("persist clip bounds: %w", err)
		}
	}
	return nil
}
