package clips

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/ytclipper/internal/ffmpeg"
	"github.com/kikiluvv/ytclipper/internal/overlays"
	"github.com/kikiluvv/ytclipper/internal/segments"
	"github.com/kikiluvv/ytclipper/internal/video"
	"github.com/kikiluvv/ytclipper/pkg/util"
)

// Layout selects how title and subtitle are combined with a clip.
type Layout string

const (
	// LayoutConcat appends a title card and a subtitle card after the
	// clip, each as long as the clip.
	LayoutConcat Layout = "concat"
	// LayoutComposite draws both texts over the clip frames.
	LayoutComposite Layout = "composite"
)

// Annotation is the text put on every clip of a batch.
type Annotation struct {
	Title    string
	Subtitle string
}

// RendererOptions configures a Renderer.
type RendererOptions struct {
	Layout     Layout
	Style      ffmpeg.TextStyle
	Background string
}

// Renderer turns one window of a source video into a finished clip file.
type Renderer struct {
	enc        Encoder
	logger     zerolog.Logger
	layout     Layout
	style      ffmpeg.TextStyle
	background string
}

// NewRenderer creates a renderer. An empty layout means LayoutConcat.
func NewRenderer(enc Encoder, logger zerolog.Logger, opts RendererOptions) *Renderer {
	layout := opts.Layout
	if layout == "" {
		layout = LayoutConcat
	}
	return &Renderer{
		enc:        enc,
		logger:     logger.With().Str("component", "renderer").Logger(),
		layout:     layout,
		style:      opts.Style,
		background: opts.Background,
	}
}

// Render writes <outDir>/clip_<index>.mp4 for window w of src. The
// extracted subclip is replaced in place by the annotated result.
func (r *Renderer) Render(ctx context.Context, src *video.Source, outDir string, w segments.Window, index int, ann Annotation) (*Clip, error) {
	if err := w.Validate(src.Duration); err != nil {
		return nil, fmt.Errorf("%w: clip %d: %v", ErrInvalidWindow, index, err)
	}

	clipPath := filepath.Join(outDir, FileName(index))
	log := r.logger.With().Int("index", index).Str("window", w.String()).Logger()
	log.Debug().Str("output", clipPath).Msg("rendering clip")

	err := r.enc.ExtractClip(ctx, src.Path, ffmpeg.ClipOptions{
		Start:  w.Start,
		End:    w.End,
		Output: clipPath,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: clip %d: %w", ErrExtraction, index, err)
	}

	tmpPath := util.SiblingPath(clipPath, "tmp")
	defer util.CleanupFiles(tmpPath)

	switch r.layout {
	case LayoutComposite:
		err = r.composite(ctx, clipPath, tmpPath, ann)
	default:
		err = r.concat(ctx, clipPath, tmpPath, w, ann)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: clip %d: %w", ErrRender, index, err)
	}

	if err := util.ReplaceFile(tmpPath, clipPath); err != nil {
		return nil, fmt.Errorf("%w: clip %d: %w", ErrRender, index, err)
	}

	log.Info().Str("output", clipPath).Msg("clip rendered")
	return &Clip{
		Index: index,
		Path:  clipPath,
		Start: w.Start,
		End:   w.End,
	}, nil
}

// concat renders [clip][title card][subtitle card] into out.
func (r *Renderer) concat(ctx context.Context, clipPath, out string, w segments.Window, ann Annotation) error {
	info, err := r.enc.ProbeVideo(ctx, clipPath)
	if err != nil {
		return fmt.Errorf("probe extracted clip: %w", err)
	}
	if info.Duration <= 0 {
		info.Duration = w.Duration()
	}

	titlePath := util.SiblingPath(clipPath, "title")
	subtitlePath := util.SiblingPath(clipPath, "subtitle")
	defer util.CleanupFiles(titlePath, subtitlePath)

	lines := overlays.Lines(ann.Title, ann.Subtitle, r.style)
	for i, path := range []string{titlePath, subtitlePath} {
		opts := ffmpeg.CardFromClip(info, lines[i], path)
		opts.Background = r.background
		if err := r.enc.RenderTextCard(ctx, opts); err != nil {
			return err
		}
	}

	return r.enc.Concat(ctx, ffmpeg.ConcatOptions{
		Inputs:   []string{clipPath, titlePath, subtitlePath},
		Output:   out,
		ReEncode: true,
	})
}

func (r *Renderer) composite(ctx context.Context, clipPath, out string, ann Annotation) error {
	return r.enc.OverlayText(ctx, clipPath, out, overlays.Lines(ann.Title, ann.Subtitle, r.style), nil)
}
