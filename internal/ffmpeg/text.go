package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	ffmpego "github.com/u2takey/ffmpeg-go"
)

// TextCardOptions describes a generated segment showing one line of text on
// a solid background. Size, frame rate and audio layout should match the
// clip the card is concatenated with.
type TextCardOptions struct {
	Overlay    TextOverlay
	Duration   time.Duration
	Width      int
	Height     int
	FrameRate  string
	Background string

	WithAudio  bool
	SampleRate int
	Channels   int

	Output string
}

// CardFromClip fills the geometry and audio layout of a card from a probed clip.
func CardFromClip(info *VideoInfo, overlay TextOverlay, output string) TextCardOptions {
	opts := TextCardOptions{
		Overlay:  overlay,
		Duration: info.Duration,
		Width:    info.Width,
		Height:   info.Height,
		Output:   output,
	}
	if info.FrameRate != "" && info.FPS > 0 {
		opts.FrameRate = info.FrameRate
	}
	if info.HasAudio {
		opts.WithAudio = true
		opts.SampleRate = info.SampleRate
		opts.Channels = info.Channels
	}
	return opts
}

// RenderTextCard encodes a text card to opts.Output.
func (e *Executor) RenderTextCard(ctx context.Context, opts TextCardOptions) error {
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.Duration <= 0 {
		return fmt.Errorf("text card duration must be positive, got %v", opts.Duration)
	}

	textFile, err := writeTextFile(opts.Overlay.Text)
	if err != nil {
		return fmt.Errorf("failed to write card text: %w", err)
	}
	defer os.Remove(textFile)

	e.logger.Info().
		Str("output", opts.Output).
		Str("position", string(opts.Overlay.Position)).
		Dur("duration", opts.Duration).
		Msg("rendering text card")

	runOpts := RunOptions{
		Args: textCardArgs(opts, textFile, e.preset, e.crf),
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("text card")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("text card render failed: %w", err)
	}
	return nil
}

// textCardArgs builds the ffmpeg argument list (without the binary and
// global flags) for a text card.
func textCardArgs(opts TextCardOptions, textFile, preset string, crf int) []string {
	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}
	rate := opts.FrameRate
	if rate == "" {
		rate = DefaultFrameRate
	}
	background := opts.Background
	if background == "" {
		background = "black"
	}
	secs := strconv.FormatFloat(opts.Duration.Seconds(), 'f', 3, 64)

	source := fmt.Sprintf("color=c=%s:s=%dx%d:r=%s:d=%s", background, width, height, rate, secs)
	video := ffmpego.Input(source, ffmpego.KwArgs{"f": "lavfi"}).
		Filter("drawtext", ffmpego.Args{}, drawTextKwArgs(opts.Overlay, textFile))

	streams := []*ffmpego.Stream{video}
	outArgs := ffmpego.KwArgs{
		"c:v":      DefaultVideoCodec,
		"preset":   preset,
		"crf":      crf,
		"pix_fmt":  DefaultPixFmt,
		"movflags": "+faststart",
	}

	if opts.WithAudio {
		layout := "stereo"
		if opts.Channels == 1 {
			layout = "mono"
		}
		sampleRate := opts.SampleRate
		if sampleRate <= 0 {
			sampleRate = DefaultSampleRate
		}
		silence := fmt.Sprintf("anullsrc=channel_layout=%s:sample_rate=%d", layout, sampleRate)
		streams = append(streams, ffmpego.Input(silence, ffmpego.KwArgs{"f": "lavfi", "t": secs}))
		outArgs["c:a"] = DefaultAudioCodec
	}

	return ffmpego.Output(streams, opts.Output, outArgs).GetArgs()
}

func drawTextKwArgs(overlay TextOverlay, textFile string) ffmpego.KwArgs {
	kw := ffmpego.KwArgs{
		"textfile":  textFile,
		"expansion": "none",
		"fontsize":  fontSize(overlay.Style),
		"fontcolor": fontColor(overlay.Style),
		"x":         textX,
		"y":         textY(overlay.Position),
	}
	if overlay.Style.FontFile != "" {
		kw["fontfile"] = overlay.Style.FontFile
	}
	return kw
}
