package ffmpeg

import (
	"context"
	"fmt"
	"time"

	"github.com/kikiluvv/ytclipper/pkg/util"
)

// ClipOptions defines clip extraction parameters
type ClipOptions struct {
	Start        time.Duration
	End          time.Duration
	Output       string
	CopyCodec    bool // If true, use -c copy for fast, keyframe-aligned extraction
	VideoCodec   string
	AudioCodec   string
	CRF          int // Quality (0-51, lower = better)
	ProgressFunc ProgressFunc
}

// ExtractClip cuts the segment [Start, End) of input into opts.Output,
// overwriting it. The input is never modified, so Output may be any path
// other than input itself.
func (e *Executor) ExtractClip(ctx context.Context, input string, opts ClipOptions) error {
	duration := opts.End - opts.Start
	if opts.Start < 0 || duration <= 0 {
		return fmt.Errorf("invalid clip window %v-%v: end must be after start", opts.Start, opts.End)
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.Output == input {
		return fmt.Errorf("output must differ from input %s", input)
	}
	if !util.FileExists(input) {
		return fmt.Errorf("%w: %s", ErrNotFound, input)
	}

	e.logger.Info().
		Str("input", input).
		Str("output", opts.Output).
		Dur("start", opts.Start).
		Dur("duration", duration).
		Bool("copy_codec", opts.CopyCodec).
		Msg("extracting clip")

	// -ss before -i seeks on the input; with re-encoding the cut is frame accurate
	args := []string{
		"-ss", util.FormatDuration(opts.Start),
		"-i", input,
		"-t", util.FormatDuration(duration),
		"-map", "0:v:0",
		"-map", "0:a:0?",
	}

	if opts.CopyCodec {
		args = append(args, "-c", "copy")
	} else {
		codec := opts.VideoCodec
		if codec == "" {
			codec = DefaultVideoCodec
		}
		args = append(args, "-c:v", codec, "-preset", e.preset)

		crf := opts.CRF
		if crf == 0 {
			crf = e.crf
		}
		args = append(args, "-crf", fmt.Sprintf("%d", crf), "-pix_fmt", DefaultPixFmt)

		audioCodec := opts.AudioCodec
		if audioCodec == "" {
			audioCodec = DefaultAudioCodec
		}
		args = append(args, "-c:a", audioCodec)
	}

	args = append(args, "-movflags", "+faststart", opts.Output)

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("clip extraction")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("clip extraction failed: %w", err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("clip extraction complete")
	return nil
}
