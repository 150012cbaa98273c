package ffmpeg

import (
	"context"
	"fmt"
	"os"
)

// OverlayText burns overlays on top of input for its whole duration and
// writes the result to output. Audio is copied.
func (e *Executor) OverlayText(ctx context.Context, input, output string, overlays []TextOverlay, progressFunc ProgressFunc) error {
	if input == "" {
		return fmt.Errorf("input path is required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}
	if input == output {
		return fmt.Errorf("output must differ from input %s", input)
	}
	if len(overlays) == 0 {
		return fmt.Errorf("no text overlays provided")
	}

	e.logger.Info().
		Str("input", input).
		Str("output", output).
		Int("overlays", len(overlays)).
		Msg("compositing text overlays")

	fb := NewFilterBuilder()
	for _, ov := range overlays {
		textFile, err := writeTextFile(ov.Text)
		if err != nil {
			return fmt.Errorf("failed to write overlay text: %w", err)
		}
		defer os.Remove(textFile)
		fb.DrawText(textFile, ov.Position, ov.Style)
	}
	fb.Format(DefaultPixFmt)

	args := []string{
		"-i", input,
		"-map", "0:v:0",
		"-map", "0:a:0?",
		"-vf", fb.Build(),
		"-c:v", DefaultVideoCodec,
		"-preset", e.preset,
		"-crf", fmt.Sprintf("%d", e.crf),
		"-c:a", "copy",
		"-movflags", "+faststart",
		output,
	}

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: progressFunc,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("overlay output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("overlay failed: %w", err)
	}

	e.logger.Info().Str("output", output).Msg("overlay completed")
	return nil
}

// writeTextFile stores text in a temp file for drawtext's textfile option.
func writeTextFile(text string) (string, error) {
	f, err := os.CreateTemp("", "ytclipper-text-*.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
