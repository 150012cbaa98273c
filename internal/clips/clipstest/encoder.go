// Package clipstest provides an in-memory Encoder for tests. It writes small
// text files describing each operation so results can be asserted on disk.
package clipstest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/kikiluvv/ytclipper/internal/ffmpeg"
)

// Call records one encoder invocation.
type Call struct {
	Op     string
	Input  string
	Output string
	Start  time.Duration
	End    time.Duration
	Text   string
}

// Encoder is a fake clips.Encoder. Fail* fields make the matching call
// return an error, counted from 1; zero means never fail.
type Encoder struct {
	mu    sync.Mutex
	calls []Call

	// Durations maps a path to the duration ProbeVideo reports for it.
	// Extracted files are registered automatically.
	Durations map[string]time.Duration

	FailExtractAt int
	FailCardAt    int
	FailConcatAt  int

	extracts int
	cards    int
	concats  int
}

// New creates a fake encoder.
func New() *Encoder {
	return &Encoder{Durations: make(map[string]time.Duration)}
}

// Calls returns a snapshot of recorded calls.
func (e *Encoder) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// CallsOf returns the recorded calls of one operation.
func (e *Encoder) CallsOf(op string) []Call {
	var out []Call
	for _, c := range e.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (e *Encoder) record(c Call) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, c)
}

// ProbeVideo reports a 1280x720 stereo clip with the registered duration.
func (e *Encoder) ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error) {
	e.record(Call{Op: "probe", Input: path})
	e.mu.Lock()
	d, ok := e.Durations[path]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("probe %s: %w", path, ffmpeg.ErrNotFound)
	}
	return &ffmpeg.VideoInfo{
		FilePath:   path,
		Duration:   d,
		Width:      1280,
		Height:     720,
		FPS:        30,
		FrameRate:  "30/1",
		HasAudio:   true,
		SampleRate: 44100,
		Channels:   2,
	}, nil
}

// ExtractClip writes "extract <input> <start>-<end>" to the output.
func (e *Encoder) ExtractClip(ctx context.Context, input string, opts ffmpeg.ClipOptions) error {
	e.record(Call{Op: "extract", Input: input, Output: opts.Output, Start: opts.Start, End: opts.End})
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	e.extracts++
	n := e.extracts
	e.mu.Unlock()
	if e.FailExtractAt > 0 && n == e.FailExtractAt {
		return errors.New("fake extract failure")
	}
	if input == opts.Output {
		return fmt.Errorf("output must differ from input %s", input)
	}
	body := fmt.Sprintf("extract %s %d-%d", input, int(opts.Start/time.Second), int(opts.End/time.Second))
	if err := os.WriteFile(opts.Output, []byte(body), 0o644); err != nil {
		return err
	}
	e.mu.Lock()
	e.Durations[opts.Output] = opts.End - opts.Start
	e.mu.Unlock()
	return nil
}

// RenderTextCard writes "card <text> <duration>" to the output.
func (e *Encoder) RenderTextCard(ctx context.Context, opts ffmpeg.TextCardOptions) error {
	e.record(Call{Op: "card", Output: opts.Output, End: opts.Duration, Text: opts.Overlay.Text})
	e.mu.Lock()
	e.cards++
	n := e.cards
	e.mu.Unlock()
	if e.FailCardAt > 0 && n == e.FailCardAt {
		return errors.New("fake card failure")
	}
	body := fmt.Sprintf("card %s %ds", opts.Overlay.Text, int(opts.Duration/time.Second))
	return os.WriteFile(opts.Output, []byte(body), 0o644)
}

// Concat joins the input file contents with " | ".
func (e *Encoder) Concat(ctx context.Context, opts ffmpeg.ConcatOptions) error {
	e.record(Call{Op: "concat", Input: strings.Join(opts.Inputs, ","), Output: opts.Output})
	e.mu.Lock()
	e.concats++
	n := e.concats
	e.mu.Unlock()
	if e.FailConcatAt > 0 && n == e.FailConcatAt {
		return errors.New("fake concat failure")
	}
	parts := make([]string, 0, len(opts.Inputs))
	for _, in := range opts.Inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		parts = append(parts, string(data))
	}
	return os.WriteFile(opts.Output, []byte(strings.Join(parts, " | ")), 0o644)
}

// OverlayText writes the input contents followed by the overlay texts.
func (e *Encoder) OverlayText(ctx context.Context, input, output string, overlays []ffmpeg.TextOverlay, progress ffmpeg.ProgressFunc) error {
	texts := make([]string, 0, len(overlays))
	for _, o := range overlays {
		texts = append(texts, fmt.Sprintf("%s@%s", o.Text, o.Position))
	}
	e.record(Call{Op: "overlay", Input: input, Output: output, Text: strings.Join(texts, ",")})
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("%s + text %s", data, strings.Join(texts, ","))
	return os.WriteFile(output, []byte(body), 0o644)
}
