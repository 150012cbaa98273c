// Package segments plans the time windows a source video is cut into.
//
// Candidate starts are laid on a fixed stride over the timeline, shuffled,
// and each gets a random length clamped to the end of the video.
package segments

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Defaults for the stride and the clip length range, in seconds.
const (
	DefaultStride    = 55
	DefaultMinLength = 30
	DefaultMaxLength = 55
)

// Window is a clip boundary pair, 0 <= Start < End <= source duration.
type Window struct {
	Start time.Duration
	End   time.Duration
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return w.End - w.Start
}

// Validate reports whether w is a non-empty window inside [0, total].
func (w Window) Validate(total time.Duration) error {
	if w.Start < 0 || w.End <= w.Start || w.End > total {
		return fmt.Errorf("window %v-%v outside [0, %v]", w.Start, w.End, total)
	}
	return nil
}

func (w Window) String() string {
	return fmt.Sprintf("%ds-%ds", int(w.Start/time.Second), int(w.End/time.Second))
}

// Planner produces shuffled stride-aligned windows. The zero value is not
// usable; build one with New.
type Planner struct {
	stride    int
	minLength int
	maxLength int
	rng       *rand.Rand
}

// Option customizes a Planner.
type Option func(*Planner)

// WithStride sets the distance between candidate starts, in seconds.
func WithStride(seconds int) Option {
	return func(p *Planner) { p.stride = seconds }
}

// WithLengths sets the inclusive clip length range, in seconds.
func WithLengths(minSeconds, maxSeconds int) Option {
	return func(p *Planner) {
		p.minLength = minSeconds
		p.maxLength = maxSeconds
	}
}

// WithRand sets the random source, mainly for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(p *Planner) { p.rng = rng }
}

// New returns a Planner with the default stride and lengths.
func New(opts ...Option) (*Planner, error) {
	p := &Planner{
		stride:    DefaultStride,
		minLength: DefaultMinLength,
		maxLength: DefaultMaxLength,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.stride <= 0 {
		return nil, fmt.Errorf("stride must be positive, got %d", p.stride)
	}
	if p.minLength <= 0 || p.maxLength < p.minLength {
		return nil, fmt.Errorf("invalid length range [%d, %d]", p.minLength, p.maxLength)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return p, nil
}

// Plan returns one window per stride start in [0, total), in random order.
// total is truncated to whole seconds; a total under one second yields no
// windows.
func (p *Planner) Plan(total time.Duration) []Window {
	seconds := int(total / time.Second)
	if seconds <= 0 {
		return nil
	}

	starts := make([]int, 0, (seconds+p.stride-1)/p.stride)
	for s := 0; s < seconds; s += p.stride {
		starts = append(starts, s)
	}
	p.rng.Shuffle(len(starts), func(i, j int) {
		starts[i], starts[j] = starts[j], starts[i]
	})

	windows := make([]Window, 0, len(starts))
	for _, s := range starts {
		length := p.minLength + p.rng.IntN(p.maxLength-p.minLength+1)
		end := min(s+length, seconds)
		windows = append(windows, Window{
			Start: time.Duration(s) * time.Second,
			End:   time.Duration(end) * time.Second,
		})
	}
	return windows
}
