package gui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/ytclipper/internal/clips"
	"github.com/kikiluvv/ytclipper/internal/logging"
	"github.com/kikiluvv/ytclipper/internal/pipeline"
	"github.com/kikiluvv/ytclipper/internal/video"
)

// Runner starts batch jobs and re-trims clips. *pipeline.Pipeline
// implements it.
type Runner interface {
	Start(ctx context.Context, req pipeline.Request) (*pipeline.Job, error)
	Retrim(ctx context.Context, clip *clips.Clip, src *video.Source, start, end time.Duration) error
}

// ErrBusy is returned when a batch is already running.
var ErrBusy = errors.New("a batch is already running")

// Session holds the state behind the window: the running batch, the
// source video and the finished clip list. Callbacks run on the worker's
// goroutine; the window hops to the UI thread itself.
type Session struct {
	runner Runner
	logger zerolog.Logger
	clips  *clips.Manager

	mu      sync.Mutex
	source  *video.Source
	sources map[string]*video.Source // by job ID
	busy    bool
}

// Callbacks receive batch updates.
type Callbacks struct {
	Source   func(*video.Source)
	Progress func(int)
	Done     func([]*clips.Clip, error)
}

// NewSession creates a session.
func NewSession(runner Runner, logger zerolog.Logger) *Session {
	return &Session{
		runner: runner,
		logger: logging.WithComponent(logger, "gui"),
		clips:  clips.NewManager(),

		sources: make(map[string]*video.Source),
	}
}

// Clips returns the clip list shown in the window.
func (s *Session) Clips() *clips.Manager {
	return s.clips
}

// Source returns the source of the latest batch, if any.
func (s *Session) Source() *video.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Busy reports whether a batch is running.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Start launches a batch. Finished clips are appended to the list before
// cb.Done is called.
func (s *Session) Start(ctx context.Context, req pipeline.Request, cb Callbacks) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.mu.Unlock()

	job, err := s.runner.Start(ctx, req)
	if err != nil {
		s.setBusy(false)
		return err
	}

	go s.consume(job, cb)
	return nil
}

func (s *Session) consume(job *pipeline.Job, cb Callbacks) {
	defer s.setBusy(false)

	for ev := range job.Events() {
		switch ev.Type {
		case pipeline.EventSource:
			s.mu.Lock()
			s.source = ev.Source
			s.sources[job.ID] = ev.Source
			s.mu.Unlock()
			if cb.Source != nil {
				cb.Source(ev.Source)
			}
		case pipeline.EventClip:
			if cb.Progress != nil {
				cb.Progress(ev.Progress)
			}
		case pipeline.EventCompleted:
			for _, c := range ev.Clips {
				s.clips.Add(c)
			}
			if cb.Progress != nil {
				cb.Progress(100)
			}
			if cb.Done != nil {
				cb.Done(ev.Clips, nil)
			}
		case pipeline.EventFailed:
			s.logger.Error().Err(ev.Err).Str("job_id", job.ID).Msg("batch failed")
			if cb.Done != nil {
				cb.Done(nil, ev.Err)
			}
		}
	}
}

func (s *Session) setBusy(busy bool) {
	s.mu.Lock()
	s.busy = busy
	s.mu.Unlock()
}

// Retrim re-extracts the i-th clip from the source of the batch that
// produced it.
func (s *Session) Retrim(ctx context.Context, i int, start, end time.Duration) error {
	clip := s.clips.At(i)
	if clip == nil {
		return fmt.Errorf("no clip at %d", i)
	}
	s.mu.Lock()
	src := s.sources[clip.JobID]
	s.mu.Unlock()
	if src == nil {
		return errors.New("source video is not available")
	}
	return s.runner.Retrim(ctx, clip, src, start, end)
}
