package pipeline

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/ytclipper/internal/logging"
)

// eventBuffer lets the worker run ahead of a slow consumer by a few clips.
const eventBuffer = 16

// Job is a running batch. Events arrive in order on Events; the channel is
// closed after EventCompleted or EventFailed.
type Job struct {
	ID     string
	events chan Event
	logger zerolog.Logger
}

func newJob(id string, logger zerolog.Logger) *Job {
	return &Job{
		ID:     id,
		events: make(chan Event, eventBuffer),
		logger: logging.WithJob(logger, id),
	}
}

// Events returns the job's event stream. Use either Events or Wait, not
// both.
func (j *Job) Events() <-chan Event {
	return j.events
}

func (j *Job) send(ev Event) {
	j.events <- ev
}

// Wait drains the job and returns its result or the failure.
func (j *Job) Wait() (*Result, error) {
	res := &Result{JobID: j.ID}
	var err error
	terminal := false

	for ev := range j.events {
		switch ev.Type {
		case EventSource:
			res.Source = ev.Source
		case EventCompleted:
			res.Clips = ev.Clips
			terminal = true
		case EventFailed:
			err = ev.Err
			terminal = true
		}
	}

	if err != nil {
		return nil, err
	}
	if !terminal {
		return nil, errors.New("job ended without a result")
	}
	return res, nil
}
