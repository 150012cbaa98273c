package gui

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/ytclipper/internal/clips"
	"github.com/kikiluvv/ytclipper/internal/clips/clipstest"
	"github.com/kikiluvv/ytclipper/internal/pipeline"
)

func newTestSession(t *testing.T, enc *clipstest.Encoder) *Session {
	t.Helper()
	p, err := pipeline.NewWithDeps(zerolog.Nop(), pipeline.Deps{Encoder: enc})
	require.NoError(t, err)
	return NewSession(p, zerolog.Nop())
}

func sourceFile(t *testing.T, enc *clipstest.Encoder, d time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video"), 0o644))
	enc.Durations[path] = d
	return path
}

type recorder struct {
	mu       sync.Mutex
	progress []int
	clips    []*clips.Clip
	err      error
	done     chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		Progress: func(p int) {
			r.mu.Lock()
			r.progress = append(r.progress, p)
			r.mu.Unlock()
		},
		Done: func(c []*clips.Clip, err error) {
			r.mu.Lock()
			r.clips, r.err = c, err
			r.mu.Unlock()
			close(r.done)
		},
	}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(10 * time.Second):
		t.Fatal("batch did not finish")
	}
}

func TestSession_Batch(t *testing.T) {
	enc := clipstest.New()
	s := newTestSession(t, enc)
	rec := newRecorder()

	err := s.Start(context.Background(), pipeline.Request{
		SourcePath: sourceFile(t, enc, 120*time.Second),
		OutputDir:  t.TempDir(),
	}, rec.callbacks())
	require.NoError(t, err)
	rec.wait(t)

	require.NoError(t, rec.err)
	assert.Len(t, rec.clips, 3)
	assert.Equal(t, 3, s.Clips().Len())
	assert.Equal(t, 100, rec.progress[len(rec.progress)-1])
	require.NotNil(t, s.Source())
	assert.Equal(t, 120*time.Second, s.Source().Duration)

	assert.Eventually(t, func() bool { return !s.Busy() }, time.Second, 5*time.Millisecond)
}

func TestSession_Failure(t *testing.T) {
	enc := clipstest.New()
	enc.FailExtractAt = 1
	s := newTestSession(t, enc)
	rec := newRecorder()

	require.NoError(t, s.Start(context.Background(), pipeline.Request{
		SourcePath: sourceFile(t, enc, 120*time.Second),
		OutputDir:  t.TempDir(),
	}, rec.callbacks()))
	rec.wait(t)

	assert.ErrorIs(t, rec.err, pipeline.ErrExtraction)
	assert.Equal(t, 0, s.Clips().Len())
}

func TestSession_InvalidRequest(t *testing.T) {
	s := newTestSession(t, clipstest.New())
	err := s.Start(context.Background(), pipeline.Request{}, Callbacks{})
	assert.Error(t, err)
	assert.False(t, s.Busy())
}

func TestSession_Retrim(t *testing.T) {
	enc := clipstest.New()
	s := newTestSession(t, enc)
	rec := newRecorder()
	src := sourceFile(t, enc, 120*time.Second)

	require.NoError(t, s.Start(context.Background(), pipeline.Request{
		SourcePath: src,
		OutputDir:  t.TempDir(),
	}, rec.callbacks()))
	rec.wait(t)

	require.NoError(t, s.Retrim(context.Background(), 1, 10*time.Second, 40*time.Second))
	clip := s.Clips().At(1)
	assert.Equal(t, 10*time.Second, clip.Start)
	assert.Equal(t, 40*time.Second, clip.End)

	calls := enc.CallsOf("extract")
	assert.Equal(t, src, calls[len(calls)-1].Input)

	assert.ErrorIs(t, s.Retrim(context.Background(), 0, 40*time.Second, 10*time.Second), pipeline.ErrInvalidWindow)
	assert.ErrorIs(t, s.Retrim(context.Background(), 1, 20*time.Second, 20*time.Second), pipeline.ErrInvalidWindow)
	assert.Equal(t, 10*time.Second, s.Clips().At(1).Start)
	assert.Equal(t, 40*time.Second, s.Clips().At(1).End)
	assert.Error(t, s.Retrim(context.Background(), 99, 0, time.Second))
}

func TestClipLabel(t *testing.T) {
	c := &clips.Clip{Path: "/out/clip_2.mp4", Start: 110 * time.Second, End: 120 * time.Second}
	assert.Equal(t, "clip_2.mp4  110s - 120s", clipLabel(c))
}
