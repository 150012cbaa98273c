package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/ytclipper/internal/catalog"
	"github.com/kikiluvv/ytclipper/internal/clips"
	"github.com/kikiluvv/ytclipper/internal/clips/clipstest"
	"github.com/kikiluvv/ytclipper/internal/segments"
	"github.com/kikiluvv/ytclipper/internal/video"
)

func sec(n int) time.Duration { return time.Duration(n) * time.Second }

type fakeDownloader struct {
	duration time.Duration
	err      error
	calls    int
}

func (d *fakeDownloader) Download(ctx context.Context, url, outDir string) (*video.Source, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	path := filepath.Join(outDir, "source.mp4")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		return nil, err
	}
	return &video.Source{Path: path, Duration: d.duration, URL: url, Title: "test"}, nil
}

// localSource writes a fake source file the encoder reports as d long.
func localSource(t *testing.T, enc *clipstest.Encoder, d time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video"), 0o644))
	enc.Durations[path] = d
	return path
}

func newPipeline(t *testing.T, deps Deps) *Pipeline {
	t.Helper()
	p, err := NewWithDeps(zerolog.Nop(), deps)
	require.NoError(t, err)
	return p
}

func collect(t *testing.T, job *Job) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-job.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("job did not finish")
		}
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"url", Request{URL: "https://youtu.be/x", OutputDir: "/out"}, false},
		{"local", Request{SourcePath: "/in.mp4", OutputDir: "/out"}, false},
		{"neither", Request{OutputDir: "/out"}, true},
		{"blank url", Request{URL: "  ", OutputDir: "/out"}, true},
		{"both", Request{URL: "u", SourcePath: "/in.mp4", OutputDir: "/out"}, true},
		{"no output", Request{URL: "u"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 33, Progress(1, 3))
	assert.Equal(t, 66, Progress(2, 3))
	assert.Equal(t, 100, Progress(3, 3))
	assert.Equal(t, 100, Progress(0, 0))
}

func TestNewWithDeps_RequiresEncoder(t *testing.T) {
	_, err := NewWithDeps(zerolog.Nop(), Deps{})
	assert.Error(t, err)
}

func TestStart_InvalidRequest(t *testing.T) {
	p := newPipeline(t, Deps{Encoder: clipstest.New()})
	_, err := p.Start(context.Background(), Request{OutputDir: t.TempDir()})
	assert.Error(t, err)
}

func TestRun_LocalSource120s(t *testing.T) {
	enc := clipstest.New()
	outDir := t.TempDir()
	p := newPipeline(t, Deps{Encoder: enc})

	job, err := p.Start(context.Background(), Request{
		SourcePath: localSource(t, enc, sec(120)),
		OutputDir:  outDir,
		Annotation: clips.Annotation{Title: "T", Subtitle: "S"},
	})
	require.NoError(t, err)

	events := collect(t, job)
	require.Len(t, events, 5)
	assert.Equal(t, EventSource, events[0].Type)
	assert.Equal(t, sec(120), events[0].Source.Duration)

	var progress []int
	for _, ev := range events[1:4] {
		require.Equal(t, EventClip, ev.Type)
		progress = append(progress, ev.Progress)
	}
	assert.Equal(t, []int{33, 66, 100}, progress)

	done := events[4]
	require.Equal(t, EventCompleted, done.Type)
	require.Len(t, done.Clips, 3)
	for i, c := range done.Clips {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, filepath.Join(outDir, clips.FileName(i)), c.Path)
		assert.LessOrEqual(t, c.End, sec(120))
		assert.Less(t, c.Start, c.End)
		assert.Equal(t, job.ID, c.JobID)
		assert.NotEmpty(t, c.ID)
		assert.FileExists(t, c.Path)
	}

	m, err := ReadManifest(outDir)
	require.NoError(t, err)
	assert.Equal(t, job.ID, m.JobID)
	assert.Equal(t, 120, m.DurationSeconds)
	assert.Equal(t, "T", m.Title)
	require.Len(t, m.Clips, 3)
	assert.Equal(t, "clip_0.mp4", m.Clips[0].File)
}

func TestRun_ProgressMonotonic(t *testing.T) {
	enc := clipstest.New()
	p := newPipeline(t, Deps{Encoder: enc})

	job, err := p.Start(context.Background(), Request{
		SourcePath: localSource(t, enc, sec(1000)),
		OutputDir:  t.TempDir(),
	})
	require.NoError(t, err)

	last := -1
	for _, ev := range collect(t, job) {
		if ev.Type != EventClip {
			continue
		}
		assert.GreaterOrEqual(t, ev.Progress, last)
		last = ev.Progress
	}
	assert.Equal(t, 100, last)
}

func TestRun_ZeroDuration(t *testing.T) {
	enc := clipstest.New()
	outDir := t.TempDir()
	p := newPipeline(t, Deps{Encoder: enc})

	res, err := p.Run(context.Background(), Request{
		SourcePath: localSource(t, enc, 0),
		OutputDir:  outDir,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Clips)
	assert.Empty(t, enc.CallsOf("extract"))

	matches, err := filepath.Glob(filepath.Join(outDir, "clip_*.mp4"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRun_AbortsOnFirstFailure(t *testing.T) {
	enc := clipstest.New()
	enc.FailExtractAt = 2
	p := newPipeline(t, Deps{Encoder: enc})

	job, err := p.Start(context.Background(), Request{
		SourcePath: localSource(t, enc, sec(300)),
		OutputDir:  t.TempDir(),
	})
	require.NoError(t, err)

	events := collect(t, job)
	last := events[len(events)-1]
	require.Equal(t, EventFailed, last.Type)
	assert.ErrorIs(t, last.Err, ErrExtraction)

	for _, ev := range events {
		assert.NotEqual(t, EventCompleted, ev.Type)
	}
	assert.Len(t, enc.CallsOf("extract"), 2, "no retries and no further windows")
}

func TestRun_RenderFailure(t *testing.T) {
	enc := clipstest.New()
	enc.FailConcatAt = 1
	p := newPipeline(t, Deps{Encoder: enc})

	_, err := p.Run(context.Background(), Request{
		SourcePath: localSource(t, enc, sec(60)),
		OutputDir:  t.TempDir(),
	})
	assert.ErrorIs(t, err, ErrRender)
}

func TestRun_Download(t *testing.T) {
	enc := clipstest.New()
	dl := &fakeDownloader{duration: sec(100)}
	outDir := t.TempDir()
	p := newPipeline(t, Deps{Encoder: enc, Downloader: dl})

	res, err := p.Run(context.Background(), Request{URL: "https://youtu.be/x", OutputDir: outDir})
	require.NoError(t, err)
	assert.Equal(t, 1, dl.calls)
	assert.Equal(t, filepath.Join(outDir, "source.mp4"), res.Source.Path)
	assert.Len(t, res.Clips, 2)
	for _, c := range enc.CallsOf("probe") {
		assert.NotEqual(t, res.Source.Path, c.Input, "duration reported by the downloader is used as is")
	}
}

func TestRun_DownloadWithoutDurationProbes(t *testing.T) {
	enc := clipstest.New()
	outDir := t.TempDir()
	enc.Durations[filepath.Join(outDir, "source.mp4")] = sec(50)
	planner, err := segments.New(segments.WithLengths(50, 55), segments.WithRand(rand.New(rand.NewPCG(7, 7))))
	require.NoError(t, err)
	p := newPipeline(t, Deps{Encoder: enc, Downloader: &fakeDownloader{}, Planner: planner})

	res, err := p.Run(context.Background(), Request{URL: "https://youtu.be/x", OutputDir: outDir})
	require.NoError(t, err)
	assert.Equal(t, sec(50), res.Source.Duration)
	require.Len(t, res.Clips, 1)
	assert.Equal(t, time.Duration(0), res.Clips[0].Start)
	assert.Equal(t, sec(50), res.Clips[0].End, "every length is truncated to the probed duration")
}

func TestRun_DownloadErrors(t *testing.T) {
	t.Run("downloader", func(t *testing.T) {
		enc := clipstest.New()
		p := newPipeline(t, Deps{Encoder: enc, Downloader: &fakeDownloader{err: errors.New("network")}})
		_, err := p.Run(context.Background(), Request{URL: "u", OutputDir: t.TempDir()})
		assert.ErrorIs(t, err, ErrDownload)
	})

	t.Run("no downloader", func(t *testing.T) {
		p := newPipeline(t, Deps{Encoder: clipstest.New()})
		_, err := p.Run(context.Background(), Request{URL: "u", OutputDir: t.TempDir()})
		assert.ErrorIs(t, err, ErrDownload)
	})

	t.Run("probe", func(t *testing.T) {
		p := newPipeline(t, Deps{Encoder: clipstest.New(), Downloader: &fakeDownloader{}})
		_, err := p.Run(context.Background(), Request{URL: "u", OutputDir: t.TempDir()})
		assert.ErrorIs(t, err, ErrDownload)
	})

	t.Run("missing local file", func(t *testing.T) {
		p := newPipeline(t, Deps{Encoder: clipstest.New()})
		_, err := p.Run(context.Background(), Request{SourcePath: "/nonexistent.mp4", OutputDir: t.TempDir()})
		assert.ErrorIs(t, err, ErrDownload)
	})
}

func TestRun_Cancelled(t *testing.T) {
	enc := clipstest.New()
	p := newPipeline(t, Deps{Encoder: enc})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, Request{SourcePath: localSource(t, enc, sec(120)), OutputDir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestRun_WithCatalog(t *testing.T) {
	db, err := catalog.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	enc := clipstest.New()
	outDir := t.TempDir()
	srcPath := localSource(t, enc, sec(120))
	p := newPipeline(t, Deps{Encoder: enc, Store: db})
	ctx := context.Background()

	res, err := p.Run(ctx, Request{
		SourcePath: srcPath,
		OutputDir:  outDir,
		Annotation: clips.Annotation{Title: "T"},
	})
	require.NoError(t, err)

	job, err := db.GetJob(ctx, res.JobID)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, sec(120), job.Duration)
	assert.Equal(t, srcPath, job.SourcePath)

	stored, err := db.ListClips(ctx, res.JobID)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	// re-edit the first clip through the pipeline
	clip := stored[0]
	src, err := p.OpenSource(ctx, job.SourcePath)
	require.NoError(t, err)
	require.NoError(t, p.Retrim(ctx, clip, src, sec(10), sec(40)))

	got, err := db.GetClip(ctx, clip.ID)
	require.NoError(t, err)
	assert.Equal(t, sec(10), got.Start)
	assert.Equal(t, sec(40), got.End)

	m, err := ReadManifest(outDir)
	require.NoError(t, err)
	assert.Equal(t, 10.0, m.Clips[0].Start)
	assert.Equal(t, 40.0, m.Clips[0].End)
}

func TestRun_FailureRecorded(t *testing.T) {
	db, err := catalog.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	enc := clipstest.New()
	enc.FailExtractAt = 1
	p := newPipeline(t, Deps{Encoder: enc, Store: db})

	job, err := p.Start(context.Background(), Request{
		SourcePath: localSource(t, enc, sec(120)),
		OutputDir:  t.TempDir(),
	})
	require.NoError(t, err)
	_, err = job.Wait()
	require.ErrorIs(t, err, ErrExtraction)

	record, err := db.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusFailed, record.Status)
	assert.Contains(t, record.Error, "extraction")
}

func TestUpdateManifestClip_Missing(t *testing.T) {
	assert.NoError(t, UpdateManifestClip(t.TempDir(), &clips.Clip{Index: 0}))
}
