package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/ytclipper/internal/catalog"
	"github.com/kikiluvv/ytclipper/internal/clips"
	"github.com/kikiluvv/ytclipper/internal/config"
	"github.com/kikiluvv/ytclipper/internal/ffmpeg"
	"github.com/kikiluvv/ytclipper/internal/logging"
	"github.com/kikiluvv/ytclipper/internal/overlays"
	"github.com/kikiluvv/ytclipper/internal/segments"
	"github.com/kikiluvv/ytclipper/internal/video"
	"github.com/kikiluvv/ytclipper/pkg/util"
)

// Store records jobs and clips. *catalog.DB implements it.
type Store interface {
	CreateJob(ctx context.Context, job *catalog.Job) error
	SetJobSource(ctx context.Context, id string, src *video.Source) error
	SetJobProgress(ctx context.Context, id string, progress int) error
	FinishJob(ctx context.Context, id string, status catalog.Status, errMsg string) error
	AddClip(ctx context.Context, clip *clips.Clip) error
	UpdateClipBounds(ctx context.Context, id string, start, end time.Duration) error
}

var _ Store = (*catalog.DB)(nil)

// Encoder is everything the pipeline needs from ffmpeg.
type Encoder interface {
	clips.Encoder
	video.Prober
}

// Deps are the collaborators of a Pipeline. Downloader and Store may be nil.
type Deps struct {
	Encoder    Encoder
	Downloader video.Downloader
	Planner    *segments.Planner
	Renderer   *clips.Renderer
	Store      Store
}

// Pipeline acquires a video, plans clip windows and renders them, one job
// at a time per Start call. It also re-trims rendered clips.
type Pipeline struct {
	logger     zerolog.Logger
	encoder    Encoder
	downloader video.Downloader
	planner    *segments.Planner
	renderer   *clips.Renderer
	editor     *clips.Editor
	store      Store
}

// New creates a pipeline from application config. store may be nil.
func New(logger zerolog.Logger, appCfg *config.Config, store Store) (*Pipeline, error) {
	exec, err := ffmpeg.New(logger, ffmpeg.Options{
		FFmpegPath:  appCfg.FFmpeg.BinaryPath,
		FFprobePath: appCfg.FFmpeg.ProbePath,
		Threads:     appCfg.FFmpeg.Threads,
		Preset:      appCfg.FFmpeg.Preset,
		CRF:         appCfg.FFmpeg.CRF,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	planner, err := segments.New(
		segments.WithStride(appCfg.Planner.Stride),
		segments.WithLengths(appCfg.Planner.MinLength, appCfg.Planner.MaxLength),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid planner config: %w", err)
	}

	renderer := clips.NewRenderer(exec, logger, clips.RendererOptions{
		Layout:     clips.Layout(appCfg.OverlayMode),
		Style:      overlays.Style(appCfg.Text),
		Background: overlays.Background(appCfg.Text),
	})

	return NewWithDeps(logger, Deps{
		Encoder:    exec,
		Downloader: video.NewYtDlp(logger, appCfg.Download.BinaryPath, appCfg.Download.Format),
		Planner:    planner,
		Renderer:   renderer,
		Store:      store,
	})
}

// NewWithDeps creates a pipeline from explicit collaborators.
func NewWithDeps(logger zerolog.Logger, deps Deps) (*Pipeline, error) {
	if deps.Encoder == nil {
		return nil, fmt.Errorf("encoder is required")
	}
	if deps.Planner == nil {
		planner, err := segments.New()
		if err != nil {
			return nil, err
		}
		deps.Planner = planner
	}
	if deps.Renderer == nil {
		deps.Renderer = clips.NewRenderer(deps.Encoder, logger, clips.RendererOptions{})
	}

	var bounds clips.BoundsStore
	if deps.Store != nil {
		bounds = deps.Store
	}

	return &Pipeline{
		logger:     logging.WithComponent(logger, "pipeline"),
		encoder:    deps.Encoder,
		downloader: deps.Downloader,
		planner:    deps.Planner,
		renderer:   deps.Renderer,
		editor:     clips.NewEditor(deps.Encoder, bounds, logger),
		store:      deps.Store,
	}, nil
}

// Start validates req, registers a job and runs it on a new goroutine.
// The caller must drain the job's events, directly or through Wait.
// Cancelling ctx stops the running encoder and fails the job.
func (p *Pipeline) Start(ctx context.Context, req Request) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	outDir, err := filepath.Abs(req.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := util.EnsureDir(outDir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	req.OutputDir = outDir

	job := newJob(uuid.NewString(), p.logger)

	if p.store != nil {
		record := &catalog.Job{
			ID:         job.ID,
			URL:        req.URL,
			SourcePath: req.SourcePath,
			OutputDir:  outDir,
			Title:      req.Annotation.Title,
			Subtitle:   req.Annotation.Subtitle,
		}
		if err := p.store.CreateJob(ctx, record); err != nil {
			return nil, err
		}
	}

	job.logger.Info().
		Str("url", req.URL).
		Str("source", req.SourcePath).
		Str("output", outDir).
		Msg("job started")

	go p.run(ctx, job, req)
	return job, nil
}

// Run starts a job and waits for it.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	job, err := p.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	return job.Wait()
}

func (p *Pipeline) run(ctx context.Context, job *Job, req Request) {
	defer close(job.events)
	started := time.Now()

	src, err := p.acquire(ctx, req)
	if err != nil {
		p.fail(job, err)
		return
	}
	job.send(Event{Type: EventSource, Source: src})
	if p.store != nil {
		if err := p.store.SetJobSource(ctx, job.ID, src); err != nil {
			job.logger.Warn().Err(err).Msg("failed to record source")
		}
	}

	windows := p.planner.Plan(src.Duration)
	job.logger.Info().
		Str("source", src.Path).
		Int("seconds", src.Seconds()).
		Int("windows", len(windows)).
		Msg("clip windows planned")

	rendered := make([]*clips.Clip, 0, len(windows))
	for i, w := range windows {
		clip, err := p.renderer.Render(ctx, src, req.OutputDir, w, i, req.Annotation)
		if err != nil {
			p.fail(job, err)
			return
		}
		clip.ID = uuid.NewString()
		clip.JobID = job.ID
		rendered = append(rendered, clip)

		progress := Progress(i+1, len(windows))
		if p.store != nil {
			if err := p.store.AddClip(ctx, clip); err != nil {
				job.logger.Warn().Err(err).Int("index", i).Msg("failed to record clip")
			}
			if err := p.store.SetJobProgress(ctx, job.ID, progress); err != nil {
				job.logger.Warn().Err(err).Msg("failed to record progress")
			}
		}
		job.send(Event{Type: EventClip, Clip: clip, Progress: progress})
	}

	manifest := newManifest(job.ID, src, req.Annotation, rendered)
	if err := WriteManifest(req.OutputDir, manifest); err != nil {
		job.logger.Warn().Err(err).Msg("failed to write manifest")
	}

	if p.store != nil {
		if err := p.store.FinishJob(context.WithoutCancel(ctx), job.ID, catalog.StatusCompleted, ""); err != nil {
			job.logger.Warn().Err(err).Msg("failed to record completion")
		}
	}

	job.logger.Info().
		Int("clips", len(rendered)).
		Dur("elapsed", time.Since(started)).
		Msg("job completed")
	job.send(Event{Type: EventCompleted, Clips: rendered, Progress: 100, Source: src})
}

func (p *Pipeline) fail(job *Job, err error) {
	job.logger.Error().Err(err).Msg("job failed")
	if p.store != nil {
		if serr := p.store.FinishJob(context.Background(), job.ID, catalog.StatusFailed, err.Error()); serr != nil {
			job.logger.Warn().Err(serr).Msg("failed to record failure")
		}
	}
	job.send(Event{Type: EventFailed, Err: err})
}

// acquire downloads req.URL or opens req.SourcePath. The source duration
// comes from yt-dlp when it reports one and from ffprobe otherwise.
func (p *Pipeline) acquire(ctx context.Context, req Request) (*video.Source, error) {
	if req.SourcePath != "" {
		src, err := video.Open(ctx, p.encoder, req.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDownload, err)
		}
		return src, nil
	}

	if p.downloader == nil {
		return nil, fmt.Errorf("%w: no downloader configured", ErrDownload)
	}
	src, err := p.downloader.Download(ctx, req.URL, req.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownload, err)
	}
	if src.Duration > 0 {
		return src, nil
	}

	probed, err := video.Open(ctx, p.encoder, src.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownload, err)
	}
	src.Duration = probed.Duration
	return src, nil
}

// OpenSource probes a local video for re-editing.
func (p *Pipeline) OpenSource(ctx context.Context, path string) (*video.Source, error) {
	src, err := video.Open(ctx, p.encoder, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownload, err)
	}
	return src, nil
}

// Retrim re-extracts clip from src over [start, end), persists the new
// bounds when a store is configured and refreshes the clip's manifest
// entry if one exists.
func (p *Pipeline) Retrim(ctx context.Context, clip *clips.Clip, src *video.Source, start, end time.Duration) error {
	if err := p.editor.Retrim(ctx, clip, src, start, end); err != nil {
		return err
	}
	if err := UpdateManifestClip(filepath.Dir(clip.Path), clip); err != nil {
		p.logger.Warn().Err(err).Str("clip", clip.Path).Msg("failed to update manifest")
	}
	return nil
}
