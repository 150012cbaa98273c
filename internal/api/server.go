// Package api exposes the clipping commands over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/ytclipper/internal/catalog"
	"github.com/kikiluvv/ytclipper/internal/clips"
	"github.com/kikiluvv/ytclipper/internal/pipeline"
	"github.com/kikiluvv/ytclipper/internal/video"
)

// Runner starts batch jobs and re-trims clips. *pipeline.Pipeline
// implements it.
type Runner interface {
	Start(ctx context.Context, req pipeline.Request) (*pipeline.Job, error)
	OpenSource(ctx context.Context, path string) (*video.Source, error)
	Retrim(ctx context.Context, clip *clips.Clip, src *video.Source, start, end time.Duration) error
}

// Catalog reads jobs and clips. *catalog.DB implements it.
type Catalog interface {
	GetJob(ctx context.Context, id string) (*catalog.Job, error)
	ListJobs(ctx context.Context, limit int) ([]*catalog.Job, error)
	GetClip(ctx context.Context, id string) (*clips.Clip, error)
	ListClips(ctx context.Context, jobID string) ([]*clips.Clip, error)
}

type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

type ServerConfig struct {
	Addr      string
	OutputDir string
	Runner    Runner
	Catalog   Catalog
	Logger    zerolog.Logger
	StartTime time.Time
	// JobContext bounds jobs started over HTTP. Request contexts end with
	// the response, so jobs never use them.
	JobContext context.Context
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewRouter(cfg),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
