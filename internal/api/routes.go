package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kikiluvv/ytclipper/internal/catalog"
	"github.com/kikiluvv/ytclipper/internal/clips"
	"github.com/kikiluvv/ytclipper/internal/logging"
	"github.com/kikiluvv/ytclipper/internal/pipeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	if cfg.JobContext == nil {
		cfg.JobContext = context.Background()
	}
	if cfg.StartTime.IsZero() {
		cfg.StartTime = time.Now()
	}
	logger := logging.WithComponent(cfg.Logger, "api")

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(logger))
	r.Use(LoggingMiddleware(logger))

	r.Get("/health", healthHandler(cfg))

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", listJobsHandler(cfg))
		r.Post("/", createJobHandler(cfg))
		r.Get("/{id}", getJobHandler(cfg))
		r.Get("/{id}/clips", listClipsHandler(cfg))
	})

	r.Route("/clips/{id}", func(r chi.Router) {
		r.Patch("/", updateClipHandler(cfg))
		r.Get("/file", clipFileHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func createJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body CreateJobRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		req := pipeline.Request{
			URL:        body.URL,
			SourcePath: body.SourcePath,
			OutputDir:  body.OutputDir,
			Annotation: clips.Annotation{Title: body.Title, Subtitle: body.Subtitle},
		}
		if req.OutputDir == "" {
			req.OutputDir = cfg.OutputDir
		}
		if err := req.Validate(); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		job, err := cfg.Runner.Start(cfg.JobContext, req)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		// progress and the outcome land in the catalog
		go job.Wait()

		WriteJSON(w, http.StatusAccepted, CreateJobResponse{JobID: job.ID})
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				WriteError(w, http.StatusBadRequest, "invalid limit", "BAD_REQUEST")
				return
			}
			limit = n
		}

		jobs, err := cfg.Catalog.ListJobs(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Catalog.GetJob(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeLookupError(w, err, "job")
			return
		}
		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func listClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := cfg.Catalog.GetJob(r.Context(), id); err != nil {
			writeLookupError(w, err, "job")
			return
		}

		list, err := cfg.Catalog.ListClips(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list clips", "INTERNAL_ERROR")
			return
		}

		resp := ClipsResponse{Clips: make([]ClipResponse, len(list))}
		for i, c := range list {
			resp.Clips[i] = ClipToResponse(c)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func updateClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body UpdateClipRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if body.Start == nil || body.End == nil {
			WriteError(w, http.StatusBadRequest, "start and end are required", "BAD_REQUEST")
			return
		}

		ctx := r.Context()
		clip, err := cfg.Catalog.GetClip(ctx, chi.URLParam(r, "id"))
		if err != nil {
			writeLookupError(w, err, "clip")
			return
		}
		job, err := cfg.Catalog.GetJob(ctx, clip.JobID)
		if err != nil {
			writeLookupError(w, err, "job")
			return
		}
		if !job.Status.Done() {
			WriteError(w, http.StatusConflict, "job is still running", "JOB_RUNNING")
			return
		}

		src, err := cfg.Runner.OpenSource(ctx, job.SourcePath)
		if err != nil {
			WriteError(w, http.StatusConflict, "source video is unavailable", "SOURCE_UNAVAILABLE")
			return
		}

		err = cfg.Runner.Retrim(ctx, clip, src, seconds(*body.Start), seconds(*body.End))
		switch {
		case errors.Is(err, clips.ErrInvalidWindow):
			WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_WINDOW")
			return
		case err != nil:
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, ClipToResponse(clip))
	}
}

func clipFileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clip, err := cfg.Catalog.GetClip(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeLookupError(w, err, "clip")
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		http.ServeFile(w, r, clip.Path)
	}
}

func writeLookupError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, catalog.ErrNotFound) {
		WriteError(w, http.StatusNotFound, what+" not found", "NOT_FOUND")
		return
	}
	WriteError(w, http.StatusInternalServerError, "failed to load "+what, "INTERNAL_ERROR")
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
