package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kikiluvv/ytclipper/internal/clips"
	"github.com/kikiluvv/ytclipper/internal/video"
)

const jobColumns = `id, url, source_path, duration_ms, output_dir, title, subtitle, status, progress, error, created_at, updated_at`

const clipColumns = `id, job_id, idx, path, start_ms, end_ms`

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

// CreateJob inserts job, assigning an ID when empty.
func (d *DB) CreateJob(ctx context.Context, job *Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = StatusPending
	}
	ts := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = ts, ts

	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.URL, job.SourcePath, job.Duration.Milliseconds(), job.OutputDir, job.Title, job.Subtitle,
		string(job.Status), job.Progress, nullString(job.Error),
		ts.Format(timeLayout), ts.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// GetJob returns the job with id.
func (d *DB) GetJob(ctx context.Context, id string) (*Job, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return job, err
}

// ListJobs returns jobs newest first. limit <= 0 means no limit.
func (d *DB) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.conn.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]*Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// SetJobSource records the acquired source video and marks the job running.
func (d *DB) SetJobSource(ctx context.Context, id string, src *video.Source) error {
	return d.updateJob(ctx, id, `source_path = ?, duration_ms = ?, status = ?`,
		src.Path, src.Duration.Milliseconds(), string(StatusRunning))
}

// SetJobProgress records progress (0-100) and marks the job running.
func (d *DB) SetJobProgress(ctx context.Context, id string, progress int) error {
	return d.updateJob(ctx, id, `progress = ?, status = ?`, progress, string(StatusRunning))
}

// FinishJob sets a terminal status. Completed jobs get progress 100.
func (d *DB) FinishJob(ctx context.Context, id string, status Status, errMsg string) error {
	if !status.Done() {
		return fmt.Errorf("finish job %s: status %q is not terminal", id, status)
	}
	if status == StatusCompleted {
		return d.updateJob(ctx, id, `status = ?, progress = 100, error = NULL`, string(status))
	}
	return d.updateJob(ctx, id, `status = ?, error = ?`, string(status), errMsg)
}

func (d *DB) updateJob(ctx context.Context, id, set string, args ...any) error {
	args = append(args, now(), id)
	res, err := d.conn.ExecContext(ctx, `UPDATE jobs SET `+set+`, updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddClip inserts a rendered clip, assigning an ID when empty. The clip's
// JobID must name an existing job.
func (d *DB) AddClip(ctx context.Context, clip *clips.Clip) error {
	if clip.ID == "" {
		clip.ID = uuid.NewString()
	}
	ts := now()
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO clips (`+clipColumns+`, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, clip.ID, clip.JobID, clip.Index, clip.Path, clip.Start.Milliseconds(), clip.End.Milliseconds(), ts, ts)
	if err != nil {
		return fmt.Errorf("add clip %d: %w", clip.Index, err)
	}
	return nil
}

// GetClip returns the clip with id.
func (d *DB) GetClip(ctx context.Context, id string) (*clips.Clip, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+clipColumns+` FROM clips WHERE id = ?`, id)
	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("clip %s: %w", id, ErrNotFound)
	}
	return clip, err
}

// ListClips returns the clips of a job ordered by index.
func (d *DB) ListClips(ctx context.Context, jobID string) ([]*clips.Clip, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT `+clipColumns+` FROM clips WHERE job_id = ? ORDER BY idx
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*clips.Clip, 0)
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, clip)
	}
	return out, rows.Err()
}

// UpdateClipBounds stores new source bounds for a re-trimmed clip.
func (d *DB) UpdateClipBounds(ctx context.Context, id string, start, end time.Duration) error {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE clips SET start_ms = ?, end_ms = ?, updated_at = ? WHERE id = ?
	`, start.Milliseconds(), end.Milliseconds(), now(), id)
	if err != nil {
		return fmt.Errorf("update clip %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("clip %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (*Job, error) {
	var job Job
	var status, createdAt, updatedAt string
	var durationMS int64
	var errMsg sql.NullString

	err := s.Scan(&job.ID, &job.URL, &job.SourcePath, &durationMS, &job.OutputDir, &job.Title, &job.Subtitle,
		&status, &job.Progress, &errMsg, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	job.Duration = time.Duration(durationMS) * time.Millisecond
	job.Status = Status(status)
	job.Error = errMsg.String
	job.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	job.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return &job, nil
}

func scanClip(s scanner) (*clips.Clip, error) {
	var c clips.Clip
	var startMS, endMS int64
	if err := s.Scan(&c.ID, &c.JobID, &c.Index, &c.Path, &startMS, &endMS); err != nil {
		return nil, err
	}
	c.Start = time.Duration(startMS) * time.Millisecond
	c.End = time.Duration(endMS) * time.Millisecond
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ clips.BoundsStore = (*DB)(nil)
