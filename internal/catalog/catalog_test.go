package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/ytclipper/internal/clips"
	"github.com/kikiluvv/ytclipper/internal/video"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_CreatesTables(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"jobs", "clips", "_migrations"} {
		var name string
		err := db.conn.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db1, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	db2, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer db2.Close()

	var count int
	require.NoError(t, db2.conn.QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestOpen_MarksInterruptedJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	db1, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	job := &Job{OutputDir: "/out"}
	require.NoError(t, db1.CreateJob(ctx, job))
	require.NoError(t, db1.SetJobProgress(ctx, job.ID, 33))
	require.NoError(t, db1.Close())

	db2, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer db2.Close()

	got, err := db2.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "interrupted by restart", got.Error)
}

func TestJobLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	job := &Job{URL: "https://youtu.be/x", OutputDir: "/out", Title: "T", Subtitle: "S"}
	require.NoError(t, db.CreateJob(ctx, job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, StatusPending, job.Status)

	src := &video.Source{Path: "/out/source.mp4", Duration: 120 * time.Second}
	require.NoError(t, db.SetJobSource(ctx, job.ID, src))
	require.NoError(t, db.SetJobProgress(ctx, job.ID, 66))

	got, err := db.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)
	assert.Equal(t, 66, got.Progress)
	assert.Equal(t, "/out/source.mp4", got.SourcePath)
	assert.Equal(t, 120*time.Second, got.Duration)
	assert.Equal(t, "T", got.Title)

	require.NoError(t, db.FinishJob(ctx, job.ID, StatusCompleted, ""))
	got, err = db.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Empty(t, got.Error)
}

func TestFinishJob_Failed(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	job := &Job{OutputDir: "/out"}
	require.NoError(t, db.CreateJob(ctx, job))
	require.NoError(t, db.FinishJob(ctx, job.ID, StatusFailed, "boom"))

	got, err := db.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)

	assert.Error(t, db.FinishJob(ctx, job.ID, StatusRunning, ""))
}

func TestGetJob_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.SetJobProgress(context.Background(), "missing", 1), ErrNotFound)
}

func TestListJobs_NewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		job := &Job{OutputDir: "/out"}
		require.NoError(t, db.CreateJob(ctx, job))
		ids = append(ids, job.ID)
	}

	jobs, err := db.ListJobs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, ids[2], jobs[0].ID)
	assert.Equal(t, ids[0], jobs[2].ID)

	jobs, err = db.ListJobs(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestClips(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	job := &Job{OutputDir: "/out"}
	require.NoError(t, db.CreateJob(ctx, job))

	for i, w := range [][2]int{{55, 100}, {0, 40}} {
		clip := &clips.Clip{
			JobID: job.ID,
			Index: i,
			Path:  filepath.Join("/out", clips.FileName(i)),
			Start: time.Duration(w[0]) * time.Second,
			End:   time.Duration(w[1]) * time.Second,
		}
		require.NoError(t, db.AddClip(ctx, clip))
		assert.NotEmpty(t, clip.ID)
	}

	list, err := db.ListClips(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 0, list[0].Index)
	assert.Equal(t, 55*time.Second, list[0].Start)
	assert.Equal(t, "/out/clip_1.mp4", list[1].Path)

	require.NoError(t, db.UpdateClipBounds(ctx, list[1].ID, 10*time.Second, 40*time.Second))
	got, err := db.GetClip(ctx, list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, got.Start)
	assert.Equal(t, 40*time.Second, got.End)
	assert.Equal(t, job.ID, got.JobID)

	_, err = db.GetClip(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.UpdateClipBounds(ctx, "missing", 0, time.Second), ErrNotFound)
}

func TestAddClip_UnknownJob(t *testing.T) {
	db := openTestDB(t)
	err := db.AddClip(context.Background(), &clips.Clip{JobID: "nope", Path: "/x"})
	assert.Error(t, err)
}

func TestListClips_Empty(t *testing.T) {
	db := openTestDB(t)
	list, err := db.ListClips(context.Background(), "none")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}
