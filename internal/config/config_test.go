package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 55, cfg.Planner.Stride)
	assert.Equal(t, 30, cfg.Planner.MinLength)
	assert.Equal(t, 55, cfg.Planner.MaxLength)
	assert.Equal(t, OverlayConcat, cfg.OverlayMode)
	assert.Equal(t, 24, cfg.Text.FontSize)
	assert.Equal(t, "white", cfg.Text.FontColor)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytclipper.yaml")
	writeFile(t, path, `
output_dir: /tmp/out
overlay_mode: composite
planner:
  stride: 60
  min_length: 20
  max_length: 40
ffmpeg:
  threads: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, OverlayComposite, cfg.OverlayMode)
	assert.Equal(t, 60, cfg.Planner.Stride)
	assert.Equal(t, 20, cfg.Planner.MinLength)
	assert.Equal(t, 40, cfg.Planner.MaxLength)
	assert.Equal(t, 2, cfg.FFmpeg.Threads)
	// untouched keys keep defaults
	assert.Equal(t, "ffmpeg", cfg.FFmpeg.BinaryPath)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"zero stride":      "planner:\n  stride: 0\n",
		"min above max":    "planner:\n  min_length: 60\n  max_length: 30\n",
		"unknown mode":     "overlay_mode: blend\n",
		"crf out of range": "ffmpeg:\n  crf: 90\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			writeFile(t, path, body)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvFFmpeg, "/opt/ffmpeg")
	t.Setenv(EnvYtDlp, "/opt/yt-dlp")
	t.Setenv(EnvOverlayMode, OverlayComposite)
	t.Setenv(EnvThreads, "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/opt/ffmpeg", cfg.FFmpeg.BinaryPath)
	assert.Equal(t, "/opt/yt-dlp", cfg.Download.BinaryPath)
	assert.Equal(t, OverlayComposite, cfg.OverlayMode)
	assert.Equal(t, 3, cfg.FFmpeg.Threads)
}

func TestLoad_BadThreadsEnv(t *testing.T) {
	t.Setenv(EnvThreads, "many")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	writeFile(t, envPath, "YTCLIPPER_ADDR=127.0.0.1:9999\n")

	// register cleanup so the variable does not leak into other tests
	t.Setenv(EnvAddr, "")
	require.NoError(t, os.Unsetenv(EnvAddr))

	require.NoError(t, LoadDotEnv(envPath, filepath.Join(dir, "missing.env")))

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.OutputDir = "/data/clips"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/clips", loaded.OutputDir)
}

func TestContext(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = "x"
	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}
