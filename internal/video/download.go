package video

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/ytclipper/pkg/util"
)

// Downloader fetches a remote video into a local directory.
type Downloader interface {
	Download(ctx context.Context, url, outDir string) (*Source, error)
}

// YtDlp downloads through the yt-dlp binary.
type YtDlp struct {
	logger zerolog.Logger
	binary string
	format string
}

// NewYtDlp returns a yt-dlp downloader. Empty binary or format fall back to
// "yt-dlp" and the best single mp4 stream.
func NewYtDlp(logger zerolog.Logger, binary, format string) *YtDlp {
	if binary == "" {
		binary = "yt-dlp"
	}
	if format == "" {
		format = "best[ext=mp4]/best"
	}
	return &YtDlp{
		logger: logger.With().Str("component", "download").Logger(),
		binary: binary,
		format: format,
	}
}

// printTemplate makes yt-dlp report the final file, duration and title.
const printTemplate = "after_move:%(filepath)s\t%(duration)s\t%(title)s"

// Download fetches url into outDir as source.<ext>. The duration reported
// by yt-dlp is truncated to whole seconds; it is zero when unknown.
func (y *YtDlp) Download(ctx context.Context, url, outDir string) (*Source, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("video url is required")
	}
	if err := util.EnsureDir(outDir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	args := []string{
		"-f", y.format,
		"--no-playlist",
		"--no-warnings",
		"--no-progress",
		"--force-overwrites",
		"-o", filepath.Join(outDir, "source.%(ext)s"),
		"--print", printTemplate,
		url,
	}

	y.logger.Info().Str("url", url).Str("dir", outDir).Msg("downloading video")
	start := time.Now()

	cmd := exec.CommandContext(ctx, y.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("yt-dlp failed: %w\n%s", err, strings.TrimSpace(stderr.String()))
	}

	src, err := parsePrintOutput(stdout.String())
	if err != nil {
		return nil, err
	}
	src.URL = url
	if !util.FileExists(src.Path) {
		return nil, fmt.Errorf("yt-dlp reported %s but the file does not exist", src.Path)
	}

	y.logger.Info().
		Str("path", src.Path).
		Dur("duration", src.Duration).
		Dur("elapsed", time.Since(start)).
		Msg("download complete")
	return src, nil
}

// parsePrintOutput reads the last "path\tduration\ttitle" line printed by
// yt-dlp.
func parsePrintOutput(out string) (*Source, error) {
	var last string
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			last = strings.TrimRight(line, "\r")
		}
	}
	if last == "" {
		return nil, fmt.Errorf("yt-dlp printed no file path")
	}

	fields := strings.SplitN(last, "\t", 3)
	src := &Source{Path: strings.TrimSpace(fields[0])}
	if src.Path == "" {
		return nil, fmt.Errorf("yt-dlp printed an empty file path")
	}
	if len(fields) > 1 {
		if secs, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64); err == nil && secs > 0 {
			src.Duration = time.Duration(int64(secs)) * time.Second
		}
	}
	if len(fields) > 2 {
		src.Title = strings.TrimSpace(fields[2])
	}
	return src, nil
}
