package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Overlay modes for the title/subtitle layers.
const (
	OverlayConcat    = "concat"
	OverlayComposite = "composite"
)

// Environment overrides, applied after the config file.
const (
	EnvFFmpeg      = "YTCLIPPER_FFMPEG"
	EnvFFprobe     = "YTCLIPPER_FFPROBE"
	EnvYtDlp       = "YTCLIPPER_YTDLP"
	EnvDataDir     = "YTCLIPPER_DATA_DIR"
	EnvOutputDir   = "YTCLIPPER_OUTPUT_DIR"
	EnvAddr        = "YTCLIPPER_ADDR"
	EnvLogLevel    = "YTCLIPPER_LOG_LEVEL"
	EnvOverlayMode = "YTCLIPPER_OVERLAY_MODE"
	EnvThreads     = "YTCLIPPER_FFMPEG_THREADS"
)

const dbFilename = "ytclipper.db"

// Config holds all application configuration
type Config struct {
	OutputDir   string `yaml:"output_dir"`
	DataDir     string `yaml:"data_dir"`
	LogLevel    string `yaml:"log_level"`
	OverlayMode string `yaml:"overlay_mode"`

	Planner  PlannerConfig  `yaml:"planner"`
	FFmpeg   FFmpegConfig   `yaml:"ffmpeg"`
	Text     TextConfig     `yaml:"text"`
	Download DownloadConfig `yaml:"download"`
	Server   ServerConfig   `yaml:"server"`
}

// PlannerConfig holds clip window sizes, in seconds.
type PlannerConfig struct {
	Stride    int `yaml:"stride"`
	MinLength int `yaml:"min_length"`
	MaxLength int `yaml:"max_length"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
	Preset     string `yaml:"preset"`
	CRF        int    `yaml:"crf"`
}

type TextConfig struct {
	FontSize   int    `yaml:"font_size"`
	FontColor  string `yaml:"font_color"`
	FontFile   string `yaml:"font_file"`
	Background string `yaml:"background"`
}

type DownloadConfig struct {
	BinaryPath string `yaml:"binary_path"`
	Format     string `yaml:"format"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads configuration from file or returns defaults. Environment
// overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Planner.Stride <= 0 {
		return fmt.Errorf("planner.stride must be > 0")
	}
	if c.Planner.MinLength <= 0 || c.Planner.MaxLength < c.Planner.MinLength {
		return fmt.Errorf("planner lengths must satisfy 0 < min_length <= max_length")
	}
	switch c.OverlayMode {
	case OverlayConcat, OverlayComposite:
	default:
		return fmt.Errorf("overlay_mode must be %q or %q, got %q", OverlayConcat, OverlayComposite, c.OverlayMode)
	}
	if c.FFmpeg.CRF < 0 || c.FFmpeg.CRF > 51 {
		return fmt.Errorf("ffmpeg.crf must be between 0 and 51")
	}
	return nil
}

// DBPath returns the catalog database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, dbFilename)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OutputDir:   "./clips",
		DataDir:     defaultDataDir(),
		LogLevel:    "info",
		OverlayMode: OverlayConcat,
		Planner: PlannerConfig{
			Stride:    55,
			MinLength: 30,
			MaxLength: 55,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
			Preset:     "medium",
			CRF:        23,
		},
		Text: TextConfig{
			FontSize:   24,
			FontColor:  "white",
			Background: "black",
		},
		Download: DownloadConfig{
			BinaryPath: "yt-dlp",
			Format:     "best[ext=mp4]/best",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8788",
		},
	}
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(EnvFFmpeg, &c.FFmpeg.BinaryPath)
	setString(EnvFFprobe, &c.FFmpeg.ProbePath)
	setString(EnvYtDlp, &c.Download.BinaryPath)
	setString(EnvDataDir, &c.DataDir)
	setString(EnvOutputDir, &c.OutputDir)
	setString(EnvAddr, &c.Server.Addr)
	setString(EnvLogLevel, &c.LogLevel)
	setString(EnvOverlayMode, &c.OverlayMode)

	if v := os.Getenv(EnvThreads); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid %s: %q", EnvThreads, v)
		}
		c.FFmpeg.Threads = n
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ytclipper"
	}
	return filepath.Join(home, ".ytclipper")
}

func findConfigFile() string {
	candidates := []string{
		"./ytclipper.yaml",
		"./ytclipper.yml",
		filepath.Join(os.Getenv("HOME"), ".ytclipper", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
