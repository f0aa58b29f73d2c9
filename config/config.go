// Package config loads gifforge settings from an optional TOML file with
// environment variable overrides. Missing file means defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/calibancode/gifforge/internal/command"
	"github.com/calibancode/gifforge/internal/domain"
)

type Config struct {
	// DataDir holds the job history database, the probe cache, the job
	// lock file, and serve-mode uploads.
	DataDir string `toml:"data_dir"`

	// Tool path overrides; empty means PATH lookup.
	FFmpegPath   string `toml:"ffmpeg_path"`
	FFprobePath  string `toml:"ffprobe_path"`
	GifsiclePath string `toml:"gifsicle_path"`

	ServeAddr       string `toml:"serve_addr"`
	MaxUploadSizeMB int    `toml:"max_upload_size_mb"`

	Defaults Defaults `toml:"defaults"`
}

// Defaults seeds the conversion parameters before per-invocation flags are
// applied.
type Defaults struct {
	FPS             int     `toml:"fps"`
	Height          int     `toml:"height"`
	SpeedMultiplier float64 `toml:"speed"`
	PaletteMode     string  `toml:"palette"`
	Dither          string  `toml:"dither"`
	WebPQuality     int     `toml:"webp_quality"`
	WebPCompression int     `toml:"webp_compression"`
	Loop            bool    `toml:"loop"`
}

func Default() *Config {
	params := domain.DefaultParameters()
	return &Config{
		DataDir:         defaultDataDir(),
		FFmpegPath:      "ffmpeg",
		FFprobePath:     "ffprobe",
		GifsiclePath:    "gifsicle",
		ServeAddr:       "127.0.0.1:7893",
		MaxUploadSizeMB: 500,
		Defaults: Defaults{
			SpeedMultiplier: params.SpeedMultiplier,
			PaletteMode:     params.PaletteMode,
			Dither:          params.Dither,
			WebPQuality:     params.WebPQuality,
			WebPCompression: params.WebPCompression,
			Loop:            params.Loop,
		},
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "gifforge", "config.toml")
	}
	return filepath.Join(".", "gifforge.toml")
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "gifforge")
	}
	return filepath.Join(".", "gifforge-data")
}

// Load reads the config file at path (DefaultPath when empty), applies env
// overrides, and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Defaults apply.
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv("GIFFORGE_DATA_DIR", c.DataDir)
	c.FFmpegPath = getEnv("GIFFORGE_FFMPEG", c.FFmpegPath)
	c.FFprobePath = getEnv("GIFFORGE_FFPROBE", c.FFprobePath)
	c.GifsiclePath = getEnv("GIFFORGE_GIFSICLE", c.GifsiclePath)
	c.ServeAddr = getEnv("GIFFORGE_SERVE_ADDR", c.ServeAddr)
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("max_upload_size_mb must be positive")
	}
	if c.ServeAddr == "" {
		return fmt.Errorf("serve_addr is required")
	}
	params := c.Parameters()
	if err := params.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	return nil
}

// EnsureDataDir creates the data directory if needed.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

// Tools maps the configured binary paths onto the command builder's tool
// set.
func (c *Config) Tools() command.Tools {
	return command.Tools{
		FFmpeg:   c.FFmpegPath,
		FFprobe:  c.FFprobePath,
		Gifsicle: c.GifsiclePath,
	}
}

// Parameters builds the starting parameter snapshot from the configured
// defaults.
func (c *Config) Parameters() domain.ConversionParameters {
	params := domain.DefaultParameters()
	params.FPS = c.Defaults.FPS
	params.Height = c.Defaults.Height
	if c.Defaults.SpeedMultiplier > 0 {
		params.SpeedMultiplier = c.Defaults.SpeedMultiplier
	}
	if c.Defaults.PaletteMode != "" {
		params.PaletteMode = c.Defaults.PaletteMode
	}
	if c.Defaults.Dither != "" {
		params.Dither = c.Defaults.Dither
	}
	params.WebPQuality = c.Defaults.WebPQuality
	params.WebPCompression = c.Defaults.WebPCompression
	params.Loop = c.Defaults.Loop
	return params
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
