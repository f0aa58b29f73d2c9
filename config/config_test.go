package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calibancode/gifforge/internal/domain"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "ffprobe", cfg.FFprobePath)
	assert.Equal(t, "gifsicle", cfg.GifsiclePath)
	assert.NotEmpty(t, cfg.DataDir)
	assert.NotEmpty(t, cfg.ServeAddr)
	assert.Positive(t, cfg.MaxUploadSizeMB)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().ServeAddr, cfg.ServeAddr)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
data_dir = "/var/lib/gifforge"
ffmpeg_path = "/opt/ffmpeg/bin/ffmpeg"
serve_addr = "0.0.0.0:9000"
max_upload_size_mb = 100

[defaults]
fps = 24
height = 480
palette = "full"
loop = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/gifforge", cfg.DataDir)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "0.0.0.0:9000", cfg.ServeAddr)
	assert.Equal(t, 100, cfg.MaxUploadSizeMB)

	params := cfg.Parameters()
	assert.Equal(t, 24, params.FPS)
	assert.Equal(t, 480, params.Height)
	assert.Equal(t, "full", params.PaletteMode)
	assert.True(t, params.Loop)
	assert.Equal(t, domain.DefaultDither, params.Dither, "unset defaults fall through")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GIFFORGE_FFMPEG", "/env/ffmpeg")
	t.Setenv("GIFFORGE_DATA_DIR", t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "/env/ffmpeg", cfg.FFmpegPath)
}

func TestLoadRejectsInvalidDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[defaults]\nfps = 999\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defaults")
}

func TestLoadRejectsBadUploadSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_upload_size_mb = -5\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("serve_addr = [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestTools(t *testing.T) {
	cfg := Default()
	cfg.FFmpegPath = "/a/ffmpeg"
	cfg.FFprobePath = "/a/ffprobe"
	cfg.GifsiclePath = "/a/gifsicle"

	tools := cfg.Tools()
	assert.Equal(t, "/a/ffmpeg", tools.FFmpeg)
	assert.Equal(t, "/a/ffprobe", tools.FFprobe)
	assert.Equal(t, "/a/gifsicle", tools.Gifsicle)
}
