package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParameters(t *testing.T) {
	params := DefaultParameters()

	assert.Equal(t, 0, params.FPS, "native fps by default")
	assert.Equal(t, 0, params.Width)
	assert.Equal(t, 0, params.Height)
	assert.Equal(t, DefaultSpeed, params.SpeedMultiplier)
	assert.Equal(t, FormatGIF, params.Format)
	assert.Equal(t, "diff", params.PaletteMode)
	assert.Equal(t, "floyd_steinberg", params.Dither)
	assert.Equal(t, 90, params.WebPQuality)
	assert.Equal(t, 4, params.WebPCompression)
	assert.False(t, params.WebPLossless)
	assert.True(t, params.Loop)

	assert.NoError(t, params.Validate(), "defaults must validate")
}

func TestDetectOutputFormat(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    OutputFormat
		wantErr bool
	}{
		{name: "gif extension", path: "out.gif", want: FormatGIF},
		{name: "webp extension", path: "clip.webp", want: FormatWebP},
		{name: "uppercase extension", path: "OUT.GIF", want: FormatGIF},
		{name: "nested path", path: "/tmp/exports/demo.webp", want: FormatWebP},
		{name: "video extension", path: "movie.mp4", wantErr: true},
		{name: "no extension", path: "output", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectOutputFormat(tt.path)
			if tt.wantErr {
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "output", validationErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParameterBounds(t *testing.T) {
	tests := []struct {
		name    string
		apply   func(p *ConversionParameters) error
		wantErr bool
		field   string
	}{
		{name: "fps at max", apply: func(p *ConversionParameters) error { return p.SetFPS(60) }},
		{name: "fps zero means native", apply: func(p *ConversionParameters) error { return p.SetFPS(0) }},
		{name: "fps above max", apply: func(p *ConversionParameters) error { return p.SetFPS(61) }, wantErr: true, field: "fps"},
		{name: "fps negative", apply: func(p *ConversionParameters) error { return p.SetFPS(-1) }, wantErr: true, field: "fps"},
		{name: "width at max", apply: func(p *ConversionParameters) error { return p.SetWidth(2048) }},
		{name: "width above max", apply: func(p *ConversionParameters) error { return p.SetWidth(2049) }, wantErr: true, field: "width"},
		{name: "height above max", apply: func(p *ConversionParameters) error { return p.SetHeight(2049) }, wantErr: true, field: "height"},
		{name: "speed at max", apply: func(p *ConversionParameters) error { return p.SetSpeedMultiplier(10.0) }},
		{name: "speed zero", apply: func(p *ConversionParameters) error { return p.SetSpeedMultiplier(0) }, wantErr: true, field: "speed"},
		{name: "speed negative", apply: func(p *ConversionParameters) error { return p.SetSpeedMultiplier(-0.5) }, wantErr: true, field: "speed"},
		{name: "speed above max", apply: func(p *ConversionParameters) error { return p.SetSpeedMultiplier(10.5) }, wantErr: true, field: "speed"},
		{name: "known palette", apply: func(p *ConversionParameters) error { return p.SetPaletteMode("full") }},
		{name: "unknown palette", apply: func(p *ConversionParameters) error { return p.SetPaletteMode("psychedelic") }, wantErr: true, field: "palette"},
		{name: "known dither", apply: func(p *ConversionParameters) error { return p.SetDither("bayer:bayer_scale=5") }},
		{name: "unknown dither", apply: func(p *ConversionParameters) error { return p.SetDither("ordered") }, wantErr: true, field: "dither"},
		{name: "quality at max", apply: func(p *ConversionParameters) error { return p.SetWebPQuality(100) }},
		{name: "quality above max", apply: func(p *ConversionParameters) error { return p.SetWebPQuality(101) }, wantErr: true, field: "quality"},
		{name: "compression at max", apply: func(p *ConversionParameters) error { return p.SetWebPCompression(6) }},
		{name: "compression above max", apply: func(p *ConversionParameters) error { return p.SetWebPCompression(7) }, wantErr: true, field: "compression"},
		{name: "unknown format", apply: func(p *ConversionParameters) error { return p.SetFormat("avif") }, wantErr: true, field: "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParameters()
			err := tt.apply(&params)
			if tt.wantErr {
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, tt.field, validationErr.Field)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLosslessRequiresWebP(t *testing.T) {
	params := DefaultParameters()

	err := params.SetWebPLossless(true)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr, "lossless with gif output must be rejected")
	assert.Equal(t, "webp-lossless", validationErr.Field)

	require.NoError(t, params.SetFormat(FormatWebP))
	assert.NoError(t, params.SetWebPLossless(true))
}

func TestValidateCatchesDirectMutation(t *testing.T) {
	params := DefaultParameters()
	params.FPS = 999

	err := params.Validate()
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "fps", validationErr.Field)
}

func TestScaleTarget(t *testing.T) {
	source := &SourceMedia{Width: 1920, Height: 1080}

	tests := []struct {
		name       string
		width      int
		height     int
		wantWidth  int
		wantHeight int
		wantCrop   bool
	}{
		{name: "native passthrough", wantWidth: 0, wantHeight: 0},
		{name: "both forced crops", width: 500, height: 500, wantWidth: 500, wantHeight: 500, wantCrop: true},
		{name: "height derives even width", height: 480, wantWidth: 854, wantHeight: 480},
		{name: "width only", width: 640, wantWidth: 640, wantHeight: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParameters()
			params.Width = tt.width
			params.Height = tt.height

			width, height, crop := params.ScaleTarget(source)
			assert.Equal(t, tt.wantWidth, width)
			assert.Equal(t, tt.wantHeight, height)
			assert.Equal(t, tt.wantCrop, crop)
			if width > 0 {
				assert.Zero(t, width%2, "derived width must be even")
			}
		})
	}
}
