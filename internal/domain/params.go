package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

type OutputFormat string

const (
	FormatGIF  OutputFormat = "gif"
	FormatWebP OutputFormat = "webp"
)

// Tool-defined bounds mirrored from the encoder's accepted ranges.
const (
	MaxFPS             = 60
	MaxWidth           = 2048
	MaxHeight          = 2048
	MaxSpeed           = 10.0
	MaxWebPQuality     = 100
	MaxWebPCompression = 6
)

const (
	DefaultSpeed           = 1.0
	DefaultWebPQuality     = 90
	DefaultWebPCompression = 4
	DefaultPaletteMode     = "diff"
	DefaultDither          = "floyd_steinberg"
)

// PaletteModes are the palettegen stats_mode values the targeted ffmpeg
// accepts. The strings are opaque here; ffmpeg owns their meaning.
var PaletteModes = []string{"single", "diff", "full"}

// DitherAlgorithms are the paletteuse dither values the targeted ffmpeg
// accepts.
var DitherAlgorithms = []string{"none", "floyd_steinberg", "bayer:bayer_scale=5", "sierra2_4a"}

// ConversionParameters holds the user-selected conversion options. Zero
// values for FPS, Width, and Height mean "preserve native". A snapshot is
// taken when a job is created; live edits never race an in-flight job.
type ConversionParameters struct {
	FPS             int          `json:"fps"`
	Width           int          `json:"width"`
	Height          int          `json:"height"`
	SpeedMultiplier float64      `json:"speed_multiplier"`
	Format          OutputFormat `json:"format"`
	PaletteMode     string       `json:"palette_mode"`
	Dither          string       `json:"dither"`
	WebPQuality     int          `json:"webp_quality"`
	WebPCompression int          `json:"webp_compression"`
	WebPLossless    bool         `json:"webp_lossless"`
	Loop            bool         `json:"loop"`
}

// DefaultParameters mirrors the defaults of the desktop app this tool grew
// out of: native fps and size, floyd_steinberg dither, diff palette, looping.
func DefaultParameters() ConversionParameters {
	return ConversionParameters{
		SpeedMultiplier: DefaultSpeed,
		Format:          FormatGIF,
		PaletteMode:     DefaultPaletteMode,
		Dither:          DefaultDither,
		WebPQuality:     DefaultWebPQuality,
		WebPCompression: DefaultWebPCompression,
		Loop:            true,
	}
}

// DetectOutputFormat selects the output format from the destination
// extension.
func DetectOutputFormat(outputPath string) (OutputFormat, error) {
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".gif":
		return FormatGIF, nil
	case ".webp":
		return FormatWebP, nil
	default:
		return "", &ValidationError{Field: "output", Reason: fmt.Sprintf("unsupported extension %q (want .gif or .webp)", filepath.Ext(outputPath))}
	}
}

func (p *ConversionParameters) SetFPS(fps int) error {
	if fps < 0 || fps > MaxFPS {
		return &ValidationError{Field: "fps", Reason: fmt.Sprintf("must be between 1 and %d, or 0 for native", MaxFPS)}
	}
	p.FPS = fps
	return nil
}

func (p *ConversionParameters) SetWidth(width int) error {
	if width < 0 || width > MaxWidth {
		return &ValidationError{Field: "width", Reason: fmt.Sprintf("must be between 1 and %d, or 0 to derive", MaxWidth)}
	}
	p.Width = width
	return nil
}

func (p *ConversionParameters) SetHeight(height int) error {
	if height < 0 || height > MaxHeight {
		return &ValidationError{Field: "height", Reason: fmt.Sprintf("must be between 1 and %d, or 0 for native", MaxHeight)}
	}
	p.Height = height
	return nil
}

func (p *ConversionParameters) SetSpeedMultiplier(speed float64) error {
	if speed <= 0 || speed > MaxSpeed {
		return &ValidationError{Field: "speed", Reason: fmt.Sprintf("must be greater than 0 and at most %.0f", MaxSpeed)}
	}
	p.SpeedMultiplier = speed
	return nil
}

func (p *ConversionParameters) SetFormat(format OutputFormat) error {
	if format != FormatGIF && format != FormatWebP {
		return &ValidationError{Field: "format", Reason: fmt.Sprintf("unknown format %q", format)}
	}
	p.Format = format
	return nil
}

func (p *ConversionParameters) SetPaletteMode(mode string) error {
	if !contains(PaletteModes, mode) {
		return &ValidationError{Field: "palette", Reason: fmt.Sprintf("unknown palette mode %q (known: %s)", mode, strings.Join(PaletteModes, ", "))}
	}
	p.PaletteMode = mode
	return nil
}

func (p *ConversionParameters) SetDither(algorithm string) error {
	if !contains(DitherAlgorithms, algorithm) {
		return &ValidationError{Field: "dither", Reason: fmt.Sprintf("unknown dither algorithm %q (known: %s)", algorithm, strings.Join(DitherAlgorithms, ", "))}
	}
	p.Dither = algorithm
	return nil
}

func (p *ConversionParameters) SetWebPQuality(quality int) error {
	if quality < 0 || quality > MaxWebPQuality {
		return &ValidationError{Field: "quality", Reason: fmt.Sprintf("must be between 0 and %d", MaxWebPQuality)}
	}
	p.WebPQuality = quality
	return nil
}

func (p *ConversionParameters) SetWebPCompression(level int) error {
	if level < 0 || level > MaxWebPCompression {
		return &ValidationError{Field: "compression", Reason: fmt.Sprintf("must be between 0 and %d", MaxWebPCompression)}
	}
	p.WebPCompression = level
	return nil
}

func (p *ConversionParameters) SetWebPLossless(lossless bool) error {
	if lossless && p.Format == FormatGIF {
		return &ValidationError{Field: "webp-lossless", Reason: "lossless encoding applies to webp output only"}
	}
	p.WebPLossless = lossless
	return nil
}

// Validate checks the whole parameter set, including cross-field
// contradictions that individual setters cannot see.
func (p *ConversionParameters) Validate() error {
	checks := []func() error{
		func() error { return p.SetFPS(p.FPS) },
		func() error { return p.SetWidth(p.Width) },
		func() error { return p.SetHeight(p.Height) },
		func() error { return p.SetSpeedMultiplier(p.SpeedMultiplier) },
		func() error { return p.SetFormat(p.Format) },
		func() error { return p.SetPaletteMode(p.PaletteMode) },
		func() error { return p.SetDither(p.Dither) },
		func() error { return p.SetWebPQuality(p.WebPQuality) },
		func() error { return p.SetWebPCompression(p.WebPCompression) },
		func() error { return p.SetWebPLossless(p.WebPLossless) },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// ScaleTarget resolves the effective output dimensions against a source.
// Returned values follow the parameter conventions: 0 means "leave native",
// and crop is true when both dimensions were forced explicitly.
func (p *ConversionParameters) ScaleTarget(source *SourceMedia) (width, height int, crop bool) {
	switch {
	case p.Width == 0 && p.Height == 0:
		return 0, 0, false
	case p.Width > 0 && p.Height > 0:
		return p.Width, p.Height, true
	case p.Height > 0:
		return source.DerivedWidth(p.Height), p.Height, false
	default:
		return p.Width, 0, false
	}
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
