// Package command translates conversion parameters into external tool
// invocations. Everything here is pure: no filesystem access, no processes.
package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/calibancode/gifforge/internal/domain"
)

// Tools holds the resolved binary paths for the external collaborators.
type Tools struct {
	FFmpeg   string
	FFprobe  string
	Gifsicle string
}

// DefaultTools resolves collaborators by name on PATH.
func DefaultTools() Tools {
	return Tools{FFmpeg: "ffmpeg", FFprobe: "ffprobe", Gifsicle: "gifsicle"}
}

const (
	StepEncode   = "encode"
	StepOptimize = "optimize"

	encodeWeightGIF = 80
	optimizeWeight  = 20
)

// BuildPlan maps a source summary and a parameter snapshot into the ordered
// invocation list for one conversion: a single ffmpeg encoding pass, plus a
// gifsicle optimization pass for GIF output. Deterministic for identical
// inputs.
func BuildPlan(source *domain.SourceMedia, params domain.ConversionParameters, inputPath, outputPath string, tools Tools) domain.Plan {
	if params.Format == domain.FormatWebP {
		return domain.Plan{buildWebPInvocation(source, params, inputPath, outputPath, tools)}
	}
	return domain.Plan{
		buildGIFInvocation(source, params, inputPath, outputPath, tools),
		buildGifsicleInvocation(params, outputPath, tools),
	}
}

func buildGIFInvocation(source *domain.SourceMedia, params domain.ConversionParameters, inputPath, outputPath string, tools Tools) domain.Invocation {
	chain := baseFilters(source, params)
	chain = append(chain, "format=rgb24")

	// Single-pass palette: generate and apply in one ffmpeg run instead of
	// the classic two-pass palettegen/paletteuse dance.
	filterComplex := fmt.Sprintf("[0:v]%s,split[a][b];[a]palettegen=stats_mode=%s[p];[b][p]paletteuse=dither=%s",
		strings.Join(chain, ","), params.PaletteMode, params.Dither)

	args := []string{
		"-v", "warning",
		"-i", inputPath,
		"-filter_complex", filterComplex,
	}
	args = append(args, "-loop", loopValue(params.Loop))
	args = append(args, "-y", outputPath)

	parseProgress := source.Duration > 0
	if parseProgress {
		args = append([]string{"-progress", "pipe:1"}, args...)
	}

	return domain.Invocation{
		Program:       tools.FFmpeg,
		Args:          args,
		Step:          StepEncode,
		ParseProgress: parseProgress,
		Weight:        encodeWeightGIF,
	}
}

func buildGifsicleInvocation(params domain.ConversionParameters, outputPath string, tools Tools) domain.Invocation {
	loop := "--no-loopcount"
	if params.Loop {
		loop = "--loopcount=0"
	}
	return domain.Invocation{
		Program: tools.Gifsicle,
		Args:    []string{"-O3", loop, outputPath, "-o", outputPath},
		Step:    StepOptimize,
		Weight:  optimizeWeight,
	}
}

func buildWebPInvocation(source *domain.SourceMedia, params domain.ConversionParameters, inputPath, outputPath string, tools Tools) domain.Invocation {
	filters := baseFilters(source, params)
	filters = append(filters, "format=rgba")

	args := []string{
		"-v", "warning",
		"-i", inputPath,
		"-vf", strings.Join(filters, ","),
	}
	if params.WebPLossless {
		args = append(args, "-lossless", "1")
	} else {
		args = append(args,
			"-q:v", strconv.Itoa(params.WebPQuality),
			"-compression_level", strconv.Itoa(params.WebPCompression),
		)
	}
	args = append(args, "-loop", loopValue(params.Loop))
	args = append(args, "-y", outputPath)

	parseProgress := source.Duration > 0
	if parseProgress {
		args = append([]string{"-progress", "pipe:1"}, args...)
	}

	return domain.Invocation{
		Program:       tools.FFmpeg,
		Args:          args,
		Step:          StepEncode,
		ParseProgress: parseProgress,
		Weight:        100,
	}
}

// baseFilters builds the shared fps/setpts/scale filter prefix. A requested
// fps above the source rate is passed through unchanged; ffmpeg's fps filter
// duplicates frames rather than interpolating.
func baseFilters(source *domain.SourceMedia, params domain.ConversionParameters) []string {
	var filters []string
	if params.FPS > 0 {
		filters = append(filters, fmt.Sprintf("fps=%d", params.FPS))
	}
	if params.SpeedMultiplier != 0 && params.SpeedMultiplier != 1.0 {
		filters = append(filters, "setpts=PTS/"+formatSpeed(params.SpeedMultiplier))
	}
	filters = append(filters, scaleFilters(source, params)...)
	return filters
}

func scaleFilters(source *domain.SourceMedia, params domain.ConversionParameters) []string {
	width, height, crop := params.ScaleTarget(source)
	switch {
	case crop:
		return []string{
			fmt.Sprintf("scale=%d:%d:flags=lanczos:force_original_aspect_ratio=increase", width, height),
			fmt.Sprintf("crop=%d:%d:(iw-%d)/2:(ih-%d)/2", width, height, width, height),
		}
	case width > 0 && height > 0:
		return []string{fmt.Sprintf("scale=%d:%d:flags=lanczos", width, height)}
	case width > 0:
		return []string{fmt.Sprintf("scale=%d:-2:flags=lanczos", width)}
	case height > 0:
		// Aspect ratio unknown; let ffmpeg derive an even width.
		return []string{fmt.Sprintf("scale=-2:%d:flags=lanczos", height)}
	default:
		return nil
	}
}

func loopValue(loop bool) string {
	if loop {
		return "0"
	}
	return "1"
}

func formatSpeed(speed float64) string {
	return strconv.FormatFloat(speed, 'g', -1, 64)
}
