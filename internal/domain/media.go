package domain

import "math"

// SourceMedia is the read-only summary of a selected input file, derived once
// via the probe adapter and invalidated when the file's fingerprint changes.
type SourceMedia struct {
	Path        string  `json:"path"`
	Fingerprint string  `json:"fingerprint"`
	Duration    float64 `json:"duration"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	FrameRate   float64 `json:"frame_rate"`
	FormatName  string  `json:"format_name"`
	SizeBytes   int64   `json:"size_bytes"`
}

// SourceMediaFromProbe maps a raw ffprobe result onto a SourceMedia record.
func SourceMediaFromProbe(path, fingerprint string, probe *ProbeResult) *SourceMedia {
	media := &SourceMedia{
		Path:        path,
		Fingerprint: fingerprint,
		Duration:    ParseDuration(probe.Format.Duration),
		FormatName:  probe.Format.FormatName,
		SizeBytes:   ParseSize(probe.Format.Size),
	}
	if vs := probe.VideoStream(); vs != nil {
		media.Width = vs.Width
		media.Height = vs.Height
		media.FrameRate = ParseFrameRate(vs.AvgFrameRate)
		if media.FrameRate == 0 {
			media.FrameRate = ParseFrameRate(vs.RFrameRate)
		}
	}
	return media
}

// AspectRatio returns width/height of the source, or 0 when unknown.
func (s *SourceMedia) AspectRatio() float64 {
	if s.Height <= 0 {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}

// DerivedWidth computes the output width for a target height, preserving the
// source aspect ratio and rounding to the nearest even value. Some encoders
// reject odd dimensions for chroma-subsampled pixel formats.
func (s *SourceMedia) DerivedWidth(height int) int {
	aspect := s.AspectRatio()
	if height <= 0 || aspect == 0 {
		return 0
	}
	return NearestEven(float64(height) * aspect)
}

// NearestEven rounds to the closest even integer, never below 2.
func NearestEven(v float64) int {
	even := int(math.Round(v/2)) * 2
	if even < 2 {
		return 2
	}
	return even
}

// EstimatedFrames estimates the total output frame count for progress
// reporting. Returns 0 when duration or frame rate is unknown.
func (s *SourceMedia) EstimatedFrames(targetFPS int, speed float64) int {
	fps := s.FrameRate
	if targetFPS > 0 {
		fps = float64(targetFPS)
	}
	if s.Duration <= 0 || fps <= 0 {
		return 0
	}
	if speed <= 0 {
		speed = 1
	}
	return int(s.Duration / speed * fps)
}
