package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNearestEven(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int
	}{
		{name: "already even", in: 854, want: 854},
		{name: "rounds up", in: 853.33, want: 854},
		{name: "rounds down", in: 852.9, want: 852},
		{name: "odd midpoint", in: 3.0, want: 4},
		{name: "floor is two", in: 0.4, want: 2},
		{name: "zero clamps to two", in: 0, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NearestEven(tt.in))
		})
	}
}

func TestDerivedWidth(t *testing.T) {
	source := &SourceMedia{Width: 1920, Height: 1080}

	assert.Equal(t, 854, source.DerivedWidth(480), "16:9 at 480p lands on 854, not 853.33")
	assert.Equal(t, 1280, source.DerivedWidth(720))
	assert.Zero(t, source.DerivedWidth(0))

	unknown := &SourceMedia{}
	assert.Zero(t, unknown.DerivedWidth(480), "unknown aspect cannot derive a width")
}

func TestAspectRatio(t *testing.T) {
	assert.InDelta(t, 16.0/9.0, (&SourceMedia{Width: 1920, Height: 1080}).AspectRatio(), 0.0001)
	assert.Zero(t, (&SourceMedia{Width: 1920}).AspectRatio())
}

func TestEstimatedFrames(t *testing.T) {
	source := &SourceMedia{Duration: 10, FrameRate: 30}

	tests := []struct {
		name      string
		targetFPS int
		speed     float64
		want      int
	}{
		{name: "native rate", targetFPS: 0, speed: 1, want: 300},
		{name: "reduced rate", targetFPS: 12, speed: 1, want: 120},
		{name: "double speed halves frames", targetFPS: 12, speed: 2, want: 60},
		{name: "zero speed treated as normal", targetFPS: 30, speed: 0, want: 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, source.EstimatedFrames(tt.targetFPS, tt.speed))
		})
	}

	assert.Zero(t, (&SourceMedia{FrameRate: 30}).EstimatedFrames(0, 1), "unknown duration yields no estimate")
	assert.Zero(t, (&SourceMedia{Duration: 10}).EstimatedFrames(0, 1), "unknown rate yields no estimate")
}

func TestSourceMediaFromProbe(t *testing.T) {
	probe := &ProbeResult{
		Format: ProbeFormat{
			FormatName: "mov,mp4,m4a,3gp,3g2,mj2",
			Duration:   "12.480000",
			Size:       "5242880",
		},
		Streams: []ProbeStream{
			{Index: 0, CodecType: "audio", CodecName: "aac"},
			{Index: 1, CodecType: "video", CodecName: "h264", Width: 1280, Height: 720, AvgFrameRate: "30000/1001", RFrameRate: "30/1"},
		},
	}

	media := SourceMediaFromProbe("/videos/in.mp4", "fp123", probe)

	assert.Equal(t, "/videos/in.mp4", media.Path)
	assert.Equal(t, "fp123", media.Fingerprint)
	assert.InDelta(t, 12.48, media.Duration, 0.0001)
	assert.Equal(t, 1280, media.Width)
	assert.Equal(t, 720, media.Height)
	assert.InDelta(t, 29.97, media.FrameRate, 0.01, "avg_frame_rate preferred")
	assert.Equal(t, int64(5242880), media.SizeBytes)
}

func TestSourceMediaFromProbeFrameRateFallback(t *testing.T) {
	probe := &ProbeResult{
		Streams: []ProbeStream{
			{CodecType: "video", Width: 640, Height: 480, AvgFrameRate: "0/0", RFrameRate: "25/1"},
		},
	}

	media := SourceMediaFromProbe("/videos/in.avi", "fp", probe)
	assert.InDelta(t, 25.0, media.FrameRate, 0.0001, "r_frame_rate fallback when avg is degenerate")
}
