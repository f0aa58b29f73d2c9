package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{name: "integer rate", in: "25/1", want: 25},
		{name: "ntsc rate", in: "30000/1001", want: 29.97},
		{name: "empty", in: "", want: 0},
		{name: "degenerate", in: "0/0", want: 0},
		{name: "zero denominator", in: "30/0", want: 0},
		{name: "garbage", in: "whatever", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseFrameRate(tt.in), 0.01)
		})
	}
}

func TestParseDuration(t *testing.T) {
	assert.InDelta(t, 12.48, ParseDuration("12.480000"), 0.0001)
	assert.Zero(t, ParseDuration(""))
	assert.Zero(t, ParseDuration("N/A"))
	assert.Zero(t, ParseDuration("not-a-number"))
}

func TestParseSize(t *testing.T) {
	assert.Equal(t, int64(1048576), ParseSize("1048576"))
	assert.Zero(t, ParseSize(""))
	assert.Zero(t, ParseSize("N/A"))
}

func TestVideoStream(t *testing.T) {
	result := &ProbeResult{
		Streams: []ProbeStream{
			{Index: 0, CodecType: "audio"},
			{Index: 1, CodecType: "video", Width: 1920, Height: 1080},
			{Index: 2, CodecType: "video", Width: 640, Height: 480},
		},
	}

	vs := result.VideoStream()
	require.NotNil(t, vs)
	assert.Equal(t, 1, vs.Index, "first video stream wins")
	assert.Equal(t, 1920, vs.Width)
	assert.Equal(t, 1080, vs.Height)

	audioOnly := &ProbeResult{Streams: []ProbeStream{{CodecType: "audio"}}}
	assert.Nil(t, audioOnly.VideoStream())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00", FormatDuration(0))
	assert.Equal(t, "0:42", FormatDuration(42.7))
	assert.Equal(t, "1:15", FormatDuration(75))
	assert.Equal(t, "1:01:15", FormatDuration(3675))
}

func TestFormatFrameRate(t *testing.T) {
	assert.Equal(t, "", FormatFrameRate(0))
	assert.Equal(t, "25 FPS", FormatFrameRate(25))
	assert.Equal(t, "29.97 FPS", FormatFrameRate(29.97))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "2.0 KB", FormatSize(2048))
	assert.Equal(t, "5.0 MB", FormatSize(5*1024*1024))
	assert.Equal(t, "1.5 GB", FormatSize(1610612736))
}
