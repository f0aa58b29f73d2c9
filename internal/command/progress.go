package command

import (
	"regexp"
	"strconv"
)

var (
	frameRe   = regexp.MustCompile(`frame=\s*(\d+)`)
	outTimeRe = regexp.MustCompile(`out_time_ms=(\d+)`)

	// Harmless but spammy ffmpeg stderr output we keep out of the log sink.
	noiseRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)input frame is not in sRGB`),
		regexp.MustCompile(`(?i)Last message repeated \d+ times`),
	}
)

// Progress is one parsed ffmpeg -progress update. ffmpeg emits key=value
// lines; a line carries at most one of the fields we care about.
type Progress struct {
	Frame     int
	OutTimeMS int64
	HasFrame  bool
	HasTime   bool
}

// ParseProgressLine extracts frame and out_time_ms values from an ffmpeg
// -progress output line.
func ParseProgressLine(line string) Progress {
	var p Progress
	if m := frameRe.FindStringSubmatch(line); m != nil {
		if frame, err := strconv.Atoi(m[1]); err == nil {
			p.HasFrame = true
			p.Frame = frame
		}
	}
	if m := outTimeRe.FindStringSubmatch(line); m != nil {
		if us, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			p.HasTime = true
			p.OutTimeMS = us
		}
	}
	return p
}

// IsNoise reports whether a stderr line matches a known-harmless pattern.
func IsNoise(line string) bool {
	for _, re := range noiseRes {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
