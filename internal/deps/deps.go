// Package deps checks availability of the external tools this program
// drives. Probing and conversion both refuse to run against a missing
// binary, so shells surface these checks up front.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external binary the converter relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of one requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// Required returns the converter's tool requirements. Commands default to
// PATH lookup; config may override them with absolute paths.
func Required(ffmpeg, ffprobe, gifsicle string) []Requirement {
	return []Requirement{
		{Name: "ffmpeg", Command: ffmpeg, Description: "encodes GIF and WebP output"},
		{Name: "ffprobe", Command: ffprobe, Description: "inspects source media metadata"},
		{Name: "gifsicle", Command: gifsicle, Description: "optimizes GIF output", Optional: true},
	}
}

// Check evaluates the requirements against the execution environment.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: req.Description,
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of unavailable non-optional tools.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s.Name)
		}
	}
	return missing
}
