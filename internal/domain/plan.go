package domain

// Invocation is a single external tool call: program plus ordered arguments.
// The command builder produces these; it never runs them.
type Invocation struct {
	Program string   `json:"program"`
	Args    []string `json:"args"`
	// Step labels the pipeline stage for log prefixes ("encode", "optimize").
	Step string `json:"step"`
	// ParseProgress marks invocations whose stdout carries ffmpeg -progress
	// key=value output.
	ParseProgress bool `json:"parse_progress"`
	// Weight is the stage's share of overall progress; weights in a plan sum
	// to 100.
	Weight int `json:"weight"`
}

// Plan is the ordered list of invocations for one conversion. The runner
// executes them sequentially and aborts the remainder on failure or cancel.
type Plan []Invocation

// CommandLine renders the invocation for display in logs.
func (inv Invocation) CommandLine() string {
	line := inv.Program
	for _, arg := range inv.Args {
		line += " " + arg
	}
	return line
}

// LogLine is one line of external tool output, forwarded to sinks in arrival
// order.
type LogLine struct {
	Step   string `json:"step"`
	Stream string `json:"stream"` // "stdout", "stderr", or "system" for runner annotations
	Text   string `json:"text"`
}
