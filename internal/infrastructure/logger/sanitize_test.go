package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain text untouched", input: "frame=120 fps=30", expected: "frame=120 fps=30"},
		{name: "newline escaped", input: "line1\nline2", expected: "line1\\nline2"},
		{name: "carriage return escaped", input: "a\rb", expected: "a\\rb"},
		{name: "tab escaped", input: "a\tb", expected: "a\\tb"},
		{name: "ansi escape neutralized", input: "\x1b[31mred\x1b[0m", expected: "\\x1b[31mred\\x1b[0m"},
		{name: "del escaped", input: "a\x7fb", expected: "a\\x7fb"},
		{name: "unicode preserved", input: "vidéo 動画", expected: "vidéo 動画"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeForLog(tt.input))
		})
	}
}
