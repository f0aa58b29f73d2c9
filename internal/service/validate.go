package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/calibancode/gifforge/internal/domain"
)

// badOutputChars are rejected in output filenames; they break at least one
// supported filesystem.
const badOutputChars = `<>:"|?*`

// ValidateOutputPath rejects destinations the conversion could never write:
// missing or read-only parent directories, directory targets, and filenames
// with characters the filesystem rejects.
func ValidateOutputPath(outputPath string) error {
	name := filepath.Base(outputPath)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return &domain.ValidationError{Field: "output", Reason: "filename cannot be empty"}
	}
	if strings.ContainsAny(name, badOutputChars) || strings.ContainsRune(name, 0) {
		return &domain.ValidationError{Field: "output", Reason: fmt.Sprintf("filename %q contains invalid characters", name)}
	}

	if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
		return &domain.ValidationError{Field: "output", Reason: fmt.Sprintf("path is a directory: %s", outputPath)}
	}

	parent := filepath.Dir(outputPath)
	info, err := os.Stat(parent)
	if err != nil || !info.IsDir() {
		return &domain.ValidationError{Field: "output", Reason: fmt.Sprintf("directory does not exist: %s", parent)}
	}
	if err := unix.Access(parent, unix.W_OK); err != nil {
		return &domain.ValidationError{Field: "output", Reason: fmt.Sprintf("directory is not writable: %s", parent)}
	}
	return nil
}
