// Package ffprobe implements the probe port by shelling out to ffprobe and
// parsing its JSON output.
package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/calibancode/gifforge/internal/domain"
	"github.com/calibancode/gifforge/internal/fingerprint"
	"github.com/calibancode/gifforge/internal/infrastructure/logger"
	"github.com/calibancode/gifforge/internal/port"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Output(ctx context.Context, binary string, args []string) ([]byte, error)
}

type Option func(*Prober)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(executor Executor) Option {
	return func(p *Prober) {
		if executor != nil {
			p.exec = executor
		}
	}
}

type Prober struct {
	binary string
	cache  port.ProbeCache
	exec   Executor
}

// New constructs a Prober. cache may be nil to disable caching.
func New(binary string, cache port.ProbeCache, opts ...Option) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	p := &Prober{
		binary: binary,
		cache:  cache,
		exec:   commandExecutor{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe inspects the input and returns its typed summary. Failures are
// terminal for the input: no retries, the caller surfaces the error
// immediately.
func (p *Prober) Probe(ctx context.Context, path string) (*domain.SourceMedia, error) {
	fp, err := fingerprint.File(path)
	if err != nil {
		return nil, &domain.ProbeError{Path: path, Err: err}
	}

	if p.cache != nil {
		if media, ok := p.cache.Get(fp); ok {
			logger.Debug.Printf("probe cache hit for %s", path)
			return media, nil
		}
	}

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	output, err := p.exec.Output(ctx, p.binary, args)
	if err != nil {
		return nil, &domain.ProbeError{Path: path, Err: err}
	}

	var result domain.ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, &domain.ProbeError{Path: path, Err: fmt.Errorf("parse ffprobe output: %w", err)}
	}
	if result.VideoStream() == nil {
		return nil, &domain.ProbeError{Path: path, Err: errors.New("no video stream found")}
	}

	media := domain.SourceMediaFromProbe(path, fp, &result)
	if p.cache != nil {
		if err := p.cache.Put(media); err != nil {
			logger.Warn.Printf("probe cache write failed: %v", err)
		}
	}
	return media, nil
}

type commandExecutor struct{}

func (commandExecutor) Output(ctx context.Context, binary string, args []string) ([]byte, error) {
	output, err := exec.CommandContext(ctx, binary, args...).Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%s not found in PATH", binary)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if detail := strings.TrimSpace(string(exitErr.Stderr)); detail != "" {
				return nil, fmt.Errorf("%w: %s", err, detail)
			}
		}
		return nil, err
	}
	return output, nil
}

var _ port.Prober = (*Prober)(nil)
