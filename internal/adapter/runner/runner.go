// Package runner executes conversion plans as external processes, streaming
// their output and honoring best-effort-immediate cancellation.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/calibancode/gifforge/internal/command"
	"github.com/calibancode/gifforge/internal/domain"
	"github.com/calibancode/gifforge/internal/infrastructure/logger"
	"github.com/calibancode/gifforge/internal/port"
)

const defaultTermGrace = 2 * time.Second

type Runner struct {
	termGrace time.Duration
}

type Option func(*Runner)

// WithTermGrace sets how long a cancelled process gets between SIGTERM and
// SIGKILL.
func WithTermGrace(grace time.Duration) Option {
	return func(r *Runner) {
		if grace > 0 {
			r.termGrace = grace
		}
	}
}

func New(opts ...Option) *Runner {
	r := &Runner{termGrace: defaultTermGrace}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type execution struct {
	job       *domain.ConversionJob
	cancel    context.CancelFunc
	cancelled atomic.Bool
	done      chan struct{}
}

// Cancel requests termination and returns without waiting for it to take
// effect. The Cancelled state becomes final only once the process is gone.
func (e *execution) Cancel() {
	e.cancelled.Store(true)
	e.cancel()
}

func (e *execution) Done() <-chan struct{} { return e.done }

// Launch moves the job to Running and starts the plan in a background
// goroutine. It never blocks on the external processes.
func (r *Runner) Launch(ctx context.Context, job *domain.ConversionJob, plan domain.Plan, sink port.LogSink) (port.Execution, error) {
	if len(plan) == 0 {
		return nil, errors.New("empty conversion plan")
	}
	if err := job.Transition(domain.StateRunning, ""); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	e := &execution{
		job:    job,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go r.run(runCtx, e, plan, sink)
	return e, nil
}

func (r *Runner) run(ctx context.Context, e *execution, plan domain.Plan, sink port.LogSink) {
	defer e.cancel()
	defer close(e.done)

	job := e.job
	weightDone := 0

	for _, inv := range plan {
		// A cancel between invocations means the chained pass never starts.
		if e.cancelled.Load() || ctx.Err() != nil {
			r.finishCancelled(job, sink)
			return
		}

		if err := r.runInvocation(ctx, e, inv, weightDone, sink); err != nil {
			if errors.Is(err, domain.ErrCancelled) {
				r.finishCancelled(job, sink)
				return
			}
			if terr := job.Transition(domain.StateFailed, err.Error()); terr != nil {
				logger.Error.Printf("job %s: %v", job.ID, terr)
			}
			sink.Progress(job.ID, weightDone, fmt.Sprintf("failed: %s", inv.Step))
			return
		}

		weightDone += inv.Weight
		sink.Progress(job.ID, weightDone, fmt.Sprintf("%s complete", inv.Step))
	}

	if err := job.Transition(domain.StateCompleted, ""); err != nil {
		logger.Error.Printf("job %s: %v", job.ID, err)
		return
	}
	sink.Progress(job.ID, 100, "done")
}

func (r *Runner) finishCancelled(job *domain.ConversionJob, sink port.LogSink) {
	if err := job.Transition(domain.StateCancelled, domain.ErrCancelled.Error()); err != nil {
		logger.Error.Printf("job %s: %v", job.ID, err)
		return
	}
	sink.Progress(job.ID, 0, "cancelled")
}

func (r *Runner) runInvocation(ctx context.Context, e *execution, inv domain.Invocation, weightDone int, sink port.LogSink) error {
	job := e.job
	program := filepath.Base(inv.Program)

	sink.Log(job.ID, domain.LogLine{Step: inv.Step, Stream: "system", Text: "cmd: " + logger.SanitizeForLog(inv.CommandLine())})

	cmd := exec.CommandContext(ctx, inv.Program, inv.Args...)
	// Terminate politely on cancel; CommandContext's Wait escalates to
	// SIGKILL after WaitDelay.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.termGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		// Covers both "executable not found" and permission denied.
		return &domain.LaunchError{Program: program, Err: err}
	}

	tail := newTailBuffer(10)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		r.scanStdout(stdout, e, inv, weightDone, sink)
	}()
	go func() {
		defer wg.Done()
		r.scanStderr(stderr, job.ID, inv.Step, tail, sink)
	}()

	wg.Wait()
	err = cmd.Wait()
	if err != nil {
		if e.cancelled.Load() || ctx.Err() != nil {
			return domain.ErrCancelled
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &domain.ProcessFailure{
				Program:  program,
				ExitCode: exitErr.ExitCode(),
				Stderr:   tail.String(),
			}
		}
		return fmt.Errorf("wait for %s: %w", program, err)
	}
	return nil
}

func (r *Runner) scanStdout(stdout io.Reader, e *execution, inv domain.Invocation, weightDone int, sink port.LogSink) {
	job := e.job
	estimated := job.Source.EstimatedFrames(job.Params.FPS, job.Params.SpeedMultiplier)
	effectiveDuration := job.Source.Duration
	if job.Params.SpeedMultiplier > 0 {
		effectiveDuration /= job.Params.SpeedMultiplier
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		if inv.ParseProgress {
			progress := command.ParseProgressLine(line)
			if progress.HasFrame {
				job.SetFramesRendered(progress.Frame)
			}
			if progress.HasTime && effectiveDuration > 0 {
				pct := float64(progress.OutTimeMS) / (effectiveDuration * 1_000_000) * 100
				r.emitWeighted(job.ID, weightDone, inv.Weight, pct, sink)
				continue
			}
			if progress.HasFrame {
				if estimated > 0 {
					pct := float64(job.FramesRendered()) / float64(estimated) * 100
					r.emitWeighted(job.ID, weightDone, inv.Weight, pct, sink)
				}
				continue
			}
			if progress.HasTime {
				continue
			}
		}

		sink.Log(job.ID, domain.LogLine{Step: inv.Step, Stream: "stdout", Text: logger.SanitizeForLog(line)})
	}
}

func (r *Runner) scanStderr(stderr io.Reader, jobID, step string, tail *tailBuffer, sink port.LogSink) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || command.IsNoise(line) {
			continue
		}
		// External tools write straight to terminals and log sinks through
		// these lines; escape sequences must not survive.
		line = logger.SanitizeForLog(line)
		tail.add(line)
		sink.Log(jobID, domain.LogLine{Step: step, Stream: "stderr", Text: line})
	}
}

func (r *Runner) emitWeighted(jobID string, weightDone, weight int, stepPct float64, sink port.LogSink) {
	if stepPct > 100 {
		stepPct = 100
	}
	if stepPct < 0 {
		stepPct = 0
	}
	total := weightDone + int(float64(weight)*stepPct/100)
	sink.Progress(jobID, total, fmt.Sprintf("rendering %d%%", int(stepPct)))
}

var _ port.JobRunner = (*Runner)(nil)
