package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/calibancode/gifforge/internal/command"
	"github.com/calibancode/gifforge/internal/domain"
	"github.com/calibancode/gifforge/internal/infrastructure/logger"
	"github.com/calibancode/gifforge/internal/port"
)

// ConversionService orchestrates one conversion at a time: probe the input,
// validate the parameter snapshot, build the plan, and hand it to the
// runner. Probe and validation errors surface synchronously and block job
// creation; launch and process failures surface through the job's terminal
// state and the event bus.
type ConversionService struct {
	prober  port.Prober
	runner  port.JobRunner
	history port.HistoryStore
	bus     *EventBus
	tools   command.Tools

	lockPath string

	mu     sync.Mutex
	active *activeJob
	flk    *flock.Flock
}

type activeJob struct {
	job  *domain.ConversionJob
	exec port.Execution
}

func NewConversionService(prober port.Prober, runner port.JobRunner, history port.HistoryStore, bus *EventBus, tools command.Tools, dataDir string) *ConversionService {
	return &ConversionService{
		prober:   prober,
		runner:   runner,
		history:  history,
		bus:      bus,
		tools:    tools,
		lockPath: filepath.Join(dataDir, "gifforge.lock"),
	}
}

// Bus exposes the event bus so shells can subscribe to job events.
func (s *ConversionService) Bus() *EventBus { return s.bus }

// Probe inspects an input file. No retries: a probe failure is terminal for
// that input.
func (s *ConversionService) Probe(ctx context.Context, path string) (*domain.SourceMedia, error) {
	return s.prober.Probe(ctx, path)
}

// StartConversion validates, probes, builds the plan, and launches the job.
// It returns once the job is Running; completion is observed via Wait or the
// event bus. Only one job may be active at a time.
func (s *ConversionService) StartConversion(ctx context.Context, inputPath, outputPath string, params domain.ConversionParameters) (*domain.ConversionJob, error) {
	format, err := domain.DetectOutputFormat(outputPath)
	if err != nil {
		return nil, err
	}
	if err := params.SetFormat(format); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateOutputPath(outputPath); err != nil {
		return nil, err
	}

	source, err := s.prober.Probe(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil && !s.active.job.State().Terminal() {
		return nil, domain.ErrJobActive
	}

	// Cross-process guard: a second gifforge instance on the same data dir
	// must not start a concurrent conversion.
	flk := flock.New(s.lockPath)
	locked, err := flk.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire job lock: %w", err)
	}
	if !locked {
		return nil, domain.ErrJobActive
	}

	job := domain.NewConversionJob(*source, params, outputPath)
	plan := command.BuildPlan(source, params, inputPath, outputPath, s.tools)

	execution, err := s.runner.Launch(ctx, job, plan, s.bus)
	if err != nil {
		_ = flk.Unlock()
		return nil, err
	}

	s.active = &activeJob{job: job, exec: execution}
	s.flk = flk
	logger.Info.Printf("job %s started: %s -> %s (%s)", job.ID, inputPath, outputPath, params.Format)

	go s.finalize(job, execution)
	return job, nil
}

func (s *ConversionService) finalize(job *domain.ConversionJob, execution port.Execution) {
	<-execution.Done()

	view := job.View()
	s.bus.PublishState(job.ID, view.State, view.Cause)

	switch view.State {
	case domain.StateCompleted:
		logger.Info.Printf("job %s completed (%d frames)", job.ID, view.Frames)
	case domain.StateCancelled:
		logger.Info.Printf("job %s cancelled", job.ID)
	default:
		logger.Error.Printf("job %s failed: %s", job.ID, view.Cause)
	}

	if s.history != nil {
		if err := s.history.Save(domain.RecordFromJob(job)); err != nil {
			logger.Error.Printf("archive job %s: %v", job.ID, err)
		}
	}

	s.mu.Lock()
	if s.active != nil && s.active.job.ID == job.ID {
		s.active = nil
	}
	if s.flk != nil {
		_ = s.flk.Unlock()
		s.flk = nil
	}
	s.mu.Unlock()
}

// Cancel requests termination of the active job. It returns immediately;
// the Cancelled state lands once the external process is confirmed gone.
func (s *ConversionService) Cancel(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.active.job.ID != jobID {
		return domain.ErrNotFound
	}
	s.active.exec.Cancel()
	return nil
}

// Wait blocks until the job reaches a terminal state or ctx is done.
func (s *ConversionService) Wait(ctx context.Context, jobID string) error {
	s.mu.Lock()
	var done <-chan struct{}
	if s.active != nil && s.active.job.ID == jobID {
		done = s.active.exec.Done()
	}
	s.mu.Unlock()

	if done == nil {
		// Already finalized.
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Job returns a snapshot of the active job, or the archived record of a
// finished one.
func (s *ConversionService) Job(jobID string) (domain.JobView, error) {
	s.mu.Lock()
	if s.active != nil && s.active.job.ID == jobID {
		view := s.active.job.View()
		s.mu.Unlock()
		return view, nil
	}
	s.mu.Unlock()

	if s.history == nil {
		return domain.JobView{}, domain.ErrNotFound
	}
	record, err := s.history.Get(jobID)
	if err != nil {
		return domain.JobView{}, err
	}
	return domain.JobView{
		ID:         record.ID,
		Input:      record.Input,
		Output:     record.Output,
		Format:     record.Format,
		State:      record.State,
		Cause:      record.Cause,
		Frames:     record.Frames,
		CreatedAt:  record.CreatedAt,
		FinishedAt: record.FinishedAt,
	}, nil
}

// currentJob returns the currently running job, or nil.
func (s *ConversionService) currentJob() *domain.ConversionJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	return s.active.job
}

// History lists archived jobs, newest first.
func (s *ConversionService) History(limit int) ([]domain.HistoryRecord, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.List(limit)
}
