package domain

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type JobState string

const (
	StateIdle      JobState = "idle"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// Terminal reports whether the state is final for a job.
func (s JobState) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}

var allowedTransitions = map[JobState][]JobState{
	StateIdle:    {StateRunning, StateFailed},
	StateRunning: {StateCompleted, StateFailed, StateCancelled},
}

// ConversionJob binds a source snapshot, a parameter snapshot, and an output
// path to a lifecycle. The process runner owns the job exclusively once it
// is launched; shells only read snapshots.
type ConversionJob struct {
	ID         string
	Source     SourceMedia
	Params     ConversionParameters
	OutputPath string

	mu             sync.Mutex
	state          JobState
	cause          string
	framesRendered int
	createdAt      time.Time
	startedAt      time.Time
	finishedAt     time.Time
}

func NewConversionJob(source SourceMedia, params ConversionParameters, outputPath string) *ConversionJob {
	return &ConversionJob{
		ID:         uuid.NewString(),
		Source:     source,
		Params:     params,
		OutputPath: outputPath,
		state:      StateIdle,
		createdAt:  time.Now(),
	}
}

// Transition moves the job to the next state, enforcing the
// Idle -> Running -> {Completed, Failed, Cancelled} machine. Terminal states
// are final: a second transition out of one is rejected.
func (j *ConversionJob) Transition(to JobState, cause string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	allowed := false
	for _, next := range allowedTransitions[j.state] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("job %s: illegal transition %s -> %s", j.ID, j.state, to)
	}

	j.state = to
	j.cause = cause
	now := time.Now()
	switch to {
	case StateRunning:
		j.startedAt = now
	case StateCompleted, StateFailed, StateCancelled:
		j.finishedAt = now
	}
	return nil
}

func (j *ConversionJob) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Cause returns the human-readable reason for a Failed or Cancelled state.
func (j *ConversionJob) Cause() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cause
}

func (j *ConversionJob) SetFramesRendered(frames int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if frames > j.framesRendered {
		j.framesRendered = frames
	}
}

func (j *ConversionJob) FramesRendered() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.framesRendered
}

// JobView is an immutable snapshot of a job for shells and the API.
type JobView struct {
	ID         string               `json:"id"`
	Input      string               `json:"input"`
	Output     string               `json:"output"`
	Format     OutputFormat         `json:"format"`
	State      JobState             `json:"state"`
	Cause      string               `json:"cause,omitempty"`
	Frames     int                  `json:"frames"`
	Params     ConversionParameters `json:"params"`
	CreatedAt  time.Time            `json:"created_at"`
	StartedAt  time.Time            `json:"started_at,omitzero"`
	FinishedAt time.Time            `json:"finished_at,omitzero"`
}

func (j *ConversionJob) View() JobView {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobView{
		ID:         j.ID,
		Input:      j.Source.Path,
		Output:     j.OutputPath,
		Format:     j.Params.Format,
		State:      j.state,
		Cause:      j.cause,
		Frames:     j.framesRendered,
		Params:     j.Params,
		CreatedAt:  j.createdAt,
		StartedAt:  j.startedAt,
		FinishedAt: j.finishedAt,
	}
}

// HistoryRecord is the archived form of a terminal job.
type HistoryRecord struct {
	ID         string
	Input      string
	Output     string
	Format     OutputFormat
	State      JobState
	Cause      string
	Frames     int
	Duration   float64
	CreatedAt  time.Time
	FinishedAt time.Time
}

// RecordFromJob archives a terminal job. The caller must only invoke it once
// the job has reached a terminal state.
func RecordFromJob(j *ConversionJob) HistoryRecord {
	view := j.View()
	return HistoryRecord{
		ID:         view.ID,
		Input:      view.Input,
		Output:     view.Output,
		Format:     view.Format,
		State:      view.State,
		Cause:      view.Cause,
		Frames:     view.Frames,
		Duration:   j.Source.Duration,
		CreatedAt:  view.CreatedAt,
		FinishedAt: view.FinishedAt,
	}
}
