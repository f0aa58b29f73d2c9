package port

import (
	"context"

	"github.com/calibancode/gifforge/internal/domain"
)

// LogSink receives external tool output and progress updates. Delivery
// preserves arrival order; implementations must not block the runner.
type LogSink interface {
	Log(jobID string, line domain.LogLine)
	Progress(jobID string, percent int, message string)
}

// Execution is a handle on a launched job. Cancel is best-effort and returns
// immediately; Done closes once the job reaches a terminal state.
type Execution interface {
	Cancel()
	Done() <-chan struct{}
}

// JobRunner launches a job's plan in the background. Launch never blocks on
// the external processes; the job transitions to Running before it returns.
type JobRunner interface {
	Launch(ctx context.Context, job *domain.ConversionJob, plan domain.Plan, sink LogSink) (Execution, error)
}
