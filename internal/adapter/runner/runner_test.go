package runner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calibancode/gifforge/internal/domain"
	"github.com/calibancode/gifforge/internal/port"
)

// collectSink records everything the runner reports.
type collectSink struct {
	mu       sync.Mutex
	lines    []domain.LogLine
	percents []int
}

func (s *collectSink) Log(jobID string, line domain.LogLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
}

func (s *collectSink) Progress(jobID string, percent int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.percents = append(s.percents, percent)
}

func (s *collectSink) stderrLines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, line := range s.lines {
		if line.Stream == "stderr" {
			out = append(out, line.Text)
		}
	}
	return out
}

func (s *collectSink) lastPercent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.percents) == 0 {
		return -1
	}
	return s.percents[len(s.percents)-1]
}

var _ port.LogSink = (*collectSink)(nil)

func newRunnerJob() *domain.ConversionJob {
	source := domain.SourceMedia{Path: "/videos/in.mp4", Duration: 1, FrameRate: 30}
	return domain.NewConversionJob(source, domain.DefaultParameters(), "/videos/out.gif")
}

func shellInvocation(step, script string, weight int) domain.Invocation {
	return domain.Invocation{
		Program: "sh",
		Args:    []string{"-c", script},
		Step:    step,
		Weight:  weight,
	}
}

func waitDone(t *testing.T, execution port.Execution) {
	t.Helper()
	select {
	case <-execution.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("execution did not finish in time")
	}
}

func TestRunnerCompletes(t *testing.T) {
	job := newRunnerJob()
	sink := &collectSink{}

	execution, err := New().Launch(context.Background(), job, domain.Plan{
		shellInvocation("encode", "true", 100),
	}, sink)
	require.NoError(t, err)
	require.Equal(t, domain.StateRunning, job.State(), "launch moves the job to running")

	waitDone(t, execution)

	assert.Equal(t, domain.StateCompleted, job.State())
	assert.Equal(t, 100, sink.lastPercent())
}

func TestRunnerEmptyPlan(t *testing.T) {
	job := newRunnerJob()

	_, err := New().Launch(context.Background(), job, nil, &collectSink{})
	assert.Error(t, err)
	assert.Equal(t, domain.StateIdle, job.State())
}

func TestRunnerProcessFailure(t *testing.T) {
	job := newRunnerJob()
	sink := &collectSink{}

	execution, err := New().Launch(context.Background(), job, domain.Plan{
		shellInvocation("encode", "echo boom >&2; exit 3", 100),
	}, sink)
	require.NoError(t, err)
	waitDone(t, execution)

	assert.Equal(t, domain.StateFailed, job.State())
	assert.Contains(t, job.Cause(), "exited with code 3")
	assert.Contains(t, job.Cause(), "boom", "stderr tail lands in the cause")
	assert.Contains(t, sink.stderrLines(), "boom")
}

func TestRunnerSanitizesToolOutput(t *testing.T) {
	job := newRunnerJob()
	sink := &collectSink{}

	execution, err := New().Launch(context.Background(), job, domain.Plan{
		shellInvocation("encode", `printf 'bad\033[31mred\tend\n' >&2; exit 1`, 100),
	}, sink)
	require.NoError(t, err)
	waitDone(t, execution)

	require.Equal(t, domain.StateFailed, job.State())
	assert.Contains(t, sink.stderrLines(), `bad\x1b[31mred\tend`)
	for _, line := range sink.stderrLines() {
		assert.NotContains(t, line, "\x1b", "escape sequences must not reach subscribers raw")
	}
	assert.Contains(t, job.Cause(), `\x1b[31m`, "the failure cause carries the escaped form")
	assert.NotContains(t, job.Cause(), "\x1b")
}

func TestRunnerFailureStopsPlan(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "marker")
	job := newRunnerJob()

	execution, err := New().Launch(context.Background(), job, domain.Plan{
		shellInvocation("encode", "exit 1", 80),
		shellInvocation("optimize", "touch "+marker, 20),
	}, &collectSink{})
	require.NoError(t, err)
	waitDone(t, execution)

	assert.Equal(t, domain.StateFailed, job.State())
	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr), "failed step aborts the remaining plan")
}

func TestRunnerLaunchFailure(t *testing.T) {
	job := newRunnerJob()

	execution, err := New().Launch(context.Background(), job, domain.Plan{
		{Program: "/nonexistent/binary/path", Args: []string{"x"}, Step: "encode", Weight: 100},
	}, &collectSink{})
	require.NoError(t, err, "launch errors surface through the job state")
	waitDone(t, execution)

	assert.Equal(t, domain.StateFailed, job.State())
	assert.Contains(t, job.Cause(), "launch")
}

func TestRunnerCancel(t *testing.T) {
	job := newRunnerJob()
	sink := &collectSink{}

	start := time.Now()
	execution, err := New().Launch(context.Background(), job, domain.Plan{
		shellInvocation("encode", "sleep 30", 100),
	}, sink)
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	execution.Cancel()
	waitDone(t, execution)

	assert.Equal(t, domain.StateCancelled, job.State())
	assert.Equal(t, domain.ErrCancelled.Error(), job.Cause())
	assert.Less(t, time.Since(start), 10*time.Second, "cancel must not wait the process out")
}

func TestRunnerCancelSkipsChainedInvocations(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "marker")
	job := newRunnerJob()

	execution, err := New().Launch(context.Background(), job, domain.Plan{
		shellInvocation("encode", "sleep 30", 80),
		shellInvocation("optimize", "touch "+marker, 20),
	}, &collectSink{})
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	execution.Cancel()
	waitDone(t, execution)

	assert.Equal(t, domain.StateCancelled, job.State())
	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr), "a cancelled plan never starts its chained pass")
}

func TestRunnerCancelledJobNeverCompletes(t *testing.T) {
	job := newRunnerJob()

	execution, err := New().Launch(context.Background(), job, domain.Plan{
		shellInvocation("encode", "sleep 30", 100),
	}, &collectSink{})
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	execution.Cancel()
	waitDone(t, execution)

	require.Equal(t, domain.StateCancelled, job.State())
	assert.Error(t, job.Transition(domain.StateCompleted, ""), "cancelled is terminal")
}
