package batch

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Failure pairs a failed job with its error for the batch summary.
type Failure struct {
	JobID      string
	SourcePath string
	Err        error
}

// Run is an ordered batch of jobs processed sequentially. The cancellation
// flag is one-way: once set it stays set, and repeat sets are no-ops.
type Run struct {
	ID        string
	CreatedAt time.Time

	jobs []*Job

	cancelOnce sync.Once
	cancelled  atomic.Bool
	cancelCh   chan struct{}

	mu       sync.Mutex
	failures []Failure
}

// NewRun builds a run over the given jobs, preserving order.
func NewRun(jobs []*Job) *Run {
	return &Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		jobs:      append([]*Job(nil), jobs...),
		cancelCh:  make(chan struct{}),
	}
}

// Jobs returns the run's jobs in processing order.
func (r *Run) Jobs() []*Job {
	return append([]*Job(nil), r.jobs...)
}

// Cancel requests a best-effort stop. The active job is interrupted and
// remaining pending jobs will not start. Completed jobs are untouched.
func (r *Run) Cancel() {
	r.cancelOnce.Do(func() {
		r.cancelled.Store(true)
		close(r.cancelCh)
	})
}

// Cancelled reports whether cancellation has been requested.
func (r *Run) Cancelled() bool {
	return r.cancelled.Load()
}

// cancelSignal is closed when cancellation is requested.
func (r *Run) cancelSignal() <-chan struct{} {
	return r.cancelCh
}

func (r *Run) recordFailure(job *Job, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, Failure{JobID: job.ID, SourcePath: job.SourcePath, Err: err})
}

// Failures returns the errors of every failed job, in processing order.
func (r *Run) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Failure(nil), r.failures...)
}

// Progress returns completed jobs over total, in [0, 1].
func (r *Run) Progress() float64 {
	if len(r.jobs) == 0 {
		return 1
	}
	completed := 0
	for _, job := range r.jobs {
		if job.Status().Terminal() {
			completed++
		}
	}
	return float64(completed) / float64(len(r.jobs))
}

// Summary aggregates a finished run.
type Summary struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
	Cancelled int
	Failures  []Failure
	Duration  time.Duration
}

func (r *Run) summarize(duration time.Duration) Summary {
	summary := Summary{
		RunID:    r.ID,
		Total:    len(r.jobs),
		Failures: r.Failures(),
		Duration: duration,
	}
	for _, job := range r.jobs {
		switch job.Status() {
		case StatusSucceeded:
			summary.Succeeded++
		case StatusFailed:
			summary.Failed++
		case StatusCancelled:
			summary.Cancelled++
		}
	}
	return summary
}
