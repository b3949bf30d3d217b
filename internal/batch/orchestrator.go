package batch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"reframe/internal/logging"
	"reframe/internal/services"
)

// Orchestrator processes a run's jobs one at a time, in order.
type Orchestrator struct {
	executor *Executor
	notifier Notifier
	logger   *slog.Logger
}

// NewOrchestrator wires an orchestrator. Nil notifier and logger default to
// no-ops.
func NewOrchestrator(executor *Executor, notifier Notifier, logger *slog.Logger) *Orchestrator {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{executor: executor, notifier: notifier, logger: logger}
}

// Run drives every job in the run to a terminal state and returns the batch
// summary. Job failures are recorded and the run continues, with two
// exceptions: a spawn failure aborts the run because every later job would
// hit the same missing tool, and cancellation stops the run at the next job
// boundary. Run never returns a non-nil error for individual job failures;
// the error reports abort conditions only.
func (o *Orchestrator) Run(ctx context.Context, run *Run) (Summary, error) {
	started := time.Now()
	total := len(run.Jobs())
	o.logger.Info("run started",
		logging.String("run", run.ID),
		logging.Int("jobs", total),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-run.cancelSignal():
			cancel()
		case <-runCtx.Done():
		}
	}()

	var abort error
	completed := 0
	for _, job := range run.Jobs() {
		if abort != nil || run.Cancelled() || runCtx.Err() != nil {
			reason := "run cancelled before job started"
			if abort != nil {
				reason = "run aborted: " + abort.Error()
			}
			if job.cancel(reason) {
				o.notifier.JobStatus(job.Snapshot())
			}
			completed++
			o.notifier.BatchProgress(completed, total)
			continue
		}

		err := o.executor.Execute(runCtx, job)
		switch {
		case err == nil:
		case services.IsCancellation(err) || errors.Is(err, context.Canceled):
			// Already reflected in the job's status.
		case services.BatchFatal(err):
			run.recordFailure(job, err)
			abort = err
			o.logger.Error("run aborted", logging.String("run", run.ID), logging.Error(err))
		default:
			run.recordFailure(job, err)
		}
		completed++
		o.notifier.BatchProgress(completed, total)
	}

	summary := run.summarize(time.Since(started))
	o.logger.Info("run finished",
		logging.String("run", run.ID),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Int("cancelled", summary.Cancelled),
		logging.Duration("duration", summary.Duration),
	)
	return summary, abort
}
