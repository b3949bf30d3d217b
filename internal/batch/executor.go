package batch

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"

	"reframe/internal/logging"
	"reframe/internal/media/ffprobe"
	"reframe/internal/services"
	"reframe/internal/services/ffmpeg"
	"reframe/internal/transform"
)

// ProbeInfo is what the executor needs to know about a source up front.
type ProbeInfo struct {
	Width    int
	Height   int
	Duration time.Duration
}

// Prober inspects a source file once per job.
type Prober interface {
	Probe(ctx context.Context, path string) (ProbeInfo, error)
}

// FFprobeProber probes sources with the ffprobe tool.
type FFprobeProber struct {
	Binary string
}

// Probe runs ffprobe and classifies its failures: a missing binary is a spawn
// error (fatal to the batch), an unreadable source is a geometry error (local
// to the job).
func (p FFprobeProber) Probe(ctx context.Context, path string) (ProbeInfo, error) {
	result, err := ffprobe.Inspect(ctx, p.Binary, path)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return ProbeInfo{}, services.Wrap(services.ErrEncoderSpawn, path, "probe source", p.Binary, err)
		}
		return ProbeInfo{}, services.Wrap(services.ErrGeometry, path, "probe source", "", err)
	}
	width, height, err := result.Geometry()
	if err != nil {
		return ProbeInfo{}, services.Wrap(services.ErrGeometry, path, "probe source", "", err)
	}
	return ProbeInfo{Width: width, Height: height, Duration: result.Duration()}, nil
}

var _ Prober = FFprobeProber{}

// Executor runs one job at a time against the external encoder.
type Executor struct {
	prober   Prober
	encoder  ffmpeg.Client
	notifier Notifier
	logger   *slog.Logger
}

// NewExecutor wires an executor. Nil notifier and logger default to no-ops.
func NewExecutor(prober Prober, encoder ffmpeg.Client, notifier Notifier, logger *slog.Logger) *Executor {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{prober: prober, encoder: encoder, notifier: notifier, logger: logger}
}

// Execute drives a single job to a terminal state and returns the error that
// ended it, if any. Cancellation surfaces as an error carrying the
// cancellation marker so the orchestrator can tell it apart from failure.
func (e *Executor) Execute(ctx context.Context, job *Job) error {
	if !job.start() {
		return services.Wrap(services.ErrEncoderRuntime, job.SourcePath, "start job",
			"job is not pending", nil)
	}
	e.notifier.JobStatus(job.Snapshot())
	e.logger.Info("job started",
		logging.String("job", job.ID),
		logging.String("source", job.SourcePath),
	)

	err := e.run(ctx, job)
	switch {
	case err == nil:
		job.succeed()
		e.logger.Info("job succeeded",
			logging.String("job", job.ID),
			logging.String("output", job.OutputPath),
		)
	case services.IsCancellation(err) || errors.Is(err, context.Canceled):
		job.cancel("stopped by request")
		e.logger.Info("job cancelled", logging.String("job", job.ID))
		err = services.Wrap(services.ErrCancelled, job.SourcePath, "", "stopped by request", err)
	default:
		job.fail(err.Error())
		e.logger.Error("job failed",
			logging.String("job", job.ID),
			logging.Error(err),
		)
	}
	e.notifier.JobStatus(job.Snapshot())
	return err
}

func (e *Executor) run(ctx context.Context, job *Job) error {
	info, err := e.prober.Probe(ctx, job.SourcePath)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	inputs := transform.Inputs{
		JobLabel:     job.SourcePath,
		SourceWidth:  info.Width,
		SourceHeight: info.Height,
		Zoom:         job.Zoom,
		Quality:      job.Quality,
	}
	if job.Watermark != nil {
		inputs.Watermark = &transform.WatermarkInput{
			AssetPath: job.Watermark.AssetPath,
			SizePx:    job.Watermark.SizePx,
			Opacity:   job.Watermark.Opacity,
			Anchor:    job.Watermark.Anchor,
		}
	}
	descriptor, err := transform.Build(inputs)
	if err != nil {
		return err
	}

	request := ffmpeg.Request{
		SourcePath: job.SourcePath,
		OutputPath: job.OutputPath,
		Descriptor: descriptor,
	}
	return e.encoder.Encode(ctx, request, func(p ffmpeg.Progress) {
		fraction := -1.0
		if p.Done {
			fraction = 1
		} else if info.Duration > 0 {
			fraction = p.Elapsed.Seconds() / info.Duration.Seconds()
		}
		if fraction >= 0 && job.setProgress(fraction) {
			e.notifier.JobProgress(job.ID, job.Progress())
		}
	})
}
