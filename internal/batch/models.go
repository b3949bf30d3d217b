package batch

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reframe/internal/geometry"
	"reframe/internal/preset"
	"reframe/internal/watermark"
)

// Status represents the lifecycle of a conversion job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{StatusPending, StatusRunning, StatusSucceeded, StatusFailed, StatusCancelled}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return normalized, true
		}
	}
	return "", false
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// WatermarkConfig holds the watermark settings attached to a job. Immutable
// once attached.
type WatermarkConfig struct {
	AssetPath string
	Opacity   float64
	SizePx    int
	Anchor    watermark.Anchor
}

// Params is the validated input for creating one job.
type Params struct {
	SourcePath string
	OutputPath string
	Zoom       float64
	Quality    preset.Quality
	Watermark  *WatermarkConfig
}

// Job is one source-to-output conversion. Identity and parameters are fixed
// at creation; status and progress mutate only while the executor runs it.
type Job struct {
	ID         string
	SourcePath string
	OutputPath string
	Zoom       float64
	Quality    preset.Quality
	Watermark  *WatermarkConfig

	mu         sync.Mutex
	status     Status
	progress   float64
	errMessage string
	startedAt  time.Time
	finishedAt time.Time
}

// NewJob validates parameters and creates a pending job. Invalid input is
// rejected here, before it ever reaches the pipeline.
func NewJob(p Params) (*Job, error) {
	source := strings.TrimSpace(p.SourcePath)
	if source == "" {
		return nil, fmt.Errorf("source path required")
	}
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source %s is a directory", source)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("source %s is empty", source)
	}
	if strings.TrimSpace(p.OutputPath) == "" {
		return nil, fmt.Errorf("output path required")
	}
	if math.IsNaN(p.Zoom) || p.Zoom < geometry.MinZoom || p.Zoom > geometry.MaxZoom {
		return nil, fmt.Errorf("zoom %.2f outside [%.1f, %.1f]", p.Zoom, geometry.MinZoom, geometry.MaxZoom)
	}
	if _, ok := preset.ParseQuality(string(p.Quality)); !ok {
		return nil, fmt.Errorf("unknown quality %q", string(p.Quality))
	}

	var wm *WatermarkConfig
	if p.Watermark != nil {
		cp := *p.Watermark
		if strings.TrimSpace(cp.AssetPath) == "" {
			return nil, fmt.Errorf("watermark asset path required")
		}
		if cp.SizePx < watermark.MinSizePx || cp.SizePx > watermark.MaxSizePx {
			return nil, fmt.Errorf("watermark size %dpx outside [%d, %d]", cp.SizePx, watermark.MinSizePx, watermark.MaxSizePx)
		}
		if math.IsNaN(cp.Opacity) || cp.Opacity < watermark.MinOpacity || cp.Opacity > watermark.MaxOpacity {
			return nil, fmt.Errorf("watermark opacity %.2f outside [%.1f, %.1f]", cp.Opacity, watermark.MinOpacity, watermark.MaxOpacity)
		}
		anchor, ok := watermark.ParseAnchor(string(cp.Anchor))
		if !ok {
			return nil, fmt.Errorf("unknown watermark anchor %q", string(cp.Anchor))
		}
		cp.Anchor = anchor
		wm = &cp
	}

	return &Job{
		ID:         uuid.NewString(),
		SourcePath: source,
		OutputPath: p.OutputPath,
		Zoom:       p.Zoom,
		Quality:    p.Quality,
		Watermark:  wm,
		status:     StatusPending,
	}, nil
}

// Snapshot is an immutable view of a job's shared state, safe to publish to
// the presentation layer.
type Snapshot struct {
	ID         string
	SourcePath string
	OutputPath string
	Zoom       float64
	Quality    preset.Quality
	Status     Status
	Progress   float64
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Snapshot returns a copy of the job's current shared state.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Snapshot{
		ID:         j.ID,
		SourcePath: j.SourcePath,
		OutputPath: j.OutputPath,
		Zoom:       j.Zoom,
		Quality:    j.Quality,
		Status:     j.status,
		Progress:   j.progress,
		Error:      j.errMessage,
		StartedAt:  j.startedAt,
		FinishedAt: j.finishedAt,
	}
}

// Status returns the job's current status.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Progress returns the job's current progress fraction in [0, 1].
func (j *Job) Progress() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

// start moves the job into Running. Reports false when the job is not Pending.
func (j *Job) start() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusPending {
		return false
	}
	j.status = StatusRunning
	j.startedAt = time.Now().UTC()
	return true
}

// setProgress updates the fraction, ignoring regressions and clamping to [0, 1].
func (j *Job) setProgress(fraction float64) bool {
	if math.IsNaN(fraction) {
		return false
	}
	if fraction > 1 {
		fraction = 1
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusRunning || fraction <= j.progress {
		return false
	}
	j.progress = fraction
	return true
}

// succeed finishes the job successfully, forcing progress to 1.0.
func (j *Job) succeed() bool {
	return j.finish(StatusSucceeded, "", 1)
}

// fail records a terminal failure with human-readable detail.
func (j *Job) fail(message string) bool {
	return j.finish(StatusFailed, message, -1)
}

// cancel stops the job, either mid-run or before it started.
func (j *Job) cancel(reason string) bool {
	return j.finish(StatusCancelled, reason, -1)
}

func (j *Job) finish(status Status, message string, progress float64) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return false
	}
	j.status = status
	j.errMessage = message
	if progress >= 0 {
		j.progress = progress
	}
	j.finishedAt = time.Now().UTC()
	return true
}
