package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"reframe/internal/services"
	"reframe/internal/transform"
)

var commandContext = exec.CommandContext

// diagnosticLines is how many trailing stderr lines are kept for error detail.
const diagnosticLines = 6

// Progress captures one elapsed-time event from the encoder's progress stream.
type Progress struct {
	Elapsed time.Duration
	Speed   float64
	Done    bool
}

// Request describes one encode invocation.
type Request struct {
	SourcePath string
	OutputPath string
	Descriptor transform.Descriptor
}

// Client defines the encoding behaviour the job executor depends on.
type Client interface {
	Encode(ctx context.Context, req Request, progress func(Progress)) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the ffmpeg command-line encoder.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Encode launches ffmpeg for one job and streams progress events until the
// process exits. On context cancellation the process receives an interrupt
// and the returned error carries the cancellation marker. Partial output is
// left in place for diagnostics.
func (c *CLI) Encode(ctx context.Context, req Request, progress func(Progress)) error {
	if strings.TrimSpace(req.SourcePath) == "" {
		return errors.New("source path required")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return errors.New("output path required")
	}
	if dir := filepath.Dir(req.OutputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrEncoderRuntime, req.SourcePath, "create output directory", dir, err)
		}
	}

	args := Args(req.Descriptor, req.SourcePath, req.OutputPath)
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	if cmd.Cancel != nil {
		// Let ffmpeg flush its trailer before the hard kill.
		cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
		cmd.WaitDelay = 5 * time.Second
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return services.Wrap(services.ErrEncoderSpawn, req.SourcePath, "stdout pipe", "", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return services.Wrap(services.ErrEncoderSpawn, req.SourcePath, "stderr pipe", "", err)
	}

	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrEncoderSpawn, req.SourcePath, "start ffmpeg", c.binary, err)
	}

	var wg sync.WaitGroup
	var diagnostics []string
	wg.Add(1)
	go func() {
		defer wg.Done()
		diagnostics = tailLines(stderr, diagnosticLines)
	}()

	scanner := bufio.NewScanner(stdout)
	var state progressState
	for scanner.Scan() {
		if update, ok := state.consume(scanner.Text()); ok && progress != nil {
			progress(update)
		}
	}
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return services.Wrap(services.ErrCancelled, req.SourcePath, "encode", "stopped by request", ctx.Err())
		}
		detail := strings.Join(diagnostics, " | ")
		return services.Wrap(services.ErrEncoderRuntime, req.SourcePath, "encode", detail, err)
	}
	return nil
}

var _ Client = (*CLI)(nil)

// progressState accumulates ffmpeg's key=value progress lines. A value is
// emitted per block, keyed off the trailing "progress=" line.
type progressState struct {
	elapsed time.Duration
	speed   float64
}

func (s *progressState) consume(line string) (Progress, bool) {
	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return Progress{}, false
	}
	value = strings.TrimSpace(value)
	switch key {
	case "out_time_us", "out_time_ms":
		// Both report microseconds.
		if micros, err := strconv.ParseInt(value, 10, 64); err == nil && micros >= 0 {
			s.elapsed = time.Duration(micros) * time.Microsecond
		}
	case "speed":
		if parsed, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64); err == nil {
			s.speed = parsed
		}
	case "progress":
		return Progress{Elapsed: s.elapsed, Speed: s.speed, Done: value == "end"}, true
	}
	return Progress{}, false
}

func tailLines(r io.Reader, keep int) []string {
	scanner := bufio.NewScanner(r)
	lines := make([]string, 0, keep)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if len(lines) == keep {
			copy(lines, lines[1:])
			lines = lines[:keep-1]
		}
		lines = append(lines, line)
	}
	return lines
}
