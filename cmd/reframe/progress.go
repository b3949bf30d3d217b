package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"reframe/internal/batch"
)

// consoleNotifier renders conversion progress to the terminal. On a TTY each
// running job gets a live progress bar; otherwise it prints one line per
// status change so logs stay readable when piped.
type consoleNotifier struct {
	out   io.Writer
	fancy bool

	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	barID string
}

func newConsoleNotifier(out io.Writer) *consoleNotifier {
	return &consoleNotifier{out: out, fancy: writerIsTerminal(out)}
}

func writerIsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (n *consoleNotifier) JobStatus(snapshot batch.Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()

	name := filepath.Base(snapshot.SourcePath)
	switch snapshot.Status {
	case batch.StatusRunning:
		if n.fancy {
			n.bar = progressbar.NewOptions(100,
				progressbar.OptionSetWriter(n.out),
				progressbar.OptionSetDescription(name),
				progressbar.OptionSetPredictTime(false),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			n.barID = snapshot.ID
		} else {
			fmt.Fprintf(n.out, "converting %s\n", name)
		}
	case batch.StatusSucceeded:
		n.closeBar(snapshot.ID)
		fmt.Fprintf(n.out, "done %s -> %s\n", name, snapshot.OutputPath)
	case batch.StatusFailed:
		n.closeBar(snapshot.ID)
		fmt.Fprintf(n.out, "failed %s: %s\n", name, snapshot.Error)
	case batch.StatusCancelled:
		n.closeBar(snapshot.ID)
		fmt.Fprintf(n.out, "cancelled %s\n", name)
	}
}

func (n *consoleNotifier) JobProgress(jobID string, fraction float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.bar == nil || n.barID != jobID {
		return
	}
	_ = n.bar.Set(int(fraction * 100))
}

func (n *consoleNotifier) BatchProgress(completed, total int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.fancy {
		fmt.Fprintf(n.out, "progress %d/%d\n", completed, total)
	}
}

func (n *consoleNotifier) closeBar(jobID string) {
	if n.bar != nil && n.barID == jobID {
		_ = n.bar.Finish()
		n.bar = nil
		n.barID = ""
	}
}

var _ batch.Notifier = (*consoleNotifier)(nil)
