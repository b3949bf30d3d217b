// Package deps verifies the external tools and assets reframe needs before a
// conversion run starts.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"reframe/internal/config"
	"reframe/internal/watermark"
)

// Requirement defines an external dependency reframe relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Detail = path
		results = append(results, status)
	}
	return results
}

// CheckAll runs the full preflight for the given configuration: the encoder
// tools plus the configured watermark asset, when one is set.
func CheckAll(cfg *config.Config) []Status {
	statuses := CheckBinaries([]Requirement{
		{Name: "ffmpeg", Command: cfg.FFmpegBinary(), Description: "video encoder"},
		{Name: "ffprobe", Command: cfg.FFprobeBinary(), Description: "stream prober"},
	})
	if asset := strings.TrimSpace(cfg.Paths.Watermark); asset != "" {
		statuses = append(statuses, checkWatermarkAsset(asset))
	}
	return statuses
}

func checkWatermarkAsset(path string) Status {
	status := Status{
		Name:        "watermark",
		Command:     path,
		Description: "overlay image",
		Optional:    true,
	}
	width, height, err := watermark.ProbeAsset(path)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	status.Available = true
	status.Detail = fmt.Sprintf("%dx%d", width, height)
	return status
}
