// Package deps reports the availability of external binaries the daemon
// shells out to, so misconfiguration surfaces at startup instead of when the
// first remux runs.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"shelver/internal/config"
)

// Requirement defines an external dependency shelver relies on.
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

// ForConfig lists the requirements implied by the configuration. Container
// normalization is the only feature that shells out.
func ForConfig(cfg *config.Config) []Requirement {
	if !cfg.Transcode.Enabled {
		return nil
	}
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.Transcode.FFmpegBinary, Description: "Remuxes MKV containers to MP4"},
		{Name: "FFprobe", Command: cfg.Transcode.FFprobeBinary, Description: "Validates remux sources"},
	}
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
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
