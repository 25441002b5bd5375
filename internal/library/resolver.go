package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"shelver/internal/config"
	"shelver/internal/queue"
	"shelver/internal/services"
)

// Resolver maps completed jobs onto the library directory layout.
type Resolver struct {
	moviesDir string
	tvDir     string
}

// NewResolver constructs a resolver over the configured library roots.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{moviesDir: cfg.Paths.MoviesDir, tvDir: cfg.Paths.TVDir}
}

// Resolve computes the final path for a job and creates the destination
// directory. The result is deterministic for identical input; directory
// creation is idempotent.
func (r *Resolver) Resolve(job *queue.Job) (string, error) {
	var destDir, filename string
	switch job.Category {
	case queue.CategoryMovie:
		destDir = filepath.Join(r.moviesDir, CleanComponent(job.MovieDirectory))
		filename = CleanComponent(job.DesiredFilename)
	case queue.CategoryTV:
		series := CleanComponent(job.SeriesName)
		destDir = filepath.Join(r.tvDir, series)
		filename = EpisodeFilename(series, job.Season, job.Episode, job.DesiredFilename)
	default:
		return "", services.Wrap(services.ErrValidation, "library", "resolve", fmt.Sprintf("unknown category %q", job.Category), nil)
	}
	if filename == "" {
		return "", services.Wrap(services.ErrValidation, "library", "resolve", "desired filename is empty", nil)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrPlacement, "library", "create destination", destDir, err)
	}
	return filepath.Join(destDir, filename), nil
}

// EpisodeFilename builds the canonical episode file name,
// "{series}-S{season:02d}E{episode:02d}{ext}", taking the extension from the
// desired filename.
func EpisodeFilename(seriesName string, season, episode int, desiredFilename string) string {
	ext := filepath.Ext(strings.TrimSpace(desiredFilename))
	return fmt.Sprintf("%s-S%02dE%02d%s", CleanComponent(seriesName), season, episode, ext)
}

// CleanComponent normalizes a user-supplied path component: NFC Unicode
// normalization, trimmed whitespace, and no separators that would escape the
// destination directory.
func CleanComponent(value string) string {
	value = norm.NFC.String(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, string(os.PathSeparator), "-")
	value = strings.ReplaceAll(value, "..", "")
	return strings.TrimSpace(value)
}
