// Package pipeline is the worker-side processing chain: fetch the file into
// scratch space, resolve its library destination, relocate it, and normalize
// the container when needed.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"shelver/internal/library"
	"shelver/internal/logging"
	"shelver/internal/queue"
	"shelver/internal/services"
)

// Fetcher retrieves the job's file into scratch space.
type Fetcher interface {
	Fetch(ctx context.Context, job *queue.Job, dest string, progress func(percent int)) error
}

// Normalizer converts a placed file's container when it needs it. It returns
// the path the job should report, which is the input path when no conversion
// happened.
type Normalizer interface {
	Normalize(ctx context.Context, path string) (string, error)
}

// Pipeline executes one job end to end. It satisfies queue.Processor.
type Pipeline struct {
	fetcher      Fetcher
	resolver     *library.Resolver
	normalizer   Normalizer
	progress     *queue.Tracker
	downloadsDir string
	logger       *slog.Logger
}

// New assembles the processing chain. normalizer may be nil when container
// normalization is disabled.
func New(fetcher Fetcher, resolver *library.Resolver, normalizer Normalizer, progress *queue.Tracker, downloadsDir string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		fetcher:      fetcher,
		resolver:     resolver,
		normalizer:   normalizer,
		progress:     progress,
		downloadsDir: downloadsDir,
		logger:       logging.WithComponent(logger, "pipeline"),
	}
}

// ScratchPath names the in-flight download deterministically from the job
// and file identifiers so concurrent jobs never collide.
func (p *Pipeline) ScratchPath(job *queue.Job) string {
	name := fmt.Sprintf("temp_%s_%d%s", job.FileID, job.ID, job.Extension())
	return filepath.Join(p.downloadsDir, name)
}

// Process runs the chain and returns the final library path. Conversion
// failures degrade to the pre-conversion path; every other failure is fatal
// to the job.
func (p *Pipeline) Process(ctx context.Context, job *queue.Job) (string, error) {
	log := logging.WithContext(ctx, p.logger)

	scratch := p.ScratchPath(job)
	if err := p.fetcher.Fetch(ctx, job, scratch, p.progress.Sink(job.ID)); err != nil {
		return "", err
	}
	log.Info("file retrieved", logging.String("scratch", scratch))

	finalPath, err := p.resolver.Resolve(job)
	if err != nil {
		return "", err
	}
	if err := library.Move(scratch, finalPath); err != nil {
		return "", err
	}
	log.Info("file placed", logging.String("path", finalPath))

	if p.normalizer != nil {
		normalized, err := p.normalizer.Normalize(ctx, finalPath)
		if err != nil {
			if services.IsFatalToJob(err) {
				return "", err
			}
			log.Warn("container normalization failed, keeping placed file", logging.Error(err))
			return finalPath, nil
		}
		finalPath = normalized
	}
	return finalPath, nil
}
