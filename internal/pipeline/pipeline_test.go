package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shelver/internal/library"
	"shelver/internal/logging"
	"shelver/internal/queue"
	"shelver/internal/services"
	"shelver/internal/testsupport"
)

type stubFetcher struct {
	content string
	err     error
	skip    bool
}

func (f *stubFetcher) Fetch(_ context.Context, _ *queue.Job, dest string, progress func(int)) error {
	if f.err != nil {
		return f.err
	}
	if progress != nil {
		progress(100)
	}
	if f.skip {
		return nil
	}
	return os.WriteFile(dest, []byte(f.content), 0o644)
}

type stubNormalizer struct {
	output string
	err    error
	called bool
}

func (n *stubNormalizer) Normalize(_ context.Context, path string) (string, error) {
	n.called = true
	if n.err != nil {
		return path, n.err
	}
	if n.output != "" {
		return n.output, nil
	}
	return path, nil
}

func movieJob() *queue.Job {
	job := queue.NewJob(42, 7, "file-abc", "clip.mp4", "video/mp4")
	job.DesiredFilename = "clip.mp4"
	job.Category = queue.CategoryMovie
	job.MovieDirectory = "Action"
	return job
}

func newPipeline(t *testing.T, fetcher Fetcher, normalizer Normalizer) (*Pipeline, string, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	tracker := queue.NewTracker()
	p := New(fetcher, library.NewResolver(cfg), normalizer, tracker, cfg.Paths.DownloadsDir, logging.NewNop())
	return p, cfg.Paths.MoviesDir, cfg.Paths.DownloadsDir
}

func TestProcessPlacesMovie(t *testing.T) {
	fetcher := &stubFetcher{content: "payload"}
	p, moviesDir, downloadsDir := newPipeline(t, fetcher, nil)

	finalPath, err := p.Process(context.Background(), movieJob())
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	want := filepath.Join(moviesDir, "Action", "clip.mp4")
	if finalPath != want {
		t.Errorf("final path = %q, want %q", finalPath, want)
	}
	if _, err := os.Stat(finalPath); err != nil {
		t.Errorf("placed file missing: %v", err)
	}

	entries, err := os.ReadDir(downloadsDir)
	if err != nil {
		t.Fatalf("read downloads dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch files left behind: %v", entries)
	}
}

func TestProcessPropagatesFetchError(t *testing.T) {
	fetchErr := services.Wrap(services.ErrRetrieval, "fetch", "primary download", "", errors.New("boom"))
	p, _, _ := newPipeline(t, &stubFetcher{err: fetchErr}, nil)

	if _, err := p.Process(context.Background(), movieJob()); !errors.Is(err, services.ErrRetrieval) {
		t.Fatalf("Process error = %v, want ErrRetrieval", err)
	}
}

func TestProcessMissingScratchIsPlacementError(t *testing.T) {
	p, _, _ := newPipeline(t, &stubFetcher{skip: true}, nil)

	_, err := p.Process(context.Background(), movieJob())
	if !errors.Is(err, services.ErrPlacement) {
		t.Fatalf("Process error = %v, want ErrPlacement", err)
	}
}

func TestProcessSwallowsConversionFailure(t *testing.T) {
	normalizer := &stubNormalizer{err: services.Wrap(services.ErrConversion, "transcode", "remux", "", errors.New("bad container"))}
	p, moviesDir, _ := newPipeline(t, &stubFetcher{content: "x"}, normalizer)

	finalPath, err := p.Process(context.Background(), movieJob())
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if !normalizer.called {
		t.Error("normalizer was not invoked")
	}
	if finalPath != filepath.Join(moviesDir, "Action", "clip.mp4") {
		t.Errorf("final path = %q, want pre-conversion path", finalPath)
	}
}

func TestProcessReportsNormalizedPath(t *testing.T) {
	normalizer := &stubNormalizer{output: "/library/movies/Action/clip-converted.mp4"}
	p, _, _ := newPipeline(t, &stubFetcher{content: "x"}, normalizer)

	finalPath, err := p.Process(context.Background(), movieJob())
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if finalPath != normalizer.output {
		t.Errorf("final path = %q, want %q", finalPath, normalizer.output)
	}
}

func TestScratchPathIsDeterministicAndUnique(t *testing.T) {
	p, _, downloadsDir := newPipeline(t, &stubFetcher{}, nil)

	a := movieJob()
	b := movieJob()
	if p.ScratchPath(a) != p.ScratchPath(a) {
		t.Error("scratch path is not deterministic")
	}
	if p.ScratchPath(a) == p.ScratchPath(b) {
		t.Error("distinct jobs share a scratch path")
	}
	if !strings.HasPrefix(p.ScratchPath(a), downloadsDir) {
		t.Errorf("scratch path %q not under downloads dir", p.ScratchPath(a))
	}
}
