package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"shelver/internal/logging"
	"shelver/internal/notifications"
	"shelver/internal/queue"
	"shelver/internal/testsupport"
)

type idleRunner struct{}

func (idleRunner) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

type noopProcessor struct{}

func (noopProcessor) Process(_ context.Context, _ *queue.Job) (string, error) {
	return "/library/out", nil
}

func newDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Paths.StatusBind = "127.0.0.1:0"
	store := testsupport.MustOpenCatalog(t)
	pool := queue.NewPool(1, 4, noopProcessor{}, nil, queue.NewTracker(), logging.NewNop())

	d, err := New(cfg, store, pool, idleRunner{}, notifications.NewService(cfg), logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return d
}

func TestStartStopLifecycle(t *testing.T) {
	d := newDaemon(t)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if !d.Running() {
		t.Error("Running() = false after Start")
	}
	if err := d.Start(ctx); err == nil {
		t.Error("second Start succeeded, want error")
	}

	d.Stop()
	if d.Running() {
		t.Error("Running() = true after Stop")
	}
	// Stop is idempotent.
	d.Stop()
}

func TestSecondInstanceIsRefused(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t)
	newPool := func() *queue.Pool {
		return queue.NewPool(1, 4, noopProcessor{}, nil, queue.NewTracker(), logging.NewNop())
	}

	first, err := New(cfg, store, newPool(), idleRunner{}, notifications.NewService(cfg), logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer first.Stop()

	second, err := New(cfg, store, newPool(), idleRunner{}, notifications.NewService(cfg), logging.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance acquired the lock")
	}
}

func TestStatusEndpoint(t *testing.T) {
	d := newDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer d.Stop()

	addr := d.StatusAddr()
	if addr == "" {
		t.Fatal("status endpoint not bound")
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/status", addr))
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d, want 200", resp.StatusCode)
	}

	var payload StatusPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !payload.Running {
		t.Error("payload.Running = false, want true")
	}
	if payload.Queued != 0 || len(payload.Active) != 0 {
		t.Errorf("payload = %+v, want idle", payload)
	}
}

func TestReporterNotifiesSubmitter(t *testing.T) {
	messenger := &testsupport.Messenger{}
	reporter := NewReporter(messenger, nil, logging.NewNop())
	job := queue.NewJob(42, 7, "file-abc", "clip.mp4", "video/mp4")
	job.DesiredFilename = "clip.mp4"

	reporter.JobSucceeded(context.Background(), job, "/library/movies/Action/clip.mp4")
	success := messenger.Last(t)
	if success.ChatID != 42 || !strings.Contains(success.Text, "/library/movies/Action/clip.mp4") {
		t.Errorf("success notification = %+v", success)
	}

	reporter.JobFailed(context.Background(), job, errors.New("both transports failed"))
	failure := messenger.Last(t)
	if !strings.Contains(failure.Text, "both transports failed") {
		t.Errorf("failure notification = %+v", failure)
	}
}
