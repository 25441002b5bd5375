package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"shelver/internal/logging"
	"shelver/internal/queue"
	"shelver/internal/services"
)

type stubPrimary struct {
	err    error
	called bool
}

func (s *stubPrimary) Download(ctx context.Context, fileID, dest string, progress func(int)) error {
	s.called = true
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(dest, []byte("primary"), 0o644)
}

type stubFallback struct {
	err       error
	called    bool
	chatID    int64
	messageID int
}

func (s *stubFallback) Download(ctx context.Context, chatID int64, messageID int, dest string, progress func(int)) error {
	s.called = true
	s.chatID = chatID
	s.messageID = messageID
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(dest, []byte("fallback"), 0o644)
}

func testJob() *queue.Job {
	job := queue.NewJob(42, 7, "file-id", "movie.mkv", "video/x-matroska")
	return job
}

func TestFetchUsesPrimaryWhenItSucceeds(t *testing.T) {
	primary := &stubPrimary{}
	fallback := &stubFallback{}
	svc := NewService(primary, fallback, logging.NewNop())

	dest := filepath.Join(t.TempDir(), "out.mkv")
	if err := svc.Fetch(context.Background(), testJob(), dest, nil); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if !primary.called {
		t.Error("primary transport was not used")
	}
	if fallback.called {
		t.Error("fallback transport used despite primary success")
	}
}

func TestFetchFallsBackOnOversizedFile(t *testing.T) {
	primary := &stubPrimary{err: errors.New("Bad Request: file is too big")}
	fallback := &stubFallback{}
	svc := NewService(primary, fallback, logging.NewNop())

	job := testJob()
	dest := filepath.Join(t.TempDir(), "out.mkv")
	if err := svc.Fetch(context.Background(), job, dest, nil); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if !fallback.called {
		t.Fatal("fallback transport was not used")
	}
	if fallback.chatID != job.ChatID || fallback.messageID != job.MessageID {
		t.Errorf("fallback addressed %d/%d, want %d/%d", fallback.chatID, fallback.messageID, job.ChatID, job.MessageID)
	}
}

func TestFetchPropagatesOtherPrimaryErrors(t *testing.T) {
	primary := &stubPrimary{err: errors.New("Bad Request: wrong file_id")}
	fallback := &stubFallback{}
	svc := NewService(primary, fallback, logging.NewNop())

	err := svc.Fetch(context.Background(), testJob(), filepath.Join(t.TempDir(), "out"), nil)
	if !errors.Is(err, services.ErrRetrieval) {
		t.Fatalf("Fetch error = %v, want ErrRetrieval", err)
	}
	if fallback.called {
		t.Error("fallback used for a non-size primary failure")
	}
}

func TestFetchWithoutFallbackReportsConfiguration(t *testing.T) {
	primary := &stubPrimary{err: errors.New("Bad Request: file is too big")}
	svc := NewService(primary, nil, logging.NewNop())

	err := svc.Fetch(context.Background(), testJob(), filepath.Join(t.TempDir(), "out"), nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("Fetch error = %v, want ErrConfiguration", err)
	}
}

func TestIsTooBig(t *testing.T) {
	if !IsTooBig(errors.New("Bad Request: file is too big")) {
		t.Error("oversized rejection not recognized")
	}
	if IsTooBig(errors.New("Bad Request: wrong file_id")) {
		t.Error("unrelated error classified as oversized")
	}
	if IsTooBig(nil) {
		t.Error("nil error classified as oversized")
	}
}

func TestProgressWriterReportsFloorPercentages(t *testing.T) {
	var reports []int
	w := &progressWriter{total: 200, report: func(p int) { reports = append(reports, p) }}

	chunks := []int{50, 50, 99, 1}
	for _, n := range chunks {
		if _, err := w.Write(make([]byte, n)); err != nil {
			t.Fatalf("Write returned error: %v", err)
		}
	}

	want := []int{25, 50, 99, 100}
	if len(reports) != len(want) {
		t.Fatalf("reports = %v, want %v", reports, want)
	}
	for i := range want {
		if reports[i] != want[i] {
			t.Fatalf("reports = %v, want %v", reports, want)
		}
	}
}

func TestProgressWriterUnknownTotalStaysSilent(t *testing.T) {
	w := &progressWriter{total: -1, report: func(p int) { t.Errorf("unexpected report %d", p) }}
	if _, err := w.Write(make([]byte, 4096)); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
}

type fixedResolver struct {
	url string
	err error
}

func (r fixedResolver) GetFileDirectURL(string) (string, error) { return r.url, r.err }

func TestBotTransportDownloadsAndReportsProgress(t *testing.T) {
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(payload)))
		w.Write(payload)
	}))
	defer server.Close()

	transport := newBotTransport(fixedResolver{url: server.URL}, logging.NewNop())
	dest := filepath.Join(t.TempDir(), "payload.bin")

	var last int
	err := transport.Download(context.Background(), "file-id", dest, func(p int) { last = p })
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if last != 100 {
		t.Errorf("final progress = %d, want 100", last)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if len(got) != len(payload) {
		t.Errorf("downloaded %d bytes, want %d", len(got), len(payload))
	}
}

func TestBotTransportRejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	transport := newBotTransport(fixedResolver{url: server.URL}, logging.NewNop())
	dest := filepath.Join(t.TempDir(), "payload.bin")
	if err := transport.Download(context.Background(), "file-id", dest, nil); err == nil {
		t.Fatal("Download succeeded on a 404 response")
	}
	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Error("partial file left behind after failed download")
	}
}
