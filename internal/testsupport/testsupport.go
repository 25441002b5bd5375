// Package testsupport provides shared helpers for package tests: temp-dir
// configs, throwaway catalog stores, and a recording messenger stub.
package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"shelver/internal/catalog"
	"shelver/internal/chat"
	"shelver/internal/config"
)

// NewConfig returns a validated configuration rooted in per-test temp
// directories.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.Paths.MoviesDir = filepath.Join(root, "movies")
	cfg.Paths.TVDir = filepath.Join(root, "tv")
	cfg.Paths.DownloadsDir = filepath.Join(root, "downloads")
	cfg.Paths.DataDir = filepath.Join(root, "data")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Paths.ApprovedUsersFile = filepath.Join(root, "approved_users.txt")
	cfg.Telegram.BotToken = "test-token"

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WriteFile creates path (and parent directories) with the given content.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// MustOpenCatalog opens a throwaway catalog store under a temp directory.
func MustOpenCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// SentMessage records one Messenger delivery.
type SentMessage struct {
	ChatID   int64
	Text     string
	Keyboard chat.Keyboard
	// Edited is set when the delivery replaced an earlier message.
	Edited    bool
	MessageID int
}

// Messenger is a chat.Messenger stub that records every call and issues
// sequential message ids.
type Messenger struct {
	mu     sync.Mutex
	nextID int
	Sent   []SentMessage
}

func (m *Messenger) SendMessage(_ context.Context, chatID int64, text string, keyboard chat.Keyboard) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.Sent = append(m.Sent, SentMessage{ChatID: chatID, Text: text, Keyboard: keyboard, MessageID: m.nextID})
	return m.nextID, nil
}

func (m *Messenger) EditMessage(_ context.Context, chatID int64, messageID int, text string, keyboard chat.Keyboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMessage{ChatID: chatID, Text: text, Keyboard: keyboard, Edited: true, MessageID: messageID})
	return nil
}

// Last returns the most recent delivery.
func (m *Messenger) Last(t *testing.T) SentMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		t.Fatal("no messages were sent")
	}
	return m.Sent[len(m.Sent)-1]
}
