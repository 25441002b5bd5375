package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shelver/internal/logging"
)

// fileResolver is the slice of the Bot API client the primary transport
// needs. *tgbotapi.BotAPI satisfies it.
type fileResolver interface {
	GetFileDirectURL(fileID string) (string, error)
}

// BotTransport is the primary retrieval path: resolve the file id to a
// download URL, then stream it over HTTPS.
type BotTransport struct {
	resolver fileResolver
	client   *http.Client
	logger   *slog.Logger
}

// NewBotTransport builds the primary transport around an authenticated Bot
// API client.
func NewBotTransport(bot *tgbotapi.BotAPI, logger *slog.Logger) *BotTransport {
	return newBotTransport(bot, logger)
}

func newBotTransport(resolver fileResolver, logger *slog.Logger) *BotTransport {
	return &BotTransport{
		resolver: resolver,
		client:   &http.Client{Timeout: 30 * time.Minute},
		logger:   logging.WithComponent(logger, "fetch"),
	}
}

// Download streams the file behind fileID to dest. The partial file is
// removed on any failure so retries start clean.
func (t *BotTransport) Download(ctx context.Context, fileID, dest string, progress func(percent int)) error {
	url, err := t.resolver.GetFileDirectURL(fileID)
	if err != nil {
		return fmt.Errorf("resolve file %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	if progress != nil {
		progress(0)
	}
	if err := writeStream(dest, resp.Body, resp.ContentLength, progress); err != nil {
		return err
	}

	t.logger.Debug("primary download complete",
		logging.String("file_id", fileID),
		logging.String("path", dest))
	return nil
}

// writeStream copies src to a fresh file at dest, driving the progress sink
// from the byte count. dest is removed when the copy fails partway.
func writeStream(dest string, src io.Reader, total int64, progress func(percent int)) error {
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	counter := &progressWriter{total: total, report: progress}
	_, copyErr := io.Copy(io.MultiWriter(out, counter), src)
	closeErr := out.Close()

	if copyErr != nil {
		os.Remove(dest)
		return fmt.Errorf("write %s: %w", dest, copyErr)
	}
	if closeErr != nil {
		os.Remove(dest)
		return fmt.Errorf("close %s: %w", dest, closeErr)
	}
	if progress != nil {
		progress(100)
	}
	return nil
}
