package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"

	"shelver/internal/config"
	"shelver/internal/logging"
	"shelver/internal/services"
)

// mtprotoPartSize is the fixed download chunk size. Telegram requires a
// multiple of 4 KiB, capped at 512 KiB.
const mtprotoPartSize = 512 * 1024

// MTProtoTransport retrieves files the Bot API refuses to serve. Each
// download runs a short-lived client with its own throwaway session file so
// concurrent workers never contend on session state.
type MTProtoTransport struct {
	apiID      int
	apiHash    string
	botToken   string
	sessionDir string
	logger     *slog.Logger
}

// NewMTProtoTransport returns the fallback transport, or nil when the
// MTProto credentials are not configured. A nil transport is valid: the
// retrieval service degrades to primary-only.
func NewMTProtoTransport(creds config.Telegram, dataDir string, logger *slog.Logger) *MTProtoTransport {
	if creds.APIID == 0 || strings.TrimSpace(creds.APIHash) == "" {
		return nil
	}
	return &MTProtoTransport{
		apiID:      creds.APIID,
		apiHash:    creds.APIHash,
		botToken:   creds.BotToken,
		sessionDir: filepath.Join(dataDir, "sessions"),
		logger:     logging.WithComponent(logger, "fetch"),
	}
}

// Download re-resolves the source message over MTProto and streams its
// document to dest.
func (t *MTProtoTransport) Download(ctx context.Context, chatID int64, messageID int, dest string, progress func(percent int)) error {
	if t.apiID == 0 || strings.TrimSpace(t.apiHash) == "" || strings.TrimSpace(t.botToken) == "" {
		return services.Wrap(services.ErrConfiguration, "fetch", "mtproto download",
			"api_id, api_hash, and bot_token are all required for the mtproto fallback", nil)
	}

	if err := os.MkdirAll(t.sessionDir, 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	sessionPath := filepath.Join(t.sessionDir, fmt.Sprintf("fallback-%s.session", uuid.NewString()))
	defer os.Remove(sessionPath)

	client := telegram.NewClient(t.apiID, t.apiHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: sessionPath},
	})

	// Run owns the connection lifecycle: the client is disconnected on
	// every return path, including panics inside the closure.
	err := client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("auth status: %w", err)
		}
		if !status.Authorized {
			if _, err := client.Auth().Bot(ctx, t.botToken); err != nil {
				return fmt.Errorf("bot authorization: %w", err)
			}
		}

		api := client.API()
		doc, err := resolveDocument(ctx, api, messageID)
		if err != nil {
			return err
		}

		t.logger.Debug("mtproto download starting",
			logging.Int64("submitter", chatID),
			logging.Int("message_id", messageID),
			logging.Int64("bytes", doc.Size))

		out, err := os.Create(dest)
		if err != nil {
			return fmt.Errorf("create %s: %w", dest, err)
		}

		if progress != nil {
			progress(0)
		}
		counter := &progressWriter{total: doc.Size, report: progress}
		dl := downloader.NewDownloader().WithPartSize(mtprotoPartSize)
		_, streamErr := dl.Download(api, doc.AsInputDocumentFileLocation()).Stream(ctx, io.MultiWriter(out, counter))
		closeErr := out.Close()

		if streamErr != nil {
			os.Remove(dest)
			return fmt.Errorf("stream download: %w", streamErr)
		}
		if closeErr != nil {
			os.Remove(dest)
			return fmt.Errorf("close %s: %w", dest, closeErr)
		}
		if progress != nil {
			progress(100)
		}
		return nil
	})
	if err != nil {
		return err
	}

	t.logger.Debug("mtproto download complete", logging.String("path", dest))
	return nil
}

// resolveDocument fetches the original message by id and extracts its
// document. Bots can address private-chat messages directly by message id.
func resolveDocument(ctx context.Context, api *tg.Client, messageID int) (*tg.Document, error) {
	res, err := api.MessagesGetMessages(ctx, []tg.InputMessageClass{
		&tg.InputMessageID{ID: messageID},
	})
	if err != nil {
		return nil, fmt.Errorf("get message %d: %w", messageID, err)
	}

	var messages []tg.MessageClass
	switch v := res.(type) {
	case *tg.MessagesMessages:
		messages = v.Messages
	case *tg.MessagesMessagesSlice:
		messages = v.Messages
	default:
		return nil, fmt.Errorf("get message %d: unexpected response %T", messageID, res)
	}

	for _, m := range messages {
		msg, ok := m.(*tg.Message)
		if !ok {
			continue
		}
		media, ok := msg.Media.(*tg.MessageMediaDocument)
		if !ok {
			continue
		}
		doc, ok := media.Document.AsNotEmpty()
		if !ok {
			continue
		}
		return doc, nil
	}
	return nil, fmt.Errorf("message %d carries no document", messageID)
}
