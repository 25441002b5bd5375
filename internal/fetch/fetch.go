package fetch

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"shelver/internal/logging"
	"shelver/internal/queue"
	"shelver/internal/services"
)

// Primary downloads a file by Bot API file id.
type Primary interface {
	Download(ctx context.Context, fileID, dest string, progress func(percent int)) error
}

// Fallback downloads the document attached to a chat message over MTProto.
// It re-resolves the message itself because Bot API file ids are not valid
// MTProto file references.
type Fallback interface {
	Download(ctx context.Context, chatID int64, messageID int, dest string, progress func(percent int)) error
}

// Service is the retrieval layer: primary transport first, fallback only on
// the Bot API's size ceiling.
type Service struct {
	primary  Primary
	fallback Fallback
	logger   *slog.Logger
}

// NewService wires the two transports. fallback may be nil when MTProto
// credentials are not configured; oversized files then fail with a
// configuration error.
func NewService(primary Primary, fallback Fallback, logger *slog.Logger) *Service {
	return &Service{
		primary:  primary,
		fallback: fallback,
		logger:   logging.WithComponent(logger, "fetch"),
	}
}

// Fetch downloads the job's file to dest, reporting whole-number progress
// percentages through the sink.
func (s *Service) Fetch(ctx context.Context, job *queue.Job, dest string, progress func(percent int)) error {
	log := logging.WithContext(ctx, s.logger)

	err := s.primary.Download(ctx, job.FileID, dest, progress)
	if err == nil {
		return nil
	}
	if !IsTooBig(err) {
		return services.Wrap(services.ErrRetrieval, "fetch", "primary download", "", err)
	}

	if s.fallback == nil {
		return services.Wrap(services.ErrConfiguration, "fetch", "fallback",
			"file exceeds the bot api download limit and no mtproto fallback is configured", err)
	}

	log.Info("file exceeds bot api limit, retrying over mtproto",
		logging.String("file_id", job.FileID),
		logging.Int("message_id", job.MessageID))

	if err := s.fallback.Download(ctx, job.ChatID, job.MessageID, dest, progress); err != nil {
		if errors.Is(err, services.ErrConfiguration) {
			return err
		}
		return services.Wrap(services.ErrRetrieval, "fetch", "fallback download", "", err)
	}
	return nil
}

// IsTooBig reports whether an error is the Bot API's oversized-file
// rejection. Telegram phrases it "Bad Request: file is too big".
func IsTooBig(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "file is too big")
}

// progressWriter converts a byte stream into floor percentages of a known
// total, reporting only when the whole-number value changes. An unknown
// total suppresses reporting entirely.
type progressWriter struct {
	total   int64
	written int64
	last    int
	report  func(percent int)
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.report != nil && w.total > 0 {
		percent := int(w.written * 100 / w.total)
		if percent > 100 {
			percent = 100
		}
		if percent != w.last {
			w.last = percent
			w.report(percent)
		}
	}
	return len(p), nil
}
