package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"shelver/internal/chat"
	"shelver/internal/logging"
	"shelver/internal/notifications"
	"shelver/internal/queue"
)

// Reporter delivers terminal job outcomes to the submitter over chat and
// mirrors them to the operator notification channel. It satisfies
// queue.Reporter.
type Reporter struct {
	messenger chat.Messenger
	notifier  notifications.Service
	logger    *slog.Logger
}

// NewReporter builds the outcome reporter.
func NewReporter(messenger chat.Messenger, notifier notifications.Service, logger *slog.Logger) *Reporter {
	return &Reporter{
		messenger: messenger,
		notifier:  notifier,
		logger:    logging.WithComponent(logger, "daemon"),
	}
}

// JobSucceeded notifies the submitter with the final library path.
func (r *Reporter) JobSucceeded(ctx context.Context, job *queue.Job, finalPath string) {
	text := fmt.Sprintf("Done! %s is shelved at %s.", job.DesiredFilename, finalPath)
	if _, err := r.messenger.SendMessage(ctx, job.ChatID, text, nil); err != nil {
		r.logger.Warn("success notification failed",
			logging.Int64(logging.FieldJobID, job.ID), logging.Error(err))
	}
	if r.notifier != nil {
		if err := r.notifier.NotifyJobCompleted(ctx, job.ID, finalPath); err != nil {
			r.logger.Warn("ntfy completion notification failed", logging.Error(err))
		}
	}
}

// JobFailed notifies the submitter with the failure reason.
func (r *Reporter) JobFailed(ctx context.Context, job *queue.Job, jobErr error) {
	text := fmt.Sprintf("Sorry, %s could not be shelved: %v", job.DesiredFilename, jobErr)
	if _, err := r.messenger.SendMessage(ctx, job.ChatID, text, nil); err != nil {
		r.logger.Warn("failure notification failed",
			logging.Int64(logging.FieldJobID, job.ID), logging.Error(err))
	}
	if r.notifier != nil {
		if err := r.notifier.NotifyJobFailed(ctx, job.ID, jobErr); err != nil {
			r.logger.Warn("ntfy failure notification failed", logging.Error(err))
		}
	}
}
