package daemon

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shelver/internal/auth"
	"shelver/internal/catalog"
	"shelver/internal/chat"
	"shelver/internal/config"
	"shelver/internal/deps"
	"shelver/internal/fetch"
	"shelver/internal/intake"
	"shelver/internal/library"
	"shelver/internal/logging"
	"shelver/internal/notifications"
	"shelver/internal/pipeline"
	"shelver/internal/queue"
	"shelver/internal/transcode"
)

// Bootstrap wires the full service graph from configuration: catalog store,
// Telegram client, retrieval transports, worker pool, intake router, and the
// outcome reporter.
func Bootstrap(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := catalog.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	approved, err := auth.Load(cfg.Paths.ApprovedUsersFile, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load approved users: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("connect bot api: %w", err)
	}

	messenger := chat.NewMessenger(bot)
	primary := fetch.NewBotTransport(bot, logger)
	var fallback fetch.Fallback
	if mtproto := fetch.NewMTProtoTransport(cfg.Telegram, cfg.Paths.DataDir, logger); mtproto != nil {
		fallback = mtproto
	}
	fetcher := fetch.NewService(primary, fallback, logger)

	tracker := queue.NewTracker()
	pipe := pipeline.New(
		fetcher,
		library.NewResolver(cfg),
		transcode.NewAdapter(cfg, logger),
		tracker,
		cfg.Paths.DownloadsDir,
		logger,
	)

	for _, status := range deps.CheckBinaries(deps.ForConfig(cfg)) {
		if !status.Available {
			logging.WithComponent(logger, "daemon").Warn("external dependency unavailable",
				logging.String("name", status.Name),
				logging.String("detail", status.Detail))
		}
	}

	notifier := notifications.NewService(cfg)
	reporter := NewReporter(messenger, notifier, logger)
	pool := queue.NewPool(cfg.Queue.Workers, cfg.Queue.Capacity, pipe, reporter, tracker, logger)

	router := intake.NewRouter(messenger, store, approved, pool, cfg.Paths.TVDir, logger)
	poller := chat.NewPoller(bot, router, logger)

	return New(cfg, store, pool, poller, notifier, logger)
}
