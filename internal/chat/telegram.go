package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shelver/internal/logging"
)

// TelegramMessenger implements Messenger over the Bot API.
type TelegramMessenger struct {
	bot *tgbotapi.BotAPI
}

// NewMessenger wraps an authenticated Bot API client.
func NewMessenger(bot *tgbotapi.BotAPI) *TelegramMessenger {
	return &TelegramMessenger{bot: bot}
}

// SendMessage delivers text with an optional inline keyboard and returns the
// sent message id.
func (m *TelegramMessenger) SendMessage(_ context.Context, chatID int64, text string, keyboard Keyboard) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup, ok := inlineMarkup(keyboard); ok {
		msg.ReplyMarkup = markup
	}
	sent, err := m.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

// EditMessage replaces the text (and keyboard) of a previously sent message.
func (m *TelegramMessenger) EditMessage(_ context.Context, chatID int64, messageID int, text string, keyboard Keyboard) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if markup, ok := inlineMarkup(keyboard); ok {
		edit.ReplyMarkup = &markup
	}
	if _, err := m.bot.Send(edit); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

func inlineMarkup(keyboard Keyboard) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(keyboard) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

// Poller translates the Bot API long-poll stream into Handler calls.
type Poller struct {
	bot     *tgbotapi.BotAPI
	handler Handler
	logger  *slog.Logger
}

// NewPoller builds the update loop around an authenticated client.
func NewPoller(bot *tgbotapi.BotAPI, handler Handler, logger *slog.Logger) *Poller {
	return &Poller{
		bot:     bot,
		handler: handler,
		logger:  logging.WithComponent(logger, "chat"),
	}
}

// Run polls for updates until the context is cancelled. Handler calls run
// inline; the intake router is expected to return quickly.
func (p *Poller) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := p.bot.GetUpdatesChan(cfg)
	defer p.bot.StopReceivingUpdates()

	p.logger.Info("update polling started", logging.String("bot", p.bot.Self.UserName))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-updates:
			if !ok {
				return nil
			}
			if raw.CallbackQuery != nil {
				// Clear the client-side spinner before handling.
				ack := tgbotapi.NewCallback(raw.CallbackQuery.ID, "")
				if _, err := p.bot.Request(ack); err != nil {
					p.logger.Warn("callback ack failed", logging.Error(err))
				}
			}
			update, ok := translate(raw)
			if !ok {
				continue
			}
			p.handler.HandleUpdate(ctx, update)
		}
	}
}

// translate reduces a raw Bot API update to the Update shape the intake
// machine consumes. Updates without a usable chat are dropped.
func translate(raw tgbotapi.Update) (Update, bool) {
	if cq := raw.CallbackQuery; cq != nil && cq.Message != nil {
		return Update{
			ChatID:    cq.Message.Chat.ID,
			MessageID: cq.Message.MessageID,
			Callback:  cq.Data,
		}, true
	}

	msg := raw.Message
	if msg == nil || msg.Chat == nil {
		return Update{}, false
	}
	update := Update{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      msg.Text,
	}
	if msg.IsCommand() {
		update.Command = msg.Command()
		update.Text = ""
	}
	if media, ok := extractMedia(msg); ok {
		update.Media = media
	}
	return update, true
}

// extractMedia accepts native video attachments and video files sent as
// documents.
func extractMedia(msg *tgbotapi.Message) (*Attachment, bool) {
	if v := msg.Video; v != nil {
		return &Attachment{FileID: v.FileID, FileName: v.FileName, MimeType: v.MimeType}, true
	}
	if d := msg.Document; d != nil && strings.HasPrefix(strings.ToLower(d.MimeType), "video/") {
		return &Attachment{FileID: d.FileID, FileName: d.FileName, MimeType: d.MimeType}, true
	}
	return nil, false
}
