package chat

import "context"

// Button is one inline keyboard button: display text plus the callback data
// returned when pressed.
type Button struct {
	Text string
	Data string
}

// Keyboard is an inline keyboard, row-major. A nil Keyboard sends plain text.
type Keyboard [][]Button

// Row builds a single-row keyboard from buttons.
func Row(buttons ...Button) Keyboard {
	return Keyboard{buttons}
}

// Messenger sends and edits chat messages. Implementations must be safe for
// concurrent use; workers and the intake router share one instance.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard Keyboard) (messageID int, err error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, keyboard Keyboard) error
}

// Attachment describes an inbound media file.
type Attachment struct {
	FileID   string
	FileName string
	MimeType string
}

// Update is one inbound conversation event, already reduced to the fields
// the intake machine consumes.
type Update struct {
	ChatID    int64
	MessageID int
	Text      string
	Command   string
	Callback  string
	Media     *Attachment
}

// Handler consumes translated updates.
type Handler interface {
	HandleUpdate(ctx context.Context, update Update)
}
