// Package chat is the transport seam between the intake conversation and
// Telegram. The conversation depends only on the Messenger interface and the
// Update value type; the tgbotapi binding and the long-poll loop live here.
package chat
