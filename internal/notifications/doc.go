// Package notifications delivers operator-facing push notifications.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Submitter-facing messages are not sent here; those go through
// the chat transport. All callers depend only on the Service interface.
package notifications
