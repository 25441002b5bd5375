// Package config loads, normalizes, and validates the TOML configuration for
// the shelver daemon. Telegram credentials may come from the config file or
// from environment variables so deployments can keep secrets out of the file.
package config
