package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Fallback transport
// credentials are deliberately not required here: the daemon runs without
// them and the retrieval service fails fast with a configuration error only
// when an oversized file actually needs the fallback.
func (c *Config) Validate() error {
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if c.Telegram.BotToken == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/shelver/config.toml"
		}
		return fmt.Errorf("telegram.bot_token is required. Set %s env var or edit %s (create with 'shelver config init')", envBotToken, defaultPath)
	}
	if c.Telegram.APIID < 0 {
		return errors.New("telegram.api_id must be a positive integer when set")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.MoviesDir == "" {
		return errors.New("paths.movies_dir must be set")
	}
	if c.Paths.TVDir == "" {
		return errors.New("paths.tv_dir must be set")
	}
	if c.Paths.DownloadsDir == "" {
		return errors.New("paths.downloads_dir must be set")
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.Workers > 32 {
		return errors.New("queue.workers is unreasonably large (max 32)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
