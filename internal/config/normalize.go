package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables consulted when the corresponding config fields are
// empty. The bot token env name matches what most Telegram deployments
// already export.
const (
	envBotToken = "TELEGRAM_BOT_TOKEN"
	envAPIID    = "TELEGRAM_API_ID"
	envAPIHash  = "TELEGRAM_API_HASH"
)

func (c *Config) normalize() error {
	if err := c.applyEnvironment(); err != nil {
		return err
	}

	pathFields := []*string{
		&c.Paths.MoviesDir,
		&c.Paths.TVDir,
		&c.Paths.DownloadsDir,
		&c.Paths.DataDir,
		&c.Paths.LogDir,
		&c.Paths.ApprovedUsersFile,
	}
	for _, field := range pathFields {
		expanded, err := expandPath(strings.TrimSpace(*field))
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Telegram.BotToken = strings.TrimSpace(c.Telegram.BotToken)
	c.Telegram.APIHash = strings.TrimSpace(c.Telegram.APIHash)
	c.Paths.StatusBind = strings.TrimSpace(c.Paths.StatusBind)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Queue.Workers <= 0 {
		c.Queue.Workers = defaultWorkers
	}
	if c.Queue.Capacity <= 0 {
		c.Queue.Capacity = defaultQueueCapacity
	}
	if strings.TrimSpace(c.Transcode.FFmpegBinary) == "" {
		c.Transcode.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Transcode.FFprobeBinary) == "" {
		c.Transcode.FFprobeBinary = defaultFFprobeBinary
	}
	return nil
}

func (c *Config) applyEnvironment() error {
	if c.Telegram.BotToken == "" {
		c.Telegram.BotToken = strings.TrimSpace(os.Getenv(envBotToken))
	}
	if c.Telegram.APIHash == "" {
		c.Telegram.APIHash = strings.TrimSpace(os.Getenv(envAPIHash))
	}
	if c.Telegram.APIID == 0 {
		raw := strings.TrimSpace(os.Getenv(envAPIID))
		if raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("parse %s: %w", envAPIID, err)
			}
			c.Telegram.APIID = id
		}
	}
	return nil
}
