package config

const (
	defaultMoviesDir         = "~/media/movies"
	defaultTVDir             = "~/media/tv"
	defaultDownloadsDir      = "~/.local/share/shelver/downloads"
	defaultDataDir           = "~/.local/share/shelver/data"
	defaultLogDir            = "~/.local/share/shelver/logs"
	defaultApprovedUsersFile = "~/.config/shelver/approved_users.txt"
	defaultStatusBind        = "127.0.0.1:7823"
	defaultWorkers           = 3
	defaultQueueCapacity     = 64
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultNtfyTimeout       = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MoviesDir:         defaultMoviesDir,
			TVDir:             defaultTVDir,
			DownloadsDir:      defaultDownloadsDir,
			DataDir:           defaultDataDir,
			LogDir:            defaultLogDir,
			ApprovedUsersFile: defaultApprovedUsersFile,
			StatusBind:        defaultStatusBind,
		},
		Queue: Queue{
			Workers:  defaultWorkers,
			Capacity: defaultQueueCapacity,
		},
		Transcode: Transcode{
			Enabled:       true,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
