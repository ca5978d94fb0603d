package config

const (
	defaultDataDir             = "~/.local/share/wordreel"
	defaultLogDir              = "~/.local/share/wordreel/logs"
	defaultAPIBind             = "127.0.0.1:7519"
	defaultWorkers             = 2
	defaultQueueCapacity       = 16
	defaultJobTimeout          = 1800
	defaultRetentionSeconds    = 3600
	defaultSweepInterval       = 60
	defaultWidth               = 1920
	defaultHeight              = 1080
	defaultFPS                 = 30
	defaultSentencePauseFactor = 2.5
	defaultClausePauseFactor   = 1.5
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFmpegPreset        = "fast"
	defaultFFmpegCRF           = 23
	defaultMaxWords            = 100000
	defaultMaxUploadBytes      = 5 * 1024 * 1024
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Pipeline: Pipeline{
			Workers:          defaultWorkers,
			QueueCapacity:    defaultQueueCapacity,
			JobTimeout:       defaultJobTimeout,
			RetentionSeconds: defaultRetentionSeconds,
			SweepInterval:    defaultSweepInterval,
		},
		Render: Render{
			Width:               defaultWidth,
			Height:              defaultHeight,
			FPS:                 defaultFPS,
			SentencePauseFactor: defaultSentencePauseFactor,
			ClausePauseFactor:   defaultClausePauseFactor,
			FFmpegBinary:        defaultFFmpegBinary,
			FFmpegPreset:        defaultFFmpegPreset,
			FFmpegCRF:           defaultFFmpegCRF,
		},
		Limits: Limits{
			MaxWords:       defaultMaxWords,
			MaxUploadBytes: defaultMaxUploadBytes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
