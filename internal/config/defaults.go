package config

const (
	defaultOutputDir        = "~/.local/share/gazelleops/output"
	defaultTorrentDir       = "~/.local/share/gazelleops/torrents"
	defaultStagingDir       = "~/.local/share/gazelleops/staging"
	defaultLogDir           = "~/.local/share/gazelleops/logs"
	defaultEndpoint         = "https://redacted.sh"
	defaultRateLimitSeconds = 2.0
	defaultRequestTimeout   = 60
	defaultFlacBinary       = "flac"
	defaultSoxBinary        = "sox"
	defaultLameBinary       = "lame"
	defaultFFprobeBinary    = "ffprobe"
	defaultMktorrentBinary  = "mktorrent"
	defaultBitDepthPolicy   = "prompt"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			TorrentDir: defaultTorrentDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Tracker: Tracker{
			Endpoint:         defaultEndpoint,
			RateLimitSeconds: defaultRateLimitSeconds,
			RequestTimeout:   defaultRequestTimeout,
		},
		Transcode: Transcode{
			Formats:         []string{"V0", "320"},
			FlacBinary:      defaultFlacBinary,
			SoxBinary:       defaultSoxBinary,
			LameBinary:      defaultLameBinary,
			FFprobeBinary:   defaultFFprobeBinary,
			MktorrentBinary: defaultMktorrentBinary,
		},
		Preflight: Preflight{
			BitDepthPolicy: defaultBitDepthPolicy,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
