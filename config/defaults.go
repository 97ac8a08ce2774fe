package config

import "github.com/RyanBlaney/degrade/corrupt"

const (
	defaultConfigPath = "~/.config/degrade/config.toml"
	defaultDBPath     = "~/.local/share/degrade/progress.db"

	defaultBatchSize    = 16
	defaultRunWorkers   = 4
	defaultChannels     = 3
	defaultOutputFormat = "png"
	defaultJPEGQuality  = 95

	defaultClipSeconds     = 30
	defaultSampleRate      = 22050
	defaultAudioWorkers    = 8
	defaultSilenceVariance = 0.001
	defaultWindowSeconds   = 2
	defaultFFmpegPath      = "ffmpeg"
	defaultFFprobePath     = "ffprobe"
	defaultAudioTimeout    = 600

	defaultLogLevel = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Corruption: corrupt.DefaultConfig(),
		Run: Run{
			BatchSize:    defaultBatchSize,
			Workers:      defaultRunWorkers,
			Channels:     defaultChannels,
			OutputFormat: defaultOutputFormat,
			JPEGQuality:  defaultJPEGQuality,
			WriteEntropy: true,
		},
		Audio: Audio{
			ClipSeconds:     defaultClipSeconds,
			SampleRate:      defaultSampleRate,
			Workers:         defaultAudioWorkers,
			SilenceVariance: defaultSilenceVariance,
			WindowSeconds:   defaultWindowSeconds,
			FFmpegPath:      defaultFFmpegPath,
			FFprobePath:     defaultFFprobePath,
			TimeoutSeconds:  defaultAudioTimeout,
		},
		Progress: Progress{
			DBPath: defaultDBPath,
		},
		Logging: Logging{
			Level: defaultLogLevel,
		},
	}
}
