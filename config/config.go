// Package config loads the degrade TOML configuration file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/RyanBlaney/degrade/audiosplit"
	"github.com/RyanBlaney/degrade/corrupt"
	"github.com/RyanBlaney/degrade/pipeline"
	"github.com/RyanBlaney/degrade/transcode"
)

//go:embed sample_config.toml
var sampleConfig string

// Run configures `degrade corrupt`.
type Run struct {
	InputDir     string `toml:"input_dir"`
	OutputDir    string `toml:"output_dir"`
	BatchSize    int    `toml:"batch_size"`
	Workers      int    `toml:"workers"`
	Seed         uint64 `toml:"seed"`
	Channels     int    `toml:"channels"`
	OutputFormat string `toml:"output_format"`
	JPEGQuality  int    `toml:"jpeg_quality"`
	WriteEntropy bool   `toml:"write_entropy"`
}

// Audio configures `degrade split-audio`.
type Audio struct {
	InputDir        string  `toml:"input_dir"`
	OutputDir       string  `toml:"output_dir"`
	ClipSeconds     int     `toml:"clip_seconds"`
	SampleRate      int     `toml:"sample_rate"`
	Workers         int     `toml:"workers"`
	SilenceVariance float64 `toml:"silence_variance"`
	WindowSeconds   int     `toml:"window_seconds"`
	FFmpegPath      string  `toml:"ffmpeg_path"`
	FFprobePath     string  `toml:"ffprobe_path"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
}

// Progress locates the processed-file ledger.
type Progress struct {
	DBPath string `toml:"db_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level   string `toml:"level"`
	NoColor bool   `toml:"no_color"`
}

// Config encapsulates all configuration values for degrade.
//
// Configuration sections by subsystem:
//   - Corruption: which corruptions are applied and how many are sampled
//   - Run: batch image corruption
//   - Audio: clip splitting
//   - Progress: resume ledger
//   - Logging: log level and colours
type Config struct {
	Corruption corrupt.Config `toml:"corruption"`
	Run        Run            `toml:"run"`
	Audio      Audio          `toml:"audio"`
	Progress   Progress       `toml:"progress"`
	Logging    Logging        `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults; exists reports whether one was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

// Encode renders cfg as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// RunOptions converts the [run] section into pipeline options.
func (c *Config) RunOptions() pipeline.Options {
	return pipeline.Options{
		InputDir:     c.Run.InputDir,
		OutputDir:    c.Run.OutputDir,
		BatchSize:    c.Run.BatchSize,
		Workers:      c.Run.Workers,
		Seed:         c.Run.Seed,
		Channels:     c.Run.Channels,
		OutputFormat: c.Run.OutputFormat,
		JPEGQuality:  c.Run.JPEGQuality,
		WriteEntropy: c.Run.WriteEntropy,
	}
}

// SplitOptions converts the [audio] section into splitter options.
func (c *Config) SplitOptions() audiosplit.Options {
	return audiosplit.Options{
		InputDir:        c.Audio.InputDir,
		OutputDir:       c.Audio.OutputDir,
		ClipSeconds:     c.Audio.ClipSeconds,
		SampleRate:      c.Audio.SampleRate,
		Workers:         c.Audio.Workers,
		SilenceVariance: c.Audio.SilenceVariance,
		WindowSeconds:   c.Audio.WindowSeconds,
	}
}

// DecoderConfig returns the ffmpeg settings for audio decoding. Clips are
// always mono.
func (c *Config) DecoderConfig() *transcode.DecoderConfig {
	cfg := transcode.DefaultDecoderConfig()
	cfg.TargetSampleRate = c.Audio.SampleRate
	cfg.TargetChannels = 1
	cfg.FFmpegPath = c.Audio.FFmpegPath
	cfg.FFprobePath = c.Audio.FFprobePath
	cfg.Timeout = time.Duration(c.Audio.TimeoutSeconds) * time.Second
	return cfg
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
