package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeCorruption()
	if err := c.normalizeRun(); err != nil {
		return err
	}
	if err := c.normalizeAudio(); err != nil {
		return err
	}
	if err := c.normalizeProgress(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeCorruption() {
	c.Corruption.FixedCorruptions = trimList(c.Corruption.FixedCorruptions)
	c.Corruption.RandomCorruptions = trimList(c.Corruption.RandomCorruptions)
}

func (c *Config) normalizeRun() error {
	var err error
	if c.Run.InputDir, err = expandPath(strings.TrimSpace(c.Run.InputDir)); err != nil {
		return fmt.Errorf("run.input_dir: %w", err)
	}
	if c.Run.OutputDir, err = expandPath(strings.TrimSpace(c.Run.OutputDir)); err != nil {
		return fmt.Errorf("run.output_dir: %w", err)
	}
	if c.Run.BatchSize <= 0 {
		c.Run.BatchSize = defaultBatchSize
	}
	if c.Run.Workers <= 0 {
		c.Run.Workers = defaultRunWorkers
	}
	if c.Run.Channels == 0 {
		c.Run.Channels = defaultChannels
	}
	c.Run.OutputFormat = strings.ToLower(strings.TrimSpace(c.Run.OutputFormat))
	switch c.Run.OutputFormat {
	case "":
		c.Run.OutputFormat = defaultOutputFormat
	case "jpeg":
		c.Run.OutputFormat = "jpg"
	}
	if c.Run.JPEGQuality <= 0 {
		c.Run.JPEGQuality = defaultJPEGQuality
	}
	return nil
}

func (c *Config) normalizeAudio() error {
	var err error
	if c.Audio.InputDir, err = expandPath(strings.TrimSpace(c.Audio.InputDir)); err != nil {
		return fmt.Errorf("audio.input_dir: %w", err)
	}
	if c.Audio.OutputDir, err = expandPath(strings.TrimSpace(c.Audio.OutputDir)); err != nil {
		return fmt.Errorf("audio.output_dir: %w", err)
	}
	if c.Audio.ClipSeconds <= 0 {
		c.Audio.ClipSeconds = defaultClipSeconds
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
	if c.Audio.Workers <= 0 {
		c.Audio.Workers = defaultAudioWorkers
	}
	if c.Audio.SilenceVariance <= 0 {
		c.Audio.SilenceVariance = defaultSilenceVariance
	}
	if c.Audio.WindowSeconds <= 0 {
		c.Audio.WindowSeconds = defaultWindowSeconds
	}
	c.Audio.FFmpegPath = strings.TrimSpace(c.Audio.FFmpegPath)
	if c.Audio.FFmpegPath == "" {
		c.Audio.FFmpegPath = defaultFFmpegPath
	}
	c.Audio.FFprobePath = strings.TrimSpace(c.Audio.FFprobePath)
	if c.Audio.FFprobePath == "" {
		c.Audio.FFprobePath = defaultFFprobePath
	}
	if c.Audio.TimeoutSeconds <= 0 {
		c.Audio.TimeoutSeconds = defaultAudioTimeout
	}
	return nil
}

func (c *Config) normalizeProgress() error {
	if strings.TrimSpace(c.Progress.DBPath) == "" {
		c.Progress.DBPath = defaultDBPath
	}
	var err error
	if c.Progress.DBPath, err = expandPath(strings.TrimSpace(c.Progress.DBPath)); err != nil {
		return fmt.Errorf("progress.db_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func trimList(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
