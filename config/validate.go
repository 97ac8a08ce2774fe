package config

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/degrade/corrupt"
	"github.com/RyanBlaney/degrade/logging"
)

// Validate ensures the configuration is usable. Corruption identifiers are
// resolved here so a typo fails before any image is read.
func (c *Config) Validate() error {
	if err := c.validateCorruption(); err != nil {
		return err
	}
	if err := c.validateRun(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCorruption() error {
	if c.Corruption.BlurScale < 0 {
		return errors.New("corruption.corruption_blur_scale must not be negative")
	}
	if _, err := corrupt.New(c.Corruption, corrupt.WithLogger(&logging.NoOpLogger{})); err != nil {
		return fmt.Errorf("corruption: %w", err)
	}
	return nil
}

func (c *Config) validateRun() error {
	switch c.Run.Channels {
	case 1, 3, 4:
	default:
		return fmt.Errorf("run.channels must be 1, 3 or 4, got %d", c.Run.Channels)
	}
	switch c.Run.OutputFormat {
	case "png", "jpg":
	default:
		return fmt.Errorf("run.output_format must be png or jpg, got %q", c.Run.OutputFormat)
	}
	if c.Run.JPEGQuality > 100 {
		return fmt.Errorf("run.jpeg_quality must be between 1 and 100, got %d", c.Run.JPEGQuality)
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.WindowSeconds > c.Audio.ClipSeconds {
		return fmt.Errorf("audio.window_seconds (%d) must not exceed audio.clip_seconds (%d)", c.Audio.WindowSeconds, c.Audio.ClipSeconds)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
}
