package pipeline

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Output formats accepted by Options.OutputFormat.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpg"
)

// Options configures one batch run.
type Options struct {
	InputDir  string
	OutputDir string

	// BatchSize is the number of images that share one corruption plan.
	BatchSize int
	Workers   int

	// Seed makes the run reproducible: batch i draws from PCG(Seed, i).
	Seed uint64

	// Channels is 1 (grey), 3 (RGB) or 4 (RGBA).
	Channels int

	OutputFormat string
	// JPEGQuality applies when OutputFormat is jpg.
	JPEGQuality int

	// WriteEntropy appends one JSON line per image to entropy.jsonl.
	WriteEntropy bool
}

// DefaultOptions returns the options used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		BatchSize:    16,
		Workers:      defaultWorkers(),
		Channels:     3,
		OutputFormat: FormatPNG,
		JPEGQuality:  95,
		WriteEntropy: true,
	}
}

func defaultWorkers() int {
	return max(1, min(runtime.NumCPU(), 8))
}

func (o *Options) normalize() {
	def := DefaultOptions()
	if o.BatchSize <= 0 {
		o.BatchSize = def.BatchSize
	}
	if o.Workers <= 0 {
		o.Workers = def.Workers
	}
	if o.Channels == 0 {
		o.Channels = def.Channels
	}
	o.OutputFormat = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(o.OutputFormat)), ".")
	switch o.OutputFormat {
	case "":
		o.OutputFormat = def.OutputFormat
	case "jpeg":
		o.OutputFormat = FormatJPEG
	}
	if o.JPEGQuality <= 0 {
		o.JPEGQuality = def.JPEGQuality
	}
}

// Validate reports the first problem with the options after defaults are
// applied.
func (o Options) Validate() error {
	o.normalize()
	if o.InputDir == "" {
		return errors.New("input directory is required")
	}
	if o.OutputDir == "" {
		return errors.New("output directory is required")
	}
	switch o.Channels {
	case 1, 3, 4:
	default:
		return fmt.Errorf("channels must be 1, 3 or 4, got %d", o.Channels)
	}
	switch o.OutputFormat {
	case FormatPNG, FormatJPEG:
	default:
		return fmt.Errorf("unsupported output format %q", o.OutputFormat)
	}
	if o.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be at most 100, got %d", o.JPEGQuality)
	}
	return nil
}
