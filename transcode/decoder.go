package transcode

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/degrade/logging"
)

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate" toml:"sample_rate"`
	TargetChannels   int           `json:"target_channels" toml:"channels"`
	MaxDuration      time.Duration `json:"max_duration" toml:"max_duration"`
	FFmpegPath       string        `json:"ffmpeg_path" toml:"ffmpeg_path"`   // Path to ffmpeg binary
	FFprobePath      string        `json:"ffprobe_path" toml:"ffprobe_path"` // Path to ffprobe binary
	Timeout          time.Duration `json:"timeout" toml:"timeout"`           // Timeout for each ffmpeg invocation
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 22050,
		TargetChannels:   1,
		MaxDuration:      0, // No limit
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		Timeout:          10 * time.Minute,
	}
}

// AudioMetadata holds detected audio properties from FFprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	Format     string  `json:"format"`
}

// Decoder handles audio decoding using FFmpeg
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "audio_decoder",
		}),
	}
}

// Config returns the decoder configuration.
func (d *Decoder) Config() DecoderConfig {
	return *d.config
}

// DecodeFile decodes an audio file into interleaved float64 PCM at the
// configured sample rate and channel count.
func (d *Decoder) DecodeFile(ctx context.Context, filename string) ([]float64, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "DecodeFile",
		"filename": filename,
	})

	logger.Debug("Starting audio file decode")

	metadata, err := d.ReadMetadata(ctx, filename)
	if err != nil {
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
		"input_bitrate":     metadata.Bitrate,
	})

	args := append([]string{"-i", filename}, d.buildFFmpegArgs()...)
	args = append(args, "pipe:1")

	output, err := d.run(ctx, d.config.FFmpegPath, args)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded from %s", filename)
	}

	logger.Debug("Audio file decoded", logging.Fields{
		"samples":     len(samples),
		"sample_rate": d.config.TargetSampleRate,
		"channels":    d.config.TargetChannels,
	})
	return samples, nil
}

// ReadMetadata uses ffprobe to read the first audio stream's properties.
func (d *Decoder) ReadMetadata(ctx context.Context, filename string) (*AudioMetadata, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0", // First audio stream only
		filename,
	}

	output, err := d.run(ctx, d.config.FFprobePath, args)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseFFprobeOutput(output)
}

func (d *Decoder) run(ctx context.Context, bin string, args []string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	output, err := exec.CommandContext(ctx, bin, args...).Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("%w, stderr: %s", err, strings.TrimSpace(string(exitError.Stderr)))
		}
		return nil, err
	}
	return output, nil
}

// buildFFmpegArgs returns the output half of the ffmpeg command line.
func (d *Decoder) buildFFmpegArgs() []string {
	args := []string{
		"-v", "error",
		"-map", "0:a:0",
		"-vn",
	}
	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", d.config.MaxDuration.Seconds()))
	}
	args = append(args,
		"-f", "f64le",
		"-ac", strconv.Itoa(d.config.TargetChannels),
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
	)
	return args
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var parsed struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(parsed.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := parsed.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil {
		sampleRate = 44100 // Fallback to common sample rate
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	bitrate, err := strconv.Atoi(stream.BitRate)
	if err != nil {
		bitrate = 0
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}

// bytesToFloat64 converts raw little-endian float64 bytes to samples. A
// trailing partial sample is dropped.
func bytesToFloat64(data []byte) []float64 {
	data = data[:len(data)-(len(data)%8)]
	if len(data) == 0 {
		return nil
	}

	samples := make([]float64, len(data)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}
	return samples
}

// ValidateConfig checks the configuration without touching the binaries.
func (d *Decoder) ValidateConfig() error {
	if d.config.TargetSampleRate <= 0 {
		return fmt.Errorf("target sample rate must be positive: %d", d.config.TargetSampleRate)
	}
	if d.config.TargetChannels <= 0 || d.config.TargetChannels > 8 {
		return fmt.Errorf("target channels must be between 1 and 8: %d", d.config.TargetChannels)
	}
	if d.config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %v", d.config.Timeout)
	}
	if d.config.FFmpegPath == "" || d.config.FFprobePath == "" {
		return errors.New("ffmpeg and ffprobe paths are required")
	}
	return nil
}

// CheckAvailability runs ffmpeg and ffprobe with -version.
func (d *Decoder) CheckAvailability(ctx context.Context) error {
	if _, err := d.run(ctx, d.config.FFmpegPath, []string{"-version"}); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}
	if _, err := d.run(ctx, d.config.FFprobePath, []string{"-version"}); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", d.config.FFprobePath, err)
	}
	return nil
}

var supportedExtensions = []string{".wav", ".mp3", ".flac", ".ogg", ".m4a", ".opus", ".aac", ".wma"}

// SupportedExtensions lists the audio file extensions the splitter looks for.
func SupportedExtensions() []string {
	return slices.Clone(supportedExtensions)
}

// IsAudioFile reports whether path has a supported audio extension.
func IsAudioFile(path string) bool {
	return slices.Contains(supportedExtensions, strings.ToLower(filepath.Ext(path)))
}
