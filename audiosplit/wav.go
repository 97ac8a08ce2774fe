package audiosplit

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth     = 16
	wavChannels     = 1
	wavFormatPCM    = 1
	wavMaxAmplitude = math.MaxInt16
)

// WriteWAV encodes mono samples in [-1,1] as 16-bit signed PCM WAV. Samples
// outside the range are clamped. The encoder seeks back to patch the chunk
// sizes, so w must be seekable.
func WriteWAV(w io.WriteSeeker, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		data[i] = int(math.Round(s * wavMaxAmplitude))
	}

	enc := wav.NewEncoder(w, sampleRate, wavBitDepth, wavChannels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: wavChannels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalise wav: %w", err)
	}
	return nil
}

// writeWAVFile writes samples to path, replacing any existing file.
func writeWAVFile(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAV(f, samples, sampleRate); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
