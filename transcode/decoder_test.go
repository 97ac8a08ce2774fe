package transcode

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFFprobeOutput(t *testing.T) {
	out := []byte(`{"streams":[{"codec_type":"audio","codec_name":"mp3","sample_rate":"44100",
		"channels":2,"duration":"12.5","bit_rate":"192000","codec_long_name":"MP3 (MPEG audio layer 3)"}]}`)

	meta, err := parseFFprobeOutput(out)
	require.NoError(t, err)
	assert.Equal(t, 44100, meta.SampleRate)
	assert.Equal(t, 2, meta.Channels)
	assert.Equal(t, "mp3", meta.Codec)
	assert.Equal(t, 12.5, meta.Duration)
	assert.Equal(t, 192000, meta.Bitrate)
}

func TestParseFFprobeOutputErrors(t *testing.T) {
	_, err := parseFFprobeOutput([]byte(`not json`))
	require.Error(t, err)

	_, err = parseFFprobeOutput([]byte(`{"streams":[]}`))
	require.Error(t, err)

	_, err = parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"video","channels":1}]}`))
	require.Error(t, err)

	_, err = parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"audio","channels":0}]}`))
	require.Error(t, err)

	meta, err := parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"audio","channels":1,"sample_rate":"n/a"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 44100, meta.SampleRate)
}

func TestBytesToFloat64(t *testing.T) {
	want := []float64{0, 0.5, -1, math.Pi}
	buf := make([]byte, len(want)*8+3)
	for i, v := range want {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}

	assert.Equal(t, want, bytesToFloat64(buf))
	assert.Nil(t, bytesToFloat64([]byte{1, 2}))
}

func TestBuildFFmpegArgs(t *testing.T) {
	d := NewDecoder(&DecoderConfig{TargetSampleRate: 16000, TargetChannels: 1, FFmpegPath: "ffmpeg", FFprobePath: "ffprobe"})
	args := strings.Join(d.buildFFmpegArgs(), " ")
	assert.Contains(t, args, "-f f64le")
	assert.Contains(t, args, "-ar 16000")
	assert.Contains(t, args, "-ac 1")
	assert.NotContains(t, args, "-t ")

	d.config.MaxDuration = 90 * time.Second
	assert.Contains(t, strings.Join(d.buildFFmpegArgs(), " "), "-t 90.000")
}

func TestValidateConfig(t *testing.T) {
	require.NoError(t, NewDecoder(nil).ValidateConfig())
	assert.Equal(t, 22050, NewDecoder(nil).Config().TargetSampleRate)

	bad := DefaultDecoderConfig()
	bad.TargetChannels = 9
	require.Error(t, NewDecoder(bad).ValidateConfig())

	bad = DefaultDecoderConfig()
	bad.FFmpegPath = ""
	require.Error(t, NewDecoder(bad).ValidateConfig())
}

func TestIsAudioFile(t *testing.T) {
	assert.True(t, IsAudioFile("a/b/song.MP3"))
	assert.True(t, IsAudioFile("x.flac"))
	assert.False(t, IsAudioFile("cover.jpg"))
	assert.Contains(t, SupportedExtensions(), ".opus")
}
