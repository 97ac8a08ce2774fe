package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/degrade/config"
	"github.com/RyanBlaney/degrade/corrupt"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, filepath.Join(tempHome, ".config", "degrade", "config.toml"), resolved)

	assert.Equal(t, filepath.Join(tempHome, ".local", "share", "degrade", "progress.db"), cfg.Progress.DBPath)
	assert.Equal(t, corrupt.DefaultConfig(), cfg.Corruption)
	assert.Equal(t, 16, cfg.Run.BatchSize)
	assert.Equal(t, "png", cfg.Run.OutputFormat)
	assert.True(t, cfg.Run.WriteEntropy)
	assert.Equal(t, 22050, cfg.Audio.SampleRate)
	assert.Equal(t, 30, cfg.Audio.ClipSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestSampleConfigLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.CreateSample(path))

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, []string{"jpeg-broad"}, cfg.Corruption.FixedCorruptions)
	assert.Equal(t, 2, cfg.Corruption.NumRandomCorruptions)
	assert.Contains(t, cfg.Corruption.RandomCorruptions, "lq_resampling4x")
	assert.Equal(t, "ffmpeg", cfg.Audio.FFmpegPath)
}

func TestLoadOverridesAndNormalizes(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeConfig(t, `
[corruption]
fixed_corruptions = [" jpeg-low ", ""]

[run]
input_dir = "~/images"
output_format = "JPEG"
seed = 42
batch_size = 0

[logging]
level = "DEBUG"
`)

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, []string{"jpeg-low"}, cfg.Corruption.FixedCorruptions)
	assert.Equal(t, filepath.Join(home, "images"), cfg.Run.InputDir)
	assert.Equal(t, "jpg", cfg.Run.OutputFormat)
	assert.Equal(t, uint64(42), cfg.Run.Seed)
	assert.Equal(t, 16, cfg.Run.BatchSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "", cfg.Audio.InputDir)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cases := map[string]string{
		"unknown key":        "[run]\nthreads = 3\n",
		"bad corruption":     "[corruption]\nfixed_corruptions = [\"glitter\"]\n",
		"bad jpeg variant":   "[corruption]\nfixed_corruptions = [\"jpeg-ultra\"]\n",
		"empty pool":         "[corruption]\nnum_corrupts_per_image = 1\nrandom_corruptions = []\n",
		"negative scale":     "[corruption]\ncorruption_blur_scale = -1.0\n",
		"channels":           "[run]\nchannels = 2\n",
		"format":             "[run]\noutput_format = \"gif\"\n",
		"quality":            "[run]\njpeg_quality = 101\n",
		"window beyond clip": "[audio]\nclip_seconds = 1\nwindow_seconds = 2\n",
		"log level":          "[logging]\nlevel = \"loud\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := config.Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}

	_, _, _, err := config.Load(writeConfig(t, "[corruption]\nfixed_corruptions = [\"glitter\"]\n"))
	assert.ErrorIs(t, err, corrupt.ErrUnsupportedCorruption)
}

func TestLoadRejectsDirectory(t *testing.T) {
	_, _, _, err := config.Load(t.TempDir())
	require.Error(t, err)
}

func TestOptionConversions(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
[run]
input_dir = "/data/in"
output_dir = "/data/out"
workers = 2
channels = 1
write_entropy = false

[audio]
sample_rate = 16000
workers = 3
timeout_seconds = 30
ffmpeg_path = "/opt/ffmpeg"
`)
	cfg, _, _, err := config.Load(path)
	require.NoError(t, err)

	run := cfg.RunOptions()
	assert.Equal(t, "/data/in", run.InputDir)
	assert.Equal(t, "/data/out", run.OutputDir)
	assert.Equal(t, 2, run.Workers)
	assert.Equal(t, 1, run.Channels)
	assert.False(t, run.WriteEntropy)

	split := cfg.SplitOptions()
	assert.Equal(t, 16000, split.SampleRate)
	assert.Equal(t, 3, split.Workers)
	assert.Equal(t, 0.001, split.SilenceVariance)

	dec := cfg.DecoderConfig()
	assert.Equal(t, 16000, dec.TargetSampleRate)
	assert.Equal(t, 1, dec.TargetChannels)
	assert.Equal(t, 30*time.Second, dec.Timeout)
	assert.Equal(t, "/opt/ffmpeg", dec.FFmpegPath)
}

func TestEncodeProducesLoadableTOML(t *testing.T) {
	cfg := config.Default()
	cfg.Corruption.FixedCorruptions = []string{"noise-5"}

	data, err := cfg.Encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, toml.Unmarshal(data, &decoded))
	section, ok := decoded["corruption"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"noise-5"}, section["fixed_corruptions"])
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := config.ExpandPath("~/x/../y")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "y"), got)

	got, err = config.ExpandPath("")
	require.NoError(t, err)
	assert.Empty(t, got)

	def, err := config.DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "degrade", "config.toml"), def)
}
