package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/degrade/corrupt"
	"github.com/RyanBlaney/degrade/logging"
	"github.com/RyanBlaney/degrade/progress"
	"github.com/RyanBlaney/degrade/raster"
)

func writeImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	for i, name := range names {
		m := raster.New(12, 10, 3)
		for j := range m.Pix {
			m.Pix[j] = float64((j*7+i*31)%256) / 255
		}
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, raster.Save(m, path, 95))
	}
}

func testCorruptor(t *testing.T) *corrupt.Corruptor {
	t.Helper()
	c, err := corrupt.New(corrupt.Config{
		BlurScale:            1,
		FixedCorruptions:     []string{"saturation", "jpeg-normal"},
		NumRandomCorruptions: 2,
		RandomCorruptions:    []string{"gaussian_blur", "motion_blur", "lq_resampling", "color_quantization"},
	}, corrupt.WithLogger(&logging.NoOpLogger{}))
	require.NoError(t, err)
	return c
}

func newTestRunner(t *testing.T, ledger Ledger, opts Options) *Runner {
	t.Helper()
	r, err := NewRunner(testCorruptor(t), ledger, opts)
	require.NoError(t, err)
	return r.WithLogger(&logging.NoOpLogger{})
}

func readEntropy(t *testing.T, path string) []EntropyRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []EntropyRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec EntropyRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestRunCorruptsTreeAndResumes(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImages(t, in, "a.png", "b.png", "nested/c.png", "nested/d.jpg", "e.png")
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("skip me"), 0o644))

	ledger, err := progress.Open(filepath.Join(t.TempDir(), "progress.db"))
	require.NoError(t, err)
	defer ledger.Close()

	r := newTestRunner(t, ledger, Options{InputDir: in, OutputDir: out, BatchSize: 2, Workers: 2, Seed: 7, WriteEntropy: true})
	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 5, summary.Found)
	assert.Equal(t, 5, summary.Processed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 3, summary.Batches)

	for _, rel := range []string{"a.png", "b.png", "nested/c.png", "nested/d.png", "e.png"} {
		img, err := raster.Load(filepath.Join(out, filepath.FromSlash(rel)), 3)
		require.NoError(t, err, rel)
		assert.Equal(t, 12, img.Height)
		assert.Equal(t, 10, img.Width)
	}

	records := readEntropy(t, filepath.Join(out, entropyFileName))
	require.Len(t, records, 5)
	for _, rec := range records {
		assert.Len(t, rec.Entropy, 2)
		assert.Equal(t, summary.RunID, rec.RunID)
	}

	// everything is recorded, so a second run has nothing to do
	again, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, again.Skipped)
	assert.Equal(t, 0, again.Processed)
	assert.Equal(t, 0, again.Batches)
}

func TestRunIsIndependentOfWorkerCount(t *testing.T) {
	in := t.TempDir()
	writeImages(t, in, "a.png", "b.png", "c.png", "d.png", "e.png", "f.png")

	outputs := make([]string, 0, 2)
	for _, workers := range []int{1, 4} {
		out := t.TempDir()
		r := newTestRunner(t, nil, Options{InputDir: in, OutputDir: out, BatchSize: 2, Workers: workers, Seed: 99, WriteEntropy: false})
		_, err := r.Run(context.Background())
		require.NoError(t, err)
		outputs = append(outputs, out)
	}

	for _, name := range []string{"a.png", "c.png", "f.png"} {
		first, err := os.ReadFile(filepath.Join(outputs[0], name))
		require.NoError(t, err)
		second, err := os.ReadFile(filepath.Join(outputs[1], name))
		require.NoError(t, err)
		assert.Equal(t, first, second, name)
	}
}

func TestRunRecordsUnreadableImages(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImages(t, in, "good.png")
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.png"), []byte("not an image"), 0o644))

	ledger, err := progress.Open(filepath.Join(t.TempDir(), "progress.db"))
	require.NoError(t, err)
	defer ledger.Close()

	r := newTestRunner(t, ledger, Options{InputDir: in, OutputDir: out, BatchSize: 4, Workers: 1})
	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Failed)

	entries, err := ledger.Entries(context.Background(), progress.TaskCorrupt)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "broken.png", entries[0].Path)
	assert.Equal(t, progress.StatusFailed, entries[0].Status)
	assert.Equal(t, progress.StatusDone, entries[1].Status)
}

func TestRunRefusesLockedOutput(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImages(t, in, "a.png")

	held := flock.New(filepath.Join(out, lockFileName))
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer held.Unlock()

	r := newTestRunner(t, nil, Options{InputDir: in, OutputDir: out})
	_, err = r.Run(context.Background())
	require.ErrorIs(t, err, ErrOutputLocked)
}

func TestRunStopsOnCancel(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImages(t, in, "a.png", "b.png", "c.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestRunner(t, nil, Options{InputDir: in, OutputDir: out, BatchSize: 1, Workers: 1})
	_, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestJPEGOutput(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImages(t, in, "a.png")

	r := newTestRunner(t, nil, Options{InputDir: in, OutputDir: out, OutputFormat: "JPEG"})
	assert.Equal(t, FormatJPEG, r.Options().OutputFormat)

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "a.jpg"))
	require.NoError(t, err)
}

func TestFindImagesSkipsNestedOutput(t *testing.T) {
	in := t.TempDir()
	writeImages(t, in, "z.png", "a/b.png", "out/old.png")

	files, err := FindImages(in, filepath.Join(in, "out"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b.png", "z.png"}, files)
}

func TestChunk(t *testing.T) {
	files := []string{"a", "b", "c", "d", "e"}
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, Chunk(files, 2))
	assert.Equal(t, [][]string{{"a", "b", "c", "d", "e"}}, Chunk(files, 10))
	assert.Empty(t, Chunk(nil, 3))
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/out", "x", "y.png"), OutputPath("/out", "x/y.jpeg", FormatPNG))
	assert.Equal(t, filepath.Join("/out", "img.jpg"), OutputPath("/out", "img.webp", FormatJPEG))
}

func TestOptionsValidate(t *testing.T) {
	require.Error(t, Options{OutputDir: "o"}.Validate())
	require.Error(t, Options{InputDir: "i"}.Validate())
	require.Error(t, Options{InputDir: "i", OutputDir: "o", Channels: 2}.Validate())
	require.Error(t, Options{InputDir: "i", OutputDir: "o", OutputFormat: "gif"}.Validate())
	require.NoError(t, Options{InputDir: "i", OutputDir: "o"}.Validate())

	_, err := NewRunner(nil, nil, Options{InputDir: "i", OutputDir: "o"})
	require.Error(t, err)
}
