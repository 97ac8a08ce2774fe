// Package pipeline corrupts whole image directories: it walks the input
// tree, groups images into batches, corrupts each batch on a worker pool
// with its own seeded random source, and mirrors the results into the output
// tree.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/RyanBlaney/degrade/corrupt"
	"github.com/RyanBlaney/degrade/logging"
	"github.com/RyanBlaney/degrade/progress"
	"github.com/RyanBlaney/degrade/raster"
)

const (
	lockFileName    = ".degrade.lock"
	entropyFileName = "entropy.jsonl"
)

// ErrOutputLocked is returned when another run holds the output directory.
var ErrOutputLocked = errors.New("output directory is in use by another run")

// Ledger is the part of progress.Ledger the runner needs.
type Ledger interface {
	Done(ctx context.Context, task string) (map[string]struct{}, error)
	Mark(ctx context.Context, task, path string, status progress.Status, runID string) error
}

// Summary describes a finished run.
type Summary struct {
	RunID     string        `json:"run_id"`
	Found     int           `json:"found"`
	Skipped   int           `json:"skipped"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Batches   int           `json:"batches"`
	Duration  time.Duration `json:"duration"`
}

// EntropyRecord is one line of entropy.jsonl.
type EntropyRecord struct {
	File        string    `json:"file"`
	RunID       string    `json:"run_id"`
	Batch       int       `json:"batch"`
	Corruptions []string  `json:"corruptions"`
	Entropy     []float64 `json:"entropy"`
}

// Runner executes batch runs with one Corruptor.
type Runner struct {
	corruptor *corrupt.Corruptor
	ledger    Ledger
	opts      Options
	logger    logging.Logger
}

// NewRunner creates a runner. ledger may be nil, in which case every input
// file is processed on every run.
func NewRunner(c *corrupt.Corruptor, ledger Ledger, opts Options) (*Runner, error) {
	if c == nil {
		return nil, errors.New("corruptor is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.normalize()

	return &Runner{
		corruptor: c,
		ledger:    ledger,
		opts:      opts,
		logger: logging.WithFields(logging.Fields{
			"component": "pipeline_runner",
		}),
	}, nil
}

// WithLogger replaces the runner's logger.
func (r *Runner) WithLogger(logger logging.Logger) *Runner {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Options returns the normalised options.
func (r *Runner) Options() Options {
	return r.opts
}

type batchJob struct {
	index int
	files []string
}

type imageResult struct {
	file    string
	failed  bool
	err     error
	entropy []float64
}

type batchResult struct {
	index  int
	tags   []string
	images []imageResult
	err    error
}

// Run processes every pending image under InputDir. A corruption error is
// fatal and stops the run; images that cannot be read are recorded as failed
// and skipped.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	startTime := time.Now()
	summary := Summary{RunID: uuid.NewString()}

	logger := r.logger.WithFields(logging.Fields{
		"run_id": summary.RunID,
		"input":  r.opts.InputDir,
		"output": r.opts.OutputDir,
	})

	if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
		return summary, fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(r.opts.OutputDir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return summary, ErrOutputLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("Failed to release output lock", logging.Fields{"error": err.Error()})
		}
	}()

	files, err := FindImages(r.opts.InputDir, r.opts.OutputDir)
	if err != nil {
		return summary, err
	}
	summary.Found = len(files)

	if r.ledger != nil {
		done, err := r.ledger.Done(ctx, progress.TaskCorrupt)
		if err != nil {
			return summary, fmt.Errorf("read progress: %w", err)
		}
		files = slices.DeleteFunc(files, func(f string) bool {
			_, seen := done[f]
			return seen
		})
		summary.Skipped = summary.Found - len(files)
	}

	batches := Chunk(files, r.opts.BatchSize)
	summary.Batches = len(batches)

	logger.Info("Starting corruption run", logging.Fields{
		"found":   summary.Found,
		"skipped": summary.Skipped,
		"batches": summary.Batches,
		"workers": r.opts.Workers,
		"seed":    r.opts.Seed,
	})

	if len(batches) == 0 {
		summary.Duration = time.Since(startTime)
		return summary, nil
	}

	var sidecar *json.Encoder
	if r.opts.WriteEntropy {
		f, err := os.OpenFile(filepath.Join(r.opts.OutputDir, entropyFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return summary, fmt.Errorf("open entropy file: %w", err)
		}
		defer f.Close()
		sidecar = json.NewEncoder(f)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan batchJob)
	results := make(chan batchResult)

	var wg sync.WaitGroup
	for range min(r.opts.Workers, len(batches)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res := r.processBatch(job)
				select {
				case results <- res:
				case <-runCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, b := range batches {
			select {
			case jobs <- batchJob{index: i, files: b}:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var runErr error
	for res := range results {
		if runErr != nil {
			continue
		}
		if res.err != nil {
			runErr = fmt.Errorf("batch %d: %w", res.index, res.err)
			cancel()
			continue
		}
		if err := r.record(runCtx, summary.RunID, res, sidecar, &summary); err != nil {
			runErr = err
			cancel()
		}
	}

	summary.Duration = time.Since(startTime)
	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}
	if runErr != nil {
		logger.Error(runErr, "Corruption run stopped", logging.Fields{
			"processed": summary.Processed,
			"failed":    summary.Failed,
		})
		return summary, runErr
	}

	logger.Info("Corruption run completed", logging.Fields{
		"processed": summary.Processed,
		"failed":    summary.Failed,
		"duration":  summary.Duration,
	})
	return summary, nil
}

// record books one finished batch. It runs on the collecting goroutine only,
// so the ledger and the sidecar see a single writer.
func (r *Runner) record(ctx context.Context, runID string, res batchResult, sidecar *json.Encoder, summary *Summary) error {
	for _, img := range res.images {
		status := progress.StatusDone
		if img.failed {
			status = progress.StatusFailed
			summary.Failed++
			r.logger.Warn("Skipping unreadable image", logging.Fields{
				"file":  img.file,
				"error": img.err.Error(),
			})
		} else {
			summary.Processed++
		}

		if r.ledger != nil {
			if err := r.ledger.Mark(ctx, progress.TaskCorrupt, img.file, status, runID); err != nil {
				return fmt.Errorf("record progress for %s: %w", img.file, err)
			}
		}

		if sidecar != nil && !img.failed {
			rec := EntropyRecord{
				File:        img.file,
				RunID:       runID,
				Batch:       res.index,
				Corruptions: res.tags,
				Entropy:     img.entropy,
			}
			if err := sidecar.Encode(rec); err != nil {
				return fmt.Errorf("write entropy record: %w", err)
			}
		}
	}
	return nil
}

// processBatch loads, corrupts and saves one batch. Load failures are
// reported per image; corruption and save failures fail the batch.
func (r *Runner) processBatch(job batchJob) batchResult {
	res := batchResult{index: job.index, images: make([]imageResult, 0, len(job.files))}

	var (
		images []*raster.Image
		loaded []string
	)
	for _, rel := range job.files {
		img, err := raster.Load(filepath.Join(r.opts.InputDir, filepath.FromSlash(rel)), r.opts.Channels)
		if err != nil {
			res.images = append(res.images, imageResult{file: rel, failed: true, err: err})
			continue
		}
		images = append(images, img)
		loaded = append(loaded, rel)
	}
	if len(images) == 0 {
		return res
	}

	rng := rand.New(rand.NewPCG(r.opts.Seed, uint64(job.index)))
	batch, err := r.corruptor.CorruptBatch(rng, images)
	if err != nil {
		res.err = err
		return res
	}
	res.tags = batch.Plan.Tags()

	perImage := len(batch.Entropy) / len(images)
	for i, img := range batch.Images {
		rel := loaded[i]
		dst := OutputPath(r.opts.OutputDir, rel, r.opts.OutputFormat)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			res.err = fmt.Errorf("create output directory for %s: %w", rel, err)
			return res
		}
		if err := raster.Save(img, dst, r.opts.JPEGQuality); err != nil {
			res.err = err
			return res
		}
		res.images = append(res.images, imageResult{
			file:    rel,
			entropy: batch.Entropy[i*perImage : (i+1)*perImage],
		})
	}
	return res
}

// FindImages lists the supported images under root as sorted slash-separated
// relative paths. Anything under skipDir (usually the output directory when
// it is nested inside the input) is ignored.
func FindImages(root, skipDir string) ([]string, error) {
	absSkip := ""
	if skipDir != "" {
		if abs, err := filepath.Abs(skipDir); err == nil {
			absSkip = abs
		}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if absSkip != "" && path != root {
				if abs, err := filepath.Abs(path); err == nil && abs == absSkip {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !raster.IsSupported(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	slices.Sort(files)
	return files, nil
}

// Chunk splits files into consecutive batches of at most size entries.
func Chunk(files []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	batches := make([][]string, 0, (len(files)+size-1)/size)
	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))
		batches = append(batches, files[start:end])
	}
	return batches
}

// OutputPath mirrors rel under outDir with its extension replaced by format.
func OutputPath(outDir, rel, format string) string {
	base := strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.Join(outDir, filepath.FromSlash(base)+"."+format)
}
