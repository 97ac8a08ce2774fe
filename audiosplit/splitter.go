// Package audiosplit cuts a tree of audio files into fixed-length mono WAV
// clips for training, dropping clips that contain long silent stretches.
package audiosplit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/RyanBlaney/degrade/logging"
	"github.com/RyanBlaney/degrade/progress"
	"github.com/RyanBlaney/degrade/transcode"
)

// Decoder turns an audio file into mono float samples at the splitter's
// sample rate.
type Decoder interface {
	DecodeFile(ctx context.Context, path string) ([]float64, error)
}

// Ledger is the part of progress.Ledger the splitter needs.
type Ledger interface {
	Done(ctx context.Context, task string) (map[string]struct{}, error)
	Mark(ctx context.Context, task, path string, status progress.Status, runID string) error
}

// Options configures a split run.
type Options struct {
	InputDir  string
	OutputDir string

	ClipSeconds int
	SampleRate  int
	Workers     int

	// A clip is rejected when any WindowSeconds window has a variance below
	// SilenceVariance.
	SilenceVariance float64
	WindowSeconds   int

	RunID string
}

// DefaultOptions returns the split settings used when fields are left zero.
func DefaultOptions() Options {
	return Options{
		ClipSeconds:     30,
		SampleRate:      22050,
		Workers:         8,
		SilenceVariance: 0.001,
		WindowSeconds:   2,
	}
}

func (o *Options) normalize() {
	def := DefaultOptions()
	if o.ClipSeconds <= 0 {
		o.ClipSeconds = def.ClipSeconds
	}
	if o.SampleRate <= 0 {
		o.SampleRate = def.SampleRate
	}
	if o.Workers <= 0 {
		o.Workers = def.Workers
	}
	if o.SilenceVariance <= 0 {
		o.SilenceVariance = def.SilenceVariance
	}
	if o.WindowSeconds <= 0 {
		o.WindowSeconds = def.WindowSeconds
	}
}

// Summary describes a finished split run.
type Summary struct {
	Files         int           `json:"files"`
	Skipped       int           `json:"skipped"`
	ClipsWritten  int           `json:"clips_written"`
	ClipsRejected int           `json:"clips_rejected"`
	Failed        int           `json:"failed"`
	Duration      time.Duration `json:"duration"`
}

// Splitter runs split jobs.
type Splitter struct {
	decoder Decoder
	ledger  Ledger
	opts    Options
	logger  logging.Logger
}

// NewSplitter creates a splitter. A nil decoder selects an ffmpeg decoder
// producing mono audio at opts.SampleRate; a nil ledger disables resuming.
func NewSplitter(decoder Decoder, ledger Ledger, opts Options) (*Splitter, error) {
	if opts.InputDir == "" || opts.OutputDir == "" {
		return nil, errors.New("input and output directories are required")
	}
	opts.normalize()

	if decoder == nil {
		cfg := transcode.DefaultDecoderConfig()
		cfg.TargetSampleRate = opts.SampleRate
		cfg.TargetChannels = 1
		decoder = transcode.NewDecoder(cfg)
	}

	return &Splitter{
		decoder: decoder,
		ledger:  ledger,
		opts:    opts,
		logger: logging.WithFields(logging.Fields{
			"component": "audio_splitter",
		}),
	}, nil
}

// WithLogger replaces the splitter's logger.
func (s *Splitter) WithLogger(logger logging.Logger) *Splitter {
	if logger != nil {
		s.logger = logger
	}
	return s
}

type fileResult struct {
	path     string
	written  int
	rejected int
	err      error
}

// Run splits every pending file. A file that cannot be decoded is recorded as
// processed and skipped, so it is not retried on the next run.
func (s *Splitter) Run(ctx context.Context) (Summary, error) {
	startTime := time.Now()
	var summary Summary

	files, err := FindAudioFiles(s.opts.InputDir)
	if err != nil {
		return summary, err
	}
	total := len(files)

	if s.ledger != nil {
		done, err := s.ledger.Done(ctx, progress.TaskSplitAudio)
		if err != nil {
			return summary, fmt.Errorf("read progress: %w", err)
		}
		files = slices.DeleteFunc(files, func(f string) bool {
			_, seen := done[f]
			return seen
		})
	}
	summary.Files = len(files)
	summary.Skipped = total - len(files)

	complete := 0.0
	if total > 0 {
		complete = 100 * float64(summary.Skipped) / float64(total)
	}
	s.logger.Info(fmt.Sprintf("Found %d files to process. Total processing is %.1f%% complete.", len(files), complete), logging.Fields{
		"input":   s.opts.InputDir,
		"output":  s.opts.OutputDir,
		"workers": s.opts.Workers,
	})

	if len(files) == 0 {
		summary.Duration = time.Since(startTime)
		return summary, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	results := make(chan fileResult)

	var wg sync.WaitGroup
	for range min(s.opts.Workers, len(files)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				res := s.processFile(runCtx, path)
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
		for _, f := range files {
			select {
			case jobs <- f:
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
	handled := 0
	for res := range results {
		if runErr != nil {
			continue
		}

		status := progress.StatusDone
		if res.err != nil {
			if runCtx.Err() != nil {
				// cancelled mid-file, leave it for the next run
				continue
			}
			status = progress.StatusFailed
			summary.Failed++
			s.logger.Warn("Skipping undecodable file", logging.Fields{
				"file":  res.path,
				"error": res.err.Error(),
			})
		}
		summary.ClipsWritten += res.written
		summary.ClipsRejected += res.rejected

		if s.ledger != nil {
			if err := s.ledger.Mark(runCtx, progress.TaskSplitAudio, res.path, status, s.opts.RunID); err != nil {
				runErr = fmt.Errorf("record progress for %s: %w", res.path, err)
				cancel()
				continue
			}
		}

		handled++
		s.logger.Debug("File split", logging.Fields{
			"file":     res.path,
			"clips":    res.written,
			"rejected": res.rejected,
			"progress": fmt.Sprintf("%d/%d", handled, len(files)),
		})
	}

	summary.Duration = time.Since(startTime)
	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}
	if runErr != nil {
		return summary, runErr
	}

	s.logger.Info("Audio split completed", logging.Fields{
		"files":          summary.Files,
		"clips_written":  summary.ClipsWritten,
		"clips_rejected": summary.ClipsRejected,
		"failed":         summary.Failed,
		"duration":       summary.Duration,
	})
	return summary, nil
}

func (s *Splitter) processFile(ctx context.Context, path string) fileResult {
	res := fileResult{path: path}

	samples, err := s.decoder.DecodeFile(ctx, path)
	if err != nil {
		res.err = err
		return res
	}

	outDir := ClipDir(s.opts.InputDir, s.opts.OutputDir, path)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		res.err = fmt.Errorf("create clip directory: %w", err)
		return res
	}

	for i, clip := range SplitClips(samples, s.opts.SampleRate, s.opts.ClipSeconds) {
		if IsSilent(clip, s.opts.SampleRate, s.opts.WindowSeconds, s.opts.SilenceVariance) {
			res.rejected++
			continue
		}
		name := filepath.Join(outDir, fmt.Sprintf("%05d.wav", i))
		if err := writeWAVFile(name, clip, s.opts.SampleRate); err != nil {
			res.err = fmt.Errorf("write clip %s: %w", name, err)
			return res
		}
		res.written++
	}
	return res
}

// FindAudioFiles lists audio files under root in sorted order. Paths keep
// the root prefix so they match entries in older plain-text progress files.
func FindAudioFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && transcode.IsAudioFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	slices.Sort(files)
	return files, nil
}
