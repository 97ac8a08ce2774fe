package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/degrade/corrupt"
	"github.com/RyanBlaney/degrade/pipeline"
)

func newCorruptCommand(ctx *commandContext) *cobra.Command {
	var (
		inputDir  string
		outputDir string
		seed      uint64
		workers   int
		batchSize int
		format    string
		noEntropy bool
		noResume  bool
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "corrupt",
		Short: "Corrupt every image under a directory tree",
		Long: `Corrupt walks the input directory, corrupts images in batches and mirrors
them into the output directory. Every image of a batch receives the same
corruption sequence with independently drawn strengths. Files already
recorded in the progress ledger are skipped unless --no-resume is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			opts := cfg.RunOptions()
			flags := cmd.Flags()
			if flags.Changed("input") {
				opts.InputDir = inputDir
			}
			if flags.Changed("output") {
				opts.OutputDir = outputDir
			}
			if flags.Changed("seed") {
				opts.Seed = seed
			}
			if flags.Changed("workers") {
				opts.Workers = workers
			}
			if flags.Changed("batch-size") {
				opts.BatchSize = batchSize
			}
			if flags.Changed("format") {
				opts.OutputFormat = format
			}
			if noEntropy {
				opts.WriteEntropy = false
			}

			corruptor, err := corrupt.New(cfg.Corruption)
			if err != nil {
				return fmt.Errorf("configure corruptions: %w", err)
			}

			var ledger pipeline.Ledger
			if !noResume {
				l, err := ctx.openLedger()
				if err != nil {
					return err
				}
				defer l.Close()
				ledger = l
			}

			runner, err := pipeline.NewRunner(corruptor, ledger, opts)
			if err != nil {
				return err
			}

			runCtx, stop := signalContext(cmd)
			defer stop()

			summary, err := runner.Run(runCtx)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, summary)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRunSummary(summary))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Directory of clean images")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for corrupted images")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Base seed; batch i uses (seed, i)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent batches")
	cmd.Flags().IntVarP(&batchSize, "batch-size", "b", 0, "Images sharing one corruption plan")
	cmd.Flags().StringVar(&format, "format", "", "Output format (png or jpg)")
	cmd.Flags().BoolVar(&noEntropy, "no-entropy", false, "Do not append to entropy.jsonl")
	cmd.Flags().BoolVar(&noResume, "no-resume", false, "Ignore and do not update the progress ledger")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run summary as JSON")
	return cmd
}

func renderRunSummary(s pipeline.Summary) string {
	rows := [][]string{
		{"Run", s.RunID},
		{"Found", strconv.Itoa(s.Found)},
		{"Skipped", strconv.Itoa(s.Skipped)},
		{"Processed", strconv.Itoa(s.Processed)},
		{"Failed", strconv.Itoa(s.Failed)},
		{"Batches", strconv.Itoa(s.Batches)},
		{"Duration", s.Duration.Round(1e6).String()},
	}
	return renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}
