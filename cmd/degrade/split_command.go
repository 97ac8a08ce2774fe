package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/degrade/audiosplit"
	"github.com/RyanBlaney/degrade/progress"
	"github.com/RyanBlaney/degrade/transcode"
)

func newSplitAudioCommand(ctx *commandContext) *cobra.Command {
	var (
		inputDir       string
		outputDir      string
		clipSeconds    int
		workers        int
		importProgress string
	)

	cmd := &cobra.Command{
		Use:   "split-audio",
		Short: "Cut audio files into fixed-length clips, dropping clips with silent stretches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			opts := cfg.SplitOptions()
			flags := cmd.Flags()
			if flags.Changed("input") {
				opts.InputDir = inputDir
			}
			if flags.Changed("output") {
				opts.OutputDir = outputDir
			}
			if flags.Changed("duration") {
				opts.ClipSeconds = clipSeconds
			}
			if flags.Changed("workers") {
				opts.Workers = workers
			}

			ledger, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer ledger.Close()

			runCtx, stop := signalContext(cmd)
			defer stop()

			out := cmd.OutOrStdout()
			if importProgress != "" {
				f, err := os.Open(importProgress)
				if err != nil {
					return fmt.Errorf("open progress file: %w", err)
				}
				n, err := ledger.ImportLines(runCtx, progress.TaskSplitAudio, f)
				f.Close()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Imported %d entries from %s\n", n, importProgress)
			}

			decoder := transcode.NewDecoder(cfg.DecoderConfig())
			if err := decoder.CheckAvailability(runCtx); err != nil {
				return err
			}

			splitter, err := audiosplit.NewSplitter(decoder, ledger, opts)
			if err != nil {
				return err
			}

			summary, err := splitter.Run(runCtx)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Files", strconv.Itoa(summary.Files)},
				{"Skipped", strconv.Itoa(summary.Skipped)},
				{"Clips written", strconv.Itoa(summary.ClipsWritten)},
				{"Clips rejected", strconv.Itoa(summary.ClipsRejected)},
				{"Failed", strconv.Itoa(summary.Failed)},
				{"Duration", summary.Duration.Round(1e6).String()},
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Directory of audio files")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for WAV clips")
	cmd.Flags().IntVarP(&clipSeconds, "duration", "d", 0, "Clip length in seconds")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent files")
	cmd.Flags().StringVar(&importProgress, "import-progress", "", "Seed the ledger from a newline-separated list of processed files")
	return cmd
}
