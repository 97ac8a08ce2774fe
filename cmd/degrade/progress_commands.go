package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/degrade/progress"
)

var progressTasks = []string{progress.TaskCorrupt, progress.TaskSplitAudio}

func newProgressCommand(ctx *commandContext) *cobra.Command {
	progressCmd := &cobra.Command{
		Use:   "progress",
		Short: "Inspect or reset the resume ledger",
	}

	progressCmd.AddCommand(newProgressStatusCommand(ctx))
	progressCmd.AddCommand(newProgressListCommand(ctx))
	progressCmd.AddCommand(newProgressResetCommand(ctx))

	return progressCmd
}

func newProgressStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Count processed files per task",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer ledger.Close()

			rows := make([][]string, 0, len(progressTasks))
			for _, task := range progressTasks {
				entries, err := ledger.Entries(cmd.Context(), task)
				if err != nil {
					return err
				}
				var done, failed int
				for _, e := range entries {
					if e.Status == progress.StatusFailed {
						failed++
					} else {
						done++
					}
				}
				rows = append(rows, []string{task, strconv.Itoa(done), strconv.Itoa(failed)})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ledger: %s\n", ledger.Path())
			fmt.Fprintln(out, renderTable([]string{"Task", "Done", "Failed"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
			return nil
		},
	}
}

func newProgressListCommand(ctx *commandContext) *cobra.Command {
	var (
		task       string
		failedOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries for a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkTask(task); err != nil {
				return err
			}
			ledger, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer ledger.Close()

			entries, err := ledger.Entries(cmd.Context(), task)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				if failedOnly && e.Status != progress.StatusFailed {
					continue
				}
				rows = append(rows, []string{e.Path, string(e.Status), e.RunID, e.UpdatedAt.Format("2006-01-02 15:04:05")})
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No entries")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Path", "Status", "Run", "Updated"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVarP(&task, "task", "t", progress.TaskCorrupt, "Task to list (corrupt or split-audio)")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only show failed entries")
	return cmd
}

func newProgressResetCommand(ctx *commandContext) *cobra.Command {
	var task string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget processed files so the next run starts over",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkTask(task); err != nil {
				return err
			}
			ledger, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer ledger.Close()

			if err := ledger.Reset(cmd.Context(), task); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s progress\n", task)
			return nil
		},
	}

	cmd.Flags().StringVarP(&task, "task", "t", progress.TaskCorrupt, "Task to reset (corrupt or split-audio)")
	return cmd
}

func checkTask(task string) error {
	for _, t := range progressTasks {
		if t == task {
			return nil
		}
	}
	return fmt.Errorf("unknown task %q (want corrupt or split-audio)", task)
}
