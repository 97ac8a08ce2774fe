package main

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/degrade/corrupt"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var (
		seed  uint64
		count int
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the configured corruptions and the plans the first batches receive",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = cfg.Run.Seed
			}
			if count < 0 {
				return fmt.Errorf("count must not be negative, got %d", count)
			}

			corruptor, err := corrupt.New(cfg.Corruption)
			if err != nil {
				return fmt.Errorf("configure corruptions: %w", err)
			}

			out := cmd.OutOrStdout()
			rows, err := corruptionRows(corruptor.Config())
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No corruptions configured; images are copied unchanged.")
			} else {
				fmt.Fprintln(out, renderTable([]string{"Source", "Identifier", "Kind", "Detail"}, rows, nil))
			}

			if corruptor.IsIdentity() || count == 0 {
				return nil
			}

			planRows := make([][]string, 0, count)
			for i := range count {
				plan := corruptor.Plan(rand.New(rand.NewPCG(seed, uint64(i))))
				planRows = append(planRows, []string{
					strconv.Itoa(i),
					strings.Join(plan.Tags(), " → "),
					suppressedList(plan),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Batch", "Sequence", "Skipped"}, planRows, []columnAlignment{alignRight}))
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "Base seed (defaults to run.seed)")
	cmd.Flags().IntVarP(&count, "count", "n", 5, "Number of batch plans to sample")
	return cmd
}

func corruptionRows(cfg corrupt.Config) ([][]string, error) {
	var rows [][]string
	if cfg.NumRandomCorruptions > 0 {
		pool, err := corrupt.ParseCorruptions(cfg.RandomCorruptions)
		if err != nil {
			return nil, err
		}
		for _, c := range pool {
			rows = append(rows, []string{fmt.Sprintf("random ×%d", cfg.NumRandomCorruptions), c.Tag, c.Kind.String(), corruptionDetail(c)})
		}
	}
	fixed, err := corrupt.ParseCorruptions(cfg.FixedCorruptions)
	if err != nil {
		return nil, err
	}
	for _, c := range fixed {
		rows = append(rows, []string{"fixed", c.Tag, c.Kind.String(), corruptionDetail(c)})
	}
	return rows, nil
}

func corruptionDetail(c corrupt.Corruption) string {
	switch c.Kind {
	case corrupt.JPEG:
		return fmt.Sprintf("quality %d–%d", c.JPEG.Lo, c.JPEG.Lo+c.JPEG.Range)
	case corrupt.LQResampling:
		return fmt.Sprintf("scale %d", c.Scale)
	case corrupt.Noise:
		if c.FixedIntensity > 0 {
			return fmt.Sprintf("sigma %.4f", c.FixedIntensity)
		}
		return "sigma 2–6 /255"
	}
	if c.Kind.Reserved() || c.Kind == corrupt.None {
		return "no-op"
	}
	return ""
}

func suppressedList(p corrupt.Plan) string {
	var names []string
	for _, s := range p.Steps {
		if s.Suppressed {
			names = append(names, s.Tag)
		}
	}
	return strings.Join(names, ", ")
}
