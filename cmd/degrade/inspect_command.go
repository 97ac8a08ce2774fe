package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/degrade/quality"
	"github.com/RyanBlaney/degrade/raster"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var (
		channels int
		cutoff   float64
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <reference> <degraded>",
		Short: "Measure how far a degraded image has drifted from its reference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("channels") {
				channels = cfg.Run.Channels
			}

			ref, err := raster.Load(args[0], channels)
			if err != nil {
				return fmt.Errorf("load reference: %w", err)
			}
			deg, err := raster.Load(args[1], channels)
			if err != nil {
				return fmt.Errorf("load degraded: %w", err)
			}

			report, err := quality.NewComparator(cutoff).Compare(ref, deg)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, newReportJSON(report))
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
			return nil
		},
	}

	cmd.Flags().IntVar(&channels, "channels", 3, "Channels to load (1, 3 or 4)")
	cmd.Flags().Float64Var(&cutoff, "cutoff", quality.DefaultCutoff, "High-frequency cutoff as a fraction of Nyquist")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")
	return cmd
}

func renderReport(r *quality.Report) string {
	psnr := "∞"
	if !math.IsInf(r.PSNR, 1) {
		psnr = fmt.Sprintf("%.2f dB", r.PSNR)
	}
	rows := [][]string{
		{"MSE", fmt.Sprintf("%.6f", r.MSE)},
		{"PSNR", psnr},
		{"Sharpness (ref)", fmt.Sprintf("%.4f", r.SharpnessRef)},
		{"Sharpness (degraded)", fmt.Sprintf("%.4f", r.SharpnessDeg)},
		{"Sharpness ratio", fmt.Sprintf("%.3f", r.SharpnessRatio())},
		{"Entropy (ref)", fmt.Sprintf("%.3f bits", r.EntropyRef)},
		{"Entropy (degraded)", fmt.Sprintf("%.3f bits", r.EntropyDeg)},
		{"Severity", r.Severity},
	}
	return renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}

// reportJSON mirrors quality.Report with PSNR null for identical images,
// which encoding/json cannot represent as +Inf.
type reportJSON struct {
	MSE            float64  `json:"mse"`
	PSNR           *float64 `json:"psnr_db"`
	SharpnessRef   float64  `json:"sharpness_ref"`
	SharpnessDeg   float64  `json:"sharpness_deg"`
	SharpnessRatio float64  `json:"sharpness_ratio"`
	EntropyRef     float64  `json:"entropy_ref_bits"`
	EntropyDeg     float64  `json:"entropy_deg_bits"`
	Severity       string   `json:"severity"`
}

func newReportJSON(r *quality.Report) reportJSON {
	out := reportJSON{
		MSE:            r.MSE,
		SharpnessRef:   r.SharpnessRef,
		SharpnessDeg:   r.SharpnessDeg,
		SharpnessRatio: r.SharpnessRatio(),
		EntropyRef:     r.EntropyRef,
		EntropyDeg:     r.EntropyDeg,
		Severity:       r.Severity,
	}
	if !math.IsInf(r.PSNR, 0) {
		psnr := r.PSNR
		out.PSNR = &psnr
	}
	if math.IsInf(out.SharpnessRatio, 0) {
		out.SharpnessRatio = 0
	}
	return out
}
