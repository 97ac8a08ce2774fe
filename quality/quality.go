// Package quality measures how far a corrupted image has drifted from its
// source: pixel error, sharpness loss and histogram entropy.
package quality

import (
	"fmt"
	"math"
	"time"

	"github.com/RyanBlaney/degrade/algorithms/common"
	"github.com/RyanBlaney/degrade/algorithms/spectral"
	"github.com/RyanBlaney/degrade/algorithms/stats"
	"github.com/RyanBlaney/degrade/logging"
	"github.com/RyanBlaney/degrade/raster"
)

const (
	// DefaultCutoff is the radial frequency, relative to Nyquist, above which
	// spectral energy counts as detail.
	DefaultCutoff = 0.5

	entropyBins = 256
)

// Report holds the comparison between a reference and a degraded image.
type Report struct {
	MSE            float64       `json:"mse"`
	PSNR           float64       `json:"psnr_db"` // +Inf for identical images
	SharpnessRef   float64       `json:"sharpness_ref"`
	SharpnessDeg   float64       `json:"sharpness_deg"`
	EntropyRef     float64       `json:"entropy_ref_bits"`
	EntropyDeg     float64       `json:"entropy_deg_bits"`
	Severity       string        `json:"severity"` // 'identical', 'mild', 'moderate', 'severe'
	ProcessingTime time.Duration `json:"processing_time"`
}

// SharpnessRatio is SharpnessDeg relative to SharpnessRef. Values below 1
// mean detail was lost (blur, resampling), above 1 that it was added (noise,
// blocking).
func (r *Report) SharpnessRatio() float64 {
	if r.SharpnessRef == 0 {
		if r.SharpnessDeg == 0 {
			return 1
		}
		return math.Inf(1)
	}
	return r.SharpnessDeg / r.SharpnessRef
}

// Comparator computes Reports.
type Comparator struct {
	cutoff float64
	logger logging.Logger
}

// NewComparator creates a comparator. A non-positive cutoff selects
// DefaultCutoff.
func NewComparator(cutoff float64) *Comparator {
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}
	return &Comparator{
		cutoff: cutoff,
		logger: logging.WithFields(logging.Fields{
			"component": "quality_comparator",
		}),
	}
}

// Compare uses a comparator with the default cutoff.
func Compare(ref, deg *raster.Image) (*Report, error) {
	return NewComparator(DefaultCutoff).Compare(ref, deg)
}

// Compare measures deg against ref. Both images must have the same shape.
func (qc *Comparator) Compare(ref, deg *raster.Image) (*Report, error) {
	if ref == nil || deg == nil {
		return nil, fmt.Errorf("images cannot be nil")
	}
	if !ref.SameShape(deg) {
		return nil, fmt.Errorf("shape mismatch: %s vs %s", ref, deg)
	}

	startTime := time.Now()

	report := &Report{
		MSE:          common.MSE(ref.Pix, deg.Pix),
		PSNR:         common.PSNR(ref.Pix, deg.Pix, 1),
		SharpnessRef: spectral.HighFrequencyRatio(Luma(ref), ref.Height, ref.Width, qc.cutoff),
		SharpnessDeg: spectral.HighFrequencyRatio(Luma(deg), deg.Height, deg.Width, qc.cutoff),
		EntropyRef:   stats.ShannonEntropy(ref.Pix, entropyBins),
		EntropyDeg:   stats.ShannonEntropy(deg.Pix, entropyBins),
	}
	report.Severity = classify(report.PSNR)
	report.ProcessingTime = time.Since(startTime)

	qc.logger.Debug("Image comparison completed", logging.Fields{
		"shape":    ref.String(),
		"psnr":     report.PSNR,
		"severity": report.Severity,
	})

	return report, nil
}

// classify buckets PSNR the way people usually read it for 8-bit images.
func classify(psnr float64) string {
	switch {
	case math.IsInf(psnr, 1):
		return "identical"
	case psnr >= 35:
		return "mild"
	case psnr >= 25:
		return "moderate"
	default:
		return "severe"
	}
}

// Luma returns the Rec. 601 luma plane of m. Single-channel images are
// returned as a copy of their only plane; alpha is ignored.
func Luma(m *raster.Image) []float64 {
	if m.Channels < 3 {
		return m.Plane(0)
	}

	out := make([]float64, m.Height*m.Width)
	for i := range out {
		px := m.Pix[i*m.Channels:]
		out[i] = 0.299*px[0] + 0.587*px[1] + 0.114*px[2]
	}
	return out
}
