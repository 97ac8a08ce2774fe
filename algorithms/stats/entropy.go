package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram bins values from [0,1] into `bins` equal-width buckets and
// returns the normalised probability mass. Values outside the range land in
// the edge buckets.
func Histogram(values []float64, bins int) []float64 {
	if bins <= 0 {
		return []float64{}
	}

	hist := make([]float64, bins)
	if len(values) == 0 {
		return hist
	}

	for _, v := range values {
		idx := int(v * float64(bins))
		if idx < 0 {
			idx = 0
		} else if idx >= bins {
			idx = bins - 1
		}
		hist[idx]++
	}

	floats.Scale(1/float64(len(values)), hist)
	return hist
}

// ShannonEntropy returns the entropy in bits of the value histogram. An
// 8-bit image has at most 8 bits over 256 bins.
func ShannonEntropy(values []float64, bins int) float64 {
	hist := Histogram(values, bins)
	if len(hist) == 0 || len(values) == 0 {
		return 0
	}
	// gonum uses the natural log
	return stat.Entropy(hist) / math.Ln2
}

// DistinctLevels counts the distinct values in a slice.
func DistinctLevels(values []float64) int {
	seen := make(map[float64]struct{}, 256)
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
