package spectral

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT2 computes the 2-D discrete Fourier transform of a row-major h x w plane
// using mjibson/go-dsp, which handles non-power-of-2 sizes.
func FFT2(plane []float64, h, w int) [][]complex128 {
	if h <= 0 || w <= 0 || len(plane) != h*w {
		return [][]complex128{}
	}

	rows := make([][]float64, h)
	for y := range rows {
		rows[y] = plane[y*w : (y+1)*w]
	}
	return fft.FFT2Real(rows)
}

// frequency returns the signed normalised frequency of bin k out of n, in
// cycles per sample.
func frequency(k, n int) float64 {
	if k > n/2 {
		k -= n
	}
	return float64(k) / float64(n)
}

// HighFrequencyRatio is the share of non-DC spectral energy whose radial
// frequency exceeds cutoff, where 1 is the Nyquist frequency along an axis.
// Blurring drives it toward 0; noise and blocking raise it. A flat plane
// returns 0.
func HighFrequencyRatio(plane []float64, h, w int, cutoff float64) float64 {
	spectrum := FFT2(plane, h, w)
	if len(spectrum) == 0 {
		return 0
	}

	total, high := 0.0, 0.0
	for y, row := range spectrum {
		fy := frequency(y, h) * 2
		for x, v := range row {
			if x == 0 && y == 0 {
				continue
			}
			fx := frequency(x, w) * 2
			mag := cmplx.Abs(v)
			e := mag * mag
			total += e
			if math.Hypot(fx, fy) > cutoff {
				high += e
			}
		}
	}

	if total < 1e-18 {
		return 0
	}
	return high / total
}
