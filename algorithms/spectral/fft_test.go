package spectral

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFFT2DCTerm(t *testing.T) {
	plane := []float64{1, 2, 3, 4, 5, 6}
	spec := FFT2(plane, 2, 3)
	require.Len(t, spec, 2)
	require.Len(t, spec[0], 3)
	assert.InDelta(t, 21.0, cmplx.Abs(spec[0][0]), 1e-9)
}

func TestFFT2RejectsBadShape(t *testing.T) {
	assert.Empty(t, FFT2([]float64{1, 2, 3}, 2, 2))
}

func TestHighFrequencyRatio(t *testing.T) {
	const n = 16
	flat := make([]float64, n*n)
	for i := range flat {
		flat[i] = 0.5
	}
	assert.Equal(t, 0.0, HighFrequencyRatio(flat, n, n, 0.5))

	checker := make([]float64, n*n)
	ramp := make([]float64, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			checker[y*n+x] = float64((x + y) % 2)
			ramp[y*n+x] = float64(x) / n
		}
	}

	assert.InDelta(t, 1.0, HighFrequencyRatio(checker, n, n, 0.5), 1e-9)
	assert.Less(t, HighFrequencyRatio(ramp, n, n, 0.5), HighFrequencyRatio(checker, n, n, 0.5))
}

func TestFrequency(t *testing.T) {
	assert.Equal(t, 0.0, frequency(0, 8))
	assert.Equal(t, 0.5, frequency(4, 8))
	assert.Equal(t, -0.125, frequency(7, 8))
}
