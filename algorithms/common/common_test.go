package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolatorWeightsSumToOne(t *testing.T) {
	for _, m := range []InterpolationType{Linear, Cubic, Lanczos} {
		interp := NewInterpolator(m)
		for _, ts := range interp.taps(10, 37) {
			sum := 0.0
			for _, w := range ts.weight {
				sum += w
			}
			assert.InDelta(t, 1.0, sum, 1e-9, m.String())
		}
	}
}

func TestResampleConstantStaysConstant(t *testing.T) {
	plane := make([]float64, 6*8)
	for i := range plane {
		plane[i] = 0.3
	}
	for _, m := range []InterpolationType{Nearest, Linear, Cubic, Lanczos} {
		out := NewInterpolator(m).Resample2D(plane, 6, 8, 12, 16)
		require.Len(t, out, 12*16)
		for _, v := range out {
			assert.InDelta(t, 0.3, v, 1e-9, m.String())
		}
	}
}

func TestNearestDownsamplePicksEveryOther(t *testing.T) {
	data := []float64{0, 1, 2, 3, 4, 5}
	out := NewInterpolator(Nearest).Resample(data, 3)
	assert.Equal(t, []float64{0, 2, 4}, out)
}

func TestNearestUpsampleRepeats(t *testing.T) {
	out := NewInterpolator(Nearest).Resample([]float64{1, 2}, 4)
	assert.Equal(t, []float64{1, 1, 2, 2}, out)
}

func TestLinearUpsampleUsesPixelCentres(t *testing.T) {
	out := NewInterpolator(Linear).Resample([]float64{0, 1}, 4)
	// centres at -0.25, 0.25, 0.75, 1.25 with replicated borders
	assert.InDeltaSlice(t, []float64{0, 0.25, 0.75, 1}, out, 1e-12)
}

func TestResample2DShape(t *testing.T) {
	out := NewInterpolator(Cubic).Resample2D(make([]float64, 4*6), 4, 6, 8, 12)
	assert.Len(t, out, 96)
	assert.Empty(t, NewInterpolator(Cubic).Resample2D(make([]float64, 5), 4, 6, 8, 12))
}

func TestPSNR(t *testing.T) {
	a := []float64{0, 0.5, 1}
	assert.True(t, math.IsInf(PSNR(a, a, 1), 1))

	b := []float64{0.1, 0.5, 1}
	mse := 0.01 / 3
	assert.InDelta(t, mse, MSE(a, b), 1e-12)
	assert.InDelta(t, 10*math.Log10(1/mse), PSNR(a, b, 1), 1e-9)
}

func TestStatsHelpers(t *testing.T) {
	data := []float64{1, 2, 3, 4}
	assert.InDelta(t, 2.5, Mean(data), 1e-12)
	assert.InDelta(t, 5.0/3.0, Variance(data), 1e-12)
	lo, hi := MinMax(data)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 4.0, hi)
	assert.Equal(t, 0.0, Variance([]float64{7}))
	assert.Equal(t, 1.0, Clamp(3, 0, 1))
}
