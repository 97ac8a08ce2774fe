package quality

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/degrade/corrupt"
	"github.com/RyanBlaney/degrade/raster"
)

func checkerboard(h, w, c int) *raster.Image {
	m := raster.New(h, w, c)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 0.2
			if (x+y)%2 == 0 {
				v = 0.8
			}
			for ch := 0; ch < c; ch++ {
				m.Set(y, x, ch, v)
			}
		}
	}
	return m
}

func TestCompareIdentical(t *testing.T) {
	img := checkerboard(8, 8, 3)
	report, err := Compare(img, img.Clone())
	require.NoError(t, err)

	assert.Equal(t, 0.0, report.MSE)
	assert.True(t, math.IsInf(report.PSNR, 1))
	assert.Equal(t, "identical", report.Severity)
	assert.Equal(t, report.SharpnessRef, report.SharpnessDeg)
	assert.Equal(t, 1.0, report.SharpnessRatio())
	assert.Equal(t, report.EntropyRef, report.EntropyDeg)
}

func TestCompareShapeMismatch(t *testing.T) {
	_, err := Compare(raster.New(4, 4, 3), raster.New(4, 5, 3))
	require.Error(t, err)

	_, err = Compare(nil, raster.New(4, 4, 3))
	require.Error(t, err)
}

func noisy(h, w int, seed uint64) *raster.Image {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	m := raster.New(h, w, 1)
	for i := range m.Pix {
		m.Pix[i] = rng.Float64()
	}
	return m
}

func TestBlurLowersSharpness(t *testing.T) {
	ref := noisy(16, 16, 21)

	c, err := corrupt.New(corrupt.Config{BlurScale: 1, FixedCorruptions: []string{"gaussian_blur"}})
	require.NoError(t, err)

	// find a seed whose strength draw gives a visible blur
	var deg *raster.Image
	for seed := uint64(0); seed < 200 && deg == nil; seed++ {
		candidate := ref.Clone()
		_, entropy, err := c.CorruptWithEntropy(rand.New(rand.NewPCG(seed, 7)), []*raster.Image{candidate})
		require.NoError(t, err)
		require.Len(t, entropy, 1)
		if entropy[0] > 0.4 {
			deg = candidate
		}
	}
	require.NotNil(t, deg)

	report, err := Compare(ref, deg)
	require.NoError(t, err)
	assert.Less(t, report.SharpnessDeg, report.SharpnessRef)
	assert.Less(t, report.SharpnessRatio(), 1.0)
	assert.Greater(t, report.MSE, 0.0)
	assert.NotEqual(t, "identical", report.Severity)
}

func TestCheckerboardIsAllDetail(t *testing.T) {
	report, err := Compare(checkerboard(8, 8, 3), checkerboard(8, 8, 3))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, report.SharpnessRef, 1e-9)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "identical", classify(math.Inf(1)))
	assert.Equal(t, "mild", classify(40))
	assert.Equal(t, "moderate", classify(30))
	assert.Equal(t, "severe", classify(12))
}

func TestLuma(t *testing.T) {
	m := raster.New(1, 2, 3)
	copy(m.Pix, []float64{1, 0, 0, 0, 0, 1})
	l := Luma(m)
	assert.InDelta(t, 0.299, l[0], 1e-12)
	assert.InDelta(t, 0.114, l[1], 1e-12)

	g := raster.New(1, 2, 1)
	g.Pix[1] = 0.5
	assert.Equal(t, []float64{0, 0.5}, Luma(g))
}
