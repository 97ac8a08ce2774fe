package windowing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
)

func TestGaussianSize(t *testing.T) {
	assert.Equal(t, 1, GaussianSize(0))
	assert.Equal(t, 5, GaussianSize(0.5))
	assert.Equal(t, 9, GaussianSize(1))
	assert.Equal(t, 13, GaussianSize(1.5))
}

func TestGaussianIsSymmetricAndNormalised(t *testing.T) {
	g := NewGaussian(1.2)
	c := g.GetCoefficients()

	assert.Equal(t, g.GetSize(), len(c))
	assert.InDelta(t, 1.0, floats.Sum(c), 1e-12)
	for i := range c {
		assert.InDelta(t, c[i], c[len(c)-1-i], 1e-15)
	}
	assert.Equal(t, floats.MaxIdx(c), len(c)/2)
}

func TestGaussianZeroSigmaIsIdentity(t *testing.T) {
	g := NewGaussianWithSize(3, 0)
	assert.Equal(t, []float64{0, 1, 0}, g.GetCoefficients())
	assert.Equal(t, "gaussian", g.GetType())
}
