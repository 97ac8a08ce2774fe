package windowing

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Gaussian represents a normalised 1-D Gaussian smoothing kernel
type Gaussian struct {
	size         int
	sigma        float64
	coefficients []float64
}

// GaussianSize returns the kernel length OpenCV picks for floating point
// images when only sigma is given: round(8*sigma+1), forced odd.
func GaussianSize(sigma float64) int {
	if sigma <= 0 {
		return 1
	}
	return int(math.Round(sigma*8+1)) | 1
}

// NewGaussian creates a kernel sized by GaussianSize.
func NewGaussian(sigma float64) *Gaussian {
	return NewGaussianWithSize(GaussianSize(sigma), sigma)
}

// NewGaussianWithSize creates a kernel with an explicit length.
func NewGaussianWithSize(size int, sigma float64) *Gaussian {
	if size < 1 {
		size = 1
	}
	g := &Gaussian{
		size:  size,
		sigma: sigma,
	}
	g.generate()
	return g
}

func (g *Gaussian) generate() {
	g.coefficients = make([]float64, g.size)
	if g.sigma <= 0 || g.size == 1 {
		g.coefficients[g.size/2] = 1
		return
	}

	center := float64(g.size-1) / 2
	denom := 2 * g.sigma * g.sigma
	for i := range g.size {
		d := float64(i) - center
		g.coefficients[i] = math.Exp(-d * d / denom)
	}
	floats.Scale(1/floats.Sum(g.coefficients), g.coefficients)
}

// GetCoefficients returns a copy of the kernel coefficients
func (g *Gaussian) GetCoefficients() []float64 {
	coeffs := make([]float64, len(g.coefficients))
	copy(coeffs, g.coefficients)
	return coeffs
}

// GetSize returns the kernel size
func (g *Gaussian) GetSize() int {
	return g.size
}

// GetType returns the window type
func (g *Gaussian) GetType() string {
	return "gaussian"
}
