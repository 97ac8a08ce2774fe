package filters

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MotionKernel builds a size x size linear motion-blur kernel: a horizontal
// line of ones through row (size-1)/2, rotated by angleDeg degrees
// (counter-clockwise on screen) about ((size/2)-0.5, (size/2)-0.5) with
// bilinear sampling, then normalised to sum to one.
//
// A kernel whose rotated line falls entirely outside the grid degenerates
// to the identity.
func MotionKernel(size int, angleDeg float64) []float64 {
	if size <= 1 {
		return []float64{1}
	}

	line := make([]float64, size*size)
	mid := (size - 1) / 2
	for x := 0; x < size; x++ {
		line[mid*size+x] = 1
	}

	kernel := rotate(line, size, angleDeg)

	sum := floats.Sum(kernel)
	if sum <= 1e-12 {
		identity := make([]float64, size*size)
		identity[(size/2)*size+size/2] = 1
		return identity
	}
	floats.Scale(1/sum, kernel)
	return kernel
}

// rotate samples src through the inverse of a rotation about the grid
// centre. Samples that fall outside contribute zero.
func rotate(src []float64, size int, angleDeg float64) []float64 {
	theta := angleDeg * math.Pi / 180
	alpha, beta := math.Cos(theta), math.Sin(theta)
	c := float64(size)/2 - 0.5

	at := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= size || y >= size {
			return 0
		}
		return src[y*size+x]
	}

	dst := make([]float64, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			sx := alpha*dx - beta*dy + c
			sy := beta*dx + alpha*dy + c

			x0, y0 := int(math.Floor(sx)), int(math.Floor(sy))
			fx, fy := sx-float64(x0), sy-float64(y0)

			dst[y*size+x] = (1-fy)*((1-fx)*at(x0, y0)+fx*at(x0+1, y0)) +
				fy*((1-fx)*at(x0, y0+1)+fx*at(x0+1, y0+1))
		}
	}
	return dst
}
