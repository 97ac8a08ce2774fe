package common

import (
	"math"
)

// InterpolationType defines interpolation method
type InterpolationType int

const (
	Nearest InterpolationType = iota
	Linear
	Cubic
	Lanczos
)

func (t InterpolationType) String() string {
	switch t {
	case Nearest:
		return "nearest"
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	case Lanczos:
		return "lanczos"
	default:
		return "unknown"
	}
}

const (
	// cubicA matches the bicubic coefficient used by OpenCV.
	cubicA = -0.75
	// lanczosA gives the 8-tap Lanczos window.
	lanczosA = 4.0
)

// Interpolator resamples sampled data with one of the supported kernels.
//
// Sample positions use pixel-centre alignment: destination index d maps to
// source coordinate (d+0.5)*scale-0.5. Reads past either edge replicate the
// border sample.
type Interpolator struct {
	method InterpolationType
}

// NewInterpolator creates a new interpolator
func NewInterpolator(method InterpolationType) *Interpolator {
	return &Interpolator{
		method: method,
	}
}

// Support is the kernel radius in source samples.
func (interp *Interpolator) Support() int {
	switch interp.method {
	case Linear:
		return 1
	case Cubic:
		return 2
	case Lanczos:
		return int(lanczosA)
	default:
		return 0
	}
}

// Weight evaluates the kernel at distance x.
func (interp *Interpolator) Weight(x float64) float64 {
	switch interp.method {
	case Linear:
		ax := math.Abs(x)
		if ax >= 1 {
			return 0
		}
		return 1 - ax
	case Cubic:
		return cubicKernel(x, cubicA)
	case Lanczos:
		return lanczosKernel(x, lanczosA)
	default:
		if math.Abs(x) < 0.5 {
			return 1
		}
		return 0
	}
}

func cubicKernel(x, a float64) float64 {
	ax := math.Abs(x)
	switch {
	case ax <= 1:
		return ((a+2)*ax-(a+3))*ax*ax + 1
	case ax < 2:
		return ((a*ax-5*a)*ax+8*a)*ax - 4*a
	default:
		return 0
	}
}

// lanczosKernel computes Lanczos kernel function
func lanczosKernel(x, a float64) float64 {
	if math.Abs(x) < 1e-10 {
		return 1.0
	}
	if math.Abs(x) >= a {
		return 0.0
	}

	px := math.Pi * x
	return (a * math.Sin(px) * math.Sin(px/a)) / (px * px)
}

// tapSet holds the source indices and weights that produce one output sample.
type tapSet struct {
	index  []int
	weight []float64
}

// taps precomputes, for every output position, which input samples
// contribute and with what weight.
func (interp *Interpolator) taps(srcLen, dstLen int) []tapSet {
	scale := float64(srcLen) / float64(dstLen)
	out := make([]tapSet, dstLen)

	if interp.method == Nearest {
		for d := range out {
			s := min(int(math.Floor(float64(d)*scale)), srcLen-1)
			out[d] = tapSet{index: []int{s}, weight: []float64{1}}
		}
		return out
	}

	support := interp.Support()
	for d := range out {
		center := (float64(d)+0.5)*scale - 0.5
		base := int(math.Floor(center))

		ts := tapSet{
			index:  make([]int, 0, 2*support),
			weight: make([]float64, 0, 2*support),
		}
		sum := 0.0
		for j := base - support + 1; j <= base+support; j++ {
			w := interp.Weight(center - float64(j))
			if w == 0 {
				continue
			}
			ts.index = append(ts.index, min(max(j, 0), srcLen-1))
			ts.weight = append(ts.weight, w)
			sum += w
		}
		if sum != 0 && math.Abs(sum-1) > 1e-12 {
			for i := range ts.weight {
				ts.weight[i] /= sum
			}
		}
		out[d] = ts
	}
	return out
}

// Resample maps data onto newLength samples.
func (interp *Interpolator) Resample(data []float64, newLength int) []float64 {
	if len(data) == 0 || newLength <= 0 {
		return []float64{}
	}

	if newLength == len(data) {
		result := make([]float64, len(data))
		copy(result, data)
		return result
	}

	result := make([]float64, newLength)
	for d, ts := range interp.taps(len(data), newLength) {
		v := 0.0
		for i, idx := range ts.index {
			v += data[idx] * ts.weight[i]
		}
		result[d] = v
	}
	return result
}

// Resample2D resizes a row-major h x w plane to nh x nw, filtering rows
// first and then columns.
func (interp *Interpolator) Resample2D(plane []float64, h, w, nh, nw int) []float64 {
	if len(plane) != h*w || nh <= 0 || nw <= 0 {
		return []float64{}
	}

	horizontal := make([]float64, h*nw)
	if nw == w {
		copy(horizontal, plane)
	} else {
		xTaps := interp.taps(w, nw)
		for y := 0; y < h; y++ {
			row := plane[y*w : (y+1)*w]
			for x, ts := range xTaps {
				v := 0.0
				for i, idx := range ts.index {
					v += row[idx] * ts.weight[i]
				}
				horizontal[y*nw+x] = v
			}
		}
	}

	if nh == h {
		return horizontal
	}

	out := make([]float64, nh*nw)
	yTaps := interp.taps(h, nh)
	for y, ts := range yTaps {
		for x := 0; x < nw; x++ {
			v := 0.0
			for i, idx := range ts.index {
				v += horizontal[idx*nw+x] * ts.weight[i]
			}
			out[y*nw+x] = v
		}
	}
	return out
}
