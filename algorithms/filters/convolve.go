package filters

// Reflect101 maps an out-of-range index back into [0, n) by mirroring
// around the edge samples without repeating them (dcb|abcd|cba).
func Reflect101(i, n int) int {
	if n <= 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// Correlate2D slides a kh x kw kernel over an h x w plane and returns the
// weighted sums. The kernel is not flipped, and its anchor sits at
// (kh/2, kw/2). Pixels outside the plane are read with Reflect101.
func Correlate2D(plane []float64, h, w int, kernel []float64, kh, kw int) []float64 {
	out := make([]float64, h*w)
	if len(plane) != h*w || len(kernel) != kh*kw {
		return out
	}

	ay, ax := kh/2, kw/2

	// precompute mirrored column indices per kernel column
	cols := make([][]int, kw)
	for j := 0; j < kw; j++ {
		cols[j] = make([]int, w)
		for x := 0; x < w; x++ {
			cols[j][x] = Reflect101(x+j-ax, w)
		}
	}

	for y := 0; y < h; y++ {
		for i := 0; i < kh; i++ {
			row := plane[Reflect101(y+i-ay, h)*w:]
			krow := kernel[i*kw : (i+1)*kw]
			for j, k := range krow {
				if k == 0 {
					continue
				}
				idx := cols[j]
				dst := out[y*w : (y+1)*w]
				for x := range dst {
					dst[x] += k * row[idx[x]]
				}
			}
		}
	}
	return out
}

// SeparableFilter applies kx along rows and then ky along columns. Both
// kernels are anchored at their centre and use Reflect101 borders.
func SeparableFilter(plane []float64, h, w int, kx, ky []float64) []float64 {
	if len(plane) != h*w {
		return make([]float64, h*w)
	}

	tmp := make([]float64, h*w)
	ax := len(kx) / 2
	for y := 0; y < h; y++ {
		row := plane[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			v := 0.0
			for j, k := range kx {
				v += k * row[Reflect101(x+j-ax, w)]
			}
			tmp[y*w+x] = v
		}
	}

	out := make([]float64, h*w)
	ay := len(ky) / 2
	for y := 0; y < h; y++ {
		for i, k := range ky {
			src := tmp[Reflect101(y+i-ay, h)*w:]
			for x := 0; x < w; x++ {
				out[y*w+x] += k * src[x]
			}
		}
	}
	return out
}
