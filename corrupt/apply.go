package corrupt

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/RyanBlaney/degrade/algorithms/common"
	"github.com/RyanBlaney/degrade/algorithms/filters"
	"github.com/RyanBlaney/degrade/algorithms/windowing"
	"github.com/RyanBlaney/degrade/raster"
)

// resampleModes is indexed by the interpolation draw.
var resampleModes = [...]common.InterpolationType{
	common.Nearest,
	common.Cubic,
	common.Linear,
	common.Lanczos,
}

// apply runs one corruption on img with strength r. Only JPEG can fail.
func (c *Corruptor) apply(rng *rand.Rand, img *raster.Image, cr Corruption, r float64) error {
	switch cr.Kind {
	case ColorQuantization:
		quantizeColors(img, r)
	case GaussianBlur:
		gaussianBlur(img, r*1.5)
	case MotionBlur:
		size := int(math.Floor(c.config.BlurScale*r*3)) + 1
		angle := rng.IntN(360)
		motionBlur(img, size, float64(angle))
	case LQResampling:
		mode := resampleModes[rng.IntN(len(resampleModes))]
		lowQualityResample(img, cr.Scale, mode)
	case Noise:
		intensity := cr.FixedIntensity
		if intensity == 0 {
			intensity = (r*4 + 2) / 255
		}
		addNoise(rng, img, intensity)
	case JPEG:
		return raster.JPEGRoundTrip(img, cr.JPEG.Quality(r))
	case Saturation:
		saturate(img, r*0.3)
	}
	return nil
}

func quantizeColors(img *raster.Image, r float64) {
	div := math.Exp2(math.Floor(r*10/3) + 2)
	for i, v := range img.Pix {
		img.Pix[i] = math.Floor(v*255/div) * div / 255
	}
}

func gaussianBlur(img *raster.Image, sigma float64) {
	if sigma <= 0 {
		return
	}
	kernel := windowing.NewGaussian(sigma).GetCoefficients()
	for ch := 0; ch < img.Channels; ch++ {
		img.SetPlane(ch, filters.SeparableFilter(img.Plane(ch), img.Height, img.Width, kernel, kernel))
	}
}

func motionBlur(img *raster.Image, size int, angle float64) {
	if size <= 1 {
		return
	}
	kernel := filters.MotionKernel(size, angle)
	for ch := 0; ch < img.Channels; ch++ {
		img.SetPlane(ch, filters.Correlate2D(img.Plane(ch), img.Height, img.Width, kernel, size, size))
	}
}

// lowQualityResample shrinks img by scale with nearest neighbour sampling and
// then grows it back to its original size with mode.
// The result is always H×W, also when H or W is not a multiple of scale.
func lowQualityResample(img *raster.Image, scale int, mode common.InterpolationType) {
	h, w := img.Height, img.Width
	sh, sw := max(1, h/scale), max(1, w/scale)

	down := common.NewInterpolator(common.Nearest)
	up := common.NewInterpolator(mode)
	for ch := 0; ch < img.Channels; ch++ {
		small := down.Resample2D(img.Plane(ch), h, w, sh, sw)
		img.SetPlane(ch, up.Resample2D(small, sh, sw, h, w))
	}
}

func addNoise(rng *rand.Rand, img *raster.Image, intensity float64) {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	for i := range img.Pix {
		img.Pix[i] += normal.Rand() * intensity
	}
}

func saturate(img *raster.Image, offset float64) {
	for i, v := range img.Pix {
		img.Pix[i] = common.Clamp(v+offset, 0, 1)
	}
}
