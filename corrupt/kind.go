package corrupt

import (
	"strings"
)

// Kind selects one corruption family.
type Kind int

const (
	ColorQuantization Kind = iota
	GaussianBlur
	MotionBlur
	BlockNoise
	LQResampling
	ColorShift
	Interlacing
	ChromaticAberration
	JPEG
	Noise
	Saturation
	None
)

var kindNames = map[Kind]string{
	ColorQuantization:   "color_quantization",
	GaussianBlur:        "gaussian_blur",
	MotionBlur:          "motion_blur",
	BlockNoise:          "block_noise",
	LQResampling:        "lq_resampling",
	ColorShift:          "color_shift",
	Interlacing:         "interlacing",
	ChromaticAberration: "chromatic_aberration",
	JPEG:                "jpeg",
	Noise:               "noise",
	Saturation:          "saturation",
	None:                "none",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Reserved reports whether the kind is accepted but currently does nothing.
func (k Kind) Reserved() bool {
	switch k {
	case BlockNoise, ColorShift, Interlacing, ChromaticAberration:
		return true
	default:
		return false
	}
}

// dispatchOrder is the substring match order; the first hit wins. block_noise
// precedes noise so it is not mistaken for additive noise, and the jpeg
// family precedes noise.
var dispatchOrder = []Kind{
	ColorQuantization,
	GaussianBlur,
	MotionBlur,
	BlockNoise,
	LQResampling,
	ColorShift,
	Interlacing,
	ChromaticAberration,
	JPEG,
	Noise,
	Saturation,
}

// JPEGVariant holds the quality range of one jpeg identifier: quality is
// drawn from [Lo, Lo+Range].
type JPEGVariant struct {
	Name  string
	Lo    int
	Range int
}

// Quality maps a strength draw r in [0,1) onto a quality factor; stronger
// corruption means lower quality.
func (v JPEGVariant) Quality(r float64) int {
	return int((1-r)*float64(v.Range)) + v.Lo
}

var jpegVariants = map[string]JPEGVariant{
	"jpeg":        {Name: "jpeg", Lo: 10, Range: 20},
	"jpeg-low":    {Name: "jpeg-low", Lo: 15, Range: 10},
	"jpeg-medium": {Name: "jpeg-medium", Lo: 23, Range: 25},
	"jpeg-broad":  {Name: "jpeg-broad", Lo: 15, Range: 60},
	"jpeg-normal": {Name: "jpeg-normal", Lo: 47, Range: 35},
}

// Corruption is a resolved identifier: its kind plus whatever sub-parameters
// the identifier selected.
type Corruption struct {
	Tag  string
	Kind Kind

	// Scale is the resampling factor for LQResampling (2 or 4).
	Scale int

	// FixedIntensity, when non-zero, replaces the strength-derived noise
	// intensity.
	FixedIntensity float64

	// JPEG is set for the JPEG kind.
	JPEG JPEGVariant
}

// ParseCorruption resolves an identifier such as "jpeg-medium",
// "lq_resampling4x" or "noise-5".
func ParseCorruption(tag string) (Corruption, error) {
	for _, kind := range dispatchOrder {
		if !strings.Contains(tag, kind.String()) {
			continue
		}

		c := Corruption{Tag: tag, Kind: kind}
		switch kind {
		case LQResampling:
			c.Scale = 2
			if strings.Contains(tag, "lq_resampling4x") {
				c.Scale = 4
			}
		case Noise:
			if tag == "noise-5" {
				c.FixedIntensity = 5 / 255.0
			}
		case JPEG:
			variant, ok := jpegVariants[tag]
			if !ok {
				return Corruption{}, &UnsupportedJpegVariantError{Tag: tag}
			}
			c.JPEG = variant
		}
		return c, nil
	}

	if strings.Contains(tag, "none") {
		return Corruption{Tag: tag, Kind: None}, nil
	}
	return Corruption{}, &UnsupportedCorruptionError{Tag: tag}
}

// ParseCorruptions resolves a list of identifiers, stopping at the first error.
func ParseCorruptions(tags []string) ([]Corruption, error) {
	out := make([]Corruption, 0, len(tags))
	for _, tag := range tags {
		c, err := ParseCorruption(tag)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
