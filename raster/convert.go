package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// FromImage converts src to a float image with the requested channel count:
// 1 (luma), 3 (RGB) or 4 (RGBA, non-premultiplied).
func FromImage(src image.Image, channels int) (*Image, error) {
	if src == nil {
		return nil, fmt.Errorf("nil source image")
	}

	b := src.Bounds()
	h, w := b.Dy(), b.Dx()
	if h == 0 || w == 0 {
		return nil, fmt.Errorf("empty source image")
	}

	switch channels {
	case 1:
		out := New(h, w, 1)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := color.GrayModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				out.Pix[y*w+x] = float64(g.Y) / 255.0
			}
		}
		return out, nil
	case 3, 4:
		// imaging.Clone normalises any source into tightly packed NRGBA
		nrgba := imaging.Clone(src)
		out := New(h, w, channels)
		for i := 0; i < h*w; i++ {
			for c := 0; c < channels; c++ {
				out.Pix[i*channels+c] = float64(nrgba.Pix[i*4+c]) / 255.0
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}
}

// quantize maps a [0,1] value to uint8, clamping first and then truncating
// v*255. The small bias keeps k/255 inputs from landing on k-1.
func quantize(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 1e-7)
}

// ToImage converts m to an 8-bit image: *image.Gray for one channel,
// *image.NRGBA otherwise (alpha 255 for three channels).
func (m *Image) ToImage() (image.Image, error) {
	rect := image.Rect(0, 0, m.Width, m.Height)
	switch m.Channels {
	case 1:
		g := image.NewGray(rect)
		for i, v := range m.Pix {
			g.Pix[i] = quantize(v)
		}
		return g, nil
	case 3, 4:
		n := image.NewNRGBA(rect)
		for i := 0; i < m.Height*m.Width; i++ {
			n.Pix[i*4+3] = 255
			for c := 0; c < m.Channels; c++ {
				n.Pix[i*4+c] = quantize(m.Pix[i*m.Channels+c])
			}
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unsupported channel count %d", m.Channels)
	}
}

// JPEGRoundTrip encodes m as a JPEG at the given quality (clamped to
// [1,100]), decodes the result and writes the decoded pixels back into m.
// Everything happens in memory.
func JPEGRoundTrip(m *Image, quality int) error {
	encoded, err := EncodeJPEG(m, quality)
	if err != nil {
		return err
	}

	decoded, err := Decode(encoded, m.Channels)
	if err != nil {
		return fmt.Errorf("decode jpeg buffer: %w", err)
	}
	if !decoded.SameShape(m) {
		return fmt.Errorf("jpeg round trip changed shape: %s -> %s", m, decoded)
	}

	if m.Channels != 4 {
		copy(m.Pix, decoded.Pix)
		return nil
	}
	// JPEG has no alpha; keep the original channel.
	for i := 0; i < len(m.Pix); i += 4 {
		copy(m.Pix[i:i+3], decoded.Pix[i:i+3])
	}
	return nil
}

// EncodeJPEG returns the JPEG encoding of m.
func EncodeJPEG(m *Image, quality int) ([]byte, error) {
	quality = max(1, min(100, quality))

	src, err := m.ToImage()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads an encoded image from a byte buffer into a normalised float
// image with the requested channel count.
func Decode(data []byte, channels int) (*Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return FromImage(img, channels)
}
