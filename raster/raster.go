// Package raster holds the floating point image representation the
// corruption algorithms operate on, plus conversions to and from the
// standard library image types.
//
// Pixels are stored row-major as height x width x channels, with values
// nominally in [0,1]. Nothing here validates the range: corruption steps such
// as additive noise are allowed to leave it.
package raster

import (
	"fmt"
)

// Image is an H x W x C float64 image.
type Image struct {
	Height   int
	Width    int
	Channels int
	Pix      []float64
}

// New allocates a zeroed image.
func New(height, width, channels int) *Image {
	return &Image{
		Height:   height,
		Width:    width,
		Channels: channels,
		Pix:      make([]float64, height*width*channels),
	}
}

// FromSlice wraps pix without copying. len(pix) must equal h*w*c.
func FromSlice(height, width, channels int, pix []float64) (*Image, error) {
	if height <= 0 || width <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid image shape %dx%dx%d", height, width, channels)
	}
	if len(pix) != height*width*channels {
		return nil, fmt.Errorf("pixel buffer has %d values, shape %dx%dx%d needs %d",
			len(pix), height, width, channels, height*width*channels)
	}
	return &Image{Height: height, Width: width, Channels: channels, Pix: pix}, nil
}

func (m *Image) offset(y, x, c int) int {
	return (y*m.Width+x)*m.Channels + c
}

// At returns the value at row y, column x, channel c.
func (m *Image) At(y, x, c int) float64 {
	return m.Pix[m.offset(y, x, c)]
}

// Set stores v at row y, column x, channel c.
func (m *Image) Set(y, x, c int, v float64) {
	m.Pix[m.offset(y, x, c)] = v
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	pix := make([]float64, len(m.Pix))
	copy(pix, m.Pix)
	return &Image{Height: m.Height, Width: m.Width, Channels: m.Channels, Pix: pix}
}

// SameShape reports whether o has the same dimensions as m.
func (m *Image) SameShape(o *Image) bool {
	return o != nil && m.Height == o.Height && m.Width == o.Width && m.Channels == o.Channels
}

// Plane extracts channel c as a contiguous H*W slice.
func (m *Image) Plane(c int) []float64 {
	plane := make([]float64, m.Height*m.Width)
	for i := range plane {
		plane[i] = m.Pix[i*m.Channels+c]
	}
	return plane
}

// SetPlane writes an H*W slice back into channel c.
func (m *Image) SetPlane(c int, plane []float64) {
	for i, v := range plane {
		m.Pix[i*m.Channels+c] = v
	}
}

func (m *Image) String() string {
	return fmt.Sprintf("raster.Image(%dx%dx%d)", m.Height, m.Width, m.Channels)
}
