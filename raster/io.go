package raster

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// SupportedExtensions lists the file extensions Load understands.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".bmp", ".tif", ".tiff", ".gif"}

// IsSupported reports whether path has an image extension Load can decode.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load decodes an image file, honouring EXIF orientation.
func Load(path string, channels int) (*Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	return FromImage(img, channels)
}

// Save writes m to path; the format follows the extension. JPEG output uses
// the given quality, other formats ignore it.
func Save(m *Image, path string, jpegQuality int) error {
	img, err := m.ToImage()
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(max(1, min(100, jpegQuality)))); err != nil {
		return fmt.Errorf("save image %s: %w", path, err)
	}
	return nil
}
