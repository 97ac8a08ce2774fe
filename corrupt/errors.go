package corrupt

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedCorruption is returned for identifiers that name no known corruption.
	ErrUnsupportedCorruption = errors.New("unsupported corruption")

	// ErrUnsupportedJpegVariant is returned for jpeg identifiers with an unknown suffix.
	ErrUnsupportedJpegVariant = errors.New("unsupported jpeg corruption variant")

	// ErrEmptyRandomPool is returned when random corruptions are requested
	// but the pool to draw them from is empty.
	ErrEmptyRandomPool = errors.New("random corruption pool is empty")

	// ErrInvalidOption is returned when an options mapping holds a value of
	// the wrong shape.
	ErrInvalidOption = errors.New("invalid corruption option")
)

// UnsupportedCorruptionError names the identifier that failed to resolve.
type UnsupportedCorruptionError struct {
	Tag string
}

func (e *UnsupportedCorruptionError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnsupportedCorruption, e.Tag)
}

func (e *UnsupportedCorruptionError) Unwrap() error {
	return ErrUnsupportedCorruption
}

// UnsupportedJpegVariantError names the jpeg identifier with an unknown suffix.
type UnsupportedJpegVariantError struct {
	Tag string
}

func (e *UnsupportedJpegVariantError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnsupportedJpegVariant, e.Tag)
}

func (e *UnsupportedJpegVariantError) Unwrap() error {
	return ErrUnsupportedJpegVariant
}
