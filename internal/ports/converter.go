package ports

import "github.com/llb-tools/llbreduce/internal/domain"

// Converter applies the instrument geometry and unit conversion to one
// frame. It is a pure, synchronous call.
type Converter interface {
	// Convert rotates the detector to gamma degrees about the vertical axis
	// and returns one Pixel per spectrum of counts, in the same order.
	Convert(counts []float64, wavelength, gamma float64) ([]domain.Pixel, error)
}
