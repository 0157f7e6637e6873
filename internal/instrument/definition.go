// Package instrument models the detector geometry of a powder diffractometer
// and converts detector pixels to d-spacing for elastic scattering.
//
// The sample sits at the origin, the incident beam travels along +z and +y
// is vertical. The detector panel rotates about the vertical axis through
// the sample.
package instrument

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/llb-tools/llbreduce/internal/domain"
)

// Panel shapes.
const (
	ShapeCylindrical = "cylindrical"
	ShapeFlat        = "flat"
)

// Definition describes the detector panel. NX and NY may be left zero and
// filled from the data with Fit.
type Definition struct {
	Name  string `toml:"name"`
	Shape string `toml:"shape"`
	// Distance from sample to detector in metres; the radius for a cylinder.
	Distance float64 `toml:"distance"`
	// PitchX is the horizontal pixel pitch in metres (arc length on a cylinder).
	PitchX float64 `toml:"pitch_x"`
	// PitchY is the vertical pixel pitch in metres.
	PitchY float64 `toml:"pitch_y"`
	NX     int     `toml:"nx"`
	NY     int     `toml:"ny"`
	// Monitors lists spectrum indices that are monitor channels.
	Monitors []int `toml:"monitors"`
}

// Default5C1 returns the built-in geometry used when no definition file is
// given. The first spectrum is the monitor channel.
func Default5C1() Definition {
	return Definition{
		Name:     "5C1",
		Shape:    ShapeCylindrical,
		Distance: 0.80,
		PitchX:   0.0025,
		PitchY:   0.0025,
		Monitors: []int{0},
	}
}

// LoadDefinition reads a TOML definition. Keys absent from the file keep the
// Default5C1 values.
func LoadDefinition(path string) (Definition, error) {
	def := Default5C1()
	b, err := os.ReadFile(path)
	if err != nil {
		return def, err
	}
	if err := toml.Unmarshal(b, &def); err != nil {
		return def, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := def.Validate(); err != nil {
		return def, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Validate checks the definition for errors.
func (d Definition) Validate() error {
	switch d.Shape {
	case ShapeCylindrical, ShapeFlat:
	default:
		return fmt.Errorf("unknown panel shape %q", d.Shape)
	}
	if d.Distance <= 0 {
		return fmt.Errorf("distance must be positive")
	}
	if d.PitchX <= 0 || d.PitchY <= 0 {
		return fmt.Errorf("pixel pitch must be positive")
	}
	if d.NX < 0 || d.NY < 0 {
		return fmt.Errorf("pixel counts must not be negative")
	}
	return nil
}

// Fit fills unset pixel counts from the data shape, or reports a mismatch
// when the definition fixes a different shape.
func (d Definition) Fit(nx, ny int) (Definition, error) {
	if d.NX == 0 {
		d.NX = nx
	}
	if d.NY == 0 {
		d.NY = ny
	}
	if d.NX != nx || d.NY != ny {
		return d, fmt.Errorf("%w: instrument %s is %dx%d, data is %dx%d",
			domain.ErrGeometryMismatch, d.Name, d.NY, d.NX, ny, nx)
	}
	return d, nil
}
