package instrument

import (
	"fmt"
	"math"

	"github.com/llb-tools/llbreduce/internal/domain"
)

type vec3 struct{ x, y, z float64 }

func (v vec3) norm() float64 { return math.Sqrt(v.x*v.x + v.y*v.y + v.z*v.z) }

// rotateY rotates v by deg degrees about the vertical axis.
func rotateY(v vec3, deg float64) vec3 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return vec3{
		x: v.x*c + v.z*s,
		y: v.y,
		z: -v.x*s + v.z*c,
	}
}

// ElasticConverter converts spectra of a fixed panel to d-spacing.
type ElasticConverter struct {
	def       Definition
	positions []vec3
	monitor   []bool
}

// NewElasticConverter precomputes the unrotated pixel positions. The
// definition must have its pixel counts set (see Definition.Fit).
func NewElasticConverter(def Definition) (*ElasticConverter, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if def.NX == 0 || def.NY == 0 {
		return nil, fmt.Errorf("%w: instrument %s has no pixel counts", domain.ErrGeometryMismatch, def.Name)
	}

	n := def.NX * def.NY
	c := &ElasticConverter{
		def:       def,
		positions: make([]vec3, n),
		monitor:   make([]bool, n),
	}
	cx := float64(def.NX-1) / 2
	cy := float64(def.NY-1) / 2
	for k := 0; k < n; k++ {
		ix, iy := k%def.NX, k/def.NX
		u := (float64(ix) - cx) * def.PitchX
		y := (float64(iy) - cy) * def.PitchY
		switch def.Shape {
		case ShapeCylindrical:
			alpha := u / def.Distance
			c.positions[k] = vec3{x: def.Distance * math.Sin(alpha), y: y, z: def.Distance * math.Cos(alpha)}
		default:
			c.positions[k] = vec3{x: u, y: y, z: def.Distance}
		}
	}
	for _, m := range def.Monitors {
		if m >= 0 && m < n {
			c.monitor[m] = true
		}
	}
	return c, nil
}

// Definition returns the geometry the converter was built with.
func (c *ElasticConverter) Definition() Definition { return c.def }

// Convert places the panel at gamma degrees and returns each spectrum's
// position and elastic d-spacing for the given wavelength. Spectra in the
// direct beam have infinite d-spacing.
func (c *ElasticConverter) Convert(counts []float64, wavelength, gamma float64) ([]domain.Pixel, error) {
	if len(counts) != len(c.positions) {
		return nil, fmt.Errorf("%w: %d spectra for a %dx%d panel",
			domain.ErrGeometryMismatch, len(counts), c.def.NY, c.def.NX)
	}
	if wavelength <= 0 {
		return nil, fmt.Errorf("wavelength must be positive, got %g", wavelength)
	}

	out := make([]domain.Pixel, len(c.positions))
	for k, p := range c.positions {
		r := rotateY(p, gamma)
		out[k] = domain.Pixel{
			DSpacing: DSpacing(wavelength, TwoTheta(r.x, r.y, r.z)),
			X:        r.x,
			Y:        r.y,
			Z:        r.z,
			Monitor:  c.monitor[k],
		}
	}
	return out, nil
}

// TwoTheta returns the scattering angle in radians of a pixel at (x, y, z)
// for a beam along +z.
func TwoTheta(x, y, z float64) float64 {
	n := vec3{x, y, z}.norm()
	if n == 0 {
		return 0
	}
	cos := z / n
	return math.Acos(math.Max(-1, math.Min(1, cos)))
}

// DSpacing applies Bragg's law, d = λ / (2 sin θ).
func DSpacing(wavelength, twoTheta float64) float64 {
	s := math.Sin(twoTheta / 2)
	if s == 0 {
		return math.Inf(1)
	}
	return wavelength / (2 * s)
}
