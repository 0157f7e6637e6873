package instrument

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llb-tools/llbreduce/internal/domain"
)

const eps = 1e-9

func TestDSpacing(t *testing.T) {
	tests := []struct {
		name       string
		wavelength float64
		twoTheta   float64
		want       float64
	}{
		{"backscattering", 2.0, math.Pi, 1.0},
		{"ninety degrees", 2.0, math.Pi / 2, 2.0 / (2 * math.Sin(math.Pi/4))},
		{"sixty degrees", 3.0, math.Pi / 3, 3.0},
		{"direct beam", 2.0, 0, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DSpacing(tt.wavelength, tt.twoTheta)
			if math.IsInf(tt.want, 1) {
				assert.True(t, math.IsInf(got, 1), "got %v", got)
				return
			}
			assert.InDelta(t, tt.want, got, eps)
		})
	}
}

func TestTwoTheta(t *testing.T) {
	assert.InDelta(t, 0, TwoTheta(0, 0, 1), eps)
	assert.InDelta(t, math.Pi/2, TwoTheta(1, 0, 0), eps)
	assert.InDelta(t, math.Pi/2, TwoTheta(0, 1, 0), eps)
	assert.InDelta(t, math.Pi, TwoTheta(0, 0, -2), eps)
	assert.InDelta(t, 0, TwoTheta(0, 0, 0), eps)
}

func TestRotateY(t *testing.T) {
	r := rotateY(vec3{0, 0.3, 1}, 90)
	assert.InDelta(t, 1, r.x, eps)
	assert.InDelta(t, 0.3, r.y, eps)
	assert.InDelta(t, 0, r.z, eps)
}

func TestConvertFlatPanel(t *testing.T) {
	def := Definition{Name: "flat", Shape: ShapeFlat, Distance: 1, PitchX: 0.5, PitchY: 0.1, NX: 3, NY: 1}
	c, err := NewElasticConverter(def)
	require.NoError(t, err)

	px, err := c.Convert([]float64{1, 1, 1}, 2, 0)
	require.NoError(t, err)
	require.Len(t, px, 3)

	// Centre pixel sits in the direct beam.
	assert.True(t, math.IsInf(px[1].DSpacing, 1))
	// Outer pixels are symmetric.
	assert.InDelta(t, px[0].DSpacing, px[2].DSpacing, eps)
	want := DSpacing(2, math.Atan(0.5))
	assert.InDelta(t, want, px[0].DSpacing, eps)

	// Rotating by 90 degrees puts the centre pixel at 2θ = 90°.
	px, err = c.Convert([]float64{1, 1, 1}, 2, 90)
	require.NoError(t, err)
	assert.InDelta(t, DSpacing(2, math.Pi/2), px[1].DSpacing, eps)
	assert.InDelta(t, 1, px[1].X, eps)
}

func TestConvertCylinderKeepsRadius(t *testing.T) {
	def := Default5C1()
	def.NX, def.NY = 8, 5
	c, err := NewElasticConverter(def)
	require.NoError(t, err)

	px, err := c.Convert(make([]float64, 40), 2.5, 37)
	require.NoError(t, err)
	for k, p := range px {
		radius := math.Hypot(p.X, p.Z)
		assert.InDelta(t, def.Distance, radius, 1e-12, "pixel %d", k)
	}
	assert.True(t, px[0].Monitor)
	assert.False(t, px[1].Monitor)

	// Row ordering: spectrum k is (k mod nx, k div nx); rows step in y.
	assert.InDelta(t, -2*def.PitchY, px[0].Y, eps)
	assert.InDelta(t, 0, px[2*8].Y, eps)
	assert.InDelta(t, 2*def.PitchY, px[4*8].Y, eps)
}

func TestConvertErrors(t *testing.T) {
	def := Definition{Name: "flat", Shape: ShapeFlat, Distance: 1, PitchX: 0.5, PitchY: 0.1, NX: 2, NY: 2}
	c, err := NewElasticConverter(def)
	require.NoError(t, err)

	_, err = c.Convert([]float64{1, 2, 3}, 2, 0)
	assert.True(t, errors.Is(err, domain.ErrGeometryMismatch), "err = %v", err)

	_, err = c.Convert([]float64{1, 2, 3, 4}, 0, 0)
	assert.Error(t, err)

	def.NX = 0
	_, err = NewElasticConverter(def)
	assert.True(t, errors.Is(err, domain.ErrGeometryMismatch))
}

func TestDefinitionFit(t *testing.T) {
	def, err := Default5C1().Fit(80, 25)
	require.NoError(t, err)
	assert.Equal(t, 80, def.NX)
	assert.Equal(t, 25, def.NY)

	_, err = def.Fit(40, 25)
	assert.True(t, errors.Is(err, domain.ErrGeometryMismatch))
}

func TestLoadDefinition(t *testing.T) {
	def, err := LoadDefinition(filepath.Join("testdata", "5c1.toml"))
	require.NoError(t, err)
	assert.Equal(t, "5C1-test", def.Name)
	assert.Equal(t, ShapeFlat, def.Shape)
	assert.Equal(t, 1.0, def.Distance)
	assert.Equal(t, 0.01, def.PitchX)
	assert.Equal(t, 4, def.NX)
	assert.Equal(t, 3, def.NY)
}

func TestLoadDefinitionInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"shape":    "shape = \"sphere\"\n",
		"distance": "distance = -1.0\n",
		"syntax":   "distance = \n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(dir, name+".toml")
			require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
			_, err := LoadDefinition(p)
			assert.Error(t, err)
		})
	}
}
