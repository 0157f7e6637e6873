package domain

import "strings"

// Well-known field names. Lookups against them are case-insensitive.
const (
	FieldPhi           = "phi"
	FieldOmega         = "omega"
	FieldGamma         = "gamma"
	FieldMonitor       = "totalmonitorcount"
	FieldIntensityUp   = "intensityup"
	FieldIntensityDown = "intensitydown"
)

// monitorAliases are accepted in addition to FieldMonitor.
var monitorAliases = []string{FieldMonitor, "monitorcount", "monitor"}

// Grid is a (NY, NX) grid of detector counts stored row-major.
type Grid struct {
	NX, NY int
	Counts []int64
}

// NewGrid allocates a zeroed grid of the given shape.
func NewGrid(nx, ny int) *Grid {
	return &Grid{NX: nx, NY: ny, Counts: make([]int64, nx*ny)}
}

// At returns the count at row iy, column ix.
func (g *Grid) At(iy, ix int) int64 {
	return g.Counts[iy*g.NX+ix]
}

// Len returns the number of pixels.
func (g *Grid) Len() int { return g.NX * g.NY }

// Floats returns the counts flattened in spectrum order as float64.
func (g *Grid) Floats() []float64 {
	out := make([]float64, len(g.Counts))
	for i, c := range g.Counts {
		out[i] = float64(c)
	}
	return out
}

// Frame is one measurement at a fixed detector-rotation angle.
type Frame struct {
	// Index is the position of the frame in document order, starting at 0.
	Index int

	IntensityUp   *Grid
	IntensityDown *Grid

	// Angles in degrees.
	Phi   float64
	Omega float64
	Gamma float64

	MonitorCount float64

	NX, NY int

	// Fields holds every attribute and text element of the frame.
	Fields map[string]Value

	// Keys lists Fields keys in the order they were first seen.
	Keys []string
}

// Get returns the field stored under exactly name.
func (f *Frame) Get(name string) (Value, bool) {
	v, ok := f.Fields[name]
	return v, ok
}

// Lookup returns the first field whose key matches name case-insensitively.
func (f *Frame) Lookup(name string) (Value, bool) {
	if v, ok := f.Fields[name]; ok {
		return v, true
	}
	for _, k := range f.Keys {
		if strings.EqualFold(k, name) {
			return f.Fields[k], true
		}
	}
	return Value{}, false
}

// Set stores a field, recording key order on first insertion.
func (f *Frame) Set(name string, v Value) {
	if f.Fields == nil {
		f.Fields = make(map[string]Value)
	}
	if _, ok := f.Fields[name]; !ok {
		f.Keys = append(f.Keys, name)
	}
	f.Fields[name] = v
}

// Resolve fills the well-known typed fields from Fields.
func (f *Frame) Resolve() {
	f.Phi = f.float(FieldPhi)
	f.Omega = f.float(FieldOmega)
	f.Gamma = f.float(FieldGamma)
	for _, name := range monitorAliases {
		if v, ok := f.Lookup(name); ok {
			if m, ok := v.Float(); ok {
				f.MonitorCount = m
				break
			}
		}
	}
	if v, ok := f.Lookup(FieldIntensityUp); ok {
		f.IntensityUp, _ = v.Grid()
	}
	if v, ok := f.Lookup(FieldIntensityDown); ok {
		f.IntensityDown, _ = v.Grid()
	}
	if v, ok := f.Lookup("x"); ok {
		if n, ok := v.Int(); ok {
			f.NX = int(n)
		}
	}
	if v, ok := f.Lookup("y"); ok {
		if n, ok := v.Int(); ok {
			f.NY = int(n)
		}
	}
}

func (f *Frame) float(name string) float64 {
	v, ok := f.Lookup(name)
	if !ok {
		return 0
	}
	x, _ := v.Float()
	return x
}

// Run is the content of one instrument file.
type Run struct {
	Path          string
	Wavelength    float64
	HasWavelength bool
	Frames        []Frame
}

// Shape returns the grid shape shared by all frames.
func (r *Run) Shape() (nx, ny int) {
	if len(r.Frames) == 0 {
		return 0, 0
	}
	return r.Frames[0].NX, r.Frames[0].NY
}

// Pixel is one spectrum after geometry and unit conversion.
type Pixel struct {
	DSpacing float64
	// Position of the pixel in metres; Y is the vertical axis.
	X, Y, Z float64
	Monitor bool
}
