package plot

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/llb-tools/llbreduce/internal/adapters/fs"
	"github.com/llb-tools/llbreduce/internal/domain"
)

// logGrid exposes log10 counts of a detector grid as a plotter.GridXYZ.
// Zero counts map to NaN.
type logGrid struct {
	g        *domain.Grid
	min, max float64
}

func newLogGrid(g *domain.Grid) *logGrid {
	lg := &logGrid{g: g, min: math.Inf(1), max: math.Inf(-1)}
	for _, c := range g.Counts {
		if c <= 0 {
			continue
		}
		v := math.Log10(float64(c))
		lg.min = math.Min(lg.min, v)
		lg.max = math.Max(lg.max, v)
	}
	if math.IsInf(lg.min, 1) {
		lg.min, lg.max = 0, 1
	}
	if lg.min == lg.max {
		lg.max = lg.min + 1
	}
	return lg
}

func (l *logGrid) Dims() (c, r int) { return l.g.NX, l.g.NY }
func (l *logGrid) X(c int) float64  { return float64(c) }
func (l *logGrid) Y(r int) float64  { return float64(r) }
func (l *logGrid) Min() float64     { return l.min }
func (l *logGrid) Max() float64     { return l.max }

func (l *logGrid) Z(c, r int) float64 {
	v := l.g.At(r, c)
	if v <= 0 {
		return math.NaN()
	}
	return math.Log10(float64(v))
}

func heatMapPlot(g *domain.Grid, title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x pixel"
	p.Y.Label.Text = "y pixel"
	h := plotter.NewHeatMap(newLogGrid(g), palette.Heat(64, 1))
	h.NaN = color.Transparent
	p.Add(h)
	return p
}

// WriteFrameImage renders log10 of the up and down intensities of one frame
// as two stacked heat maps. A missing channel is left out.
func WriteFrameImage(path string, f *domain.Frame) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	var rows [][]*plot.Plot
	if f.IntensityUp != nil {
		rows = append(rows, []*plot.Plot{heatMapPlot(f.IntensityUp, "I_up")})
	}
	if f.IntensityDown != nil {
		rows = append(rows, []*plot.Plot{heatMapPlot(f.IntensityDown, "I_dn")})
	}
	if len(rows) == 0 {
		return fmt.Errorf("frame %d: %w", f.Index, domain.ErrMissingChannel)
	}

	c, err := draw.NewFormattedCanvas(DefaultWidth, DefaultHeight, format)
	if err != nil {
		return fmt.Errorf("render frame %d: %w", f.Index, err)
	}
	tiles := draw.Tiles{
		Rows:      len(rows),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      4 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  2 * vg.Millimeter,
	}
	canvases := plot.Align(rows, tiles, draw.New(c))
	for i := range rows {
		rows[i][0].Draw(canvases[i][0])
	}
	return fs.WriteAtomic(path, func(w io.Writer) error {
		_, err := c.WriteTo(w)
		return err
	})
}
