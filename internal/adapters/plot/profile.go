// Package plot renders reduction results with gonum/plot.
package plot

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/llb-tools/llbreduce/internal/adapters/fs"
	"github.com/llb-tools/llbreduce/internal/domain"
)

// Default page size, matching a single matplotlib figure.
const (
	DefaultWidth  = 6.4 * vg.Inch
	DefaultHeight = 4.8 * vg.Inch
)

var supportedFormats = map[string]bool{
	"pdf": true, "svg": true, "eps": true, "png": true, "jpg": true, "jpeg": true, "tif": true, "tiff": true,
}

// FormatOf returns the output format implied by the file extension. A path
// without an extension is rendered as PDF.
func FormatOf(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return "pdf", nil
	}
	if !supportedFormats[ext] {
		return "", fmt.Errorf("unsupported plot format %q", ext)
	}
	return ext, nil
}

// ProfilePlot implements ports.ProfileSink by rendering intensity against
// bin-centre d-spacing.
type ProfilePlot struct {
	path   string
	format string
	Title  string
	Width  vg.Length
	Height vg.Length
}

// NewProfilePlot creates a sink writing to path in the format given by its
// extension.
func NewProfilePlot(path string) (*ProfilePlot, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	return &ProfilePlot{path: path, format: format, Width: DefaultWidth, Height: DefaultHeight}, nil
}

// Path returns the output path.
func (s *ProfilePlot) Path() string { return s.path }

// Write renders the profile and replaces the previous file.
func (s *ProfilePlot) Write(prof *domain.Profile) error {
	p, err := ProfileFigure(prof, s.Title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(s.Width, s.Height, s.format)
	if err != nil {
		return fmt.Errorf("render profile: %w", err)
	}
	return fs.WriteAtomic(s.path, func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return err
	})
}

// ProfileFigure builds the line plot with a dotted grey grid behind it.
func ProfileFigure(prof *domain.Profile, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "d-spacing"
	p.Y.Label.Text = "Intensity"

	grid := plotter.NewGrid()
	gray := color.Gray{Y: 128}
	dots := []vg.Length{vg.Points(1), vg.Points(2)}
	grid.Vertical.Color, grid.Vertical.Dashes = gray, dots
	grid.Horizontal.Color, grid.Horizontal.Dashes = gray, dots
	p.Add(grid)

	centers, counts := prof.Centers(), prof.Counts()
	xys := make(plotter.XYs, len(centers))
	for i := range centers {
		xys[i].X = centers[i]
		xys[i].Y = counts[i]
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("profile line: %w", err)
	}
	p.Add(line)
	p.X.Min, p.X.Max = prof.Min, prof.Max
	return p, nil
}
