package xmlframe

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/llb-tools/llbreduce/internal/domain"
)

const (
	// FrameTag marks one measurement.
	FrameTag = "Frame"
	// DataTag marks a ';'-separated integer array.
	DataTag = "Data"
	// WavelengthTag is the file-level wavelength element.
	WavelengthTag = "wavelength"
	// legacyWavelengthTag is the misspelling found in older files.
	legacyWavelengthTag = "wavelenght"

	nameAttr = "name"
)

// Load reads and parses the instrument file at path.
func Load(path string) (*domain.Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads a whole document from r. Path is only used in errors and is
// recorded on the returned run.
func Parse(r io.Reader, path string) (*domain.Run, error) {
	root, err := decodeTree(r)
	if err != nil {
		return nil, &domain.ParseError{Path: path, Err: err}
	}

	run := &domain.Run{Path: path}
	if el := wavelengthElement(root); el != nil {
		raw := strings.TrimSpace(el.Text)
		wl, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &domain.ValueError{Frame: -1, Field: el.Tag, Token: raw, Err: err}
		}
		run.Wavelength = wl
		run.HasWavelength = true
	}

	for i, el := range frameElements(root) {
		f, err := parseFrame(i, el)
		if err != nil {
			return nil, err
		}
		run.Frames = append(run.Frames, f)
	}

	if err := checkShapes(run); err != nil {
		return nil, err
	}
	return run, nil
}

// wavelengthElement finds the wavelength among the root's direct children,
// falling back to the legacy spelling.
func wavelengthElement(root *element) *element {
	for _, tag := range []string{WavelengthTag, legacyWavelengthTag} {
		for _, c := range root.Children {
			if strings.EqualFold(c.Tag, tag) {
				return c
			}
		}
	}
	return nil
}

// frameElements returns Frame elements in document order. A Frame nested in
// another Frame is its own record and is not part of the outer one.
func frameElements(root *element) []*element {
	return root.findAll(FrameTag)
}

// pendingArray is a Data element seen during the attribute pass.
type pendingArray struct {
	el *element
	// precedingName is the last name attribute seen before el in document order.
	precedingName string
}

func parseFrame(index int, frameEl *element) (domain.Frame, error) {
	f := domain.Frame{Index: index}

	// Attribute pass: copy attributes and scalar text, remember arrays.
	var (
		arrays   []pendingArray
		lastName string
		walkErr  error
	)
	frameEl.walk(func(n *element) bool {
		if walkErr != nil {
			return false
		}
		if n != frameEl && n.Tag == FrameTag {
			return false
		}
		for _, a := range n.Attrs {
			v, err := attrValue(index, a.Name.Local, a.Value)
			if err != nil {
				walkErr = err
				return false
			}
			f.Set(a.Name.Local, v)
			if a.Name.Local == nameAttr {
				lastName = a.Value
			}
		}
		if strings.TrimSpace(n.Text) == "" {
			return true
		}
		if n.Tag == DataTag {
			arrays = append(arrays, pendingArray{el: n, precedingName: lastName})
			return true
		}
		f.Set(n.Tag, scalarValue(n.Text))
		return true
	})
	if walkErr != nil {
		return domain.Frame{}, walkErr
	}

	// Array pass: dimensions and names are resolved by scope, not by the
	// order attributes happened to be visited in.
	frameNX, hasNX := intField(&f, "x")
	frameNY, hasNY := intField(&f, "y")
	for _, p := range arrays {
		name := arrayName(p, frameEl)
		nx, okX := scopedInt(p.el, frameEl, "x")
		if !okX && hasNX {
			nx, okX = frameNX, true
		}
		ny, okY := scopedInt(p.el, frameEl, "y")
		if !okY && hasNY {
			ny, okY = frameNY, true
		}
		if !okX || !okY {
			return domain.Frame{}, &domain.ShapeError{Frame: index, Field: name, Msg: "array dimensions unknown (no x/y attributes)"}
		}
		g, err := parseGrid(index, name, p.el.Text, nx, ny)
		if err != nil {
			return domain.Frame{}, err
		}
		f.Set(name, domain.GridValue(g))
	}

	f.Resolve()
	for _, name := range []string{domain.FieldIntensityUp, domain.FieldIntensityDown} {
		v, ok := f.Lookup(name)
		if !ok {
			continue
		}
		g, ok := v.Grid()
		if !ok {
			continue
		}
		if g.NX != f.NX || g.NY != f.NY {
			return domain.Frame{}, &domain.ShapeError{Frame: index, Field: name,
				Msg: fmt.Sprintf("grid shape (%d, %d) differs from frame shape (%d, %d)", g.NY, g.NX, f.NY, f.NX)}
		}
	}
	return f, nil
}

// arrayName resolves the field name an array is stored under: the Data
// element's own name, an enclosing element's name, the nearest preceding name
// in the frame, and finally the Data tag itself.
func arrayName(p pendingArray, frameEl *element) string {
	for n := p.el; n != nil && n != frameEl; n = n.Parent {
		if v, ok := n.attr(nameAttr); ok && v != "" {
			return v
		}
	}
	if p.precedingName != "" {
		return p.precedingName
	}
	return DataTag
}

// scopedInt looks up an integer attribute on el or its ancestors below the
// frame element. Values were validated during the attribute pass.
func scopedInt(el, frameEl *element, key string) (int, bool) {
	for n := el; n != nil && n != frameEl; n = n.Parent {
		if v, ok := n.attr(key); ok {
			i, err := strconv.Atoi(strings.TrimSpace(v))
			return i, err == nil
		}
	}
	return 0, false
}

func intField(f *domain.Frame, key string) (int, bool) {
	v, ok := f.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := v.Int()
	return int(n), ok
}

// checkShapes enforces that all frames of a run share their grid shape.
func checkShapes(run *domain.Run) error {
	if len(run.Frames) == 0 {
		return nil
	}
	nx, ny := run.Frames[0].NX, run.Frames[0].NY
	for _, f := range run.Frames[1:] {
		if f.NX != nx || f.NY != ny {
			return &domain.ShapeError{Frame: f.Index, Field: "x/y",
				Msg: fmt.Sprintf("shape (%d, %d) differs from first frame (%d, %d)", f.NY, f.NX, ny, nx)}
		}
	}
	return nil
}
