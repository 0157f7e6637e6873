package domain

import (
	"errors"
	"fmt"
	"math"
)

// Profile is a fixed-width histogram of intensity against d-spacing over
// the half-open range [Min, Max). Squared errors accumulate alongside.
type Profile struct {
	Min   float64
	Max   float64
	Width float64

	// Frames counts the frames accumulated so far.
	Frames int

	counts   []float64
	variance []float64
}

// NewProfile creates an empty profile. The range is rounded to a whole
// number of bins.
func NewProfile(min, max, width float64) (*Profile, error) {
	if !(width > 0) {
		return nil, fmt.Errorf("bin width must be positive, got %g", width)
	}
	if !(max > min) {
		return nil, fmt.Errorf("empty d-spacing range [%g, %g)", min, max)
	}
	n := int(math.Round((max - min) / width))
	if n < 1 {
		return nil, fmt.Errorf("range [%g, %g) holds no bin of width %g", min, max, width)
	}
	return &Profile{
		Min:      min,
		Max:      min + float64(n)*width,
		Width:    width,
		counts:   make([]float64, n),
		variance: make([]float64, n),
	}, nil
}

// Bins returns the number of bins.
func (p *Profile) Bins() int { return len(p.counts) }

// Bin returns the bin holding d, or false when d is outside [Min, Max).
func (p *Profile) Bin(d float64) (int, bool) {
	if math.IsNaN(d) || d < p.Min || d >= p.Max {
		return 0, false
	}
	i := int(math.Floor((d - p.Min) / p.Width))
	if i >= len(p.counts) {
		i = len(p.counts) - 1
	}
	if i < 0 {
		return 0, false
	}
	return i, true
}

// Add weights the bin holding d by w. Values outside the range are dropped
// and reported as false.
func (p *Profile) Add(d, w, variance float64) bool {
	i, ok := p.Bin(d)
	if !ok {
		return false
	}
	p.counts[i] += w
	p.variance[i] += variance
	return true
}

// Merge adds another profile with identical binning into p.
func (p *Profile) Merge(o *Profile) error {
	if o.Bins() != p.Bins() || o.Min != p.Min || o.Width != p.Width {
		return errors.New("profiles have different binning")
	}
	for i := range p.counts {
		p.counts[i] += o.counts[i]
		p.variance[i] += o.variance[i]
	}
	p.Frames += o.Frames
	return nil
}

// Edges returns the Bins()+1 bin edges.
func (p *Profile) Edges() []float64 {
	out := make([]float64, len(p.counts)+1)
	for i := range out {
		out[i] = p.Min + float64(i)*p.Width
	}
	return out
}

// Centers returns the bin centres.
func (p *Profile) Centers() []float64 {
	out := make([]float64, len(p.counts))
	for i := range out {
		out[i] = p.Min + (float64(i)+0.5)*p.Width
	}
	return out
}

// Counts returns a copy of the accumulated intensities.
func (p *Profile) Counts() []float64 {
	return append([]float64(nil), p.counts...)
}

// Errors returns the standard error of each bin.
func (p *Profile) Errors() []float64 {
	out := make([]float64, len(p.variance))
	for i, v := range p.variance {
		out[i] = math.Sqrt(v)
	}
	return out
}

// Total returns the summed intensity over all bins.
func (p *Profile) Total() float64 {
	var s float64
	for _, c := range p.counts {
		s += c
	}
	return s
}
