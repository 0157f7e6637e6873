// Package app orchestrates the reduction of a run into a d-spacing profile.
package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/llb-tools/llbreduce/internal/domain"
	"github.com/llb-tools/llbreduce/internal/ports"
)

// Intensity channels.
const (
	ChannelUp   = "up"
	ChannelDown = "down"
	ChannelSum  = "sum"
)

// ReducerConfig contains the binning and masking parameters.
type ReducerConfig struct {
	DMin     float64
	DMax     float64
	BinWidth float64
	// BandHalfWidth masks pixels whose |y| exceeds it, in metres.
	BandHalfWidth float64
	Channel       string
}

// DefaultReducerConfig bins [0, 5) in steps of 0.01 and keeps a 5 mm band
// around the equatorial plane.
func DefaultReducerConfig() ReducerConfig {
	return ReducerConfig{
		DMin:          0,
		DMax:          5,
		BinWidth:      0.01,
		BandHalfWidth: 0.005,
		Channel:       ChannelUp,
	}
}

// Reducer accumulates the frames of a run into one profile.
type Reducer struct {
	config    ReducerConfig
	converter ports.Converter
	sinks     []ports.ProfileSink
	logger    ports.Logger
}

// NewReducer creates a reducer with the given dependencies.
func NewReducer(config ReducerConfig, converter ports.Converter, logger ports.Logger, sinks ...ports.ProfileSink) *Reducer {
	return &Reducer{
		config:    config,
		converter: converter,
		sinks:     sinks,
		logger:    logger,
	}
}

// Run reduces every frame in document order. After each frame the
// cumulative profile is written to every sink. The first error aborts the
// run.
func (r *Reducer) Run(ctx context.Context, run *domain.Run) (*domain.Profile, error) {
	if !run.HasWavelength {
		return nil, domain.ErrNoWavelength
	}
	if len(run.Frames) == 0 {
		return nil, domain.ErrNoFrames
	}

	total, err := domain.NewProfile(r.config.DMin, r.config.DMax, r.config.BinWidth)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	for i := range run.Frames {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		f := &run.Frames[i]
		frameProfile, err := r.ReduceFrame(f, run.Wavelength)
		if err != nil {
			return total, fmt.Errorf("frame %d: %w", f.Index, err)
		}
		if err := total.Merge(frameProfile); err != nil {
			return total, err
		}

		r.logger.Info("frame reduced",
			ports.Int("frame", i+1),
			ports.Int("of", len(run.Frames)),
			ports.Float64("gamma", f.Gamma),
			ports.Float64("intensity", frameProfile.Total()),
		)

		for _, s := range r.sinks {
			if err := s.Write(total); err != nil {
				return total, fmt.Errorf("write profile: %w", err)
			}
		}
	}

	r.logger.Info("reduction complete",
		ports.Int("frames", total.Frames),
		ports.Float64("intensity", total.Total()),
		ports.Duration("duration", time.Since(start)),
	)
	return total, nil
}

// ReduceFrame normalizes one frame by its monitor count, converts it to
// d-spacing and histograms the pixels inside the equatorial band.
func (r *Reducer) ReduceFrame(f *domain.Frame, wavelength float64) (*domain.Profile, error) {
	counts, err := r.channel(f)
	if err != nil {
		return nil, err
	}
	if !(f.MonitorCount > 0) {
		return nil, fmt.Errorf("%w: got %g", domain.ErrBadMonitor, f.MonitorCount)
	}

	pixels, err := r.converter.Convert(counts, wavelength, f.Gamma)
	if err != nil {
		return nil, err
	}
	if len(pixels) != len(counts) {
		return nil, fmt.Errorf("%w: converter returned %d pixels for %d spectra",
			domain.ErrGeometryMismatch, len(pixels), len(counts))
	}

	p, err := domain.NewProfile(r.config.DMin, r.config.DMax, r.config.BinWidth)
	if err != nil {
		return nil, err
	}
	m := f.MonitorCount
	var masked, dropped int
	for k, px := range pixels {
		if px.Monitor || math.Abs(px.Y) > r.config.BandHalfWidth {
			masked++
			continue
		}
		c := counts[k]
		if !p.Add(px.DSpacing, c/m, c/(m*m)) {
			dropped++
		}
	}
	p.Frames = 1

	r.logger.Debug("frame histogrammed",
		ports.Int("frame", f.Index),
		ports.Int("masked", masked),
		ports.Int("out_of_range", dropped),
	)
	return p, nil
}

// channel returns the selected intensity in spectrum order.
func (r *Reducer) channel(f *domain.Frame) ([]float64, error) {
	switch r.config.Channel {
	case "", ChannelUp:
		if f.IntensityUp == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingChannel, ChannelUp)
		}
		return f.IntensityUp.Floats(), nil
	case ChannelDown:
		if f.IntensityDown == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingChannel, ChannelDown)
		}
		return f.IntensityDown.Floats(), nil
	case ChannelSum:
		if f.IntensityUp == nil || f.IntensityDown == nil {
			return nil, fmt.Errorf("%w: %s needs both channels", domain.ErrMissingChannel, ChannelSum)
		}
		up, down := f.IntensityUp.Floats(), f.IntensityDown.Floats()
		for i := range up {
			up[i] += down[i]
		}
		return up, nil
	default:
		return nil, fmt.Errorf("unknown channel %q", r.config.Channel)
	}
}
