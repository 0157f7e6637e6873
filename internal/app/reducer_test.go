package app

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logAdapter "github.com/llb-tools/llbreduce/internal/adapters/log"
	"github.com/llb-tools/llbreduce/internal/domain"
	"github.com/llb-tools/llbreduce/internal/instrument"
	"github.com/llb-tools/llbreduce/internal/ports"
	"github.com/llb-tools/llbreduce/internal/xmlframe"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// fakeConverter places spectrum k at d = 0.25 + 0.5k. Spectrum 0 is a
// monitor and spectrum 3 lies outside the equatorial band.
type fakeConverter struct {
	gammas      []float64
	wavelengths []float64
	failAt      int
}

func (c *fakeConverter) Convert(counts []float64, wavelength, gamma float64) ([]domain.Pixel, error) {
	c.gammas = append(c.gammas, gamma)
	c.wavelengths = append(c.wavelengths, wavelength)
	if c.failAt > 0 && len(c.gammas) == c.failAt {
		return nil, errors.New("geometry failed")
	}
	out := make([]domain.Pixel, len(counts))
	for k := range counts {
		out[k] = domain.Pixel{DSpacing: 0.25 + 0.5*float64(k)}
	}
	out[0].Monitor = true
	out[3].Y = 0.01
	return out, nil
}

// recordingSink keeps the total intensity seen at each write.
type recordingSink struct {
	totals []float64
	err    error
}

func (s *recordingSink) Write(p *domain.Profile) error {
	if s.err != nil {
		return s.err
	}
	s.totals = append(s.totals, p.Total())
	return nil
}

func grid(counts ...int64) *domain.Grid {
	return &domain.Grid{NX: 2, NY: 2, Counts: counts}
}

func testRun() *domain.Run {
	return &domain.Run{
		Wavelength:    2.5,
		HasWavelength: true,
		Frames: []domain.Frame{
			{Index: 0, NX: 2, NY: 2, Gamma: 30, MonitorCount: 10,
				IntensityUp: grid(10, 20, 30, 40), IntensityDown: grid(1, 1, 1, 1)},
			{Index: 1, NX: 2, NY: 2, Gamma: 31, MonitorCount: 1,
				IntensityUp: grid(1, 2, 3, 4), IntensityDown: grid(2, 2, 2, 2)},
		},
	}
}

func coarseConfig() ReducerConfig {
	cfg := DefaultReducerConfig()
	cfg.BinWidth = 0.5
	return cfg
}

func TestReducerAccumulatesInOrder(t *testing.T) {
	conv := &fakeConverter{}
	sink := &recordingSink{}
	r := NewReducer(coarseConfig(), conv, mockLogger{}, sink)

	prof, err := r.Run(context.Background(), testRun())
	require.NoError(t, err)

	assert.Equal(t, []float64{30, 31}, conv.gammas)
	assert.Equal(t, []float64{2.5, 2.5}, conv.wavelengths)

	counts := prof.Counts()
	assert.Equal(t, 0.0, counts[0], "monitor must be masked")
	assert.InDelta(t, 4.0, counts[1], 1e-12)
	assert.InDelta(t, 6.0, counts[2], 1e-12)
	assert.Equal(t, 0.0, counts[3], "pixel outside band must be masked")
	assert.InDelta(t, math.Sqrt(0.2+2), prof.Errors()[1], 1e-12)
	assert.Equal(t, 2, prof.Frames)

	// The plot is refreshed after every frame with the running total.
	assert.Equal(t, []float64{5, 10}, sink.totals)
}

func TestReducerChannels(t *testing.T) {
	tests := []struct {
		channel string
		want    float64
	}{
		{ChannelUp, 10},
		{ChannelDown, 0.1 + 0.1 + 2 + 2},
		{ChannelSum, 10 + 0.1 + 0.1 + 2 + 2},
	}
	for _, tt := range tests {
		t.Run(tt.channel, func(t *testing.T) {
			cfg := coarseConfig()
			cfg.Channel = tt.channel
			r := NewReducer(cfg, &fakeConverter{}, mockLogger{})
			prof, err := r.Run(context.Background(), testRun())
			require.NoError(t, err)
			assert.InDelta(t, tt.want, prof.Total(), 1e-12)
		})
	}
}

func TestReducerErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("no wavelength", func(t *testing.T) {
		run := testRun()
		run.HasWavelength = false
		_, err := NewReducer(coarseConfig(), &fakeConverter{}, mockLogger{}).Run(ctx, run)
		assert.ErrorIs(t, err, domain.ErrNoWavelength)
	})

	t.Run("no frames", func(t *testing.T) {
		run := testRun()
		run.Frames = nil
		_, err := NewReducer(coarseConfig(), &fakeConverter{}, mockLogger{}).Run(ctx, run)
		assert.ErrorIs(t, err, domain.ErrNoFrames)
	})

	t.Run("zero monitor", func(t *testing.T) {
		run := testRun()
		run.Frames[1].MonitorCount = 0
		sink := &recordingSink{}
		_, err := NewReducer(coarseConfig(), &fakeConverter{}, mockLogger{}, sink).Run(ctx, run)
		assert.ErrorIs(t, err, domain.ErrBadMonitor)
		assert.Len(t, sink.totals, 1)
	})

	t.Run("missing channel", func(t *testing.T) {
		run := testRun()
		run.Frames[0].IntensityDown = nil
		cfg := coarseConfig()
		cfg.Channel = ChannelDown
		_, err := NewReducer(cfg, &fakeConverter{}, mockLogger{}).Run(ctx, run)
		assert.ErrorIs(t, err, domain.ErrMissingChannel)
	})

	t.Run("unknown channel", func(t *testing.T) {
		cfg := coarseConfig()
		cfg.Channel = "left"
		_, err := NewReducer(cfg, &fakeConverter{}, mockLogger{}).Run(ctx, testRun())
		assert.Error(t, err)
	})

	t.Run("converter failure aborts", func(t *testing.T) {
		conv := &fakeConverter{failAt: 2}
		sink := &recordingSink{}
		_, err := NewReducer(coarseConfig(), conv, mockLogger{}, sink).Run(ctx, testRun())
		assert.EqualError(t, err, "frame 1: geometry failed")
		assert.Equal(t, []float64{5}, sink.totals)
	})

	t.Run("sink failure", func(t *testing.T) {
		sink := &recordingSink{err: errors.New("disk full")}
		_, err := NewReducer(coarseConfig(), &fakeConverter{}, mockLogger{}, sink).Run(ctx, testRun())
		assert.ErrorContains(t, err, "disk full")
	})

	t.Run("canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		conv := &fakeConverter{}
		_, err := NewReducer(coarseConfig(), conv, mockLogger{}).Run(cctx, testRun())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, conv.gammas)
	})

	t.Run("bad binning", func(t *testing.T) {
		cfg := coarseConfig()
		cfg.BinWidth = 0
		_, err := NewReducer(cfg, &fakeConverter{}, mockLogger{}).Run(ctx, testRun())
		assert.Error(t, err)
	})
}

func TestReduceFixtureWithElasticConverter(t *testing.T) {
	run, err := xmlframe.Load(filepath.Join("..", "xmlframe", "testdata", "two_frames.xml"))
	require.NoError(t, err)

	def := instrument.Definition{
		Name: "flat", Shape: instrument.ShapeFlat,
		Distance: 1, PitchX: 0.01, PitchY: 0.002,
	}
	nx, ny := run.Shape()
	def, err = def.Fit(nx, ny)
	require.NoError(t, err)
	conv, err := instrument.NewElasticConverter(def)
	require.NoError(t, err)

	prof, err := NewReducer(DefaultReducerConfig(), conv, logAdapter.NewNoopLogger()).Run(context.Background(), run)
	require.NoError(t, err)

	want := 10.0/12000 + 100.0/11800
	assert.InDelta(t, want, prof.Total(), 1e-12)

	// The second frame dominates; its pixels sit near d = λ / (2 sin(γ/2)).
	peak := instrument.DSpacing(2.5, 32.5*math.Pi/180)
	var weighted float64
	for i, c := range prof.Counts() {
		weighted += c * prof.Centers()[i]
	}
	assert.InDelta(t, peak, weighted/prof.Total(), 0.05)
}
