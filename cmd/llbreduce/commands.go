package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/llb-tools/llbreduce/internal/adapters/fs"
	logAdapter "github.com/llb-tools/llbreduce/internal/adapters/log"
	"github.com/llb-tools/llbreduce/internal/adapters/plot"
	"github.com/llb-tools/llbreduce/internal/app"
	"github.com/llb-tools/llbreduce/internal/cliconfig"
	"github.com/llb-tools/llbreduce/internal/domain"
	"github.com/llb-tools/llbreduce/internal/instrument"
	"github.com/llb-tools/llbreduce/internal/ports"
	"github.com/llb-tools/llbreduce/internal/xmlframe"
)

func newReduceCommand(use string) *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	cmd := &cobra.Command{
		Use:   use + " [file.xml]",
		Short: "Reduce every frame of a scan into a d-spacing profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, args, &cfg, cfgPath); err != nil {
				return err
			}
			zl, err := newLogger(cfg)
			if err != nil {
				return err
			}
			zl.Debug().Interface("config", cfg).Msg("configuration")
			logger := logAdapter.NewZerologAdapter(zl)

			ctx, stop := signalContext()
			defer stop()

			reduce := func(ctx context.Context) error { return runReduction(ctx, cfg, logger) }
			if !cfg.Watch {
				return reduce(ctx)
			}

			logger.Info("watching input", ports.String("path", cfg.Input), ports.Duration("debounce", cfg.Debounce))
			if err := app.NewWatcher(cfg.Input, cfg.Debounce, reduce, logger).Run(ctx); err != nil {
				return err
			}
			logger.Info("received signal, stopping")
			return nil
		},
	}

	f := cmd.Flags()
	commonFlags(f, &cfg, &cfgPath)
	f.StringVarP(&cfg.Output, "output", "o", cfg.Output, "profile plot path; the extension selects pdf, svg, eps or png")
	f.StringVar(&cfg.ProfileCSV, "profile-csv", cfg.ProfileCSV, "also write the profile as CSV to this path")
	f.StringVar(&cfg.Instrument, "instrument", cfg.Instrument, "instrument definition TOML (default: built-in 5C1)")
	f.StringVar(&cfg.Channel, "channel", cfg.Channel, "intensity channel to reduce (up, down, sum)")
	f.Float64Var(&cfg.DMin, "d-min", cfg.DMin, "lower edge of the d-spacing range")
	f.Float64Var(&cfg.DMax, "d-max", cfg.DMax, "upper edge of the d-spacing range (exclusive)")
	f.Float64Var(&cfg.BinWidth, "bin-width", cfg.BinWidth, "d-spacing bin width")
	f.Float64Var(&cfg.BandHalfWidth, "band", cfg.BandHalfWidth, "half-height of the equatorial band in metres")
	f.BoolVar(&cfg.Watch, "watch", cfg.Watch, "re-run the reduction whenever the input file changes")
	f.DurationVar(&cfg.Debounce, "debounce", cfg.Debounce, "quiet period before a watched change triggers a run")
	return cmd
}

// runReduction parses the input, fits the instrument to it and reduces all
// frames, writing the profile after each one.
func runReduction(ctx context.Context, cfg cliconfig.Config, logger ports.Logger) error {
	run, err := xmlframe.Load(cfg.Input)
	if err != nil {
		return err
	}
	nx, ny := run.Shape()
	logger.Info("scan loaded",
		ports.String("path", run.Path),
		ports.Int("frames", len(run.Frames)),
		ports.Int("nx", nx),
		ports.Int("ny", ny),
		ports.Float64("wavelength", run.Wavelength),
	)

	def := instrument.Default5C1()
	if cfg.Instrument != "" {
		if def, err = instrument.LoadDefinition(cfg.Instrument); err != nil {
			return err
		}
	}
	if def, err = def.Fit(nx, ny); err != nil {
		return err
	}
	conv, err := instrument.NewElasticConverter(def)
	if err != nil {
		return err
	}

	profilePlot, err := plot.NewProfilePlot(cfg.Output)
	if err != nil {
		return err
	}
	profilePlot.Title = filepath.Base(cfg.Input)
	sinks := []ports.ProfileSink{profilePlot}
	if cfg.ProfileCSV != "" {
		sinks = append(sinks, fs.NewProfileCSV(cfg.ProfileCSV))
	}

	reducer := app.NewReducer(cfg.ReducerConfig(), conv, logger, sinks...)
	if _, err := reducer.Run(ctx, run); err != nil {
		return err
	}
	logger.Info("profile written", ports.String("output", cfg.Output))
	return nil
}

func newInspectCommand() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "inspect [file.xml]",
		Short: "List the frames of a scan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, args, &cfg, cfgPath); err != nil {
				return err
			}
			run, err := xmlframe.Load(cfg.Input)
			if err != nil {
				return err
			}
			return printRun(cmd.OutOrStdout(), run)
		},
	}
	commonFlags(cmd.Flags(), &cfg, &cfgPath)
	return cmd
}

func printRun(out io.Writer, run *domain.Run) error {
	nx, ny := run.Shape()
	if run.HasWavelength {
		fmt.Fprintf(out, "wavelength: %g\n", run.Wavelength)
	} else {
		fmt.Fprintln(out, "wavelength: missing")
	}
	fmt.Fprintf(out, "frames:     %d\n", len(run.Frames))
	fmt.Fprintf(out, "shape:      %d x %d\n\n", ny, nx)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tGAMMA\tPHI\tOMEGA\tMONITOR\tUP\tDOWN\tFIELDS")
	for _, f := range run.Frames {
		fmt.Fprintf(tw, "%d\t%g\t%g\t%g\t%g\t%s\t%s\t%d\n",
			f.Index, f.Gamma, f.Phi, f.Omega, f.MonitorCount,
			channelTotal(f.IntensityUp), channelTotal(f.IntensityDown), len(f.Keys))
	}
	return tw.Flush()
}

func channelTotal(g *domain.Grid) string {
	if g == nil {
		return "-"
	}
	var sum int64
	for _, c := range g.Counts {
		sum += c
	}
	return fmt.Sprint(sum)
}

func newFrameCommand() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var (
		cfgPath string
		index   int
		output  string
	)

	cmd := &cobra.Command{
		Use:   "frame [file.xml]",
		Short: "Draw log-scaled heat maps of the up and down intensities of one frame",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, args, &cfg, cfgPath); err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			run, err := xmlframe.Load(cfg.Input)
			if err != nil {
				return err
			}
			if index < 0 || index >= len(run.Frames) {
				return fmt.Errorf("frame index %d out of range [0, %d)", index, len(run.Frames))
			}
			if err := plot.WriteFrameImage(output, &run.Frames[index]); err != nil {
				return err
			}
			log.Info().Int("frame", index).Str("output", output).Msg("frame image written")
			return nil
		},
	}
	f := cmd.Flags()
	commonFlags(f, &cfg, &cfgPath)
	f.IntVarP(&index, "index", "n", 0, "frame index, starting at 0")
	f.StringVarP(&output, "output", "o", "frame.pdf", "image path; the extension selects pdf, svg, eps or png")
	return cmd
}
