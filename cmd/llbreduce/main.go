package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/llb-tools/llbreduce/internal/adapters/log"
	"github.com/llb-tools/llbreduce/internal/cliconfig"
)

const helpDescription = `
Reduce LLB 5C1 polarized-neutron powder-diffraction scans to a d-spacing profile.

Each frame of the XML scan is normalized by its monitor count, converted to
d-spacing through the detector geometry at the frame's gamma angle, masked to
the equatorial band and histogrammed. The cumulative profile is redrawn after
every frame.

Configuration is read from $HOME/.llbreduce/config.toml, then LLBREDUCE_*
environment variables, then flags.
`

var exampleUsage = strings.TrimSpace(`
  llbreduce Powder_HoTi_014704.xml
  llbreduce reduce Powder_HoTi_014704.xml --channel sum --output dspacing.svg --profile-csv dspacing.csv
  llbreduce reduce Powder_HoTi_014704.xml --watch
  llbreduce inspect Powder_HoTi_014704.xml
  llbreduce frame Powder_HoTi_014704.xml --index 3 --output frame.png
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	// Fallback logger until the configured one exists.
	log, _ := logAdapter.New(os.Stderr, "info", logAdapter.FormatConsole)

	root := newRootCommand()
	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("llbreduce")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	reduce := newReduceCommand("reduce")

	root := newReduceCommand("llbreduce")
	root.Short = "Reduce LLB 5C1 powder-diffraction scans to a d-spacing profile"
	root.Long = strings.TrimSpace(helpDescription)
	root.Example = exampleUsage
	root.Version = fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH)
	root.SilenceUsage = true
	root.SilenceErrors = true

	root.AddCommand(reduce, newInspectCommand(), newFrameCommand())
	return root
}

// commonFlags registers the flags shared by every command.
func commonFlags(fs *pflag.FlagSet, cfg *cliconfig.Config, cfgPath *string) {
	fs.StringVar(cfgPath, "config", "", "path to config file (default: $HOME/.llbreduce/config.toml)")
	fs.StringVar(&cfg.Input, "input", cfg.Input, "scan XML file (may also be given as an argument)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (console or json)")
}

// loadConfig resolves the configuration in precedence order: flags,
// environment, config file, defaults.
func loadConfig(cmd *cobra.Command, args []string, cfg *cliconfig.Config, cfgPath string) error {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if len(args) > 0 {
		if changed["input"] && cfg.Input != args[0] {
			return fmt.Errorf("input given both as argument %q and --input %q", args[0], cfg.Input)
		}
		cfg.Input = args[0]
		changed["input"] = true
	}

	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}
	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	} else if cfgPath != "" {
		return fmt.Errorf("config file %s not found", cfgPath)
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return cfg.Validate()
}

func newLogger(cfg cliconfig.Config) (zerolog.Logger, error) {
	return logAdapter.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
