package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/ss7kit/config"
	"github.com/randalmurphal/ss7kit/engine"
	"github.com/randalmurphal/ss7kit/sidecar"
)

// Version is set at build time with -ldflags "-X ...commands.Version=...".
var Version = "dev"

var (
	configPath string
	verbose    bool

	// cfg is the configuration loaded before any subcommand runs.
	cfg = config.Default()

	// newEngine builds the engine for run and watch. Tests replace it.
	newEngine = func(c sidecar.Config) engine.Engine {
		return sidecar.NewWithConfig(c)
	}
)

// RootCmd is the root command for ss7run
var RootCmd = &cobra.Command{
	Use:   "ss7run",
	Short: "ss7run - batch driver for the SS7 structural analysis engine",
	Long: `ss7run opens an SS7 project (.ikn) or input CSV (.csv), runs the
calculation and export steps listed in a job file, and saves the project.

Configuration is read from --config, ./ss7kit.toml or the user config
directory, then overridden by SS7KIT_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.ErrOrStderr())
	},
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to ss7kit.toml")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log engine traffic")

	RootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ss7run %s\n", Version)
		},
	})
}

// setup loads configuration and installs the logger.
func setup(stderr io.Writer) error {
	path := configPath
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.Find(wd)
		}
	}

	loaded := config.Default()
	if path != "" {
		var err error
		if loaded, err = config.Load(path); err != nil {
			return err
		}
	}
	loaded.LoadFromEnv()
	if verbose {
		loaded.Log.Level = "debug"
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg = loaded

	level, _ := cfg.Log.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(stderr, opts)
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	if path != "" {
		slog.Debug("config loaded", slog.String("path", path))
	}
	return nil
}
