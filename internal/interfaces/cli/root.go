// Package cli implements the moldock command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/moldock/internal/config"
	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand creates the root cobra command with global flags and all
// subcommands mounted.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "moldock",
		Short:   "moldock is a molecular docking result assembly service",
		Long:    "moldock runs small-molecule docking jobs against prepared protein targets,\nassembles the best pose into viewable PDB artifacts and serves them to\nmolecular viewers.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: environment only)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(newDockCmd(opts))
	cmd.AddCommand(newTargetsCmd(opts))

	return cmd
}

// loadConfig resolves configuration from the file given on the command line,
// or from the environment when no file was given.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (logging.Logger, error) {
	return logging.NewLogger(cfg.Log)
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
