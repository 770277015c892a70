package main

import (
	"github.com/djdv/go-managed"
	"github.com/djdv/go-managed/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
}

func newRootCommand() *cobra.Command {
	var (
		options rootOptions
		root    = &cobra.Command{
			Use:   "managedctl",
			Short: "Diagnostics for the managed object runtime",
			Long: `managedctl runs a small molecular workload on top of managed objects
and the memoizing caches, then reports statistics and leaked objects.

Settings are read from an optional YAML file (--config) and from the
MANAGED_LOG_LEVEL, MANAGED_CHECK_LEVEL, MANAGED_THREADS,
MANAGED_SHOW_LEAKS and MANAGED_LOG_FORMAT environment variables,
which take precedence.`,
			SilenceUsage: true,
		}
	)
	root.PersistentFlags().StringVarP(&options.configFile, "config", "c", "",
		"configuration file path (defaults are used if empty)")
	root.AddCommand(
		newCheckCommand(&options),
		newServeCommand(&options),
		newConfigCommand(&options),
	)
	return root
}

// loadConfig reads the configuration file (if any)
// and applies environment overrides.
func (options *rootOptions) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if options.configFile != "" {
		loaded, err := config.Load(options.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configure applies the configuration to the process context,
// logging to the command's error stream.
func (options *rootOptions) configure(cmd *cobra.Command) (*managed.Context, error) {
	cfg, err := options.loadConfig()
	if err != nil {
		return nil, err
	}
	ctx := managed.Process()
	if err := cfg.Apply(ctx, cmd.ErrOrStderr()); err != nil {
		return nil, err
	}
	return ctx, nil
}

func newConfigCommand(options *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := options.loadConfig()
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
