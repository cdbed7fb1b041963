package main

import (
	sizelib "github.com/AnishMulay/sizefs/clients/library"
	"github.com/AnishMulay/sizefs/internal/config"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	configPath   string
	logLevel     string
	communicator string
	remote       string
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "sizefs",
		Short: "SizeFS synthetic file system",
		Long: `SizeFS serves read-only files whose names are their sizes and whose
content is generated from the patterns set on their directories.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file, written with defaults if missing")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	flags.StringVar(&opts.communicator, "communicator", "", "Message transport (grpc or http)")

	root.AddCommand(
		newMountCommand(opts),
		newServeCommand(opts),
		newCatCommand(opts),
		newSumCommand(opts),
		newVersionCommand(),
	)
	return root
}

func addRemoteFlag(cmd *cobra.Command, opts *globalOptions) {
	cmd.Flags().StringVar(&opts.remote, "remote", "", "Address of a running sizefs server; empty runs in process")
}

// loadConfig reads the config file when one is given and applies the
// command line overrides on top.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if o.configPath != "" {
		loaded, err := config.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.communicator != "" {
		cfg.Remote.Communicator = o.communicator
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openFileSystem returns the remote server named by --remote, or a fresh
// in-process stack. The returned func releases it.
func (o *globalOptions) openFileSystem() (sizelib.FileSystem, func() error, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return sizelib.Open(cfg, o.remote)
}
