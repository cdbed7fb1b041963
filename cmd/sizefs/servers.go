package main

import (
	"github.com/AnishMulay/sizefs/servers/mount"
	"github.com/AnishMulay/sizefs/servers/remote"
	"github.com/spf13/cobra"
)

func newMountCommand(opts *globalOptions) *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "mount <mountpoint>",
		Short: "Mount SizeFS with FUSE and serve until unmounted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			cfg.Mount.Mountpoint = args[0]

			server, err := mount.Build(mount.Options{Config: cfg, Debug: debug})
			if err != nil {
				return err
			}
			return server.Run()
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "Trace FUSE requests")
	return cmd
}

func newServeCommand(opts *globalOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve SizeFS over the message protocol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Remote.Listen = listen
			}

			server, err := remote.Build(remote.Options{Config: cfg})
			if err != nil {
				return err
			}
			return server.Run()
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address, overriding remote.listen")
	return cmd
}
