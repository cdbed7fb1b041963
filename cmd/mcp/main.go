package main

import (
	"fmt"
	"os"

	sizelib "github.com/AnishMulay/sizefs/clients/library"
	"github.com/AnishMulay/sizefs/internal/config"
	"github.com/AnishMulay/sizefs/internal/log_service"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

const serverVersion = "0.1.0"

func newRootCommand() *cobra.Command {
	var (
		configPath   string
		remoteAddr   string
		communicator string
	)
	cmd := &cobra.Command{
		Use:           "sizefs-mcp",
		Short:         "Expose SizeFS to MCP clients over stdio",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultConfig()
			if configPath != "" {
				loaded, err := config.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if communicator != "" {
				cfg.Remote.Communicator = communicator
			}
			// stdout carries the protocol; keep logs quiet on stderr.
			if cfg.Log.Level == log_service.InfoLevel || cfg.Log.Level == log_service.DebugLevel {
				cfg.Log.Level = log_service.WarnLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			fsys, closeFS, err := sizelib.Open(cfg, remoteAddr)
			if err != nil {
				return err
			}
			defer closeFS()

			s := server.NewMCPServer(
				"sizefs",
				serverVersion,
				server.WithToolCapabilities(false),
			)
			addTools(s, &ToolRegistry{FS: fsys})

			return server.ServeStdio(s)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "YAML config file, written with defaults if missing")
	flags.StringVar(&remoteAddr, "remote", "", "Address of a running sizefs server; empty runs in process")
	flags.StringVar(&communicator, "communicator", "", "Message transport for --remote (grpc or http)")
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sizefs-mcp:", err)
		os.Exit(1)
	}
}
