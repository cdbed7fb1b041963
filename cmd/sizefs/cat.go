package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	sizelib "github.com/AnishMulay/sizefs/clients/library"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

const catChunkSize = 64 << 10

type catOptions struct {
	offset uint64
	length uint64
	rate   int
}

func newCatCommand(opts *globalOptions) *cobra.Command {
	catOpts := &catOptions{}
	cmd := &cobra.Command{
		Use:   "cat <path>",
		Short: "Write the generated content of a file to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, closeFS, err := opts.openFileSystem()
			if err != nil {
				return err
			}
			defer closeFS()
			return runCat(cmd.Context(), fsys, args[0], catOpts, cmd.OutOrStdout())
		},
	}
	flags := cmd.Flags()
	flags.Uint64Var(&catOpts.offset, "offset", 0, "Byte offset to start at")
	flags.Uint64Var(&catOpts.length, "length", 0, "Bytes to write; 0 writes to the end")
	flags.IntVar(&catOpts.rate, "rate", 0, "Throttle output to this many bytes per second; 0 is unlimited")
	addRemoteFlag(cmd, opts)
	return cmd
}

func runCat(ctx context.Context, fsys sizelib.FileSystem, path string, opts *catOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.rate < 0 {
		return fmt.Errorf("--rate must not be negative")
	}

	chunk := catChunkSize
	var limiter *rate.Limiter
	if opts.rate > 0 {
		chunk = min(chunk, opts.rate)
		limiter = rate.NewLimiter(rate.Limit(opts.rate), chunk)
	}

	r, err := sizelib.NewReader(ctx, fsys, path, opts.offset, opts.length, chunk)
	if err != nil {
		return err
	}

	buf := make([]byte, chunk)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if limiter != nil {
				if err := limiter.WaitN(ctx, n); err != nil {
					return err
				}
			}
			if _, err := out.Write(buf[:n]); err != nil {
				return err
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
