package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"runtime"

	sizelib "github.com/AnishMulay/sizefs/clients/library"
	"github.com/spf13/cobra"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"
)

const sumChunkSize = 1 << 20

func newSumCommand(opts *globalOptions) *cobra.Command {
	var jobs int
	cmd := &cobra.Command{
		Use:   "sum <path>...",
		Short: "Print the BLAKE3 digest of each file's generated content",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, closeFS, err := opts.openFileSystem()
			if err != nil {
				return err
			}
			defer closeFS()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			sums, err := sumFiles(ctx, fsys, args, jobs)
			if err != nil {
				return err
			}
			for i, path := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", sums[i], path)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&jobs, "jobs", runtime.NumCPU(), "Files hashed at once")
	addRemoteFlag(cmd, opts)
	return cmd
}

// sumFiles hashes paths concurrently and returns hex digests in the same
// order.
func sumFiles(ctx context.Context, fsys sizelib.FileSystem, paths []string, jobs int) ([]string, error) {
	sums := make([]string, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}

	for i, path := range paths {
		g.Go(func() error {
			r, err := sizelib.NewReader(ctx, fsys, path, 0, 0, sumChunkSize)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			h := blake3.New()
			if _, err := io.CopyBuffer(h, r, make([]byte, sumChunkSize)); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			sums[i] = hex.EncodeToString(h.Sum(nil))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sums, nil
}
