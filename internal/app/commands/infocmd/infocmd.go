package infocmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/scoopq/scoopq/internal/app/command"
	"github.com/scoopq/scoopq/pkg/output"
	"github.com/scoopq/scoopq/pkg/query"
	"github.com/scoopq/scoopq/pkg/remote"
)

type infoOptions struct {
	bucket  string
	timeout time.Duration
}

func New(ctx context.Context) *cobra.Command {
	opts := infoOptions{}
	cmd := &cobra.Command{
		Use:   "info <name>",
		Short: "show detailed information about a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return command.WrapError("show package info", execute(ctx, cmd, args[0], opts))
		},
	}

	cmd.Flags().StringVarP(&opts.bucket, "bucket", "b", "", "look up the package in the given bucket only")
	cmd.Flags().DurationVar(&opts.timeout, "check-timeout", remote.DefaultTimeout, "per-package timeout for the upstream probe")
	return cmd
}

func execute(ctx context.Context, cmd *cobra.Command, name string, opts infoOptions) error {
	paths, err := command.ResolvePaths(cmd)
	if err != nil {
		return err
	}

	engine, err := command.NewEngine(ctx, paths)
	if err != nil {
		return err
	}

	// The slow upstream probe rides on the global --verbose flag; plain
	// info never leaves the filesystem.
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return fmt.Errorf("get verbose flag: %w", err)
	}

	infoOpts := query.InfoOptions{Bucket: opts.bucket}
	if verbose {
		infoOpts.Remote = remote.New(remote.WithTimeout(opts.timeout))
	}

	res, err := engine.Info(ctx, name, infoOpts)
	if err != nil {
		return fmt.Errorf("look up package %q: %w", name, err)
	}

	outOpts, err := command.OutputOptions(cmd)
	if err != nil {
		return err
	}
	if err := output.WriteInfo(cmd.OutOrStdout(), res, outOpts); err != nil {
		return err
	}

	output.ErrorSummary(os.Stderr, len(res.ParseErrors))
	return nil
}
