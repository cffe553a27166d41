package listcmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scoopq/scoopq/internal/app/command"
	"github.com/scoopq/scoopq/pkg/output"
	"github.com/scoopq/scoopq/pkg/query"
)

func New(ctx context.Context) *cobra.Command {
	var bucketName string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WrapError("list installed packages", execute(ctx, cmd, bucketName))
		},
	}

	cmd.Flags().StringVarP(&bucketName, "bucket", "b", "", "only list packages installed from the given bucket")
	return cmd
}

func execute(ctx context.Context, cmd *cobra.Command, bucketName string) error {
	paths, err := command.ResolvePaths(cmd)
	if err != nil {
		return err
	}

	engine, err := command.NewEngine(ctx, paths)
	if err != nil {
		return err
	}

	res, err := engine.List(query.Options{Bucket: bucketName})
	if err != nil {
		return fmt.Errorf("list installed packages: %w", err)
	}

	outOpts, err := command.OutputOptions(cmd)
	if err != nil {
		return err
	}
	if err := output.WriteList(cmd.OutOrStdout(), res, outOpts); err != nil {
		return err
	}

	output.ErrorSummary(os.Stderr, len(res.ParseErrors))
	return nil
}
