package outdatedcmd

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
		Use:   "outdated",
		Short: "list installed packages with a newer version in their bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WrapError("report outdated packages", execute(ctx, cmd, bucketName))
		},
	}

	cmd.Flags().StringVarP(&bucketName, "bucket", "b", "", "only check packages from the given bucket")
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

	res, err := engine.Outdated(query.Options{Bucket: bucketName})
	if err != nil {
		return fmt.Errorf("check outdated packages: %w", err)
	}

	outOpts, err := command.OutputOptions(cmd)
	if err != nil {
		return err
	}
	if err := output.WriteOutdated(cmd.OutOrStdout(), res, outOpts); err != nil {
		return err
	}

	output.ErrorSummary(os.Stderr, len(res.ParseErrors))
	return nil
}
