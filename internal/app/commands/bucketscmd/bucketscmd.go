package bucketscmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/scoopq/scoopq/internal/app/command"
	"github.com/scoopq/scoopq/pkg/bucket"
	"github.com/scoopq/scoopq/pkg/output"
)

func New(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buckets",
		Short: "list configured buckets with manifest counts and fingerprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WrapError("list buckets", execute(ctx, cmd))
		},
	}
	return cmd
}

func execute(_ context.Context, cmd *cobra.Command) error {
	paths, err := command.ResolvePaths(cmd)
	if err != nil {
		return err
	}

	buckets, err := bucket.Discover(paths.BucketsRoot)
	if err != nil {
		return fmt.Errorf("discover buckets: %w", err)
	}

	infos := make([]output.BucketInfo, 0, len(buckets))
	for _, bkt := range buckets {
		files, scanErrs := bkt.ManifestFiles()
		for _, scanErr := range scanErrs {
			slog.Warn("bucket scan issue", slog.String("bucket", bkt.Name), slog.String("error", scanErr.Error()))
		}

		hash, err := bkt.ContentHash()
		if err != nil {
			slog.Warn("bucket fingerprint failed", slog.String("bucket", bkt.Name), slog.String("error", err.Error()))
			hash = "(unavailable)"
		}

		infos = append(infos, output.BucketInfo{
			Name:        bkt.Name,
			Manifests:   len(files),
			Fingerprint: hash,
		})
	}

	outOpts, err := command.OutputOptions(cmd)
	if err != nil {
		return err
	}
	return output.WriteBuckets(cmd.OutOrStdout(), infos, outOpts)
}
