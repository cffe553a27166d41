package verifycmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/scoopq/scoopq/internal/app/command"
	"github.com/scoopq/scoopq/pkg/bucket"
	"github.com/scoopq/scoopq/pkg/schema"
)

func New(ctx context.Context) *cobra.Command {
	var bucketName string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "validate bucket manifests against the manifest schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WrapError("verify manifests", execute(ctx, cmd, bucketName))
		},
	}

	cmd.Flags().StringVarP(&bucketName, "bucket", "b", "", "only verify the given bucket")
	return cmd
}

func execute(_ context.Context, cmd *cobra.Command, bucketName string) error {
	paths, err := command.ResolvePaths(cmd)
	if err != nil {
		return err
	}

	buckets, err := bucket.Discover(paths.BucketsRoot)
	if err != nil {
		return fmt.Errorf("discover buckets: %w", err)
	}

	validator, err := schema.New()
	if err != nil {
		return err
	}

	var violations []*schema.Violation
	checked := 0
	for _, bkt := range buckets {
		if bucketName != "" && bkt.Name != bucketName {
			continue
		}
		files, scanErrs := bkt.ManifestFiles()
		for _, scanErr := range scanErrs {
			slog.Warn("bucket scan issue", slog.String("bucket", bkt.Name), slog.String("error", scanErr.Error()))
		}

		for _, path := range files {
			violation, err := validator.ValidateFile(path, bkt.Name)
			if err != nil {
				slog.Warn("manifest unreadable", slog.String("path", path), slog.String("error", err.Error()))
				continue
			}
			checked++
			if violation != nil {
				violations = append(violations, violation)
			}
		}
	}

	outOpts, err := command.OutputOptions(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outOpts.JSON {
		data, err := json.MarshalIndent(violations, "", "  ")
		if err != nil {
			return fmt.Errorf("encode violations: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	for _, violation := range violations {
		fmt.Fprintf(out, "%s (%s):\n", violation.Path, violation.Bucket)
		for _, problem := range violation.Problems {
			fmt.Fprintf(out, "  - %s\n", problem)
		}
	}
	fmt.Fprintf(out, "%d manifests checked, %d with schema violations\n", checked, len(violations))

	return nil
}
