package searchcmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scoopq/scoopq/internal/app/command"
	"github.com/scoopq/scoopq/pkg/output"
	"github.com/scoopq/scoopq/pkg/query"
)

type searchOptions struct {
	bucket        string
	installed     bool
	mode          string
	caseSensitive bool
	regex         bool
	fuzzy         bool
}

func New(ctx context.Context) *cobra.Command {
	opts := searchOptions{}
	cmd := &cobra.Command{
		Use:   "search [pattern]",
		Short: "search for packages across all buckets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) > 0 {
				pattern = args[0]
			}
			return command.WrapError("search packages", execute(ctx, cmd, pattern, opts))
		},
	}

	cmd.Flags().StringVarP(&opts.bucket, "bucket", "b", "", "search only the given bucket")
	cmd.Flags().BoolVarP(&opts.installed, "installed", "i", false, "only show installed packages")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "both", "match against name, binary, or both")
	cmd.Flags().BoolVarP(&opts.caseSensitive, "case-sensitive", "c", false, "match case-sensitively")
	cmd.Flags().BoolVar(&opts.regex, "regex", false, "treat the pattern as a regular expression")
	cmd.Flags().BoolVar(&opts.fuzzy, "fuzzy", false, "include fuzzy name matches")
	return cmd
}

func execute(ctx context.Context, cmd *cobra.Command, pattern string, opts searchOptions) error {
	mode, err := query.ParseMatchMode(opts.mode)
	if err != nil {
		return err
	}

	// bucket/pattern qualification; the explicit flag wins. A slash inside
	// a regular expression is part of the pattern, not a qualifier.
	if !opts.regex {
		if prefix, rest, ok := strings.Cut(pattern, "/"); ok {
			if opts.bucket == "" {
				opts.bucket = prefix
			}
			pattern = rest
		}
	}

	paths, err := command.ResolvePaths(cmd)
	if err != nil {
		return err
	}

	engine, err := command.NewEngine(ctx, paths)
	if err != nil {
		return err
	}

	res, err := engine.Search(pattern, query.Options{
		Bucket:        opts.bucket,
		InstalledOnly: opts.installed,
		Mode:          mode,
		CaseSensitive: opts.caseSensitive,
		Regex:         opts.regex,
		Fuzzy:         opts.fuzzy,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	outOpts, err := command.OutputOptions(cmd)
	if err != nil {
		return err
	}
	if err := output.WriteSearch(cmd.OutOrStdout(), res, outOpts); err != nil {
		return err
	}

	slog.Debug("search finished", slog.Int("matches", len(res.Matches)), slog.Int("parse_errors", len(res.ParseErrors)))
	output.ErrorSummary(os.Stderr, len(res.ParseErrors))

	return nil
}
