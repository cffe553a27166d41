package command

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/scoopq/scoopq/pkg/bucket"
	"github.com/scoopq/scoopq/pkg/index"
	"github.com/scoopq/scoopq/pkg/installed"
	"github.com/scoopq/scoopq/pkg/output"
	"github.com/scoopq/scoopq/pkg/query"
	"github.com/scoopq/scoopq/pkg/scooppath"
)

const (
	rootFlag = "root"
	jsonFlag = "json"
)

// AddRootFlags registers the persistent flags every subcommand shares.
func AddRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(rootFlag, "r", "", "package-manager installation root (defaults to $SCOOP, then ~/scoop)")
	cmd.PersistentFlags().Bool(jsonFlag, false, "print raw JSON instead of a table")
}

// ResolvePaths turns the root flag into validated installation paths.
func ResolvePaths(cmd *cobra.Command) (scooppath.Paths, error) {
	root, err := cmd.Flags().GetString(rootFlag)
	if err != nil {
		return scooppath.Paths{}, fmt.Errorf("get root flag: %w", err)
	}
	return scooppath.Resolve(root)
}

// OutputOptions derives the rendering options from flags and the terminal.
func OutputOptions(cmd *cobra.Command) (output.Options, error) {
	jsonMode, err := cmd.Flags().GetBool(jsonFlag)
	if err != nil {
		return output.Options{}, fmt.Errorf("get json flag: %w", err)
	}
	return output.Options{
		JSON:  jsonMode,
		Color: isatty.IsTerminal(os.Stdout.Fd()),
	}, nil
}

// NewEngine builds the index and installed state for one invocation and
// returns a query engine over them. This is the whole fast path: two
// parallel filesystem scans, no network, nothing persisted.
func NewEngine(ctx context.Context, paths scooppath.Paths) (*query.Engine, error) {
	buckets, err := bucket.Discover(paths.BucketsRoot)
	if err != nil {
		return nil, fmt.Errorf("discover buckets: %w", err)
	}

	idx, err := index.NewBuilder(buckets).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	state, err := installed.Scan(ctx, paths.AppsRoot, 0)
	if err != nil {
		return nil, fmt.Errorf("scan installed apps: %w", err)
	}

	// Non-fatal filesystem trouble never aborts a query but must not
	// vanish either.
	for _, serr := range idx.ScanErrors() {
		slog.Warn("Skipping unreadable bucket path", slog.String("error", serr.Error()))
	}
	for _, serr := range state.ScanErrors() {
		slog.Warn("Installed app state is incomplete", slog.String("error", serr.Error()))
	}

	return query.New(idx, state), nil
}
