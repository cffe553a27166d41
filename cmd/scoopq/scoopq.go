package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/acronis/go-stacktrace"
	slogex "github.com/acronis/go-stacktrace/slogex"
	"github.com/dusted-go/logging/prettylog"
	"github.com/mattn/go-isatty"
	slogformatter "github.com/samber/slog-formatter"
	"github.com/spf13/cobra"

	"github.com/scoopq/scoopq/internal/app/command"
	"github.com/scoopq/scoopq/internal/app/commands/bucketscmd"
	"github.com/scoopq/scoopq/internal/app/commands/infocmd"
	"github.com/scoopq/scoopq/internal/app/commands/listcmd"
	"github.com/scoopq/scoopq/internal/app/commands/outdatedcmd"
	"github.com/scoopq/scoopq/internal/app/commands/searchcmd"
	"github.com/scoopq/scoopq/internal/app/commands/verifycmd"
	"github.com/scoopq/scoopq/pkg/scooppath"
)

var version = "dev"

func initLogging(verbose bool) {
	logLvl := func() slog.Level {
		if verbose {
			return slog.LevelDebug
		}
		return slog.LevelWarn
	}()
	w := os.Stderr

	logger := slog.New(
		slogformatter.NewFormatterHandler(
			slogformatter.FormatByType(func(s []string) slog.Value {
				return slog.StringValue(strings.Join(s, ","))
			}),
		)(
			prettylog.New(&slog.HandlerOptions{Level: logLvl},
				prettylog.WithDestinationWriter(w),
				func() prettylog.Option {
					if isatty.IsTerminal(w.Fd()) {
						return prettylog.WithColor()
					}
					return func(_ *prettylog.Handler) {}
				}(),
			),
		),
	)
	slog.SetDefault(logger)
}

const (
	verboseFlag = "verbose"
)

func main() {
	os.Exit(mainFn())
}

func mainFn() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := func() *cobra.Command {
		cmd := &cobra.Command{
			Use:           "scoopq",
			Short:         "scoopq queries an existing scoop installation, fast",
			SilenceUsage:  true,
			SilenceErrors: true,
			PersistentPreRun: func(cmd *cobra.Command, _ []string) {
				verbose, err := cmd.Flags().GetBool(verboseFlag)
				if err != nil {
					fmt.Printf("Failed to get verbosity flag: %v\n", err)
					os.Exit(1)
				}

				initLogging(verbose)
			},
			CompletionOptions: cobra.CompletionOptions{
				DisableDefaultCmd: true,
			},
		}

		command.AddRootFlags(cmd)
		cmd.PersistentFlags().BoolP(verboseFlag, "v", false, "verbose output")

		cmd.AddCommand(
			searchcmd.New(ctx),
			listcmd.New(ctx),
			infocmd.New(ctx),
			outdatedcmd.New(ctx),
			bucketscmd.New(ctx),
			verifycmd.New(ctx),
			&cobra.Command{
				Use:   "version",
				Short: "print the tool version",
				Args:  cobra.NoArgs,
				RunE: func(cmd *cobra.Command, _ []string) error {
					fmt.Fprintln(cmd.OutOrStdout(), version)
					return nil
				},
			},
		)
		return cmd
	}()

	if err := rootCmd.Execute(); err != nil {
		var cmdErr *command.Error
		switch {
		case errors.As(err, &cmdErr) && cmdErr.Inner != nil:
			var cfgErr *scooppath.ConfigError
			if errors.As(cmdErr.Inner, &cfgErr) {
				slog.Error("Installation not found", slog.String("path", cfgErr.Path))
			} else {
				slog.Error("Command failed",
					slog.String("op", cmdErr.Msg),
					slogex.ErrToSlogAttr(cmdErr.Inner, []stacktrace.TracesOpt{}...))
			}
		default:
			_ = rootCmd.Usage()
		}
		return 1
	}

	return 0
}
