package testsupp

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/dusted-go/logging/prettylog"
	slogformatter "github.com/samber/slog-formatter"
)

// InitLog routes the default slog logger through the same pretty handler the
// CLI installs, at debug level, for the duration of one test. The previous
// default logger is restored on cleanup so tests never leak handlers into
// each other.
func InitLog(t *testing.T) {
	t.Helper()

	handler := slogformatter.NewFormatterHandler(
		slogformatter.FormatByType(func(s []string) slog.Value {
			return slog.StringValue(strings.Join(s, ","))
		}),
	)(
		prettylog.New(
			&slog.HandlerOptions{Level: slog.LevelDebug},
			prettylog.WithDestinationWriter(os.Stdout),
		),
	)

	prev := slog.Default()
	slog.SetDefault(slog.New(handler))
	t.Cleanup(func() { slog.SetDefault(prev) })
}
