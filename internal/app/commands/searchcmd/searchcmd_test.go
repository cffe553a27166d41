package searchcmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/scoopq/scoopq/internal/app/command"
	"github.com/scoopq/scoopq/pkg/testsupp"
)

func scoopRoot(t *testing.T) string {
	t.Helper()

	return testsupp.WriteTree(t, map[string]string{
		"buckets/main/bucket/git.json":    `{"version": "2.44.0"}`,
		"buckets/main/bucket/foobar.json": `{"version": "1.0"}`,
		"apps/":                           "",
	})
}

func runSearch(t *testing.T, root string, args ...string) string {
	t.Helper()
	testsupp.InitLog(t)

	cmd := &cobra.Command{Use: "scoopq"}
	command.AddRootFlags(cmd)
	cmd.AddCommand(New(context.Background()))

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"search", "--root", root}, args...))
	require.NoError(t, cmd.Execute())
	return buf.String()
}

func TestExecute_BucketQualifier(t *testing.T) {
	out := runSearch(t, scoopRoot(t), "main/git")
	require.Contains(t, out, "git")
	require.NotContains(t, out, "No matches found.")
}

func TestExecute_RegexKeepsSlashes(t *testing.T) {
	// A slash inside a regular expression must not be mistaken for a
	// bucket qualifier.
	out := runSearch(t, scoopRoot(t), "--regex", "foo/?bar")
	require.Contains(t, out, "foobar")
	require.NotContains(t, out, "No matches found.")
}
