package testsupp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/otiai10/copy"
	"github.com/stretchr/testify/require"
)

// CopyFixture copies a testdata fixture tree into a fresh temp directory and
// returns its path. Tests that rewrite or break fixture files work on the
// copy, never on the checked-in tree.
func CopyFixture(t *testing.T, fixture string) string {
	t.Helper()

	dst := filepath.Join(t.TempDir(), filepath.Base(fixture))
	require.NoError(t, copy.Copy(fixture, dst))
	return dst
}

// WriteTree materializes a map of relative path -> file content under a
// fresh temp directory. Keys ending in a separator create bare directories.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if rel[len(rel)-1] == '/' {
			require.NoError(t, os.MkdirAll(abs, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	return root
}
