package scooppath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func validRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "buckets"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "apps"), 0o755))
	return root
}

func TestFromRoot(t *testing.T) {
	root := validRoot(t)

	paths, err := FromRoot(root)
	require.NoError(t, err)
	require.Equal(t, root, paths.Root)
	require.Equal(t, filepath.Join(root, "buckets"), paths.BucketsRoot)
	require.Equal(t, filepath.Join(root, "apps"), paths.AppsRoot)
}

func TestFromRoot_MissingRootIsConfigError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	_, err := FromRoot(missing)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, missing, cfgErr.Path)
}

func TestFromRoot_MissingBucketsDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "apps"), 0o755))

	_, err := FromRoot(root)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, filepath.Join(root, "buckets"), cfgErr.Path)
}

func TestResolve_ExplicitWinsOverEnv(t *testing.T) {
	explicit := validRoot(t)
	other := validRoot(t)
	t.Setenv(EnvRoot, other)

	paths, err := Resolve(explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, paths.Root)
}

func TestResolve_Env(t *testing.T) {
	root := validRoot(t)
	t.Setenv(EnvRoot, root)

	paths, err := Resolve("")
	require.NoError(t, err)
	require.Equal(t, root, paths.Root)
}
