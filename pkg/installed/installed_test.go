package installed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scoopq/scoopq/pkg/testsupp"
)

func scanTree(t *testing.T, files map[string]string) *State {
	t.Helper()

	root := testsupp.WriteTree(t, files)
	st, err := Scan(context.Background(), root, 4)
	require.NoError(t, err)
	return st
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "nope"), 1)
	require.Error(t, err)
}

func TestScan_MarkerFile(t *testing.T) {
	st := scanTree(t, map[string]string{
		"git/2.40.0/manifest.json": `{"version": "2.40.0", "description": "vcs"}`,
		"git/2.40.0/install.json":  `{"bucket": "main", "hold": false}`,
		"git/current":              "2.40.0",
	})

	app, ok := st.Lookup("git")
	require.True(t, ok)
	require.True(t, app.VersionKnown)
	require.Equal(t, "2.40.0", app.Version)
	require.Equal(t, "main", app.Bucket)
	require.False(t, app.Held)
	require.NotNil(t, app.Manifest)
}

func TestScan_CurrentDirectory(t *testing.T) {
	st := scanTree(t, map[string]string{
		"jq/current/manifest.json": `{"version": "1.7.1"}`,
		"jq/current/install.json":  `{"bucket": "main"}`,
	})

	app, ok := st.Lookup("jq")
	require.True(t, ok)
	require.True(t, app.VersionKnown)
	require.Equal(t, "1.7.1", app.Version)
}

func TestScan_SingleVersionFallback(t *testing.T) {
	st := scanTree(t, map[string]string{
		"curl/8.1.0/manifest.json": `{"version": "8.1.0"}`,
		"curl/8.1.0/install.json":  `{"bucket": "main"}`,
	})

	app, ok := st.Lookup("curl")
	require.True(t, ok)
	require.True(t, app.VersionKnown)
	require.Equal(t, "8.1.0", app.Version)
	require.Equal(t, "main", app.Bucket)
}

func TestScan_UnknownVersionTolerated(t *testing.T) {
	st := scanTree(t, map[string]string{
		"mystery/1.0/readme.txt": "no marker, two versions",
		"mystery/2.0/readme.txt": "ambiguous",
	})

	app, ok := st.Lookup("mystery")
	require.True(t, ok)
	require.False(t, app.VersionKnown)
	require.Empty(t, app.Version)
}

func TestScan_HeldFlagForms(t *testing.T) {
	st := scanTree(t, map[string]string{
		"a/1.0/install.json":  `{"bucket": "main", "hold": true}`,
		"a/1.0/manifest.json": `{"version": "1.0"}`,
		"b/1.0/install.json":  `{"bucket": "main", "hold": "true"}`,
		"b/1.0/manifest.json": `{"version": "1.0"}`,
	})

	a, ok := st.Lookup("a")
	require.True(t, ok)
	require.True(t, a.Held)

	b, ok := st.Lookup("b")
	require.True(t, ok)
	require.True(t, b.Held)
}

func TestScan_SkipsScoopItself(t *testing.T) {
	st := scanTree(t, map[string]string{
		"scoop/current/x.txt":   "the package manager itself",
		"git/1.0/manifest.json": `{"version": "1.0"}`,
	})

	_, ok := st.Lookup("scoop")
	require.False(t, ok)
	require.Equal(t, 1, st.Len())
}

func TestScan_BrokenCurrentMarkerRecorded(t *testing.T) {
	root := testsupp.WriteTree(t, map[string]string{
		"git/1.0/manifest.json": `{"version": "1.0"}`,
		"git/2.0/manifest.json": `{"version": "2.0"}`,
	})
	require.NoError(t, os.Symlink(filepath.Join(root, "git", "missing"), filepath.Join(root, "git", "current")))

	st, err := Scan(context.Background(), root, 1)
	require.NoError(t, err)
	require.Len(t, st.ScanErrors(), 1)
	require.ErrorContains(t, st.ScanErrors()[0], "current")

	// Two version directories and a dead marker leave the version unknown,
	// but the app still counts as installed.
	app, ok := st.Lookup("git")
	require.True(t, ok)
	require.False(t, app.VersionKnown)
}

func TestScan_BrokenSnapshotAccumulates(t *testing.T) {
	st := scanTree(t, map[string]string{
		"bad/1.0/manifest.json":  `{"version": `,
		"bad/1.0/install.json":   `{"bucket": "main"}`,
		"good/1.0/manifest.json": `{"version": "1.0"}`,
	})

	require.Len(t, st.ParseErrors(), 1)

	// Still installed, version known from the single version directory.
	app, ok := st.Lookup("bad")
	require.True(t, ok)
	require.True(t, app.VersionKnown)
	require.Equal(t, "1.0", app.Version)
	require.Equal(t, "main", app.Bucket)
	require.Nil(t, app.Manifest)
}

func TestApps_SortedByName(t *testing.T) {
	st := scanTree(t, map[string]string{
		"zlib/1.3/manifest.json": `{"version": "1.3"}`,
		"curl/8.0/manifest.json": `{"version": "8.0"}`,
		"git/2.0/manifest.json":  `{"version": "2.0"}`,
	})

	var names []string
	for _, app := range st.Apps() {
		names = append(names, app.Name)
	}
	require.Equal(t, []string{"curl", "git", "zlib"}, names)
}
