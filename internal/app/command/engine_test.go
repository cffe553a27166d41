package command

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scoopq/scoopq/pkg/query"
	"github.com/scoopq/scoopq/pkg/scooppath"
	"github.com/scoopq/scoopq/pkg/testsupp"
)

func TestNewEngine(t *testing.T) {
	testsupp.InitLog(t)

	root := t.TempDir()
	bucketDir := filepath.Join(root, "buckets", "main", "bucket")
	require.NoError(t, os.MkdirAll(bucketDir, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "apps"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bucketDir, "git.json"), []byte(`{"version": "2.44.0"}`), 0o644))

	paths, err := scooppath.FromRoot(root)
	require.NoError(t, err)

	engine, err := NewEngine(context.Background(), paths)
	require.NoError(t, err)

	res, err := engine.Search("git", query.Options{})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
}

func TestNewEngine_EmptyBucketsRootIsConfigError(t *testing.T) {
	testsupp.InitLog(t)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "buckets"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "apps"), 0o755))

	paths, err := scooppath.FromRoot(root)
	require.NoError(t, err)

	_, err = NewEngine(context.Background(), paths)
	require.Error(t, err)
}

func TestNewEngine_WarnsOnScanIssues(t *testing.T) {
	var logBuf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logBuf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	root := t.TempDir()
	bucketDir := filepath.Join(root, "buckets", "main", "bucket")
	require.NoError(t, os.MkdirAll(bucketDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bucketDir, "git.json"), []byte(`{"version": "2.44.0"}`), 0o644))

	// An app with a dangling current marker and two version directories has
	// no resolvable version; the engine still builds but must say why.
	appDir := filepath.Join(root, "apps", "git")
	require.NoError(t, os.MkdirAll(filepath.Join(appDir, "1.0"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(appDir, "2.0"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(appDir, "missing"), filepath.Join(appDir, "current")))

	paths, err := scooppath.FromRoot(root)
	require.NoError(t, err)

	_, err = NewEngine(context.Background(), paths)
	require.NoError(t, err)
	require.Contains(t, logBuf.String(), "Installed app state is incomplete")
	require.Contains(t, logBuf.String(), "current")
}
