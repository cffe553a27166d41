package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scoopq/scoopq/pkg/bucket"
	"github.com/scoopq/scoopq/pkg/manifest"
	"github.com/scoopq/scoopq/pkg/testsupp"
)

func buildIndex(t *testing.T, files map[string]string, opts ...Option) *Index {
	t.Helper()

	root := testsupp.WriteTree(t, files)
	buckets, err := bucket.Discover(root)
	require.NoError(t, err)

	idx, err := NewBuilder(buckets, opts...).Build(context.Background())
	require.NoError(t, err)
	return idx
}

func TestBuild_NoBuckets(t *testing.T) {
	_, err := NewBuilder(nil).Build(context.Background())
	require.ErrorIs(t, err, ErrNoBuckets)
}

func TestBuild_IndexesAllBuckets(t *testing.T) {
	idx := buildIndex(t, map[string]string{
		"main/bucket/git.json":   `{"version": "2.44.0", "description": "distributed version control"}`,
		"main/bucket/curl.json":  `{"version": "8.1.0"}`,
		"extras/bucket/vlc.json": `{"version": "3.0.20"}`,
	})

	require.Equal(t, 3, idx.Len())
	require.Equal(t, []string{"curl", "git", "vlc"}, idx.Names())
	require.Empty(t, idx.ParseErrors())

	entries := idx.Lookup("git")
	require.Len(t, entries, 1)
	require.Equal(t, "main", entries[0].Bucket)
	require.Equal(t, "2.44.0", entries[0].Manifest.Version)
}

func TestBuild_CrossBucketDuplicates(t *testing.T) {
	idx := buildIndex(t, map[string]string{
		"zeta/bucket/tool.json":  `{"version": "2.0"}`,
		"alpha/bucket/tool.json": `{"version": "1.0"}`,
	})

	entries := idx.Lookup("tool")
	require.Len(t, entries, 2)
	// Entries for one name are ordered by bucket.
	require.Equal(t, "alpha", entries[0].Bucket)
	require.Equal(t, "zeta", entries[1].Bucket)

	entry, ok := idx.LookupIn("zeta", "tool")
	require.True(t, ok)
	require.Equal(t, "2.0", entry.Manifest.Version)
}

func TestBuild_ParseErrorsAccumulate(t *testing.T) {
	idx := buildIndex(t, map[string]string{
		"main/bucket/good.json":    `{"version": "1.0"}`,
		"main/bucket/broken.json":  `{"version": `,
		"main/bucket/naked.json":   `{"description": "no version"}`,
		"main/bucket/also-ok.json": `{"version": "2.0"}`,
	})

	// Invalid files never block valid ones.
	require.Equal(t, 2, idx.Len())
	require.Len(t, idx.ParseErrors(), 2)

	kinds := map[string]manifest.ErrorKind{}
	for _, perr := range idx.ParseErrors() {
		kinds[perr.Name] = perr.Kind
	}
	require.Equal(t, manifest.KindSyntax, kinds["broken"])
	require.Equal(t, manifest.KindMissingVersion, kinds["naked"])
}

func TestBuild_Deterministic(t *testing.T) {
	files := map[string]string{
		"main/bucket/git.json":     `{"version": "2.44.0", "description": "version control"}`,
		"main/bucket/curl.json":    `{"version": "8.1.0", "description": "transfer data"}`,
		"main/bucket/ripgrep.json": `{"version": "14.1.0", "bin": "rg.exe"}`,
		"extras/bucket/vlc.json":   `{"version": "3.0.20"}`,
		"extras/bucket/git.json":   `{"version": "2.43.0"}`,
	}
	root := testsupp.WriteTree(t, files)
	buckets, err := bucket.Discover(root)
	require.NoError(t, err)

	first, err := NewBuilder(buckets, WithWorkers(8)).Build(context.Background())
	require.NoError(t, err)
	second, err := NewBuilder(buckets, WithWorkers(1)).Build(context.Background())
	require.NoError(t, err)

	require.Equal(t, first.Names(), second.Names())
	require.Equal(t, first.Checksum(), second.Checksum())
}

func TestTermMatches(t *testing.T) {
	idx := buildIndex(t, map[string]string{
		"main/bucket/ripgrep.json": `{"version": "14.1.0", "description": "recursively search directories", "bin": "rg.exe"}`,
		"main/bucket/git.json":     `{"version": "2.44.0", "description": "distributed version control"}`,
	})

	require.Equal(t, []string{"ripgrep"}, idx.TermMatches("search"))
	require.Equal(t, []string{"git"}, idx.TermMatches("DISTRIBUTED"))
	require.Empty(t, idx.TermMatches("nonexistent"))
}

func TestBuild_Cancelled(t *testing.T) {
	root := testsupp.WriteTree(t, map[string]string{
		"main/bucket/a.json": `{"version": "1.0"}`,
	})
	buckets, err := bucket.Discover(root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewBuilder(buckets).Build(ctx)
	require.Error(t, err)
}

func TestEntryCountAndWalkOrder(t *testing.T) {
	idx := buildIndex(t, map[string]string{
		"b/bucket/x.json": `{"version": "1.0"}`,
		"a/bucket/x.json": `{"version": "1.0"}`,
		"a/bucket/y.json": `{"version": "1.0"}`,
	})

	require.Equal(t, 2, idx.Len())
	require.Equal(t, 3, idx.EntryCount())

	var order []string
	idx.Walk(func(entry Entry) {
		order = append(order, entry.Bucket+"/"+entry.Manifest.Name)
	})
	require.Equal(t, []string{"a/x", "b/x", "a/y"}, order)
}
