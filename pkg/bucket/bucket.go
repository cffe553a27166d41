// Package bucket discovers manifest buckets on disk and enumerates the
// manifest files they contain.
package bucket

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Bucket is one named collection of manifests, backed by a directory. Dir is
// the directory that actually holds the manifest files: by convention a
// bucket keeps them under a "bucket" subfolder, with the bucket root itself
// as fallback.
type Bucket struct {
	Name string
	Root string
	Dir  string
}

// Discover lists the buckets under the given root, sorted by name. A missing
// or unreadable root is an error; an empty root yields an empty slice.
func Discover(bucketsRoot string) ([]Bucket, error) {
	entries, err := os.ReadDir(bucketsRoot)
	if err != nil {
		return nil, fmt.Errorf("read buckets root %q: %w", bucketsRoot, err)
	}

	var buckets []Bucket
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		root := filepath.Join(bucketsRoot, entry.Name())
		buckets = append(buckets, Bucket{
			Name: entry.Name(),
			Root: root,
			Dir:  manifestDir(root),
		})
	}

	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Name < buckets[j].Name })
	return buckets, nil
}

// FromRoot builds a single bucket from its root directory.
func FromRoot(root string) Bucket {
	return Bucket{
		Name: filepath.Base(root),
		Root: root,
		Dir:  manifestDir(root),
	}
}

func manifestDir(root string) string {
	nested := filepath.Join(root, "bucket")
	if info, err := os.Stat(nested); err == nil && info.IsDir() {
		return nested
	}
	return root
}

// ManifestFiles walks the bucket's manifest directory recursively and returns
// the paths of all JSON manifest files, sorted. Unreadable subdirectories are
// reported through the second return value without aborting the walk.
func (b Bucket) ManifestFiles() ([]string, []error) {
	var files []string
	var errs []error

	walkErr := filepath.WalkDir(b.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, fmt.Errorf("scan %q: %w", path, err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			// Hidden directories hold bucket tooling, not manifests.
			if path != b.Dir && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		errs = append(errs, fmt.Errorf("walk bucket %q: %w", b.Name, walkErr))
	}

	sort.Strings(files)
	return files, errs
}
