// Package index builds the per-invocation, in-memory package index: every
// manifest of every configured bucket, keyed by name, plus an inverted term
// index over manifest descriptions backing the description search tier. The
// index is read-only once built and is never persisted.
package index

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"unicode"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/zeebo/xxh3"

	"github.com/scoopq/scoopq/pkg/bucket"
	"github.com/scoopq/scoopq/pkg/manifest"
)

// Entry is one manifest under one bucket. The same package name may map to
// several entries when multiple buckets define it.
type Entry struct {
	Bucket   string
	Manifest *manifest.Manifest
}

// Index is the built aggregate. Package names iterate in ascending order;
// entries for one name are ordered by ascending bucket name.
type Index struct {
	packages    *orderedmap.OrderedMap[string, []Entry]
	terms       map[string][]string
	parseErrors []*manifest.ParseError
	scanErrors  []error
	buckets     []bucket.Bucket
}

// Buckets returns the buckets the index was built from, sorted by name.
func (idx *Index) Buckets() []bucket.Bucket {
	return idx.buckets
}

// Lookup returns all entries for a package name, ordered by bucket.
func (idx *Index) Lookup(name string) []Entry {
	entries, _ := idx.packages.Get(name)
	return entries
}

// LookupIn returns the entry for a name in one specific bucket.
func (idx *Index) LookupIn(bucketName, name string) (Entry, bool) {
	for _, entry := range idx.Lookup(name) {
		if entry.Bucket == bucketName {
			return entry, true
		}
	}
	return Entry{}, false
}

// Names returns all indexed package names in ascending order.
func (idx *Index) Names() []string {
	names := make([]string, 0, idx.packages.Len())
	for pair := idx.packages.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Walk calls fn for every entry in deterministic (name, bucket) order.
func (idx *Index) Walk(fn func(Entry)) {
	for pair := idx.packages.Oldest(); pair != nil; pair = pair.Next() {
		for _, entry := range pair.Value {
			fn(entry)
		}
	}
}

// TermMatches returns the package names whose description tokens contain
// token as a substring. Token matching is case-insensitive.
func (idx *Index) TermMatches(token string) []string {
	token = strings.ToLower(token)

	seen := make(map[string]struct{})
	var names []string
	for term, termNames := range idx.terms {
		if !strings.Contains(term, token) {
			continue
		}
		for _, name := range termNames {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ParseErrors returns the manifest files that failed to parse during the
// build, ordered by (bucket, path).
func (idx *Index) ParseErrors() []*manifest.ParseError {
	return idx.parseErrors
}

// ScanErrors returns non-fatal filesystem errors hit while enumerating
// bucket directories.
func (idx *Index) ScanErrors() []error {
	return idx.scanErrors
}

// Len reports the number of distinct package names in the index.
func (idx *Index) Len() int {
	return idx.packages.Len()
}

// EntryCount reports the total number of (name, bucket) entries.
func (idx *Index) EntryCount() int {
	n := 0
	for pair := idx.packages.Oldest(); pair != nil; pair = pair.Next() {
		n += len(pair.Value)
	}
	return n
}

// Checksum digests the identity and content checksum of every entry in
// order. Two builds over the same filesystem snapshot produce equal sums.
func (idx *Index) Checksum() string {
	h := xxh3.New()
	idx.Walk(func(entry Entry) {
		fmt.Fprintf(h, "%s/%s %s\n", entry.Bucket, entry.Manifest.Name, entry.Manifest.Checksum)
	})
	return "xxh3:" + base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func tokenize(parts ...string) []string {
	seen := make(map[string]struct{})
	var tokens []string
	for _, part := range parts {
		fields := strings.FieldsFunc(strings.ToLower(part), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, field := range fields {
			if len(field) < 2 {
				continue
			}
			if _, ok := seen[field]; ok {
				continue
			}
			seen[field] = struct{}{}
			tokens = append(tokens, field)
		}
	}
	return tokens
}
