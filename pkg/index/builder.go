package index

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/sync/errgroup"

	"github.com/scoopq/scoopq/pkg/bucket"
	"github.com/scoopq/scoopq/pkg/manifest"
)

// ErrNoBuckets signals that no buckets were configured at all, which points
// at a missing package-manager installation rather than an empty result.
var ErrNoBuckets = errors.New("no buckets configured")

// Builder scans a fixed set of buckets into an Index. Construction takes the
// full configuration up front; Build performs no global-state reads.
type Builder struct {
	buckets []bucket.Bucket
	workers int
}

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers bounds the number of concurrent manifest parses. Values below
// one fall back to the number of CPUs.
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

// NewBuilder creates a Builder over the given buckets.
func NewBuilder(buckets []bucket.Bucket, opts ...Option) *Builder {
	b := &Builder{buckets: buckets}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers < 1 {
		b.workers = runtime.NumCPU()
	}
	return b
}

type scanUnit struct {
	bucket string
	path   string
}

type scanResult struct {
	manifest *manifest.Manifest
	err      *manifest.ParseError
}

// Build enumerates and parses every manifest across all buckets, in parallel,
// and merges the per-file results into a deterministic Index. Individual
// parse and directory errors accumulate on the Index; only a cancelled
// context or a zero-bucket configuration fails the build.
func (b *Builder) Build(ctx context.Context) (*Index, error) {
	if len(b.buckets) == 0 {
		return nil, ErrNoBuckets
	}

	units, scanErrs, err := b.enumerate(ctx)
	if err != nil {
		return nil, err
	}

	// Map phase: each unit parses independently into its own slot, so the
	// merge below never contends with workers and its order is fixed by the
	// sorted unit list, not by scheduling.
	results := make([]scanResult, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, unit := range units {
		i, unit := i, unit
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, perr := manifest.ParseFile(unit.path, unit.bucket)
			results[i] = scanResult{manifest: m, err: perr}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("index build: %w", err)
	}

	return b.merge(units, results, scanErrs), nil
}

func (b *Builder) enumerate(ctx context.Context) ([]scanUnit, []error, error) {
	perBucket := make([][]string, len(b.buckets))
	perBucketErrs := make([][]error, len(b.buckets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, bkt := range b.buckets {
		i, bkt := i, bkt
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			files, errs := bkt.ManifestFiles()
			perBucket[i] = files
			perBucketErrs[i] = errs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("enumerate buckets: %w", err)
	}

	var units []scanUnit
	var scanErrs []error
	for i, bkt := range b.buckets {
		for _, path := range perBucket[i] {
			units = append(units, scanUnit{bucket: bkt.Name, path: path})
		}
		scanErrs = append(scanErrs, perBucketErrs[i]...)
	}
	return units, scanErrs, nil
}

func (b *Builder) merge(units []scanUnit, results []scanResult, scanErrs []error) *Index {
	idx := &Index{
		packages:   orderedmap.New[string, []Entry](),
		terms:      make(map[string][]string),
		scanErrors: scanErrs,
		buckets:    b.buckets,
	}

	byName := make(map[string][]Entry)
	for i := range units {
		res := results[i]
		if res.err != nil {
			idx.parseErrors = append(idx.parseErrors, res.err)
			continue
		}
		m := res.manifest
		byName[m.Name] = append(byName[m.Name], Entry{Bucket: units[i].bucket, Manifest: m})
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entries := byName[name]
		sort.Slice(entries, func(i, j int) bool { return entries[i].Bucket < entries[j].Bucket })
		idx.packages.Set(name, entries)

		for _, entry := range entries {
			idx.addTerms(name, entry.Manifest)
		}
	}

	sort.Slice(idx.parseErrors, func(i, j int) bool {
		a, b := idx.parseErrors[i], idx.parseErrors[j]
		if a.Bucket != b.Bucket {
			return a.Bucket < b.Bucket
		}
		return a.Path < b.Path
	})

	return idx
}

func (idx *Index) addTerms(name string, m *manifest.Manifest) {
	for _, token := range tokenize(m.Description) {
		known := idx.terms[token]
		if len(known) > 0 && known[len(known)-1] == name {
			continue
		}
		idx.terms[token] = append(known, name)
	}
}
