package query

import (
	"context"
	"strings"

	"github.com/scoopq/scoopq/pkg/manifest"
)

// RemoteChecker probes an upstream source for the latest published version of
// a package. Implementations must honor the context deadline.
type RemoteChecker interface {
	LatestVersion(ctx context.Context, m Describable) (string, error)
}

// Describable is the manifest surface a remote check needs.
type Describable interface {
	CheckverSpec() (url, pattern string, ok bool)
	HomepageURL() string
}

// RemoteUnknown is reported when an opt-in remote check times out or fails.
const RemoteUnknown = "unknown"

// InfoOptions control one info query.
type InfoOptions struct {
	// Bucket restricts the lookup to one bucket.
	Bucket string
	// Remote, when non-nil, enables the slow remote version probe. It is
	// only consulted on the explicit verbose path; plain info never
	// touches the network.
	Remote RemoteChecker
}

// InfoResult is one package record per bucket that defines the name.
type InfoResult struct {
	Matches     []Match
	Remote      map[string]string // bucket -> latest remote version
	ParseErrors []*manifest.ParseError
}

// Info looks up a single package by name, joined with installed state. The
// name may carry a "bucket/name" qualifier; an explicit Bucket option wins
// over the qualifier. A name with no match yields an empty result, not an
// error.
func (e *Engine) Info(ctx context.Context, name string, opts InfoOptions) (*InfoResult, error) {
	bucketName := opts.Bucket
	if prefix, rest, ok := strings.Cut(name, "/"); ok {
		if bucketName == "" {
			bucketName = prefix
		}
		name = rest
	}

	entries := e.idx.Lookup(name)
	res := &InfoResult{ParseErrors: e.idx.ParseErrors()}
	for _, entry := range entries {
		if bucketName != "" && entry.Bucket != bucketName {
			continue
		}
		m := Match{
			Name:     name,
			Bucket:   entry.Bucket,
			Manifest: entry.Manifest,
			Exact:    true,
			Score:    e.weights.Exact,
		}
		if app, ok := e.state.Lookup(name); ok {
			m.Installed = app
		}
		res.Matches = append(res.Matches, m)
	}

	if opts.Remote != nil && len(res.Matches) > 0 {
		res.Remote = make(map[string]string, len(res.Matches))
		for _, m := range res.Matches {
			version, err := opts.Remote.LatestVersion(ctx, m.Manifest)
			if err != nil {
				// A failed or timed-out probe degrades to "unknown"
				// for that package only.
				res.Remote[m.Bucket] = RemoteUnknown
				continue
			}
			res.Remote[m.Bucket] = version
		}
	}

	return res, nil
}
