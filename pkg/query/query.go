// Package query answers search, list, info and outdated queries against a
// built index and installed-state snapshot. An Engine holds everything it
// needs at construction and reads no ambient state.
package query

import (
	"fmt"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/scoopq/scoopq/pkg/index"
	"github.com/scoopq/scoopq/pkg/installed"
	"github.com/scoopq/scoopq/pkg/manifest"
)

// MatchMode selects which manifest fields a search pattern is held against.
type MatchMode int

const (
	ModeBoth MatchMode = iota
	ModeName
	ModeBinary
)

// ParseMatchMode maps the CLI spelling of a search mode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch s {
	case "", "both":
		return ModeBoth, nil
	case "name":
		return ModeName, nil
	case "binary":
		return ModeBinary, nil
	}
	return ModeBoth, fmt.Errorf("unknown search mode %q", s)
}

func (m MatchMode) matchNames() bool    { return m == ModeName || m == ModeBoth }
func (m MatchMode) matchBinaries() bool { return m == ModeBinary || m == ModeBoth }

// Weights are the relevance scores per match tier. Higher wins. The defaults
// order exact name above name substring above binary match above description
// token, with ties broken by name then bucket.
type Weights struct {
	Exact       int
	Name        int
	Binary      int
	Description int
}

// DefaultWeights is the standard ranking policy.
var DefaultWeights = Weights{Exact: 400, Name: 300, Binary: 200, Description: 100}

// Options control one search or list invocation.
type Options struct {
	// Bucket restricts matching to one bucket when non-empty.
	Bucket string
	// InstalledOnly drops packages that are not currently installed.
	InstalledOnly bool
	Mode          MatchMode
	CaseSensitive bool
	// Regex treats the pattern as a regular expression instead of a
	// substring. Matching is case-insensitive unless CaseSensitive is set.
	Regex bool
	// Fuzzy adds fuzzy name matches below all substring tiers.
	Fuzzy bool
}

// Match is one ranked query result row.
type Match struct {
	Name     string
	Bucket   string
	Manifest *manifest.Manifest
	// Installed is non-nil when the package is installed locally,
	// regardless of source bucket.
	Installed *installed.App
	// Bins lists the binary names that matched the pattern, if any.
	Bins  []string
	Score int
	Exact bool
}

// Result is an ordered list of matches plus the non-fatal errors collected
// while the underlying index was built.
type Result struct {
	Matches     []Match
	ParseErrors []*manifest.ParseError
}

// Engine answers queries against one immutable index/state pair.
type Engine struct {
	idx     *index.Index
	state   *installed.State
	weights Weights
	arch    string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithWeights overrides the default ranking weights.
func WithWeights(w Weights) EngineOption {
	return func(e *Engine) { e.weights = w }
}

// WithArch overrides the native architecture used for binary matching.
func WithArch(arch string) EngineOption {
	return func(e *Engine) { e.arch = arch }
}

// New creates an Engine over a built index and installed state.
func New(idx *index.Index, state *installed.State, opts ...EngineOption) *Engine {
	e := &Engine{
		idx:     idx,
		state:   state,
		weights: DefaultWeights,
		arch:    nativeArch(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func nativeArch() string {
	switch runtime.GOARCH {
	case "arm64":
		return manifest.ArchArm64
	case "386":
		return manifest.Arch32Bit
	default:
		return manifest.Arch64Bit
	}
}

type matcher func(string) bool

func (e *Engine) compile(pattern string, opts Options) (matcher, error) {
	if pattern == "" {
		return func(string) bool { return true }, nil
	}
	if opts.Regex {
		expr := pattern
		if !opts.CaseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid search pattern %q: %w", pattern, err)
		}
		return re.MatchString, nil
	}
	if opts.CaseSensitive {
		return func(s string) bool { return strings.Contains(s, pattern) }, nil
	}
	lowered := strings.ToLower(pattern)
	return func(s string) bool { return strings.Contains(strings.ToLower(s), lowered) }, nil
}

// Search returns every package matching pattern, ranked. An empty pattern
// matches all packages exactly once per (name, bucket) entry.
func (e *Engine) Search(pattern string, opts Options) (*Result, error) {
	match, err := e.compile(pattern, opts)
	if err != nil {
		return nil, err
	}

	fuzzyScores := e.fuzzyScores(pattern, opts)
	descHits := e.descriptionHits(pattern, opts)

	var matches []Match
	e.idx.Walk(func(entry index.Entry) {
		if opts.Bucket != "" && entry.Bucket != opts.Bucket {
			return
		}
		m := e.score(entry, pattern, match, fuzzyScores, descHits, opts)
		if m == nil {
			return
		}
		if opts.InstalledOnly && m.Installed == nil {
			return
		}
		matches = append(matches, *m)
	})

	sortMatches(matches)
	return &Result{Matches: matches, ParseErrors: e.idx.ParseErrors()}, nil
}

func (e *Engine) score(entry index.Entry, pattern string, match matcher, fuzzyScores map[string]int, descHits map[string]struct{}, opts Options) *Match {
	name := entry.Manifest.Name

	score := 0
	exact := false
	var bins []string

	if pattern == "" {
		score = e.weights.Description
	}

	if opts.Mode.matchNames() {
		if equalsPattern(name, pattern, opts.CaseSensitive) {
			score, exact = e.weights.Exact, true
		} else if pattern != "" && match(name) {
			score = max(score, e.weights.Name)
		}
	}

	if opts.Mode.matchBinaries() && pattern != "" {
		for _, bin := range entry.Manifest.Binaries(e.arch) {
			if match(bin) {
				bins = append(bins, bin)
			}
		}
		if len(bins) > 0 {
			score = max(score, e.weights.Binary)
		}
	}

	if opts.Mode.matchNames() && pattern != "" && score == 0 {
		hit := false
		if descHits != nil {
			_, hit = descHits[name]
		} else {
			hit = match(entry.Manifest.Description)
		}
		if hit {
			score = e.weights.Description
		} else if fs, ok := fuzzyScores[name]; ok {
			// Fuzzy matches rank below every substring tier.
			score = max(1, e.weights.Description/2+min(fs, e.weights.Description/2-1))
		}
	}

	if score == 0 {
		return nil
	}

	m := &Match{
		Name:     name,
		Bucket:   entry.Bucket,
		Manifest: entry.Manifest,
		Bins:     bins,
		Score:    score,
		Exact:    exact,
	}
	if app, ok := e.state.Lookup(name); ok {
		m.Installed = app
	}
	return m
}

// descriptionHits answers the description tier from the inverted term index.
// Regex and case-sensitive patterns cannot be resolved against the lowercased
// tokens and fall back to scanning descriptions directly (nil return).
func (e *Engine) descriptionHits(pattern string, opts Options) map[string]struct{} {
	if pattern == "" || opts.Regex || opts.CaseSensitive {
		return nil
	}
	hits := make(map[string]struct{})
	for _, name := range e.idx.TermMatches(pattern) {
		hits[name] = struct{}{}
	}
	return hits
}

func (e *Engine) fuzzyScores(pattern string, opts Options) map[string]int {
	if !opts.Fuzzy || pattern == "" {
		return nil
	}
	scores := make(map[string]int)
	for _, res := range fuzzy.Find(pattern, e.idx.Names()) {
		scores[res.Str] = res.Score
	}
	return scores
}

func equalsPattern(name, pattern string, caseSensitive bool) bool {
	if pattern == "" {
		return false
	}
	if caseSensitive {
		return name == pattern
	}
	return strings.EqualFold(name, pattern)
}

func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Bucket < b.Bucket
	})
}

// List returns every installed package with its installed state joined in,
// ordered by name. Orphaned installs (no bucket manifest) are included.
func (e *Engine) List(opts Options) (*Result, error) {
	var matches []Match
	for _, app := range e.state.Apps() {
		entry, ok := e.entryFor(app)
		if opts.Bucket != "" {
			if app.Bucket != opts.Bucket && (!ok || entry.Bucket != opts.Bucket) {
				continue
			}
		}

		m := Match{
			Name:      app.Name,
			Bucket:    app.Bucket,
			Installed: app,
			Manifest:  app.Manifest,
		}
		if ok {
			m.Manifest = entry.Manifest
			if m.Bucket == "" {
				m.Bucket = entry.Bucket
			}
		}
		matches = append(matches, m)
	}

	errs := append([]*manifest.ParseError{}, e.idx.ParseErrors()...)
	errs = append(errs, e.state.ParseErrors()...)
	return &Result{Matches: matches, ParseErrors: errs}, nil
}

// entryFor finds the bucket manifest corresponding to an installed app,
// preferring the app's recorded source bucket.
func (e *Engine) entryFor(app *installed.App) (index.Entry, bool) {
	if app.Bucket != "" {
		if entry, ok := e.idx.LookupIn(app.Bucket, app.Name); ok {
			return entry, true
		}
	}
	entries := e.idx.Lookup(app.Name)
	if len(entries) > 0 {
		return entries[0], true
	}
	return index.Entry{}, false
}
