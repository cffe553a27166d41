// Package installed reads the installed-apps tree of a package-manager
// installation and reports which packages are present, at which version,
// from which bucket, and whether they are held against updates.
package installed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/scoopq/scoopq/pkg/manifest"
)

// currentMarker names the per-app pointer to the active version directory.
const currentMarker = "current"

// App is one locally installed package.
type App struct {
	Name    string
	Version string
	// VersionKnown is false when the app directory carries no resolvable
	// current-version marker. The app still counts as installed.
	VersionKnown bool
	Bucket       string
	Path         string
	Held         bool
	Updated      time.Time

	// Manifest is the install-time manifest snapshot, when it parses.
	Manifest *manifest.Manifest
}

// State maps package names to installed apps for one invocation.
type State struct {
	apps        map[string]*App
	names       []string
	parseErrors []*manifest.ParseError
	scanErrors  []error
}

// Lookup returns the installed app with the given name.
func (s *State) Lookup(name string) (*App, bool) {
	app, ok := s.apps[name]
	return app, ok
}

// Apps returns all installed apps ordered by name.
func (s *State) Apps() []*App {
	apps := make([]*App, 0, len(s.names))
	for _, name := range s.names {
		apps = append(apps, s.apps[name])
	}
	return apps
}

// Len reports the number of installed apps.
func (s *State) Len() int {
	return len(s.names)
}

// ParseErrors returns manifest snapshots that failed to parse.
func (s *State) ParseErrors() []*manifest.ParseError {
	return s.parseErrors
}

// ScanErrors returns non-fatal filesystem errors hit during the scan.
func (s *State) ScanErrors() []error {
	return s.scanErrors
}

// Scan reads every app directory under appsRoot in parallel. A missing or
// unreadable root is an error; anything wrong with an individual app is
// accumulated on the returned State instead.
func Scan(ctx context.Context, appsRoot string, workers int) (*State, error) {
	entries, err := os.ReadDir(appsRoot)
	if err != nil {
		return nil, fmt.Errorf("read apps root %q: %w", appsRoot, err)
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		// The package manager's own app directory carries no manifest.
		if entry.Name() == "scoop" {
			continue
		}
		dirs = append(dirs, entry.Name())
	}
	sort.Strings(dirs)

	results := make([]*App, len(dirs))
	resultErrs := make([][]*manifest.ParseError, len(dirs))
	resultScanErrs := make([][]error, len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range dirs {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			app, perrs, serrs := readApp(filepath.Join(appsRoot, name), name)
			results[i] = app
			resultErrs[i] = perrs
			resultScanErrs[i] = serrs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan installed apps: %w", err)
	}

	st := &State{apps: make(map[string]*App, len(dirs))}
	for i, app := range results {
		st.parseErrors = append(st.parseErrors, resultErrs[i]...)
		st.scanErrors = append(st.scanErrors, resultScanErrs[i]...)
		if app == nil {
			continue
		}
		st.apps[app.Name] = app
		st.names = append(st.names, app.Name)
	}
	return st, nil
}

func readApp(dir, name string) (*App, []*manifest.ParseError, []error) {
	app := &App{Name: name, Path: dir}
	var perrs []*manifest.ParseError
	var serrs []error

	if info, err := os.Stat(dir); err == nil {
		app.Updated = info.ModTime()
	}

	currentDir, version, serr := resolveCurrent(dir)
	if serr != nil {
		serrs = append(serrs, serr)
	}
	if currentDir != "" {
		snapshotPath := filepath.Join(currentDir, "manifest.json")
		if _, err := os.Stat(snapshotPath); err == nil {
			m, perr := manifest.ParseFile(snapshotPath, "")
			if perr != nil {
				perrs = append(perrs, perr)
			} else {
				m.Name = name
				app.Manifest = m
				app.Version = m.Version
				app.VersionKnown = true
			}
		}

		installPath := filepath.Join(currentDir, "install.json")
		if data, err := os.ReadFile(installPath); err == nil {
			app.Bucket = gjson.GetBytes(data, "bucket").String()
			app.Held = gjson.GetBytes(data, "hold").Bool()
		} else if !errors.Is(err, os.ErrNotExist) {
			serrs = append(serrs, fmt.Errorf("read install manifest %q: %w", installPath, err))
		}
	}

	if !app.VersionKnown && version != "" {
		app.Version = version
		app.VersionKnown = true
	}

	return app, perrs, serrs
}

// resolveCurrent locates the active version directory of one app. The marker
// is a symlink on most installations; a plain directory and a marker file
// naming the version are tolerated. With no marker at all, a single version
// directory is unambiguous enough to use. A marker that exists but cannot be
// resolved is reported as a scan error alongside whatever fallback applies.
func resolveCurrent(dir string) (currentDir, version string, scanErr error) {
	marker := filepath.Join(dir, currentMarker)

	info, err := os.Lstat(marker)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		target, terr := filepath.EvalSymlinks(marker)
		if terr == nil {
			return target, filepath.Base(target), nil
		}
		scanErr = fmt.Errorf("resolve current marker %q: %w", marker, terr)
	case err == nil && info.IsDir():
		return marker, "", nil
	case err == nil:
		data, rerr := os.ReadFile(marker)
		if rerr != nil {
			scanErr = fmt.Errorf("read current marker %q: %w", marker, rerr)
			break
		}
		v := strings.TrimSpace(string(data))
		if v != "" {
			versioned := filepath.Join(dir, v)
			if vi, err := os.Stat(versioned); err == nil && vi.IsDir() {
				return versioned, v, nil
			}
		}
	}

	versions := versionDirs(dir)
	if len(versions) == 1 {
		return filepath.Join(dir, versions[0]), versions[0], scanErr
	}
	return "", "", scanErr
}

func versionDirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var versions []string
	for _, entry := range entries {
		if entry.IsDir() && entry.Name() != currentMarker {
			versions = append(versions, entry.Name())
		}
	}
	return versions
}
