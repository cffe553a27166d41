package query

import (
	"github.com/scoopq/scoopq/pkg/manifest"
)

// OutdatedApp is an installed package whose bucket manifest carries a newer
// version than the one installed.
type OutdatedApp struct {
	Name      string `json:"name"`
	Bucket    string `json:"bucket"`
	Current   string `json:"current"`
	Available string `json:"available"`
	Held      bool   `json:"held,omitempty"`
}

// OutdatedResult lists outdated apps ordered by name.
type OutdatedResult struct {
	Apps        []OutdatedApp
	ParseErrors []*manifest.ParseError
}

// Outdated cross-references installed apps against their bucket manifests.
// Apps with an unknown installed version and orphans with no bucket manifest
// at all are excluded, not reported as outdated.
func (e *Engine) Outdated(opts Options) (*OutdatedResult, error) {
	var apps []OutdatedApp
	for _, app := range e.state.Apps() {
		if !app.VersionKnown {
			continue
		}
		entry, ok := e.entryFor(app)
		if !ok {
			continue
		}
		if opts.Bucket != "" && entry.Bucket != opts.Bucket {
			continue
		}
		if manifest.CompareVersions(entry.Manifest.Version, app.Version) <= 0 {
			continue
		}
		apps = append(apps, OutdatedApp{
			Name:      app.Name,
			Bucket:    entry.Bucket,
			Current:   app.Version,
			Available: entry.Manifest.Version,
			Held:      app.Held,
		})
	}

	errs := append([]*manifest.ParseError{}, e.idx.ParseErrors()...)
	errs = append(errs, e.state.ParseErrors()...)
	return &OutdatedResult{Apps: apps, ParseErrors: errs}, nil
}
