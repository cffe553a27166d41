// Package output renders query results as padded tables for humans or as
// JSON for machines. It is a thin presentation layer over the query types.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/scoopq/scoopq/pkg/query"
)

// Options select the rendering mode.
type Options struct {
	JSON bool
	// Color enables ANSI highlighting of exact matches; callers pass the
	// result of a TTY check.
	Color bool
}

const timeLayout = time.RFC3339

func bold(s string, enabled bool) string {
	if !enabled {
		return s
	}
	return "\x1b[1m" + s + "\x1b[0m"
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// table accumulates rows and prints them with per-column max-width padding.
type table struct {
	header []string
	rows   [][]string
}

func newTable(header ...string) *table {
	return &table{header: header}
}

func (t *table) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) write(w io.Writer) error {
	widths := make([]int, len(t.header))
	for i, h := range t.header {
		widths[i] = displayWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && displayWidth(cell) > widths[i] {
				widths[i] = displayWidth(cell)
			}
		}
	}

	if err := t.writeRow(w, t.header, widths); err != nil {
		return err
	}
	for _, row := range t.rows {
		if err := t.writeRow(w, row, widths); err != nil {
			return err
		}
	}
	return nil
}

func (t *table) writeRow(w io.Writer, cells []string, widths []int) error {
	// Trailing empty cells would leave a dangling separator.
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}

	parts := make([]string, len(cells))
	for i, cell := range cells {
		pad := widths[i] - displayWidth(cell)
		if pad < 0 {
			pad = 0
		}
		parts[i] = cell + strings.Repeat(" ", pad)
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, " | "), " "))
	return err
}

// displayWidth counts runes, ignoring the ANSI bold escapes this package
// emits, so multibyte names and descriptions pad correctly.
func displayWidth(s string) int {
	s = strings.ReplaceAll(s, "\x1b[1m", "")
	s = strings.ReplaceAll(s, "\x1b[0m", "")
	return utf8.RuneCountInString(s)
}

type searchRow struct {
	Name      string   `json:"Name"`
	Version   string   `json:"Version"`
	Bucket    string   `json:"Bucket"`
	Installed bool     `json:"Installed"`
	Binaries  []string `json:"Binaries,omitempty"`
}

// WriteSearch renders a search result.
func WriteSearch(w io.Writer, res *query.Result, opts Options) error {
	if opts.JSON {
		rows := make([]searchRow, 0, len(res.Matches))
		for _, m := range res.Matches {
			rows = append(rows, searchRow{
				Name:      m.Name,
				Version:   m.Manifest.Version,
				Bucket:    m.Bucket,
				Installed: m.Installed != nil,
				Binaries:  m.Bins,
			})
		}
		return writeJSON(w, rows)
	}

	if len(res.Matches) == 0 {
		_, err := fmt.Fprintln(w, "No matches found.")
		return err
	}

	t := newTable("Name", "Version", "Bucket", "")
	for _, m := range res.Matches {
		note := ""
		if m.Installed != nil {
			note = "[installed]"
		}
		name := bold(m.Name, opts.Color && m.Exact)
		if len(m.Bins) > 0 {
			name += " (" + strings.Join(m.Bins, ", ") + ")"
		}
		t.addRow(name, m.Manifest.Version, m.Bucket, note)
	}
	return t.write(w)
}

type listRow struct {
	Name    string `json:"Name"`
	Version string `json:"Version"`
	Source  string `json:"Source"`
	Updated string `json:"Updated"`
	Notes   string `json:"Notes,omitempty"`
}

// WriteList renders the installed-package listing.
func WriteList(w io.Writer, res *query.Result, opts Options) error {
	rows := make([]listRow, 0, len(res.Matches))
	for _, m := range res.Matches {
		row := listRow{Name: m.Name, Source: m.Bucket}
		if app := m.Installed; app != nil {
			row.Version = app.Version
			if !app.VersionKnown {
				row.Version = "(unknown)"
			}
			if !app.Updated.IsZero() {
				row.Updated = app.Updated.Format(timeLayout)
			}
			if app.Held {
				row.Notes = "Held"
			}
		}
		rows = append(rows, row)
	}

	if opts.JSON {
		return writeJSON(w, rows)
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No packages installed.")
		return err
	}

	t := newTable("Name", "Version", "Source", "Updated", "Notes")
	for _, row := range rows {
		t.addRow(row.Name, row.Version, row.Source, row.Updated, row.Notes)
	}
	return t.write(w)
}

type infoRecord struct {
	Name          string `json:"Name"`
	Description   string `json:"Description,omitempty"`
	Version       string `json:"Version"`
	Bucket        string `json:"Bucket"`
	Website       string `json:"Website,omitempty"`
	License       string `json:"License,omitempty"`
	Binaries      string `json:"Binaries,omitempty"`
	Notes         string `json:"Notes,omitempty"`
	Installed     string `json:"Installed"`
	RemoteVersion string `json:"RemoteVersion,omitempty"`
}

// WriteInfo renders an info result, one record per bucket defining the name.
func WriteInfo(w io.Writer, res *query.InfoResult, opts Options) error {
	records := make([]infoRecord, 0, len(res.Matches))
	for _, m := range res.Matches {
		rec := infoRecord{
			Name:        m.Name,
			Description: m.Manifest.Description,
			Version:     m.Manifest.Version,
			Bucket:      m.Bucket,
			Website:     m.Manifest.Homepage,
			License:     m.Manifest.License.String(),
			Binaries:    strings.Join(m.Manifest.Binaries(""), ", "),
			Notes:       m.Manifest.Notes.String(),
			Installed:   "No",
		}
		if app := m.Installed; app != nil {
			rec.Installed = "Yes"
			if app.VersionKnown {
				rec.Installed = "Yes (" + app.Version + ")"
			}
		}
		if res.Remote != nil {
			rec.RemoteVersion = res.Remote[m.Bucket]
		}
		records = append(records, rec)
	}

	if opts.JSON {
		return writeJSON(w, records)
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No package found.")
		return err
	}

	if len(records) > 1 {
		if _, err := fmt.Fprintf(w, "Found %d packages:\n\n", len(records)); err != nil {
			return err
		}
	}

	for i, rec := range records {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writeVertical(w, rec); err != nil {
			return err
		}
	}
	return nil
}

func writeVertical(w io.Writer, rec infoRecord) error {
	pairs := [][2]string{
		{"Name", rec.Name},
		{"Description", rec.Description},
		{"Version", rec.Version},
		{"Bucket", rec.Bucket},
		{"Website", rec.Website},
		{"License", rec.License},
		{"Binaries", rec.Binaries},
		{"Notes", rec.Notes},
		{"Installed", rec.Installed},
		{"Remote version", rec.RemoteVersion},
	}

	width := 0
	for _, pair := range pairs {
		if pair[1] != "" && len(pair[0]) > width {
			width = len(pair[0])
		}
	}
	for _, pair := range pairs {
		if pair[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-*s : %s\n", width, pair[0], pair[1]); err != nil {
			return err
		}
	}
	return nil
}

// WriteOutdated renders the outdated-apps report.
func WriteOutdated(w io.Writer, res *query.OutdatedResult, opts Options) error {
	if opts.JSON {
		return writeJSON(w, res.Apps)
	}

	if len(res.Apps) == 0 {
		_, err := fmt.Fprintln(w, "All packages are up to date.")
		return err
	}

	t := newTable("Name", "Current", "Available", "Bucket", "Notes")
	for _, app := range res.Apps {
		note := ""
		if app.Held {
			note = "Held"
		}
		t.addRow(app.Name, app.Current, app.Available, app.Bucket, note)
	}
	return t.write(w)
}

// BucketInfo is one row of the buckets listing.
type BucketInfo struct {
	Name        string `json:"Name"`
	Manifests   int    `json:"Manifests"`
	Fingerprint string `json:"Fingerprint"`
}

// WriteBuckets renders the buckets listing.
func WriteBuckets(w io.Writer, infos []BucketInfo, opts Options) error {
	if opts.JSON {
		return writeJSON(w, infos)
	}

	t := newTable("Name", "Manifests", "Fingerprint")
	for _, info := range infos {
		t.addRow(info.Name, fmt.Sprintf("%d", info.Manifests), info.Fingerprint)
	}
	return t.write(w)
}

// ErrorSummary prints the accumulated parse-error footer. It writes nothing
// for a clean run.
func ErrorSummary(w io.Writer, count int) {
	if count == 0 {
		return
	}
	noun := "manifests"
	if count == 1 {
		noun = "manifest"
	}
	fmt.Fprintf(w, "%d %s failed to parse\n", count, noun)
}
