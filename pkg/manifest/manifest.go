// Package manifest models Scoop-style package manifests: JSON files that
// describe one package version, its download artifacts and its metadata.
package manifest

import (
	"encoding/json"
	"path"
	"sort"
	"strings"
)

// Arch keys used in the architecture section of a manifest.
const (
	Arch64Bit = "64bit"
	Arch32Bit = "32bit"
	ArchArm64 = "arm64"
)

// Manifest is one parsed package descriptor. Name and Bucket are derived
// from the file location, not from the JSON body. A Manifest is read-only
// once the index build that produced it has completed.
type Manifest struct {
	Name   string `json:"-"`
	Bucket string `json:"-"`

	Version      string              `json:"version"`
	Description  string              `json:"description,omitempty"`
	Homepage     string              `json:"homepage,omitempty"`
	License      License             `json:"license,omitempty"`
	Notes        StringList          `json:"notes,omitempty"`
	Bin          BinList             `json:"bin,omitempty"`
	Depends      StringList          `json:"depends,omitempty"`
	URL          StringList          `json:"url,omitempty"`
	Hash         StringList          `json:"hash,omitempty"`
	Architecture map[string]ArchSpec `json:"architecture,omitempty"`
	Checkver     json.RawMessage     `json:"checkver,omitempty"`
	Autoupdate   json.RawMessage     `json:"autoupdate,omitempty"`

	// Checksum is the xxh3 digest of the raw manifest bytes, computed at
	// parse time. Two manifests with equal checksums have identical content.
	Checksum string `json:"-"`
}

// ArchSpec carries the architecture-specific overrides of a manifest.
type ArchSpec struct {
	URL  StringList `json:"url,omitempty"`
	Hash StringList `json:"hash,omitempty"`
	Bin  BinList    `json:"bin,omitempty"`
}

// Binaries returns the flat, sorted set of binary names the package provides
// for the given architecture, with the architecture section merged over the
// top-level bin field. Paths are reduced to their file stem.
func (m *Manifest) Binaries(arch string) []string {
	entries := m.Bin.Entries()
	if spec, ok := m.Architecture[arch]; ok && len(spec.Bin.Entries()) > 0 {
		entries = spec.Bin.Entries()
	}

	seen := make(map[string]struct{}, len(entries))
	var names []string
	for _, entry := range entries {
		name := binStem(entry)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dependencies returns the declared dependency names.
func (m *Manifest) Dependencies() []string {
	return m.Depends.Values()
}

func binStem(p string) string {
	base := path.Base(strings.ReplaceAll(p, `\`, "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// License is either a bare SPDX-style identifier string or an object with
// identifier and url fields.
type License struct {
	Identifier string `json:"identifier,omitempty"`
	URL        string `json:"url,omitempty"`
}

func (l *License) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &l.Identifier)
	}
	type plain License
	return json.Unmarshal(data, (*plain)(l))
}

func (l License) MarshalJSON() ([]byte, error) {
	if l.URL == "" {
		return json.Marshal(l.Identifier)
	}
	type plain License
	return json.Marshal(plain(l))
}

func (l License) String() string {
	return l.Identifier
}

// StringList accepts a bare string or an array of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// Values returns the list as a plain slice, never nil for a non-empty list.
func (s StringList) Values() []string {
	return []string(s)
}

func (s StringList) String() string {
	return strings.Join(s, ", ")
}

// BinList accepts a string, an array of strings, or an array whose elements
// are themselves arrays of the form [exe, alias, args...]. Only the exe part
// of nested entries is retained.
type BinList []string

func (b *BinList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*b = BinList{one}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	entries := make([]string, 0, len(raw))
	for _, item := range raw {
		if len(item) > 0 && item[0] == '[' {
			var nested []string
			if err := json.Unmarshal(item, &nested); err != nil {
				return err
			}
			if len(nested) > 0 {
				entries = append(entries, nested[0])
			}
			continue
		}
		var one string
		if err := json.Unmarshal(item, &one); err != nil {
			return err
		}
		entries = append(entries, one)
	}
	*b = entries
	return nil
}

// Entries returns the raw bin entries (paths as written in the manifest).
func (b BinList) Entries() []string {
	return []string(b)
}
