package manifest

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/zeebo/xxh3"
)

// ErrorKind classifies why a manifest file failed to parse.
type ErrorKind int

const (
	KindUnreadable ErrorKind = iota
	KindSyntax
	KindMissingVersion
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnreadable:
		return "unreadable"
	case KindSyntax:
		return "malformed syntax"
	case KindMissingVersion:
		return "missing version"
	default:
		return "unknown"
	}
}

// ParseError records a single manifest file that could not be turned into a
// Manifest. Parse errors are accumulated by callers, never fatal on their own.
type ParseError struct {
	Path   string
	Bucket string
	Name   string
	Kind   ErrorKind
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse manifest %q (%s): %v", e.Path, e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// ParseFile reads and parses one manifest file. The package name is the file
// stem; the bucket name is supplied by the caller. Exactly one of the returned
// values is non-nil.
func ParseFile(path, bucket string) (*Manifest, *ParseError) {
	name := nameFromPath(path)
	fail := func(kind ErrorKind, err error) (*Manifest, *ParseError) {
		return nil, &ParseError{Path: path, Bucket: bucket, Name: name, Kind: kind, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(KindUnreadable, err)
	}

	return parse(data, path, bucket, name, fail)
}

// Parse parses manifest content that is already in memory, using path only
// for the derived name and error reporting.
func Parse(data []byte, path, bucket string) (*Manifest, *ParseError) {
	name := nameFromPath(path)
	fail := func(kind ErrorKind, err error) (*Manifest, *ParseError) {
		return nil, &ParseError{Path: path, Bucket: bucket, Name: name, Kind: kind, Err: err}
	}
	return parse(data, path, bucket, name, fail)
}

func parse(data []byte, path, bucket, name string, fail func(ErrorKind, error) (*Manifest, *ParseError)) (*Manifest, *ParseError) {
	data = bytes.TrimPrefix(data, utf8BOM)

	if !gjson.ValidBytes(data) {
		return fail(KindSyntax, fmt.Errorf("invalid JSON in %q", path))
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fail(KindSyntax, err)
	}

	// A manifest without a version describes nothing installable; gjson
	// distinguishes an absent field from an empty one.
	if !gjson.GetBytes(data, "version").Exists() || strings.TrimSpace(m.Version) == "" {
		return fail(KindMissingVersion, fmt.Errorf("manifest %q has no version", path))
	}

	m.Name = name
	m.Bucket = bucket
	m.Checksum = checksum(data)

	return &m, nil
}

func nameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func checksum(data []byte) string {
	h := xxh3.New()
	_, _ = h.Write(data)
	return "xxh3:" + base64.StdEncoding.EncodeToString(h.Sum(nil))
}
