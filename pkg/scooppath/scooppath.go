// Package scooppath resolves the on-disk roots of an existing package-manager
// installation. Resolution happens once, up front; everything downstream
// receives already-validated paths.
package scooppath

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// EnvRoot is the environment variable naming the installation root.
const EnvRoot = "SCOOP"

// Paths are the validated roots the engine consumes.
type Paths struct {
	Root        string
	BucketsRoot string
	AppsRoot    string
}

// ConfigError is fatal: the installation root or one of its required
// subdirectories is missing or unreadable.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("package-manager installation not found at %q: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Resolve determines the installation root. Precedence: the explicit value
// (a --root flag), the SCOOP environment variable, the root_path key of the
// user's scoop config file, then ~/scoop. The chosen root must contain
// buckets and apps directories.
func Resolve(explicit string) (Paths, error) {
	root := explicit
	if root == "" {
		root = os.Getenv(EnvRoot)
	}
	if root == "" {
		root = configuredRoot()
	}
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolve home directory: %w", err)
		}
		root = filepath.Join(home, "scoop")
	}

	return FromRoot(root)
}

// FromRoot validates an already-chosen root directory.
func FromRoot(root string) (Paths, error) {
	paths := Paths{
		Root:        root,
		BucketsRoot: filepath.Join(root, "buckets"),
		AppsRoot:    filepath.Join(root, "apps"),
	}

	for _, dir := range []string{paths.Root, paths.BucketsRoot, paths.AppsRoot} {
		info, err := os.Stat(dir)
		if err != nil {
			return Paths{}, &ConfigError{Path: dir, Err: err}
		}
		if !info.IsDir() {
			return Paths{}, &ConfigError{Path: dir, Err: fmt.Errorf("not a directory")}
		}
	}

	return paths, nil
}

// configuredRoot reads root_path from the user's scoop config file, if any.
func configuredRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(home, ".config", "scoop", "config.json"))
	if err != nil {
		return ""
	}
	return gjson.GetBytes(data, "root_path").String()
}
