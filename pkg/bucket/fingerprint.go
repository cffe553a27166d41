package bucket

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rogpeppe/go-internal/dirhash"
	"github.com/zeebo/xxh3"
)

func hashXXH3(files []string, open func(string) (io.ReadCloser, error)) (string, error) {
	h := xxh3.New()
	files = append([]string(nil), files...)
	sort.Strings(files)
	for _, file := range files {
		if strings.Contains(file, "\n") {
			return "", errors.New("dirhash: filenames with newlines are not supported")
		}
		r, err := open(file)
		if err != nil {
			return "", err
		}
		hf := xxh3.New()
		_, err = io.Copy(hf, r)
		r.Close()
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%x  %s\n", hf.Sum(nil), file)
	}
	return "xxh3:" + base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// Fingerprint digests the content of every manifest file in the bucket. It
// is stable for a fixed filesystem snapshot regardless of enumeration order,
// so two builds over the same tree produce the same fingerprint.
func (b Bucket) Fingerprint() (string, error) {
	files, errs := b.ManifestFiles()
	if len(errs) > 0 {
		return "", fmt.Errorf("fingerprint bucket %q: %w", b.Name, errs[0])
	}
	return dirhash.Hash1(relPaths(b.Dir, files), func(name string) (io.ReadCloser, error) {
		return os.Open(joinRel(b.Dir, name))
	})
}

// ContentHash is Fingerprint with the xxh3 file hash instead of dirhash's
// default; it is what the buckets listing displays.
func (b Bucket) ContentHash() (string, error) {
	files, errs := b.ManifestFiles()
	if len(errs) > 0 {
		return "", fmt.Errorf("hash bucket %q: %w", b.Name, errs[0])
	}
	return hashXXH3(relPaths(b.Dir, files), func(name string) (io.ReadCloser, error) {
		return os.Open(joinRel(b.Dir, name))
	})
}

func relPaths(dir string, files []string) []string {
	rels := make([]string, 0, len(files))
	for _, f := range files {
		rel := strings.TrimPrefix(f, dir)
		rel = strings.TrimLeft(rel, `/\`)
		rels = append(rels, strings.ReplaceAll(rel, `\`, "/"))
	}
	return rels
}

func joinRel(dir, name string) string {
	return dir + string(os.PathSeparator) + strings.ReplaceAll(name, "/", string(os.PathSeparator))
}
