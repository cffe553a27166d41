package manifest

import (
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// CompareVersions orders two package version strings. Versions that form
// valid semantic versions (with or without the leading "v") are compared as
// such; everything else falls back to a segment-wise comparison where runs of
// digits compare numerically. Returns -1, 0 or +1.
func CompareVersions(a, b string) int {
	va, vb := normalizeSemver(a), normalizeSemver(b)
	if va != "" && vb != "" {
		return semver.Compare(va, vb)
	}
	return compareSegments(a, b)
}

func normalizeSemver(v string) string {
	v = strings.TrimPrefix(v, "v")
	if semver.IsValid("v" + v) {
		return "v" + v
	}
	return ""
}

func compareSegments(a, b string) int {
	as, bs := splitSegments(a), splitSegments(b)
	for i := 0; i < len(as) || i < len(bs); i++ {
		// A missing segment sorts before any present one: 1.2 < 1.2.1.
		if i >= len(as) {
			return -1
		}
		if i >= len(bs) {
			return 1
		}
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareSegment(a, b string) int {
	an, aerr := strconv.ParseUint(a, 10, 64)
	bn, berr := strconv.ParseUint(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	case aerr == nil:
		// Numeric segments sort after textual ones: "beta" < "1".
		return 1
	case berr == nil:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

func splitSegments(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		switch r {
		case '.', '-', '_', '+':
			return true
		}
		return false
	})
}
