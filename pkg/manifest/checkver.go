package manifest

import (
	"github.com/tidwall/gjson"
)

// CheckverSpec extracts the version-check probe from the manifest's checkver
// field. The field is either a bare regex string (probed against the
// homepage) or an object with url and regex/re keys. ok is false when the
// manifest declares no usable probe.
func (m *Manifest) CheckverSpec() (url, pattern string, ok bool) {
	if len(m.Checkver) == 0 {
		return "", "", false
	}

	raw := string(m.Checkver)
	parsed := gjson.Parse(raw)

	switch parsed.Type {
	case gjson.String:
		if m.Homepage == "" {
			return "", "", false
		}
		return m.Homepage, parsed.String(), true
	case gjson.JSON:
		url = parsed.Get("url").String()
		if url == "" {
			url = m.Homepage
		}
		pattern = parsed.Get("regex").String()
		if pattern == "" {
			pattern = parsed.Get("re").String()
		}
		if url == "" || pattern == "" {
			return "", "", false
		}
		return url, pattern, true
	default:
		return "", "", false
	}
}

// HomepageURL returns the manifest's homepage.
func (m *Manifest) HomepageURL() string {
	return m.Homepage
}
