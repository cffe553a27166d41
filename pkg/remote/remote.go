// Package remote implements the opt-in upstream version probe used by
// verbose info queries. Probes are bounded by a per-package timeout and are
// never on the path of search, list or outdated.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/scoopq/scoopq/pkg/query"
)

// DefaultTimeout bounds one version probe.
const DefaultTimeout = 5 * time.Second

// maxBody caps how much of a probe response is read for version extraction.
const maxBody = 1 << 20

// ErrNoCheckver is returned for manifests that declare no usable
// version-check probe.
var ErrNoCheckver = errors.New("manifest declares no version check")

// Checker fetches a package's upstream page and extracts the latest version
// with the manifest's own checkver regex.
type Checker struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures a Checker.
type Option func(*Checker)

// WithClient substitutes the HTTP client, mainly for tests.
func WithClient(client *http.Client) Option {
	return func(c *Checker) { c.client = client }
}

// WithTimeout overrides the per-package probe timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) { c.timeout = d }
}

// New creates a Checker.
func New(opts ...Option) *Checker {
	c := &Checker{
		client:  &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ query.RemoteChecker = (*Checker)(nil)

// LatestVersion probes the manifest's checkver URL and returns the first
// regex capture group (or the whole match when the pattern has none).
func (c *Checker) LatestVersion(ctx context.Context, m query.Describable) (string, error) {
	url, pattern, ok := m.CheckverSpec()
	if !ok {
		return "", ErrNoCheckver
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("compile checkver pattern %q: %w", pattern, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build version probe for %q: %w", url, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("probe %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("probe %q: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("read probe response from %q: %w", url, err)
	}

	groups := re.FindSubmatch(body)
	if groups == nil {
		return "", fmt.Errorf("probe %q: no version matched", url)
	}
	if len(groups) > 1 {
		return string(groups[1]), nil
	}
	return string(groups[0]), nil
}
