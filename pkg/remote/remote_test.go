package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scoopq/scoopq/pkg/manifest"
)

func probeManifest(t *testing.T, url string) *manifest.Manifest {
	t.Helper()

	m, perr := manifest.Parse([]byte(`{
		"version": "1.0.0",
		"homepage": "`+url+`",
		"checkver": "release v([\\d.]+)"
	}`), "/b/main/bucket/tool.json", "main")
	require.Nil(t, perr)
	return m
}

func TestLatestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<h1>release v2.3.4 is out</h1>"))
	}))
	defer srv.Close()

	checker := New(WithClient(srv.Client()))
	version, err := checker.LatestVersion(context.Background(), probeManifest(t, srv.URL))
	require.NoError(t, err)
	require.Equal(t, "2.3.4", version)
}

func TestLatestVersion_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("nothing to see"))
	}))
	defer srv.Close()

	checker := New(WithClient(srv.Client()))
	_, err := checker.LatestVersion(context.Background(), probeManifest(t, srv.URL))
	require.Error(t, err)
}

func TestLatestVersion_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	checker := New(WithClient(srv.Client()), WithTimeout(50*time.Millisecond))
	_, err := checker.LatestVersion(context.Background(), probeManifest(t, srv.URL))
	require.Error(t, err)
}

func TestLatestVersion_NoCheckver(t *testing.T) {
	m, perr := manifest.Parse([]byte(`{"version": "1.0"}`), "/b/main/bucket/tool.json", "main")
	require.Nil(t, perr)

	checker := New()
	_, err := checker.LatestVersion(context.Background(), m)
	require.ErrorIs(t, err, ErrNoCheckver)
}

func TestLatestVersion_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	checker := New(WithClient(srv.Client()))
	_, err := checker.LatestVersion(context.Background(), probeManifest(t, srv.URL))
	require.Error(t, err)
}
