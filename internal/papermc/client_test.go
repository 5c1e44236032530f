package papermc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newIndexServer serves a minimal build index and one downloadable jar.
func newIndexServer(t *testing.T, jarBody string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/versions/1.20.1/builds", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"builds":[{"build":10},{"build":11}]}`))
	})
	mux.HandleFunc("/versions/1.20.1/builds/11/downloads/paper-1.20.1-11.jar",
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(jarBody))
		})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

// TestLatestBuild picks the last entry of the index.
func TestLatestBuild(t *testing.T) {
	t.Parallel()

	server := newIndexServer(t, "jar-bytes")
	client := NewClient(server.URL, time.Second)

	build, err := client.LatestBuild(context.Background(), "1.20.1")
	require.NoError(t, err)
	require.Equal(t, 11, build.Build)
}

// TestLatestBuild_EmptyIndex reports an error when no builds are published.
func TestLatestBuild_EmptyIndex(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"builds":[]}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, time.Second)

	_, err := client.LatestBuild(context.Background(), "1.20.1")
	require.ErrorIs(t, err, errNoBuilds)
}

// TestLatestBuild_BadStatus surfaces non-200 responses.
func TestLatestBuild_BadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, time.Second)

	_, err := client.LatestBuild(context.Background(), "1.20.1")
	require.ErrorIs(t, err, errBadHTTPStatus)
}

// TestLatestBuild_BadBody surfaces unparseable responses.
func TestLatestBuild_BadBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, time.Second)

	_, err := client.LatestBuild(context.Background(), "1.20.1")
	require.Error(t, err)
}

// TestDownloadBuild fetches the artifact to the destination path.
func TestDownloadBuild(t *testing.T) {
	t.Parallel()

	server := newIndexServer(t, "jar-bytes")
	client := NewClient(server.URL, time.Second)

	dest := filepath.Join(t.TempDir(), "staged.jar")
	require.NoError(t, client.DownloadBuild(context.Background(), "1.20.1", 11, dest))

	contents, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "jar-bytes", string(contents))
}

// TestDownloadBuild_MissingBuild fails on a 404 without touching dest.
func TestDownloadBuild_MissingBuild(t *testing.T) {
	t.Parallel()

	server := newIndexServer(t, "jar-bytes")
	client := NewClient(server.URL, time.Second)

	dest := filepath.Join(t.TempDir(), "staged.jar")
	err := client.DownloadBuild(context.Background(), "1.20.1", 12, dest)
	require.ErrorIs(t, err, errBadHTTPStatus)

	_, err = os.Stat(dest)
	require.True(t, os.IsNotExist(err))
}

// TestArtifactName checks the canonical jar naming.
func TestArtifactName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "paper-1.20.1-11.jar", ArtifactName("1.20.1", 11))
}
