package papermc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

var (
	errBadHTTPStatus = errors.New("unexpected http status")
	errNoBuilds      = errors.New("no builds published for version")
)

// Build is a single entry of the build index.
// Only the build number is consumed; the index publishes more fields.
type Build struct {
	Build int `json:"build"`
}

// buildsResponse is the body of GET {base}/versions/{version}/builds/.
type buildsResponse struct {
	Builds []Build `json:"builds"`
}

// Client talks to the build distribution API for a single project,
// e.g. https://api.papermc.io/v2/projects/paper.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the given API base URL.
// The timeout bounds every individual request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ArtifactName returns the canonical jar name for a version and build,
// e.g. paper-1.20.1-11.jar.
func ArtifactName(version string, build int) string {
	return fmt.Sprintf("paper-%s-%d.jar", version, build)
}

// ListBuilds fetches the build index for a version.
// The index is ordered ascending by the upstream API.
func (c *Client) ListBuilds(ctx context.Context, version string) ([]Build, error) {
	response, err := c.get(ctx, "versions", version, "builds")
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	var body buildsResponse
	if err = json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("parse build index: %w", err)
	}

	return body.Builds, nil
}

// LatestBuild returns the last entry of the build index.
// Index order is trusted; no numeric-max comparison is performed.
func (c *Client) LatestBuild(ctx context.Context, version string) (Build, error) {
	builds, err := c.ListBuilds(ctx, version)
	if err != nil {
		return Build{}, err
	}

	if len(builds) == 0 {
		return Build{}, fmt.Errorf("%s: %w", version, errNoBuilds)
	}

	return builds[len(builds)-1], nil
}

// DownloadBuild streams the jar for the given build into dest.
// A partial file may remain at dest when the transfer fails mid-stream.
func (c *Client) DownloadBuild(ctx context.Context, version string, build int, dest string) error {
	artifact := ArtifactName(version, build)

	response, err := c.get(ctx, "versions", version, "builds", fmt.Sprint(build), "downloads", artifact)
	if err != nil {
		return err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	output, err := os.Create(filepath.Clean(dest))
	if err != nil {
		return err
	}

	if _, err = io.Copy(output, response.Body); err != nil {
		_ = output.Close()

		return err
	}

	return output.Close()
}

// get issues a GET against the API base with the given path elements appended.
func (c *Client) get(ctx context.Context, elements ...string) (*http.Response, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}

	// Use path.Join to normalize duplicate slashes when composing the URL path.
	endpoint.Path = path.Join(append([]string{"/", endpoint.Path}, elements...)...)
	finalURL := endpoint.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		_ = response.Body.Close()

		return nil, fmt.Errorf("%s, %s: %w", finalURL, response.Status, errBadHTTPStatus)
	}

	return response, nil
}
