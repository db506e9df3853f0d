package versionfile

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxFetchSize caps remote version files; anything bigger is not one.
const maxFetchSize = 1 << 20

// Client fetches author-hosted master version files.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a version file client. A nil httpClient uses
// http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient}
}

// FetchMaster downloads and parses the remote copy of a version file.
func (c *Client) FetchMaster(ctx context.Context, url string) (*VersionFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return Parse(data)
}
