// Package ocid downloads third-party cell delta dumps over HTTP so they
// can be fed to the importer.
package ocid

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Client fetches gzip CSV delta dumps from an OCID-style download
// endpoint.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a download client. The timeout bounds the whole
// download, not individual reads; dumps run to hundreds of megabytes, so
// callers should configure it generously.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Download fetches the named dump into destPath and returns the number of
// bytes written. The partial file is removed on any failure.
func (c *Client) Download(ctx context.Context, name, destPath string) (int64, error) {
	params := url.Values{"datafile": {name}}
	if c.apiKey != "" {
		params.Set("apiKey", c.apiKey)
	}
	fullURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("download API error: status %d: %s", resp.StatusCode, body)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", destPath, err)
	}

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		out.Close()
		os.Remove(destPath)
		return 0, fmt.Errorf("write %s: %w", destPath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(destPath)
		return 0, fmt.Errorf("close %s: %w", destPath, err)
	}

	c.logger.Info("delta dump downloaded", "name", name, "bytes", written)
	return written, nil
}
