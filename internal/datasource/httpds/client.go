// Package httpds implements the HTTP datasource used to download the bank
// page. It is a thin wrapper over net/http that adds a default timeout, base
// headers and optional TLS verification skipping, and turns every failure
// (transport error or non-2xx status) into an etlerr.ErrNetwork.
//
// The client makes exactly one attempt per request. A failed fetch ends the
// run; there is no retry or backoff.
package httpds

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"banketl/internal/etlerr"
)

// DefaultUserAgent is sent when Config.BaseHeaders has no User-Agent.
const DefaultUserAgent = "banketl/1.0 (+https://github.com/banketl)"

// Config configures the HTTP datasource client.
//
// Zero values are given sensible defaults:
//   - Timeout: 30s
type Config struct {
	// Timeout is the per-request timeout applied at the http.Client level.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// BaseHeaders are added to every request. Per-request headers override.
	BaseHeaders http.Header

	// Transport is an optional custom RoundTripper. When nil, a default
	// *http.Transport is constructed based on the TLS settings.
	Transport http.RoundTripper
}

// Client wraps an http.Client.
type Client struct {
	httpClient  *http.Client
	baseHeaders http.Header
}

// NewClient constructs a Client from Config, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // explicitly configurable
			},
		}
	}

	hdr := http.Header{}
	for k, vs := range cfg.BaseHeaders {
		for _, v := range vs {
			hdr.Add(k, v)
		}
	}
	if hdr.Get("User-Agent") == "" {
		hdr.Set("User-Agent", DefaultUserAgent)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseHeaders: hdr,
	}
}

// Get fetches url. On success the caller must close the response body.
// Transport errors and non-2xx statuses are returned as etlerr.ErrNetwork.
func (c *Client) Get(ctx context.Context, url string, headers http.Header) (*http.Response, error) {
	if url == "" {
		return nil, etlerr.Newf(etlerr.ErrConfig, "httpds: url must not be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, etlerr.Wrap(etlerr.ErrNetwork, err, "httpds: build request")
	}

	// Base headers first, then per-request headers (which override).
	for k, vs := range c.baseHeaders {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, etlerr.Wrapf(etlerr.ErrNetwork, err, "httpds: GET %s", url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused, then close.
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		_ = resp.Body.Close()
		return nil, etlerr.Wrapf(etlerr.ErrNetwork, fmt.Errorf("unexpected status %s", resp.Status), "httpds: GET %s", url)
	}
	return resp, nil
}

// Source is a datasource.Source bound to one URL.
type Source struct {
	client *Client
	url    string
}

// NewSource returns a Source fetching url with client.
func NewSource(client *Client, url string) *Source {
	return &Source{client: client, url: url}
}

// URL returns the bound URL.
func (s *Source) URL() string { return s.url }

// Open performs the GET and returns the response body.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
