// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package remotefetch loads individual objects and summaries from a remote
// object store over file://, http:// or https://. It is a leaf dependency
// shared by the repo layer's pull path and the metadata-only fetch path.
package remotefetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// ErrNotFound is returned when the remote reports 404 or 410.
var ErrNotFound = errors.New("remotefetch: not found")

// ErrFailed is returned for any other non-2xx response or transport error.
var ErrFailed = errors.New("remotefetch: failed")

const userAgent = "ostree "

const requestTimeout = 60 * time.Second

// Fetcher loads URIs over file:// and http(s)://. Its environment-driven
// settings (proxy, debug toggle) are read once at construction.
type Fetcher struct {
	client *http.Client
	debug  bool
}

// New builds a Fetcher, honoring the http_proxy environment variable and
// the debug-http toggle. An unparseable http_proxy value is logged and
// ignored rather than treated as fatal.
func New() *Fetcher {
	debug := os.Getenv("OSTREE_DEBUG_HTTP") != ""

	client, err := buildClient(os.Getenv("http_proxy"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "remotefetch: ignoring invalid http_proxy: %v\n", err)
		client = &http.Client{Timeout: requestTimeout}
	}

	return &Fetcher{client: client, debug: debug}
}

func buildClient(proxyEnv string) (*http.Client, error) {
	tr := &http.Transport{
		MaxIdleConns:          64,
		IdleConnTimeout:       requestTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if proxyEnv == "" {
		tr.Proxy = nil
		return &http.Client{Transport: tr, Timeout: requestTimeout}, nil
	}

	proxyURL, err := url.Parse(proxyEnv)
	if err != nil {
		return nil, fmt.Errorf("parse http_proxy %q: %w", proxyEnv, err)
	}

	if strings.HasPrefix(strings.ToLower(proxyURL.Scheme), "socks5") {
		dialer, err := proxy.FromURL(proxyURL, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("build socks5 dialer: %w", err)
		}
		tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	} else {
		tr.Proxy = http.ProxyURL(proxyURL)
	}

	return &http.Client{Transport: tr, Timeout: requestTimeout}, nil
}

// Load fetches the full body of uri. Supported schemes are file://, http://
// and https://; anything else fails with "unsupported scheme".
func (f *Fetcher) Load(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFailed, uri, err)
	}

	switch u.Scheme {
	case "file":
		return os.ReadFile(u.Path)
	case "http", "https":
		return f.loadHTTP(ctx, uri)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrFailed, u.Scheme)
	}
}

func (f *Fetcher) loadHTTP(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)

	if f.debug {
		fmt.Fprintf(os.Stderr, "remotefetch: GET %s\n", uri)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFailed, uri, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading body: %v", ErrFailed, uri, err)
	}

	if f.debug {
		fmt.Fprintf(os.Stderr, "remotefetch: %s -> %s (%d bytes)\n", uri, resp.Status, len(body))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: %s: %s", ErrNotFound, uri, resp.Status)
	default:
		return nil, fmt.Errorf("%w: %s: %s", ErrFailed, uri, resp.Status)
	}
}
