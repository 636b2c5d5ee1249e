// firm is a server implementing the ActivityPub federation protocol.
// Copyright (C) 2019 Cory Slep
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package transport wraps outbound HTTP calls (fetch-fallback dereference,
// delivery) with the rate limiting and timeout discipline the
// teacher's transportController applies to federated traffic (§5).
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout is the default outbound HTTP timeout (§5).
const DefaultTimeout = 5 * time.Second

// Client issues rate-limited, timeout-bound outbound HTTP requests.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.timeout = d }
}

// WithRateLimit overrides the default rate limit (by default,
// effectively unlimited).
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(cl *Client) { cl.limiter = rate.NewLimiter(r, burst) }
}

// New builds a Client with sane federation defaults: a 5s timeout and no
// rate limiting unless WithRateLimit is supplied.
func New(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{},
		limiter: rate.NewLimiter(rate.Inf, 0),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET request to uri with headers, honoring the client's
// timeout and rate limit, and returns the (closed) body bytes alongside
// the status code.
func (c *Client) Get(ctx context.Context, uri string, headers map[string]string) (status int, body []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("transport: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.Do(ctx, req)
}

// Do issues an already-built request, honoring the client's timeout and
// rate limit, and returns the (closed) body bytes alongside the status
// code. Delivery uses this to send pre-signed POSTs.
func (c *Client) Do(ctx context.Context, req *http.Request) (status int, body []byte, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("transport: rate limit wait: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req = req.WithContext(ctx)
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("transport: do %s: %w", req.URL, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("transport: read body %s: %w", req.URL, err)
	}
	return resp.StatusCode, data, nil
}
