// Package client is a read-only client for Aleph nodes.
//
// A Client holds only immutable configuration and is safe for concurrent
// use. Each call performs one request; there are no retries and no
// automatic pagination. Cancellation and deadlines come from the context.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// DefaultDecodeConcurrency bounds parallel record decoding per call.
	DefaultDecodeConcurrency = 8
	// RequestIDHeader carries a per-request UUID for correlation in node logs.
	RequestIDHeader = "X-Request-ID"

	defaultUserAgent = "aleph-sdk-go"
	maxErrorBody     = 4 << 10
)

// Client talks to one node.
type Client struct {
	base              *url.URL
	http              *http.Client
	dialer            *websocket.Dialer
	log               *zap.Logger
	userAgent         string
	decodeConcurrency int

	backoffMin time.Duration
	backoffMax time.Duration
}

type options struct {
	httpClient        *http.Client
	timeout           time.Duration
	logger            *zap.Logger
	userAgent         string
	decodeConcurrency int
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient sets the transport. Pooling and TLS are its concern.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithDecodeConcurrency bounds how many records of one listing are decoded
// in parallel. Values below 1 mean 1.
func WithDecodeConcurrency(n int) Option {
	return func(o *options) { o.decodeConcurrency = n }
}

// New validates baseURL and returns a Client. It performs no I/O.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := parseEndpoint(baseURL)
	if err != nil {
		return nil, err
	}

	o := options{
		userAgent:         defaultUserAgent,
		decodeConcurrency: DefaultDecodeConcurrency,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{}
	}
	if o.timeout > 0 {
		cp := *hc
		cp.Timeout = o.timeout
		hc = &cp
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if o.decodeConcurrency < 1 {
		o.decodeConcurrency = 1
	}

	dialer := *websocket.DefaultDialer
	if o.timeout > 0 {
		dialer.HandshakeTimeout = o.timeout
	}

	return &Client{
		base:              u,
		http:              hc,
		dialer:            &dialer,
		log:               logger.Named("client"),
		userAgent:         o.userAgent,
		decodeConcurrency: o.decodeConcurrency,
		backoffMin:        100 * time.Millisecond,
		backoffMax:        30 * time.Second,
	}, nil
}

func parseEndpoint(raw string) (*url.URL, error) {
	invalid := func(reason string, cause error) error {
		return &ConfigError{Kind: ConfigInvalidEndpoint, Endpoint: raw, Reason: reason, Cause: cause}
	}
	if strings.TrimSpace(raw) == "" {
		return nil, invalid("empty endpoint", nil)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, invalid("malformed URL", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, invalid("scheme must be http or https", nil)
	}
	if u.Host == "" || u.Hostname() == "" {
		return nil, invalid("missing host", nil)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, invalid("endpoint must not carry a query or fragment", nil)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	return u, nil
}

// BaseURL returns the configured node endpoint.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) endpoint(path string, q url.Values) *url.URL {
	u := *c.base
	u.Path = c.base.Path + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return &u
}

// do sends one request. Transport failures come back as KindNetwork; the
// caller owns the response body otherwise.
func (c *Client) do(ctx context.Context, op, hash, method string, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, &Error{Kind: KindConfig, Op: op, ItemHash: hash, Message: "cannot build request", Cause: err}
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("op", op),
			zap.String("request_id", reqID),
			zap.String("url", u.String()),
			zap.Error(err))
		return nil, &Error{Kind: KindNetwork, Op: op, ItemHash: hash, Message: "request failed", Cause: err}
	}
	c.log.Debug("request",
		zap.String("op", op),
		zap.String("request_id", reqID),
		zap.String("method", method),
		zap.String("url", u.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// checkStatus maps non-2xx responses to errors and drains their body.
func checkStatus(op, hash string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return &Error{Kind: KindNotFound, Op: op, ItemHash: hash, StatusCode: resp.StatusCode, Message: "not found"}
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := fmt.Sprintf("unexpected status %s", resp.Status)
	if s := strings.TrimSpace(string(body)); s != "" {
		msg += ": " + s
	}
	return &Error{Kind: KindNetwork, Op: op, ItemHash: hash, StatusCode: resp.StatusCode, Message: msg}
}

// readBody reads a successful response. A failure mid-body is a transport
// failure.
func readBody(op, hash string, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, ItemHash: hash, StatusCode: resp.StatusCode, Message: "reading response", Cause: err}
	}
	return b, nil
}

func (c *Client) get(ctx context.Context, op, hash string, u *url.URL) ([]byte, error) {
	resp, err := c.do(ctx, op, hash, http.MethodGet, u)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(op, hash, resp); err != nil {
		return nil, err
	}
	return readBody(op, hash, resp)
}
