// Package transport executes assembled exchange requests over HTTP.
package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"spotwire/pkg/core"
)

// Doer executes a single request. Implementations must send Query and Body verbatim.
type Doer interface {
	Do(ctx context.Context, req *core.Request) (*Response, error)
}

// Config holds transport settings.
type Config struct {
	BaseURL        string        `validate:"required,url"`
	Timeout        time.Duration `validate:"min=1ms"`
	ConnectTimeout time.Duration `validate:"min=1ms"`
	MaxRedirects   int           `validate:"min=0"`
	UserAgent      string
}

// Client sends requests through two resty clients sharing one connection pool.
// Signed requests never follow redirects; unsigned requests follow up to MaxRedirects.
type Client struct {
	plain  *resty.Client
	signed *resty.Client
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// Response represents an HTTP response with its status code, body, and headers.
type Response struct {
	// StatusCode is the HTTP status code returned by the server.
	StatusCode int

	// Body contains the raw response body bytes.
	Body []byte

	// Headers contains the first value of each response header.
	Headers map[string]string
}

// NewClient creates a transport client. The config is validated first.
func NewClient(config *Config, logger zerolog.Logger) (*Client, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid transport config: %w", err)
	}

	pool := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: config.ConnectTimeout,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}

	plain := newResty(config, pool)
	plain.SetRedirectPolicy(resty.FlexibleRedirectPolicy(config.MaxRedirects))

	signed := newResty(config, pool)
	signed.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return core.ErrRedirectRefused
	}))

	return &Client{
		plain:  plain,
		signed: signed,
		logger: logger.With().Str("component", "transport").Logger(),
	}, nil
}

func newResty(config *Config, pool *http.Transport) *resty.Client {
	c := resty.NewWithClient(&http.Client{Transport: pool})
	c.SetBaseURL(config.BaseURL)
	c.SetTimeout(config.Timeout)
	c.SetRetryCount(0)
	if config.UserAgent != "" {
		c.SetHeader("User-Agent", config.UserAgent)
	}
	return c
}

// Do executes req and returns the raw response. Any non-nil error means no
// HTTP response was obtained.
func (c *Client) Do(ctx context.Context, req *core.Request) (*Response, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, core.ErrClientClosed
	}

	rc := c.plain
	if req.Signed {
		rc = c.signed
	}

	r := rc.R().SetContext(ctx)
	for k, v := range req.Headers {
		r.SetHeader(k, v)
	}
	if req.Body != "" {
		r.SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(req.Method, req.URL())
	elapsed := time.Since(start)

	if err != nil {
		c.logger.Debug().Err(err).
			Str("method", req.Method).
			Str("path", req.Path).
			Dur("elapsed", elapsed).
			Msg("http request failed")
		return nil, fmt.Errorf("http %s %s: %w", req.Method, req.Path, err)
	}

	body := resp.Bytes()
	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode()).
		Int("size", len(body)).
		Dur("elapsed", elapsed).
		Msg("http response")

	headers := make(map[string]string, len(resp.Header()))
	for k, v := range resp.Header() {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       body,
		Headers:    headers,
	}, nil
}

// Close releases idle connections. Subsequent calls to Do fail with core.ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.plain.Close()
	if serr := c.signed.Close(); err == nil {
		err = serr
	}
	return err
}
