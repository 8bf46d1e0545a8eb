// Package client is the session-aware HTTP client for the care records API.
//
// Every call is sent through AttachTransport, which adds the current access
// token. A 401 is handed to the Coordinator, which refreshes the credential
// at most once no matter how many calls fail together, then each failed call
// is replayed exactly once with the new token. When the refresh is rejected,
// the stored credentials are cleared and every waiting call fails with a
// *RefreshError.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-care-client/credentials"
	"github.com/jrsteele09/go-care-client/refresh"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 10 << 20

// Response is a fully read 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("[Response Decode] empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("[Response Decode] %w", err)
	}
	return nil
}

type options struct {
	base           http.RoundTripper
	timeout        time.Duration
	refreshTimeout time.Duration
	userAgent      string
	limit          rate.Limit
	burst          int
	logger         zerolog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithTransport sets the round tripper underneath the credential attacher.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithTimeout bounds each individual attempt (the original send and the
// replay are timed separately).
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRefreshTimeout bounds the refresh call. Zero means no timeout.
func WithRefreshTimeout(d time.Duration) Option {
	return func(o *options) { o.refreshTimeout = d }
}

// WithUserAgent sets the User-Agent sent on calls that do not carry one.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithRateLimit caps outbound calls at rps per second. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		if rps <= 0 {
			o.limit = 0
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limit = rate.Limit(rps)
		o.burst = burst
	}
}

// WithLogger sets the logger. The default is the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Client calls the protected API on behalf of one session.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	store       credentials.Store
	coordinator *Coordinator
	limiter     *rate.Limiter
	logger      zerolog.Logger
}

// New creates a client. The refresher must use its own HTTP client: the
// refresh call must never pass through the attaching transport.
func New(baseURL string, store credentials.Store, refresher refresh.Refresher, opts ...Option) *Client {
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}

	baseURL = strings.TrimRight(baseURL, "/")
	var host string
	if u, err := url.Parse(baseURL); err == nil {
		host = u.Host
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: &AttachTransport{Base: o.base, Store: store, UserAgent: o.userAgent, Host: host},
			Timeout:   o.timeout,
		},
		store:       store,
		coordinator: NewCoordinator(store, refresher, o.refreshTimeout, o.logger),
		logger:      o.logger.With().Str("component", "client").Logger(),
	}
	if o.limit > 0 {
		c.limiter = rate.NewLimiter(o.limit, o.burst)
	}
	return c
}

// Coordinator exposes the refresh coordinator, mainly for diagnostics.
func (c *Client) Coordinator() *Coordinator {
	return c.coordinator
}

// SetTokens records the pair produced by a login. An empty refresh keeps the
// stored one.
func (c *Client) SetTokens(access, refresh string) {
	c.store.Set(access, refresh)
}

// Logout forgets the session's credentials.
func (c *Client) Logout() {
	c.store.Clear()
	c.logger.Info().Msg("Session credentials cleared")
}

// Session returns the stored credential pair.
func (c *Client) Session() credentials.Pair {
	return c.store.Get()
}

// Do sends call. A 401 triggers (or joins) a credential refresh, after which
// the call is replayed once. Non-2xx responses are returned as *StatusError.
func (c *Client) Do(ctx context.Context, call *Call) (*Response, error) {
	resp, err := c.send(ctx, call)
	if err == nil {
		return resp, nil
	}

	access, err := c.coordinator.Recover(ctx, call, err)
	if err != nil {
		return nil, err
	}
	return c.replay(ctx, call, access)
}

func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.doJSON(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, payload any) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, path, payload)
}

func (c *Client) Put(ctx context.Context, path string, payload any) (*Response, error) {
	return c.doJSON(ctx, http.MethodPut, path, payload)
}

func (c *Client) Patch(ctx context.Context, path string, payload any) (*Response, error) {
	return c.doJSON(ctx, http.MethodPatch, path, payload)
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.doJSON(ctx, http.MethodDelete, path, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) (*Response, error) {
	call, err := NewCall(method, path, payload)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, call)
}

// replay resubmits a call through the normal path. The call is already
// marked retried, so a second 401 comes straight back to the caller.
func (c *Client) replay(ctx context.Context, call *Call, access string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	call.setBearer(access)
	c.logger.Debug().Str("method", call.Method).Str("path", call.Path).Msg("Replaying call with refreshed credential")
	return c.Do(ctx, call)
}

func (c *Client) send(ctx context.Context, call *Call) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("[Client send] rate limit: %w", err)
		}
	}

	req, err := call.request(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[Client send] %s %s: %w", call.Method, call.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("[Client send] %s %s: failed to read body: %w", call.Method, call.Path, err)
	}
	tooLarge := len(body) > maxResponseBytes
	if tooLarge {
		body = body[:maxResponseBytes]
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     call.Method,
			Path:       call.Path,
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	if tooLarge {
		return nil, fmt.Errorf("[Client send] %s %s: %w (limit %d bytes)", call.Method, call.Path, ErrResponseTooLarge, maxResponseBytes)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
