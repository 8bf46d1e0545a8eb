package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Call describes one outbound request. Its body is buffered so the call can
// be replayed after a credential refresh.
//
// A Call is single-use: once it has been replayed it is never eligible for
// another refresh, so build a fresh Call for each logical request.
type Call struct {
	Method string
	// Path is resolved against the client's base URL unless it is absolute.
	Path   string
	Header http.Header
	Body   []byte

	retried bool
}

// NewCall builds a Call, encoding payload as JSON when it is not nil.
func NewCall(method, path string, payload any) (*Call, error) {
	call := &Call{
		Method: method,
		Path:   path,
		Header: make(http.Header),
	}
	call.Header.Set("Accept", "application/json")

	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("[client NewCall] failed to encode %s %s body: %w", method, path, err)
		}
		call.Body = body
		call.Header.Set("Content-Type", "application/json")
	}
	return call, nil
}

// Retried reports whether the call has already been replayed after a
// refresh. A retried call's failure is always final.
func (c *Call) Retried() bool {
	return c.retried
}

func (c *Call) markRetried() {
	c.retried = true
}

func (c *Call) setBearer(access string) {
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	c.Header.Set("Authorization", "Bearer "+access)
}

func (c *Call) url(baseURL string) string {
	if strings.HasPrefix(c.Path, "http://") || strings.HasPrefix(c.Path, "https://") {
		return c.Path
	}
	return baseURL + "/" + strings.TrimLeft(c.Path, "/")
}

// request builds a fresh *http.Request; the buffered body is re-read each time.
func (c *Call) request(ctx context.Context, baseURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, c.Method, c.url(baseURL), bytes.NewReader(c.Body))
	if err != nil {
		return nil, fmt.Errorf("[Call request] %s %s: %w", c.Method, c.Path, err)
	}
	if c.Body == nil {
		req.Body = http.NoBody
		req.ContentLength = 0
	}
	for k, v := range c.Header {
		req.Header[k] = append([]string(nil), v...)
	}
	return req, nil
}
