// Package fakebackend is an in-process care records backend for tests. It
// issues HS256 access tokens and opaque refresh tokens, serves the
// simplejwt and OAuth2 refresh endpoints plus OIDC discovery, and protects
// its resource routes with bearer authentication.
package fakebackend

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/jrsteele09/go-care-client/credentials"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const (
	RouteSimpleJWTRefresh = "/api/auth/token/refresh/"
	RouteOAuthToken       = "/oauth/token"
	RouteDiscovery        = "/.well-known/openid-configuration"
	RouteEcho             = "/api/echo/"
)

// Request is one request observed on a protected route.
type Request struct {
	Method        string
	Path          string
	Authorization string
	Body          []byte
}

// Backend is a running fake backend. Close it when done.
type Backend struct {
	URL string

	server    *httptest.Server
	secret    []byte
	accessTTL time.Duration

	mu                 sync.Mutex
	generation         int
	refreshTokens      map[string]string // refresh token -> subject
	rotateRefresh      bool
	rejectRefresh      bool
	refreshHold        chan struct{}
	refreshCalls       int
	alwaysUnauthorized map[string]bool
	requests           []Request
	refreshRequests    []Request
	clientID           string
	clientSecret       string
	timelines          map[string]Timeline
	records            map[string]map[string]map[string]any // kind -> id -> fields
}

// New starts a backend on a loopback listener.
func New() *Backend {
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)

	b := &Backend{
		secret:             secret,
		accessTTL:          5 * time.Minute,
		refreshTokens:      make(map[string]string),
		alwaysUnauthorized: make(map[string]bool),
		timelines:          make(map[string]Timeline),
		records: map[string]map[string]map[string]any{
			"incidents": {},
			"mar":       {},
		},
	}
	b.server = httptest.NewServer(b.routes())
	b.URL = b.server.URL
	return b
}

func (b *Backend) Close() {
	b.server.Close()
}

func (b *Backend) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+RouteSimpleJWTRefresh, b.recordRefresh(b.simpleJWTRefreshHandler))
	mux.HandleFunc("POST "+RouteOAuthToken, b.recordRefresh(b.oauthTokenHandler))
	mux.HandleFunc("GET "+RouteDiscovery, b.discoveryHandler)
	mux.HandleFunc("GET /api/residents/{id}/timeline/", b.requireAuth(b.timelineHandler))
	mux.HandleFunc("PATCH /api/incidents/{id}/", b.requireAuth(b.patchRecordHandler("incidents")))
	mux.HandleFunc("PATCH /api/mar/{id}/", b.requireAuth(b.patchRecordHandler("mar")))
	mux.HandleFunc(RouteEcho, b.requireAuth(b.echoHandler))
	return mux
}

// IssuePair mints a login's access/refresh pair for subject.
func (b *Backend) IssuePair(subject string) credentials.Pair {
	b.mu.Lock()
	defer b.mu.Unlock()
	return credentials.Pair{
		Access:  b.signAccessLocked(subject),
		Refresh: b.newRefreshLocked(subject),
	}
}

// IssueAccess mints an access token without a refresh token.
func (b *Backend) IssueAccess(subject string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.signAccessLocked(subject)
}

// InvalidateAccessTokens makes every access token issued so far fail with
// 401, as if they had all expired at once.
func (b *Backend) InvalidateAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generation++
}

// SetRotateRefresh makes successful refreshes issue a new refresh token and
// revoke the old one.
func (b *Backend) SetRotateRefresh(rotate bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rotateRefresh = rotate
}

// SetRejectRefresh makes every refresh request fail with 401.
func (b *Backend) SetRejectRefresh(reject bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectRefresh = reject
}

// SetClientCredentials requires these OAuth2 client credentials on the
// token endpoint.
func (b *Backend) SetClientCredentials(clientID, clientSecret string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clientID = clientID
	b.clientSecret = clientSecret
}

// HoldRefresh parks refresh requests until the returned release func is
// called. Refresh calls are still counted on arrival.
func (b *Backend) HoldRefresh() (release func()) {
	hold := make(chan struct{})
	b.mu.Lock()
	b.refreshHold = hold
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if b.refreshHold == hold {
				b.refreshHold = nil
			}
			b.mu.Unlock()
			close(hold)
		})
	}
}

// SetAlwaysUnauthorized makes path answer 401 regardless of the token.
func (b *Backend) SetAlwaysUnauthorized(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alwaysUnauthorized[path] = true
}

// RefreshCalls counts requests received on either refresh endpoint.
func (b *Backend) RefreshCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshCalls
}

// Requests returns the protected-route requests seen for path, oldest first.
func (b *Backend) Requests(path string) []Request {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Request
	for _, r := range b.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// RefreshRequests returns the requests seen on either refresh endpoint,
// oldest first.
func (b *Backend) RefreshRequests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.refreshRequests...)
}

// HasRefreshToken reports whether token is still redeemable.
func (b *Backend) HasRefreshToken(token string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.refreshTokens[token]
	return ok
}

func (b *Backend) newRefreshLocked(subject string) string {
	tokenBytes := make([]byte, 32)
	_, _ = rand.Read(tokenBytes)
	token := hex.EncodeToString(tokenBytes)
	b.refreshTokens[token] = subject
	return token
}

func (b *Backend) record(r *http.Request, body []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, newRequest(r, body))
}

func newRequest(r *http.Request, body []byte) Request {
	return Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		Body:          body,
	}
}
