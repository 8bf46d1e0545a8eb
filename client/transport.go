package client

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-care-client/credentials"
)

var _ http.RoundTripper = (*AttachTransport)(nil)

// AttachTransport stamps every outbound request with the store's current
// access token as a bearer credential. When the store is empty the request
// goes out with whatever Authorization header it already carries, which
// for a fresh call is none.
//
// When Host is set, only requests for that host:port carry a credential;
// any other request (a followed redirect included) has Authorization
// removed.
type AttachTransport struct {
	Base      http.RoundTripper
	Store     credentials.Store
	UserAgent string
	Host      string
}

func (t *AttachTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	if t.Host != "" && !strings.EqualFold(out.URL.Host, t.Host) {
		out.Header.Del("Authorization")
	} else if access := t.Store.Get().Access; access != "" {
		out.Header.Set("Authorization", "Bearer "+access)
	}
	if out.Header.Get("X-Request-ID") == "" {
		out.Header.Set("X-Request-ID", uuid.NewString())
	}
	if t.UserAgent != "" && out.Header.Get("User-Agent") == "" {
		out.Header.Set("User-Agent", t.UserAgent)
	}

	return t.base().RoundTrip(out)
}

func (t *AttachTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
