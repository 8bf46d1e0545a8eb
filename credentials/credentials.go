// Package credentials holds the access/refresh credential pair for the
// current session. Stores are pure storage: they carry no refresh policy.
package credentials

import "strings"

// Pair is the session's credential pair. An empty field means the value is
// absent.
type Pair struct {
	// Access is the short-lived bearer token sent with every call.
	Access string `json:"access,omitempty"`
	// Refresh is the longer-lived token used only to mint a new Access.
	Refresh string `json:"refresh,omitempty"`
}

// HasAccess reports whether an access value is present.
func (p Pair) HasAccess() bool {
	return strings.TrimSpace(p.Access) != ""
}

// HasRefresh reports whether a usable refresh value is present. A blank
// value counts as absent, so no refresh is attempted with it.
func (p Pair) HasRefresh() bool {
	return strings.TrimSpace(p.Refresh) != ""
}

// Store is the durable holder of the current Pair.
//
// Set always overwrites the access value but only overwrites the refresh
// value when a non-empty one is supplied, since issuers do not always rotate
// refresh tokens. Implementations never return errors; a storage failure
// degrades to a no-op.
type Store interface {
	Get() Pair
	Set(access, refresh string)
	Clear()
}
