// internal/auth/resolver.go
//
// Header-driven UserContext resolution.
//
// Context
// -------
// The front end sends two clear-text headers with every dashboard request:
// an identity (customer id) and an order scope.  Resolve applies the
// documented defaults for absent values, rejects malformed identities, and
// derives the role from a promotion set.  It performs no I/O and holds no
// mutable state, so one Resolver serves all requests concurrently.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

// ErrInvalidIdentityFormat is fatal for the request.
var ErrInvalidIdentityFormat = errors.New("invalid identity format: must be a 5-character alphanumeric string")

const (
	DefaultUserHeader  = "x-header-one"
	DefaultOrderHeader = "x-header-two"
	DefaultUserID      = "CENTC"
	DefaultOrderID     = "10248"
)

// Options configures a Resolver.  Empty strings fall back to the Default*
// constants; a nil PromotedUserIDs slice promotes no one.
type Options struct {
	UserHeader      string
	OrderHeader     string
	DefaultUserID   string
	DefaultOrderID  string
	PromotedUserIDs []string
}

// Resolver turns request headers into a UserContext.
type Resolver struct {
	userHeader     string
	orderHeader    string
	defaultUserID  string
	defaultOrderID string
	promoted       map[string]struct{}
}

// NewResolver copies opts; later changes to the slice do not leak in.
func NewResolver(opts Options) *Resolver {
	r := &Resolver{
		userHeader:     firstNonEmpty(opts.UserHeader, DefaultUserHeader),
		orderHeader:    firstNonEmpty(opts.OrderHeader, DefaultOrderHeader),
		defaultUserID:  firstNonEmpty(opts.DefaultUserID, DefaultUserID),
		defaultOrderID: firstNonEmpty(opts.DefaultOrderID, DefaultOrderID),
		promoted:       make(map[string]struct{}, len(opts.PromotedUserIDs)),
	}
	for _, id := range opts.PromotedUserIDs {
		r.promoted[id] = struct{}{}
	}
	return r
}

// Resolve reads the identity and order headers from h.
//
// The order id is carried as-is; it is validated only by the code paths that
// interpolate it.
func (r *Resolver) Resolve(h http.Header) (UserContext, error) {
	userID := h.Get(r.userHeader)
	if userID == "" {
		userID = r.defaultUserID
	}
	orderID := h.Get(r.orderHeader)
	if orderID == "" {
		orderID = r.defaultOrderID
	}

	if !ValidCustomerID(userID) {
		return UserContext{}, fmt.Errorf("%w: %q", ErrInvalidIdentityFormat, truncate(userID, 16))
	}

	return UserContext{userID: userID, orderID: orderID, role: r.RoleOf(userID)}, nil
}

// RoleOf maps an identity to its role.  Same input, same answer.
func (r *Resolver) RoleOf(userID string) Role {
	if _, ok := r.promoted[userID]; ok {
		return RoleAdmin
	}
	return RoleUser
}

// PromotedUserIDs returns the promotion set in unspecified order.
func (r *Resolver) PromotedUserIDs() []string {
	out := make([]string, 0, len(r.promoted))
	for id := range r.promoted {
		out = append(out, id)
	}
	return out
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

// truncate keeps hostile header values out of error strings and logs.  It
// cuts at a rune boundary at or before byte n.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for cut < len(s) {
		_, size := utf8.DecodeRuneInString(s[cut:])
		if cut+size > n {
			break
		}
		cut += size
	}
	return s[:cut] + "…"
}
