// internal/auth/middleware.go
//
// Chi-compatible middleware that resolves the caller from headers.

package auth

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/dashgate/internal/metrics"
)

// HeaderResolver is satisfied by *Resolver and by ResolverFunc.
type HeaderResolver interface {
	Resolve(h http.Header) (UserContext, error)
}

// ResolverFunc adapts a plain function to HeaderResolver.
type ResolverFunc func(h http.Header) (UserContext, error)

func (f ResolverFunc) Resolve(h http.Header) (UserContext, error) { return f(h) }

// ErrorFunc writes an error response.  The API layer supplies its JSON
// writer; nil falls back to a plain 400.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// Middleware resolves the UserContext for every request and stores it on
// the request context.  A malformed identity ends the request.
func Middleware(res HeaderResolver, onErr ErrorFunc) func(http.Handler) http.Handler {
	if onErr == nil {
		onErr = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uc, err := res.Resolve(r.Header)
			if err != nil {
				metrics.IdentityRejectionsTotal.Inc()
				zap.L().Warn("user context rejected",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				onErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), uc)))
		})
	}
}
