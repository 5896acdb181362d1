// internal/auth/context.go
//
// Request-context helpers for the resolved UserContext.
//
// Usage
// -----
//
//	// Middleware attaches the caller once per request.
//	ctx = auth.WithUser(ctx, uc)
//
//	// Handlers retrieve it.
//	uc, ok := auth.FromContext(ctx)
//
// Notes
// -----
// • UserContext is a value type, so handlers cannot mutate the stored copy.
package auth

import "context"

// userKey is unexported to avoid context-key collisions.
type userKey struct{}

// WithUser returns a new context carrying uc.
func WithUser(ctx context.Context, uc UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, uc)
}

// FromContext extracts the UserContext stored by WithUser.  It returns
// (UserContext{}, false) when the middleware has not run.
func FromContext(ctx context.Context) (UserContext, bool) {
	uc, ok := ctx.Value(userKey{}).(UserContext)
	return uc, ok
}
