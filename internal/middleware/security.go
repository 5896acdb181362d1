// internal/middleware/security.go
//
// Security-header middleware.
//
// dashgate answers JSON and opaque dashboard bodies only, so the policy is
// tighter than a page-serving site would use:
//
//   • Strict-Transport-Security  –  2 years
//   • Content-Security-Policy   –  nothing may load, nothing may frame us
//   • X-Content-Type-Options    –  no MIME sniffing
//   • Referrer-Policy           –  no-referrer
//   • Cache-Control             –  decisions are per user, never shared
//
// Notes
// -----
// • Headers are set *before* next.ServeHTTP; once a handler writes the
//   status line they can no longer change.  Handlers may still override
//   any of them.
// • Two spaces after periods.

package middleware

import "net/http"

var securityHeaders = [][2]string{
	{"Strict-Transport-Security", "max-age=63072000; includeSubDomains"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "no-referrer"},
	{"Cache-Control", "no-store"},
}

// Security sets security headers for every response.
func Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			if h.Get(kv[0]) == "" {
				h.Set(kv[0], kv[1])
			}
		}
		next.ServeHTTP(w, r)
	})
}
