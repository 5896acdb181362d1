// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *RequestInfo.
//
/*
Context
--------
Runs right after the request-id middleware and before identity
resolution.  For every request it parses the User-Agent header, extracts
the left-most client IP from X-Forwarded-For or X-Real-IP (falling back to
`r.RemoteAddr`), performs the optional GeoLite2 lookup, and stores the
result in the request context.

Instrumentation
---------------
At debug level each invocation logs client IP, country, browser, device,
and path.
*/
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

/*──────────────────────────── middleware ───────────────────────────────────*/

// Handler wraps next, attaches *RequestInfo, and forwards.
func (e *Enricher) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &RequestInfo{
			UA:        parseUA(r.UserAgent()),
			Geo:       e.lookupGeo(clientIP(r)),
			Timestamp: time.Now().UTC(),
		}

		zap.S().Debugw("request info", append(info.LogFields(), "path", r.URL.Path)...)

		ctx := context.WithValue(r.Context(), ctxKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return nil
}
