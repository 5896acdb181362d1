// internal/server/timeouts.go
//
// HTTP server helper with explicit timeouts.
//
//   • ReadTimeout   – abort slow-loris headers
//   • WriteTimeout  – cap total response time
//   • IdleTimeout   – close keep-alives on idle clients
//
// Values come from the `http` config section; zero falls back to 10 s, 15 s,
// and 60 s respectively.
//

package server

import (
	"net/http"
	"time"

	"github.com/yanizio/dashgate/internal/config"
)

// New constructs an *http.Server from the http section.
func New(c config.HTTP, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              c.ListenAddr,
		Handler:           handler,
		ReadTimeout:       orDefault(c.ReadTimeout, config.DefaultReadTimeout),
		ReadHeaderTimeout: orDefault(c.ReadTimeout, config.DefaultReadTimeout),
		WriteTimeout:      orDefault(c.WriteTimeout, config.DefaultWriteTimeout),
		IdleTimeout:       orDefault(c.IdleTimeout, config.DefaultIdleTimeout),
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
