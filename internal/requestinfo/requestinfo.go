//
//  internal/requestinfo/requestinfo.go
//
//  Per-request metadata (user-agent fingerprint, client IP with optional
//  geolocation, and arrival time) attached by the Enricher middleware.
//  The API layer adds these fields to every rejected-decision log line so
//  an operator can tell a misconfigured host from a probing client.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// UA holds the parsed user-agent properties.
type UA struct {
	Raw     string
	Browser string // "BrowserChrome", "BrowserFirefox", …
	Version string // "125.0.6422"
	OS      string
	Device  string // "Desktop", "Mobile", "Tablet", or "Other"
	IsBot   bool
}

// Geo holds best-effort IP geolocation; empty when no database is loaded.
type Geo struct {
	IP         net.IP
	CountryISO string
	City       string
}

// RequestInfo is read-only after the middleware stores it.
type RequestInfo struct {
	UA        UA
	Geo       Geo
	Timestamp time.Time
}

//
//  -----------------------------
//  Enricher
//  -----------------------------
//

// GeoLookup is the subset of *geoip2.Reader the enricher uses.
type GeoLookup interface {
	City(ip net.IP) (*geoip2.City, error)
}

// Enricher builds RequestInfo values.  The zero value parses user agents
// and skips geolocation.
type Enricher struct {
	geo    GeoLookup
	closer func() error
}

// NewEnricher opens the GeoLite2-City database at geoPath.  An empty path
// disables geolocation; an unreadable file is an error, not a panic.
func NewEnricher(geoPath string) (*Enricher, error) {
	if geoPath == "" {
		return &Enricher{}, nil
	}
	r, err := geoip2.Open(geoPath)
	if err != nil {
		return nil, fmt.Errorf("requestinfo: open GeoLite2 DB: %w", err)
	}
	return &Enricher{geo: r, closer: r.Close}, nil
}

// WithGeo returns an Enricher that uses an existing lookup.
func WithGeo(g GeoLookup) *Enricher { return &Enricher{geo: g} }

// Close releases the GeoLite2 handle when one was opened.
func (e *Enricher) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer()
}

func (e *Enricher) lookupGeo(ip net.IP) Geo {
	if e.geo == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := e.geo.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}

//
//  -----------------------------
//  Context helpers
//  -----------------------------
//

type ctxKey struct{}

// FromContext returns the pointer stored by Enricher.Handler, or nil.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

// LogFields flattens info into zap key/value pairs.  A nil info yields nil.
func (info *RequestInfo) LogFields() []any {
	if info == nil {
		return nil
	}
	return []any{
		"ip", info.Geo.IP.String(),
		"country", info.Geo.CountryISO,
		"browser", info.UA.Browser,
		"device", info.UA.Device,
		"bot", info.UA.IsBot,
	}
}

//
//  -----------------------------
//  UA parsing
//  -----------------------------
//

func parseUA(raw string) UA {
	u := surfer.Parse(raw)

	out := UA{
		Raw:     raw,
		Browser: u.Browser.Name.String(),
		Version: versionString(u.Browser.Version),
		OS:      u.OS.Name.String(),
		IsBot:   u.IsBot(),
	}
	switch u.DeviceType {
	case surfer.DeviceComputer:
		out.Device = "Desktop"
	case surfer.DeviceTablet:
		out.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		out.Device = "Mobile"
	default:
		out.Device = "Other"
	}
	return out
}

// versionString trims trailing zero components: 17.0.0 → "17".
func versionString(v surfer.Version) string {
	switch {
	case v.Major == 0 && v.Minor == 0 && v.Patch == 0:
		return ""
	case v.Patch != 0:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	case v.Minor != 0:
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(int(v.Major))
}
