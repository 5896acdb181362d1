package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestForceHTTPS(t *testing.T) {
	h := ForceHTTPS(true)(ok)

	cases := []struct {
		name     string
		req      func() *http.Request
		want     int
		location string
	}{
		{"plain http redirects", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "http://dash.example.com/dashboards?x=1", nil)
		}, http.StatusPermanentRedirect, "https://dash.example.com/dashboards?x=1"},
		{"tls passes", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "https://dash.example.com/", nil)
			r.TLS = &tls.ConnectionState{}
			return r
		}, http.StatusOK, ""},
		{"proxy header passes", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "http://dash.example.com/", nil)
			r.Header.Set("X-Forwarded-Proto", "https")
			return r
		}, http.StatusOK, ""},
		{"localhost passes", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "http://localhost:8080/", nil)
		}, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tc.req())
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if got := rec.Header().Get("Location"); got != tc.location {
				t.Fatalf("location = %q, want %q", got, tc.location)
			}
		})
	}
}

func TestForceHTTPSDisabled(t *testing.T) {
	rec := httptest.NewRecorder()
	ForceHTTPS(false)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://dash.example.com/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	custom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "max-age=60")
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	Security(custom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("nosniff = %q", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); got == "" {
		t.Error("CSP missing")
	}
	if got := rec.Header().Get("Cache-Control"); got != "max-age=60" {
		t.Errorf("handler override lost: %q", got)
	}
}

func TestStripPort(t *testing.T) {
	for in, want := range map[string]string{
		"localhost:8080": "localhost",
		"example.com":    "example.com",
		"[::1]":          "[::1]",
		"[::1]:443":      "[::1]",
	} {
		if got := stripPort(in); got != want {
			t.Errorf("stripPort(%q) = %q, want %q", in, got, want)
		}
	}
}
