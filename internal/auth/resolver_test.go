package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func newTestResolver() *Resolver {
	return NewResolver(Options{PromotedUserIDs: []string{"AROUT", "BLONP"}})
}

func headers(user, order string) http.Header {
	h := http.Header{}
	if user != "" {
		h.Set(DefaultUserHeader, user)
	}
	if order != "" {
		h.Set(DefaultOrderHeader, order)
	}
	return h
}

func TestResolve_Defaults(t *testing.T) {
	uc, err := newTestResolver().Resolve(http.Header{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if uc.UserID() != DefaultUserID || uc.OrderID() != DefaultOrderID {
		t.Fatalf("defaults not applied: %q %q", uc.UserID(), uc.OrderID())
	}
	if uc.Role() != RoleUser {
		t.Fatalf("role = %s, want User", uc.Role())
	}
}

func TestResolve_Roles(t *testing.T) {
	res := newTestResolver()
	cases := []struct {
		user string
		want Role
	}{
		{"AROUT", RoleAdmin},
		{"BLONP", RoleAdmin},
		{"ALFKI", RoleUser},
		{"arout", RoleUser}, // promotion is case-sensitive
	}
	for _, tc := range cases {
		uc, err := res.Resolve(headers(tc.user, ""))
		if err != nil {
			t.Fatalf("%s: %v", tc.user, err)
		}
		if uc.Role() != tc.want {
			t.Errorf("%s: role = %s, want %s", tc.user, uc.Role(), tc.want)
		}
		// Deterministic: a second resolution yields the same role.
		again, _ := res.Resolve(headers(tc.user, ""))
		if again.Role() != uc.Role() {
			t.Errorf("%s: role changed between calls", tc.user)
		}
	}
}

func TestResolve_InvalidIdentity(t *testing.T) {
	res := newTestResolver()
	for _, bad := range []string{"ABCD", "ABCDEF", "AB'CD", "AB CD", "ÄBCDE", "A-BCD"} {
		_, err := res.Resolve(headers(bad, ""))
		if !errors.Is(err, ErrInvalidIdentityFormat) {
			t.Errorf("%q: err = %v, want ErrInvalidIdentityFormat", bad, err)
		}
	}
}

func TestResolve_OrderNotValidatedHere(t *testing.T) {
	uc, err := newTestResolver().Resolve(headers("ALFKI", "not-an-order"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if uc.OrderID() != "not-an-order" {
		t.Fatalf("order id = %q", uc.OrderID())
	}
}

func TestResolve_CustomHeaders(t *testing.T) {
	res := NewResolver(Options{UserHeader: "X-Customer", OrderHeader: "X-Order", DefaultUserID: "ANATR"})
	h := http.Header{}
	h.Set("X-Order", "10250")
	uc, err := res.Resolve(h)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if uc.UserID() != "ANATR" || uc.OrderID() != "10250" {
		t.Fatalf("got %q %q", uc.UserID(), uc.OrderID())
	}
}

func TestMiddleware(t *testing.T) {
	res := newTestResolver()

	var got UserContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(DefaultUserHeader, "AROUT")
	rr := httptest.NewRecorder()
	Middleware(res, nil)(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got.UserID() != "AROUT" || !got.IsAdmin() {
		t.Fatalf("context not attached: %+v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(DefaultUserHeader, "12'45")
	rr = httptest.NewRecorder()
	Middleware(res, nil)(next).ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestFromContext_Missing(t *testing.T) {
	if _, ok := FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()); ok {
		t.Fatal("expected ok = false")
	}
}

func TestNew_CoercesUnknownRole(t *testing.T) {
	if New("ALFKI", "", Role("root")).Role() != RoleUser {
		t.Fatal("unknown role should collapse to User")
	}
}

func TestTruncateRuneBoundary(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"ALFKI", 16, "ALFKI"},
		{"ABCDEFGHIJKLMNOPQRST", 16, "ABCDEFGHIJKLMNOP…"},
		{strings.Repeat("é", 20), 16, strings.Repeat("é", 8) + "…"},
		{"ABCDEFGHIJKLMNOé", 16, "ABCDEFGHIJKLMNO…"},
	}
	for _, c := range cases {
		got := truncate(c.in, c.n)
		if got != c.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", c.in, c.n, got, c.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", c.in, c.n)
		}
	}
}

func TestResolveMultibyteIdentityError(t *testing.T) {
	_, err := newTestResolver().Resolve(headers(strings.Repeat("é", 20), ""))
	if !errors.Is(err, ErrInvalidIdentityFormat) {
		t.Fatalf("err = %v, want ErrInvalidIdentityFormat", err)
	}
	if !utf8.ValidString(err.Error()) {
		t.Fatalf("error text is not valid UTF-8: %q", err.Error())
	}
}
