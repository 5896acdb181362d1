package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/dashgate/internal/acl"
	"github.com/yanizio/dashgate/internal/auth"
	"github.com/yanizio/dashgate/internal/credential"
	"github.com/yanizio/dashgate/internal/dashboard"
	"github.com/yanizio/dashgate/internal/datasource"
	"github.com/yanizio/dashgate/internal/provider"
	"github.com/yanizio/dashgate/internal/rewrite"
	"github.com/yanizio/dashgate/internal/sqlguard"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	policy := acl.New(acl.Sets{
		AllowedTablesAdmin: []string{"Orders", "Employees"},
		AllowedTablesUser:  []string{"Orders"},
		AdminUserIDs:       []string{"AROUT", "BLONP"},
	})
	store, err := dashboard.NewFileStore(t.TempDir())
	require.NoError(t, err)

	g, err := provider.New(provider.Deps{
		Users:       auth.NewResolver(auth.Options{PromotedUserIDs: []string{"AROUT", "BLONP"}}),
		Credentials: credential.NewResolver(credential.Settings{User: "sa", Password: "pw"}),
		Policy:      policy,
		Connector:   datasource.NewConnector(datasource.Connection{Host: "db.local", Database: "Northwind"}),
		Rewriter:    rewrite.New(policy, sqlguard.New(), rewrite.DefaultOptions()),
		Dashboards:  dashboard.Instrumented(store),
	})
	require.NoError(t, err)
	return New(Options{Backend: g}).Routes()
}

func do(t *testing.T, h http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("x-header-one", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func TestHealthAndRequestID(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestInvalidIdentity(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/dashboards", "bad!!", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	e := decodeError(t, rec)
	assert.Contains(t, e.Error, "invalid identity format")
	assert.NotEmpty(t, e.RequestID)
}

func TestDashboardLifecycle(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/dashboards", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/dashboards/Customer%20Orders/isduplicate", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `false`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/dashboards/Customer%20Orders", "", `{"Title":"Customer Orders"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/dashboards/Customer%20Orders/isduplicate", "", "")
	assert.JSONEq(t, `true`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/dashboards/Customer%20Orders", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Title":"Customer Orders"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/dashboards", "", "")
	assert.JSONEq(t, `["Customer Orders"]`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/dashboards/Customer%20Orders", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/dashboards/Customer%20Orders", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardInvalidName(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPut, "/dashboards/..%2Fetc", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/dashboards/Empty", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilterEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/datasources/filter", "ALFKI", `{"id":"sqlServer","kind":"sqlserver"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"allowed":true}`, rec.Body.String())

	item := `{"table":"Employees","data_source":{"kind":"sqlserver"}}`
	rec = do(t, h, http.MethodPost, "/api/items/filter", "ALFKI", item)
	assert.JSONEq(t, `{"allowed":false}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/items/filter", "AROUT", item)
	assert.JSONEq(t, `{"allowed":true}`, rec.Body.String())
}

func TestBodyValidation(t *testing.T) {
	h := newTestServer(t)

	cases := map[string]string{
		"missing kind":  `{"id":"sqlServer"}`,
		"unknown field": `{"kind":"sqlserver","password":"x"}`,
		"trailing data": `{"kind":"sqlserver"} {}`,
		"not json":      `kind=sqlserver`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/datasources/filter", "", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestChangeDataSource(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/api/datasources/change", "",
		`{"id":"sqlServer","kind":"sqlserver","host":"elsewhere"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var ds datasource.DataSource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ds))
	assert.Equal(t, "db.local", ds.Host)
	assert.Equal(t, "Northwind", ds.Database)
}

func TestRewriteEndpoint(t *testing.T) {
	h := newTestServer(t)

	t.Run("user scoped table", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/items/rewrite", "ALFKI",
			`{"dashboard_id":"Sales","item":{"table":"Orders","data_source":{"kind":"sqlserver"}}}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var res provider.ItemResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, rewrite.KindQuery, res.Binding.Kind)
		assert.Equal(t, "SELECT * FROM [Orders] WHERE customerId = 'ALFKI'", res.Binding.Query)
		assert.Equal(t, "db.local", res.Item.DataSource.Host)
	})

	t.Run("filtered object", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/items/rewrite", "ALFKI",
			`{"dashboard_id":"Sales","item":{"table":"Employees","data_source":{"kind":"sqlserver"}}}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("invalid order id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/items/rewrite",
			strings.NewReader(`{"dashboard_id":"Sales","item":{"id":"CustomerOrders","data_source":{"kind":"sqlserver"}}}`))
		req.Header.Set("x-header-two", "1O248")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Error, "invalid order id")
	})

	t.Run("order query", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/items/rewrite", "",
			`{"dashboard_id":"Sales","item":{"id":"CustomerOrders","data_source":{"kind":"sqlserver"}}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `SELECT * FROM Orders WHERE OrderId = '10248'`)
	})
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{auth.ErrInvalidIdentityFormat, http.StatusBadRequest},
		{rewrite.ErrInvalidCustomerID, http.StatusBadRequest},
		{rewrite.ErrInvalidOrderID, http.StatusBadRequest},
		{dashboard.ErrInvalidName, http.StatusBadRequest},
		{provider.ErrObjectNotAllowed, http.StatusForbidden},
		{rewrite.ErrUnknownObject, http.StatusForbidden},
		{rewrite.ErrRejectedSQL, http.StatusUnprocessableEntity},
		{dashboard.ErrNotFound, http.StatusNotFound},
		{credential.ErrMissingCredentialConfig, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
	assert.Equal(t, "internal error", publicMessage(http.StatusInternalServerError, credential.ErrMissingCredentialConfig))
}
