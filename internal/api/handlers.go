package api

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/dashgate/internal/auth"
	"github.com/yanizio/dashgate/internal/datasource"
)

type allowedBody struct {
	Allowed bool `json:"allowed"`
}

type rewriteRequest struct {
	DashboardID string          `json:"dashboard_id"`
	Item        datasource.Item `json:"item"`
}

// user is set by auth.Middleware on every route that calls it.
func user(r *http.Request) auth.UserContext {
	uc, _ := auth.FromContext(r.Context())
	return uc
}

// dashboardName returns the decoded {name} path segment.
func dashboardName(r *http.Request) (string, error) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name, nil
	}
	dec, err := url.PathUnescape(name)
	if err != nil {
		return "", fmt.Errorf("%w: bad dashboard name escape", errBadRequest)
	}
	return dec, nil
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListDashboards(w http.ResponseWriter, r *http.Request) {
	names, err := s.backend.ListDashboards(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	name, err := dashboardName(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := s.backend.GetDashboard(r.Context(), user(r), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleIsDuplicate(w http.ResponseWriter, r *http.Request) {
	name, err := dashboardName(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dup, err := s.backend.IsDuplicate(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dup)
}

func (s *Server) handleSaveDashboard(w http.ResponseWriter, r *http.Request) {
	name, err := dashboardName(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDashboardBody))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if len(body) == 0 {
		s.writeError(w, r, fmt.Errorf("%w: empty dashboard body", errBadRequest))
		return
	}
	if err := s.backend.SaveDashboard(r.Context(), user(r), name, body); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteDashboard(w http.ResponseWriter, r *http.Request) {
	name, err := dashboardName(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.backend.DeleteDashboard(r.Context(), user(r), name); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFilterDataSource(w http.ResponseWriter, r *http.Request) {
	var ds datasource.DataSource
	if err := s.decode(w, r, &ds); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, allowedBody{Allowed: s.backend.FilterDataSource(user(r), ds)})
}

func (s *Server) handleChangeDataSource(w http.ResponseWriter, r *http.Request) {
	var ds datasource.DataSource
	if err := s.decode(w, r, &ds); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.backend.ChangeDataSource(user(r), ds))
}

func (s *Server) handleFilterItem(w http.ResponseWriter, r *http.Request) {
	var item datasource.Item
	if err := s.decode(w, r, &item); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, allowedBody{Allowed: s.backend.FilterItem(user(r), item)})
}

func (s *Server) handleRewriteItem(w http.ResponseWriter, r *http.Request) {
	var req rewriteRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.backend.ChangeDataSourceItem(user(r), req.DashboardID, req.Item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
