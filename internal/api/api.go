// internal/api/api.go
//
// JSON HTTP surface over the provider capability set.
//
//------------------------------------------------------------------------------
//
// Routes
// ------
//
//	GET    /healthz                          liveness, no identity needed
//	GET    /metrics                          Prometheus exposition
//	GET    /dashboards                       list names
//	GET    /dashboards/{name}                raw dashboard body
//	GET    /dashboards/{name}/isduplicate    true when the name is taken
//	PUT    /dashboards/{name}                save (create or replace)
//	DELETE /dashboards/{name}                delete
//	POST   /api/datasources/filter           {"allowed":bool}
//	POST   /api/datasources/change           connected data source
//	POST   /api/items/filter                 {"allowed":bool}
//	POST   /api/items/rewrite                {"item":…,"binding":…}
//
// Middleware order: request id → request info → security headers →
// ForceHTTPS → user context.  Everything under /dashboards and /api sees an
// auth.UserContext; /healthz and /metrics do not.

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/dashgate/internal/auth"
	"github.com/yanizio/dashgate/internal/middleware"
	"github.com/yanizio/dashgate/internal/provider"
	"github.com/yanizio/dashgate/internal/requestinfo"
)

// Backend is the capability set plus the dashboard management calls the
// save dialog needs.  *provider.Gateway satisfies it.
type Backend interface {
	provider.Host
	ListDashboards(ctx context.Context) ([]string, error)
	IsDuplicate(ctx context.Context, id string) (bool, error)
	DeleteDashboard(ctx context.Context, uc auth.UserContext, id string) error
}

var _ Backend = (*provider.Gateway)(nil)

// Options configure Server.  Backend is required.
type Options struct {
	Backend    Backend
	Enricher   *requestinfo.Enricher // nil → UA parsing only
	ForceHTTPS bool
	Log        *zap.Logger // nil → zap.L()
}

// Server owns the router and its collaborators.
type Server struct {
	backend    Backend
	enricher   *requestinfo.Enricher
	forceHTTPS bool
	validate   *validator.Validate
	log        *zap.Logger
}

// New returns a Server.  It panics on a nil Backend, which is a wiring bug.
func New(o Options) *Server {
	if o.Backend == nil {
		panic("api: nil backend")
	}
	if o.Enricher == nil {
		o.Enricher = &requestinfo.Enricher{}
	}
	if o.Log == nil {
		o.Log = zap.L()
	}
	return &Server{
		backend:    o.Backend,
		enricher:   o.Enricher,
		forceHTTPS: o.ForceHTTPS,
		validate:   validator.New(),
		log:        o.Log.Named("api"),
	}
}

// Routes builds the root handler.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(s.enricher.Handler)
	r.Use(middleware.Security)
	r.Use(middleware.ForceHTTPS(s.forceHTTPS))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(auth.ResolverFunc(s.backend.UserContext), s.writeError))

		r.Route("/dashboards", func(r chi.Router) {
			r.Get("/", s.handleListDashboards)
			r.Get("/{name}", s.handleGetDashboard)
			r.Get("/{name}/isduplicate", s.handleIsDuplicate)
			r.Put("/{name}", s.handleSaveDashboard)
			r.Delete("/{name}", s.handleDeleteDashboard)
		})

		r.Route("/api", func(r chi.Router) {
			r.Post("/datasources/filter", s.handleFilterDataSource)
			r.Post("/datasources/change", s.handleChangeDataSource)
			r.Post("/items/filter", s.handleFilterItem)
			r.Post("/items/rewrite", s.handleRewriteItem)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found", RequestID: RequestIDFrom(req.Context())})
	})
	return r
}
