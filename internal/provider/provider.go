// internal/provider/provider.go
//
// Host capability set and the Gateway that implements it.
//
// Context
// -------
// The dashboard host calls a fixed set of providers.  Each is a narrow
// interface here so the HTTP API, a future in-process host binding, and the
// tests all depend on the capability rather than on Gateway:
//
//   • UserContextProvider  – headers → auth.UserContext
//   • CredentialProvider   – data source → credential.Credential
//   • DashboardProvider    – load and save `.rdash` bodies
//   • ObjectFilterProvider – data-source and item visibility
//   • QueryProvider        – connection override and item rewriting
//
// Gateway composes auth, credential, acl, datasource, rewrite, and
// dashboard.  The pipeline for a data item is fixed: connector, then object
// filter, then rewrite (which runs the SQL guard on every query binding).
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/dashgate/internal/acl"
	"github.com/yanizio/dashgate/internal/auth"
	"github.com/yanizio/dashgate/internal/credential"
	"github.com/yanizio/dashgate/internal/dashboard"
	"github.com/yanizio/dashgate/internal/datasource"
	"github.com/yanizio/dashgate/internal/rewrite"
)

// ErrObjectNotAllowed is returned when the object filter hides an item.
var ErrObjectNotAllowed = errors.New("object not allowed")

/*──────────────────────────── capabilities ─────────────────────────────────*/

type UserContextProvider interface {
	UserContext(h http.Header) (auth.UserContext, error)
}

type CredentialProvider interface {
	ResolveCredentials(ctx context.Context, uc auth.UserContext, ds datasource.DataSource) (credential.Credential, error)
}

type DashboardProvider interface {
	GetDashboard(ctx context.Context, uc auth.UserContext, id string) ([]byte, error)
	SaveDashboard(ctx context.Context, uc auth.UserContext, id string, body []byte) error
}

type ObjectFilterProvider interface {
	FilterDataSource(uc auth.UserContext, ds datasource.DataSource) bool
	FilterItem(uc auth.UserContext, item datasource.Item) bool
}

type QueryProvider interface {
	ChangeDataSource(uc auth.UserContext, ds datasource.DataSource) datasource.DataSource
	ChangeDataSourceItem(uc auth.UserContext, dashboardID string, item datasource.Item) (ItemResult, error)
}

// Host is the full capability set.
type Host interface {
	UserContextProvider
	CredentialProvider
	DashboardProvider
	ObjectFilterProvider
	QueryProvider
}

// ItemResult is the connected item together with its binding.
type ItemResult struct {
	Item    datasource.Item `json:"item"`
	Binding rewrite.Binding `json:"binding"`
}

/*──────────────────────────── Gateway ──────────────────────────────────────*/

// Deps are the collaborators Gateway composes.  All are required.
type Deps struct {
	Users       *auth.Resolver
	Credentials *credential.Resolver
	Policy      *acl.Policy
	Connector   *datasource.Connector
	Rewriter    *rewrite.Rewriter
	Dashboards  dashboard.Store
	Log         *zap.Logger // nil → zap.L()
}

// Gateway implements Host.
type Gateway struct {
	users       *auth.Resolver
	credentials *credential.Resolver
	policy      *acl.Policy
	connector   *datasource.Connector
	rewriter    *rewrite.Rewriter
	dashboards  dashboard.Store
	log         *zap.Logger
}

var _ Host = (*Gateway)(nil)

// New validates d and returns a Gateway.
func New(d Deps) (*Gateway, error) {
	switch {
	case d.Users == nil:
		return nil, errors.New("provider: nil user resolver")
	case d.Credentials == nil:
		return nil, errors.New("provider: nil credential resolver")
	case d.Policy == nil:
		return nil, errors.New("provider: nil policy")
	case d.Connector == nil:
		return nil, errors.New("provider: nil connector")
	case d.Rewriter == nil:
		return nil, errors.New("provider: nil rewriter")
	case d.Dashboards == nil:
		return nil, errors.New("provider: nil dashboard store")
	}
	log := d.Log
	if log == nil {
		log = zap.L()
	}
	return &Gateway{
		users:       d.Users,
		credentials: d.Credentials,
		policy:      d.Policy,
		connector:   d.Connector,
		rewriter:    d.Rewriter,
		dashboards:  d.Dashboards,
		log:         log.Named("provider"),
	}, nil
}

// UserContext resolves the caller from request headers.
func (g *Gateway) UserContext(h http.Header) (auth.UserContext, error) {
	return g.users.Resolve(h)
}

// ResolveCredentials picks the credential for ds.  It does not depend on uc.
func (g *Gateway) ResolveCredentials(_ context.Context, _ auth.UserContext, ds datasource.DataSource) (credential.Credential, error) {
	c, err := g.credentials.Resolve(ds.Kind)
	if err != nil {
		g.log.Error("credential resolution failed", zap.String("kind", string(ds.Kind)), zap.Error(err))
		return credential.Credential{}, err
	}
	g.log.Debug("credential resolved", zap.String("kind", string(ds.Kind)), zap.Object("credential", c))
	return c, nil
}

// GetDashboard loads the named dashboard body.
func (g *Gateway) GetDashboard(ctx context.Context, _ auth.UserContext, id string) ([]byte, error) {
	return g.dashboards.Load(ctx, id)
}

// SaveDashboard stores body under id, replacing any existing dashboard.
func (g *Gateway) SaveDashboard(ctx context.Context, uc auth.UserContext, id string, body []byte) error {
	if err := g.dashboards.Save(ctx, id, body); err != nil {
		return err
	}
	g.log.Info("dashboard saved", zap.String("dashboard", id), zap.String("user", uc.UserID()), zap.Int("bytes", len(body)))
	return nil
}

// ListDashboards returns all stored names.
func (g *Gateway) ListDashboards(ctx context.Context) ([]string, error) {
	return g.dashboards.Names(ctx)
}

// IsDuplicate reports whether a dashboard called id already exists.
func (g *Gateway) IsDuplicate(ctx context.Context, id string) (bool, error) {
	return dashboard.IsDuplicate(ctx, g.dashboards, id)
}

// DeleteDashboard removes id.
func (g *Gateway) DeleteDashboard(ctx context.Context, uc auth.UserContext, id string) error {
	if err := g.dashboards.Delete(ctx, id); err != nil {
		return err
	}
	g.log.Info("dashboard deleted", zap.String("dashboard", id), zap.String("user", uc.UserID()))
	return nil
}

// FilterDataSource reports whether ds is visible to uc.
func (g *Gateway) FilterDataSource(uc auth.UserContext, ds datasource.DataSource) bool {
	return g.policy.IsDataSourceAllowed(uc, ds)
}

// FilterItem reports whether item's table and procedure are visible to uc.
func (g *Gateway) FilterItem(uc auth.UserContext, item datasource.Item) bool {
	return g.policy.IsObjectAllowed(uc, item)
}

// ChangeDataSource points SQL Server data sources at the configured server.
func (g *Gateway) ChangeDataSource(_ auth.UserContext, ds datasource.DataSource) datasource.DataSource {
	return g.connector.Apply(ds)
}

// ChangeDataSourceItem runs the full pipeline for one data item.
func (g *Gateway) ChangeDataSourceItem(uc auth.UserContext, dashboardID string, item datasource.Item) (ItemResult, error) {
	item.DataSource = g.connector.Apply(item.DataSource)

	if !g.policy.IsObjectAllowed(uc, item) {
		g.log.Warn("object filtered",
			zap.String("user", uc.UserID()),
			zap.String("dashboard", dashboardID),
			zap.String("table", item.Table),
			zap.String("procedure", item.Procedure),
		)
		return ItemResult{}, fmt.Errorf("%w: table=%q procedure=%q", ErrObjectNotAllowed, item.Table, item.Procedure)
	}

	b, err := g.rewriter.Rewrite(uc, dashboardID, item)
	if err != nil {
		return ItemResult{}, err
	}
	return ItemResult{Item: item, Binding: b}, nil
}
