// internal/acl/policy.go
//
// Role-based visibility of data sources and database objects.
//
// Context
// -------
// The dashboard host asks two questions before it lists or queries anything:
//
//  1. May this caller see data source D at all?        → IsDataSourceAllowed
//  2. May this caller see table or procedure O in D?   → IsObjectAllowed
//
// The answers come from the AuthorizationPolicy configuration: one object set
// for admins, one for users, and a list of identities treated as admins.  The
// Policy is built once at startup and never written again, so reads need no
// locking.
//
// Notes
// -----
// • Membership is exact and case-sensitive.  "Orders" and "orders" differ.
// • Two admin mechanisms exist.  The user-context resolver promotes ids from
//   its own list; this package also honors `admin_user_ids`.  EffectiveRole
//   is Admin when either says so.  cmd/web warns when the lists disagree.
package acl

import (
	"sort"

	"github.com/yanizio/dashgate/internal/auth"
	"github.com/yanizio/dashgate/internal/datasource"
	"github.com/yanizio/dashgate/internal/metrics"
)

// TableSet is an exact-match set of object names.
type TableSet map[string]struct{}

func newTableSet(names []string) TableSet {
	s := make(TableSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Contains reports exact membership.
func (s TableSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the members sorted, for logs and diagnostics.
func (s TableSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Sets is the raw configuration a Policy is built from.
type Sets struct {
	AllowedTablesAdmin []string
	AllowedTablesUser  []string
	AdminUserIDs       []string
}

// DataSourceRule narrows data-source visibility, e.g. per tenant.  It is
// consulted only when supplied through WithDataSourceRule.
type DataSourceRule func(auth.UserContext, datasource.DataSource) bool

// Option customises a Policy.
type Option func(*Policy)

// WithDataSourceRule installs an extra data-source check.
func WithDataSourceRule(rule DataSourceRule) Option {
	return func(p *Policy) { p.dsRule = rule }
}

// Policy answers visibility questions.  Zero value denies every object;
// construct with New.
type Policy struct {
	adminTables TableSet
	userTables  TableSet
	adminIDs    TableSet
	dsRule      DataSourceRule
}

// New copies s into immutable sets.
func New(s Sets, opts ...Option) *Policy {
	p := &Policy{
		adminTables: newTableSet(s.AllowedTablesAdmin),
		userTables:  newTableSet(s.AllowedTablesUser),
		adminIDs:    newTableSet(s.AdminUserIDs),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// IsDataSourceAllowed is permissive unless a DataSourceRule was installed.
func (p *Policy) IsDataSourceAllowed(uc auth.UserContext, ds datasource.DataSource) bool {
	if p.dsRule == nil {
		return true
	}
	return p.dsRule(uc, ds)
}

// IsObjectAllowed checks the item's table and procedure against the set for
// the caller's effective role.  Items without a table or procedure, and items
// of non-SQL-Server sources, are not object-scoped and pass.
func (p *Policy) IsObjectAllowed(uc auth.UserContext, item datasource.Item) bool {
	allowed := p.isObjectAllowed(uc, item)
	if allowed {
		metrics.ObjectFilterTotal.WithLabelValues("allowed").Inc()
	} else {
		metrics.ObjectFilterTotal.WithLabelValues("denied").Inc()
	}
	return allowed
}

func (p *Policy) isObjectAllowed(uc auth.UserContext, item datasource.Item) bool {
	if item.DataSource.Kind != datasource.KindSQLServer {
		return true
	}
	set := p.AllowedFor(p.EffectiveRole(uc))
	if item.Table != "" && !set.Contains(item.Table) {
		return false
	}
	if item.Procedure != "" && !set.Contains(item.Procedure) {
		return false
	}
	return true
}

// EffectiveRole is Admin when the context says so or the identity is listed
// in admin_user_ids.
func (p *Policy) EffectiveRole(uc auth.UserContext) auth.Role {
	if uc.IsAdmin() || (uc.UserID() != "" && p.adminIDs.Contains(uc.UserID())) {
		return auth.RoleAdmin
	}
	return auth.RoleUser
}

// AllowedFor returns the object set governing role.
func (p *Policy) AllowedFor(role auth.Role) TableSet {
	if role == auth.RoleAdmin {
		return p.adminTables
	}
	return p.userTables
}

// AdminUserIDs returns admin_user_ids sorted.
func (p *Policy) AdminUserIDs() []string { return p.adminIDs.Names() }
