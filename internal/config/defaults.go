// internal/config/defaults.go
//
// Defaults and component option builders.
//
// Empty YAML keys fall back to the values below.  The builders translate the
// typed sections into the option structs the components take, so cmd/web
// wires everything without reaching back into Get().

package config

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/yanizio/dashgate/internal/acl"
	"github.com/yanizio/dashgate/internal/auth"
	"github.com/yanizio/dashgate/internal/credential"
	"github.com/yanizio/dashgate/internal/datasource"
	"github.com/yanizio/dashgate/internal/rewrite"
)

const (
	DefaultListenAddr   = ":8080"
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 15 * time.Second
	DefaultIdleTimeout  = 60 * time.Second
)

// DefaultPromotedUserIDs are the identities resolved with the Admin role
// when identity.promoted_user_ids is absent.
var DefaultPromotedUserIDs = []string{"AROUT", "BLONP"}

func applyDefaults(c *Config) {
	h := &c.HTTP
	if h.ListenAddr == "" {
		h.ListenAddr = DefaultListenAddr
	}
	if h.ReadTimeout == 0 {
		h.ReadTimeout = DefaultReadTimeout
	}
	if h.WriteTimeout == 0 {
		h.WriteTimeout = DefaultWriteTimeout
	}
	if h.IdleTimeout == 0 {
		h.IdleTimeout = DefaultIdleTimeout
	}

	id := &c.Identity
	if id.UserHeader == "" {
		id.UserHeader = auth.DefaultUserHeader
	}
	if id.OrderHeader == "" {
		id.OrderHeader = auth.DefaultOrderHeader
	}
	if id.DefaultUserID == "" {
		id.DefaultUserID = auth.DefaultUserID
	}
	if id.DefaultOrderID == "" {
		id.DefaultOrderID = auth.DefaultOrderID
	}
	if id.PromotedUserIDs == nil {
		id.PromotedUserIDs = append([]string(nil), DefaultPromotedUserIDs...)
	}

	def := rewrite.DefaultOptions()
	rw := &c.Rewrite
	if rw.CustomerProcedures == nil {
		rw.CustomerProcedures = def.CustomerProcedures
	}
	if rw.NamedProcedures == nil {
		rw.NamedProcedures = def.NamedProcedures
	}
	if rw.OrderQueryID == "" {
		rw.OrderQueryID = def.OrderQueryID
	}
	if rw.ScopedDashboard == "" {
		rw.ScopedDashboard = def.ScopedDashboard
	}
	if rw.Unknown == "" {
		rw.Unknown = string(def.Unknown)
	}

	d := &c.Dashboards
	if d.Backend == "" {
		d.Backend = "file"
	}
	if d.Backend == "file" && d.Dir == "" {
		d.Dir = filepath.Join(c.Paths.Root, "Dashboards")
	}
}

//
// option builders
//

// IdentityOptions configures auth.NewResolver.
func (c *Config) IdentityOptions() auth.Options {
	return auth.Options{
		UserHeader:      c.Identity.UserHeader,
		OrderHeader:     c.Identity.OrderHeader,
		DefaultUserID:   c.Identity.DefaultUserID,
		DefaultOrderID:  c.Identity.DefaultOrderID,
		PromotedUserIDs: c.Identity.PromotedUserIDs,
	}
}

// PolicySets configures acl.New.
func (c *Config) PolicySets() acl.Sets {
	return acl.Sets{
		AllowedTablesAdmin: c.Authorization.AllowedTablesAdmin,
		AllowedTablesUser:  c.Authorization.AllowedTablesUser,
		AdminUserIDs:       c.Authorization.AdminUserIDs,
	}
}

// RewriteOptions configures rewrite.New.
func (c *Config) RewriteOptions() rewrite.Options {
	return rewrite.Options{
		CustomerProcedures: c.Rewrite.CustomerProcedures,
		NamedProcedures:    c.Rewrite.NamedProcedures,
		OrderQueryID:       c.Rewrite.OrderQueryID,
		ScopedDashboard:    c.Rewrite.ScopedDashboard,
		Unknown:            rewrite.UnknownPolicy(c.Rewrite.Unknown),
	}
}

// CredentialSettings configures credential.NewResolver.
func (c *Config) CredentialSettings() credential.Settings {
	return credential.Settings{User: c.SQLServer.User, Password: c.SQLServer.Password}
}

// Connection configures datasource.NewConnector.
func (c *Config) Connection() datasource.Connection {
	return datasource.Connection{
		Host:     c.SQLServer.Host,
		Database: c.SQLServer.Database,
		Port:     c.SQLServer.Port,
	}
}

// PromotionMismatch reports identities present in exactly one of
// identity.promoted_user_ids and authorization.admin_user_ids.
func (c *Config) PromotionMismatch() []string {
	seen := map[string]int{}
	for _, id := range c.Identity.PromotedUserIDs {
		seen[id] |= 1
	}
	for _, id := range c.Authorization.AdminUserIDs {
		seen[id] |= 2
	}
	var out []string
	for id, bits := range seen {
		if bits != 3 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// UnscopedAdminIDs lists authorization.admin_user_ids entries missing from
// identity.promoted_user_ids.  Such callers clear the admin object filter
// but resolve as User, so the rewriter never scopes admin-only tables for
// them.
func (c *Config) UnscopedAdminIDs() []string {
	promoted := make(map[string]struct{}, len(c.Identity.PromotedUserIDs))
	for _, id := range c.Identity.PromotedUserIDs {
		promoted[id] = struct{}{}
	}
	var out []string
	for _, id := range c.Authorization.AdminUserIDs {
		if _, ok := promoted[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
