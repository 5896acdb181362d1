// internal/config/model.go
//
// Typed configuration model for dashgate.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                            – dotenv values,
//   • `conf/global.yaml`                         – primary static file,
//   • `DASHGATE_`-prefixed environment overrides – highest precedence.
//
// Secret fields may hold `vault:<mount>/<path>#<key>` references.  The
// loader resolves them before validation, so the model never stores Vault
// URIs, only plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • The whole tree is read-only after Load returns.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

//
// SQL Server section
//

// SQLServer is the dashboard database connection.  User and Password are
// checked by the credential resolver, not here, so a missing login surfaces
// as a credential error rather than a generic validation failure.
type SQLServer struct {
	Host     string `koanf:"host"     validate:"required"`
	Database string `koanf:"database" validate:"required"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Port     string `koanf:"port"     validate:"omitempty,numeric"`
}

//
// Authorization section
//

// Authorization lists the visible objects per role and the identities that
// the object filter treats as admins.
type Authorization struct {
	AllowedTablesAdmin []string `koanf:"allowed_tables_admin" validate:"dive,tablename"`
	AllowedTablesUser  []string `koanf:"allowed_tables_user"  validate:"dive,tablename"`
	AdminUserIDs       []string `koanf:"admin_user_ids"`
}

//
// Identity section
//

// Identity configures header-based user-context resolution.
type Identity struct {
	UserHeader      string   `koanf:"user_header"`
	OrderHeader     string   `koanf:"order_header"`
	DefaultUserID   string   `koanf:"default_user_id"  validate:"omitempty,alphanum,len=5"`
	DefaultOrderID  string   `koanf:"default_order_id"`
	PromotedUserIDs []string `koanf:"promoted_user_ids"`
}

//
// Rewrite section
//

// Rewrite names the ids each query-rewrite rule matches on.
type Rewrite struct {
	CustomerProcedures []string          `koanf:"customer_procedures"`
	NamedProcedures    map[string]string `koanf:"named_procedures"`
	OrderQueryID       string            `koanf:"order_query_id"`
	ScopedDashboard    string            `koanf:"scoped_dashboard"`
	Unknown            string            `koanf:"unknown" validate:"oneof=permissive deny-unknown"`
}

//
// Dashboards section
//

// Dashboards selects the storage backend.
type Dashboards struct {
	Backend string `koanf:"backend" validate:"oneof=file sql"`
	Dir     string `koanf:"dir"     validate:"required_if=Backend file"`
	DSN     string `koanf:"dsn"     validate:"required_if=Backend sql"`
}

//
// Request-info section
//

// RequestInfo points at the optional GeoLite2 database.
type RequestInfo struct {
	GeoDB string `koanf:"geo_db"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // DASHGATE_ROOT, --root, or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	HTTP          HTTP          `koanf:"http"`
	SQLServer     SQLServer     `koanf:"sql_server"`
	Authorization Authorization `koanf:"authorization"`
	Identity      Identity      `koanf:"identity"`
	Rewrite       Rewrite       `koanf:"rewrite"`
	Dashboards    Dashboards    `koanf:"dashboards"`
	RequestInfo   RequestInfo   `koanf:"request_info"`
	Paths         Paths         `koanf:"-"`
}
