// internal/datasource/datasource.go
//
// Data sources and data-source items as the dashboard host describes them.
//
// Context
// -------
// The host hands us already-deserialised values.  A DataSource names the
// database connection (kind, host, database); an Item is one logical request
// unit issued by a widget: a table, a stored procedure, or an ad-hoc query
// keyed by ID.
package datasource

// Kind identifies the connector family of a DataSource.
type Kind string

const (
	KindSQLServer Kind = "sqlserver"
	KindREST      Kind = "rest"
)

// DataSource is one connection as seen by the dashboard host.
type DataSource struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"     validate:"required"`
	Title    string `json:"title,omitempty"`
	Host     string `json:"host,omitempty"`
	Database string `json:"database,omitempty"`
	Port     string `json:"port,omitempty"`
}

// Item is a data-item request.  Table and Procedure are optional and may be
// empty when ID alone identifies the request.
type Item struct {
	ID         string     `json:"id"`
	Title      string     `json:"title,omitempty"`
	Table      string     `json:"table,omitempty"`
	Procedure  string     `json:"procedure,omitempty"`
	DataSource DataSource `json:"data_source"`
}
