package datasource

// Connection holds the server coordinates applied to SQL Server sources.
type Connection struct {
	Host     string
	Database string
	Port     string
}

// Connector points SQL Server data sources at the configured server.
type Connector struct {
	conn Connection
}

// NewConnector returns a Connector for conn.
func NewConnector(conn Connection) *Connector { return &Connector{conn: conn} }

// Apply returns ds with host, database, and (when configured) port
// overwritten for KindSQLServer.  Other kinds are returned unchanged.
func (c *Connector) Apply(ds DataSource) DataSource {
	if ds.Kind != KindSQLServer {
		return ds
	}
	ds.Host = c.conn.Host
	ds.Database = c.conn.Database
	if c.conn.Port != "" {
		ds.Port = c.conn.Port
	}
	return ds
}
