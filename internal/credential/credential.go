// internal/credential/credential.go
//
// Data-source credentials.
//
// Context
// -------
// The dashboard host asks for a credential whenever it opens a data source.
// SQL Server sources get the username and password from configuration;
// every other kind gets an integrated (ambient) credential that carries no
// secret.  Selection depends on the data-source kind only, never on the
// caller.
//
// Notes
// -----
// • The password never leaves this package through String, fmt verbs, JSON,
//   or zap fields.  Callers that genuinely need it call Password().
package credential

import (
	"errors"
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/yanizio/dashgate/internal/datasource"
)

// ErrMissingCredentialConfig is fatal at startup or resolution.
var ErrMissingCredentialConfig = errors.New("missing credential configuration")

// Credential is either integrated or username/password.
type Credential struct {
	integrated bool
	username   string
	password   string
}

// Integrated returns the ambient credential.
func Integrated() Credential { return Credential{integrated: true} }

// UsernamePassword returns a username/password credential.
func UsernamePassword(user, pass string) Credential {
	return Credential{username: user, password: pass}
}

func (c Credential) IsIntegrated() bool { return c.integrated }
func (c Credential) Username() string   { return c.username }
func (c Credential) Password() string   { return c.password }

// String never includes the password.
func (c Credential) String() string {
	if c.integrated {
		return "integrated"
	}
	return fmt.Sprintf("username=%s password=[redacted]", c.username)
}

// GoString keeps %#v from dumping the struct.
func (c Credential) GoString() string { return c.String() }

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (c Credential) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddBool("integrated", c.integrated)
	if !c.integrated {
		enc.AddString("username", c.username)
	}
	return nil
}

// MarshalJSON omits the password.
func (c Credential) MarshalJSON() ([]byte, error) {
	if c.integrated {
		return []byte(`{"type":"integrated"}`), nil
	}
	return []byte(fmt.Sprintf(`{"type":"username_password","username":%q}`, c.username)), nil
}

// Settings holds the static SQL Server login.
type Settings struct {
	User     string
	Password string
}

// Resolver picks a credential by data-source kind.
type Resolver struct {
	settings Settings
}

// NewResolver copies s.
func NewResolver(s Settings) *Resolver { return &Resolver{settings: s} }

// Resolve returns the credential for kind.  A SQL Server kind with an empty
// user or password is an ErrMissingCredentialConfig.
func (r *Resolver) Resolve(kind datasource.Kind) (Credential, error) {
	if kind != datasource.KindSQLServer {
		return Integrated(), nil
	}
	var missing []string
	if r.settings.User == "" {
		missing = append(missing, "user")
	}
	if r.settings.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return Credential{}, fmt.Errorf("%w: sql server %v", ErrMissingCredentialConfig, missing)
	}
	return UsernamePassword(r.settings.User, r.settings.Password), nil
}
