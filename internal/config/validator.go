// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` after defaults are
// applied and secrets are resolved.  Any tag mismatch or validation error
// aborts startup, so the binary never runs with malformed configuration.
//
// Besides the built-ins (`required`, `oneof`, `required_if`, …) one custom
// rule is registered: `tablename`, which rejects entries the rewriter could
// not quote safely.  One cross-field rule also runs: an id listed in
// authorization.admin_user_ids but not identity.promoted_user_ids passes
// the object filter for admin-only tables while the rewriter still sees a
// User, so under the permissive unknown policy those tables would be
// served without customer scoping.  That combination aborts startup.

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	_ = val.RegisterValidation("tablename", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s != "" && strings.TrimSpace(s) == s && !strings.ContainsAny(s, "\x00\r\n")
	})
	return val
}

//
// public API
//

// ErrUnscopedAdmins reports admin ids the rewriter would not scope.
var ErrUnscopedAdmins = errors.New("admin_user_ids not in promoted_user_ids would read admin-only tables unscoped under rewrite.unknown=permissive")

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	if err := v.Struct(c); err != nil {
		return err
	}
	if c.Rewrite.Unknown == "permissive" {
		if ids := c.UnscopedAdminIDs(); len(ids) > 0 {
			return fmt.Errorf("%w: %s", ErrUnscopedAdmins, strings.Join(ids, ","))
		}
	}
	return nil
}
