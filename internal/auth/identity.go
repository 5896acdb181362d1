// internal/auth/identity.go
//
// Identity, role, and the immutable per-request UserContext.
//
// Context
// -------
// Every data request is evaluated against exactly one UserContext.  The
// context is built by Resolver from two inbound headers and is never
// persisted.  Fields are unexported so nothing downstream can mutate the
// identity or the role after construction.
//
// The format rules live here because both the resolver (identity check) and
// the query rewriter (customer and order checks) apply them.
package auth

import "regexp"

var (
	customerIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{5}$`)
	orderIDPattern    = regexp.MustCompile(`^\d{5}$`)
)

// ValidCustomerID reports whether id is a 5-character alphanumeric string.
func ValidCustomerID(id string) bool { return customerIDPattern.MatchString(id) }

// ValidOrderID reports whether id is a 5-digit numeric string.
func ValidOrderID(id string) bool { return orderIDPattern.MatchString(id) }

// Role is the coarse access tier.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

func (r Role) String() string { return string(r) }

// UserContext is the resolved caller.  The zero value has an empty identity
// and RoleUser semantics; construct with Resolver.Resolve or New.
type UserContext struct {
	userID  string
	orderID string
	role    Role
}

// New builds a UserContext from already-validated parts.  Tests and
// alternative resolvers use it; HTTP traffic goes through Resolver.
func New(userID, orderID string, role Role) UserContext {
	if role != RoleAdmin {
		role = RoleUser
	}
	return UserContext{userID: userID, orderID: orderID, role: role}
}

func (u UserContext) UserID() string  { return u.userID }
func (u UserContext) OrderID() string { return u.orderID }

// Role returns RoleUser for the zero value.
func (u UserContext) Role() Role {
	if u.role == "" {
		return RoleUser
	}
	return u.role
}

// IsAdmin is shorthand for Role() == RoleAdmin.
func (u UserContext) IsAdmin() bool { return u.Role() == RoleAdmin }
