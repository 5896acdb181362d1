// internal/rewrite/rewrite.go
//
// Data-item rewriting: logical request → procedure call or validated SQL.
//
// Context
// -------
// Every data request from a dashboard widget passes through Rewrite.  The
// request is matched against an ordered list of rules and the first match
// decides the shape of the query:
//
//  1. customer-procedure  – per-customer stored procedure, @CustomerID bound.
//  2. named-procedure     – fixed procedure name, no parameters.
//  3. order-query         – ad-hoc SELECT on Orders scoped to the order id.
//  4. allowed-table       – table in the caller's allowed set, row-scoped to
//                           the customer unless an admin is outside the
//                           scoped dashboard.
//  5. (no match)          – passthrough or rejection, per UnknownPolicy.
//
// The order is part of the contract: an id that names a procedure never
// reaches the table rule.  Values interpolated into SQL are format-checked
// and quote-escaped, and every resulting string must pass the Guard before
// it is returned.
package rewrite

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yanizio/dashgate/internal/acl"
	"github.com/yanizio/dashgate/internal/auth"
	"github.com/yanizio/dashgate/internal/datasource"
	"github.com/yanizio/dashgate/internal/metrics"
)

var (
	ErrInvalidCustomerID = errors.New("invalid customer id: must be a 5-character alphanumeric string")
	ErrInvalidOrderID    = errors.New("invalid order id: must be a 5-digit numeric value")
	ErrRejectedSQL       = errors.New("rejected sql")
	ErrUnknownObject     = errors.New("unknown data item")
)

// Kind is the shape of a Binding.
type Kind string

const (
	// KindPassthrough leaves the item untouched; the host's default table
	// access applies.
	KindPassthrough Kind = "passthrough"
	KindProcedure   Kind = "procedure"
	KindQuery       Kind = "query"
)

// Binding is the outcome of a rewrite.
type Binding struct {
	Kind       Kind           `json:"kind"`
	Rule       string         `json:"rule"`
	Procedure  string         `json:"procedure,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Query      string         `json:"query,omitempty"`
	Table      string         `json:"table,omitempty"`
}

// UnknownPolicy decides what happens to items no rule matched.
type UnknownPolicy string

const (
	Permissive  UnknownPolicy = "permissive"
	DenyUnknown UnknownPolicy = "deny-unknown"
)

// Rule names, also used as metric labels.
const (
	RuleNonSQL            = "non-sql"
	RuleCustomerProcedure = "customer-procedure"
	RuleNamedProcedure    = "named-procedure"
	RuleOrderQuery        = "order-query"
	RuleAllowedTable      = "allowed-table"
	RuleUnmatched         = "unmatched"
)

// Guard validates ad-hoc SQL.  *sqlguard.Validator satisfies it.
type Guard interface {
	Check(sql string) error
}

// Tables supplies the per-role object set.  *acl.Policy satisfies it.
type Tables interface {
	AllowedFor(auth.Role) acl.TableSet
}

// Options carries the ids each rule matches on.
type Options struct {
	CustomerProcedures []string
	NamedProcedures    map[string]string
	OrderQueryID       string
	ScopedDashboard    string
	Unknown            UnknownPolicy
}

// DefaultOptions returns the Northwind sample wiring.
func DefaultOptions() Options {
	return Options{
		CustomerProcedures: []string{"CustOrderHist", "CustOrdersOrders"},
		NamedProcedures:    map[string]string{"TenMostExpensiveProducts": "Ten Most Expensive Products"},
		OrderQueryID:       "CustomerOrders",
		ScopedDashboard:    "Customer Orders",
		Unknown:            Permissive,
	}
}

// Request bundles one evaluation's inputs for the rules.
type Request struct {
	User        auth.UserContext
	DashboardID string
	Item        datasource.Item
}

// Rule is one tagged matcher/handler pair.
type Rule struct {
	Name  string
	Match func(Request) bool
	Apply func(Request) (Binding, error)
}

// Rewriter evaluates Rules in order.  It holds no per-request state.
type Rewriter struct {
	rules   []Rule
	unknown UnknownPolicy
	guard   Guard
	tables  Tables
}

// New builds the standard rule list from opts.
func New(tables Tables, guard Guard, opts Options) *Rewriter {
	rw := &Rewriter{
		unknown: opts.Unknown,
		guard:   guard,
		tables:  tables,
	}
	if rw.unknown == "" {
		rw.unknown = Permissive
	}
	rw.rules = rw.standardRules(opts)
	return rw
}

// Rules returns the rule names in evaluation order.
func (rw *Rewriter) Rules() []string {
	names := make([]string, len(rw.rules))
	for i, r := range rw.rules {
		names[i] = r.Name
	}
	return names
}

// Rewrite maps item to a Binding for uc on dashboardID.
func (rw *Rewriter) Rewrite(uc auth.UserContext, dashboardID string, item datasource.Item) (Binding, error) {
	if item.DataSource.Kind != datasource.KindSQLServer {
		return rw.done(Binding{Kind: KindPassthrough, Rule: RuleNonSQL}, nil)
	}

	req := Request{User: uc, DashboardID: dashboardID, Item: item}
	for _, r := range rw.rules {
		if !r.Match(req) {
			continue
		}
		b, err := r.Apply(req)
		b.Rule = r.Name
		return rw.done(b, err)
	}

	// Unknown tables and procedures pass through unfiltered under the
	// permissive policy.  DenyUnknown closes that gap.
	if rw.unknown == DenyUnknown {
		return rw.done(Binding{Rule: RuleUnmatched},
			fmt.Errorf("%w: id=%q table=%q", ErrUnknownObject, item.ID, item.Table))
	}
	return rw.done(Binding{Kind: KindPassthrough, Rule: RuleUnmatched}, nil)
}

func (rw *Rewriter) done(b Binding, err error) (Binding, error) {
	metrics.RewriteTotal.WithLabelValues(b.Rule, metrics.Result(err)).Inc()
	if err != nil {
		zap.L().Warn("rewrite rejected", zap.String("rule", b.Rule), zap.Error(err))
		return Binding{}, err
	}
	zap.L().Debug("rewrite", zap.String("rule", b.Rule), zap.String("kind", string(b.Kind)))
	return b, nil
}

// validated runs sql through the guard.
func (rw *Rewriter) validated(sql string) (string, error) {
	if err := rw.guard.Check(sql); err != nil {
		metrics.SQLRejectionsTotal.Inc()
		return "", fmt.Errorf("%w: %v", ErrRejectedSQL, err)
	}
	return sql, nil
}
