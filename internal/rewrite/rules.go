package rewrite

import (
	"fmt"

	"github.com/yanizio/dashgate/internal/auth"
)

func (rw *Rewriter) standardRules(opts Options) []Rule {
	customerProcs := make(map[string]struct{}, len(opts.CustomerProcedures))
	for _, id := range opts.CustomerProcedures {
		customerProcs[id] = struct{}{}
	}
	named := make(map[string]string, len(opts.NamedProcedures))
	for id, proc := range opts.NamedProcedures {
		named[id] = proc
	}

	return []Rule{
		{
			Name: RuleCustomerProcedure,
			Match: func(req Request) bool {
				_, ok := customerProcs[req.Item.ID]
				return ok
			},
			Apply: func(req Request) (Binding, error) {
				id := req.User.UserID()
				if !auth.ValidCustomerID(id) {
					return Binding{}, ErrInvalidCustomerID
				}
				return Binding{
					Kind:       KindProcedure,
					Procedure:  req.Item.ID,
					Parameters: map[string]any{"@CustomerID": id},
				}, nil
			},
		},
		{
			Name: RuleNamedProcedure,
			Match: func(req Request) bool {
				_, ok := named[req.Item.ID]
				return ok
			},
			Apply: func(req Request) (Binding, error) {
				return Binding{Kind: KindProcedure, Procedure: named[req.Item.ID]}, nil
			},
		},
		{
			Name: RuleOrderQuery,
			Match: func(req Request) bool {
				return opts.OrderQueryID != "" && req.Item.ID == opts.OrderQueryID
			},
			Apply: func(req Request) (Binding, error) {
				id := req.User.OrderID()
				if !auth.ValidOrderID(id) {
					return Binding{}, ErrInvalidOrderID
				}
				sql, err := rw.validated(OrderQuery(id))
				if err != nil {
					return Binding{}, err
				}
				return Binding{Kind: KindQuery, Query: sql, Table: "Orders"}, nil
			},
		},
		{
			Name: RuleAllowedTable,
			Match: func(req Request) bool {
				return rw.tables.AllowedFor(req.User.Role()).Contains(req.Item.Table)
			},
			Apply: func(req Request) (Binding, error) {
				table := req.Item.Table
				if req.User.IsAdmin() && req.DashboardID != opts.ScopedDashboard {
					return Binding{Kind: KindPassthrough, Table: table}, nil
				}
				id := req.User.UserID()
				if !auth.ValidCustomerID(id) {
					return Binding{}, ErrInvalidCustomerID
				}
				sql, err := rw.validated(CustomerTableQuery(table, id))
				if err != nil {
					return Binding{}, err
				}
				return Binding{Kind: KindQuery, Query: sql, Table: table}, nil
			},
		},
	}
}

// OrderQuery renders the order-scoped ad-hoc query.  orderID is escaped.
func OrderQuery(orderID string) string {
	return fmt.Sprintf("SELECT * FROM Orders WHERE OrderId = '%s'", EscapeLiteral(orderID))
}

// CustomerTableQuery renders the customer-scoped query for table.
func CustomerTableQuery(table, customerID string) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE customerId = '%s'", QuoteIdent(table), EscapeLiteral(customerID))
}
