// internal/sqlguard/sqlguard.go
//
// Read-only SELECT verification for ad-hoc SQL.
//
// Context
// -------
// The query rewriter builds a handful of ad-hoc SQL strings at runtime.
// Escaping the interpolated values is a secondary measure; this package is
// the backstop.  A string is accepted only when it parses as exactly one
// statement and that statement is a SELECT (plain, UNION, or parenthesised)
// with no locking clause anywhere in the tree.
//
// The parser is github.com/xwb1989/sqlparser, which speaks the MySQL
// dialect, while the text is T-SQL.  Normalize first rewrites it so both
// grammars agree on where every literal, identifier, and comment ends:
// backslashes in literals are doubled, bracket and double-quoted
// identifiers become backtick identifiers, comments are blanked, and tokens
// only MySQL would interpret (a bare backtick, '#', nested block comments)
// are refused.  Constructs the MySQL grammar cannot read are rejected.
package sqlguard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/yanizio/dashgate/internal/cache"
)

var (
	ErrEmpty       = errors.New("sql is empty")
	ErrSyntax      = errors.New("sql does not parse")
	ErrNotReadOnly = errors.New("sql is not a read-only select")
)

// Validator is safe for concurrent use.
type Validator struct {
	verdicts *cache.LRU[string, error]
}

// Option configures a Validator.
type Option func(*Validator)

// WithVerdictCache remembers the last size verdicts by exact SQL text.
func WithVerdictCache(size int) Option {
	return func(v *Validator) { v.verdicts = cache.New[string, error](size) }
}

// New returns a Validator.  Without options every call parses.
func New(opts ...Option) *Validator {
	v := &Validator{}
	for _, o := range opts {
		o(v)
	}
	return v
}

// IsReadOnlySelect reports whether sqlText is a single read-only SELECT.
func (v *Validator) IsReadOnlySelect(sqlText string) bool {
	return v.Check(sqlText) == nil
}

// Check returns nil for a single read-only SELECT.  Otherwise the error
// wraps ErrEmpty, ErrSyntax, or ErrNotReadOnly.
func (v *Validator) Check(sqlText string) error {
	if v.verdicts == nil {
		return check(sqlText)
	}
	if err, ok := v.verdicts.Get(sqlText); ok {
		return err
	}
	err := check(sqlText)
	v.verdicts.Add(sqlText, err)
	return err
}

func check(sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return ErrEmpty
	}

	norm, err := Normalize(sqlText)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	// A second statement after ";" is a syntax error for Parse, which is
	// exactly the rejection we want for stacked queries.
	stmt, err := sqlparser.Parse(norm)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return readOnly(stmt)
}

func readOnly(stmt sqlparser.Statement) error {
	switch stmt.(type) {
	case *sqlparser.Select, *sqlparser.Union, *sqlparser.ParenSelect:
	default:
		return fmt.Errorf("%w: %s statement", ErrNotReadOnly, statementKind(stmt))
	}

	var locked bool
	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		switch n := node.(type) {
		case *sqlparser.Select:
			locked = locked || n.Lock != ""
		case *sqlparser.Union:
			locked = locked || n.Lock != ""
		}
		return !locked, nil
	}, stmt)
	if locked {
		return fmt.Errorf("%w: locking select", ErrNotReadOnly)
	}
	return nil
}

// statementKind turns *sqlparser.Update into "update".
func statementKind(stmt sqlparser.Statement) string {
	return strings.ToLower(strings.TrimPrefix(fmt.Sprintf("%T", stmt), "*sqlparser."))
}
