package rewrite

import "strings"

// EscapeLiteral doubles every single quote so s can sit inside '…'.
func EscapeLiteral(s string) string { return strings.ReplaceAll(s, "'", "''") }

// QuoteIdent wraps name in T-SQL brackets, doubling any "]".
func QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
