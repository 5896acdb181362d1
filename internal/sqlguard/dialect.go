package sqlguard

import (
	"errors"
	"strings"
)

var (
	errUnterminated  = errors.New("unterminated literal, identifier, or comment")
	errNestedComment = errors.New("nested block comment")
	errForeignToken  = errors.New("token has no T-SQL meaning")
)

// Normalize rewrites T-SQL text so the MySQL grammar sees the same token
// boundaries SQL Server would:
//
//   - 'literal'  – copied, with every backslash doubled; T-SQL has no
//     backslash escape, so `\'` must still close the string.
//   - [ident] and "ident" – become `ident`; "]]" and `""` unescape, a
//     backtick is doubled.
//   - comments   – replaced by a space.  A line comment also ends at '\r'.
//     A block comment that opens another is refused, since T-SQL nests
//     them and MySQL does not.
//   - a bare backtick or '#' outside the above is refused; MySQL reads them
//     as a quote and a comment, T-SQL does not.
func Normalize(sql string) (string, error) {
	var b strings.Builder
	b.Grow(len(sql) + 8)

	n := len(sql)
	for i := 0; i < n; i++ {
		c := sql[i]
		switch {
		case c == '\'':
			j := i + 1
			b.WriteByte('\'')
			for ; j < n; j++ {
				switch sql[j] {
				case '\'':
					if j+1 < n && sql[j+1] == '\'' {
						b.WriteString("''")
						j++
						continue
					}
				case '\\':
					b.WriteString(`\\`)
					continue
				default:
					b.WriteByte(sql[j])
					continue
				}
				break
			}
			if j >= n {
				return "", errUnterminated
			}
			b.WriteByte('\'')
			i = j

		case c == '[' || c == '"':
			end := byte(']')
			if c == '"' {
				end = '"'
			}
			j, err := quotedIdent(&b, sql, i+1, end)
			if err != nil {
				return "", err
			}
			i = j

		case c == '-' && i+1 < n && sql[i+1] == '-':
			end := strings.IndexAny(sql[i:], "\r\n")
			if end < 0 {
				b.WriteByte(' ')
				return b.String(), nil
			}
			b.WriteByte(' ')
			i += end - 1 // the line break itself is copied next round

		case c == '/' && i+1 < n && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				return "", errUnterminated
			}
			if strings.Contains(sql[i+2:i+2+end], "/*") {
				return "", errNestedComment
			}
			b.WriteByte(' ')
			i += 2 + end + 1

		case c == '`' || c == '#':
			return "", errForeignToken

		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// quotedIdent copies an identifier that starts at sql[i] and closes at end
// (doubled end is a literal) as a backtick identifier.  It returns the index
// of the closing byte.
func quotedIdent(b *strings.Builder, sql string, i int, end byte) (int, error) {
	b.WriteByte('`')
	for j := i; j < len(sql); j++ {
		switch sql[j] {
		case end:
			if j+1 < len(sql) && sql[j+1] == end {
				b.WriteByte(end)
				j++
				continue
			}
			b.WriteByte('`')
			return j, nil
		case '`':
			b.WriteString("``")
		default:
			b.WriteByte(sql[j])
		}
	}
	return 0, errUnterminated
}
