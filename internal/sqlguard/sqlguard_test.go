package sqlguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsReadOnlySelect_Accepts(t *testing.T) {
	v := New()
	for _, sql := range []string{
		"SELECT * FROM Orders WHERE OrderId = '10248'",
		"SELECT * FROM [All Orders] WHERE customerId = 'ALFKI'",
		"SELECT * FROM Orders WHERE OrderId = 'O''Brien'",
		"SELECT OrderId FROM Orders UNION SELECT OrderId FROM Invoices",
		"SELECT * FROM Orders WHERE customerId IN (SELECT customerId FROM Customers)",
		"SELECT * FROM Orders;",
	} {
		assert.True(t, v.IsReadOnlySelect(sql), sql)
	}
}

func TestIsReadOnlySelect_Rejects(t *testing.T) {
	v := New()
	for _, sql := range []string{
		"",
		"   ",
		"SELECT * FROM Orders; DROP TABLE Orders;",
		"UPDATE Orders SET ShipCity='X'",
		"DELETE FROM Orders",
		"INSERT INTO Orders (OrderId) VALUES (1)",
		"DROP TABLE Orders",
		"TRUNCATE TABLE Orders",
		"MERGE INTO Orders USING Staging ON 1 = 1",
		"EXEC sp_who",
		"SET @a = 1",
		"SHOW TABLES",
		"SELECT * FROM Orders FOR UPDATE",
		"SELECT * FROM [Orders",
		"SELECT * FROM Orders WHERE OrderId = 'O'Brien'; DROP TABLE X;--'",
		`SELECT * FROM Orders WHERE OrderId = 'x\'; DROP TABLE Orders; --'`,
		`SELECT * FROM [Orders] WHERE customerId = 'A\'; DELETE FROM Orders; --'`,
		`SELECT "x\"; DROP TABLE Orders; --" FROM Orders`,
		"SELECT 1 /* /* */ ' */ ; DROP TABLE Orders; --'",
		"SELECT 1 --'\r; DROP TABLE Orders; --'",
		"SELECT 1 # ; DROP TABLE Orders",
		"SELECT * FROM `Orders`",
		"SELECT * FROM Orders /* open",
		"SELECT 'open",
	} {
		assert.False(t, v.IsReadOnlySelect(sql), sql)
	}
}

func TestCheck_ErrorKinds(t *testing.T) {
	v := New()

	assert.ErrorIs(t, v.Check(""), ErrEmpty)
	assert.ErrorIs(t, v.Check("SELECT * FROM Orders; DROP TABLE Orders;"), ErrSyntax)
	assert.ErrorIs(t, v.Check("SELECT * FROM [Orders"), ErrSyntax)

	err := v.Check("UPDATE Orders SET ShipCity='X'")
	require.ErrorIs(t, err, ErrNotReadOnly)
	assert.Contains(t, err.Error(), "update")

	assert.ErrorIs(t, v.Check("SELECT * FROM Orders FOR UPDATE"), ErrNotReadOnly)
	assert.NoError(t, v.Check("SELECT 1"))
}

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"SELECT * FROM Orders", "SELECT * FROM Orders"},
		{"SELECT * FROM [All Orders]", "SELECT * FROM `All Orders`"},
		{"SELECT * FROM [a]]b]", "SELECT * FROM `a]b`"},
		{"SELECT * FROM [a`b]", "SELECT * FROM `a``b`"},
		{`SELECT * FROM "All ""Orders"""`, "SELECT * FROM `All \"Orders\"`"},
		{"SELECT '[x]' FROM [t]", "SELECT '[x]' FROM `t`"},
		{"SELECT 'it''s [x]' FROM [t]", "SELECT 'it''s [x]' FROM `t`"},
		{`SELECT 'C:\dir'`, `SELECT 'C:\\dir'`},
		{"-- [c]\nSELECT [x]", " \nSELECT `x`"},
		{"SELECT 1 -- tail", "SELECT 1  "},
		{"/* [c] */ SELECT [x]", "  SELECT `x`"},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{
		"SELECT * FROM [open",
		`SELECT * FROM "open`,
		"SELECT 'open",
		"SELECT 1 /* open",
		"SELECT 1 /* a /* b */ */",
		"SELECT `x`",
		"SELECT 1 # c",
	} {
		_, err := Normalize(bad)
		assert.Error(t, err, bad)
	}
}

func TestBackslashDoesNotEscapeQuote(t *testing.T) {
	v := New()

	// SQL Server ends the literal at the quote after the backslash, so the
	// text after it is a second statement.
	err := v.Check(`SELECT * FROM Orders WHERE OrderId = 'x\'; DROP TABLE Orders; --'`)
	assert.ErrorIs(t, err, ErrSyntax)

	// A backslash that is just data stays accepted.
	assert.NoError(t, v.Check(`SELECT * FROM Orders WHERE ShipAddress = 'C:\dir\'`))
}

func TestVerdictCache(t *testing.T) {
	v := New(WithVerdictCache(8))

	ok := "SELECT * FROM [Orders] WHERE customerId = 'ALFKI'"
	bad := "DELETE FROM Orders"
	for i := 0; i < 3; i++ {
		assert.NoError(t, v.Check(ok))
		assert.ErrorIs(t, v.Check(bad), ErrNotReadOnly)
	}
	assert.Equal(t, 2, v.verdicts.Len())
}
