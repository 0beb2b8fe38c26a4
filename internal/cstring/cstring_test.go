package cstring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/sqlgen/internal/cstring"
)

func TestCollapsesMultilineWhitespace(t *testing.T) {
	got := cstring.Literal("SELECT *\n   FROM users\n\tWHERE id = ?")
	assert.Equal(t, `SELECT * FROM users WHERE id = ?`, got)
}

func TestTrimsEnds(t *testing.T) {
	assert.Equal(t, "x", cstring.Literal("   x   "))
}

func TestEscapesQuotesAndBackslashes(t *testing.T) {
	got := cstring.Literal(`SELECT '\' FROM t WHERE name = "bob"`)
	assert.Equal(t, `SELECT '\\' FROM t WHERE name = \"bob\"`, got)
}
