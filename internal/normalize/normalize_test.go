package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlgen/internal/normalize"
	"github.com/syssam/sqlgen/internal/parser"
	"github.com/syssam/sqlgen/internal/source"
)

func TestDefaultsBindArgsToInArgsWhenAbsent(t *testing.T) {
	src := source.New("t.sqlgen", []byte(`
		%query get_user(int64_t id, const char* name) {
			type select-first
			table users
		}
	`))
	root, err := parser.Parse(src)
	require.NoError(t, err)
	normalize.Run(root)

	q := root.Queries[0]
	require.Len(t, q.BindArgs, 2)
	assert.Equal(t, "id", q.BindArgs[0].Name.Text(root.Source))
	assert.Equal(t, "name", q.BindArgs[1].Name.Text(root.Source))
}

func TestExplicitBindArgsAreNotOverwritten(t *testing.T) {
	src := source.New("t.sqlgen", []byte(`
		%query get_user(int64_t id, const char* name) {
			type select-first
			table users
			bind id
		}
	`))
	root, err := parser.Parse(src)
	require.NoError(t, err)
	normalize.Run(root)

	q := root.Queries[0]
	require.Len(t, q.BindArgs, 1)
	assert.Equal(t, "id", q.BindArgs[0].Name.Text(root.Source))
}

func TestGroupedQueryNormalized(t *testing.T) {
	src := source.New("t.sqlgen", []byte(`
		%query users, find_by_id(int64_t id) {
			type select-first
			table users
		}
	`))
	root, err := parser.Parse(src)
	require.NoError(t, err)
	normalize.Run(root)

	q := root.Groups[0].Queries[0]
	require.Len(t, q.BindArgs, 1)
}
