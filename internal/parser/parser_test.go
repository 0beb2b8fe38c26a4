package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlgen/internal/ir"
	"github.com/syssam/sqlgen/internal/source"
)

func parse(t *testing.T, text string) *ir.Root {
	t.Helper()
	src := source.New("test.sqlgen", []byte(text))
	root, err := Parse(src)
	require.NoError(t, err)
	return root
}

func parseErr(t *testing.T, text string) error {
	t.Helper()
	src := source.New("test.sqlgen", []byte(text))
	_, err := Parse(src)
	require.Error(t, err)
	return err
}

func TestParseOptionsFlagAndValue(t *testing.T) {
	root := parse(t, `
		%option prefix = "myapp"
		%option debug-layer
		%option log-sql-error = "my_log_fn"
	`)
	assert.Equal(t, "myapp", root.Options.Prefix)
	assert.True(t, root.Options.DebugLayer)
	assert.Equal(t, "my_log_fn", root.Options.LogSQLErr)
	assert.Equal(t, "malloc", root.Options.MallocName) // untouched default
}

func TestParseUnknownOptionSuggestsClosest(t *testing.T) {
	err := parseErr(t, `%option debug-layr`)
	assert.Contains(t, err.Error(), "unknown option")
	assert.Contains(t, err.Error(), "debug-layer")
}

func TestParseBlockOptions(t *testing.T) {
	root := parse(t, `
		%header-preamble {
			#include <stdint.h>
		}
	`)
	text := root.Options.HeaderPreamble.Text(root.Source)
	assert.Equal(t, "#include <stdint.h>", text)
}

func TestParseSimpleQuery(t *testing.T) {
	root := parse(t, `
		%query get_user(int64_t id null) {
			type select-first
			table users
			return name
		}
	`)
	require.Len(t, root.Queries, 1)
	q := root.Queries[0]
	assert.Equal(t, "get_user", q.Name.Text(root.Source))
	assert.False(t, q.Private)
	require.True(t, q.TypeSet)
	assert.Equal(t, ir.SelectFirst, q.Type)
	assert.Equal(t, "users", q.TableName.Text(root.Source))
	assert.Equal(t, "name", q.ReturnName.Text(root.Source))
	require.Len(t, q.InArgs, 1)
	assert.Equal(t, "int64_t", q.InArgs[0].Type.Text(root.Source))
	assert.Equal(t, "id", q.InArgs[0].Name.Text(root.Source))
	assert.True(t, q.InArgs[0].Nullable)
}

func TestParsePrivateQuery(t *testing.T) {
	root := parse(t, `
		%private-query internal_lookup(int id) {
			type exists
			table widgets
		}
	`)
	require.Len(t, root.Queries, 1)
	assert.True(t, root.Queries[0].Private)
}

func TestParseQueryWithGroup(t *testing.T) {
	root := parse(t, `
		%query users, find_by_id(int64_t id) {
			type select-first
			table users
		}
	`)
	assert.Empty(t, root.Queries)
	require.Len(t, root.Groups, 1)
	g := root.Groups[0]
	assert.Equal(t, "users", g.Name.Text(root.Source))
	require.Len(t, g.Queries, 1)
	assert.Equal(t, "find_by_id", g.Queries[0].Name.Text(root.Source))
}

func TestParseTwoQueriesSameGroupShareGroup(t *testing.T) {
	root := parse(t, `
		%query users, find_by_id(int64_t id) {
			type select-first
			table users
		}
		%query users, delete_by_id(int64_t id) {
			type delete
			table users
		}
	`)
	require.Len(t, root.Groups, 1)
	assert.Len(t, root.Groups[0].Queries, 2)
}

func TestParseUpdateColumnList(t *testing.T) {
	root := parse(t, `
		%query rename(int64_t id, const char* name) {
			type update name
			table users
		}
	`)
	q := root.Queries[0]
	assert.Equal(t, ir.Update, q.Type)
	assert.False(t, q.InArgs[0].Update)
	assert.True(t, q.InArgs[1].Update)
}

func TestParseUpdateUnknownColumnErrors(t *testing.T) {
	err := parseErr(t, `
		%query rename(int64_t id, const char* name) {
			type update nickname
			table users
		}
	`)
	assert.Contains(t, err.Error(), "nickname")
}

func TestParseUnknownQueryTypeSuggestsClosest(t *testing.T) {
	err := parseErr(t, `
		%query get_user(int64_t id) {
			type slect-first
			table users
		}
	`)
	assert.Contains(t, err.Error(), "unknown query type")
	assert.Contains(t, err.Error(), "select-first")
}

func TestParseStmtLiteralLabel(t *testing.T) {
	root := parse(t, `
		%query count_all() {
			type select-first
			stmt count_all_query
		}
	`)
	q := root.Queries[0]
	assert.Equal(t, "count_all_query", q.Stmt.Text(root.Source))
	assert.True(t, q.HasStmt)
}

func TestParseStmtBlock(t *testing.T) {
	root := parse(t, `
		%query count_all() {
			type select-first
			stmt {
				SELECT COUNT(*) FROM users
			}
		}
	`)
	q := root.Queries[0]
	assert.Equal(t, "SELECT COUNT(*) FROM users", q.Stmt.Text(root.Source))
}

func TestParseBindArgsMustExistInParamList(t *testing.T) {
	err := parseErr(t, `
		%query get_user(int64_t id) {
			type select-first
			table users
			bind userid
		}
	`)
	assert.Contains(t, err.Error(), "userid")
}

func TestParseBindArgsResolved(t *testing.T) {
	root := parse(t, `
		%query get_user(int64_t id, const char* name) {
			type select-first
			table users
			bind id, name
		}
	`)
	q := root.Queries[0]
	require.Len(t, q.BindArgs, 2)
	assert.Equal(t, "id", q.BindArgs[0].Name.Text(root.Source))
	assert.Equal(t, "name", q.BindArgs[1].Name.Text(root.Source))
}

func TestParseCallbackArgs(t *testing.T) {
	root := parse(t, `
		%query list_users() {
			type select-all
			table users
			callback int64_t id, const char* name null
		}
	`)
	q := root.Queries[0]
	require.Len(t, q.CBArgs, 2)
	assert.Equal(t, "id", q.CBArgs[0].Name.Text(root.Source))
	assert.False(t, q.CBArgs[0].Nullable)
	assert.Equal(t, "name", q.CBArgs[1].Name.Text(root.Source))
	assert.True(t, q.CBArgs[1].Nullable)
}

func TestParseDoxygenInsideBodyAttachesToQuery(t *testing.T) {
	root := parse(t, `
		%query get_user(int64_t id) {
			/*! Looks up a user by primary key. */
			type select-first
			table users
		}
	`)
	q := root.Queries[0]
	assert.Contains(t, q.Doxygen.Text(root.Source), "Looks up a user")
}

func TestParseFunction(t *testing.T) {
	root := parse(t, `
		%function log_event(int code) {
			fprintf(stderr, "event %d\n", code);
		}
	`)
	require.Len(t, root.Functions, 1)
	fn := root.Functions[0]
	assert.Equal(t, "log_event", fn.Name.Text(root.Source))
	require.Len(t, fn.Args, 1)
	assert.Equal(t, "code", fn.Args[0].Name.Text(root.Source))
	assert.Contains(t, fn.Body.Text(root.Source), "fprintf")
}

func TestParseFunctionWithGroup(t *testing.T) {
	root := parse(t, `
		%function helpers, log_event(int code) {
			do_log(code);
		}
	`)
	require.Len(t, root.Groups, 1)
	require.Len(t, root.Groups[0].Functions, 1)
	assert.Equal(t, "log_event", root.Groups[0].Functions[0].Name.Text(root.Source))
}

func TestParseMigrationsSortedAscendingDescending(t *testing.T) {
	root := parse(t, `
		%upgrade 2 { ALTER TABLE users ADD COLUMN age INTEGER; }
		%upgrade 1 { CREATE TABLE users (id INTEGER); }
		%downgrade 1 { DROP TABLE users; }
		%downgrade 2 { ALTER TABLE users DROP COLUMN age; }
	`)
	require.Len(t, root.Upgrades, 2)
	assert.Equal(t, 1, root.Upgrades[0].Version)
	assert.Equal(t, 2, root.Upgrades[1].Version)

	require.Len(t, root.Downgrades, 2)
	assert.Equal(t, 2, root.Downgrades[0].Version)
	assert.Equal(t, 1, root.Downgrades[1].Version)
}

func TestParseStructAndConstArgTypes(t *testing.T) {
	root := parse(t, `
		%query save(struct str_view name, const char* email) {
			type insert
			table users
		}
	`)
	q := root.Queries[0]
	assert.Equal(t, "struct str_view", q.InArgs[0].Type.Text(root.Source))
	assert.Equal(t, "const char*", q.InArgs[1].Type.Text(root.Source))
}

func TestParseEmptyArgList(t *testing.T) {
	root := parse(t, `
		%query count_all() {
			type select-first
			table users
		}
	`)
	assert.Empty(t, root.Queries[0].InArgs)
}

func TestParseUnexpectedTopLevelToken(t *testing.T) {
	err := parseErr(t, `garbage`)
	assert.Error(t, err)
}

func TestParseMissingBraceAfterQueryHeader(t *testing.T) {
	err := parseErr(t, `%query get_user(int id)`)
	assert.Error(t, err)
}

func TestParseUnterminatedBlock(t *testing.T) {
	err := parseErr(t, `
		%query get_user(int id) {
			type select-first
	`)
	assert.Error(t, err)
}
