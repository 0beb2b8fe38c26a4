package sqltemplate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlgen/internal/normalize"
	"github.com/syssam/sqlgen/internal/parser"
	"github.com/syssam/sqlgen/internal/source"
	"github.com/syssam/sqlgen/internal/sqltemplate"
)

func renderFirst(t *testing.T, text string) string {
	t.Helper()
	src := source.New("t.sqlgen", []byte(text))
	root, err := parser.Parse(src)
	require.NoError(t, err)
	normalize.Run(root)
	return sqltemplate.Render(src, root.Queries[0])
}

func TestInsertOrIgnoreWithoutReturn(t *testing.T) {
	got := renderFirst(t, `
		%query add_tag(const char* name) {
			type insert
			table tags
		}
	`)
	assert.Equal(t, `INSERT OR IGNORE INTO tags (name) VALUES (?);`, got)
}

func TestInsertOrGetIDReturningTriggersConflictReinsert(t *testing.T) {
	got := renderFirst(t, `
		%query insert_or_get_id(const char* name) {
			type insert
			table tags
			return id
		}
	`)
	assert.Equal(t,
		`INSERT INTO tags (name) VALUES (?) ON CONFLICT DO UPDATE SET name=excluded.name RETURNING id;`,
		got)
}

func TestUpsertSetsAllColumnsAndReturns(t *testing.T) {
	got := renderFirst(t, `
		%query upsert_cb(int64_t id, const char* name) {
			type upsert
			table users
			return id
		}
	`)
	assert.Equal(t,
		`INSERT INTO users (id, name) VALUES (?, ?) ON CONFLICT DO UPDATE SET id=excluded.id, name=excluded.name RETURNING id;`,
		got)
}

func TestUpdateSplitsSetAndWhereByUpdateFlag(t *testing.T) {
	got := renderFirst(t, `
		%query rename(int64_t id, const char* name) {
			type update name
			table users
		}
	`)
	assert.Equal(t, `UPDATE users SET name=? WHERE id=?;`, got)
}

func TestUpdateWhereOnlyWhenNoColumnMarkedUpdate(t *testing.T) {
	got := renderFirst(t, `
		%query touch(int64_t id) {
			type update
			table users
		}
	`)
	assert.Equal(t, `UPDATE users SET  WHERE id=?;`, got)
}

func TestDeleteByMultipleColumns(t *testing.T) {
	got := renderFirst(t, `
		%query delete_by_owner(int64_t owner_id, const char* name) {
			type delete
			table tags
		}
	`)
	assert.Equal(t, `DELETE FROM tags WHERE owner_id=? AND name=?;`, got)
}

func TestExistsNoArgs(t *testing.T) {
	got := renderFirst(t, `
		%query any_rows() {
			type exists
			table users
		}
	`)
	assert.Equal(t, `SELECT 1 FROM users LIMIT 1;`, got)
}

func TestExistsWithArgs(t *testing.T) {
	got := renderFirst(t, `
		%query has_user(int64_t id) {
			type exists
			table users
		}
	`)
	assert.Equal(t, `SELECT 1 FROM users WHERE id=? LIMIT 1;`, got)
}

func TestSelectFirstWithReturnAndWhere(t *testing.T) {
	got := renderFirst(t, `
		%query get_name(int64_t id) {
			type select-first
			table users
			return name
		}
	`)
	assert.Equal(t, `SELECT name FROM users WHERE id=? LIMIT 1;`, got)
}

func TestSelectAllWithCallbackColumns(t *testing.T) {
	got := renderFirst(t, `
		%query list_users() {
			type select-all
			table users
			return id
			callback const char* name
		}
	`)
	assert.Equal(t, `SELECT id, name FROM users;`, got)
}
