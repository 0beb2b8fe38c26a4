package sqlcheck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlgen/internal/normalize"
	"github.com/syssam/sqlgen/internal/parser"
	"github.com/syssam/sqlgen/internal/source"
	"github.com/syssam/sqlgen/internal/sqlcheck"
	"github.com/syssam/sqlgen/internal/sqltemplate"
)

func parseRoot(t *testing.T, text string) *source.Source {
	t.Helper()
	return source.New("t.sqlgen", []byte(text))
}

func TestMigrationsThenInsertOrGetIDThenExists(t *testing.T) {
	src := parseRoot(t, `
		%upgrade 1 { CREATE TABLE tags (id INTEGER PRIMARY KEY, name TEXT UNIQUE NOT NULL); }

		%query insert_or_get_id(const char* name) {
			type insert
			table tags
			return id
		}

		%query tag_exists(const char* name) {
			type exists
			table tags
		}
	`)
	root, err := parser.Parse(src)
	require.NoError(t, err)
	normalize.Run(root)

	db, err := sqlcheck.Open()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate([]string{root.Upgrades[0].SQL.Text(src)}))

	insertSQL := sqltemplate.Render(src, root.Queries[0])
	_, err = db.Exec(insertSQL, "alpha")
	require.NoError(t, err)
	_, err = db.Exec(insertSQL, "alpha") // conflict path exercises ON CONFLICT DO UPDATE
	require.NoError(t, err)

	existsSQL := sqltemplate.Render(src, root.Queries[1])
	row := db.QueryRow(existsSQL, "alpha")
	var one int
	require.NoError(t, row.Scan(&one))
	assert.Equal(t, 1, one)

	row = db.QueryRow(existsSQL, "missing")
	err = row.Scan(&one)
	assert.Error(t, err) // no rows
}

func TestUpsertCallback(t *testing.T) {
	src := parseRoot(t, `
		%upgrade 1 { CREATE TABLE counters (id INTEGER PRIMARY KEY, hits INTEGER NOT NULL); }

		%query bump(int64_t id, int64_t hits) {
			type upsert
			table counters
			return id
			callback int64_t hits
		}
	`)
	root, err := parser.Parse(src)
	require.NoError(t, err)
	normalize.Run(root)

	db, err := sqlcheck.Open()
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate([]string{root.Upgrades[0].SQL.Text(src)}))

	upsertSQL := sqltemplate.Render(src, root.Queries[0])
	var id, hits int64
	require.NoError(t, db.QueryRow(upsertSQL, 1, 5).Scan(&id, &hits))
	assert.Equal(t, int64(5), hits)

	require.NoError(t, db.QueryRow(upsertSQL, 1, 9).Scan(&id, &hits))
	assert.Equal(t, int64(9), hits)
}

func TestUpdateWhereOnlyQuery(t *testing.T) {
	src := parseRoot(t, `
		%upgrade 1 { CREATE TABLE users (id INTEGER PRIMARY KEY, touched INTEGER NOT NULL DEFAULT 0); }

		%query touch(int64_t id) {
			type update
			table users
		}
	`)
	root, err := parser.Parse(src)
	require.NoError(t, err)
	normalize.Run(root)

	db, err := sqlcheck.Open()
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate([]string{root.Upgrades[0].SQL.Text(src)}))
	_, err = db.Exec("INSERT INTO users (id) VALUES (1);")
	require.NoError(t, err)

	touchSQL := sqltemplate.Render(src, root.Queries[0])
	_, err = db.Exec(touchSQL, 1)
	require.NoError(t, err)
}

func TestSelectAllIterationOverMultipleRows(t *testing.T) {
	src := parseRoot(t, `
		%upgrade 1 { CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL); }

		%query list_users() {
			type select-all
			table users
			return id
			callback const char* name
		}
	`)
	root, err := parser.Parse(src)
	require.NoError(t, err)
	normalize.Run(root)

	db, err := sqlcheck.Open()
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate([]string{root.Upgrades[0].SQL.Text(src)}))
	_, err = db.Exec("INSERT INTO users (id, name) VALUES (1, 'a'), (2, 'b');")
	require.NoError(t, err)

	listSQL := sqltemplate.Render(src, root.Queries[0])
	rows, err := db.Query(listSQL)
	require.NoError(t, err)
	defer rows.Close()

	var count int
	for rows.Next() {
		var id int
		var name string
		require.NoError(t, rows.Scan(&id, &name))
		count++
	}
	assert.Equal(t, 2, count)
}
