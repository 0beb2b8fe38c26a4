// Package sqltemplate synthesizes the SQL text for a query that has no
// explicit `stmt` (spec.md §4.4), grounded directly on sqlgen.c's
// write_sqlite_prepare_stmt. A query that does supply a literal `stmt` skips
// this package entirely; the emitter renders that span as-is (through
// internal/cstring).
package sqltemplate

import (
	"strings"

	"github.com/syssam/sqlgen/internal/ir"
	"github.com/syssam/sqlgen/internal/source"
)

// Render returns the synthesized SQL text for q, which must have
// q.HasStmt == false. The result is plain SQL (no C string quoting); callers
// pass it through internal/cstring.Literal before embedding it in generated
// source.
func Render(src *source.Source, q *ir.Query) string {
	table := q.TableName.Text(src)
	switch q.Type {
	case ir.Upsert:
		return renderUpsert(src, q, table)
	case ir.Insert:
		return renderInsert(src, q, table)
	case ir.Update, ir.Delete:
		return renderUpdateOrDelete(src, q, table)
	case ir.Exists:
		return renderExists(src, q, table)
	case ir.SelectFirst, ir.SelectAll:
		return renderSelect(src, q, table)
	default:
		return ""
	}
}

func names(src *source.Source, args []ir.Arg) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a.Name.Text(src)
	}
	return out
}

func placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = "?"
	}
	return strings.Join(ph, ", ")
}

// returningList renders the RETURNING projection: return_name followed by
// every callback argument name (spec.md §4.4), comma-separated.
func returningList(src *source.Source, q *ir.Query) string {
	var cols []string
	if q.HasReturn {
		cols = append(cols, q.ReturnName.Text(src))
	}
	cols = append(cols, names(src, q.CBArgs)...)
	return strings.Join(cols, ", ")
}

func hasReturning(q *ir.Query) bool {
	return q.HasReturn || len(q.CBArgs) > 0
}

// reinsertColumn is the column re-assigned to itself in an ON CONFLICT DO
// UPDATE clause purely to make SQLite execute the RETURNING clause even when
// every other column is unchanged. It deliberately avoids "id"/"rowid" by
// preferring the first input argument, falling back to the return column
// (spec.md §4.4, the code comment in sqlgen.c: "We DON'T want to reinsert
// id or rowid because it will cause the id to auto-increment").
func reinsertColumn(src *source.Source, q *ir.Query) string {
	if len(q.InArgs) > 0 {
		return q.InArgs[0].Name.Text(src)
	}
	return q.ReturnName.Text(src)
}

func renderInsert(src *source.Source, q *ir.Query, table string) string {
	cols := names(src, q.InArgs)
	b := ir.NewArena(64)
	if hasReturning(q) {
		b.WriteString("INSERT INTO ")
	} else {
		b.WriteString("INSERT OR IGNORE INTO ")
	}
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES (")
	b.WriteString(placeholders(len(cols)))
	b.WriteString(")")

	if hasReturning(q) {
		reinsert := reinsertColumn(src, q)
		b.WriteString(" ON CONFLICT DO UPDATE SET ")
		b.WriteString(reinsert)
		b.WriteString("=excluded.")
		b.WriteString(reinsert)
		b.WriteString(" RETURNING ")
		b.WriteString(returningList(src, q))
	}
	b.WriteString(";")
	return b.String()
}

func renderUpsert(src *source.Source, q *ir.Query, table string) string {
	cols := names(src, q.InArgs)
	b := ir.NewArena(64)
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES (")
	b.WriteString(placeholders(len(cols)))
	b.WriteString(") ON CONFLICT DO UPDATE SET ")

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + "=excluded." + c
	}
	b.WriteString(strings.Join(sets, ", "))

	if hasReturning(q) {
		b.WriteString(" RETURNING ")
		b.WriteString(returningList(src, q))
	}
	b.WriteString(";")
	return b.String()
}

func renderUpdateOrDelete(src *source.Source, q *ir.Query, table string) string {
	b := ir.NewArena(64)
	if q.Type == ir.Update {
		b.WriteString("UPDATE ")
		b.WriteString(table)
		b.WriteString(" SET ")
	} else {
		b.WriteString("DELETE FROM ")
		b.WriteString(table)
	}

	var setCols, whereCols []string
	for _, a := range q.InArgs {
		n := a.Name.Text(src)
		if a.Update {
			setCols = append(setCols, n+"=?")
		} else {
			whereCols = append(whereCols, n+"=?")
		}
	}
	if q.Type == ir.Update {
		b.WriteString(strings.Join(setCols, ", "))
	}
	if len(whereCols) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(whereCols, " AND "))
	}
	b.WriteString(";")
	return b.String()
}

func renderExists(src *source.Source, q *ir.Query, table string) string {
	b := ir.NewArena(64)
	b.WriteString("SELECT 1 FROM ")
	b.WriteString(table)
	if len(q.InArgs) > 0 {
		b.WriteString(" WHERE ")
		var cols []string
		for _, a := range q.InArgs {
			cols = append(cols, a.Name.Text(src)+"=?")
		}
		b.WriteString(strings.Join(cols, " AND "))
	}
	b.WriteString(" LIMIT 1;")
	return b.String()
}

func renderSelect(src *source.Source, q *ir.Query, table string) string {
	b := ir.NewArena(64)
	b.WriteString("SELECT ")
	b.WriteString(returningList(src, q))
	b.WriteString(" FROM ")
	b.WriteString(table)

	if len(q.InArgs) > 0 {
		b.WriteString(" WHERE ")
		var cols []string
		for _, a := range q.InArgs {
			cols = append(cols, a.Name.Text(src)+"=?")
		}
		b.WriteString(strings.Join(cols, " AND "))
	}
	if q.Type == ir.SelectFirst {
		b.WriteString(" LIMIT 1")
	}
	b.WriteString(";")
	return b.String()
}
