// Package normalize implements the one post-parse pass described in
// spec.md §4.3, grounded directly on sqlgen.c's post_parse(): a query that
// never had a `bind` directive binds its entire parameter list, in order.
// Nothing else is normalized or validated here — cross-reference checks
// (bind names existing, update column names existing) already happened
// during parsing, matching the original's comment that further validation
// remains unimplemented.
package normalize

import "github.com/syssam/sqlgen/internal/ir"

// Run applies the bind-args default to every query in root, top-level and
// grouped alike.
func Run(root *ir.Root) {
	for _, q := range root.Queries {
		normalizeQuery(q)
	}
	for _, g := range root.Groups {
		for _, q := range g.Queries {
			normalizeQuery(q)
		}
	}
}

func normalizeQuery(q *ir.Query) {
	if len(q.BindArgs) == 0 {
		q.BindArgs = q.InArgs
	}
}
