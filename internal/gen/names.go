package gen

import (
	"strings"

	"github.com/syssam/sqlgen/internal/ir"
	"github.com/syssam/sqlgen/internal/source"
)

// queryRef pairs a query with the group it belongs to (nil for top-level),
// the unit the emitter actually iterates over.
type queryRef struct {
	Group *ir.Group
	Query *ir.Query
}

func allQueryRefs(root *ir.Root) []queryRef {
	var out []queryRef
	for _, q := range root.Queries {
		out = append(out, queryRef{Query: q})
	}
	for _, g := range root.Groups {
		for _, q := range g.Queries {
			out = append(out, queryRef{Group: g, Query: q})
		}
	}
	return out
}

type functionRef struct {
	Group *ir.Group
	Fn    *ir.Function
}

func allFunctionRefs(root *ir.Root) []functionRef {
	var out []functionRef
	for _, fn := range root.Functions {
		out = append(out, functionRef{Fn: fn})
	}
	for _, g := range root.Groups {
		for _, fn := range g.Functions {
			out = append(out, functionRef{Group: g, Fn: fn})
		}
	}
	return out
}

// funcName renders the group_query / query C function name (spec.md §5,
// grounded on sqlgen.c's write_func_name).
func funcName(src *source.Source, group *ir.Group, name source.Span) string {
	if group != nil {
		return group.Name.Text(src) + "_" + name.Text(src)
	}
	return name.Text(src)
}

// paramList renders a query's full C parameter list, including the
// callback-style row handler appended when the query has callback
// arguments (spec.md §5, grounded on sqlgen.c's write_func_param_list).
func paramList(src *source.Source, prefix string, q *ir.Query) string {
	var parts []string
	parts = append(parts, "struct "+prefix+"* ctx")
	for _, a := range q.InArgs {
		parts = append(parts, a.Type.Text(src)+" "+a.Name.Text(src))
	}
	if len(q.CBArgs) > 0 {
		var cbParts []string
		for _, a := range q.CBArgs {
			cbParts = append(cbParts, a.Type.Text(src)+" "+a.Name.Text(src))
		}
		parts = append(parts, "int (*on_row)("+strings.Join(cbParts, ", ")+", void* user_data)")
		parts = append(parts, "void* user_data")
	}
	return strings.Join(parts, ", ")
}

// fnParamListWithCtx renders a free function's parameter list with the
// leading context parameter spec.md §4.5 gives every query, since
// sqlgen.c's gen_header renders function pointer fields as
// "int (*name)(struct prefix* ctx, ...)" (grounded on sqlgen.c:2849-2864).
func fnParamListWithCtx(src *source.Source, prefix string, fn *ir.Function) string {
	parts := []string{"struct " + prefix + "* ctx"}
	for _, a := range fn.Args {
		parts = append(parts, a.Type.Text(src)+" "+a.Name.Text(src))
	}
	return strings.Join(parts, ", ")
}

// interfaceFieldDecl renders one function-pointer field of the
// %s_interface record: "int (*name)(params);" (spec.md §4.5, grounded on
// sqlgen.c's write_func_ptr_decl).
func interfaceFieldDecl(src *source.Source, prefix string, group *ir.Group, q *ir.Query) string {
	return "int (*" + funcName(src, group, q.Name) + ")(" + paramList(src, prefix, q) + ")"
}

// dbgFuncName is the "dbg_"-prefixed name the debug layer wraps every query
// and module entry point under (grounded on sqlgen.c's write_dbg_func_decl).
func dbgFuncName(src *source.Source, group *ir.Group, name source.Span) string {
	return "dbg_" + funcName(src, group, name)
}

// effectiveDebugLayer ORs the CLI's --debug-layer flag with the spec's
// %option debug-layer: either one is enough to turn on instrumentation
// (spec.md §6, §4.5).
func effectiveDebugLayer(cfg *Config, root *ir.Root) bool {
	return cfg.DebugLayer || root.Options.DebugLayer
}
