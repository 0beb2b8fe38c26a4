package gen

import (
	"fmt"
	"strings"

	"github.com/syssam/sqlgen/internal/cstring"
	"github.com/syssam/sqlgen/internal/ir"
	"github.com/syssam/sqlgen/internal/sqltemplate"
	"github.com/syssam/sqlgen/internal/types"
)

// renderImplementation renders the source/implementation stream: the
// context struct, the default error function (when log-sql-error was left at
// its default), source includes/preamble/postamble, one function body per
// query and free function, open/close, the migration driver, the
// %s_interface instance(s) (a debug-wrapped one too when the debug layer is
// active), and the three custom_*-gated module entry points (spec.md §4.5,
// §5, grounded on sqlgen.c's gen_source). Every query's body is emitted
// here regardless of its %private-query status (SPEC_FULL.md §10); only
// the %s_interface's pointer fields omit it.
func renderImplementation(cfg *Config, root *ir.Root) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "#include \"%s.h\"\n\n", cfg.HeaderName)

	if root.Options.SourceIncludes.Length > 0 {
		b.WriteString(root.Options.SourceIncludes.Text(root.Source))
		b.WriteString("\n\n")
	}
	b.WriteString("#include <ctype.h>\n#include <stdlib.h>\n#include <string.h>\n#include <stdio.h>\n\n")

	writeContextStruct(&b, root)

	if root.Options.LogSQLErr == ir.DefaultOptions().LogSQLErr {
		writeDefaultErrorFn(&b)
	}

	if root.Options.SourcePreamble.Length > 0 {
		b.WriteString(root.Options.SourcePreamble.Text(root.Source))
		b.WriteString("\n\n")
	}

	for _, ref := range allQueryRefs(root) {
		writeQuery(&b, root, ref)
	}
	for _, ref := range allFunctionRefs(root) {
		writeFunction(&b, root, ref)
	}

	writeOpenClose(&b, root)
	writeMigrationDriver(&b, root)
	writeInterfaceInstance(&b, root, "db_sqlite3", false)

	debug := effectiveDebugLayer(cfg, root)
	if debug {
		writeDebugLayer(&b, root)
	}

	writeModuleAPI(&b, root, debug)

	if root.Options.SourcePostamble.Length > 0 {
		b.WriteString("\n")
		b.WriteString(root.Options.SourcePostamble.Text(root.Source))
		b.WriteString("\n")
	}

	return []byte(b.String())
}

// writeContextStruct defines the connection struct the header only forward
// declares: one sqlite3* and one prepared-statement slot per query,
// top-level first then one per group, in declaration order (grounded on
// sqlgen.c's gen_source context-structure block).
func writeContextStruct(b *strings.Builder, root *ir.Root) {
	prefix := root.Options.Prefix
	fmt.Fprintf(b, "struct %s\n{\n", prefix)
	b.WriteString("    sqlite3* db;\n")
	for _, ref := range allQueryRefs(root) {
		fmt.Fprintf(b, "    sqlite3_stmt* %s;\n", funcName(root.Source, ref.Group, ref.Query.Name))
	}
	b.WriteString("};\n\n")
}

// writeDefaultErrorFn emits the built-in sqlgen_error logger used when
// %option log-sql-error was never set away from its default name (grounded
// on sqlgen.c's "if (root->log_sql_err.len == 0)" block).
func writeDefaultErrorFn(b *strings.Builder) {
	b.WriteString("static void\nsqlgen_error(int error_code, const char* error_code_str, const char* error_msg)\n{\n")
	b.WriteString("    printf(\"SQL Error: %s (%d): %s\\n\", error_code_str, error_code, error_msg);\n")
	b.WriteString("}\n\n")
}

func writeQuery(b *strings.Builder, root *ir.Root, ref queryRef) {
	q := ref.Query
	name := funcName(root.Source, ref.Group, q.Name)
	prefix := root.Options.Prefix

	if q.Doxygen.Length > 0 {
		b.WriteString(q.Doxygen.Text(root.Source))
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "static int\n%s(%s)\n{\n", name, paramList(root.Source, prefix, q))
	b.WriteString("    int ret;\n")
	if q.HasReturn {
		fmt.Fprintf(b, "    int %s = -1;\n", q.ReturnName.Text(root.Source))
	}
	b.WriteString("\n")

	writePrepare(b, root, ref)
	writeBind(b, root, q, name)
	writeStepAndResult(b, root, q, name)

	b.WriteString("}\n\n")
}

func writePrepare(b *strings.Builder, root *ir.Root, ref queryRef) {
	q := ref.Query
	name := funcName(root.Source, ref.Group, q.Name)

	var sql string
	if q.HasStmt {
		sql = q.Stmt.Text(root.Source)
	} else {
		sql = sqltemplate.Render(root.Source, q)
	}
	literal := cstring.Literal(sql)

	fmt.Fprintf(b, "    if (ctx->%s == NULL)\n", name)
	fmt.Fprintf(b, "        if ((ret = sqlite3_prepare_v2(ctx->db, \"%s\", -1, &ctx->%s, NULL)) != SQLITE_OK)\n", literal, name)
	b.WriteString("        {\n")
	fmt.Fprintf(b, "            %s(ret, sqlite3_errstr(ret), sqlite3_errmsg(ctx->db));\n", root.Options.LogSQLErr)
	b.WriteString("            return -1;\n        }\n\n")
}

// writeBind emits the argument-binding block, grouping SET-clause (update)
// arguments before WHERE-clause (non-update) arguments to match the
// '?' placeholder order produced by sqltemplate for UPDATE queries
// (spec.md §4.4, grounded on sqlgen.c's write_sqlite_bind_args two-pass
// loop over a->update).
func writeBind(b *strings.Builder, root *ir.Root, q *ir.Query, funcName string) {
	if len(q.BindArgs) == 0 {
		return
	}

	var ordered []ir.Arg
	if q.Type == ir.Update {
		for _, a := range q.BindArgs {
			if a.Update {
				ordered = append(ordered, a)
			}
		}
		for _, a := range q.BindArgs {
			if !a.Update {
				ordered = append(ordered, a)
			}
		}
	} else {
		ordered = q.BindArgs
	}

	b.WriteString("    if ((ret = ")
	for i, a := range ordered {
		if i > 0 {
			b.WriteString(") &&\n        (ret = ")
		}
		writeBindOne(b, root, a, i+1, funcName)
	}
	b.WriteString(")) != SQLITE_OK)\n    {\n")
	fmt.Fprintf(b, "        %s(ret, sqlite3_errstr(ret), sqlite3_errmsg(ctx->db));\n", root.Options.LogSQLErr)
	b.WriteString("        return -1;\n    }\n\n")
}

func writeBindOne(b *strings.Builder, root *ir.Root, a ir.Arg, idx int, funcName string) {
	typeName := a.Type.Text(root.Source)
	info, ok := types.Lookup(typeName)
	if !ok {
		// The parser does not check argument types, so an unrecognized type
		// falls back to the int bind family.
		info = types.Info{Family: types.FamilyInt}
	}
	argName := a.Name.Text(root.Source)

	if a.Nullable {
		fmt.Fprintf(b, "%s %s ? sqlite3_bind_null(ctx->%s, %d) : ", argName, info.NullCmp, funcName, idx)
	}
	fmt.Fprintf(b, "sqlite3_bind_%s(ctx->%s, %d, %s%s", info.Family, funcName, idx, info.BindCast, argName)
	if info.IsStrView {
		fmt.Fprintf(b, ".data, %s.len, SQLITE_STATIC", argName)
	} else if typeName == "const char*" {
		b.WriteString(", -1, SQLITE_STATIC")
	}
	b.WriteString(")")
}

// writeStepAndResult emits the BUSY-retry step loop and per-type result
// handling (spec.md §4.5's return_name/callback contract, grounded on
// sqlgen.c's write_sqlite_exec). Every query type retries SQLITE_BUSY via a
// function-scoped "next_step" label instead of failing outright.
func writeStepAndResult(b *strings.Builder, root *ir.Root, q *ir.Query, funcName string) {
	logSQLErr := func() {
		fmt.Fprintf(b, "    %s(ret, sqlite3_errstr(ret), sqlite3_errmsg(ctx->db));\n", root.Options.LogSQLErr)
	}

	switch q.Type {
	case ir.Exists:
		b.WriteString("next_step:\n")
		fmt.Fprintf(b, "    ret = sqlite3_step(ctx->%s);\n", funcName)
		b.WriteString("    if (ret == SQLITE_BUSY)\n        goto next_step;\n")
		fmt.Fprintf(b, "    sqlite3_reset(ctx->%s);\n", funcName)
		b.WriteString("    if (ret == SQLITE_ROW)\n        return 1;\n")
		b.WriteString("    if (ret == SQLITE_DONE)\n        return 0;\n")
		logSQLErr()
		b.WriteString("    return -1;\n")

	case ir.SelectAll:
		hasCB := len(q.CBArgs) > 0
		b.WriteString("    for (;;)\n    {\n")
		b.WriteString("next_step:\n")
		fmt.Fprintf(b, "        ret = sqlite3_step(ctx->%s);\n", funcName)
		b.WriteString("        if (ret == SQLITE_BUSY)\n            goto next_step;\n")
		b.WriteString("        if (ret == SQLITE_ROW)\n        {\n")
		writeRowExtraction(b, root, q, funcName, "            ")
		if hasCB {
			b.WriteString("            int cbret = on_row(")
			writeCallbackArgs(b, root, q)
			b.WriteString(", user_data);\n")
			b.WriteString("            if (cbret == 0)\n                continue;\n")
			fmt.Fprintf(b, "            sqlite3_reset(ctx->%s);\n", funcName)
			if q.HasReturn {
				b.WriteString("            if (cbret < 0)\n                return -1;\n")
				fmt.Fprintf(b, "            return %s;\n", q.ReturnName.Text(root.Source))
			} else {
				b.WriteString("            return cbret;\n")
			}
		} else {
			b.WriteString("            continue;\n")
		}
		b.WriteString("        }\n")
		b.WriteString("        if (ret == SQLITE_DONE)\n        {\n")
		fmt.Fprintf(b, "            sqlite3_reset(ctx->%s);\n", funcName)
		if q.HasReturn {
			fmt.Fprintf(b, "            return %s;\n", q.ReturnName.Text(root.Source))
		} else {
			b.WriteString("            return 0;\n")
		}
		b.WriteString("        }\n")
		logSQLErr()
		fmt.Fprintf(b, "        sqlite3_reset(ctx->%s);\n", funcName)
		b.WriteString("        return -1;\n    }\n")

	default:
		b.WriteString("next_step:\n")
		fmt.Fprintf(b, "    ret = sqlite3_step(ctx->%s);\n", funcName)
		b.WriteString("    if (ret == SQLITE_BUSY)\n        goto next_step;\n")

		hasRow := q.HasReturn || len(q.CBArgs) > 0
		if hasRow {
			b.WriteString("    if (ret == SQLITE_ROW)\n    {\n")
			writeRowExtraction(b, root, q, funcName, "        ")
			if len(q.CBArgs) > 0 {
				b.WriteString("        int cbret = on_row(")
				writeCallbackArgs(b, root, q)
				b.WriteString(", user_data);\n")
				fmt.Fprintf(b, "        sqlite3_reset(ctx->%s);\n", funcName)
				if q.HasReturn {
					b.WriteString("        if (cbret < 0)\n            return -1;\n")
					fmt.Fprintf(b, "        return %s;\n", q.ReturnName.Text(root.Source))
				} else {
					b.WriteString("        return cbret;\n")
				}
			} else {
				fmt.Fprintf(b, "        sqlite3_reset(ctx->%s);\n", funcName)
				fmt.Fprintf(b, "        return %s;\n", q.ReturnName.Text(root.Source))
			}
			b.WriteString("    }\n")
		}
		b.WriteString("    if (ret == SQLITE_DONE)\n    {\n")
		fmt.Fprintf(b, "        sqlite3_reset(ctx->%s);\n", funcName)
		if q.HasReturn {
			fmt.Fprintf(b, "        return %s;\n", q.ReturnName.Text(root.Source))
		} else {
			b.WriteString("        return 0;\n")
		}
		b.WriteString("    }\n")
		logSQLErr()
		fmt.Fprintf(b, "    sqlite3_reset(ctx->%s);\n", funcName)
		b.WriteString("    return -1;\n")
	}
}

// writeRowExtraction declares one local variable per return/callback column,
// reading it from the current result row with sqlite3_column_*. A nullable
// callback argument is read through a SQLITE_NULL check that substitutes
// the type's null sentinel (types.Info.ColumnNullValue) instead of calling
// the column accessor on a NULL cell (spec.md §4.4, grounded on sqlgen.c's
// write_sqlite_exec_callback).
func writeRowExtraction(b *strings.Builder, root *ir.Root, q *ir.Query, funcName, indent string) {
	col := 0
	if q.HasReturn {
		fmt.Fprintf(b, "%s%s = sqlite3_column_int(ctx->%s, %d);\n",
			indent, q.ReturnName.Text(root.Source), funcName, col)
		col++
	}
	for _, a := range q.CBArgs {
		typeName := a.Type.Text(root.Source)
		info, ok := types.Lookup(typeName)
		if !ok {
			info = types.Info{Family: types.FamilyInt}
		}
		varName := a.Name.Text(root.Source)

		readExpr := fmt.Sprintf("sqlite3_column_%s(ctx->%s, %d)", info.Family, funcName, col)
		if info.ColumnCast != "" {
			readExpr = info.ColumnCast + readExpr
		}

		if a.Nullable && info.ColumnNullValue != "" {
			fmt.Fprintf(b, "%s%s %s = sqlite3_column_type(ctx->%s, %d) == SQLITE_NULL ? %s : %s;\n",
				indent, typeName, varName, funcName, col, info.ColumnNullValue, readExpr)
		} else {
			fmt.Fprintf(b, "%s%s %s = %s;\n", indent, typeName, varName, readExpr)
		}
		col++
	}
}

func writeCallbackArgs(b *strings.Builder, root *ir.Root, q *ir.Query) {
	names := make([]string, len(q.CBArgs))
	for i, a := range q.CBArgs {
		names[i] = a.Name.Text(root.Source)
	}
	b.WriteString(strings.Join(names, ", "))
}

// writeFunction emits a free function's verbatim body wrapped in the same
// "static int name(ctx, args)" signature its %s_interface pointer field
// carries (grounded on sqlgen.c's gen_source function-emission loop,
// "static int" NL "%S(struct %S* ctx").
func writeFunction(b *strings.Builder, root *ir.Root, ref functionRef) {
	fn := ref.Fn
	name := funcName(root.Source, ref.Group, fn.Name)
	prefix := root.Options.Prefix
	fmt.Fprintf(b, "static int\n%s(%s)\n{\n", name, fnParamListWithCtx(root.Source, prefix, fn))
	b.WriteString(fn.Body.Text(root.Source))
	b.WriteString("\n}\n\n")
}

// writeOpenClose emits the connection-lifecycle pair every %s_interface
// carries (grounded on sqlgen.c's gen_source open/close block).
func writeOpenClose(b *strings.Builder, root *ir.Root) {
	prefix := root.Options.Prefix

	fmt.Fprintf(b, "static struct %s*\n%s_open(const char* uri)\n{\n", prefix, prefix)
	b.WriteString("    int ret;\n")
	fmt.Fprintf(b, "    struct %s* ctx = %s(sizeof *ctx);\n", prefix, root.Options.MallocName)
	b.WriteString("    if (ctx == NULL)\n        return NULL;\n")
	b.WriteString("    memset(ctx, 0, sizeof *ctx);\n\n")
	b.WriteString("    ret = sqlite3_open_v2(uri, &ctx->db, SQLITE_OPEN_READWRITE | SQLITE_OPEN_CREATE, NULL);\n")
	b.WriteString("    if (ret == SQLITE_OK)\n        return ctx;\n\n")
	fmt.Fprintf(b, "    %s(ret, sqlite3_errstr(ret), sqlite3_errmsg(ctx->db));\n", root.Options.LogSQLErr)
	fmt.Fprintf(b, "    %s(ctx);\n", root.Options.FreeName)
	b.WriteString("    return NULL;\n}\n\n")

	fmt.Fprintf(b, "static void\n%s_close(struct %s* ctx)\n{\n", prefix, prefix)
	for _, ref := range allQueryRefs(root) {
		fmt.Fprintf(b, "    sqlite3_finalize(ctx->%s);\n", funcName(root.Source, ref.Group, ref.Query.Name))
	}
	b.WriteString("    sqlite3_close(ctx->db);\n")
	fmt.Fprintf(b, "    %s(ctx);\n}\n\n", root.Options.FreeName)
}

// writeInterfaceInstance emits one static %s_interface instance via
// positional initializers, in the exact field order declaration.go renders
// (spec.md §4.5, grounded on sqlgen.c's db_sqlite3/dbg_db_sqlite3 blocks).
// When debug is true, the six lifecycle fields and every query pointer are
// redirected to their "dbg_"-prefixed wrapper; free functions are always
// referenced directly, since no per-function debug wrapper exists.
func writeInterfaceInstance(b *strings.Builder, root *ir.Root, instanceName string, debug bool) {
	prefix := root.Options.Prefix
	lifecycle := func(suffix string) string {
		if debug {
			return "dbg_" + prefix + "_" + suffix
		}
		return prefix + "_" + suffix
	}

	fmt.Fprintf(b, "static struct %s_interface %s = {\n", prefix, instanceName)
	fmt.Fprintf(b, "    %s,\n", lifecycle("open"))
	fmt.Fprintf(b, "    %s,\n", lifecycle("close"))
	fmt.Fprintf(b, "    %s,\n", lifecycle("version"))
	fmt.Fprintf(b, "    %s,\n", lifecycle("upgrade"))
	fmt.Fprintf(b, "    %s,\n", lifecycle("reinit"))
	fmt.Fprintf(b, "    %s,\n", lifecycle("migrate_to"))

	for _, q := range root.Queries {
		if q.Private {
			continue
		}
		writeInterfaceQueryEntry(b, root, nil, q, debug, "    ")
	}
	for _, fn := range root.Functions {
		if fn.Private {
			continue
		}
		fmt.Fprintf(b, "    %s,\n", funcName(root.Source, nil, fn.Name))
	}
	for _, g := range root.Groups {
		b.WriteString("    {\n")
		for _, q := range g.Queries {
			if q.Private {
				continue
			}
			writeInterfaceQueryEntry(b, root, g, q, debug, "        ")
		}
		for _, fn := range g.Functions {
			if fn.Private {
				continue
			}
			fmt.Fprintf(b, "        %s,\n", funcName(root.Source, g, fn.Name))
		}
		b.WriteString("    },\n")
	}
	b.WriteString("};\n\n")
}

func writeInterfaceQueryEntry(b *strings.Builder, root *ir.Root, group *ir.Group, q *ir.Query, debug bool, indent string) {
	name := funcName(root.Source, group, q.Name)
	if debug {
		name = "dbg_" + name
	}
	fmt.Fprintf(b, "%s%s,\n", indent, name)
}

// writeDebugLayer emits one entry/exit-logging wrapper per non-private
// query, the six lifecycle wrappers, and the dbg_db_sqlite3 instance those
// wrappers back (spec.md §4.5 "%option debug-layer" / "--debug-layer",
// grounded on sqlgen.c's write_debug_wrapper and its surrounding
// gen_source block; simplified to omit the callback-interception indirection
// the original uses to log each row passed to on_row).
func writeDebugLayer(b *strings.Builder, root *ir.Root) {
	for _, ref := range allQueryRefs(root) {
		if ref.Query.Private {
			continue
		}
		writeDebugQueryWrapper(b, root, ref)
	}
	writeDebugLifecycleWrappers(b, root)
	writeInterfaceInstance(b, root, "dbg_db_sqlite3", true)
}

func writeDebugQueryWrapper(b *strings.Builder, root *ir.Root, ref queryRef) {
	q := ref.Query
	name := funcName(root.Source, ref.Group, q.Name)
	prefix := root.Options.Prefix
	logDbg := root.Options.LogDebug

	fmt.Fprintf(b, "static int\ndbg_%s(%s)\n{\n", name, paramList(root.Source, prefix, q))
	b.WriteString("    int result;\n\n")
	fmt.Fprintf(b, "    %s(\"%s(): entering\\n\");\n", logDbg, name)
	b.WriteString("    result = db_sqlite3.")
	if ref.Group != nil {
		fmt.Fprintf(b, "%s.", ref.Group.Name.Text(root.Source))
	}
	fmt.Fprintf(b, "%s(ctx", q.Name.Text(root.Source))
	for _, a := range q.InArgs {
		fmt.Fprintf(b, ", %s", a.Name.Text(root.Source))
	}
	if len(q.CBArgs) > 0 {
		b.WriteString(", on_row, user_data")
	}
	b.WriteString(");\n")
	fmt.Fprintf(b, "    %s(\"%s(): retval=%%d\\n\", result);\n", logDbg, name)
	b.WriteString("    return result;\n}\n\n")
}

func writeDebugLifecycleWrappers(b *strings.Builder, root *ir.Root) {
	prefix := root.Options.Prefix
	logDbg := root.Options.LogDebug

	fmt.Fprintf(b, "static struct %s*\ndbg_%s_open(const char* uri)\n{\n", prefix, prefix)
	fmt.Fprintf(b, "    struct %s* ctx;\n", prefix)
	fmt.Fprintf(b, "    %s(\"opening database \\\"%%s\\\"\\n\", uri);\n", logDbg)
	b.WriteString("    ctx = db_sqlite3.open(uri);\n")
	fmt.Fprintf(b, "    %s(\"retval=%%p\\n\", (void*)ctx);\n", logDbg)
	b.WriteString("    return ctx;\n}\n\n")

	fmt.Fprintf(b, "static void\ndbg_%s_close(struct %s* ctx)\n{\n", prefix, prefix)
	fmt.Fprintf(b, "    %s(\"closing database\\n\");\n", logDbg)
	b.WriteString("    db_sqlite3.close(ctx);\n}\n\n")

	fmt.Fprintf(b, "static int\ndbg_%s_version(struct %s* ctx)\n{\n", prefix, prefix)
	b.WriteString("    int version;\n")
	fmt.Fprintf(b, "    %s(\"getting version...\\n\");\n", logDbg)
	b.WriteString("    version = db_sqlite3.version(ctx);\n")
	fmt.Fprintf(b, "    %s(\"retval=%%d\\n\", version);\n", logDbg)
	b.WriteString("    return version;\n}\n\n")

	fmt.Fprintf(b, "static int\ndbg_%s_upgrade(struct %s* ctx)\n{\n", prefix, prefix)
	b.WriteString("    int ret;\n")
	fmt.Fprintf(b, "    %s(\"upgrading db...\\n\");\n", logDbg)
	b.WriteString("    ret = db_sqlite3.upgrade(ctx);\n")
	fmt.Fprintf(b, "    %s(\"retval=%%d\\n\", ret);\n", logDbg)
	b.WriteString("    return ret;\n}\n\n")

	fmt.Fprintf(b, "static int\ndbg_%s_reinit(struct %s* ctx)\n{\n", prefix, prefix)
	b.WriteString("    int ret;\n")
	fmt.Fprintf(b, "    %s(\"re-initializing db...\\n\");\n", logDbg)
	b.WriteString("    ret = db_sqlite3.reinit(ctx);\n")
	fmt.Fprintf(b, "    %s(\"retval=%%d\\n\", ret);\n", logDbg)
	b.WriteString("    return ret;\n}\n\n")

	fmt.Fprintf(b, "static int\ndbg_%s_migrate_to(struct %s* ctx, int target_version)\n{\n", prefix, prefix)
	b.WriteString("    int ret;\n")
	fmt.Fprintf(b, "    %s(\"migrating db to version: %%d...\\n\", target_version);\n", logDbg)
	b.WriteString("    ret = db_sqlite3.migrate_to(ctx, target_version);\n")
	fmt.Fprintf(b, "    %s(\"retval=%%d\\n\", ret);\n", logDbg)
	b.WriteString("    return ret;\n}\n\n")
}

// writeModuleAPI emits the three custom_*-gated module-level entry points:
// %s_init (sqlite3_initialize), %s_deinit (sqlite3_shutdown), and the
// backend dispatcher returning &db_sqlite3 or, when the debug layer is
// active, &dbg_db_sqlite3 (spec.md §4.5, grounded on sqlgen.c's gen_source
// API block).
func writeModuleAPI(b *strings.Builder, root *ir.Root, debug bool) {
	prefix := root.Options.Prefix

	if !root.Options.CustomInit {
		fmt.Fprintf(b, "int\n%s_init(void)\n{\n", prefix)
		b.WriteString("    if (sqlite3_initialize() != SQLITE_OK)\n        return -1;\n    return 0;\n}\n\n")
	}
	if !root.Options.CustomDeinit {
		fmt.Fprintf(b, "void\n%s_deinit(void)\n{\n", prefix)
		b.WriteString("    sqlite3_shutdown();\n}\n\n")
	}
	if !root.Options.CustomAPI {
		fmt.Fprintf(b, "struct %s_interface*\n%s(const char* backend)\n{\n", prefix, prefix)
		b.WriteString("    if (strcmp(\"sqlite3\", backend) == 0)\n")
		instance := "db_sqlite3"
		if debug {
			instance = "dbg_db_sqlite3"
		}
		fmt.Fprintf(b, "        return &%s;\n", instance)
		fmt.Fprintf(b, "    %s(\"%s(): unknown backend \\\"%%s\\\"\\n\", backend);\n", root.Options.LogError, prefix)
		b.WriteString("    return NULL;\n}\n")
	}
}
