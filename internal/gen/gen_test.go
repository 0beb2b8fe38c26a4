package gen_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlgen/internal/gen"
	"github.com/syssam/sqlgen/internal/normalize"
	"github.com/syssam/sqlgen/internal/parser"
	"github.com/syssam/sqlgen/internal/source"
)

func build(t *testing.T, text string, opts ...gen.Option) (*gen.Config, *gen.Result) {
	t.Helper()
	src := source.New("t.sqlgen", []byte(text))
	root, err := parser.Parse(src)
	require.NoError(t, err)
	normalize.Run(root)

	cfg, err := gen.NewConfig(append([]gen.Option{gen.WithHeaderName("myapp")}, opts...)...)
	require.NoError(t, err)

	res, err := gen.Generate(cfg, root)
	require.NoError(t, err)
	return cfg, res
}

func TestDeclarationHasIncludeGuardAndInterfaceStruct(t *testing.T) {
	_, res := build(t, `
		%query get_user(int64_t id) {
			type select-first
			table users
			return name
		}
	`)
	h := string(res.Header)
	assert.Contains(t, h, "#ifndef MYAPP_H")
	assert.Contains(t, h, "struct sqlgen;")
	assert.Contains(t, h, "struct sqlgen_interface")
	assert.Contains(t, h, "int (*get_user)(")
	assert.Contains(t, h, "struct sqlgen_interface* sqlgen(const char* backend);")
}

func TestImplementationEmitsContextStruct(t *testing.T) {
	_, res := build(t, `
		%query get_user(int64_t id) {
			type select-first
			table users
			return name
		}
	`)
	src := string(res.Source)
	assert.Contains(t, src, "struct sqlgen\n{\n")
	assert.Contains(t, src, "sqlite3* db;")
	assert.Contains(t, src, "sqlite3_stmt* get_user;")
}

func TestPrivateQueryOmittedFromDeclarationOnly(t *testing.T) {
	_, res := build(t, `
		%private-query internal_count() {
			type select-first
			table users
			return id
		}
	`)
	assert.NotContains(t, string(res.Header), "internal_count")
	assert.Contains(t, string(res.Source), "static int\ninternal_count(")
}

func TestGroupedQueryFunctionNameIsPrefixed(t *testing.T) {
	_, res := build(t, `
		%query users, find_by_id(int64_t id) {
			type select-first
			table users
			return name
		}
	`)
	assert.Contains(t, string(res.Header), "int (*find_by_id)(")
	assert.Contains(t, string(res.Source), "users_find_by_id(")
}

func TestImplementationEmbedsSynthesizedSQL(t *testing.T) {
	_, res := build(t, `
		%query rename(int64_t id, const char* name) {
			type update name
			table users
		}
	`)
	assert.Contains(t, string(res.Source), "UPDATE users SET name=? WHERE id=?")
}

func TestImplementationEmbedsLiteralStmt(t *testing.T) {
	_, res := build(t, `
		%query count_all() {
			type select-first
			stmt { SELECT COUNT(*) FROM users }
			return total
		}
	`)
	assert.Contains(t, string(res.Source), `"SELECT COUNT(*) FROM users"`)
}

func TestStepLoopRetriesOnBusy(t *testing.T) {
	_, res := build(t, `
		%query rename(int64_t id, const char* name) {
			type update name
			table users
		}
	`)
	src := string(res.Source)
	assert.Contains(t, src, "next_step:")
	assert.Contains(t, src, "if (ret == SQLITE_BUSY)\n        goto next_step;")
}

func TestReturnNameIsPropagatedOnSuccess(t *testing.T) {
	_, res := build(t, `
		%query insert_or_get_id(const char* name, int64_t value) {
			type insert
			table items
			return id
		}
	`)
	src := string(res.Source)
	assert.Contains(t, src, "int id = -1;")
	assert.Contains(t, src, "return id;")
}

func TestNullableCallbackArgGetsNullSentinel(t *testing.T) {
	_, res := build(t, `
		%query find_nickname(int64_t id) {
			type select-first
			table users
			callback const char* nickname null
		}
	`)
	src := string(res.Source)
	assert.Contains(t, src, "sqlite3_column_type(ctx->find_nickname")
	assert.Contains(t, src, "== SQLITE_NULL ?")
}

func TestMigrationDriverEmitsMigrateToAndHelpers(t *testing.T) {
	_, res := build(t, `
		%upgrade 1 { CREATE TABLE users (id INTEGER); }
		%downgrade 1 { DROP TABLE users; }
	`)
	src := string(res.Source)
	assert.Contains(t, src, "sqlgen_migrate_to(struct sqlgen* ctx, int target_version)")
	assert.Contains(t, src, "sqlgen_upgrade(struct sqlgen* ctx)")
	assert.Contains(t, src, "sqlgen_reinit(struct sqlgen* ctx)")
	assert.Contains(t, src, "sqlgen_version(struct sqlgen* ctx)")
	assert.Contains(t, src, "run_sqlite3_sql(sqlite3* db, const char* sql)")
	assert.Contains(t, src, "sqlgen_downgrade_forward_compat(sqlite3* db)")
	assert.Contains(t, src, "CREATE TABLE users (id INTEGER);")
	assert.Contains(t, src, "sqlgen_downgrades")
}

func TestNoForwardsCompatOmitsDowngradeTable(t *testing.T) {
	_, res := build(t, `
		%option no-forwards-compat
		%upgrade 1 { CREATE TABLE users (id INTEGER); }
		%downgrade 1 { DROP TABLE users; }
	`)
	src := string(res.Source)
	assert.NotContains(t, src, "sqlgen_downgrade_forward_compat")
	assert.NotContains(t, src, "sqlgen_downgrades")
}

func TestFunctionBodyInlinedVerbatim(t *testing.T) {
	_, res := build(t, `
		%function log_event(int code) {
			fprintf(stderr, "event %d\n", code);
		}
	`)
	assert.Contains(t, string(res.Source), `fprintf(stderr, "event %d\n", code);`)
}

func TestDebugLayerOptionEmitsWrappersAndInstance(t *testing.T) {
	_, res := build(t, `
		%option debug-layer
		%query get_user(int64_t id) {
			type select-first
			table users
			return name
		}
	`)
	src := string(res.Source)
	assert.Contains(t, src, "dbg_get_user(")
	assert.Contains(t, src, "dbg_db_sqlite3")
	assert.Contains(t, src, "&dbg_db_sqlite3;")
}

func TestDebugLayerFlagForcesEmissionWithoutOption(t *testing.T) {
	_, res := build(t, `
		%query get_user(int64_t id) {
			type select-first
			table users
			return name
		}
	`, gen.WithDebugLayer(true))
	assert.Contains(t, string(res.Source), "dbg_get_user(")
}

func TestDebugLayerOffByDefault(t *testing.T) {
	_, res := build(t, `
		%query get_user(int64_t id) {
			type select-first
			table users
			return name
		}
	`)
	src := string(res.Source)
	assert.NotContains(t, src, "dbg_get_user(")
	assert.Contains(t, src, "&db_sqlite3;")
}

func TestCustomInitSuppressesDeclarationAndImplementation(t *testing.T) {
	_, res := build(t, `
		%option custom-init
		%query get_user(int64_t id) {
			type select-first
			table users
			return name
		}
	`)
	assert.NotContains(t, string(res.Header), "sqlgen_init(void);")
	assert.NotContains(t, string(res.Source), "sqlgen_init(void)\n{")
}

func TestCustomInitDeclOnlySuppressesDeclaration(t *testing.T) {
	_, res := build(t, `
		%option custom-init-decl
		%query get_user(int64_t id) {
			type select-first
			table users
			return name
		}
	`)
	assert.NotContains(t, string(res.Header), "sqlgen_init(void);")
	assert.Contains(t, string(res.Source), "sqlgen_init(void)\n{")
}

func TestGenerateIsDeterministicAcrossRuns(t *testing.T) {
	spec := `
		%query get_user(int64_t id) {
			type select-first
			table users
			return name
		}
	`
	_, first := build(t, spec)
	_, second := build(t, spec)

	if diff := cmp.Diff(string(first.Header), string(second.Header)); diff != "" {
		t.Errorf("header output is not deterministic (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(string(first.Source), string(second.Source)); diff != "" {
		t.Errorf("source output is not deterministic (-first +second):\n%s", diff)
	}
}

func TestManifestOnlyRenderedWhenConfigured(t *testing.T) {
	src := source.New("t.sqlgen", []byte(`
		%query get_user(int64_t id) {
			type select-first
			table users
			return name
		}
	`))
	root, err := parser.Parse(src)
	require.NoError(t, err)
	normalize.Run(root)

	cfg, err := gen.NewConfig(gen.WithHeaderName("myapp"))
	require.NoError(t, err)
	res, err := gen.Generate(cfg, root)
	require.NoError(t, err)
	assert.Nil(t, res.Manifest)
}
