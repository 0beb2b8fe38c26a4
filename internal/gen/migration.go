package gen

import (
	"fmt"
	"strings"

	"github.com/syssam/sqlgen/internal/cstring"
	"github.com/syssam/sqlgen/internal/ir"
)

// writeMigrationDriver emits the full migration surface: one SQL constant
// per %upgrade/%downgrade block, the generic run_sqlite3_sql multi-statement
// executor, <prefix>_version, <prefix>_downgrade_forward_compat (unless
// %option no-forwards-compat was set), and <prefix>_migrate_to/_upgrade/
// _reinit (spec.md §4.4 "migration state machine", grounded on sqlgen.c's
// write_migration_sql_stmts / write_run_sql_stmts_func / write_version_func
// / write_downgrade_forward_compat_func / write_migration_body /
// write_migration_to_func / write_upgrade_func / write_reinit_func).
func writeMigrationDriver(b *strings.Builder, root *ir.Root) {
	writeMigrationSQLConsts(b, root, root.Upgrades, "upgrade")
	writeMigrationSQLConsts(b, root, root.Downgrades, "downgrade")
	writeRunSQLFunc(b, root)
	writeVersionFunc(b, root)
	if !root.Options.NoForwardsCompat {
		writeDowngradeForwardCompatFunc(b, root)
	}
	writeMigrateToFunc(b, root)
	writeUpgradeFunc(b, root)
	writeReinitFunc(b, root)
}

func writeMigrationSQLConsts(b *strings.Builder, root *ir.Root, migrations []ir.Migration, kind string) {
	prefix := root.Options.Prefix
	for _, m := range migrations {
		literal := cstring.Literal(m.SQL.Text(root.Source))
		fmt.Fprintf(b, "static const char* %s_%s%d =\n    \"%s\";\n\n", prefix, kind, m.Version, literal)
	}
}

// writeRunSQLFunc emits the generic multi-statement executor every
// migration step and the forwards-compat replay run through: prepare one
// statement at a time off the remaining SQL text, retry SQLITE_BUSY, and
// advance to the next statement via sqlite3_prepare_v2's tail pointer
// (grounded on sqlgen.c's write_run_sql_stmts_func).
func writeRunSQLFunc(b *strings.Builder, root *ir.Root) {
	logSQLErr := root.Options.LogSQLErr
	b.WriteString("static int\nrun_sqlite3_sql(sqlite3* db, const char* sql)\n{\n")
	b.WriteString("    int ret;\n    int sql_len;\n    const char* sql_next;\n    sqlite3_stmt* stmt;\n\n")
	b.WriteString("    sql_len = (int)strlen(sql);\n\n")

	b.WriteString("next_step:\n")
	b.WriteString("    ret = sqlite3_prepare_v2(db, sql, sql_len, &stmt, &sql_next);\n")
	b.WriteString("    if (ret != SQLITE_OK)\n    {\n")
	fmt.Fprintf(b, "        %s(ret, sqlite3_errstr(ret), sqlite3_errmsg(db));\n", logSQLErr)
	b.WriteString("        return -1;\n    }\n\n")

	b.WriteString("retry_step:\n")
	b.WriteString("    ret = sqlite3_step(stmt);\n")
	b.WriteString("    if (ret == SQLITE_BUSY)\n        goto retry_step;\n")
	b.WriteString("    if (ret != SQLITE_ROW && ret != SQLITE_DONE)\n    {\n")
	fmt.Fprintf(b, "        %s(ret, sqlite3_errstr(ret), sqlite3_errmsg(db));\n", logSQLErr)
	b.WriteString("        sqlite3_finalize(stmt);\n        return -1;\n    }\n\n")

	b.WriteString("    sql_len -= (int)(sql_next - sql);\n")
	b.WriteString("    sql = sql_next;\n")
	b.WriteString("    for (; sql_len && isspace((unsigned char)*sql); ++sql, --sql_len) {}\n")
	b.WriteString("    sqlite3_finalize(stmt);\n")
	b.WriteString("    if (sql_len > 0)\n        goto next_step;\n\n")
	b.WriteString("    return 0;\n}\n\n")
}

func writeVersionFunc(b *strings.Builder, root *ir.Root) {
	prefix := root.Options.Prefix
	logSQLErr := root.Options.LogSQLErr

	fmt.Fprintf(b, "static int\n%s_version(struct %s* ctx)\n{\n", prefix, prefix)
	b.WriteString("    int ret;\n    int version;\n    sqlite3_stmt* stmt;\n\n")
	b.WriteString("    ret = sqlite3_prepare_v2(ctx->db, \"PRAGMA user_version;\", -1, &stmt, NULL);\n")
	b.WriteString("    if (ret != SQLITE_OK)\n    {\n")
	fmt.Fprintf(b, "        %s(ret, sqlite3_errstr(ret), sqlite3_errmsg(ctx->db));\n", logSQLErr)
	b.WriteString("        return -1;\n    }\n\n")
	b.WriteString("    ret = sqlite3_step(stmt);\n")
	b.WriteString("    if (ret != SQLITE_ROW)\n    {\n")
	fmt.Fprintf(b, "        %s(ret, sqlite3_errstr(ret), sqlite3_errmsg(ctx->db));\n", logSQLErr)
	b.WriteString("        sqlite3_finalize(stmt);\n        return -1;\n    }\n\n")
	b.WriteString("    version = sqlite3_column_int(stmt, 0);\n")
	b.WriteString("    sqlite3_finalize(stmt);\n")
	b.WriteString("    return version;\n}\n\n")
}

// firstForwardsCompatVersion is the lowest on-disk version this binary
// cannot downgrade away from on its own: one past the highest %downgrade
// block it carries, or 0 if it carries none (grounded on sqlgen.c's
// "root->downgrade ? root->downgrade->version + 1 : 0", root->downgrade
// being the descending list's head).
func firstForwardsCompatVersion(root *ir.Root) int {
	if len(root.Downgrades) == 0 {
		return 0
	}
	return root.Downgrades[0].Version + 1
}

// writeDowngradeForwardCompatFunc emits <prefix>_downgrade_forward_compat,
// which replays SQL text stashed in the <prefix>_downgrades table (by an
// earlier, newer binary's upgrade step) to downgrade a schema version this
// binary has no compiled-in %downgrade case for (spec.md §9 forwards
// compatibility, grounded on sqlgen.c's write_downgrade_forward_compat_func).
func writeDowngradeForwardCompatFunc(b *strings.Builder, root *ir.Root) {
	prefix := root.Options.Prefix
	logSQLErr := root.Options.LogSQLErr

	fmt.Fprintf(b, "static int\n%s_downgrade_forward_compat(sqlite3* db)\n{\n", prefix)
	b.WriteString("    int ret, i;\n    sqlite3_stmt* stmt;\n    char** sql = NULL;\n    int sql_num = 0;\n    int success = -1;\n\n")
	fmt.Fprintf(b, "    ret = sqlite3_prepare_v2(db, \"SELECT sql FROM %s_downgrades WHERE version >= %d ORDER BY version DESC;\", -1, &stmt, NULL);\n",
		prefix, firstForwardsCompatVersion(root))
	b.WriteString("    if (ret != SQLITE_OK)\n    {\n")
	fmt.Fprintf(b, "        %s(ret, sqlite3_errstr(ret), sqlite3_errmsg(db));\n", logSQLErr)
	b.WriteString("        return -1;\n    }\n\n")

	b.WriteString("next_step:\n")
	b.WriteString("    ret = sqlite3_step(stmt);\n")
	b.WriteString("    if (ret == SQLITE_BUSY)\n        goto next_step;\n")
	b.WriteString("    if (ret == SQLITE_ROW)\n    {\n")
	b.WriteString("        const char* str = (const char*)sqlite3_column_text(stmt, 0);\n")
	b.WriteString("        char** tmp = realloc(sql, sizeof(char*) * (sql_num + 1));\n")
	b.WriteString("        if (tmp == NULL)\n            goto done;\n")
	b.WriteString("        sql = tmp;\n")
	b.WriteString("        sql[sql_num] = malloc(strlen(str) + 1);\n")
	b.WriteString("        if (sql[sql_num] == NULL)\n            goto done;\n")
	b.WriteString("        strcpy(sql[sql_num++], str);\n")
	b.WriteString("        goto next_step;\n    }\n")
	b.WriteString("    if (ret != SQLITE_DONE)\n    {\n")
	fmt.Fprintf(b, "        %s(ret, sqlite3_errstr(ret), sqlite3_errmsg(db));\n", logSQLErr)
	b.WriteString("        goto done;\n    }\n\n")

	b.WriteString("    for (i = 0; i != sql_num; ++i)\n    {\n")
	b.WriteString("        if (run_sqlite3_sql(db, sql[i]) != 0)\n            goto done;\n")
	b.WriteString("    }\n")
	b.WriteString("    success = 0;\n\n")

	b.WriteString("done:\n")
	b.WriteString("    for (i = 0; i != sql_num; ++i)\n        free(sql[i]);\n")
	b.WriteString("    free(sql);\n")
	b.WriteString("    sqlite3_reset(stmt);\n")
	b.WriteString("    sqlite3_finalize(stmt);\n")
	b.WriteString("    return success;\n}\n\n")
}

func maxUpgradeVersion(root *ir.Root) int {
	max := 0
	for _, m := range root.Upgrades {
		if m.Version > max {
			max = m.Version
		}
	}
	return max
}

// writeMigrationBody emits the shared transactional downgrade-then-upgrade
// state machine both <prefix>_migrate_to and <prefix>_reinit wrap (grounded
// on sqlgen.c's write_migration_body, parameterized the same way by
// reinitDB: a %s_reinit always drives the version to the highest known
// upgrade and skips the "already at target" short-circuits a targeted
// migrate_to needs).
func writeMigrationBody(b *strings.Builder, root *ir.Root, reinitDB bool) {
	prefix := root.Options.Prefix
	logSQLErr := root.Options.LogSQLErr
	logErr := root.Options.LogError
	maxVersion := maxUpgradeVersion(root)

	b.WriteString("    int ret;\n    int version;\n    char* error;\n\n")

	fmt.Fprintf(b, "    version = %s_version(ctx);\n", prefix)
	b.WriteString("    if (version < 0)\n        return -1;\n\n")

	if !reinitDB {
		b.WriteString("    if (version == target_version)\n        return 0;\n\n")
	}

	b.WriteString("    ret = sqlite3_exec(ctx->db, \"BEGIN TRANSACTION;\", NULL, NULL, &error);\n")
	b.WriteString("    if (ret != SQLITE_OK)\n    {\n")
	fmt.Fprintf(b, "        %s(ret, error, sqlite3_errmsg(ctx->db));\n", logSQLErr)
	b.WriteString("        sqlite3_free(error);\n        return -1;\n    }\n\n")

	// Downgrade pass: walk backward from the current version toward 0 (or
	// toward whatever the forwards-compat replay leaves us at), dropping
	// the downgrades table once we reach the bottom.
	fmt.Fprintf(b, "    if (version > %d)\n    {\n", firstForwardsCompatVersion(root)-1)
	if root.Options.NoForwardsCompat {
		fmt.Fprintf(b, "        %s(\"database was created by a newer version of the software; cannot downgrade because forwards compatibility is disabled\\n\");\n", logErr)
		b.WriteString("        goto migration_failed;\n")
	} else {
		fmt.Fprintf(b, "        if (%s_downgrade_forward_compat(ctx->db) != 0)\n            goto migration_failed;\n", prefix)
		fmt.Fprintf(b, "        version = %d;\n", firstForwardsCompatVersion(root))
	}
	b.WriteString("    }\n")

	for _, m := range root.Downgrades {
		fmt.Fprintf(b, "    if (version == %d)\n    {\n", m.Version+1)
		if !reinitDB {
			b.WriteString("        if (version == target_version)\n            goto migration_done;\n")
		}
		fmt.Fprintf(b, "        if (run_sqlite3_sql(ctx->db, %s_downgrade%d) != 0)\n            goto migration_failed;\n", prefix, m.Version)
		if !root.Options.NoForwardsCompat && m.Version == 0 {
			fmt.Fprintf(b, "        if (run_sqlite3_sql(ctx->db, \"DROP TABLE IF EXISTS %s_downgrades;\") != 0)\n            goto migration_failed;\n", prefix)
		}
		fmt.Fprintf(b, "        version = %d;\n", m.Version)
		b.WriteString("    }\n")
	}
	b.WriteString("\n")

	// Upgrade pass: walk forward from the current version to the target
	// (migrate_to) or to the highest known version (reinit). The first
	// upgrade step also creates and seeds the downgrades table so a future
	// older binary can downgrade past this version.
	for _, m := range root.Upgrades {
		fmt.Fprintf(b, "    if (version == %d)\n    {\n", m.Version-1)
		if !reinitDB {
			b.WriteString("        if (version == target_version)\n            goto migration_done;\n")
		}
		if !root.Options.NoForwardsCompat && m.Version == 1 {
			fmt.Fprintf(b, "        if (run_sqlite3_sql(ctx->db,\n")
			fmt.Fprintf(b, "                \"CREATE TABLE IF NOT EXISTS %s_downgrades (\\n\"\n", prefix)
			b.WriteString("                \"    version INTEGER PRIMARY KEY NOT NULL,\\n\"\n")
			b.WriteString("                \"    sql TEXT NOT NULL);\") != 0)\n            goto migration_failed;\n")
			for _, dm := range root.Downgrades {
				dmLiteral := cstring.Literal(dm.SQL.Text(root.Source))
				escaped := strings.ReplaceAll(dmLiteral, "'", "''")
				b.WriteString("        if (run_sqlite3_sql(ctx->db,\n")
				fmt.Fprintf(b, "                \"INSERT OR IGNORE INTO %s_downgrades (version, sql) VALUES (%d, '%s');\") != 0)\n            goto migration_failed;\n",
					prefix, dm.Version, escaped)
			}
		}
		fmt.Fprintf(b, "        if (run_sqlite3_sql(ctx->db, %s_upgrade%d) != 0)\n            goto migration_failed;\n", prefix, m.Version)
		fmt.Fprintf(b, "        version = %d;\n", m.Version)
		b.WriteString("    }\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(b, "    if (version != %d)\n    {\n", maxVersion)
	fmt.Fprintf(b, "        %s(\"failed to migrate database: unknown version %%d\\n\", version);\n", logErr)
	b.WriteString("        goto migration_failed;\n    }\n\n")

	if !reinitDB {
		b.WriteString("migration_done:\n")
	}
	if reinitDB {
		fmt.Fprintf(b, "    ret = sqlite3_exec(ctx->db, \"PRAGMA user_version=%d;\", NULL, NULL, &error);\n", maxVersion)
	} else {
		b.WriteString("    {\n        char buf[sizeof(\"PRAGMA user_version=-2147483648;\")];\n")
		b.WriteString("        snprintf(buf, sizeof buf, \"PRAGMA user_version=%d;\", target_version);\n")
		b.WriteString("        ret = sqlite3_exec(ctx->db, buf, NULL, NULL, &error);\n    }\n")
	}
	b.WriteString("    if (ret != SQLITE_OK)\n    {\n")
	fmt.Fprintf(b, "        %s(ret, error, sqlite3_errmsg(ctx->db));\n", logSQLErr)
	b.WriteString("        sqlite3_free(error);\n        goto migration_failed;\n    }\n\n")

	b.WriteString("    ret = sqlite3_exec(ctx->db, \"COMMIT TRANSACTION;\", NULL, NULL, &error);\n")
	b.WriteString("    if (ret != SQLITE_OK)\n    {\n")
	fmt.Fprintf(b, "        %s(ret, error, sqlite3_errmsg(ctx->db));\n", logSQLErr)
	b.WriteString("        sqlite3_free(error);\n        goto migration_failed;\n    }\n")
	b.WriteString("    return 0;\n\n")

	b.WriteString("migration_failed:\n")
	b.WriteString("    ret = sqlite3_exec(ctx->db, \"ROLLBACK TRANSACTION;\", NULL, NULL, &error);\n")
	b.WriteString("    if (ret != SQLITE_OK)\n    {\n")
	fmt.Fprintf(b, "        %s(ret, error, sqlite3_errmsg(ctx->db));\n", logSQLErr)
	b.WriteString("        sqlite3_free(error);\n    }\n")
	b.WriteString("    return -1;\n")
}

func writeMigrateToFunc(b *strings.Builder, root *ir.Root) {
	prefix := root.Options.Prefix
	fmt.Fprintf(b, "static int\n%s_migrate_to(struct %s* ctx, int target_version)\n{\n", prefix, prefix)
	writeMigrationBody(b, root, false)
	b.WriteString("}\n\n")
}

func writeUpgradeFunc(b *strings.Builder, root *ir.Root) {
	prefix := root.Options.Prefix
	fmt.Fprintf(b, "static int\n%s_upgrade(struct %s* ctx)\n{\n", prefix, prefix)
	fmt.Fprintf(b, "    return %s_migrate_to(ctx, %d);\n", prefix, maxUpgradeVersion(root))
	b.WriteString("}\n\n")
}

func writeReinitFunc(b *strings.Builder, root *ir.Root) {
	prefix := root.Options.Prefix
	fmt.Fprintf(b, "static int\n%s_reinit(struct %s* ctx)\n{\n", prefix, prefix)
	writeMigrationBody(b, root, true)
	b.WriteString("}\n\n")
}
