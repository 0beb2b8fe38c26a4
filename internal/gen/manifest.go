package gen

import (
	"bytes"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"

	"github.com/syssam/sqlgen/internal/ir"
	"github.com/syssam/sqlgen/internal/sqltemplate"
)

// renderManifest renders the optional introspection file enabled by
// --manifest (SPEC_FULL.md §2): a Go package describing every query the
// spec declared, for tooling (linters, doc generators, test harnesses) that
// want to inspect the generated API without parsing C. This is the
// generator's one Go-emission surface, and the only place jennifer and
// x/tools/imports are exercised (every other artifact is plain C text).
func renderManifest(pkgName string, cfg *Config, root *ir.Root) ([]byte, error) {
	f := jen.NewFile(pkgName)
	f.HeaderComment("Code generated by sqlgen. DO NOT EDIT.")

	f.Type().Id("Query").Struct(
		jen.Id("Name").String(),
		jen.Id("Group").String(),
		jen.Id("Type").String(),
		jen.Id("Table").String(),
		jen.Id("SQL").String(),
		jen.Id("Private").Bool(),
	)

	var entries []jen.Code
	for _, ref := range allQueryRefs(root) {
		q := ref.Query
		sql := q.Stmt.Text(root.Source)
		if !q.HasStmt {
			sql = sqltemplate.Render(root.Source, q)
		}
		group := ""
		if ref.Group != nil {
			group = ref.Group.Name.Text(root.Source)
		}
		entries = append(entries, jen.Values(jen.Dict{
			jen.Id("Name"):    jen.Lit(q.Name.Text(root.Source)),
			jen.Id("Group"):   jen.Lit(group),
			jen.Id("Type"):    jen.Lit(q.Type.String()),
			jen.Id("Table"):   jen.Lit(q.TableName.Text(root.Source)),
			jen.Id("SQL"):     jen.Lit(sql),
			jen.Id("Private"): jen.Lit(q.Private),
		}))
	}

	f.Var().Id("Queries").Op("=").Index().Id("Query").Values(entries...)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	formatted, err := imports.Process(cfg.ManifestPath, buf.Bytes(), nil)
	if err != nil {
		return buf.Bytes(), err
	}
	return formatted, nil
}
