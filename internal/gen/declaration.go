package gen

import (
	"fmt"
	"strings"

	"github.com/syssam/sqlgen/internal/ir"
)

// renderDeclaration renders the header/declaration stream: include guard,
// header preamble/postamble, a forward declaration of the opaque context
// struct, the %s_interface record of function pointers (open/close/
// version/upgrade/reinit/migrate_to, then every query and function, then
// one nested record per group), and the three custom_*_decl-gated module
// entry points (spec.md §4.5). A %private-query's pointer field is omitted
// here only — its implementation is still emitted and still callable from
// within the generated source file (SPEC_FULL.md §10, resolving spec.md's
// open question on this point).
func renderDeclaration(cfg *Config, root *ir.Root) []byte {
	var b strings.Builder
	guard := strings.ToUpper(cfg.HeaderName) + "_H"
	prefix := root.Options.Prefix
	fmt.Fprintf(&b, "#ifndef %s\n#define %s\n\n", guard, guard)
	b.WriteString("#include <stdint.h>\n#include <sqlite3.h>\n\n")

	if root.Options.HeaderPreamble.Length > 0 {
		b.WriteString(root.Options.HeaderPreamble.Text(root.Source))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "struct %s;\n", prefix)
	fmt.Fprintf(&b, "struct %s_interface\n{\n", prefix)

	writeHardcodedInterfaceFields(&b, prefix)

	for _, ref := range allQueryRefs(root) {
		if ref.Group != nil || ref.Query.Private {
			continue
		}
		writeInterfaceQueryField(&b, root, ref, "    ")
	}
	for _, ref := range allFunctionRefs(root) {
		if ref.Group != nil || ref.Fn.Private {
			continue
		}
		fmt.Fprintf(&b, "    int (*%s)(%s);\n", funcName(root.Source, nil, ref.Fn.Name),
			fnParamListWithCtx(root.Source, prefix, ref.Fn))
	}
	b.WriteString("\n")

	for _, g := range root.Groups {
		fmt.Fprintf(&b, "    struct\n    {\n")
		for _, q := range g.Queries {
			if q.Private {
				continue
			}
			writeInterfaceQueryField(&b, root, queryRef{Group: g, Query: q}, "        ")
		}
		for _, fn := range g.Functions {
			if fn.Private {
				continue
			}
			fmt.Fprintf(&b, "        int (*%s)(%s);\n", funcName(root.Source, g, fn.Name),
				fnParamListWithCtx(root.Source, prefix, fn))
		}
		fmt.Fprintf(&b, "    } %s;\n\n", g.Name.Text(root.Source))
	}

	b.WriteString("};\n\n")

	if !root.Options.CustomInitDecl {
		fmt.Fprintf(&b, "int %s_init(void);\n", prefix)
	}
	if !root.Options.CustomDeinitDecl {
		fmt.Fprintf(&b, "void %s_deinit(void);\n", prefix)
	}
	if !root.Options.CustomAPIDecl {
		fmt.Fprintf(&b, "struct %s_interface* %s(const char* backend);\n", prefix, prefix)
	}

	if root.Options.HeaderPostamble.Length > 0 {
		b.WriteString("\n")
		b.WriteString(root.Options.HeaderPostamble.Text(root.Source))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n#endif /* %s */\n", guard)
	return []byte(b.String())
}

// writeHardcodedInterfaceFields emits the six connection-lifecycle function
// pointers every %s_interface carries regardless of the spec file's query
// list (spec.md §4.5, grounded on sqlgen.c's gen_header hardcoded block).
func writeHardcodedInterfaceFields(b *strings.Builder, prefix string) {
	fmt.Fprintf(b, "    /* Opens a database connection; must be closed again after use. */\n")
	fmt.Fprintf(b, "    struct %s* (*open)(const char* uri);\n", prefix)
	b.WriteString("    /* Closes a connection returned from open(). */\n")
	fmt.Fprintf(b, "    void (*close)(struct %s* ctx);\n", prefix)
	b.WriteString("    /* A new, empty database has version 0. */\n")
	fmt.Fprintf(b, "    int (*version)(struct %s* ctx);\n", prefix)
	fmt.Fprintf(b, "    int (*upgrade)(struct %s* ctx);\n", prefix)
	b.WriteString("    /* Fully downgrades then re-upgrades; wipes all data. */\n")
	fmt.Fprintf(b, "    int (*reinit)(struct %s* ctx);\n", prefix)
	fmt.Fprintf(b, "    int (*migrate_to)(struct %s* ctx, int target_version);\n\n", prefix)
}

func writeInterfaceQueryField(b *strings.Builder, root *ir.Root, ref queryRef, indent string) {
	if ref.Query.Doxygen.Length > 0 {
		b.WriteString(indentBlock(ref.Query.Doxygen.Text(root.Source), indent))
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "%s%s;\n", indent, interfaceFieldDecl(root.Source, root.Options.Prefix, nil, ref.Query))
}

func indentBlock(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = indent + l
	}
	return strings.Join(lines, "\n")
}
