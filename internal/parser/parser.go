// Package parser implements the recursive-descent grammar described in
// spec.md §4.2, driving internal/lexer to build an internal/ir.Root.
// Parsing is strict: the first syntactic mismatch produces one diagnostic
// and aborts (spec.md §4.2 "Error handling").
package parser

import (
	"strconv"

	"github.com/syssam/sqlgen/internal/diag"
	"github.com/syssam/sqlgen/internal/ir"
	"github.com/syssam/sqlgen/internal/lexer"
	"github.com/syssam/sqlgen/internal/source"
	"github.com/syssam/sqlgen/internal/token"
)

// Parser drives a lexer.Lexer to build an ir.Root.
type Parser struct {
	src *source.Source
	lx  *lexer.Lexer
	tok token.Token
}

// Parse parses src in full, returning the populated Root or the first
// diagnostic encountered.
func Parse(src *source.Source) (*ir.Root, error) {
	p := &Parser{src: src, lx: lexer.New(src)}
	root := &ir.Root{Source: src, Options: ir.DefaultOptions()}
	if err := p.advance(); err != nil {
		return nil, err
	}
	for {
		if p.tok.Kind == token.END {
			return root, nil
		}
		if err := p.topLevel(root); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) advance() error {
	tok, err := p.lx.Next()
	if err != nil {
		if le, ok := err.(*lexer.Error); ok {
			return diag.Lex(p.src, le.Span, "%s", le.Msg)
		}
		return diag.Lex(p.src, source.Span{}, "%s", err.Error())
	}
	p.tok = tok
	return nil
}

func (p *Parser) errf(format string, args ...any) error {
	return diag.Syntax(p.src, p.tok.Span, format, args...)
}

func (p *Parser) expect(k token.Kind, what string) (token.Token, error) {
	if p.tok.Kind != k {
		return token.Token{}, p.errf("expected %s, got %s", what, p.tok.Kind)
	}
	tok := p.tok
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return tok, nil
}

func (p *Parser) text(sp source.Span) string { return sp.Text(p.src) }

func (p *Parser) topLevel(root *ir.Root) error {
	switch p.tok.Kind {
	case token.DOXYGEN:
		// Ignored outside of a query body (spec.md §4.1 rule 1).
		return p.advance()

	case token.OPTION:
		return p.parseOption(root)

	case token.HEADER_PREAMBLE:
		return p.parseBlockOption(&root.Options.HeaderPreamble)
	case token.HEADER_POSTAMBLE:
		return p.parseBlockOption(&root.Options.HeaderPostamble)
	case token.SOURCE_INCLUDES:
		return p.parseBlockOption(&root.Options.SourceIncludes)
	case token.SOURCE_PREAMBLE:
		return p.parseBlockOption(&root.Options.SourcePreamble)
	case token.SOURCE_POSTAMBLE:
		return p.parseBlockOption(&root.Options.SourcePostamble)

	case token.UPGRADE, token.DOWNGRADE:
		return p.parseMigration(root)

	case token.QUERY, token.PRIVATE_QUERY:
		return p.parseQuery(root)

	case token.FUNCTION:
		return p.parseFunction(root)

	default:
		return p.errf("unexpected token %s at top level", p.tok.Kind)
	}
}

// recognizedFlagOptions are the valueless %option names (spec.md §6).
var recognizedFlagOptions = map[string]func(*ir.Options){
	"debug-layer":        func(o *ir.Options) { o.DebugLayer = true },
	"custom-init":        func(o *ir.Options) { o.CustomInit = true; o.CustomInitDecl = true },
	"custom-init-decl":   func(o *ir.Options) { o.CustomInitDecl = true },
	"custom-deinit":      func(o *ir.Options) { o.CustomDeinit = true; o.CustomDeinitDecl = true },
	"custom-deinit-decl": func(o *ir.Options) { o.CustomDeinitDecl = true },
	"custom-api":         func(o *ir.Options) { o.CustomAPI = true; o.CustomAPIDecl = true },
	"custom-api-decl":    func(o *ir.Options) { o.CustomAPIDecl = true },
	"no-forwards-compat": func(o *ir.Options) { o.NoForwardsCompat = true },
}

// recognizedValueOptions are the valued %option names (spec.md §6).
var recognizedValueOptions = map[string]func(*ir.Options, string){
	"prefix":        func(o *ir.Options, v string) { o.Prefix = v },
	"malloc":        func(o *ir.Options, v string) { o.MallocName = v },
	"free":          func(o *ir.Options, v string) { o.FreeName = v },
	"log-dbg":       func(o *ir.Options, v string) { o.LogDebug = v },
	"log-error":     func(o *ir.Options, v string) { o.LogError = v },
	"log-sql-error": func(o *ir.Options, v string) { o.LogSQLErr = v },
}

func allOptionNames() []string {
	out := make([]string, 0, len(recognizedFlagOptions)+len(recognizedValueOptions))
	for k := range recognizedFlagOptions {
		out = append(out, k)
	}
	for k := range recognizedValueOptions {
		out = append(out, k)
	}
	return out
}

func (p *Parser) parseOption(root *ir.Root) error {
	if err := p.advance(); err != nil { // consume %option
		return err
	}
	nameTok, err := p.expect(token.LABEL, "option name")
	if err != nil {
		return err
	}
	name := p.text(nameTok.Span)

	if set, ok := recognizedFlagOptions[name]; ok {
		set(&root.Options)
		return nil
	}

	set, ok := recognizedValueOptions[name]
	if !ok {
		return diag.Syntax(p.src, nameTok.Span, "%s", diag.WithSuggestion(
			"unknown option \""+name+"\"", diag.Suggest(name, allOptionNames())))
	}
	if _, err := p.expect(token.Kind('='), "'='"); err != nil {
		return err
	}
	strTok, err := p.expect(token.STRING, "string value")
	if err != nil {
		return err
	}
	set(&root.Options, p.text(strTok.Span))
	return nil
}

// scanBlockBody requires that p.tok already be the opening '{' (fetched by
// ordinary tokenization, which leaves the lexer head positioned right after
// it) and hands off to the lexer's raw brace-matching scan from there. The
// parser must never call p.advance() between confirming '{' and this call:
// that would already have tokenized past part of the block body, which may
// not be valid sqlgen-grammar tokens at all (it's verbatim C).
func (p *Parser) scanBlockBody(what string) (source.Span, error) {
	if p.tok.Kind != token.Kind('{') {
		return source.Span{}, p.errf("expected '{' to begin %s", what)
	}
	tok, err := p.lx.ScanBlock(false)
	if err != nil {
		if le, ok := err.(*lexer.Error); ok {
			return source.Span{}, diag.Syntax(p.src, le.Span, "%s", le.Msg)
		}
		return source.Span{}, err
	}
	return tok.Span, p.advance()
}

func (p *Parser) parseBlockOption(dst *source.Span) error {
	if err := p.advance(); err != nil {
		return err
	}
	sp, err := p.scanBlockBody("block")
	if err != nil {
		return err
	}
	*dst = sp
	return nil
}

func (p *Parser) parseInt(tok token.Token) (int, error) {
	n, err := strconv.Atoi(p.text(tok.Span))
	if err != nil {
		return 0, diag.Syntax(p.src, tok.Span, "invalid integer %q", p.text(tok.Span))
	}
	return n, nil
}

func (p *Parser) parseMigration(root *ir.Root) error {
	isUpgrade := p.tok.Kind == token.UPGRADE
	directive := "%downgrade"
	if isUpgrade {
		directive = "%upgrade"
	}
	if err := p.advance(); err != nil {
		return err
	}
	numTok, err := p.expect(token.INTEGER, "migration version number after "+directive)
	if err != nil {
		return err
	}
	version, err := p.parseInt(numTok)
	if err != nil {
		return err
	}

	sp, err := p.scanBlockBody("migration body for " + directive)
	if err != nil {
		return err
	}

	m := ir.Migration{Version: version, SQL: sp}
	if isUpgrade {
		root.Upgrades = insertSorted(root.Upgrades, m, func(a, b int) bool { return a < b })
	} else {
		root.Downgrades = insertSorted(root.Downgrades, m, func(a, b int) bool { return a > b })
	}
	return nil
}

// insertSorted inserts m into an already-sorted slice, keeping the order
// defined by less (ascending for upgrades, descending for downgrades,
// spec.md §3).
func insertSorted(list []ir.Migration, m ir.Migration, less func(a, b int) bool) []ir.Migration {
	i := 0
	for i < len(list) && less(list[i].Version, m.Version) {
		i++
	}
	list = append(list, ir.Migration{})
	copy(list[i+1:], list[i:])
	list[i] = m
	return list
}

// parseNameOrGroupName parses the "GROUP,NAME" or "NAME" prefix shared by
// %query, %private-query, and %function (spec.md §4.2 "Group attachment").
func (p *Parser) parseNameOrGroupName() (name, group source.Span, err error) {
	first, err := p.expect(token.LABEL, "label or group name")
	if err != nil {
		return source.Span{}, source.Span{}, err
	}
	name = first.Span
	switch p.tok.Kind {
	case token.Kind('('):
		return name, source.Span{}, nil
	case token.Kind(','):
		if err := p.advance(); err != nil {
			return source.Span{}, source.Span{}, err
		}
		second, err := p.expect(token.LABEL, "label after ','")
		if err != nil {
			return source.Span{}, source.Span{}, err
		}
		group = name
		name = second.Span
		if p.tok.Kind != token.Kind('(') {
			return source.Span{}, source.Span{}, p.errf("expected '(' after group-qualified name")
		}
		return name, group, nil
	default:
		return source.Span{}, source.Span{}, p.errf("expected '(' after name")
	}
}

// parseArgList parses `(` ( TYPE NAME [null] (, TYPE NAME [null])* )? `)`
// (spec.md §4.2 "Parameter list grammar"). allowNull controls whether a
// trailing "null" qualifier is accepted (callback/parameter lists do;
// free-function parameter lists, per sqlgen.c, do not parse one, though
// nothing stops the lexer from producing the LABEL — the original simply
// never checks for it there, so neither do we).
func (p *Parser) parseArgList(allowNull bool) ([]ir.Arg, error) {
	if err := p.advance(); err != nil { // consume '('
		return nil, err
	}
	var args []ir.Arg
	for {
		if p.tok.Kind == token.Kind(')') {
			return args, p.advance()
		}
		if p.tok.Kind == token.Kind(',') {
			if len(args) == 0 {
				return nil, p.errf("expected parameter after '('")
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if p.tok.Kind != token.LABEL {
			return nil, p.errf("expected parameter list")
		}
		arg, err := p.parseOneArg(allowNull)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
}

// parseOneArg parses TYPE NAME [null] (TYPE already matched as p.tok on
// entry, a LABEL). It consumes the "struct NAME"/"const NAME" extension
// (spec.md §4.2) and, if allowNull, an optional trailing "null".
func (p *Parser) parseOneArg(allowNull bool) (ir.Arg, error) {
	typeTok := p.tok
	typeSpan := typeTok.Span
	if err := p.advance(); err != nil {
		return ir.Arg{}, err
	}
	typeText := p.text(typeSpan)
	if typeText == "struct" || typeText == "const" {
		nameExt, err := p.expect(token.LABEL, "type name after \""+typeText+"\"")
		if err != nil {
			return ir.Arg{}, err
		}
		typeSpan = source.Span{Offset: typeSpan.Offset, Length: nameExt.Span.Offset + nameExt.Span.Length - typeSpan.Offset}
	}

	nameTok, err := p.expect(token.LABEL, "parameter name")
	if err != nil {
		return ir.Arg{}, err
	}
	arg := ir.Arg{Type: typeSpan, Name: nameTok.Span}

	if allowNull && p.tok.Kind == token.LABEL {
		if p.text(p.tok.Span) != "null" {
			return ir.Arg{}, p.errf("unknown parameter qualifier %q", p.text(p.tok.Span))
		}
		arg.Nullable = true
		if err := p.advance(); err != nil {
			return ir.Arg{}, err
		}
	}
	return arg, nil
}

func (p *Parser) parseQuery(root *ir.Root) error {
	private := p.tok.Kind == token.PRIVATE_QUERY
	if err := p.advance(); err != nil {
		return err
	}
	name, group, err := p.parseNameOrGroupName()
	if err != nil {
		return err
	}
	inArgs, err := p.parseArgList(true)
	if err != nil {
		return err
	}

	if _, err := p.expect(token.Kind('{'), "'{' to begin query body"); err != nil {
		return err
	}

	q := &ir.Query{Name: name, Private: private, InArgs: inArgs}

	for {
		switch p.tok.Kind {
		case token.DOXYGEN:
			q.Doxygen = p.tok.Span
			if err := p.advance(); err != nil {
				return err
			}
			continue

		case token.TYPE:
			if err := p.parseQueryType(q); err != nil {
				return err
			}
			continue

		case token.TABLE:
			if err := p.advance(); err != nil {
				return err
			}
			tok, err := p.expect(token.LABEL, "table name after \"table\"")
			if err != nil {
				return err
			}
			q.TableName = tok.Span
			continue

		case token.STMT:
			if err := p.parseStmt(q); err != nil {
				return err
			}
			continue

		case token.BIND:
			if err := p.parseBindArgs(q); err != nil {
				return err
			}
			continue

		case token.RETURN:
			if err := p.advance(); err != nil {
				return err
			}
			tok, err := p.expect(token.LABEL, "return column name")
			if err != nil {
				return err
			}
			q.ReturnName = tok.Span
			q.HasReturn = true
			continue

		case token.CALLBACK:
			if err := p.parseCallback(q); err != nil {
				return err
			}
			continue

		case token.Kind('}'):
			if err := p.advance(); err != nil {
				return err
			}
			goto done

		default:
			return p.errf("expecting \"type\", \"table\", \"stmt\", \"bind\", \"callback\", or \"return\"")
		}
	}
done:

	if group.Length > 0 {
		g := root.GroupByName(group, p.src)
		g.Queries = append(g.Queries, q)
	} else {
		root.Queries = append(root.Queries, q)
	}
	return nil
}

var queryTypeNames = map[string]ir.QueryType{
	"insert":       ir.Insert,
	"update":       ir.Update,
	"upsert":       ir.Upsert,
	"delete":       ir.Delete,
	"exists":       ir.Exists,
	"select-first": ir.SelectFirst,
	"select-all":   ir.SelectAll,
}

func (p *Parser) parseQueryType(q *ir.Query) error {
	if err := p.advance(); err != nil { // consume "type"
		return err
	}
	tok, err := p.expect(token.LABEL, "query type after \"type\"")
	if err != nil {
		return err
	}
	name := p.text(tok.Span)
	qt, ok := queryTypeNames[name]
	if !ok {
		names := make([]string, 0, len(queryTypeNames))
		for k := range queryTypeNames {
			names = append(names, k)
		}
		return diag.Syntax(p.src, tok.Span, "%s", diag.WithSuggestion(
			"unknown query type \""+name+"\"", diag.Suggest(name, names)))
	}
	q.Type = qt
	q.TypeSet = true

	if qt != ir.Update && qt != ir.Upsert {
		return nil
	}
	// `type update [col1, col2, ...]` / `type upsert [col1, col2, ...]`:
	// the column list is optional.
	if p.tok.Kind != token.LABEL {
		return nil
	}
	for {
		colTok, err := p.expect(token.LABEL, "column name after \""+name+"\"")
		if err != nil {
			return err
		}
		colName := p.text(colTok.Span)
		found := false
		for i := range q.InArgs {
			if p.text(q.InArgs[i].Name) == colName {
				q.InArgs[i].Update = true
				found = true
				break
			}
		}
		if !found {
			return diag.Syntax(p.src, colTok.Span,
				"\"%s %s\" specified, but no argument with this name exists in the query's parameter list",
				name, colName)
		}
		if p.tok.Kind != token.Kind(',') {
			return nil
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
}

func (p *Parser) parseStmt(q *ir.Query) error {
	if err := p.advance(); err != nil { // consume "stmt"
		return err
	}
	switch p.tok.Kind {
	case token.LABEL:
		q.Stmt = p.tok.Span
		q.HasStmt = true
		return p.advance()
	case token.Kind('{'):
		sp, err := p.scanBlockBody("query statement block")
		if err != nil {
			return err
		}
		q.Stmt = sp
		q.HasStmt = true
		return nil
	default:
		return p.errf("expected query statement after \"stmt\"")
	}
}

func (p *Parser) parseBindArgs(q *ir.Query) error {
	if err := p.advance(); err != nil { // consume "bind"
		return err
	}
	for {
		if p.tok.Kind == token.Kind(',') {
			if len(q.BindArgs) == 0 {
				return p.errf("expected parameter after \"bind\"")
			}
			if err := p.advance(); err != nil {
				return err
			}
		}
		if p.tok.Kind != token.LABEL {
			if len(q.BindArgs) == 0 {
				return p.errf("expected parameter after \"bind\"")
			}
			return nil
		}
		nameText := p.text(p.tok.Span)
		var resolved *ir.Arg
		for i := range q.InArgs {
			if p.text(q.InArgs[i].Name) == nameText {
				resolved = &q.InArgs[i]
				break
			}
		}
		if resolved == nil {
			return diag.Syntax(p.src, p.tok.Span,
				"bind argument \"%s\" does not exist in the query's parameter list", nameText)
		}
		q.BindArgs = append(q.BindArgs, ir.Arg{Type: resolved.Type, Name: resolved.Name, Nullable: resolved.Nullable})
		if err := p.advance(); err != nil {
			return err
		}
	}
}

func (p *Parser) parseCallback(q *ir.Query) error {
	if err := p.advance(); err != nil { // consume "callback"
		return err
	}
	for {
		if p.tok.Kind == token.Kind(',') {
			if len(q.CBArgs) == 0 {
				return p.errf("expected parameter after \"callback\"")
			}
			if err := p.advance(); err != nil {
				return err
			}
		}
		if p.tok.Kind != token.LABEL {
			if len(q.CBArgs) == 0 {
				return p.errf("expected parameter after \"callback\"")
			}
			return nil
		}
		arg, err := p.parseOneArg(true)
		if err != nil {
			return err
		}
		q.CBArgs = append(q.CBArgs, arg)
	}
}

func (p *Parser) parseFunction(root *ir.Root) error {
	if err := p.advance(); err != nil {
		return err
	}
	name, group, err := p.parseNameOrGroupName()
	if err != nil {
		return err
	}
	args, err := p.parseArgList(false)
	if err != nil {
		return err
	}
	sp, err := p.scanBlockBody("function body")
	if err != nil {
		return err
	}

	fn := &ir.Function{Name: name, Args: args, Body: sp}
	if group.Length > 0 {
		g := root.GroupByName(group, p.src)
		g.Functions = append(g.Functions, fn)
	} else {
		root.Functions = append(root.Functions, fn)
	}
	return nil
}
