// Package ir is the in-memory intermediate representation the parser
// builds and the normalizer/emitter consume (spec.md §3). Every entity is
// owned by a Root, appended to order-preserving slices; normalization
// fills in one derived field (Query.BindArgs, spec.md §4.3) and nothing is
// mutated after it.
package ir

import "github.com/syssam/sqlgen/internal/source"

// QueryType is the closed sum type of query shapes (spec.md §3, §4.4).
type QueryType int

const (
	Insert QueryType = iota
	Update
	Upsert
	Delete
	Exists
	SelectFirst
	SelectAll
)

func (t QueryType) String() string {
	switch t {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Upsert:
		return "upsert"
	case Delete:
		return "delete"
	case Exists:
		return "exists"
	case SelectFirst:
		return "select-first"
	case SelectAll:
		return "select-all"
	default:
		return "unknown"
	}
}

// Arg is a parameter, bind argument, or callback argument (spec.md §3).
// The same struct shape serves all three lists on a Query; Update is only
// meaningful on a query's InArgs.
type Arg struct {
	Type     source.Span
	Name     source.Span
	Nullable bool
	Update   bool
}

// Migration is one %upgrade or %downgrade block (spec.md §3).
type Migration struct {
	Version int
	SQL     source.Span
}

// Query is one %query/%private-query declaration (spec.md §3).
type Query struct {
	Name       source.Span
	Doxygen    source.Span // zero Span if absent
	Private    bool        // true for %private-query (SPEC_FULL.md §10)
	Type       QueryType
	TypeSet    bool // whether a `type` directive was seen at all
	TableName  source.Span
	Stmt       source.Span // zero Span if no explicit stmt
	HasStmt    bool
	ReturnName source.Span
	HasReturn  bool
	InArgs     []Arg
	BindArgs   []Arg // defaults to InArgs by normalization (spec.md §4.3)
	CBArgs     []Arg
}

// Function is a %function free-form helper (spec.md §3).
type Function struct {
	Name    source.Span
	Args    []Arg
	Body    source.Span // verbatim, inlined into the implementation
	Private bool
}

// Group is a named namespace of queries and functions (spec.md §3).
type Group struct {
	Name      source.Span
	Queries   []*Query
	Functions []*Function
}

// Options holds the root-level option set (spec.md §3).
type Options struct {
	Prefix     string
	MallocName string
	FreeName   string
	LogDebug   string
	LogError   string
	LogSQLErr  string

	HeaderPreamble  source.Span
	HeaderPostamble source.Span
	SourceIncludes  source.Span
	SourcePreamble  source.Span
	SourcePostamble source.Span

	DebugLayer      bool
	CustomInit      bool
	CustomInitDecl  bool
	CustomDeinit    bool
	CustomDeinitDecl bool
	CustomAPI       bool
	CustomAPIDecl   bool
	NoForwardsCompat bool
}

// DefaultOptions returns the Options value with every documented default
// applied (spec.md §3, mirroring sqlgen.c's DEFAULT_* macros).
func DefaultOptions() Options {
	return Options{
		Prefix:     "sqlgen",
		MallocName: "malloc",
		FreeName:   "free",
		LogDebug:   "printf",
		LogError:   "printf",
		LogSQLErr:  "sqlgen_error",
	}
}

// Root is the whole parsed spec: the single entry point the normalizer
// extends and the emitter consumes (spec.md §3).
type Root struct {
	Source *source.Source

	Options Options

	Queries   []*Query
	Functions []*Function
	Groups    []*Group

	// Upgrades is ascending by Version; Downgrades is descending
	// (spec.md §3 Migration invariant), maintained by the parser as
	// entries are inserted (spec.md §4.2).
	Upgrades   []Migration
	Downgrades []Migration
}

// GroupByName returns the group named name, creating and appending it
// (preserving first-use order, spec.md §4.2 "Group attachment") if it does
// not already exist.
func (r *Root) GroupByName(name source.Span, src *source.Source) *Group {
	text := name.Text(src)
	for _, g := range r.Groups {
		if g.Name.Text(src) == text {
			return g
		}
	}
	g := &Group{Name: name}
	r.Groups = append(r.Groups, g)
	return g
}

// AllQueries returns every query in the root, top-level first then each
// group in declaration order — the enumeration order the emitter uses for
// the context struct's prepared-statement fields.
func (r *Root) AllQueries() []*Query {
	out := make([]*Query, 0, len(r.Queries))
	out = append(out, r.Queries...)
	for _, g := range r.Groups {
		out = append(out, g.Queries...)
	}
	return out
}

// AllFunctions returns every free function, top-level first then grouped,
// in declaration order.
func (r *Root) AllFunctions() []*Function {
	out := make([]*Function, 0, len(r.Functions))
	out = append(out, r.Functions...)
	for _, g := range r.Groups {
		out = append(out, g.Functions...)
	}
	return out
}
