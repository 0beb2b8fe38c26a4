// Package types describes the closed, fixed table of argument types the
// generator recognizes (spec.md §6). This plays the same role the
// teacher's schema/field package plays for its own closed set of
// recognized field types: a small value type naming, for each type, the
// backend bind/column routine family it drives and the sentinel used to
// detect a nullable argument's "null" value.
package types

// Family is the backend sqlite3_bind_/sqlite3_column_ routine family a
// recognized type maps to (spec.md §6 "Backend bind/column family").
type Family string

const (
	FamilyInt   Family = "int"
	FamilyInt64 Family = "int64"
	FamilyText  Family = "text"
)

// Info is the per-type row of spec.md §6's recognized-type table, carrying
// everything the emitter needs to bind an argument and read it back out of
// a result column.
type Info struct {
	// Spec is the exact spelling the parser matches against a parameter's
	// TYPE span, e.g. "int64_t" or "const char*".
	Spec string
	// Family selects sqlite3_bind_<Family> / sqlite3_column_<Family>.
	Family Family
	// BindCast, if non-empty, is the C cast applied to the value being
	// bound (e.g. uint32_t binds through an int cast).
	BindCast string
	// NullCmp is the C expression suffix, following the argument name,
	// that tests whether a nullable argument's value is the type's null
	// sentinel, e.g. "< 0" or "== (uint32_t)-1".
	NullCmp string
	// ColumnCast, if non-empty, is the C cast applied to a value read back
	// from a result column (used in row-callback dispatch).
	ColumnCast string
	// ColumnNullValue is the literal substituted for a NULL column value
	// when the callback argument is nullable, e.g. "(uint32_t)-1" or
	// "NULL".
	ColumnNullValue string
	// IsStrView marks struct str_view, whose bind call takes an extra
	// (len, STATIC) suffix instead of const char*'s (-1, STATIC).
	IsStrView bool
}

// table is the recognized-type table from spec.md §6, in declaration
// order. It is intentionally small and fixed: the generator does not
// perform type inference (spec.md §1 Non-goals). The parser does not check
// argument types against this table; the emitter binds and reads an
// argument whose TYPE is not in it through the int family.
var table = []Info{
	{Spec: "int", Family: FamilyInt, NullCmp: "< 0", ColumnNullValue: "-1"},
	{Spec: "int64_t", Family: FamilyInt64, NullCmp: "< 0", ColumnNullValue: "-1"},
	{Spec: "uint16_t", Family: FamilyInt, BindCast: "(int)", NullCmp: "== (uint16_t)-1", ColumnCast: "(uint16_t)", ColumnNullValue: "(uint16_t)-1"},
	{Spec: "uint32_t", Family: FamilyInt, BindCast: "(int)", NullCmp: "== (uint32_t)-1", ColumnCast: "(uint32_t)", ColumnNullValue: "(uint32_t)-1"},
	{Spec: "uint64_t", Family: FamilyInt64, BindCast: "(int64_t)", NullCmp: "== (uint64_t)-1", ColumnCast: "(uint64_t)", ColumnNullValue: "(uint64_t)-1"},
	{Spec: "const char*", Family: FamilyText, NullCmp: "== NULL", ColumnCast: "(const char*)", ColumnNullValue: "NULL"},
	{Spec: "struct str_view", Family: FamilyText, NullCmp: "== NULL", ColumnCast: "(const char*)", ColumnNullValue: "NULL", IsStrView: true},
}

// Lookup returns the Info for an exact spec type spelling.
func Lookup(spec string) (Info, bool) {
	for _, t := range table {
		if t.Spec == spec {
			return t, true
		}
	}
	return Info{}, false
}

// Names returns every recognized type spelling, in table order.
func Names() []string {
	out := make([]string, len(table))
	for i, t := range table {
		out[i] = t.Spec
	}
	return out
}
