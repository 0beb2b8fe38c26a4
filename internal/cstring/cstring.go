// Package cstring renders arbitrary text as a single-line, double-quoted C
// string literal body (spec.md §4.4 "literal stmt passthrough
// (whitespace-collapsed, quote-escaped)"), grounded on the whitespace
// collapse and quote-escape loop at the top of sqlgen.c's
// write_sqlite_prepare_stmt.
package cstring

import "strings"

// Literal collapses every run of whitespace (including embedded newlines,
// which the original preserved across a multi-line C string continuation
// purely for the cosmetic benefit of keeping generated source readable) into
// a single space, trims the ends, and escapes `"` and `\` so the result can
// be dropped verbatim between a pair of double quotes.
func Literal(s string) string {
	var collapsed strings.Builder
	inSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' {
			inSpace = true
			continue
		}
		if inSpace && collapsed.Len() > 0 {
			collapsed.WriteByte(' ')
		}
		inSpace = false
		collapsed.WriteRune(r)
	}

	var out strings.Builder
	out.Grow(collapsed.Len())
	for _, r := range collapsed.String() {
		switch r {
		case '"', '\\':
			out.WriteByte('\\')
		}
		out.WriteRune(r)
	}
	return out.String()
}
