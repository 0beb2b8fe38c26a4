// Package token enumerates the closed set of lexical token kinds the
// sqlgen grammar is built from.
package token

import "github.com/syssam/sqlgen/internal/source"

// Kind is the type tag of a Token. Values below 256 that are not one of the
// named constants represent single-byte punctuation tokens, passed through
// as their own byte value (spec.md §4.1).
type Kind int

const (
	ERROR Kind = -1
	END   Kind = 0
)

// Named token kinds, offset well clear of the single-byte punctuation
// range (0-255) that Kind also carries.
const (
	OPTION Kind = 256 + iota
	HEADER_PREAMBLE
	HEADER_POSTAMBLE
	SOURCE_INCLUDES
	SOURCE_PREAMBLE
	SOURCE_POSTAMBLE
	UPGRADE
	DOWNGRADE
	QUERY
	PRIVATE_QUERY
	FUNCTION
	TYPE
	TABLE
	STMT
	BIND
	CALLBACK
	RETURN
	LABEL
	STRING
	INTEGER
	DOXYGEN
)

var names = map[Kind]string{
	ERROR:            "ERROR",
	END:              "END",
	OPTION:           "%option",
	HEADER_PREAMBLE:  "%header-preamble",
	HEADER_POSTAMBLE: "%header-postamble",
	SOURCE_INCLUDES:  "%source-includes",
	SOURCE_PREAMBLE:  "%source-preamble",
	SOURCE_POSTAMBLE: "%source-postamble",
	UPGRADE:          "%upgrade",
	DOWNGRADE:        "%downgrade",
	QUERY:            "%query",
	PRIVATE_QUERY:    "%private-query",
	FUNCTION:         "%function",
	TYPE:             "type",
	TABLE:            "table",
	STMT:             "stmt",
	BIND:             "bind",
	CALLBACK:         "callback",
	RETURN:           "return",
	LABEL:            "LABEL",
	STRING:           "STRING",
	INTEGER:          "INTEGER",
	DOXYGEN:          "DOXYGEN",
}

// String renders a human-readable name for diagnostics.
func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	if k >= 0 && k < 256 {
		return string(rune(k))
	}
	return "<unknown token>"
}

// directiveKeywords maps the exact byte prefix of a `%`-led directive to
// its token kind (spec.md §4.1 rule 5). The lexer tries them in table
// order; no keyword is a prefix of another.
var directiveKeywords = []struct {
	text string
	kind Kind
}{
	{"%header-preamble", HEADER_PREAMBLE},
	{"%header-postamble", HEADER_POSTAMBLE},
	{"%source-includes", SOURCE_INCLUDES},
	{"%source-preamble", SOURCE_PREAMBLE},
	{"%source-postamble", SOURCE_POSTAMBLE},
	{"%private-query", PRIVATE_QUERY},
	{"%upgrade", UPGRADE},
	{"%downgrade", DOWNGRADE},
	{"%query", QUERY},
	{"%function", FUNCTION},
	{"%option", OPTION},
}

// Directives exposes the keyword table for the lexer.
func Directives() []struct {
	Text string
	Kind Kind
} {
	out := make([]struct {
		Text string
		Kind Kind
	}, len(directiveKeywords))
	for i, d := range directiveKeywords {
		out[i] = struct {
			Text string
			Kind Kind
		}{d.text, d.kind}
	}
	return out
}

// bareKeywords are unquoted barewords recognized before falling back to a
// general LABEL (spec.md §4.1 rule 6).
var bareKeywords = map[string]Kind{
	"type":     TYPE,
	"table":    TABLE,
	"stmt":     STMT,
	"bind":     BIND,
	"callback": CALLBACK,
	"return":   RETURN,
}

// LookupBareword returns the keyword kind for word, if any.
func LookupBareword(word string) (Kind, bool) {
	k, ok := bareKeywords[word]
	return k, ok
}

// Token is one lexical unit: a Kind plus the Span of source bytes it
// covers. STRING, LABEL, INTEGER, and DOXYGEN carry a meaningful span;
// other kinds may have a zero-length span pointing at the token's start.
type Token struct {
	Kind Kind
	Span source.Span
}
