// Package diag implements the generator's runtime error taxonomy
// (spec.md §7): usage errors, lexical errors, syntax errors, and I/O
// errors. Each is a typed error carrying the byte span the problem was
// found at, modeled on the teacher's errors.go (sentinel errors plus
// typed structs implementing errors.Is).
package diag

import (
	"errors"
	"fmt"

	"github.com/agext/levenshtein"

	"github.com/syssam/sqlgen/internal/source"
)

// Sentinel errors for errors.Is comparisons across the four taxonomies
// named in spec.md §7.
var (
	ErrUsage  = errors.New("sqlgen: usage error")
	ErrLex    = errors.New("sqlgen: lexical error")
	ErrSyntax = errors.New("sqlgen: syntax error")
	ErrIO     = errors.New("sqlgen: I/O error")
)

// Error is a single generator diagnostic: a message, an optional source
// span it points at, and which of the four taxonomies it belongs to.
type Error struct {
	Sentinel error
	Msg      string
	Src      *source.Source
	Span     source.Span
	HasSpan  bool
}

// Error implements the error interface, including the offending span's
// line/column and the literal source text it covers, per spec.md §7
// ("reported to stderr with a single message ... including the offending
// input span where applicable").
func (e *Error) Error() string {
	if !e.HasSpan || e.Src == nil {
		return e.Msg
	}
	line, col := source.Pos{Offset: e.Span.Offset}.LineCol(e.Src)
	text := e.Span.Text(e.Src)
	if text == "" {
		return fmt.Sprintf("%s (%s:%d:%d)", e.Msg, e.Src.Name, line, col)
	}
	return fmt.Sprintf("%s (%s:%d:%d: %q)", e.Msg, e.Src.Name, line, col, text)
}

// Is lets errors.Is(err, diag.ErrSyntax) etc. succeed.
func (e *Error) Is(target error) bool { return target == e.Sentinel }

// Usage reports a command-line usage error (spec.md §7). Usage errors
// never have a source span.
func Usage(format string, args ...any) error {
	return &Error{Sentinel: ErrUsage, Msg: fmt.Sprintf(format, args...)}
}

// Lex reports a lexical error at sp (spec.md §4.1, §7).
func Lex(src *source.Source, sp source.Span, format string, args ...any) error {
	return &Error{Sentinel: ErrLex, Msg: fmt.Sprintf(format, args...), Src: src, Span: sp, HasSpan: true}
}

// Syntax reports a syntax error at sp (spec.md §4.2, §7).
func Syntax(src *source.Source, sp source.Span, format string, args ...any) error {
	return &Error{Sentinel: ErrSyntax, Msg: fmt.Sprintf(format, args...), Src: src, Span: sp, HasSpan: true}
}

// IO reports a file mapping or write failure (spec.md §7).
func IO(format string, args ...any) error {
	return &Error{Sentinel: ErrIO, Msg: fmt.Sprintf(format, args...)}
}

// Suggest returns the closest candidate to word by Levenshtein distance,
// for "unknown option"/"unknown type" diagnostics, or "" if nothing is
// close enough to be worth suggesting. Used the same way HCL uses this
// library internally to rank diagnostic suggestions.
func Suggest(word string, candidates []string) string {
	best := ""
	bestDist := -1
	for _, c := range candidates {
		d := levenshtein.Distance(word, c, nil)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = c
		}
	}
	// Only suggest when the edit distance is small relative to the word;
	// otherwise the suggestion is noise.
	threshold := len(word)/2 + 1
	if bestDist < 0 || bestDist > threshold {
		return ""
	}
	return best
}

// WithSuggestion appends a "(did you mean %q?)" hint to msg when
// candidate is non-empty.
func WithSuggestion(msg, candidate string) string {
	if candidate == "" {
		return msg
	}
	return fmt.Sprintf("%s (did you mean %q?)", msg, candidate)
}
