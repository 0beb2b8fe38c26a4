// Package lexer implements the hand-written tokenizer described in
// spec.md §4.1: block/line comments, doxygen blocks, string and integer
// literals, directive keywords, bareword keywords, labels, and
// single-byte punctuation passthrough.
package lexer

import (
	"fmt"

	"github.com/syssam/sqlgen/internal/source"
	"github.com/syssam/sqlgen/internal/token"
)

// Error is a lexical error: an unterminated string literal or block
// comment/doxygen block, reported with the byte span that was being
// scanned when the error was detected.
type Error struct {
	Msg  string
	Span source.Span
}

func (e *Error) Error() string { return e.Msg }

// Lexer scans a Source into a stream of Tokens, one call to Next at a
// time. It holds no lookahead buffer; the parser drives it directly.
type Lexer struct {
	src  *source.Source
	head int
}

// New returns a Lexer positioned at the start of src.
func New(src *source.Source) *Lexer {
	return &Lexer{src: src}
}

func (l *Lexer) byteAt(i int) byte {
	if i < 0 || i >= len(l.src.Data) {
		return 0
	}
	return l.src.Data[i]
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isBlank(b byte) bool { return b == ' ' || b == '\t' }

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isAlnum(b byte) bool { return isAlpha(b) || isDigit(b) }

// hasPrefixAt reports whether src.Data[pos:] begins with lit.
func (l *Lexer) hasPrefixAt(pos int, lit string) bool {
	if pos+len(lit) > len(l.src.Data) {
		return false
	}
	return string(l.src.Data[pos:pos+len(lit)]) == lit
}

// scanBlockComment consumes a `/* ... */` body (the opening `/*` has
// already been consumed by the caller) up to and including the closing
// `*/`. Returns an error if the source ends first.
func (l *Lexer) scanBlockComment() error {
	for l.head < len(l.src.Data) {
		if l.byteAt(l.head) == '*' && l.byteAt(l.head+1) == '/' {
			l.head += 2
			return nil
		}
		l.head++
	}
	return &Error{Msg: "unterminated block comment", Span: source.Span{Offset: l.head, Length: 0}}
}

func (l *Lexer) scanLineComment() {
	for l.head < len(l.src.Data) {
		if l.src.Data[l.head] == '\n' {
			l.head++
			return
		}
		l.head++
	}
}

// barewordKeywordPrefixes mirrors the original lexer's literal (non-word-
// boundary) prefix match for bareword keywords: a label that merely begins
// with one of these strings is cut short. This is a faithful
// reproduction of sqlgen.c's scan_next_token, not a bug fix.
var barewordKeywordPrefixes = []struct {
	text string
	kind token.Kind
}{
	{"type", token.TYPE},
	{"table", token.TABLE},
	{"stmt", token.STMT},
	{"bind", token.BIND},
	{"callback", token.CALLBACK},
	{"return", token.RETURN},
}

// Next scans and returns the next token, or an error on a lexical
// failure (unterminated string or comment/doxygen block).
func (l *Lexer) Next() (token.Token, error) {
	for l.head < len(l.src.Data) {
		b := l.byteAt(l.head)

		if b == '/' && l.byteAt(l.head+1) == '*' && l.byteAt(l.head+2) == '!' {
			for l.head > 0 && isBlank(l.byteAt(l.head-1)) {
				l.head--
			}
			start := l.head
			l.head += 3
			if err := l.scanBlockComment(); err != nil {
				return token.Token{Kind: token.ERROR}, err
			}
			return token.Token{Kind: token.DOXYGEN, Span: source.Span{Offset: start, Length: l.head - start}}, nil
		}
		if b == '/' && l.byteAt(l.head+1) == '*' {
			l.head += 2
			if err := l.scanBlockComment(); err != nil {
				return token.Token{Kind: token.ERROR}, err
			}
			continue
		}
		if b == '/' && l.byteAt(l.head+1) == '/' {
			l.head += 2
			l.scanLineComment()
			continue
		}
		if isSpace(b) {
			l.head++
			continue
		}
		if b == '"' {
			start := l.head + 1
			l.head++
			for l.head < len(l.src.Data) && l.src.Data[l.head] != '"' {
				l.head++
			}
			if l.head >= len(l.src.Data) {
				return token.Token{Kind: token.ERROR}, &Error{
					Msg:  "unterminated string literal",
					Span: source.Span{Offset: start, Length: l.head - start},
				}
			}
			span := source.Span{Offset: start, Length: l.head - start}
			l.head++
			return token.Token{Kind: token.STRING, Span: span}, nil
		}
		tokStart := l.head
		if matched, kind, ok := l.matchDirective(); ok {
			_ = matched
			return token.Token{Kind: kind, Span: source.Span{Offset: tokStart, Length: 0}}, nil
		}
		if kind, ok := l.matchBareword(); ok {
			return token.Token{Kind: kind, Span: source.Span{Offset: tokStart, Length: 0}}, nil
		}
		if isAlpha(b) || b == '_' {
			start := l.head
			l.head++
			for l.head < len(l.src.Data) {
				c := l.src.Data[l.head]
				if isAlnum(c) || c == '-' || c == '_' || c == '*' {
					l.head++
					continue
				}
				break
			}
			return token.Token{Kind: token.LABEL, Span: source.Span{Offset: start, Length: l.head - start}}, nil
		}
		if isDigit(b) {
			start := l.head
			l.head++
			for l.head < len(l.src.Data) && isDigit(l.src.Data[l.head]) {
				l.head++
			}
			return token.Token{Kind: token.INTEGER, Span: source.Span{Offset: start, Length: l.head - start}}, nil
		}

		l.head++
		return token.Token{Kind: token.Kind(b), Span: source.Span{Offset: l.head - 1, Length: 1}}, nil
	}
	return token.Token{Kind: token.END}, nil
}

func (l *Lexer) matchDirective() (string, token.Kind, bool) {
	for _, d := range token.Directives() {
		if l.hasPrefixAt(l.head, d.Text) {
			l.head += len(d.Text)
			return d.Text, d.Kind, true
		}
	}
	return "", 0, false
}

func (l *Lexer) matchBareword() (token.Kind, bool) {
	for _, bw := range barewordKeywordPrefixes {
		if l.hasPrefixAt(l.head, bw.text) {
			l.head += len(bw.text)
			return bw.kind, true
		}
	}
	return 0, false
}

// ScanBlock scans a brace-delimited block (spec.md §4.1's secondary
// operation). If consumeOpenBrace is true it first requires and consumes a
// leading `{`; otherwise it assumes the `{` has already been consumed by
// the caller (as happens after `stmt` has already seen a non-LABEL token
// while peeking). It returns a STRING token whose span is the block body
// with leading/trailing whitespace trimmed, tracking brace depth so
// nested `{ }` inside the block body do not end it early.
func (l *Lexer) ScanBlock(consumeOpenBrace bool) (token.Token, error) {
	if consumeOpenBrace {
		tok, err := l.Next()
		if err != nil {
			return token.Token{Kind: token.ERROR}, err
		}
		if tok.Kind != token.Kind('{') {
			return token.Token{Kind: token.ERROR}, &Error{
				Msg:  fmt.Sprintf("expected '{' to begin block, got %s", tok.Kind),
				Span: tok.Span,
			}
		}
	}
	for l.head < len(l.src.Data) && isSpace(l.src.Data[l.head]) {
		l.head++
	}
	depth := 1
	start := l.head
	for l.head < len(l.src.Data) {
		switch l.src.Data[l.head] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				end := l.head
				l.head++
				return token.Token{Kind: token.STRING, Span: trimSpan(l.src, source.Span{Offset: start, Length: end - start})}, nil
			}
		}
		l.head++
	}
	return token.Token{Kind: token.ERROR}, &Error{
		Msg:  "unterminated block: missing closing '}'",
		Span: source.Span{Offset: start, Length: l.head - start},
	}
}

func trimSpan(src *source.Source, sp source.Span) source.Span {
	start, end := sp.Offset, sp.Offset+sp.Length
	for start < end && isSpace(src.Data[start]) {
		start++
	}
	for end > start && isSpace(src.Data[end-1]) {
		end--
	}
	return source.Span{Offset: start, Length: end - start}
}

// Pos returns the lexer's current byte offset, used by the parser to
// anchor diagnostics at the token it just consumed.
func (l *Lexer) Pos() source.Pos { return source.Pos{Offset: l.head} }
