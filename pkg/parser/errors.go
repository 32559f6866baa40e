package parser

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"

	"github.com/pseudomuto/dbtemplate/pkg/ast"
)

// ErrorKind classifies parse failures.
type ErrorKind int

const (
	// LexError reports text that cannot be split into tokens: an unterminated
	// quoted literal or bracketed identifier, or a malformed number.
	LexError ErrorKind = iota
	// SyntaxError reports an unexpected token, a missing keyword or operator,
	// or an unmatched parenthesis, bracket or brace.
	SyntaxError
	// StructuralError reports well-formed pieces in an invalid arrangement: a
	// dependency directive outside a gap between two tables, a template without
	// tables, or a CASE without END.
	StructuralError
)

var (
	// ErrLex matches every LexError with errors.Is.
	ErrLex = errors.New("lex error")
	// ErrSyntax matches every SyntaxError with errors.Is.
	ErrSyntax = errors.New("syntax error")
	// ErrStructural matches every StructuralError with errors.Is.
	ErrStructural = errors.New("structural error")
)

func (k ErrorKind) String() string {
	switch k {
	case LexError:
		return "lex"
	case SyntaxError:
		return "syntax"
	default:
		return "structural"
	}
}

// Error is the single error type returned by this package. Pos is the
// offending location; Production names the construct being parsed.
type Error struct {
	Kind       ErrorKind
	Filename   string
	Pos        ast.Position
	Production string
	Message    string
}

func (e *Error) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Pos.Line, e.Pos.Column)
	if e.Filename != "" {
		loc = e.Filename + ":" + loc
	}
	return fmt.Sprintf("%s: %s error in %s: %s", loc, e.Kind, e.Production, e.Message)
}

// Unwrap returns the sentinel for the error's kind.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case LexError:
		return ErrLex
	case SyntaxError:
		return ErrSyntax
	default:
		return ErrStructural
	}
}

func newError(kind ErrorKind, pos lexer.Position, production, format string, args ...any) *Error {
	return &Error{
		Kind:       kind,
		Filename:   pos.Filename,
		Pos:        position(pos),
		Production: production,
		Message:    fmt.Sprintf(format, args...),
	}
}

func position(pos lexer.Position) ast.Position {
	return ast.Position{Offset: pos.Offset, Line: pos.Line, Column: pos.Column}
}

// invalidToken explains an Invalid token by the character it starts with. A
// quote or bracket is only unterminated when its token runs to the end of src.
func invalidToken(tok lexer.Token, src, production string) *Error {
	if tok.EOF() || tok.Value == "" {
		return newError(SyntaxError, tok.Pos, production, "unexpected end of input")
	}

	open := tok.Pos.Offset+len(tok.Value) == len(src)
	switch c := tok.Value[0]; {
	case c == '\'' && open:
		return newError(LexError, tok.Pos, production, "unterminated string literal")
	case (c == '"' || c == '`') && open:
		return newError(LexError, tok.Pos, production, "unterminated quoted identifier")
	case c == '[' && open:
		return newError(LexError, tok.Pos, production, "unterminated bracketed identifier")
	case c == ')' || c == ']' || c == '}':
		return newError(SyntaxError, tok.Pos, production, "unmatched %q", c)
	default:
		return newError(SyntaxError, tok.Pos, production, "unexpected character %q", c)
	}
}

// rebase moves an error found in a slice of a larger text to its place in
// that text. base is the position where the slice starts.
func rebase(e *Error, base lexer.Position) *Error {
	pos := base.Add(lexer.Position{Offset: e.Pos.Offset, Line: e.Pos.Line, Column: e.Pos.Column})
	out := *e
	out.Filename = base.Filename
	out.Pos = position(pos)
	return &out
}
