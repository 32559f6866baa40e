package parser

import (
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"

	"github.com/pseudomuto/dbtemplate/pkg/ast"
)

var dependencyStart = regexp.MustCompile(`^(?:` + whitespace + `|` + lineComment + `|` + blockComment + `)*(?i:FOR)\b`)

type (
	// diagnosis replays the tokens of text the grammar rejected. The grammar
	// stops at the first token it cannot place, but a malformed number, a
	// CASE without END or a misplaced directive earlier in the text is
	// reported ahead of it.
	diagnosis struct {
		src     string
		names   map[lexer.TokenType]string
		limit   int
		context string
		placed  bool

		failure    *Error
		candidates []*Error

		tables int
		inBody bool
		gap    []gapDirective
	}

	gapDirective struct {
		pos        lexer.Position
		dependency bool
	}
)

// diagnose returns the first error in src, left to right, given the error the
// grammar stopped with. def must be the lexer the failed parse used.
func diagnose(def *lexer.StatefulDefinition, filename, src, production string, err error) error {
	var perr participle.Error
	if !errors.As(err, &perr) {
		return errors.Wrap(err, "failed to parse template")
	}

	lex, err := def.LexString(filename, src)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}

	d := &diagnosis{
		src:     src,
		names:   lexer.SymbolsByRune(def),
		limit:   perr.Position().Offset,
		context: production,
		failure: newError(SyntaxError, perr.Position(), production, "%s", perr.Message()),
	}
	d.walk(tokens)
	return d.first()
}

func (d *diagnosis) walk(tokens []lexer.Token) {
	for n := 0; n < len(tokens); n++ {
		tok := tokens[n]
		name := d.names[tok.Type]

		if tok.Pos.Offset >= d.limit && !d.placed {
			d.placed = true
			d.failure.Production = d.context
			if name == "Invalid" {
				d.failure = invalidToken(tok, d.src, d.context)
			}
		}
		if tok.Pos.Offset > d.limit {
			return
		}

		switch name {
		case "HeaderKeyword", "CreateKeyword":
			if strings.EqualFold(tok.Value, "CREATE") {
				d.tableStart()
			}
		case "BodyOpen":
			d.inBody = true
			d.context = "table body"
		case "BodyClose":
			d.inBody = false
			d.tables++
			d.gap = nil
			d.context = "table options"
		case "TrailerText":
			if len(d.gap) > 0 && !blankText.MatchString(tok.Value) {
				d.add(newError(SyntaxError, tok.Pos, "table options", "unexpected text after directive"))
			}
		case "Number":
			if !validNumber.MatchString(tok.Value) {
				d.add(newError(LexError, tok.Pos, "number", "invalid numeric literal %q", tok.Value))
			}
		case "DirectiveOpen", "CommentDirectiveOpen":
			closer := d.closer(tokens, n)
			if !d.directive(tokens, n, closer) || closer < 0 {
				return
			}
			n = closer
		}
	}
}

// closer returns the index of the token ending the directive opened at
// tokens[open], or -1 when it is never closed.
func (d *diagnosis) closer(tokens []lexer.Token, open int) int {
	for n := open + 1; n < len(tokens); n++ {
		switch d.names[tokens[n].Type] {
		case "DirectiveClose", "CommentDirectiveClose":
			return n
		}
	}
	return -1
}

// directive parses one directive on its own and checks where it sits. It
// reports false once the directive holding the grammar failure is done.
func (d *diagnosis) directive(tokens []lexer.Token, open, closer int) bool {
	start := tokens[open].Pos
	base := start
	base.Advance(tokens[open].Value)

	end := len(d.src)
	if closer >= 0 {
		end = tokens[closer].Pos.Offset
	}
	holdsFailure := closer < 0 || end >= d.limit

	dir, err := parseDirective(d.src[base.Offset:end], base)
	if err != nil {
		if holdsFailure {
			d.failure = err
		} else {
			d.add(err)
		}
	}
	if holdsFailure {
		return false
	}

	if dir != nil {
		d.place(dir, start)
	}
	return true
}

func (d *diagnosis) place(dir ast.Directive, pos lexer.Position) {
	_, dependency := dir.(*ast.DependencyDirective)
	switch {
	case d.inBody:
		if dependency {
			d.add(newError(StructuralError, pos, "table body", "dependency directive inside a table body"))
		}
	case d.tables == 0:
		if dependency {
			d.add(newError(StructuralError, pos, "document", "dependency directive before the first table"))
		}
	default:
		d.gap = append(d.gap, gapDirective{pos: pos, dependency: dependency})
	}
}

func (d *diagnosis) tableStart() {
	d.context = "table"
	if d.tables == 0 {
		return
	}

	switch {
	case len(d.gap) > 1:
		d.add(newError(StructuralError, d.gap[1].pos, "document", "more than one directive between tables"))
	case len(d.gap) == 1 && !d.gap[0].dependency:
		d.add(newError(StructuralError, d.gap[0].pos, "document", "only a dependency directive may appear between tables"))
	}
	d.gap = nil
}

func (d *diagnosis) add(e *Error) {
	if e.Pos.Offset < d.limit {
		d.candidates = append(d.candidates, e)
	}
}

// first picks the earliest error. At the same offset a lex error wins over a
// syntax error, as a token has to exist before it can be misplaced.
func (d *diagnosis) first() *Error {
	out := d.failure
	for _, c := range d.candidates {
		if c.Pos.Offset < out.Pos.Offset ||
			(c.Pos.Offset == out.Pos.Offset && c.Kind == LexError && out.Kind == SyntaxError) {
			out = c
		}
	}
	return out
}

// parseDirective parses the content of a directive found at base.
func parseDirective(content string, base lexer.Position) (ast.Directive, *Error) {
	production := "directive"
	if dependencyStart.MatchString(content) {
		production = "dependency directive"
	}

	tree, err := directiveParser.ParseString("", content)
	if err != nil {
		var perr *Error
		if !errors.As(diagnose(expressionLexer, "", content, production, err), &perr) {
			return nil, nil
		}
		return nil, rebase(perr, base)
	}

	b := &builder{}
	dir := b.directiveBody(tree, ast.BraceStyle, lexer.Position{})
	if b.err != nil {
		return nil, rebase(b.err, base)
	}
	return dir, nil
}
