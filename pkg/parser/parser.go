package parser

import (
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"

	"github.com/pseudomuto/dbtemplate/pkg/ast"
)

// lookahead bounds how far an ordered choice may advance before it is
// committed, e.g. over `@a := @b :=` prefixes or a partial dependency
// directive.
const lookahead = 16

var (
	elided = participle.Elide("Whitespace", "Comment", "MultilineComment")

	// keywordTokens match grammar keywords in any case. The header and
	// trailer states scan CREATE and TABLE under their own token names.
	keywordTokens = participle.CaseInsensitive("Keyword", "HeaderKeyword", "CreateKeyword")

	templateParser = participle.MustBuild[document](
		participle.Lexer(templateLexer),
		elided,
		keywordTokens,
		participle.UseLookahead(lookahead),
	)

	statementParser = participle.MustBuild[statement](
		participle.Lexer(expressionLexer),
		elided,
		keywordTokens,
		participle.UseLookahead(lookahead),
	)

	expressionParser = participle.MustBuild[expression](
		participle.Lexer(expressionLexer),
		elided,
		keywordTokens,
		participle.UseLookahead(lookahead),
	)

	directiveParser = participle.MustBuild[directiveBody](
		participle.Lexer(expressionLexer),
		elided,
		keywordTokens,
		participle.UseLookahead(lookahead),
	)

	nameParser = participle.MustBuild[qualifiedName](
		participle.Lexer(nameLexer),
		participle.Elide("Whitespace"),
	)

	defaultParser = New()
)

type (
	// Parser turns template text into an *ast.Document. A Parser holds only
	// configuration and may be shared between goroutines.
	Parser struct {
		filename string
		logger   *slog.Logger
		strict   bool
	}

	// Option configures a Parser.
	Option func(*Parser)
)

// WithFilename sets the name reported in error positions.
func WithFilename(name string) Option {
	return func(p *Parser) { p.filename = name }
}

// WithLogger attaches a logger. Each parse emits Debug records only.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithStrictDependencies runs Validate on every successfully parsed document.
func WithStrictDependencies() Option {
	return func(p *Parser) { p.strict = true }
}

// New returns a Parser configured by opts. Without WithLogger nothing is
// logged.
func New(opts ...Option) *Parser {
	p := &Parser{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads a whole template from r and parses it.
func (p *Parser) Parse(r io.Reader) (*ast.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read template")
	}

	return p.ParseString(string(src))
}

// ParseString parses a whole template. It returns either the complete
// document or the first error found, scanning left to right; an error is
// always an *Error unless reading the input failed.
//
//	doc, err := parser.New(parser.WithFilename("shop.sql")).ParseString(`
//	    CREATE TABLE users (id INT {{ rownum }});
//	    {{ FOR EACH ROW OF users GENERATE 3 ROWS OF orders }}
//	    CREATE TABLE orders (id INT {{ subrownum }});
//	`)
//	if err != nil {
//	    return err
//	}
//	dep := doc.Dependency(0) // users -> orders
func (p *Parser) ParseString(src string) (*ast.Document, error) {
	start := time.Now()

	doc, err := p.parse(src)
	if err != nil {
		attrs := []any{"filename", p.filename, "error", err}
		var perr *Error
		if errors.As(err, &perr) {
			attrs = append(attrs, "kind", perr.Kind.String(), "offset", perr.Pos.Offset)
		}
		p.logger.Debug("Rejected template", attrs...)
		return nil, err
	}

	directives := len(doc.Leading) + len(doc.Dependencies)
	for _, t := range doc.Tables {
		directives += len(t.Directives())
	}
	p.logger.Debug("Parsed template",
		"filename", p.filename,
		"tables", len(doc.Tables),
		"directives", directives,
		"duration", time.Since(start),
	)

	return doc, nil
}

func (p *Parser) parse(src string) (*ast.Document, error) {
	if blankText.MatchString(src) {
		return nil, newError(StructuralError, lexer.Position{Filename: p.filename, Line: 1, Column: 1}, "document", "template defines no tables")
	}

	tree, err := templateParser.ParseString(p.filename, src)
	if err != nil {
		return nil, diagnose(templateLexer, p.filename, src, "document", err)
	}

	b := &builder{}
	doc := b.document(tree)
	if b.err != nil {
		return nil, b.err
	}

	if p.strict {
		if err := Validate(doc); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// Parse parses a template read from r with default options.
func Parse(r io.Reader) (*ast.Document, error) {
	return defaultParser.Parse(r)
}

// ParseString parses a template with default options.
func ParseString(src string) (*ast.Document, error) {
	return defaultParser.ParseString(src)
}

// ParseStatement parses directive content without its delimiters, e.g.
// `@a := 1; @a + 1`.
func ParseStatement(src string) (ast.Statement, error) {
	tree, err := statementParser.ParseString("", src)
	if err != nil {
		return ast.Statement{}, diagnose(expressionLexer, "", src, "statement", err)
	}

	b := &builder{}
	stmt := b.statement(tree)
	if b.err != nil {
		return ast.Statement{}, b.err
	}
	return stmt, nil
}

// ParseExpression parses a single expression.
func ParseExpression(src string) (ast.Expression, error) {
	tree, err := expressionParser.ParseString("", src)
	if err != nil {
		return nil, diagnose(expressionLexer, "", src, "expression", err)
	}

	b := &builder{}
	expr := b.expression(tree)
	if b.err != nil {
		return nil, b.err
	}
	return expr, nil
}

// ParseQualifiedName parses a dotted name of one to three identifiers, as in
// `schema`.users or "a"."b"."c".
func ParseQualifiedName(src string) (ast.QualifiedName, error) {
	tree, err := nameParser.ParseString("", src)
	if err != nil {
		return ast.QualifiedName{}, diagnose(nameLexer, "", src, "qualified name", err)
	}

	return (&builder{}).qualifiedName(tree), nil
}
