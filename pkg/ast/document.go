package ast

import (
	"github.com/pseudomuto/dbtemplate/pkg/compare"
)

// DirectiveStyle records which delimiters surrounded a directive.
type DirectiveStyle int

const (
	// BraceStyle is {{ ... }}.
	BraceStyle DirectiveStyle = iota
	// CommentStyle is /*{{ ... }}*/, which tools that strip SQL comments ignore.
	CommentStyle
)

// Position is a location in the template source. Offset is in bytes; Line and
// Column are 1-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

type (
	// Statement is a non-empty, semicolon-separated sequence of expressions.
	// It is the content of an expression directive and the result of a CASE
	// arm.
	Statement struct {
		Exprs []Expression
	}

	// Directive is implemented by ExpressionDirective and DependencyDirective.
	Directive interface {
		directiveNode()
		Equal(other Directive) bool
	}

	// ExpressionDirective evaluates a statement. Leading directives run once
	// per template; body directives run once per generated row.
	ExpressionDirective struct {
		Statement Statement
		Style     DirectiveStyle
		Pos       Position
	}

	// DependencyDirective requests Count rows of To for every row of From:
	//
	//	FOR EACH ROW OF from GENERATE count ROWS OF to
	DependencyDirective struct {
		From  QualifiedName
		Count Expression
		To    QualifiedName
		Style DirectiveStyle
		Pos   Position
	}

	// BodyItem is one element of a table body: Identifier, Comma, LiteralText
	// or DirectiveSpan.
	BodyItem interface {
		bodyItem()
	}

	// Comma is a top-level comma in a table body.
	Comma struct{}

	// LiteralText is SQL text passed through unchanged.
	LiteralText struct {
		Text string
	}

	// DirectiveSpan is a directive embedded in a table body.
	DirectiveSpan struct {
		Directive Directive
	}

	// TableDef is one CREATE TABLE statement. Trailing holds the text between
	// the closing parenthesis and whatever follows the statement. Separator
	// holds the whitespace and comments between the dependency directive after
	// the table and the next table.
	TableDef struct {
		Name      QualifiedName
		Body      []BodyItem
		Trailing  string
		Separator string
		Pos       Position
	}

	// Document is a parsed template. Dependencies maps the index i of the gap
	// between Tables[i] and Tables[i+1] to the dependency directive found
	// there; gaps without a directive have no entry.
	Document struct {
		Leading      []Directive
		Tables       []*TableDef
		Dependencies map[int]*DependencyDirective
	}
)

func (*ExpressionDirective) directiveNode() {}
func (*DependencyDirective) directiveNode() {}

func (Identifier) bodyItem()    {}
func (Comma) bodyItem()         {}
func (LiteralText) bodyItem()   {}
func (DirectiveSpan) bodyItem() {}

// Equal reports whether both statements hold equal expressions.
func (s Statement) Equal(other Statement) bool {
	return equalExpressionSlices(s.Exprs, other.Exprs)
}

// Equal compares statements and ignores style and position.
func (d *ExpressionDirective) Equal(other Directive) bool {
	o, ok := other.(*ExpressionDirective)
	if eq, more := compare.NilCheck(d, o); !ok || !more {
		return ok && eq
	}
	return d.Statement.Equal(o.Statement)
}

// Equal compares tables and row counts and ignores style and position.
func (d *DependencyDirective) Equal(other Directive) bool {
	o, ok := other.(*DependencyDirective)
	if eq, more := compare.NilCheck(d, o); !ok || !more {
		return ok && eq
	}
	return d.From.Equal(o.From) && d.To.Equal(o.To) && EqualExpressions(d.Count, o.Count)
}

// EqualDirectives compares two possibly nil directives.
func EqualDirectives(a, b Directive) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// EqualBodyItems compares two body items.
func EqualBodyItems(a, b BodyItem) bool {
	switch x := a.(type) {
	case Identifier:
		y, ok := b.(Identifier)
		return ok && x.Equal(y)
	case Comma:
		_, ok := b.(Comma)
		return ok
	case LiteralText:
		y, ok := b.(LiteralText)
		return ok && x.Text == y.Text
	case DirectiveSpan:
		y, ok := b.(DirectiveSpan)
		return ok && EqualDirectives(x.Directive, y.Directive)
	default:
		return a == nil && b == nil
	}
}

// Directives returns the directives embedded in the table body, in order.
func (t *TableDef) Directives() []Directive {
	var out []Directive
	for _, item := range t.Body {
		if span, ok := item.(DirectiveSpan); ok {
			out = append(out, span.Directive)
		}
	}
	return out
}

// Equal compares name, body and trailing text. Position and Separator are
// layout and are ignored.
func (t *TableDef) Equal(other *TableDef) bool {
	if eq, more := compare.NilCheck(t, other); !more {
		return eq
	}
	return t.Name.Equal(other.Name) &&
		t.Trailing == other.Trailing &&
		compare.Slices(t.Body, other.Body, EqualBodyItems)
}

// Dependency returns the dependency directive between Tables[gap] and
// Tables[gap+1], or nil.
func (d *Document) Dependency(gap int) *DependencyDirective {
	return d.Dependencies[gap]
}

// Table returns the table whose name matches name, or nil.
func (d *Document) Table(name QualifiedName) *TableDef {
	for _, t := range d.Tables {
		if t.Name.Matches(name) {
			return t
		}
	}
	return nil
}

// Equal compares both documents structurally.
func (d *Document) Equal(other *Document) bool {
	if eq, more := compare.NilCheck(d, other); !more {
		return eq
	}
	return compare.Slices(d.Leading, other.Leading, EqualDirectives) &&
		compare.Slices(d.Tables, other.Tables, func(a, b *TableDef) bool { return a.Equal(b) }) &&
		compare.MapsWithEqual(d.Dependencies, other.Dependencies, func(a, b *DependencyDirective) bool {
			return a.Equal(b)
		})
}
