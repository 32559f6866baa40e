// Package format renders pkg/ast trees back into template text.
//
// It is the inverse of pkg/parser: literal body text and trailing table options
// are written byte for byte, identifiers and strings are re-quoted with their
// escapes restored, and expressions are written with the minimum parentheses
// needed to reparse into the same tree.
//
// Example usage:
//
//	doc, _ := parser.ParseString(src)
//	f := format.New(&format.FormatterOptions{
//		UppercaseKeywords: true,
//		DirectiveStyle:    format.CommentDirectives,
//	})
//	fmt.Println(f.Document(doc))
package format

import (
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/pseudomuto/dbtemplate/pkg/ast"
	"github.com/pseudomuto/dbtemplate/pkg/consts"
)

// DirectiveStyle selects the delimiters written around directives.
type DirectiveStyle string

const (
	// PreserveDirectives keeps the delimiters each directive was parsed with.
	PreserveDirectives DirectiveStyle = "preserve"
	// BraceDirectives writes {{ ... }}.
	BraceDirectives DirectiveStyle = "braces"
	// CommentDirectives writes /*{{ ... }}*/.
	CommentDirectives DirectiveStyle = "comment"
)

// ParseDirectiveStyle converts a configuration value into a DirectiveStyle.
func ParseDirectiveStyle(s string) (DirectiveStyle, error) {
	switch style := DirectiveStyle(strings.ToLower(strings.TrimSpace(s))); style {
	case PreserveDirectives, BraceDirectives, CommentDirectives:
		return style, nil
	case "":
		return DirectiveStyle(consts.DefaultDirectiveStyle), nil
	default:
		return "", errors.Errorf("unknown directive style %q", s)
	}
}

// FormatterOptions controls formatting behavior
type FormatterOptions struct {
	// UppercaseKeywords whether to uppercase template keywords
	UppercaseKeywords bool
	// DirectiveStyle chooses directive delimiters
	DirectiveStyle DirectiveStyle
}

// Defaults are the options used by NewDefault.
var Defaults = DefaultOptions()

// DefaultOptions returns standard formatting options
func DefaultOptions() *FormatterOptions {
	return &FormatterOptions{
		UppercaseKeywords: consts.DefaultUppercaseKeywords,
		DirectiveStyle:    DirectiveStyle(consts.DefaultDirectiveStyle),
	}
}

// Formatter renders syntax trees with configurable options
type Formatter struct {
	options *FormatterOptions
}

// New creates a new Formatter with the specified options
func New(options *FormatterOptions) *Formatter {
	if options == nil {
		options = DefaultOptions()
	}
	return &Formatter{options: options}
}

// NewDefault creates a new Formatter with default options
func NewDefault() *Formatter {
	return New(DefaultOptions())
}

// Format writes doc to w.
func Format(w io.Writer, options *FormatterOptions, doc *ast.Document) error {
	if _, err := io.WriteString(w, New(options).Document(doc)); err != nil {
		return errors.Wrap(err, "failed to write template")
	}
	return nil
}

// Document renders a whole template. Leading directives are each written on
// their own line. A dependency directive between tables is followed by the
// table's Separator, or a newline when there is none.
func (f *Formatter) Document(doc *ast.Document) string {
	if doc == nil {
		return ""
	}

	var sb strings.Builder
	for _, d := range doc.Leading {
		sb.WriteString(f.Directive(d))
		sb.WriteString("\n")
	}

	for i, t := range doc.Tables {
		sb.WriteString(f.Table(t))
		if dep := doc.Dependency(i); dep != nil {
			sb.WriteString(f.Directive(dep))
			if t.Separator == "" {
				sb.WriteString("\n")
			}
			sb.WriteString(t.Separator)
		}
	}

	return sb.String()
}

// Table renders one CREATE TABLE statement followed by its trailing text.
func (f *Formatter) Table(t *ast.TableDef) string {
	var sb strings.Builder
	sb.WriteString(f.keyword("CREATE") + " " + f.keyword("TABLE") + " ")
	sb.WriteString(t.Name.String())
	sb.WriteString(" (")
	for _, item := range t.Body {
		switch v := item.(type) {
		case ast.Identifier:
			sb.WriteString(v.String())
		case ast.Comma:
			sb.WriteString(",")
		case ast.LiteralText:
			sb.WriteString(v.Text)
		case ast.DirectiveSpan:
			sb.WriteString(f.Directive(v.Directive))
		}
	}
	sb.WriteString(")")
	sb.WriteString(t.Trailing)
	return sb.String()
}

// Directive renders a directive with its delimiters.
func (f *Formatter) Directive(d ast.Directive) string {
	var (
		content string
		style   ast.DirectiveStyle
	)

	switch v := d.(type) {
	case *ast.ExpressionDirective:
		content, style = f.Statement(v.Statement), v.Style
	case *ast.DependencyDirective:
		content, style = f.dependency(v), v.Style
	default:
		return ""
	}

	switch f.options.DirectiveStyle {
	case BraceDirectives:
		style = ast.BraceStyle
	case CommentDirectives:
		style = ast.CommentStyle
	}

	if style == ast.CommentStyle {
		return "/*{{ " + content + " }}*/"
	}
	return "{{ " + content + " }}"
}

func (f *Formatter) dependency(d *ast.DependencyDirective) string {
	return strings.Join([]string{
		f.keyword("FOR"), f.keyword("EACH"), f.keyword("ROW"), f.keyword("OF"), d.From.String(),
		f.keyword("GENERATE"), f.Expression(d.Count),
		f.keyword("ROWS"), f.keyword("OF"), d.To.String(),
	}, " ")
}

// keyword formats a keyword according to the formatter options
func (f *Formatter) keyword(kw string) string {
	if f.options.UppercaseKeywords {
		return strings.ToUpper(kw)
	}
	return strings.ToLower(kw)
}

// Statement formats a statement (convenience function)
func Statement(stmt ast.Statement) string {
	return NewDefault().Statement(stmt)
}

// Expression formats an expression (convenience function)
func Expression(expr ast.Expression) string {
	return NewDefault().Expression(expr)
}

// Document formats a document (convenience function)
func Document(doc *ast.Document) string {
	return NewDefault().Document(doc)
}
