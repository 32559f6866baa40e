package parser

import (
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/pseudomuto/dbtemplate/pkg/ast"
)

// blankText matches text made only of whitespace and comments.
var blankText = regexp.MustCompile(`^(?:` + whitespace + `|` + lineComment + `|` + blockComment + `)*$`)

var (
	binaryOps = map[string]ast.BinaryOperator{
		"=": ast.OpEq, "<>": ast.OpNe, "<": ast.OpLt, "<=": ast.OpLe, ">": ast.OpGt, ">=": ast.OpGe,
		"|": ast.OpBitOr, "^": ast.OpBitXor, "+": ast.OpAdd, "-": ast.OpSub, "||": ast.OpConcat,
		"*": ast.OpMul, "/": ast.OpDiv,
	}
	unaryOps = map[string]ast.UnaryOperator{"+": ast.OpPlus, "-": ast.OpNeg, "~": ast.OpBitNot}
)

// builder lowers a participle parse tree into pkg/ast, enforcing the
// placement rules the grammar alone cannot express. The error found earliest
// in the text wins.
type builder struct {
	err *Error
}

func (b *builder) fail(kind ErrorKind, pos lexer.Position, production, format string, args ...any) {
	if b.err == nil || pos.Offset < b.err.Pos.Offset {
		b.err = newError(kind, pos, production, format, args...)
	}
}

func (b *builder) document(doc *document) *ast.Document {
	out := &ast.Document{Dependencies: map[int]*ast.DependencyDirective{}}

	for _, d := range doc.Leading {
		dir := b.directive(d)
		if _, ok := dir.(*ast.DependencyDirective); ok {
			b.fail(StructuralError, d.Pos, "document", "dependency directive before the first table")
		}
		out.Leading = append(out.Leading, dir)
	}

	if len(doc.Tables) == 0 {
		b.fail(StructuralError, lexer.Position{Line: 1, Column: 1}, "document", "template defines no tables")
		return out
	}

	for i, t := range doc.Tables {
		table, gap := b.table(t)
		out.Tables = append(out.Tables, table)
		if len(gap) == 0 {
			continue
		}

		if i == len(doc.Tables)-1 {
			b.fail(StructuralError, gap[0].Pos, "document", "directive after the last table")
			continue
		}
		if len(gap) > 1 {
			b.fail(StructuralError, gap[1].Pos, "document", "more than one directive between tables")
			continue
		}

		dep, ok := gap[0].Directive.(*ast.DependencyDirective)
		if !ok {
			b.fail(StructuralError, gap[0].Pos, "document", "only a dependency directive may appear between tables")
			continue
		}
		out.Dependencies[i] = dep
	}

	return out
}

// placedDirective is a directive found after a table body.
type placedDirective struct {
	ast.Directive
	Pos lexer.Position
}

// table returns the lowered table and the directives found after its body.
// Text after the first of those directives becomes the table's Separator.
func (b *builder) table(t *tableDef) (*ast.TableDef, []placedDirective) {
	out := &ast.TableDef{Name: b.qualifiedName(t.Name), Pos: position(t.Pos)}

	for _, item := range t.Body {
		switch {
		case item.Directive != nil:
			dir := b.directive(item.Directive)
			if _, ok := dir.(*ast.DependencyDirective); ok {
				b.fail(StructuralError, item.Directive.Pos, "table body", "dependency directive inside a table body")
			}
			out.Body = append(out.Body, ast.DirectiveSpan{Directive: dir})
		case item.Identifier != nil:
			out.Body = append(out.Body, b.identifier(item.Identifier))
		case item.Comma:
			out.Body = append(out.Body, ast.Comma{})
		default:
			out.Body = append(out.Body, ast.LiteralText{Text: item.Text})
		}
	}

	var gap []placedDirective
	for _, item := range t.Trailer {
		switch {
		case item.Directive != nil:
			gap = append(gap, placedDirective{Directive: b.directive(item.Directive), Pos: item.Directive.Pos})
		case len(gap) == 0:
			out.Trailing += item.Text
		case !blankText.MatchString(item.Text):
			b.fail(SyntaxError, item.Pos, "table options", "unexpected text after directive")
		case len(gap) == 1:
			out.Separator += item.Text
		}
	}

	return out, gap
}

func (b *builder) directive(d *directive) ast.Directive {
	if d.Comment != nil {
		return b.directiveBody(d.Comment, ast.CommentStyle, d.Pos)
	}
	return b.directiveBody(d.Braces, ast.BraceStyle, d.Pos)
}

func (b *builder) directiveBody(body *directiveBody, style ast.DirectiveStyle, pos lexer.Position) ast.Directive {
	if dep := body.Dependency; dep != nil {
		return &ast.DependencyDirective{
			From:  b.qualifiedName(dep.From),
			Count: b.expression(dep.Count),
			To:    b.qualifiedName(dep.To),
			Style: style,
			Pos:   position(pos),
		}
	}

	return &ast.ExpressionDirective{
		Statement: b.statement(body.Statement),
		Style:     style,
		Pos:       position(pos),
	}
}

func (b *builder) identifier(id *identifier) ast.Identifier {
	switch {
	case id.Backquoted != "":
		return ast.Identifier{Name: unquote(id.Backquoted), Quoting: ast.BackQuoted}
	case id.DoubleQuoted != "":
		return ast.Identifier{Name: unquote(id.DoubleQuoted), Quoting: ast.DoubleQuoted}
	case id.Bracketed != "":
		return ast.Identifier{Name: id.Bracketed[1 : len(id.Bracketed)-1], Quoting: ast.Bracketed}
	default:
		return ast.Identifier{Name: id.Bare}
	}
}

func (b *builder) qualifiedName(q *qualifiedName) ast.QualifiedName {
	out := ast.QualifiedName{Parts: make([]ast.Identifier, len(q.Parts))}
	for n, p := range q.Parts {
		out.Parts[n] = b.identifier(p)
	}
	return out
}

func (b *builder) statement(s *statement) ast.Statement {
	out := ast.Statement{Exprs: make([]ast.Expression, len(s.Exprs))}
	for n, e := range s.Exprs {
		out.Exprs[n] = b.expression(e)
	}
	return out
}

func (b *builder) expression(e *expression) ast.Expression {
	if e == nil {
		return nil
	}

	out := b.or(e.Or)
	for n := len(e.Assigns) - 1; n >= 0; n-- {
		out = &ast.Assignment{Name: variableName(e.Assigns[n]), Value: out}
	}
	return out
}

func (b *builder) or(o *orExpr) ast.Expression {
	out := b.and(o.And)
	for _, r := range o.Rest {
		out = ast.Binary(ast.OpOr, out, b.and(r))
	}
	return out
}

func (b *builder) and(a *andExpr) ast.Expression {
	out := b.not(a.Not)
	for _, r := range a.Rest {
		out = ast.Binary(ast.OpAnd, out, b.not(r))
	}
	return out
}

func (b *builder) not(n *notExpr) ast.Expression {
	if n.Negated != nil {
		return ast.Unary(ast.OpNot, b.not(n.Negated))
	}
	return b.comparison(n.Comparison)
}

func (b *builder) comparison(c *comparison) ast.Expression {
	left := b.bitOr(c.Left)
	if c.Rest == nil {
		return left
	}

	op := binaryOps[c.Rest.Op.Symbol]
	if is := c.Rest.Op.Is; is != nil {
		op = ast.OpIs
		if is.Not {
			op = ast.OpIsNot
		}
	}
	return ast.Binary(op, left, b.bitOr(c.Rest.Right))
}

func (b *builder) bitOr(o *bitOr) ast.Expression {
	out := b.bitAnd(o.Left)
	for _, r := range o.Rest {
		out = ast.Binary(binaryOps[r.Op], out, b.bitAnd(r.Right))
	}
	return out
}

func (b *builder) bitAnd(a *bitAnd) ast.Expression {
	out := b.additive(a.Left)
	for _, r := range a.Rest {
		out = ast.Binary(ast.OpBitAnd, out, b.additive(r))
	}
	return out
}

func (b *builder) additive(a *additive) ast.Expression {
	out := b.multiplicative(a.Left)
	for _, r := range a.Rest {
		out = ast.Binary(binaryOps[r.Op], out, b.multiplicative(r.Right))
	}
	return out
}

func (b *builder) multiplicative(m *multiplicative) ast.Expression {
	out := b.unary(m.Left)
	for _, r := range m.Rest {
		out = ast.Binary(binaryOps[r.Op], out, b.unary(r.Right))
	}
	return out
}

func (b *builder) unary(u *unary) ast.Expression {
	if p := u.Prefixed; p != nil {
		return ast.Unary(unaryOps[p.Op], b.unary(p.Operand))
	}

	out := b.primary(u.Postfix.Primary)
	for _, idx := range u.Postfix.Indexes {
		out = &ast.Index{Base: out, Index: b.expression(idx)}
	}
	return out
}

func (b *builder) primary(p *primary) ast.Expression {
	switch {
	case p.Rownum:
		return ast.Keyword(ast.RownumLiteral)
	case p.SubRownum:
		return ast.Keyword(ast.SubRownumLiteral)
	case p.Null:
		return ast.Keyword(ast.NullLiteral)
	case p.True:
		return ast.Keyword(ast.TrueLiteral)
	case p.False:
		return ast.Keyword(ast.FalseLiteral)
	case p.CurrentTimestamp:
		return ast.Keyword(ast.CurrentTimestampLiteral)
	case p.Group != nil:
		return &ast.Group{Inner: b.expression(p.Group)}
	case p.String != "":
		return ast.Str(unquote(p.String))
	case p.Number != "":
		if !validNumber.MatchString(p.Number) {
			b.fail(LexError, p.Pos, "number", "invalid numeric literal %q", p.Number)
		}
		return ast.Num(p.Number)
	case p.Case != nil:
		return b.caseExpr(p.Case)
	case p.Timestamp != nil:
		return &ast.Timestamp{Inner: b.primary(p.Timestamp)}
	case p.Interval != nil:
		return &ast.Interval{
			Amount: b.expression(p.Interval.Amount),
			Unit:   ast.IntervalUnit(strings.ToUpper(p.Interval.Unit)),
		}
	case p.Hex != nil:
		return &ast.HexLiteral{Inner: b.primary(p.Hex)}
	case p.Variable != "":
		return &ast.VariableRef{Name: variableName(p.Variable)}
	case p.Array != nil:
		return &ast.ArrayLiteral{Elements: b.expressions(p.Array.Elements)}
	case p.Substring != nil:
		s := p.Substring
		return &ast.Substring{
			Input: b.expression(s.Input),
			From:  b.expression(s.From),
			For:   b.expression(s.For),
			Unit:  ast.StringUnit(strings.ToUpper(s.Unit)),
		}
	case p.Overlay != nil:
		o := p.Overlay
		return &ast.Overlay{
			Input:   b.expression(o.Input),
			Placing: b.expression(o.Placing),
			From:    b.expression(o.From),
			For:     b.expression(o.For),
			Unit:    ast.StringUnit(strings.ToUpper(o.Unit)),
		}
	default:
		return &ast.Call{Name: b.qualifiedName(p.Call.Name), Args: b.expressions(p.Call.Args)}
	}
}

func (b *builder) caseExpr(c *caseExpr) ast.Expression {
	if !c.End {
		b.fail(StructuralError, c.Pos, "CASE", "CASE expression is missing END")
	}

	out := &ast.Case{Value: b.expression(c.Subject)}
	for _, arm := range c.Arms {
		out.Arms = append(out.Arms, ast.CaseArm{
			Pattern: b.expression(arm.Pattern),
			Result:  b.statement(arm.Result),
		})
	}
	if c.Else != nil {
		els := b.statement(c.Else)
		out.Else = &els
	}
	return out
}

func (b *builder) expressions(in []*expression) []ast.Expression {
	out := make([]ast.Expression, len(in))
	for n, e := range in {
		out[n] = b.expression(e)
	}
	return out
}

// unquote strips the surrounding quote characters and collapses doubled ones.
func unquote(raw string) string {
	q := raw[:1]
	return strings.ReplaceAll(raw[1:len(raw)-1], q+q, q)
}

func variableName(raw string) string {
	name := raw[1:]
	if name[0] == '`' || name[0] == '"' {
		return unquote(name)
	}
	return name
}
