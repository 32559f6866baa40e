package format

import (
	"regexp"
	"strings"

	"github.com/pseudomuto/dbtemplate/pkg/ast"
)

var bareName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Statement formats the expressions of a statement separated by "; ".
func (f *Formatter) Statement(stmt ast.Statement) string {
	parts := make([]string, len(stmt.Exprs))
	for n, e := range stmt.Exprs {
		parts[n] = f.Expression(e)
	}
	return strings.Join(parts, "; ")
}

// Expression formats an expression, adding parentheses only where operator
// precedence requires them.
func (f *Formatter) Expression(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.Assignment:
		return f.variable(e.Name) + " := " + f.Expression(e.Value)
	case *ast.BinaryOp:
		return f.binary(e)
	case *ast.UnaryOp:
		return f.unary(e)
	case *ast.Index:
		return f.operand(e.Base, ast.PrecPostfix) + "[" + f.Expression(e.Index) + "]"
	case *ast.Group:
		return "(" + f.Expression(e.Inner) + ")"
	case *ast.Literal:
		return f.literal(e)
	case *ast.Case:
		return f.caseExpr(e)
	case *ast.Timestamp:
		return f.keyword("TIMESTAMP") + " " + f.operand(e.Inner, ast.PrecPrimary)
	case *ast.Interval:
		return f.keyword("INTERVAL") + " " + f.Expression(e.Amount) + " " + f.keyword(string(e.Unit))
	case *ast.HexLiteral:
		if lit, ok := e.Inner.(*ast.Literal); ok && lit.Kind == ast.StringLiteral {
			return f.keyword("X") + f.literal(lit)
		}
		return f.keyword("X") + " " + f.operand(e.Inner, ast.PrecPrimary)
	case *ast.VariableRef:
		return f.variable(e.Name)
	case *ast.ArrayLiteral:
		return f.keyword("ARRAY") + "[" + f.list(e.Elements) + "]"
	case *ast.Substring:
		return f.keyword("SUBSTRING") + "(" + f.Expression(e.Input) +
			f.clause("FROM", e.From) + f.clause("FOR", e.For) + f.using(e.Unit) + ")"
	case *ast.Overlay:
		return f.keyword("OVERLAY") + "(" + f.Expression(e.Input) +
			f.clause("PLACING", e.Placing) + f.clause("FROM", e.From) + f.clause("FOR", e.For) +
			f.using(e.Unit) + ")"
	case *ast.Call:
		return e.Name.String() + "(" + f.list(e.Args) + ")"
	default:
		return ""
	}
}

func precedence(expr ast.Expression) int {
	switch e := expr.(type) {
	case *ast.Assignment:
		return ast.PrecAssignment
	case *ast.BinaryOp:
		return e.Op.Precedence()
	case *ast.UnaryOp:
		return e.Op.Precedence()
	case *ast.Index:
		return ast.PrecPostfix
	default:
		return ast.PrecPrimary
	}
}

// operand formats expr in a position that binds at least as tightly as min.
func (f *Formatter) operand(expr ast.Expression, min int) string {
	if precedence(expr) < min {
		return "(" + f.Expression(expr) + ")"
	}
	return f.Expression(expr)
}

func (f *Formatter) binary(b *ast.BinaryOp) string {
	prec := b.Op.Precedence()

	// Operators are left associative and comparisons do not chain, so the
	// right operand always needs a tighter tier; so does a comparison's left.
	leftMin := prec
	if prec == ast.PrecComparison {
		leftMin++
	}

	op := string(b.Op)
	switch b.Op {
	case ast.OpOr, ast.OpAnd, ast.OpIs, ast.OpIsNot:
		op = f.keyword(op)
	}

	right := f.operand(b.Right, prec+1)
	return f.operand(b.Left, leftMin) + " " + op + " " + right
}

func (f *Formatter) unary(u *ast.UnaryOp) string {
	if u.Op == ast.OpNot {
		return f.keyword("NOT") + " " + f.operand(u.Operand, ast.PrecNot)
	}

	operand := f.operand(u.Operand, ast.PrecUnary)
	// "--" would start a line comment.
	if u.Op == ast.OpNeg && strings.HasPrefix(operand, "-") {
		return "- " + operand
	}
	return string(u.Op) + operand
}

func (f *Formatter) literal(l *ast.Literal) string {
	switch l.Kind {
	case ast.StringLiteral:
		return "'" + strings.ReplaceAll(l.Value, "'", "''") + "'"
	case ast.NumberLiteral:
		return l.Value
	default:
		return f.keyword(l.Kind.String())
	}
}

func (f *Formatter) caseExpr(c *ast.Case) string {
	var sb strings.Builder
	sb.WriteString(f.keyword("CASE"))
	if c.Value != nil {
		sb.WriteString(" " + f.Expression(c.Value))
	}
	for _, arm := range c.Arms {
		sb.WriteString(" " + f.keyword("WHEN") + " " + f.Expression(arm.Pattern))
		sb.WriteString(" " + f.keyword("THEN") + " " + f.Statement(arm.Result))
	}
	if c.Else != nil {
		sb.WriteString(" " + f.keyword("ELSE") + " " + f.Statement(*c.Else))
	}
	sb.WriteString(" " + f.keyword("END"))
	return sb.String()
}

func (f *Formatter) clause(kw string, expr ast.Expression) string {
	if expr == nil {
		return ""
	}
	return " " + f.keyword(kw) + " " + f.Expression(expr)
}

func (f *Formatter) using(unit ast.StringUnit) string {
	if unit == ast.UnitDefault {
		return ""
	}
	return " " + f.keyword("USING") + " " + f.keyword(string(unit))
}

func (f *Formatter) list(exprs []ast.Expression) string {
	parts := make([]string, len(exprs))
	for n, e := range exprs {
		parts[n] = f.Expression(e)
	}
	return strings.Join(parts, ", ")
}

func (f *Formatter) variable(name string) string {
	if bareName.MatchString(name) {
		return "@" + name
	}
	return "@`" + strings.ReplaceAll(name, "`", "``") + "`"
}
