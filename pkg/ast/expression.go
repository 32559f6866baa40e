package ast

import (
	"github.com/pseudomuto/dbtemplate/pkg/compare"
)

type (
	// Expression is implemented by every expression node. The set of
	// implementations is closed; consumers are expected to type switch.
	Expression interface {
		exprNode()
		Equal(other Expression) bool
	}

	// BinaryOperator identifies the operator of a BinaryOp.
	BinaryOperator string

	// UnaryOperator identifies the operator of a UnaryOp.
	UnaryOperator string

	// LiteralKind identifies the kind of a Literal.
	LiteralKind int

	// IntervalUnit is the unit of an INTERVAL expression.
	IntervalUnit string

	// StringUnit is the optional USING clause of SUBSTRING and OVERLAY.
	StringUnit string
)

// Binary operators, spelled as they are written in source.
const (
	OpOr     BinaryOperator = "OR"
	OpAnd    BinaryOperator = "AND"
	OpIs     BinaryOperator = "IS"
	OpIsNot  BinaryOperator = "IS NOT" // IS NOT, written as two keywords
	OpEq     BinaryOperator = "="
	OpNe     BinaryOperator = "<>"
	OpLt     BinaryOperator = "<"
	OpLe     BinaryOperator = "<="
	OpGt     BinaryOperator = ">"
	OpGe     BinaryOperator = ">="
	OpBitOr  BinaryOperator = "|"
	OpBitXor BinaryOperator = "^"
	OpBitAnd BinaryOperator = "&"
	OpAdd    BinaryOperator = "+"
	OpSub    BinaryOperator = "-"
	OpConcat BinaryOperator = "||" // string concatenation
	OpMul    BinaryOperator = "*"
	OpDiv    BinaryOperator = "/"
)

// Prefix operators.
const (
	OpNot    UnaryOperator = "NOT"
	OpNeg    UnaryOperator = "-"
	OpPlus   UnaryOperator = "+"
	OpBitNot UnaryOperator = "~" // bitwise complement
)

// Units accepted after INTERVAL <amount>.
const (
	UnitWeek        IntervalUnit = "WEEK"
	UnitDay         IntervalUnit = "DAY"
	UnitHour        IntervalUnit = "HOUR"
	UnitMinute      IntervalUnit = "MINUTE"
	UnitSecond      IntervalUnit = "SECOND"
	UnitMillisecond IntervalUnit = "MILLISECOND"
	UnitMicrosecond IntervalUnit = "MICROSECOND"
)

// Units accepted by the USING clause of SUBSTRING and OVERLAY.
const (
	// UnitDefault means no USING clause was written.
	UnitDefault StringUnit = ""
	// UnitCharacters counts positions in characters.
	UnitCharacters StringUnit = "CHARACTERS"
	// UnitOctets counts positions in bytes.
	UnitOctets StringUnit = "OCTETS"
)

// Literal kinds. StringLiteral and NumberLiteral carry text in
// Literal.Value; the others are keywords and carry none.
const (
	// StringLiteral is a single-quoted string.
	StringLiteral LiteralKind = iota
	// NumberLiteral is a decimal, exponent or 0x-prefixed hex number, kept as written.
	NumberLiteral
	NullLiteral
	TrueLiteral
	FalseLiteral
	// RownumLiteral is the 1-based index of the row being generated.
	RownumLiteral
	// SubRownumLiteral is the 1-based index among rows derived from one parent row.
	SubRownumLiteral
	// CurrentTimestampLiteral is CURRENT_TIMESTAMP.
	CurrentTimestampLiteral
)

// Binding strength of each tier, loosest first.
const (
	PrecAssignment = iota + 1
	PrecOr
	PrecAnd
	PrecNot
	PrecComparison
	PrecBitOr
	PrecBitAnd
	PrecAdditive
	PrecMultiplicative
	PrecUnary
	PrecPostfix
	PrecPrimary
)

// Precedence returns the tier the operator belongs to.
func (op BinaryOperator) Precedence() int {
	switch op {
	case OpOr:
		return PrecOr
	case OpAnd:
		return PrecAnd
	case OpIs, OpIsNot, OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return PrecComparison
	case OpBitOr, OpBitXor:
		return PrecBitOr
	case OpBitAnd:
		return PrecBitAnd
	case OpAdd, OpSub, OpConcat:
		return PrecAdditive
	default:
		return PrecMultiplicative
	}
}

// Precedence returns the tier the operator belongs to.
func (op UnaryOperator) Precedence() int {
	if op == OpNot {
		return PrecNot
	}
	return PrecUnary
}

func (k LiteralKind) String() string {
	switch k {
	case StringLiteral:
		return "string"
	case NumberLiteral:
		return "number"
	case NullLiteral:
		return "NULL"
	case TrueLiteral:
		return "TRUE"
	case FalseLiteral:
		return "FALSE"
	case RownumLiteral:
		return "ROWNUM"
	case SubRownumLiteral:
		return "SUBROWNUM"
	default:
		return "CURRENT_TIMESTAMP"
	}
}

type (
	// Assignment stores the value of Value into the variable Name and yields it.
	Assignment struct {
		Name  string
		Value Expression
	}

	// BinaryOp applies a left-associative (or, for comparisons, non-chaining)
	// binary operator.
	BinaryOp struct {
		Op    BinaryOperator
		Left  Expression
		Right Expression
	}

	// UnaryOp applies a prefix operator.
	UnaryOp struct {
		Op      UnaryOperator
		Operand Expression
	}

	// Index is a postfix subscript: Base[Index].
	Index struct {
		Base  Expression
		Index Expression
	}

	// Group is a parenthesized expression.
	Group struct {
		Inner Expression
	}

	// Literal is a constant or a keyword value. Value holds the decoded text
	// of string literals and the raw source text of number literals; it is
	// empty for keyword literals.
	Literal struct {
		Kind  LiteralKind
		Value string
	}

	// CaseArm is one WHEN pattern THEN result branch.
	CaseArm struct {
		Pattern Expression
		Result  Statement
	}

	// Case is a CASE expression. Value is nil for the searched form. Arms are
	// kept in source order; Else is nil when absent.
	Case struct {
		Value Expression
		Arms  []CaseArm
		Else  *Statement
	}

	// Timestamp is TIMESTAMP <primary>.
	Timestamp struct {
		Inner Expression
	}

	// Interval is INTERVAL <amount> <unit>.
	Interval struct {
		Amount Expression
		Unit   IntervalUnit
	}

	// HexLiteral is X <primary>.
	HexLiteral struct {
		Inner Expression
	}

	// VariableRef reads the variable @Name.
	VariableRef struct {
		Name string
	}

	// ArrayLiteral is ARRAY[e1, e2, ...].
	ArrayLiteral struct {
		Elements []Expression
	}

	// Substring is SUBSTRING(input [FROM f] [FOR n] [USING unit]). From and
	// For are nil when omitted.
	Substring struct {
		Input Expression
		From  Expression
		For   Expression
		Unit  StringUnit
	}

	// Overlay is OVERLAY(input PLACING p FROM f [FOR n] [USING unit]).
	Overlay struct {
		Input   Expression
		Placing Expression
		From    Expression
		For     Expression
		Unit    StringUnit
	}

	// Call invokes the function Name.
	Call struct {
		Name QualifiedName
		Args []Expression
	}
)

func (*Assignment) exprNode()   {}
func (*BinaryOp) exprNode()     {}
func (*UnaryOp) exprNode()      {}
func (*Index) exprNode()        {}
func (*Group) exprNode()        {}
func (*Literal) exprNode()      {}
func (*Case) exprNode()         {}
func (*Timestamp) exprNode()    {}
func (*Interval) exprNode()     {}
func (*HexLiteral) exprNode()   {}
func (*VariableRef) exprNode()  {}
func (*ArrayLiteral) exprNode() {}
func (*Substring) exprNode()    {}
func (*Overlay) exprNode()      {}
func (*Call) exprNode()         {}

// Str returns a string literal.
func Str(s string) *Literal { return &Literal{Kind: StringLiteral, Value: s} }

// Num returns a number literal with the given source text.
func Num(raw string) *Literal { return &Literal{Kind: NumberLiteral, Value: raw} }

// Keyword returns a keyword literal such as NULL or ROWNUM.
func Keyword(kind LiteralKind) *Literal { return &Literal{Kind: kind} }

// Binary returns a BinaryOp node.
func Binary(op BinaryOperator, left, right Expression) *BinaryOp {
	return &BinaryOp{Op: op, Left: left, Right: right}
}

// Unary returns a UnaryOp node.
func Unary(op UnaryOperator, operand Expression) *UnaryOp {
	return &UnaryOp{Op: op, Operand: operand}
}

// EqualExpressions compares two possibly nil expressions.
func EqualExpressions(a, b Expression) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

func equalExpressionSlices(a, b []Expression) bool {
	return compare.Slices(a, b, EqualExpressions)
}

func (a *Assignment) Equal(other Expression) bool {
	o, ok := other.(*Assignment)
	if eq, more := compare.NilCheck(a, o); !ok || !more {
		return ok && eq
	}
	return a.Name == o.Name && EqualExpressions(a.Value, o.Value)
}

func (b *BinaryOp) Equal(other Expression) bool {
	o, ok := other.(*BinaryOp)
	if eq, more := compare.NilCheck(b, o); !ok || !more {
		return ok && eq
	}
	return b.Op == o.Op && EqualExpressions(b.Left, o.Left) && EqualExpressions(b.Right, o.Right)
}

func (u *UnaryOp) Equal(other Expression) bool {
	o, ok := other.(*UnaryOp)
	if eq, more := compare.NilCheck(u, o); !ok || !more {
		return ok && eq
	}
	return u.Op == o.Op && EqualExpressions(u.Operand, o.Operand)
}

func (i *Index) Equal(other Expression) bool {
	o, ok := other.(*Index)
	if eq, more := compare.NilCheck(i, o); !ok || !more {
		return ok && eq
	}
	return EqualExpressions(i.Base, o.Base) && EqualExpressions(i.Index, o.Index)
}

func (g *Group) Equal(other Expression) bool {
	o, ok := other.(*Group)
	if eq, more := compare.NilCheck(g, o); !ok || !more {
		return ok && eq
	}
	return EqualExpressions(g.Inner, o.Inner)
}

func (l *Literal) Equal(other Expression) bool {
	o, ok := other.(*Literal)
	if eq, more := compare.NilCheck(l, o); !ok || !more {
		return ok && eq
	}
	return l.Kind == o.Kind && l.Value == o.Value
}

// Equal reports whether both arms have equal patterns and results.
func (a CaseArm) Equal(other CaseArm) bool {
	return EqualExpressions(a.Pattern, other.Pattern) && a.Result.Equal(other.Result)
}

func (c *Case) Equal(other Expression) bool {
	o, ok := other.(*Case)
	if eq, more := compare.NilCheck(c, o); !ok || !more {
		return ok && eq
	}
	return EqualExpressions(c.Value, o.Value) &&
		compare.Slices(c.Arms, o.Arms, func(a, b CaseArm) bool { return a.Equal(b) }) &&
		compare.PointersWithEqual(c.Else, o.Else, func(a, b *Statement) bool { return a.Equal(*b) })
}

func (t *Timestamp) Equal(other Expression) bool {
	o, ok := other.(*Timestamp)
	if eq, more := compare.NilCheck(t, o); !ok || !more {
		return ok && eq
	}
	return EqualExpressions(t.Inner, o.Inner)
}

func (i *Interval) Equal(other Expression) bool {
	o, ok := other.(*Interval)
	if eq, more := compare.NilCheck(i, o); !ok || !more {
		return ok && eq
	}
	return i.Unit == o.Unit && EqualExpressions(i.Amount, o.Amount)
}

func (h *HexLiteral) Equal(other Expression) bool {
	o, ok := other.(*HexLiteral)
	if eq, more := compare.NilCheck(h, o); !ok || !more {
		return ok && eq
	}
	return EqualExpressions(h.Inner, o.Inner)
}

func (v *VariableRef) Equal(other Expression) bool {
	o, ok := other.(*VariableRef)
	if eq, more := compare.NilCheck(v, o); !ok || !more {
		return ok && eq
	}
	return v.Name == o.Name
}

func (a *ArrayLiteral) Equal(other Expression) bool {
	o, ok := other.(*ArrayLiteral)
	if eq, more := compare.NilCheck(a, o); !ok || !more {
		return ok && eq
	}
	return equalExpressionSlices(a.Elements, o.Elements)
}

func (s *Substring) Equal(other Expression) bool {
	o, ok := other.(*Substring)
	if eq, more := compare.NilCheck(s, o); !ok || !more {
		return ok && eq
	}
	return s.Unit == o.Unit &&
		EqualExpressions(s.Input, o.Input) &&
		EqualExpressions(s.From, o.From) &&
		EqualExpressions(s.For, o.For)
}

func (s *Overlay) Equal(other Expression) bool {
	o, ok := other.(*Overlay)
	if eq, more := compare.NilCheck(s, o); !ok || !more {
		return ok && eq
	}
	return s.Unit == o.Unit &&
		EqualExpressions(s.Input, o.Input) &&
		EqualExpressions(s.Placing, o.Placing) &&
		EqualExpressions(s.From, o.From) &&
		EqualExpressions(s.For, o.For)
}

func (c *Call) Equal(other Expression) bool {
	o, ok := other.(*Call)
	if eq, more := compare.NilCheck(c, o); !ok || !more {
		return ok && eq
	}
	return c.Name.Equal(o.Name) && equalExpressionSlices(c.Args, o.Args)
}
