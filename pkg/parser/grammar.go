package parser

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// The types below form the participle parse tree. They are lowered into
// pkg/ast by the builder and never leave this package.

type (
	document struct {
		Leading []*directive `parser:"@@*"`
		Tables  []*tableDef  `parser:"@@*"`
	}

	directive struct {
		Pos     lexer.Position
		Braces  *directiveBody `parser:"  '{{' @@ '}}'"`
		Comment *directiveBody `parser:"| '/*{{' @@ '}}*/'"`
	}

	directiveBody struct {
		Dependency *dependency `parser:"  @@"`
		Statement  *statement  `parser:"| @@"`
	}

	dependency struct {
		Pos   lexer.Position
		From  *qualifiedName `parser:"'FOR' 'EACH' ('ROW' | 'ROWS') 'OF' @@"`
		Count *expression    `parser:"'GENERATE' @@"`
		To    *qualifiedName `parser:"('ROW' | 'ROWS') 'OF' @@"`
	}

	tableDef struct {
		Pos     lexer.Position
		Name    *qualifiedName `parser:"'CREATE' 'TABLE' @@"`
		Body    []*bodyItem    `parser:"'(' @@*"`
		Trailer []*trailerItem `parser:"')' @@*"`
	}

	bodyItem struct {
		Directive  *directive  `parser:"  @@"`
		Identifier *identifier `parser:"| @@"`
		Comma      bool        `parser:"| @','"`
		Text       string      `parser:"| @(Text | ParenOpen | BracketOpen | BraceOpen | ParenClose | BracketClose | BraceClose | NestedText)+"`
	}

	trailerItem struct {
		Pos       lexer.Position
		Directive *directive `parser:"  @@"`
		Text      string     `parser:"| @TrailerText+"`
	}

	identifier struct {
		Pos          lexer.Position
		Bare         string `parser:"  @Ident"`
		Backquoted   string `parser:"| @BackquotedIdent"`
		DoubleQuoted string `parser:"| @DoubleQuotedIdent"`
		Bracketed    string `parser:"| @BracketedIdent"`
	}

	qualifiedName struct {
		Pos   lexer.Position
		Parts []*identifier `parser:"@@ ('.' @@ ('.' @@)?)?"`
	}
)

// Expression tiers, loosest binding first.
type (
	statement struct {
		Exprs []*expression `parser:"@@ (';' @@)*"`
	}

	expression struct {
		Pos     lexer.Position
		Assigns []string `parser:"(@Variable ':=')*"`
		Or      *orExpr  `parser:"@@"`
	}

	orExpr struct {
		And  *andExpr   `parser:"@@"`
		Rest []*andExpr `parser:"('OR' @@)*"`
	}

	andExpr struct {
		Not  *notExpr   `parser:"@@"`
		Rest []*notExpr `parser:"('AND' @@)*"`
	}

	notExpr struct {
		Negated    *notExpr    `parser:"  'NOT' @@"`
		Comparison *comparison `parser:"| @@"`
	}

	// comparison admits a single operator; a < b < c does not parse.
	comparison struct {
		Left *bitOr          `parser:"@@"`
		Rest *comparisonRest `parser:"@@?"`
	}

	comparisonRest struct {
		Op    *comparisonOp `parser:"@@"`
		Right *bitOr        `parser:"@@"`
	}

	comparisonOp struct {
		Is     *isOp  `parser:"  @@"`
		Symbol string `parser:"| @('<=' | '>=' | '<>' | '<' | '>' | '=')"`
	}

	isOp struct {
		Is  bool `parser:"@'IS'"`
		Not bool `parser:"@'NOT'?"`
	}

	bitOr struct {
		Left *bitAnd      `parser:"@@"`
		Rest []*bitOrRest `parser:"@@*"`
	}

	bitOrRest struct {
		Op    string  `parser:"@('|' | '^')"`
		Right *bitAnd `parser:"@@"`
	}

	bitAnd struct {
		Left *additive   `parser:"@@"`
		Rest []*additive `parser:"('&' @@)*"`
	}

	additive struct {
		Left *multiplicative `parser:"@@"`
		Rest []*additiveRest `parser:"@@*"`
	}

	additiveRest struct {
		Op    string          `parser:"@('+' | '-' | '||')"`
		Right *multiplicative `parser:"@@"`
	}

	multiplicative struct {
		Left *unary                `parser:"@@"`
		Rest []*multiplicativeRest `parser:"@@*"`
	}

	multiplicativeRest struct {
		Op    string `parser:"@('*' | '/')"`
		Right *unary `parser:"@@"`
	}

	unary struct {
		Prefixed *prefixed `parser:"  @@"`
		Postfix  *postfix  `parser:"| @@"`
	}

	prefixed struct {
		Op      string `parser:"@('+' | '-' | '~')"`
		Operand *unary `parser:"@@"`
	}

	postfix struct {
		Primary *primary      `parser:"@@"`
		Indexes []*expression `parser:"('[' @@ ']')*"`
	}

	// primary alternatives are tried in order and the first match wins.
	primary struct {
		Pos              lexer.Position
		Rownum           bool           `parser:"  @'ROWNUM'"`
		SubRownum        bool           `parser:"| @'SUBROWNUM'"`
		Null             bool           `parser:"| @'NULL'"`
		True             bool           `parser:"| @'TRUE'"`
		False            bool           `parser:"| @'FALSE'"`
		CurrentTimestamp bool           `parser:"| @'CURRENT_TIMESTAMP'"`
		Group            *expression    `parser:"| '(' @@ ')'"`
		String           string         `parser:"| @String"`
		Number           string         `parser:"| @Number"`
		Case             *caseExpr      `parser:"| @@"`
		Timestamp        *primary       `parser:"| 'TIMESTAMP' @@"`
		Interval         *intervalExpr  `parser:"| @@"`
		Hex              *primary       `parser:"| 'X' @@"`
		Variable         string         `parser:"| @Variable"`
		Array            *arrayExpr     `parser:"| @@"`
		Substring        *substringExpr `parser:"| @@"`
		Overlay          *overlayExpr   `parser:"| @@"`
		Call             *call          `parser:"| @@"`
	}

	caseExpr struct {
		Pos     lexer.Position
		Subject *expression `parser:"'CASE' @@?"`
		Arms    []*caseArm  `parser:"@@+"`
		Else    *statement  `parser:"('ELSE' @@)?"`
		End     bool        `parser:"@'END'?"`
	}

	caseArm struct {
		Pattern *expression `parser:"'WHEN' @@"`
		Result  *statement  `parser:"'THEN' @@"`
	}

	intervalExpr struct {
		Amount *expression `parser:"'INTERVAL' @@"`
		Unit   string      `parser:"@('WEEK' | 'DAY' | 'HOUR' | 'MINUTE' | 'SECOND' | 'MILLISECOND' | 'MICROSECOND')"`
	}

	arrayExpr struct {
		Elements []*expression `parser:"'ARRAY' '[' (@@ (',' @@)*)? ']'"`
	}

	substringExpr struct {
		Input *expression `parser:"'SUBSTRING' '(' @@"`
		From  *expression `parser:"('FROM' @@)?"`
		For   *expression `parser:"('FOR' @@)?"`
		Unit  string      `parser:"('USING' @('CHARACTERS' | 'OCTETS'))? ')'"`
	}

	overlayExpr struct {
		Input   *expression `parser:"'OVERLAY' '(' @@"`
		Placing *expression `parser:"'PLACING' @@"`
		From    *expression `parser:"'FROM' @@"`
		For     *expression `parser:"('FOR' @@)?"`
		Unit    string      `parser:"('USING' @('CHARACTERS' | 'OCTETS'))? ')'"`
	}

	call struct {
		Name *qualifiedName `parser:"@@"`
		Args []*expression  `parser:"'(' (@@ (',' @@)*)? ')'"`
	}
)
