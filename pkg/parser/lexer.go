package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

const (
	whitespace   = `[ \t\r\n\v\f]+`
	lineComment  = `--[^\n]*`
	blockComment = `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`

	singleQuoted = `'(?:[^']|'')*'`
	doubleQuoted = `"(?:[^"]|"")*"`
	backQuoted   = "`(?:[^`]|``)*`"
	bracketed    = `\[[^\]]*\]`
	bareIdent    = `[A-Za-z_][A-Za-z0-9_]*`

	// number is deliberately loose so that malformed literals such as 0xZZ or
	// 1e+ surface as a single token and can be rejected as a whole.
	number = `0[xX][0-9A-Za-z_]*|(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:[eE][+\-]?[0-9]*)?`

	operator = `:=|<=|<>|>=|\|\||[-<>=+*/;&|^~,()\[\].]`

	// invalid matches whatever no other rule accepts: a quoted literal or
	// bracketed identifier left open until the end of input, or a single stray
	// character. No production accepts it, so the parser reports it in order
	// with every other failure.
	invalid = `'(?:[^']|'')*$|"(?:[^"]|"")*$|` + "`(?:[^`]|``)*$" + `|\[[^\]]*$|[\s\S]`
)

// keywords are reserved inside directives. Each must be followed by a
// non-identifier character, so rownumber is an identifier, not ROWNUM.
var keywords = []string{
	"CREATE", "TABLE", "OR", "AND", "NOT", "IS", "ROWNUM", "SUBROWNUM", "NULL",
	"TRUE", "FALSE", "CASE", "WHEN", "THEN", "ELSE", "END", "TIMESTAMP",
	"INTERVAL", "WEEK", "DAY", "HOUR", "MINUTE", "SECOND", "MILLISECOND",
	"MICROSECOND", "SUBSTRING", "FROM", "FOR", "USING", "CHARACTERS", "OCTETS",
	"OVERLAY", "PLACING", "CURRENT_TIMESTAMP", "ARRAY", "EACH", "ROW", "ROWS",
	"OF", "GENERATE", "X",
}

var (
	validNumber = regexp.MustCompile(`^(?:0[xX][0-9A-Fa-f]+|(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:[eE][+\-]?[0-9]+)?)$`)

	// templateLexer scans whole documents. Root covers the space between
	// tables, Body a table's parenthesized body, Nested* balanced groups inside
	// a body and Trailer the text following a body.
	templateLexer = lexer.MustStateful(lexerRules(rootRules()))

	// expressionLexer scans bare directive content.
	expressionLexer = lexer.MustStateful(lexerRules(expressionRules()))

	// nameLexer scans a standalone qualified name.
	nameLexer = lexer.MustStateful(lexerRules([]lexer.Rule{
		{Name: "Whitespace", Pattern: whitespace},
		{Name: "BackquotedIdent", Pattern: backQuoted},
		{Name: "DoubleQuotedIdent", Pattern: doubleQuoted},
		{Name: "BracketedIdent", Pattern: bracketed},
		{Name: "Ident", Pattern: bareIdent},
		{Name: "Punct", Pattern: `\.`},
		invalidRule,
	}))

	invalidRule = lexer.Rule{Name: "Invalid", Pattern: invalid}
)

func keywordPattern(words ...string) string {
	sorted := append([]string(nil), words...)
	// Longest first so ROWS is tried before ROW.
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	return `(?i)(?:` + strings.Join(sorted, "|") + `)\b`
}

// lexerRules returns the full state table with root as the starting state. All
// lexers share every state so that each one defines the same token symbols.
func lexerRules(root []lexer.Rule) lexer.Rules {
	return lexer.Rules{
		"Root":             root,
		"Body":             bodyRules(),
		"NestedParen":      nestedRules(lexer.Rule{Name: "ParenClose", Pattern: `\)`, Action: lexer.Pop()}),
		"NestedBracket":    nestedRules(lexer.Rule{Name: "BracketClose", Pattern: `\]`, Action: lexer.Pop()}),
		"NestedBrace":      nestedRules(lexer.Rule{Name: "BraceClose", Pattern: `\}`, Action: lexer.Pop()}),
		"Trailer":          trailerRules(),
		"Directive":        append([]lexer.Rule{{Name: "DirectiveClose", Pattern: `\}\}`, Action: lexer.Pop()}}, expressionRules()...),
		"CommentDirective": append([]lexer.Rule{{Name: "CommentDirectiveClose", Pattern: `\}\}\*/`, Action: lexer.Pop()}}, expressionRules()...),
	}
}

func directiveOpeners() []lexer.Rule {
	return []lexer.Rule{
		// Must be tried before block comments, which would otherwise swallow it.
		{Name: "CommentDirectiveOpen", Pattern: `/\*\{\{`, Action: lexer.Push("CommentDirective")},
		{Name: "DirectiveOpen", Pattern: `\{\{`, Action: lexer.Push("Directive")},
	}
}

func quotedIdentifiers() []lexer.Rule {
	return []lexer.Rule{
		{Name: "BackquotedIdent", Pattern: backQuoted},
		{Name: "DoubleQuotedIdent", Pattern: doubleQuoted},
		{Name: "BracketedIdent", Pattern: bracketed},
	}
}

func rootRules() []lexer.Rule {
	rules := []lexer.Rule{
		{Name: "Whitespace", Pattern: whitespace},
		{Name: "Comment", Pattern: lineComment},
	}
	rules = append(rules, directiveOpeners()...)
	rules = append(rules,
		lexer.Rule{Name: "MultilineComment", Pattern: blockComment},
		lexer.Rule{Name: "HeaderKeyword", Pattern: keywordPattern("CREATE", "TABLE")},
	)
	rules = append(rules, quotedIdentifiers()...)
	return append(rules,
		lexer.Rule{Name: "Ident", Pattern: bareIdent},
		lexer.Rule{Name: "Punct", Pattern: `\.`},
		lexer.Rule{Name: "BodyOpen", Pattern: `\(`, Action: lexer.Push("Body")},
		invalidRule,
	)
}

// bodyRules split a table body into directives, top-level identifiers and
// commas, and literal text. Strings and comments are opaque so that directive
// markers inside them are never honored.
func bodyRules() []lexer.Rule {
	rules := directiveOpeners()
	rules = append(rules,
		lexer.Rule{Name: "BodyClose", Pattern: `\)`, Action: lexer.Push("Trailer")},
		lexer.Rule{Name: "Comma", Pattern: `,`},
	)
	rules = append(rules, quotedIdentifiers()...)
	return append(rules,
		lexer.Rule{Name: "Ident", Pattern: bareIdent},
		lexer.Rule{Name: "ParenOpen", Pattern: `\(`, Action: lexer.Push("NestedParen")},
		lexer.Rule{Name: "BraceOpen", Pattern: `\{`, Action: lexer.Push("NestedBrace")},
		lexer.Rule{Name: "Text", Pattern: alternatives(
			singleQuoted, lineComment, blockComment, whitespace,
			"[^\\s,(){}\\[\\]'\"`A-Za-z_/\\-]+", `[/\-]`,
		)},
		invalidRule,
	)
}

// nestedRules consume a balanced group verbatim. Directive markers are not
// recognized below the top level of a body.
func nestedRules(closer lexer.Rule) []lexer.Rule {
	return []lexer.Rule{
		closer,
		{Name: "NestedText", Pattern: alternatives(
			singleQuoted, doubleQuoted, backQuoted, lineComment, blockComment,
			"[^()\\[\\]{}'\"`/\\-]+", `[/\-]`,
		)},
		{Name: "ParenOpen", Pattern: `\(`, Action: lexer.Push("NestedParen")},
		{Name: "BracketOpen", Pattern: `\[`, Action: lexer.Push("NestedBracket")},
		{Name: "BraceOpen", Pattern: `\{`, Action: lexer.Push("NestedBrace")},
		invalidRule,
	}
}

// trailerRules capture table options up to the next directive or CREATE.
func trailerRules() []lexer.Rule {
	rules := directiveOpeners()
	return append(rules,
		lexer.Rule{Name: "CreateKeyword", Pattern: keywordPattern("CREATE"), Action: lexer.Push("Root")},
		lexer.Rule{Name: "TrailerText", Pattern: alternatives(
			`[A-Za-z0-9_]+`, singleQuoted, doubleQuoted, backQuoted, lineComment, blockComment,
			"[^A-Za-z0-9_'\"`{/\\-]+", `[{/\-]`,
		)},
		invalidRule,
	)
}

func expressionRules() []lexer.Rule {
	return []lexer.Rule{
		{Name: "Whitespace", Pattern: whitespace},
		{Name: "Comment", Pattern: lineComment},
		{Name: "MultilineComment", Pattern: blockComment},
		{Name: "String", Pattern: singleQuoted},
		{Name: "BackquotedIdent", Pattern: backQuoted},
		{Name: "DoubleQuotedIdent", Pattern: doubleQuoted},
		{Name: "Variable", Pattern: `@(?:` + bareIdent + `|` + backQuoted + `|` + doubleQuoted + `)`},
		{Name: "Number", Pattern: number},
		{Name: "Keyword", Pattern: keywordPattern(keywords...)},
		{Name: "Ident", Pattern: bareIdent},
		{Name: "Operator", Pattern: operator},
		invalidRule,
	}
}

func alternatives(patterns ...string) string {
	return `(?:` + strings.Join(patterns, `|`) + `)`
}
