// Package parser parses data-generation templates into pkg/ast trees using
// github.com/alecthomas/participle/v2.
//
// A template is a series of CREATE TABLE statements. Everything inside a
// table's parentheses is passed through as literal SQL except for directives,
// which are delimited by {{ ... }} or /*{{ ... }}*/ and hold expressions:
//
//	{{ @seed := 42 }}
//	CREATE TABLE users (
//	    id   INT  {{ rownum }},
//	    name TEXT {{ rand.regex('[a-z]{8}') }},
//	    note TEXT DEFAULT 'keep {{ this }} literal'
//	);
//	{{ FOR EACH ROW OF users GENERATE 1 + rand.range(0, 5) ROWS OF orders }}
//	CREATE TABLE orders (id INT {{ subrownum }});
//
// Scanning is done by a stateful lexer. Directive markers are honored only at
// the top level of a table body and never inside quoted text, comments or
// nested parentheses, brackets and braces. The directive between two tables
// must be a dependency directive, and dependency directives may appear nowhere
// else.
//
// Every failure is reported as an *Error whose Kind is LexError, SyntaxError
// or StructuralError; errors.Is matches them against ErrLex, ErrSyntax and
// ErrStructural. There is no partial result.
//
// Basic usage:
//
//	doc, err := parser.ParseString(src)
//
//	p := parser.New(
//	    parser.WithFilename("shop.sql"),
//	    parser.WithLogger(slog.Default()),
//	    parser.WithStrictDependencies(),
//	)
//	doc, err = p.Parse(file)
//
// Parsers are safe for concurrent use; parsing keeps no shared state.
package parser
