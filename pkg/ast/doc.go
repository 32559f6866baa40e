// Package ast defines the syntax tree produced by parsing a data-generation
// template.
//
// A template is a sequence of CREATE TABLE statements whose bodies are literal
// SQL interleaved with directives written in a small expression language:
//
//	{{ @seed := 42 }}
//	CREATE TABLE shop.users (
//	    id    INT      {{ rownum }},
//	    name  TEXT     {{ rand.regex('[a-z]{8}') }},
//	    since DATETIME /*{{ TIMESTAMP '2020-01-01' + INTERVAL rownum DAY }}*/
//	);
//	{{ FOR EACH ROW OF shop.users GENERATE 3 ROWS OF shop.orders }}
//	CREATE TABLE shop.orders (id INT {{ subrownum }});
//
// The tree mirrors that structure:
//
//   - Document holds the leading (global) directives, the table definitions,
//     and the dependency directives found between consecutive tables.
//   - TableDef holds a table's qualified name, its body as an ordered list of
//     BodyItem values (Identifier, Comma, LiteralText, DirectiveSpan), and the
//     literal text following the closing parenthesis.
//   - Directive is either an ExpressionDirective wrapping a Statement or a
//     DependencyDirective linking two tables.
//   - Expression is a closed set of node types (BinaryOp, UnaryOp, Case, Call,
//     ...); a type switch over Expression covers every case.
//
// Nodes are built once by the parser and never mutated afterwards. Every node
// implements Equal, which compares structure and ignores source positions.
package ast
