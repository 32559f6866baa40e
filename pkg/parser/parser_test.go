package parser_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/pseudomuto/dbtemplate/pkg/ast"
	. "github.com/pseudomuto/dbtemplate/pkg/parser"
	"github.com/stretchr/testify/require"
)

// bodyText re-renders a table body, writing directives as an empty string.
func bodyText(table *ast.TableDef) string {
	var sb strings.Builder
	for _, item := range table.Body {
		switch v := item.(type) {
		case ast.Identifier:
			sb.WriteString(v.String())
		case ast.Comma:
			sb.WriteString(",")
		case ast.LiteralText:
			sb.WriteString(v.Text)
		}
	}
	return sb.String()
}

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(`
		{{ @seed := 42 }}
		CREATE TABLE shop.users (
			id   INT  {{ rownum }},
			name TEXT /*{{ rand.regex('[a-z]{8}') }}*/
		) ENGINE=InnoDB;
		{{ FOR EACH ROW OF shop.users GENERATE 3 ROWS OF shop.orders }}
		CREATE TABLE shop.orders (id INT {{ subrownum }});
	`))
	require.NoError(t, err)

	require.Len(t, doc.Leading, 1)
	require.True(t, doc.Leading[0].Equal(&ast.ExpressionDirective{Statement: ast.Statement{
		Exprs: []ast.Expression{&ast.Assignment{Name: "seed", Value: ast.Num("42")}},
	}}))

	require.Len(t, doc.Tables, 2)
	users := doc.Tables[0]
	require.Equal(t, "shop.users", users.Name.UniqueName())
	require.Equal(t, " ENGINE=InnoDB;\n\t\t", users.Trailing)
	require.Equal(t, "\n\t\t", users.Separator)

	dirs := users.Directives()
	require.Len(t, dirs, 2)
	require.Equal(t, ast.BraceStyle, dirs[0].(*ast.ExpressionDirective).Style)
	require.Equal(t, ast.CommentStyle, dirs[1].(*ast.ExpressionDirective).Style)
	require.True(t, dirs[1].Equal(&ast.ExpressionDirective{Statement: ast.Statement{Exprs: []ast.Expression{
		&ast.Call{Name: ast.NewQualifiedName("rand", "regex"), Args: []ast.Expression{ast.Str("[a-z]{8}")}},
	}}}))

	dep := doc.Dependency(0)
	require.NotNil(t, dep)
	require.True(t, dep.Equal(&ast.DependencyDirective{
		From:  ast.NewQualifiedName("shop", "users"),
		Count: ast.Num("3"),
		To:    ast.NewQualifiedName("shop", "orders"),
	}))
	require.Nil(t, doc.Dependency(1))
	require.Same(t, doc.Tables[1], doc.Table(ast.NewQualifiedName("SHOP", "ORDERS")))
}

func TestParseDependencyPlacement(t *testing.T) {
	doc, err := ParseString(`CREATE TABLE a (id INT) {{ for each rows of a generate 3 rows of b }} CREATE TABLE b (id INT)`)
	require.NoError(t, err)
	require.Len(t, doc.Tables, 2)
	require.Len(t, doc.Dependencies, 1)
	require.True(t, doc.Dependency(0).Equal(&ast.DependencyDirective{
		From:  ast.NewQualifiedName("a"),
		Count: ast.Num("3"),
		To:    ast.NewQualifiedName("b"),
	}))
	require.Equal(t, " ", doc.Tables[0].Trailing)

	doc, err = ParseString(`CREATE TABLE a (id INT) /*{{ FOR EACH ROW OF a GENERATE 2 ROW OF b }}*/ -- two each
CREATE TABLE b (id INT)`)
	require.NoError(t, err)
	require.Equal(t, ast.CommentStyle, doc.Dependency(0).Style)
	require.Equal(t, " -- two each\n", doc.Tables[0].Separator)
	require.Empty(t, doc.Tables[1].Separator)
}

func TestParseBody(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		directives int
	}{
		{name: "directive inside string", body: `note TEXT DEFAULT 'contains {{ not a directive }}'`},
		{name: "comment directive inside string", body: `note TEXT DEFAULT '/*{{ nope }}*/'`},
		{name: "directive inside nested parens", body: `c INT CHECK (c IN (1, {{ 2 }}))`},
		{name: "directive inside line comment", body: "c INT -- {{ rownum }}\n"},
		{name: "directive inside block comment", body: `c INT /* {{ rownum }} */`},
		{name: "comment close sequence inside block comment", body: `c INT /* }}*/`},
		{name: "nested brackets and braces", body: `c INT DEFAULT (ARRAY[1, (2)]) COMMENT {x: [1]}`},
		{name: "quoted identifiers", body: "`we``ird` INT, \"dq\"\"x\" INT, [br ack] INT"},
		{name: "operators and numbers", body: `amount DECIMAL(10, 2) DEFAULT -1.5e3 / 2`},
		{name: "one directive", body: `id INT {{ rownum }}`, directives: 1},
		{name: "directives and text", body: `id INT {{ rownum }}, ts DATETIME /*{{ current_timestamp }}*/ NOT NULL`, directives: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseString("CREATE TABLE t (" + tt.body + ")")
			require.NoError(t, err)
			require.Len(t, doc.Tables, 1)
			require.Len(t, doc.Tables[0].Directives(), tt.directives)
			if tt.directives == 0 {
				require.Equal(t, tt.body, bodyText(doc.Tables[0]))
			}
		})
	}
}

func TestParseBodyItems(t *testing.T) {
	doc, err := ParseString(`CREATE TABLE t (id INT {{ rownum }}, "na""me" VARCHAR(10))`)
	require.NoError(t, err)

	expected := []ast.BodyItem{
		ast.Identifier{Name: "id"},
		ast.LiteralText{Text: " "},
		ast.Identifier{Name: "INT"},
		ast.LiteralText{Text: " "},
		ast.DirectiveSpan{Directive: &ast.ExpressionDirective{Statement: ast.Statement{
			Exprs: []ast.Expression{ast.Keyword(ast.RownumLiteral)},
		}}},
		ast.Comma{},
		ast.LiteralText{Text: " "},
		ast.Identifier{Name: `na"me`, Quoting: ast.DoubleQuoted},
		ast.LiteralText{Text: " "},
		ast.Identifier{Name: "VARCHAR"},
		ast.LiteralText{Text: "(10)"},
	}
	require.Len(t, doc.Tables[0].Body, len(expected))
	for n, item := range expected {
		require.True(t, ast.EqualBodyItems(item, doc.Tables[0].Body[n]), "item %d: %#v", n, doc.Tables[0].Body[n])
	}
}

func TestParsePassThrough(t *testing.T) {
	body := "\n  `id` BIGINT NOT NULL AUTO_INCREMENT, -- primary key (really)\n" +
		"  [name] VARCHAR(255) DEFAULT 'it''s {{ here }}',\n" +
		"  /* dims: {w, h} */ size POINT,\n" +
		"  PRIMARY KEY (`id`)\n"
	trailing := " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COMMENT='t(1)';\n"

	doc, err := ParseString("CREATE TABLE `db`.`t` (" + body + ")" + trailing)
	require.NoError(t, err)
	require.Equal(t, body, bodyText(doc.Tables[0]))
	require.Equal(t, trailing, doc.Tables[0].Trailing)
	require.Equal(t, "`db`.`t`", doc.Tables[0].Name.String())
}

func TestParseTableNames(t *testing.T) {
	tests := []struct {
		input    string
		expected ast.QualifiedName
	}{
		{input: "users", expected: ast.NewQualifiedName("users")},
		{input: "Shop . Users", expected: ast.NewQualifiedName("Shop", "Users")},
		{input: `"my ""db""".users`, expected: ast.QualifiedName{Parts: []ast.Identifier{
			{Name: `my "db"`, Quoting: ast.DoubleQuoted},
			{Name: "users"},
		}}},
		{input: "[a b].`c`.d", expected: ast.QualifiedName{Parts: []ast.Identifier{
			{Name: "a b", Quoting: ast.Bracketed},
			{Name: "c", Quoting: ast.BackQuoted},
			{Name: "d"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			doc, err := ParseString("create table " + tt.input + " (id INT)")
			require.NoError(t, err)
			require.True(t, tt.expected.Equal(doc.Tables[0].Name), "got %s", doc.Tables[0].Name)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  ErrorKind
		at    string // offending text; its first occurrence is the expected offset
	}{
		{
			name:  "dependency before first table",
			input: `{{ for each rows of a generate 3 rows of b }} CREATE TABLE b (id INT)`,
			kind:  StructuralError,
			at:    "{{",
		},
		{
			name:  "dependency with a single table",
			input: `CREATE TABLE a (id INT) {{ for each rows of a generate 3 rows of b }}`,
			kind:  StructuralError,
			at:    "{{",
		},
		{
			name:  "dependency inside body",
			input: `CREATE TABLE a (id INT {{ for each row of a generate 1 row of a }})`,
			kind:  StructuralError,
			at:    "{{",
		},
		{
			name:  "expression directive between tables",
			input: `CREATE TABLE a (id INT) {{ rownum }} CREATE TABLE b (id INT)`,
			kind:  StructuralError,
			at:    "{{",
		},
		{
			name: "two directives between tables",
			input: `CREATE TABLE a (id INT)
{{ for each row of a generate 1 row of b }}
/*{{ for each row of a generate 2 rows of b }}*/
CREATE TABLE b (id INT)`,
			kind: StructuralError,
			at:   "/*{{",
		},
		{name: "no tables", input: "", kind: StructuralError},
		{name: "only comments", input: "-- nothing\n/* here */", kind: StructuralError},
		{name: "only leading directives", input: "{{ @a := 1 }}", kind: StructuralError},
		{
			name:  "case without end",
			input: `CREATE TABLE a (id INT {{ CASE WHEN rownum = 1 THEN 'a' }})`,
			kind:  StructuralError,
			at:    "CASE",
		},
		{
			name:  "unterminated string in directive",
			input: `CREATE TABLE a (id INT {{ 'abc }})`,
			kind:  LexError,
			at:    "'",
		},
		{
			name:  "unterminated string in body",
			input: `CREATE TABLE a (id INT DEFAULT 'abc)`,
			kind:  LexError,
			at:    "'",
		},
		{
			name:  "unterminated bracketed identifier",
			input: `CREATE TABLE [abc (id INT)`,
			kind:  LexError,
			at:    "[",
		},
		{
			name:  "invalid number",
			input: `CREATE TABLE a (id INT {{ 0xZZ }})`,
			kind:  LexError,
			at:    "0xZZ",
		},
		{name: "missing table keyword", input: `CREATE a (id INT)`, kind: SyntaxError},
		{name: "missing create keyword", input: `TABLE a (id INT)`, kind: SyntaxError},
		{name: "missing body", input: `CREATE TABLE a;`, kind: SyntaxError},
		{name: "unclosed body", input: `CREATE TABLE a (id INT`, kind: SyntaxError},
		{name: "unclosed nested group", input: `CREATE TABLE a (id DECIMAL(10, 2)`, kind: SyntaxError},
		{name: "unmatched bracket", input: `CREATE TABLE a (id INT])`, kind: SyntaxError, at: "]"},
		{name: "unmatched brace", input: `CREATE TABLE a (id INT})`, kind: SyntaxError, at: "}"},
		{name: "unclosed directive", input: `CREATE TABLE a (id INT {{ rownum )`, kind: SyntaxError},
		{name: "bad expression", input: `CREATE TABLE a (id INT {{ 1 + }})`, kind: SyntaxError},
		{
			name:  "text after gap directive",
			input: `CREATE TABLE a (id INT) {{ for each row of a generate 1 row of b }} junk CREATE TABLE b (id INT)`,
			kind:  SyntaxError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseString(tt.input)
			require.Nil(t, doc)
			require.Error(t, err)

			var perr *Error
			require.ErrorAs(t, err, &perr)
			require.Equal(t, tt.kind, perr.Kind, perr.Error())
			if tt.at != "" {
				require.Equal(t, strings.Index(tt.input, tt.at), perr.Pos.Offset, perr.Error())
			}
		})
	}
}

func TestParseReportsFirstErrorInText(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		kind       ErrorKind
		at         string
		production string
	}{
		{
			name:       "syntax error before unterminated string",
			input:      `CREATE TABLE a (x {{ 1 + }}, y 'abc)`,
			kind:       SyntaxError,
			at:         "}}",
			production: "directive",
		},
		{
			name:       "invalid number before syntax error",
			input:      `CREATE TABLE a (x {{ 0xZZ }}, y {{ 1 + }})`,
			kind:       LexError,
			at:         "0xZZ",
			production: "number",
		},
		{
			name:       "case without end before syntax error",
			input:      `CREATE TABLE a (x {{ CASE WHEN 1 THEN 2 }}, y {{ 1 + }})`,
			kind:       StructuralError,
			at:         "CASE",
			production: "CASE",
		},
		{
			name:       "dependency in body before unclosed body",
			input:      `CREATE TABLE a (x {{ for each row of a generate 1 row of b }}, y INT`,
			kind:       StructuralError,
			at:         "{{",
			production: "table body",
		},
		{
			name:       "dependency before first table before missing name",
			input:      `{{ for each row of a generate 1 row of b }} CREATE TABLE (x INT)`,
			kind:       StructuralError,
			at:         "{{",
			production: "document",
		},
		{
			name:       "expression between tables before unclosed body",
			input:      `CREATE TABLE a (x INT) {{ rownum }} CREATE TABLE b (y INT`,
			kind:       StructuralError,
			at:         "{{",
			production: "document",
		},
		{
			name:       "text after gap directive before unclosed body",
			input:      `CREATE TABLE a (x INT) {{ for each row of a generate 1 row of b }} junk CREATE TABLE b (y INT`,
			kind:       SyntaxError,
			at:         "junk",
			production: "table options",
		},
		{
			name:       "invalid number before text after gap directive",
			input:      `CREATE TABLE a (x INT) {{ for each row of a generate 0xZZ rows of b }} junk CREATE TABLE b (y INT)`,
			kind:       LexError,
			at:         "0xZZ",
			production: "number",
		},
		{
			name:       "unmatched bracket before case without end",
			input:      `CREATE TABLE a (x INT] {{ CASE WHEN 1 THEN 2 }})`,
			kind:       SyntaxError,
			at:         "]",
			production: "table body",
		},
		{
			name:       "unterminated string in table options",
			input:      `CREATE TABLE a (x INT) COMMENT 'abc`,
			kind:       LexError,
			at:         "'",
			production: "table options",
		},
		{
			name:       "missing table name",
			input:      `CREATE TABLE (x INT)`,
			kind:       SyntaxError,
			at:         "(",
			production: "table",
		},
		{
			name:       "incomplete dependency directive",
			input:      `CREATE TABLE a (x INT) {{ for each row of a generate }} CREATE TABLE b (y INT)`,
			kind:       SyntaxError,
			at:         "}}",
			production: "dependency directive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input)

			var perr *Error
			require.ErrorAs(t, err, &perr)
			require.Equal(t, tt.kind, perr.Kind, perr.Error())
			require.Equal(t, strings.Index(tt.input, tt.at), perr.Pos.Offset, perr.Error())
			require.Equal(t, tt.production, perr.Production, perr.Error())
		})
	}
}

func TestParseLowercaseKeywords(t *testing.T) {
	doc, err := ParseString("create table a (id INT) engine = x\n" +
		"{{ for each row of a generate 2 rows of b }}\n" +
		"Create Table b (id INT) comment 'created'")
	require.NoError(t, err)
	require.Len(t, doc.Tables, 2)
	require.Equal(t, " engine = x\n", doc.Tables[0].Trailing)
	require.Equal(t, " comment 'created'", doc.Tables[1].Trailing)
	require.NotNil(t, doc.Dependency(0))
}

func TestErrorsMatchSentinels(t *testing.T) {
	_, err := ParseString(`CREATE TABLE a (id INT {{ 'abc }})`)
	require.ErrorIs(t, err, ErrLex)
	require.NotErrorIs(t, err, ErrSyntax)

	_, err = ParseString(`CREATE TABLE a (id INT`)
	require.ErrorIs(t, err, ErrSyntax)

	_, err = ParseString(``)
	require.ErrorIs(t, err, ErrStructural)
}

func TestErrorMessageIncludesFilename(t *testing.T) {
	_, err := New(WithFilename("shop.sql")).ParseString("CREATE TABLE a (id INT {{ 'x }})")
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "shop.sql:1:27: lex error in directive: unterminated string literal"), err.Error())
}

func TestParseLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := New(WithLogger(logger), WithFilename("shop.sql"))

	_, err := p.ParseString(`CREATE TABLE a (id INT {{ rownum }}) {{ for each row of a generate 1 row of b }} CREATE TABLE b (id INT)`)
	require.NoError(t, err)
	require.Contains(t, buf.String(), `msg="Parsed template"`)
	require.Contains(t, buf.String(), "tables=2")
	require.Contains(t, buf.String(), "directives=2")

	buf.Reset()
	_, err = p.ParseString(`CREATE TABLE a (`)
	require.Error(t, err)
	require.Contains(t, buf.String(), `msg="Rejected template"`)
	require.Contains(t, buf.String(), "kind=syntax")
}

func TestParseConcurrently(t *testing.T) {
	p := New()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for n := 0; n < 32; n++ {
		n := n
		wg.Add(1)
		go func() {
			defer wg.Done()

			src := fmt.Sprintf(`CREATE TABLE t%d (id INT {{ rownum + %d }})`, n, n)
			doc, err := p.ParseString(src)
			if err != nil {
				errs <- err
				return
			}
			if got := doc.Tables[0].Name.TableName(); got != fmt.Sprintf("t%d", n) {
				errs <- fmt.Errorf("table %d parsed as %s", n, got)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}
