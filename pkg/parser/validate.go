package parser

import (
	"github.com/pseudomuto/dbtemplate/pkg/ast"
)

// Validate checks that every dependency directive links tables the document
// actually defines. For the directive in gap i, the parent (FOR EACH ROW OF)
// must be one of Tables[0..i] and the child (ROWS OF) must be Tables[i+1].
// Names are matched with QualifiedName.Matches. Failures are StructuralErrors.
func Validate(doc *ast.Document) error {
	for i := 0; i < len(doc.Tables)-1; i++ {
		dep := doc.Dependency(i)
		if dep == nil {
			continue
		}

		if next := doc.Tables[i+1]; !dep.To.Matches(next.Name) {
			return &Error{
				Kind:       StructuralError,
				Pos:        dep.Pos,
				Production: "dependency",
				Message:    "derived table name mismatch: directive generates " + dep.To.String() + " but the next table is " + next.Name.String(),
			}
		}

		if !definedBefore(doc.Tables[:i+1], dep.From) {
			return &Error{
				Kind:       StructuralError,
				Pos:        dep.Pos,
				Production: "dependency",
				Message:    "unknown parent table " + dep.From.String(),
			}
		}
	}

	return nil
}

func definedBefore(tables []*ast.TableDef, name ast.QualifiedName) bool {
	for _, t := range tables {
		if t.Name.Matches(name) {
			return true
		}
	}
	return false
}
