package ast

import (
	"regexp"
	"strings"

	"github.com/pseudomuto/dbtemplate/pkg/compare"
)

// Quoting records how an identifier was written in the source.
type Quoting int

const (
	// Bare identifiers match [A-Za-z_][A-Za-z0-9_]*.
	Bare Quoting = iota
	// BackQuoted identifiers are wrapped in `...`; `` encodes a literal backquote.
	BackQuoted
	// DoubleQuoted identifiers are wrapped in "..."; "" encodes a literal quote.
	DoubleQuoted
	// Bracketed identifiers are wrapped in [...] and have no escapes.
	Bracketed
)

var bareIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (q Quoting) String() string {
	switch q {
	case BackQuoted:
		return "back-quoted"
	case DoubleQuoted:
		return "double-quoted"
	case Bracketed:
		return "bracketed"
	default:
		return "bare"
	}
}

type (
	// Identifier is a single name together with the quoting it was written in.
	// Name holds the decoded text: doubled quote characters are collapsed.
	Identifier struct {
		Name    string
		Quoting Quoting
	}

	// QualifiedName is a dotted path of one to three identifiers, as in
	// column, table.column or schema.table.column.
	QualifiedName struct {
		Parts []Identifier
	}
)

// NewIdentifier returns a bare identifier when name is a valid bare name and a
// back-quoted one otherwise.
func NewIdentifier(name string) Identifier {
	if bareIdentifier.MatchString(name) {
		return Identifier{Name: name}
	}
	return Identifier{Name: name, Quoting: BackQuoted}
}

// String re-encodes the identifier exactly as it would appear in source,
// doubling embedded quote characters.
func (i Identifier) String() string {
	switch i.Quoting {
	case BackQuoted:
		return "`" + strings.ReplaceAll(i.Name, "`", "``") + "`"
	case DoubleQuoted:
		return `"` + strings.ReplaceAll(i.Name, `"`, `""`) + `"`
	case Bracketed:
		return "[" + i.Name + "]"
	default:
		return i.Name
	}
}

// Equal reports whether both identifiers have the same name and quoting.
func (i Identifier) Equal(other Identifier) bool {
	return i.Name == other.Name && i.Quoting == other.Quoting
}

// Matches reports whether two identifiers refer to the same object. Bare names
// compare case-insensitively; quoted names compare exactly.
func (i Identifier) Matches(other Identifier) bool {
	if i.Quoting == Bare && other.Quoting == Bare {
		return strings.EqualFold(i.Name, other.Name)
	}
	return i.Name == other.Name
}

// NewQualifiedName builds a qualified name from already-decoded parts.
func NewQualifiedName(parts ...string) QualifiedName {
	q := QualifiedName{Parts: make([]Identifier, len(parts))}
	for n, p := range parts {
		q.Parts[n] = NewIdentifier(p)
	}
	return q
}

// String re-encodes the name, keeping each part's original quoting.
func (q QualifiedName) String() string {
	parts := make([]string, len(q.Parts))
	for n, p := range q.Parts {
		parts[n] = p.String()
	}
	return strings.Join(parts, ".")
}

// UniqueName joins the decoded parts with dots. Two names with the same
// UniqueName denote the same object regardless of how they were quoted.
func (q QualifiedName) UniqueName() string {
	parts := make([]string, len(q.Parts))
	for n, p := range q.Parts {
		parts[n] = p.Name
	}
	return strings.Join(parts, ".")
}

// TableName returns the decoded last part of the name.
func (q QualifiedName) TableName() string {
	if len(q.Parts) == 0 {
		return ""
	}
	return q.Parts[len(q.Parts)-1].Name
}

// Equal reports whether both names have identical parts.
func (q QualifiedName) Equal(other QualifiedName) bool {
	return compare.Slices(q.Parts, other.Parts, func(a, b Identifier) bool {
		return a.Equal(b)
	})
}

// Matches reports whether both names refer to the same object, see
// Identifier.Matches.
func (q QualifiedName) Matches(other QualifiedName) bool {
	return compare.Slices(q.Parts, other.Parts, func(a, b Identifier) bool {
		return a.Matches(b)
	})
}
