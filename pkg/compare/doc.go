// Package compare holds generic helpers for writing structural Equal methods.
//
// Syntax tree nodes are compared field by field, and most of that work is the
// same few patterns: nil pointers on either side, optional sub-nodes, and
// ordered children. The helpers here cover those patterns so that an Equal
// method reads as the list of fields it compares:
//
//	func (t *TableDef) Equal(other *TableDef) bool {
//	    if eq, more := compare.NilCheck(t, other); !more {
//	        return eq
//	    }
//	    return t.Name.Equal(other.Name) &&
//	        compare.Slices(t.Body, other.Body, EqualBodyItems)
//	}
package compare
