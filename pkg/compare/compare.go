package compare

// NilCheck handles the nil cases of comparing two pointers.
//
// It returns (equal, needsMoreChecks): when either pointer is nil, equal is
// the final answer and needsMoreChecks is false. When both are non-nil the
// caller must go on to compare fields.
//
//	func (g *Group) Equal(other Expression) bool {
//	    o, ok := other.(*Group)
//	    if eq, more := compare.NilCheck(g, o); !ok || !more {
//	        return ok && eq
//	    }
//	    return EqualExpressions(g.Inner, o.Inner)
//	}
func NilCheck[T any](a, b *T) (equal bool, needsMoreChecks bool) {
	if a == nil && b == nil {
		return true, false
	}
	if a == nil || b == nil {
		return false, false
	}
	return false, true
}

// PointersWithEqual compares two optional values. Both nil is equal; one nil
// is not; otherwise equalFunc decides.
//
//	compare.PointersWithEqual(c.Else, o.Else, func(a, b *Statement) bool {
//	    return a.Equal(*b)
//	})
func PointersWithEqual[T any](a, b *T, equalFunc func(*T, *T) bool) bool {
	if eq, more := NilCheck(a, b); !more {
		return eq
	}
	return equalFunc(a, b)
}

// Slices reports whether a and b have the same length and equalFunc holds for
// every pair of elements at the same index.
func Slices[T any](a, b []T, equalFunc func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalFunc(a[i], b[i]) {
			return false
		}
	}
	return true
}

// MapsWithEqual reports whether a and b have the same keys and equalFunc holds
// for the values stored under each key.
func MapsWithEqual[K comparable, V any](a, b map[K]V, equalFunc func(V, V) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || !equalFunc(v, bv) {
			return false
		}
	}
	return true
}
