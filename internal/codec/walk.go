package codec

import "strconv"

// RootKey names the document root wherever an empty path would be
// ambiguous (tree paths and group keys).
const RootKey = "root"

// VisitFunc is called once per leaf with the leaf's path and value
type VisitFunc func(path string, leaf Value)

// Walk visits every leaf under v in document order. Object members extend
// the path with ".name" (or "name" at the root), array elements with "[i]".
// Scalars and nulls are leaves; empty containers produce no visits.
func Walk(v Value, prefix string, visit VisitFunc) {
	switch v.kind {
	case KindObject:
		for _, m := range v.members {
			Walk(m.Value, FieldPath(prefix, m.Name), visit)
		}
	case KindArray:
		for i, item := range v.items {
			Walk(item, IndexPath(prefix, i), visit)
		}
	default:
		visit(prefix, v)
	}
}

// FieldPath returns the path of member name under prefix
func FieldPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// IndexPath returns the path of element i under prefix
func IndexPath(prefix string, i int) string {
	return prefix + "[" + strconv.Itoa(i) + "]"
}
