package codec

// NullSentinel stands in for JSON null wherever a value must be a string
const NullSentinel = "__null__"

// FlattenPaths returns every leaf path of v in document order without
// duplicates. A null leaf is a path like any other scalar; a null
// document yields the single root path "".
func FlattenPaths(v Value) []string {
	var paths []string
	seen := make(map[string]struct{})
	Walk(v, "", func(path string, _ Value) {
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	})
	return paths
}

// FlattenTree returns the structural paths of v: every object, and every
// array whose first element is not an object. The root is spelled
// RootKey. Scalars contribute nothing.
func FlattenTree(v Value) []string {
	var paths []string
	seen := make(map[string]struct{})
	add := func(path string) {
		if path == "" {
			path = RootKey
		}
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	var walk func(v Value, prefix string)
	walk = func(v Value, prefix string) {
		switch v.kind {
		case KindObject:
			add(prefix)
			for _, m := range v.members {
				walk(m.Value, FieldPath(prefix, m.Name))
			}
		case KindArray:
			if len(v.items) > 0 && v.items[0].kind != KindObject {
				add(prefix)
			}
			for i, item := range v.items {
				walk(item, IndexPath(prefix, i))
			}
		}
	}
	walk(v, "")
	return paths
}

// MapPaths maps every leaf path of v to its textual value, with null
// leaves mapped to NullSentinel. Paths that collide keep the last value.
func MapPaths(v Value) map[string]string {
	out := make(map[string]string)
	Walk(v, "", func(path string, leaf Value) {
		out[path] = LeafText(leaf)
	})
	return out
}

// LeafText returns the string stored for a scalar leaf
func LeafText(leaf Value) string {
	if leaf.kind == KindNull {
		return NullSentinel
	}
	return leaf.text
}
