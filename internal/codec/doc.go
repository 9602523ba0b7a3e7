// Package codec turns a JSON document into the shapes the storage
// strategies write: leaf path sets, a leaf path to text map, and grouped
// payloads keyed by structural parent.
//
// # Paths
//
// A path names a node by the chain of member names and array indexes that
// leads to it:
//
//	{"a":{"b":1},"d":[true,null]}
//
//	a.b    -> 1
//	d[0]   -> true
//	d[1]   -> null
//
// The root document has the empty path. Paths are opaque outside this
// package; the only place they are taken apart again is group key
// derivation in MapPathTree and selector resolution in Lookup/Replace.
//
// # Builders
//
//   - FlattenPaths: ordered, de-duplicated leaf paths (audit path lists)
//   - FlattenTree: structural paths, root spelled "root"
//   - MapPaths: leaf path -> text, null as "__null__"
//   - MapPathTree: group key -> FieldMap or ScalarList payload
//
// All builders are pure functions of the parsed Value and walk it in
// document order, so their output is deterministic for a given input.
//
// # Grouping
//
// MapPathTree collects the primitive elements of an array into one
// ScalarList under the array's path, and gives every object element its
// own group:
//
//	{"d":[1,2,3],"e":[{"f":1},{"f":2}]}
//
//	d     -> ScalarList ["1","2","3"]
//	e[0]  -> FieldMap {f:"1"}
//	e[1]  -> FieldMap {f:"2"}
//
// A group never changes kind. A leaf that would need the other kind is
// logged and dropped; Groups.Conflicts reports how many were dropped.
package codec
