package codec

import (
	"log"
	"strings"
)

// ListItem is the path token shared by every primitive element of one
// array, so the elements collect into a single ScalarList group.
const ListItem = "__list_item__"

// PayloadKind tells whether a group holds named fields or an ordered list
type PayloadKind uint8

const (
	// FieldMap payloads map field names to scalar text
	FieldMap PayloadKind = iota + 1
	// ScalarList payloads hold scalar text in array order
	ScalarList
)

// String returns the payload kind name
func (k PayloadKind) String() string {
	switch k {
	case FieldMap:
		return "fieldmap"
	case ScalarList:
		return "list"
	}
	return "unknown"
}

// Payload is the content of one group. Its kind is fixed by the first
// leaf that created it.
type Payload struct {
	kind   PayloadKind
	fields map[string]string
	names  []string // field insertion order
	items  []string
}

// Kind returns FieldMap or ScalarList
func (p *Payload) Kind() PayloadKind { return p.kind }

// Fields returns a copy of the field map (nil for a ScalarList)
func (p *Payload) Fields() map[string]string {
	if p.kind != FieldMap {
		return nil
	}
	out := make(map[string]string, len(p.fields))
	for k, v := range p.fields {
		out[k] = v
	}
	return out
}

// FieldNames returns field names in the order they were first set
func (p *Payload) FieldNames() []string {
	return append([]string(nil), p.names...)
}

// Items returns a copy of the list (nil for a FieldMap)
func (p *Payload) Items() []string {
	if p.kind != ScalarList {
		return nil
	}
	return append([]string(nil), p.items...)
}

// Groups is the output of MapPathTree: group keys in creation order, each
// with exactly one payload.
type Groups struct {
	keys      []string
	payloads  map[string]*Payload
	conflicts int
}

// Keys returns group keys in the order the groups were created
func (g *Groups) Keys() []string { return append([]string(nil), g.keys...) }

// Get returns the payload of a group
func (g *Groups) Get(key string) (*Payload, bool) {
	p, ok := g.payloads[key]
	return p, ok
}

// Len returns the number of groups
func (g *Groups) Len() int { return len(g.keys) }

// Conflicts returns how many leaves were dropped because their group
// already held the other payload kind
func (g *Groups) Conflicts() int { return g.conflicts }

// MapPathTree partitions v into groups keyed by the path of each leaf's
// structural parent.
//
// Primitive array elements (including null) all map to
// "<array>.__list_item__" and accumulate into one ScalarList keyed by the
// array path. Object and array elements map to "<array>[i]", so every such
// element becomes its own group. A leaf path splits at its last '.' into
// group key and field name; a path without '.' belongs to group RootKey.
func MapPathTree(v Value) *Groups {
	g := &Groups{payloads: make(map[string]*Payload)}
	g.walk(v, "")
	return g
}

func (g *Groups) walk(v Value, prefix string) {
	switch v.kind {
	case KindObject:
		for _, m := range v.members {
			g.walk(m.Value, FieldPath(prefix, m.Name))
		}
	case KindArray:
		for i, item := range v.items {
			if item.IsContainer() {
				g.walk(item, IndexPath(prefix, i))
				continue
			}
			g.walk(item, prefix+"."+ListItem)
		}
	default:
		g.add(prefix, v)
	}
}

func (g *Groups) add(path string, leaf Value) {
	key, field := RootKey, path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		key, field = path[:i], path[i+1:]
	}
	if key == "" {
		key = RootKey
	}

	want := FieldMap
	if field == ListItem {
		want = ScalarList
	}

	p, ok := g.payloads[key]
	if !ok {
		p = &Payload{kind: want}
		if want == FieldMap {
			p.fields = make(map[string]string)
		}
		g.payloads[key] = p
		g.keys = append(g.keys, key)
	}

	if p.kind != want {
		g.conflicts++
		log.Printf("codec: dropping leaf %q: group %q holds a %s, leaf needs a %s", path, key, p.kind, want)
		return
	}

	text := LeafText(leaf)
	if want == ScalarList {
		p.items = append(p.items, text)
		return
	}
	if _, exists := p.fields[field]; !exists {
		p.names = append(p.names, field)
	}
	p.fields[field] = text
}
