package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrPathNotFound is returned when a selector addresses nothing
	ErrPathNotFound = errors.New("path not found")
	// ErrBadSelector is returned for selectors that do not parse
	ErrBadSelector = errors.New("bad selector")
)

// segment is one step of a selector: a member name or an array index
type segment struct {
	name    string
	index   int
	isIndex bool
}

// Selector returns the document selector for a leaf path: "$" for the
// root, "$.<path>" otherwise.
//
// Paths are not escaped. A member name containing '.' or '[' addresses a
// different node than the one that produced the path, and an empty member
// name yields a selector that Lookup rejects with ErrBadSelector.
func Selector(path string) string {
	if path == "" {
		return "$"
	}
	return "$." + path
}

// parseSelector accepts "$", "$.a.b[0]", "$.[0]", "a.b[0]" and "[0].a".
// Member names run until the next '.' or '[' and must not be empty.
func parseSelector(sel string) ([]segment, error) {
	s := strings.TrimPrefix(sel, "$")
	var segs []segment

	for i := 0; i < len(s); {
		switch s[i] {
		case '.':
			i++
			if i == len(s) || s[i] == '.' || (s[i] == '[' && i > 1) {
				return nil, fmt.Errorf("%w: empty member name in %q", ErrBadSelector, sel)
			}
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated index in %q", ErrBadSelector, sel)
			}
			n, err := strconv.Atoi(s[i+1 : i+end])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: bad index in %q", ErrBadSelector, sel)
			}
			segs = append(segs, segment{index: n, isIndex: true})
			i += end + 1
		default:
			end := strings.IndexAny(s[i:], ".[")
			if end < 0 {
				end = len(s) - i
			}
			segs = append(segs, segment{name: s[i : i+end]})
			i += end
		}
	}
	return segs, nil
}

// Lookup returns the node of root addressed by sel
func Lookup(root Value, sel string) (Value, error) {
	segs, err := parseSelector(sel)
	if err != nil {
		return Value{}, err
	}

	cur := root
	for _, seg := range segs {
		var ok bool
		if seg.isIndex {
			cur, ok = cur.Index(seg.index)
		} else {
			cur, ok = cur.Field(seg.name)
		}
		if !ok {
			return Value{}, fmt.Errorf("%w: %s", ErrPathNotFound, sel)
		}
	}
	return cur, nil
}

// Replace returns a copy of root with the node at sel set to v. The
// parent of the addressed node must exist; a missing last member is
// appended to its object. Untouched subtrees are shared with root.
func Replace(root Value, sel string, v Value) (Value, error) {
	segs, err := parseSelector(sel)
	if err != nil {
		return Value{}, err
	}
	out, err := replace(root, segs, v)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %s", err, sel)
	}
	return out, nil
}

func replace(cur Value, segs []segment, v Value) (Value, error) {
	if len(segs) == 0 {
		return v, nil
	}
	seg, rest := segs[0], segs[1:]

	if seg.isIndex {
		child, ok := cur.Index(seg.index)
		if !ok {
			return Value{}, ErrPathNotFound
		}
		nv, err := replace(child, rest, v)
		if err != nil {
			return Value{}, err
		}
		items := append([]Value(nil), cur.items...)
		items[seg.index] = nv
		return Array(items...), nil
	}

	if cur.kind != KindObject {
		return Value{}, ErrPathNotFound
	}
	members := append([]Member(nil), cur.members...)
	for i, m := range members {
		if m.Name != seg.name {
			continue
		}
		nv, err := replace(m.Value, rest, v)
		if err != nil {
			return Value{}, err
		}
		members[i].Value = nv
		return Object(members...), nil
	}
	if len(rest) > 0 {
		return Value{}, ErrPathNotFound
	}
	members = append(members, Member{Name: seg.name, Value: v})
	return Object(members...), nil
}
