package codec

// Kind identifies which variant a Value holds
type Kind uint8

const (
	// KindNull is the JSON null literal
	KindNull Kind = iota
	// KindBool is true or false
	KindBool
	// KindNumber is a JSON number, kept as its literal text
	KindNumber
	// KindString is a JSON string
	KindString
	// KindObject is an ordered set of named members
	KindObject
	// KindArray is an ordered sequence of values
	KindArray
)

// String returns the lower-case name of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	}
	return "unknown"
}

// Member is one name/value pair of an object
type Member struct {
	Name  string
	Value Value
}

// Value is a parsed JSON node. The zero Value is JSON null.
// Objects keep their members in document order and numbers keep the
// literal text they were written with. A Value is never mutated after
// construction; Replace returns a new tree.
type Value struct {
	kind    Kind
	text    string   // scalar text for bool, number and string
	members []Member // object members, document order
	items   []Value  // array elements
}

// Null returns the JSON null value
func Null() Value { return Value{} }

// Bool returns a boolean value
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, text: "true"}
	}
	return Value{kind: KindBool, text: "false"}
}

// Number returns a number value holding the given literal
func Number(literal string) Value { return Value{kind: KindNumber, text: literal} }

// String returns a string value
func String(s string) Value { return Value{kind: KindString, text: s} }

// Object returns an object holding members in the given order
func Object(members ...Member) Value {
	return Value{kind: KindObject, members: members}
}

// Array returns an array holding items in the given order
func Array(items ...Value) Value {
	return Value{kind: KindArray, items: items}
}

// Kind reports which variant v holds
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsContainer reports whether v is an object or an array
func (v Value) IsContainer() bool { return v.kind == KindObject || v.kind == KindArray }

// Text returns the textual form of a scalar: the string contents, the
// number literal, or "true"/"false". Null and containers return "".
func (v Value) Text() string { return v.text }

// Members returns the object members in document order
func (v Value) Members() []Member { return v.members }

// Items returns the array elements
func (v Value) Items() []Value { return v.items }

// Len returns the number of members or items of a container
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return len(v.members)
	case KindArray:
		return len(v.items)
	}
	return 0
}

// Field returns the member named name
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for _, m := range v.members {
		if m.Name == name {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Index returns the i-th array element
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}
