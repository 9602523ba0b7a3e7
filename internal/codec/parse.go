package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/valyala/fastjson"
)

// ErrMalformedJSON is returned when input is not a single well-formed JSON value
var ErrMalformedJSON = errors.New("malformed json")

// Parse decodes data into a Value, keeping object members in the order
// they appear. Repeated member names keep the position of the first
// occurrence and the value of the last one.
//
// Only syntax is checked: numbers are kept as literals, so values outside
// the float64 range such as 1e400 are accepted.
func Parse(data []byte) (Value, error) {
	if err := fastjson.ValidateBytes(data); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("%w: trailing data after top-level value", ErrMalformedJSON)
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// literals known to be valid.
func MustParse(s string) Value {
	v, err := Parse([]byte(s))
	if err != nil {
		panic(err)
	}
	return v
}

func parseValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", rune(t))
	case string:
		return String(t), nil
	case json.Number:
		return Number(string(t)), nil
	case float64:
		return Number(strconv.FormatFloat(t, 'g', -1, 64)), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func parseObject(dec *json.Decoder) (Value, error) {
	var members []Member
	seen := make(map[string]int)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		name, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected object key, got %v", tok)
		}

		child, err := parseValue(dec)
		if err != nil {
			return Value{}, err
		}

		if i, dup := seen[name]; dup {
			members[i].Value = child
			continue
		}
		seen[name] = len(members)
		members = append(members, Member{Name: name, Value: child})
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Object(members...), nil
}

func parseArray(dec *json.Decoder) (Value, error) {
	var items []Value
	for dec.More() {
		child, err := parseValue(dec)
		if err != nil {
			return Value{}, err
		}
		items = append(items, child)
	}

	// closing bracket
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Array(items...), nil
}
