package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Node is one value of a metadata document: a Leaf, a List or a *Map.
// Numbers, booleans and nulls are kept as Other and never scored.
type Node interface {
	node()
}

// Leaf is a string value.
type Leaf string

// List is a JSON array.
type List []Node

// Map is a JSON object with its key order preserved.
type Map struct {
	Keys   []string
	Fields map[string]Node
}

// Other is any scalar that is not a string.
type Other struct {
	Value any
}

func (Leaf) node()  {}
func (List) node()  {}
func (*Map) node()  {}
func (Other) node() {}

// Get returns the field called key, or nil.
func (m *Map) Get(key string) Node {
	if m == nil {
		return nil
	}
	return m.Fields[key]
}

// String returns the field called key when it is a Leaf.
func (m *Map) String(key string) (string, bool) {
	leaf, ok := m.Get(key).(Leaf)
	return string(leaf), ok
}

// Visitor receives every string leaf together with the innermost map that
// contains it.
type Visitor interface {
	VisitLeaf(owner *Map, value string)
}

// Walk visits the leaves under n in document order.
func Walk(n Node, owner *Map, v Visitor) {
	switch t := n.(type) {
	case Leaf:
		if owner != nil {
			v.VisitLeaf(owner, string(t))
		}
	case List:
		for _, item := range t {
			Walk(item, owner, v)
		}
	case *Map:
		for _, k := range t.Keys {
			Walk(t.Fields[k], t, v)
		}
	}
}

// Similarity is difflib's ratio over the lower-cased characters of a and b.
func Similarity(a, b string) float64 {
	m := difflib.NewMatcher(
		strings.Split(strings.ToLower(a), ""),
		strings.Split(strings.ToLower(b), ""),
	)
	return m.Ratio()
}

// bestMapVisitor keeps the map whose leaf is most similar to target.
// Only a strictly higher ratio replaces the current best.
type bestMapVisitor struct {
	target string
	ratio  float64
	best   *Map
}

func (b *bestMapVisitor) VisitLeaf(owner *Map, value string) {
	if r := Similarity(value, b.target); r > b.ratio {
		b.ratio, b.best = r, owner
	}
}

// BestMatch returns the map holding the leaf most similar to target and its
// ratio. It returns nil when no leaf scores above zero.
func BestMatch(root Node, target string) (*Map, float64) {
	v := &bestMapVisitor{target: target}
	Walk(root, nil, v)
	return v.best, v.ratio
}

// Value converts n back to plain Go values for JSON encoding.
func Value(n Node) any {
	switch t := n.(type) {
	case Leaf:
		return string(t)
	case List:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, Value(item))
		}
		return out
	case *Map:
		out := make(map[string]any, len(t.Keys))
		for _, k := range t.Keys {
			out[k] = Value(t.Fields[k])
		}
		return out
	case Other:
		return t.Value
	default:
		return nil
	}
}

// Decode parses one JSON value from r into a Node tree.
func Decode(r io.Reader) (Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return decodeValue(dec)
}

func decodeValue(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return Leaf(t), nil
	default:
		return Other{Value: t}, nil
	}
}

func decodeObject(dec *json.Decoder) (Node, error) {
	m := &Map{Fields: make(map[string]Node)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		if _, dup := m.Fields[key]; !dup {
			m.Keys = append(m.Keys, key)
		}
		m.Fields[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeArray(dec *json.Decoder) (Node, error) {
	var list List
	for dec.More() {
		item, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return list, nil
}
