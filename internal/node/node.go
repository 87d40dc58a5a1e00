// Package node implements the configuration tree shared by every generator
// in devtools.
//
// A Node is a tagged variant: a scalar leaf, an ordered sequence, or an
// insertion-ordered mapping from string keys to Nodes. Generators build a
// default tree, merge the project's override tree on top of it with Merge,
// and hand the result to a serializer (XML for PHPUnit, YAML for
// Codeception).
//
// Nodes are values. Every method that changes a tree returns a new Node and
// leaves the receiver untouched, so a shared default tree can be merged any
// number of times within one invocation.
package node

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Node holds.
type Kind uint8

const (
	// KindScalar is a leaf value: null, bool, int64, float64 or string.
	KindScalar Kind = iota
	// KindSequence is an ordered list of Nodes addressed by position.
	KindSequence
	// KindMapping is an ordered map of Nodes addressed by string key.
	KindMapping
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Node is a configuration value. The zero Node is a null scalar.
type Node struct {
	kind   Kind
	scalar any
	items  []Node
	keys   []string
	fields map[string]Node
}

// Field is a key/value pair used to build mappings.
type Field struct {
	Key   string
	Value Node
}

// F is shorthand for Field{Key: key, Value: v}.
func F(key string, v Node) Field {
	return Field{Key: key, Value: v}
}

// Null returns a null scalar.
func Null() Node { return Node{} }

// Bool returns a boolean scalar.
func Bool(b bool) Node { return Node{scalar: b} }

// Int returns an integer scalar.
func Int(i int64) Node { return Node{scalar: i} }

// Float returns a floating point scalar.
func Float(f float64) Node { return Node{scalar: f} }

// String returns a string scalar.
func String(s string) Node { return Node{scalar: s} }

// Seq returns a sequence holding copies of items.
func Seq(items ...Node) Node {
	out := make([]Node, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return Node{kind: KindSequence, items: out}
}

// Map returns a mapping holding copies of fields in the given order. A key
// that appears twice keeps its first position and its last value.
func Map(fields ...Field) Node {
	n := Node{kind: KindMapping, fields: make(map[string]Node, len(fields))}
	for _, f := range fields {
		n.put(f.Key, f.Value.Clone())
	}
	return n
}

// Strings returns a sequence of string scalars.
func Strings(values ...string) Node {
	items := make([]Node, len(values))
	for i, v := range values {
		items[i] = String(v)
	}
	return Node{kind: KindSequence, items: items}
}

// Kind reports the variant held by n.
func (n Node) Kind() Kind { return n.kind }

// IsMapping reports whether n is mapping-shaped.
func (n Node) IsMapping() bool { return n.kind == KindMapping }

// IsSequence reports whether n is sequence-shaped.
func (n Node) IsSequence() bool { return n.kind == KindSequence }

// IsScalar reports whether n is a leaf.
func (n Node) IsScalar() bool { return n.kind == KindScalar }

// IsNull reports whether n is the null scalar.
func (n Node) IsNull() bool { return n.kind == KindScalar && n.scalar == nil }

// Value returns the raw scalar value (nil, bool, int64, float64 or string).
// It returns nil for sequences and mappings.
func (n Node) Value() any {
	if n.kind != KindScalar {
		return nil
	}
	return n.scalar
}

// Len returns the number of items or fields. Scalars have length zero.
func (n Node) Len() int {
	switch n.kind {
	case KindSequence:
		return len(n.items)
	case KindMapping:
		return len(n.keys)
	default:
		return 0
	}
}

// Keys returns the mapping keys in insertion order.
func (n Node) Keys() []string {
	if n.kind != KindMapping {
		return nil
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Items returns copies of the sequence items.
func (n Node) Items() []Node {
	if n.kind != KindSequence {
		return nil
	}
	out := make([]Node, len(n.items))
	for i, it := range n.items {
		out[i] = it.Clone()
	}
	return out
}

// Values returns the children of a sequence or mapping in order. For a
// mapping the keys are dropped.
func (n Node) Values() []Node {
	switch n.kind {
	case KindSequence:
		return n.Items()
	case KindMapping:
		out := make([]Node, len(n.keys))
		for i, k := range n.keys {
			out[i] = n.fields[k].Clone()
		}
		return out
	default:
		return nil
	}
}

// Get returns the value stored under key in a mapping.
func (n Node) Get(key string) (Node, bool) {
	if n.kind != KindMapping {
		return Node{}, false
	}
	v, ok := n.fields[key]
	if !ok {
		return Node{}, false
	}
	return v.Clone(), true
}

// Lookup walks a path of mapping keys and returns the node at the end.
func (n Node) Lookup(path ...string) (Node, bool) {
	cur := n
	for _, key := range path {
		next, ok := cur.Get(key)
		if !ok {
			return Node{}, false
		}
		cur = next
	}
	return cur, true
}

// Set returns a copy of n with key set to v. A non-mapping receiver is
// treated as an empty mapping.
func (n Node) Set(key string, v Node) Node {
	out := n.Clone()
	if out.kind != KindMapping {
		out = Map()
	}
	out.put(key, v.Clone())
	return out
}

// SetPath returns a copy of n with the value at path set to v, creating
// intermediate mappings as needed.
func (n Node) SetPath(v Node, path ...string) Node {
	if len(path) == 0 {
		return v.Clone()
	}
	child, _ := n.Get(path[0])
	return n.Set(path[0], child.SetPath(v, path[1:]...))
}

// Delete returns a copy of n without key.
func (n Node) Delete(key string) Node {
	out := n.Clone()
	if out.kind != KindMapping {
		return out
	}
	if _, ok := out.fields[key]; !ok {
		return out
	}
	delete(out.fields, key)
	for i, k := range out.keys {
		if k == key {
			out.keys = append(out.keys[:i], out.keys[i+1:]...)
			break
		}
	}
	return out
}

// Append returns a copy of the sequence n with items appended. A
// non-sequence receiver is treated as an empty sequence.
func (n Node) Append(items ...Node) Node {
	out := n.Clone()
	if out.kind != KindSequence {
		out = Node{kind: KindSequence}
	}
	for _, it := range items {
		out.items = append(out.items, it.Clone())
	}
	return out
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	switch n.kind {
	case KindSequence:
		items := make([]Node, len(n.items))
		for i, it := range n.items {
			items[i] = it.Clone()
		}
		return Node{kind: KindSequence, items: items}
	case KindMapping:
		out := Node{
			kind:   KindMapping,
			keys:   make([]string, len(n.keys)),
			fields: make(map[string]Node, len(n.fields)),
		}
		copy(out.keys, n.keys)
		for k, v := range n.fields {
			out.fields[k] = v.Clone()
		}
		return out
	default:
		return n
	}
}

// Equal reports whether a and b hold the same variant with equal contents.
// Mapping key order is ignored; scalar types must match exactly.
func (n Node) Equal(o Node) bool {
	if n.kind != o.kind {
		return false
	}
	switch n.kind {
	case KindSequence:
		if len(n.items) != len(o.items) {
			return false
		}
		for i := range n.items {
			if !n.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(n.keys) != len(o.keys) {
			return false
		}
		for k, v := range n.fields {
			ov, ok := o.fields[k]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return n.scalar == o.scalar
	}
}

// String renders a scalar the way it is written into generated files:
// null and false become "", true becomes "1", floats use the shortest
// representation. Composite nodes render as a compact flow form.
func (n Node) String() string {
	switch n.kind {
	case KindScalar:
		return scalarString(n.scalar)
	case KindSequence:
		parts := make([]string, len(n.items))
		for i, it := range n.items {
			parts[i] = it.canonical()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		parts := make([]string, len(n.keys))
		for i, k := range n.keys {
			parts[i] = strconv.Quote(k) + ": " + n.fields[k].canonical()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
}

// Text renders a scalar for human-facing attribute values: booleans become
// "true"/"false" and null becomes "". Composite nodes behave like String.
func (n Node) Text() string {
	if n.kind == KindScalar {
		if b, ok := n.scalar.(bool); ok {
			return strconv.FormatBool(b)
		}
	}
	return n.String()
}

// canonical is a type-tagged encoding used for composite comparison.
func (n Node) canonical() string {
	if n.kind == KindScalar {
		switch v := n.scalar.(type) {
		case nil:
			return "null"
		case string:
			return strconv.Quote(v)
		default:
			return scalarString(v)
		}
	}
	return n.String()
}

func (n *Node) put(key string, v Node) {
	if _, ok := n.fields[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = v
}

func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case bool:
		if s {
			return "1"
		}
		return ""
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		if math.IsInf(s, 0) || math.IsNaN(s) {
			return strconv.FormatFloat(s, 'f', -1, 64)
		}
		if s == math.Trunc(s) && math.Abs(s) < 1e15 {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'g', -1, 64)
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
