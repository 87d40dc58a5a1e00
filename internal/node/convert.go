package node

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupported is returned when a Go value has no Node representation.
var ErrUnsupported = errors.New("unsupported value")

// positional reports whether keys address a sequence: every key is a
// canonical non-negative integer. A single non-integer key makes the
// object mapping-shaped.
func positional(keys []string) bool {
	if len(keys) == 0 {
		return false
	}
	for _, k := range keys {
		if !isIndex(k) {
			return false
		}
	}
	return true
}

func isIndex(k string) bool {
	if k == "" || (len(k) > 1 && k[0] == '0') {
		return false
	}
	for _, r := range k {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// fromFields builds a mapping or, for positional keys, a sequence.
func fromFields(fields []Field) Node {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	if positional(keys) {
		items := make([]Node, len(fields))
		for i, f := range fields {
			items[i] = f.Value
		}
		return Node{kind: KindSequence, items: items}
	}
	n := Node{kind: KindMapping, fields: make(map[string]Node, len(fields))}
	for _, f := range fields {
		n.put(f.Key, f.Value)
	}
	return n
}

// FromValue converts a decoded Go value into a Node. Maps with unordered
// keys are sorted so the result is deterministic.
func FromValue(v any) (Node, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case Node:
		return t.Clone(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Int(int64(t)), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		if t > math.MaxInt64 {
			return Float(float64(t)), nil
		}
		return Int(int64(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case json.Number:
		return fromNumber(t.String()), nil
	case []string:
		return Strings(t...), nil
	case []any:
		items := make([]Node, len(t))
		for i, it := range t {
			n, err := FromValue(it)
			if err != nil {
				return Node{}, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = n
		}
		return Node{kind: KindSequence, items: items}, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sortKeys(keys)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			n, err := FromValue(t[k])
			if err != nil {
				return Node{}, fmt.Errorf("key %q: %w", k, err)
			}
			fields = append(fields, F(k, n))
		}
		return fromFields(fields), nil
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sortKeys(keys)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, F(k, String(t[k])))
		}
		return fromFields(fields), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return FromValue(items)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Node{}, fmt.Errorf("map key type %s: %w", rv.Type().Key(), ErrUnsupported)
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return FromValue(m)
	}
	return Node{}, fmt.Errorf("%T: %w", v, ErrUnsupported)
}

// sortKeys orders integer-looking keys numerically ahead of other keys so
// positional maps keep their index order.
func sortKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		ai, bi := isIndex(a), isIndex(b)
		switch {
		case ai && bi:
			if len(a) != len(b) {
				return len(a) < len(b)
			}
			return a < b
		case ai != bi:
			return ai
		default:
			return a < b
		}
	})
}

func fromNumber(s string) Node {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return String(s)
	}
	return Float(f)
}

// DecodeJSON parses a JSON document into a Node, keeping object keys in
// document order.
func DecodeJSON(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := decodeJSONValue(dec)
	if err != nil {
		return Node{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Node{}, errors.New("decode json: trailing data after document")
	}
	return n, nil
}

func decodeJSONValue(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return Node{}, fmt.Errorf("decode json: %w", err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var fields []Field
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Node{}, fmt.Errorf("decode json: %w", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return Node{}, fmt.Errorf("decode json: unexpected key %v", keyTok)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return Node{}, err
				}
				fields = append(fields, F(key, val))
			}
			if _, err := dec.Token(); err != nil {
				return Node{}, fmt.Errorf("decode json: %w", err)
			}
			if fields == nil {
				return Map(), nil
			}
			return fromFields(fields), nil
		case '[':
			seq := Node{kind: KindSequence, items: []Node{}}
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return Node{}, err
				}
				seq.items = append(seq.items, val)
			}
			if _, err := dec.Token(); err != nil {
				return Node{}, fmt.Errorf("decode json: %w", err)
			}
			return seq, nil
		}
		return Node{}, fmt.Errorf("decode json: unexpected delimiter %v", t)
	case json.Number:
		return fromNumber(t.String()), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	}
	return Node{}, fmt.Errorf("decode json: unexpected token %v", tok)
}

// MarshalJSON encodes n as JSON with mapping keys in insertion order.
func (n Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n Node) writeJSON(buf *bytes.Buffer) error {
	switch n.kind {
	case KindSequence:
		buf.WriteByte('[')
		for i, it := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMapping:
		buf.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := n.fields[k].writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		b, err := json.Marshal(n.scalar)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}

// UnmarshalJSON decodes JSON into n, keeping key order.
func (n *Node) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	*n = decoded
	return nil
}

// FromYAML converts a parsed yaml.v3 node tree into a Node. Aliases are
// resolved and merge keys are not expanded.
func FromYAML(y *yaml.Node) (Node, error) {
	if y == nil {
		return Null(), nil
	}
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return Null(), nil
		}
		return FromYAML(y.Content[0])
	case yaml.AliasNode:
		return FromYAML(y.Alias)
	case yaml.SequenceNode:
		items := make([]Node, 0, len(y.Content))
		for _, c := range y.Content {
			n, err := FromYAML(c)
			if err != nil {
				return Node{}, err
			}
			items = append(items, n)
		}
		return Node{kind: KindSequence, items: items}, nil
	case yaml.MappingNode:
		if len(y.Content) == 0 {
			return Map(), nil
		}
		fields := make([]Field, 0, len(y.Content)/2)
		for i := 0; i+1 < len(y.Content); i += 2 {
			k, v := y.Content[i], y.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return Node{}, fmt.Errorf("line %d: mapping key must be a scalar", k.Line)
			}
			val, err := FromYAML(v)
			if err != nil {
				return Node{}, err
			}
			fields = append(fields, F(k.Value, val))
		}
		return fromFields(fields), nil
	case yaml.ScalarNode:
		return yamlScalar(y)
	}
	return Node{}, fmt.Errorf("line %d: unknown yaml node kind %d", y.Line, y.Kind)
}

func yamlScalar(y *yaml.Node) (Node, error) {
	switch y.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := y.Decode(&b); err != nil {
			return Node{}, fmt.Errorf("line %d: %w", y.Line, err)
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := y.Decode(&i); err != nil {
			var f float64
			if ferr := y.Decode(&f); ferr != nil {
				return Node{}, fmt.Errorf("line %d: %w", y.Line, err)
			}
			return Float(f), nil
		}
		return Int(i), nil
	case "!!float":
		var f float64
		if err := y.Decode(&f); err != nil {
			return Node{}, fmt.Errorf("line %d: %w", y.Line, err)
		}
		return Float(f), nil
	default:
		return String(y.Value), nil
	}
}

// DecodeYAML parses a YAML document into a Node.
func DecodeYAML(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Node{}, fmt.Errorf("decode yaml: %w", err)
	}
	return FromYAML(&doc)
}

// ToYAML converts n into a yaml.v3 node tree. Multi-line strings use the
// literal block style.
func (n Node) ToYAML() *yaml.Node {
	switch n.kind {
	case KindSequence:
		y := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range n.items {
			y.Content = append(y.Content, it.ToYAML())
		}
		return y
	case KindMapping:
		y := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range n.keys {
			y.Content = append(y.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				n.fields[k].ToYAML(),
			)
		}
		return y
	}

	y := &yaml.Node{Kind: yaml.ScalarNode}
	switch v := n.scalar.(type) {
	case nil:
		y.Tag, y.Value = "!!null", "null"
	case bool:
		y.Tag, y.Value = "!!bool", strconv.FormatBool(v)
	case int64:
		y.Tag, y.Value = "!!int", strconv.FormatInt(v, 10)
	case float64:
		y.Tag, y.Value = "!!float", strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		y.Tag, y.Value = "!!str", v
		if strings.Contains(v, "\n") {
			y.Style = yaml.LiteralStyle
		}
	}
	return y
}

// MarshalYAML lets yaml.v3 encode Nodes embedded in other values.
func (n Node) MarshalYAML() (any, error) {
	return n.ToYAML(), nil
}

// Interface converts n into plain Go values: map[string]any, []any and
// scalars. Key order is lost.
func (n Node) Interface() any {
	switch n.kind {
	case KindSequence:
		out := make([]any, len(n.items))
		for i, it := range n.items {
			out[i] = it.Interface()
		}
		return out
	case KindMapping:
		out := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			out[k] = n.fields[k].Interface()
		}
		return out
	default:
		return n.scalar
	}
}
