package node

import "strconv"

// Merge deep-merges override on top of def and returns a new tree. Neither
// input is modified.
//
// Mapping overrides are merged key by key: a mapping value is merged
// recursively into the default's value for that key (a missing or
// non-mapping default counts as an empty mapping), and any other value
// replaces the default outright. Sequences are never merged element-wise
// below the root.
//
// A sequence override at the root switches to append mode: the result
// becomes the default's values followed by the override items, with empty
// entries (see IsEmpty) removed and duplicates dropped keeping the first
// occurrence. Entries removed this way include ones that came from def.
func Merge(def, override Node) Node {
	switch override.kind {
	case KindMapping:
		if override.Len() == 0 {
			return def.Clone()
		}
		result := asMapping(def)
		for _, k := range override.keys {
			v := override.fields[k]
			if v.kind == KindMapping {
				cur, ok := result.fields[k]
				if !ok {
					cur = Map()
				}
				result.put(k, Merge(cur, v))
				continue
			}
			result.put(k, v.Clone())
		}
		return result
	case KindSequence:
		if override.Len() == 0 {
			return def.Clone()
		}
		return appendUnique(def.Values(), override.items)
	default:
		return def.Clone()
	}
}

// MergeAll folds overrides onto def from left to right.
func MergeAll(def Node, overrides ...Node) Node {
	out := def.Clone()
	for _, o := range overrides {
		out = Merge(out, o)
	}
	return out
}

// IsEmpty reports whether n counts as empty in the sequence branch of
// Merge: null, false, 0, 0.0, "", "0", and empty sequences or mappings.
func IsEmpty(n Node) bool {
	switch n.kind {
	case KindSequence, KindMapping:
		return n.Len() == 0
	}
	switch v := n.scalar.(type) {
	case nil:
		return true
	case bool:
		return !v
	case int64:
		return v == 0
	case float64:
		return v == 0
	case string:
		return v == "" || v == "0"
	default:
		return false
	}
}

// asMapping returns a copy of n as a mapping. Sequences are re-keyed by
// index so no value is lost; scalars become an empty mapping.
func asMapping(n Node) Node {
	switch n.kind {
	case KindMapping:
		return n.Clone()
	case KindSequence:
		out := Map()
		for i, it := range n.items {
			out.put(strconv.Itoa(i), it.Clone())
		}
		return out
	default:
		return Map()
	}
}

// appendUnique concatenates head and tail, drops empty entries and keeps
// the first occurrence of each value. Scalars compare by their string
// form, so 4 and "4" are the same entry.
func appendUnique(head, tail []Node) Node {
	out := Node{kind: KindSequence}
	seen := make(map[string]struct{}, len(head)+len(tail))
	add := func(n Node) {
		if IsEmpty(n) {
			return
		}
		key := dedupKey(n)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out.items = append(out.items, n.Clone())
	}
	for _, n := range head {
		add(n)
	}
	for _, n := range tail {
		add(n)
	}
	return out
}

func dedupKey(n Node) string {
	if n.kind == KindScalar {
		return "s:" + n.String()
	}
	return "c:" + n.canonical()
}
