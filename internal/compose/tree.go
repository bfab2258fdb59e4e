package compose

import (
	"strings"
)

// Get looks up a dotted path.
func Get(t Tree, path string) (any, bool) {
	if path == "" {
		return t, t != nil
	}
	var cur any = t
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(Tree)
		if !ok {
			return nil, false
		}
		cur, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set writes v at a dotted path, creating intermediate objects as needed.
func Set(t Tree, path string, v any) {
	parts := strings.Split(path, ".")
	cur := t
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(Tree)
		if !ok {
			next = Tree{}
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = v
}

// Copy returns a deep copy of t.
func Copy(t Tree) Tree {
	if t == nil {
		return nil
	}
	return deepCopy(t).(Tree)
}

// MergeTrees recursively merges src into a copy of dst with the generic rule:
// objects merge key by key, everything else is replaced. It is used for role
// inheritance, where no domain schema applies.
func MergeTrees(dst, src Tree) Tree {
	out := Copy(dst)
	if out == nil {
		out = Tree{}
	}
	mergeInto(out, src)
	return out
}

func mergeInto(dst, src Tree) {
	for k, v := range src {
		sub, isTree := v.(Tree)
		cur, curIsTree := dst[k].(Tree)
		if isTree && curIsTree {
			mergeInto(cur, sub)
			continue
		}
		dst[k] = deepCopy(v)
	}
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case Tree:
		out := make(Tree, len(x))
		for k, e := range x {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}

// Number reads a decoded YAML or JSON scalar as a float.
func Number(v any) (float64, bool) { return toFloat(v) }

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
