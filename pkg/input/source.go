package input

import "strings"

// Source is a keyed input container. The bool reports whether the key is present;
// a present nil value is treated like an absent one by the mapper.
type Source interface {
	Value(namespace, key string) (any, bool)
}

// SourceFunc adapts a function to Source
type SourceFunc func(namespace, key string) (any, bool)

func (f SourceFunc) Value(namespace, key string) (any, bool) { return f(namespace, key) }

// MapSource serves every namespace from one map. Dotted keys descend into nested maps
// when the key itself is absent.
type MapSource map[string]any

func (m MapSource) Value(_, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	return lookupPath(m, key)
}

// NamespacedSource serves each namespace from its own Source
type NamespacedSource map[string]Source

func (n NamespacedSource) Value(namespace, key string) (any, bool) {
	src, ok := n[namespace]
	if !ok {
		return nil, false
	}
	return src.Value(namespace, key)
}

func lookupPath(data map[string]any, path string) (any, bool) {
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		return nil, false
	}
	var current any = data
	for _, part := range append([]string{head}, strings.Split(rest, ".")...) {
		switch m := current.(type) {
		case map[string]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			current = v
		case MapSource:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			current = v
		default:
			return nil, false
		}
	}
	return current, true
}
