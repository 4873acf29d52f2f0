package input

import (
	"reflect"
	"strings"
	"sync"
	"unicode"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// AccessorHydrator reads values through GetX, IsX and HasX methods and writes them through SetX.
// Keys are the lowerCamel property names: GetID becomes "id", IsVisible becomes "visible".
type AccessorHydrator struct {
	types sync.Map // reflect.Type -> *accessorInfo
}

// NewAccessorHydrator creates an accessor hydrator
func NewAccessorHydrator() *AccessorHydrator {
	return &AccessorHydrator{}
}

type accessorInfo struct {
	getters []accessor
	setters map[string]accessor
}

type accessor struct {
	key      string
	index    int
	hasError bool
}

var getterPrefixes = []string{"Get", "Is", "Has"}

func (h *AccessorHydrator) info(t reflect.Type) *accessorInfo {
	if cached, ok := h.types.Load(t); ok {
		return cached.(*accessorInfo)
	}

	info := &accessorInfo{setters: make(map[string]accessor)}
	seen := make(map[string]bool)
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		mt := m.Type // receiver is the first input

		if name, ok := strings.CutPrefix(m.Name, "Set"); ok && name != "" && unicode.IsUpper(rune(name[0])) && mt.NumIn() == 2 &&
			(mt.NumOut() == 0 || (mt.NumOut() == 1 && mt.Out(0) == errorType)) {
			key := lowerCamel(name)
			info.setters[strings.ToLower(key)] = accessor{key: key, index: i, hasError: mt.NumOut() == 1}
			continue
		}

		for _, prefix := range getterPrefixes {
			name, ok := strings.CutPrefix(m.Name, prefix)
			if !ok || name == "" || !unicode.IsUpper(rune(name[0])) || mt.NumIn() != 1 {
				continue
			}
			if mt.NumOut() != 1 && !(mt.NumOut() == 2 && mt.Out(1) == errorType) {
				continue
			}
			key := lowerCamel(name)
			if seen[key] {
				break
			}
			seen[key] = true
			info.getters = append(info.getters, accessor{key: key, index: i, hasError: mt.NumOut() == 2})
			break
		}
	}

	actual, _ := h.types.LoadOrStore(t, info)
	return actual.(*accessorInfo)
}

// Extract calls every getter of obj
func (h *AccessorHydrator) Extract(obj any) (map[string]any, error) {
	rv := reflect.ValueOf(obj)
	if !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return nil, &TypeMismatchError{Expected: "object with getters", Value: obj, Context: "extract"}
	}

	info := h.info(rv.Type())
	out := make(map[string]any, len(info.getters))
	for _, g := range info.getters {
		results := rv.Method(g.index).Call(nil)
		if g.hasError && !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}
		out[g.key] = results[0].Interface()
	}
	return out, nil
}

// Hydrate calls the setter for every key that has one. obj is usually a pointer.
func (h *AccessorHydrator) Hydrate(data map[string]any, obj any) (any, error) {
	rv := reflect.ValueOf(obj)
	if !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return nil, &TypeMismatchError{Expected: "object with setters", Value: obj, Context: "hydrate"}
	}

	info := h.info(rv.Type())
	for key, value := range data {
		s, ok := info.setters[strings.ToLower(key)]
		if !ok {
			continue
		}
		method := rv.Method(s.index)
		arg, err := convertTo(value, method.Type().In(0), s.key)
		if err != nil {
			return nil, err
		}
		results := method.Call([]reflect.Value{arg})
		if s.hasError && !results[0].IsNil() {
			return nil, results[0].Interface().(error)
		}
	}
	return obj, nil
}

// lowerCamel lowers the leading upper-case run of an exported name: ID -> id, URLPath -> urlPath.
func lowerCamel(name string) string {
	runes := []rune(name)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	switch {
	case n == 0:
		return name
	case n == len(runes):
		return strings.ToLower(name)
	case n > 1:
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
