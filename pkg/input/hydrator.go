package input

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Hydrator converts between objects and field maps
type Hydrator interface {
	Extract(obj any) (map[string]any, error)
	Hydrate(data map[string]any, obj any) (any, error)
}

// StructHydrator reads and writes exported struct fields directly.
//
// Keys come from the `field` tag, then the `json` tag name, then the Go field name.
// Hydrate matches exact Go names first, then exact keys, then either case-insensitively.
type StructHydrator struct {
	types sync.Map // reflect.Type -> *structInfo
}

// NewStructHydrator creates a struct hydrator
func NewStructHydrator() *StructHydrator {
	return &StructHydrator{}
}

type structField struct {
	name  string
	key   string
	index []int
}

type structInfo struct {
	fields []structField
	names  map[string]int
	keys   map[string]int
	folded map[string]int
}

func (h *StructHydrator) info(t reflect.Type) *structInfo {
	if cached, ok := h.types.Load(t); ok {
		return cached.(*structInfo)
	}

	info := &structInfo{names: make(map[string]int), keys: make(map[string]int), folded: make(map[string]int)}
	for _, f := range visibleFields(t) {
		key := f.Name
		if tag := f.Tag.Get("field"); tag != "" {
			key = tag
		} else if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag != "" && tag != "-" {
			key = tag
		}
		info.names[f.Name] = len(info.fields)
		info.fields = append(info.fields, structField{name: f.Name, key: key, index: f.Index})
	}
	for i, f := range info.fields {
		if _, taken := info.keys[f.key]; !taken {
			info.keys[f.key] = i
		}
		if _, taken := info.folded[strings.ToLower(f.name)]; !taken {
			info.folded[strings.ToLower(f.name)] = i
		}
	}
	for i, f := range info.fields {
		if _, taken := info.folded[strings.ToLower(f.key)]; !taken {
			info.folded[strings.ToLower(f.key)] = i
		}
	}

	actual, _ := h.types.LoadOrStore(t, info)
	return actual.(*structInfo)
}

// visibleFields lists exported, settable fields including promoted ones reachable
// without crossing an embedded pointer.
func visibleFields(t reflect.Type) []reflect.StructField {
	var out []reflect.StructField
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Name == "_" {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			continue
		}
		if len(f.Index) > 1 && crossesPointer(t, f.Index) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func crossesPointer(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Pointer {
			return true
		}
		t = f.Type
	}
	return false
}

// Extract returns the fields of a struct (or pointer to struct) keyed by field key.
// A map[string]any is returned as a copy.
func (h *StructHydrator) Extract(obj any) (map[string]any, error) {
	if m, ok := obj.(map[string]any); ok {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, nil
	}

	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, &TypeMismatchError{Expected: "struct", Value: obj, Context: "extract"}
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, &TypeMismatchError{Expected: "struct", Value: obj, Context: "extract"}
	}

	info := h.info(rv.Type())
	out := make(map[string]any, len(info.fields))
	for _, f := range info.fields {
		out[f.key] = rv.FieldByIndex(f.index).Interface()
	}
	return out, nil
}

// Hydrate writes data onto obj, which must be a non-nil pointer to a struct or a map[string]any.
// Keys without a matching field are ignored.
func (h *StructHydrator) Hydrate(data map[string]any, obj any) (any, error) {
	if m, ok := obj.(map[string]any); ok {
		for k, v := range data {
			m[k] = v
		}
		return m, nil
	}

	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, &TypeMismatchError{Expected: "pointer to struct", Value: obj, Context: "hydrate"}
	}

	target := rv.Elem()
	info := h.info(target.Type())
	for key, value := range data {
		i, ok := info.field(key)
		if !ok {
			continue
		}
		f := info.fields[i]
		if err := assign(target.FieldByIndex(f.index), value, f.name); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// field finds the field for key: exact Go name, exact key, then either case-insensitively.
func (info *structInfo) field(key string) (int, bool) {
	if i, ok := info.names[key]; ok {
		return i, true
	}
	if i, ok := info.keys[key]; ok {
		return i, true
	}
	i, ok := info.folded[strings.ToLower(key)]
	return i, ok
}

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// assign stores v into dst, converting where the conversion is lossless or a string parse.
func assign(dst reflect.Value, v any, field string) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	rv := reflect.ValueOf(v)
	dt := dst.Type()

	if rv.Type().AssignableTo(dt) {
		dst.Set(rv)
		return nil
	}

	mismatch := &TypeMismatchError{Expected: dt.String(), Value: v, Context: field}

	switch {
	case dt.Kind() == reflect.Pointer:
		elem := reflect.New(dt.Elem())
		if err := assign(elem.Elem(), v, field); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	case rv.Kind() == reflect.Pointer:
		if rv.IsNil() {
			dst.Set(reflect.Zero(dt))
			return nil
		}
		return assign(dst, rv.Elem().Interface(), field)
	case dt.Kind() == reflect.Interface:
		if rv.Type().Implements(dt) {
			dst.Set(rv)
			return nil
		}
		return mismatch
	}

	if s, ok := v.(string); ok {
		if reflect.PointerTo(dt).Implements(textUnmarshalerType) {
			ptr := reflect.New(dt)
			if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return &InvalidInputError{Type: dt.String(), Value: s, Err: err}
			}
			dst.Set(ptr.Elem())
			return nil
		}
		return assignString(dst, s, mismatch)
	}

	switch {
	case isNumber(rv.Kind()) && isNumber(dt.Kind()):
		return assignNumber(dst, rv, mismatch)
	case dt.Kind() == reflect.String && (isNumber(rv.Kind()) || rv.Kind() == reflect.Bool):
		dst.SetString(fmt.Sprint(v))
		return nil
	case dt.Kind() == reflect.Slice && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array):
		out := reflect.MakeSlice(dt, rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if err := assign(out.Index(i), rv.Index(i).Interface(), fmt.Sprintf("%s[%d]", field, i)); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil
	case dt.Kind() == reflect.Map && rv.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(dt, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := reflect.New(dt.Key()).Elem()
			if err := assign(k, iter.Key().Interface(), field); err != nil {
				return err
			}
			val := reflect.New(dt.Elem()).Elem()
			if err := assign(val, iter.Value().Interface(), fmt.Sprintf("%s[%v]", field, iter.Key())); err != nil {
				return err
			}
			out.SetMapIndex(k, val)
		}
		dst.Set(out)
		return nil
	case dt.Kind() == reflect.Struct && rv.Kind() == reflect.Map:
		data, ok := v.(map[string]any)
		if !ok {
			return mismatch
		}
		ptr := reflect.New(dt)
		if _, err := defaultStructHydrator.Hydrate(data, ptr.Interface()); err != nil {
			return err
		}
		dst.Set(ptr.Elem())
		return nil
	case rv.Type().ConvertibleTo(dt) && rv.Kind() == dt.Kind():
		dst.Set(rv.Convert(dt))
		return nil
	}

	return mismatch
}

var defaultStructHydrator = NewStructHydrator()

func assignString(dst reflect.Value, s string, mismatch error) error {
	dt := dst.Type()
	s = strings.TrimSpace(s)
	switch {
	case dt == durationType:
		d, err := time.ParseDuration(s)
		if err != nil {
			return mismatch
		}
		dst.SetInt(int64(d))
	case dt.Kind() == reflect.String:
		dst.SetString(s)
	case dt.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return mismatch
		}
		dst.SetBool(b)
	case isInt(dt.Kind()):
		i, err := strconv.ParseInt(s, 10, dt.Bits())
		if err != nil {
			return mismatch
		}
		dst.SetInt(i)
	case isUint(dt.Kind()):
		u, err := strconv.ParseUint(s, 10, dt.Bits())
		if err != nil {
			return mismatch
		}
		dst.SetUint(u)
	case dt.Kind() == reflect.Float32 || dt.Kind() == reflect.Float64:
		f, err := strconv.ParseFloat(s, dt.Bits())
		if err != nil {
			return mismatch
		}
		dst.SetFloat(f)
	case dt.Kind() == reflect.Slice && dt.Elem().Kind() == reflect.Uint8:
		dst.SetBytes([]byte(s))
	default:
		return mismatch
	}
	return nil
}

func assignNumber(dst reflect.Value, rv reflect.Value, mismatch error) error {
	dk := dst.Kind()
	switch {
	case isInt(rv.Kind()):
		i := rv.Int()
		switch {
		case isInt(dk):
			if dst.OverflowInt(i) {
				return mismatch
			}
			dst.SetInt(i)
		case isUint(dk):
			if i < 0 || dst.OverflowUint(uint64(i)) {
				return mismatch
			}
			dst.SetUint(uint64(i))
		default:
			dst.SetFloat(float64(i))
		}
	case isUint(rv.Kind()):
		u := rv.Uint()
		switch {
		case isInt(dk):
			if u > 1<<63-1 || dst.OverflowInt(int64(u)) {
				return mismatch
			}
			dst.SetInt(int64(u))
		case isUint(dk):
			if dst.OverflowUint(u) {
				return mismatch
			}
			dst.SetUint(u)
		default:
			dst.SetFloat(float64(u))
		}
	default:
		f := rv.Float()
		switch {
		case isInt(dk):
			if f != float64(int64(f)) || dst.OverflowInt(int64(f)) {
				return mismatch
			}
			dst.SetInt(int64(f))
		case isUint(dk):
			if f < 0 || f != float64(uint64(f)) || dst.OverflowUint(uint64(f)) {
				return mismatch
			}
			dst.SetUint(uint64(f))
		default:
			dst.SetFloat(f)
		}
	}
	return nil
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isNumber(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || k == reflect.Float32 || k == reflect.Float64
}

// convertTo returns v converted to t using the hydrator's coercion rules
func convertTo(v any, t reflect.Type, context string) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	if v == nil {
		return out, nil
	}
	if err := assign(out, v, context); err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}
