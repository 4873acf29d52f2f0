package input

import "reflect"

// Cloner is implemented by types that control their own copy
type Cloner interface {
	Clone() any
}

// Clone returns a copy of obj with the same shape: a pointer yields a new pointer,
// a struct value a struct value, a map a new map. The copy is shallow except for
// fields tagged `clone:"deep"`.
func Clone(obj any) (any, error) {
	if c, ok := obj.(Cloner); ok {
		return c.Clone(), nil
	}

	rv := reflect.ValueOf(obj)
	switch {
	case !rv.IsValid():
		return nil, &TypeMismatchError{Expected: "object", Value: obj, Context: "clone"}
	case rv.Kind() == reflect.Pointer:
		if rv.IsNil() {
			return nil, &TypeMismatchError{Expected: "non-nil pointer", Value: obj, Context: "clone"}
		}
		cp := reflect.New(rv.Elem().Type())
		cp.Elem().Set(rv.Elem())
		if cp.Elem().Kind() == reflect.Struct {
			deepenTagged(cp.Elem())
		}
		return cp.Interface(), nil
	case rv.Kind() == reflect.Struct:
		cp := reflect.New(rv.Type()).Elem()
		cp.Set(rv)
		deepenTagged(cp)
		return cp.Interface(), nil
	case rv.Kind() == reflect.Map:
		if rv.IsNil() {
			return obj, nil
		}
		cp := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			cp.SetMapIndex(iter.Key(), iter.Value())
		}
		return cp.Interface(), nil
	default:
		return nil, &TypeMismatchError{Expected: "struct, pointer or map", Value: obj, Context: "clone"}
	}
}

func deepenTagged(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("clone") != "deep" {
			continue
		}
		v.Field(i).Set(deepCopy(v.Field(i)))
	}
}

func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		if c, ok := v.Interface().(Cloner); ok {
			if cv := reflect.ValueOf(c.Clone()); cv.IsValid() && cv.Type().AssignableTo(v.Type()) {
				return cv
			}
		}
		cp := reflect.New(v.Elem().Type())
		cp.Elem().Set(deepCopy(v.Elem()))
		return cp
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		cp := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			cp.Index(i).Set(deepCopy(v.Index(i)))
		}
		return cp
	case reflect.Array:
		cp := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			cp.Index(i).Set(deepCopy(v.Index(i)))
		}
		return cp
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		cp := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			cp.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return cp
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		cp := reflect.New(v.Type()).Elem()
		cp.Set(deepCopy(v.Elem()))
		return cp
	case reflect.Struct:
		cp := reflect.New(v.Type()).Elem()
		cp.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if cp.Field(i).CanSet() {
				cp.Field(i).Set(deepCopy(v.Field(i)))
			}
		}
		return cp
	default:
		return v
	}
}
