package input

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ConstructorFunc builds a value from a single input value
type ConstructorFunc func(value any) (any, error)

// NamedConstructorFunc builds a value from named arguments
type NamedConstructorFunc func(args map[string]any) (any, error)

// Constructors builds registered types by name for the constructor loader
type Constructors interface {
	Construct(typeName string, value any, named bool) (any, error)
}

type typeEntry struct {
	name  string
	typ   reflect.Type
	new   ConstructorFunc
	named NamedConstructorFunc
}

// TypeRegistry maps type names and aliases to constructors
type TypeRegistry struct {
	mu      sync.RWMutex
	types   map[string]typeEntry
	aliases map[string]string
}

// NewTypeRegistry creates a registry holding the builtin types
func NewTypeRegistry() *TypeRegistry {
	r := NewEmptyTypeRegistry()
	registerBuiltinTypes(r)
	return r
}

// NewEmptyTypeRegistry creates a registry without builtin types
func NewEmptyTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		types:   make(map[string]typeEntry),
		aliases: make(map[string]string),
	}
}

// Register adds a constructor for typ under name. named may be nil.
func (r *TypeRegistry) Register(name string, typ reflect.Type, ctor ConstructorFunc, named NamedConstructorFunc, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.types[name] = typeEntry{name: name, typ: typ, new: ctor, named: named}
	for _, alias := range aliases {
		r.aliases[alias] = name
	}
}

// Alias makes alias resolve to the registered name
func (r *TypeRegistry) Alias(alias, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = name
}

// ResolveTypeAlias resolves an alias to its registered type name
func (r *TypeRegistry) ResolveTypeAlias(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if actual, isAlias := r.aliases[name]; isAlias {
		return actual
	}
	return name
}

// IsRegistered reports whether name or an alias of it is registered
func (r *TypeRegistry) IsRegistered(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// Type returns the Go type registered under name
func (r *TypeRegistry) Type(name string) (reflect.Type, bool) {
	e, ok := r.lookup(name)
	return e.typ, ok
}

// Names returns every registered type name and alias, sorted
func (r *TypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types)+len(r.aliases))
	for name := range r.types {
		names = append(names, name)
	}
	for alias := range r.aliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

func (r *TypeRegistry) lookup(name string) (typeEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if actual, isAlias := r.aliases[name]; isAlias {
		name = actual
	}
	e, ok := r.types[name]
	return e, ok
}

// Construct implements Constructors
func (r *TypeRegistry) Construct(typeName string, value any, named bool) (any, error) {
	e, ok := r.lookup(typeName)
	if !ok {
		return nil, configErrorf("constructor: type %q is not registered", typeName)
	}

	if !named {
		return e.new(value)
	}

	if e.named == nil {
		return nil, configErrorf("constructor: type %q does not accept named arguments", e.name)
	}
	args, ok := namedArgs(value)
	if !ok {
		return nil, &InvalidInputError{Type: e.name, Value: value,
			Err: fmt.Errorf("named arguments need a keyed value, got %T", value)}
	}
	return e.named(args)
}

func namedArgs(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case MapSource:
		return v, true
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// RegisterParser registers T under name, built from strings by parse and from other
// values by the hydrator's coercion rules. Named arguments use the "value" key.
func RegisterParser[T any](r *TypeRegistry, name string, parse func(string) (T, error), aliases ...string) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	ctor := func(value any) (any, error) {
		switch v := value.(type) {
		case T:
			return v, nil
		case string:
			out, err := parse(v)
			if err != nil {
				return nil, &InvalidInputError{Type: name, Value: value, Err: err}
			}
			return out, nil
		}
		out, err := convertTo(value, typ, name)
		if err != nil {
			return nil, &InvalidInputError{Type: name, Value: value, Err: err}
		}
		return out.Interface(), nil
	}
	named := func(args map[string]any) (any, error) {
		if err := onlyKeys(name, args, "value"); err != nil {
			return nil, err
		}
		v, ok := args["value"]
		if !ok {
			return nil, &InvalidInputError{Type: name, Value: args, Err: fmt.Errorf("missing argument 'value'")}
		}
		return ctor(v)
	}
	r.Register(name, typ, ctor, named, aliases...)
}

// StructConstructor registers struct type T. Keyed input is hydrated onto a new T and
// a *T is returned; a T or *T input is returned as a *T.
func StructConstructor[T any](r *TypeRegistry, name string, aliases ...string) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	hydrator := NewStructHydrator()
	build := func(args map[string]any) (any, error) {
		out := new(T)
		if _, err := hydrator.Hydrate(args, out); err != nil {
			return nil, &InvalidInputError{Type: name, Value: args, Err: err}
		}
		return out, nil
	}
	ctor := func(value any) (any, error) {
		switch v := value.(type) {
		case *T:
			return v, nil
		case T:
			return &v, nil
		}
		args, ok := namedArgs(value)
		if !ok {
			return nil, &InvalidInputError{Type: name, Value: value, Err: fmt.Errorf("expected a keyed value, got %T", value)}
		}
		return build(args)
	}
	r.Register(name, reflect.PointerTo(typ), ctor, build, aliases...)
}

func onlyKeys(typeName string, args map[string]any, allowed ...string) error {
	for k := range args {
		known := false
		for _, a := range allowed {
			if k == a {
				known = true
				break
			}
		}
		if !known {
			return &InvalidInputError{Type: typeName, Value: args,
				Err: fmt.Errorf("unknown named argument '%s', expected one of: %s", k, strings.Join(allowed, ", "))}
		}
	}
	return nil
}

// Builtin type names
const (
	TypeTime     = "time.Time"
	TypeLocation = "*time.Location"
	TypeDuration = "time.Duration"
	TypeUUID     = "uuid.UUID"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
	"2006-01-02T15:04:05",
	time.DateOnly,
	time.RFC1123Z,
	time.RFC1123,
}

func registerBuiltinTypes(r *TypeRegistry) {
	r.Register(TypeTime, reflect.TypeOf(time.Time{}),
		func(value any) (any, error) { return newTime(value, time.Local) },
		newTimeNamed,
		"DateTime", "DateTimeImmutable", "time")

	r.Register(TypeLocation, reflect.TypeOf((*time.Location)(nil)),
		newLocation,
		func(args map[string]any) (any, error) {
			if err := onlyKeys(TypeLocation, args, "timezone"); err != nil {
				return nil, err
			}
			return newLocation(args["timezone"])
		},
		"DateTimeZone", "time.Location", "timezone")

	RegisterParser(r, TypeDuration, time.ParseDuration, "duration")
	RegisterParser(r, TypeUUID, uuid.Parse, "UUID", "uuid")
	RegisterParser(r, "int", func(s string) (int, error) { return parseAs[int](s) })
	RegisterParser(r, "int64", func(s string) (int64, error) { return parseAs[int64](s) })
	RegisterParser(r, "float64", func(s string) (float64, error) { return parseAs[float64](s) }, "float", "double")
	RegisterParser(r, "bool", func(s string) (bool, error) { return parseAs[bool](s) })
	RegisterParser(r, "string", func(s string) (string, error) { return s, nil })
}

func parseAs[T any](s string) (T, error) {
	var zero T
	out, err := convertTo(s, reflect.TypeOf(zero), "")
	if err != nil {
		return zero, err
	}
	return out.Interface().(T), nil
}

func newTime(value any, loc *time.Location) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	case string:
		s := strings.TrimSpace(v)
		if s == "" || strings.EqualFold(s, "now") {
			return time.Now().In(loc), nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, nil
			}
		}
		return nil, &InvalidInputError{Type: TypeTime, Value: value, Err: fmt.Errorf("unrecognized date/time format")}
	case int, int32, int64, uint, uint32, uint64:
		sec, _ := convertTo(v, reflect.TypeOf(int64(0)), "")
		return time.Unix(sec.Int(), 0).In(loc), nil
	case float64:
		sec := int64(v)
		return time.Unix(sec, int64((v-float64(sec))*1e9)).In(loc), nil
	}
	return nil, &InvalidInputError{Type: TypeTime, Value: value, Err: fmt.Errorf("unsupported input type %T", value)}
}

func newTimeNamed(args map[string]any) (any, error) {
	if err := onlyKeys(TypeTime, args, "datetime", "timezone"); err != nil {
		return nil, err
	}
	loc := time.Local
	if tz, ok := args["timezone"]; ok && tz != nil {
		l, err := newLocation(tz)
		if err != nil {
			return nil, err
		}
		loc = l.(*time.Location)
	}
	dt, ok := args["datetime"]
	if !ok || dt == nil {
		dt = "now"
	}
	t, err := newTime(dt, loc)
	if err != nil {
		return nil, err
	}
	return t.(time.Time).In(loc), nil
}

func newLocation(value any) (any, error) {
	switch v := value.(type) {
	case *time.Location:
		if v != nil {
			return v, nil
		}
	case string:
		loc, err := time.LoadLocation(strings.TrimSpace(v))
		if err != nil {
			return nil, &InvalidInputError{Type: TypeLocation, Value: value, Err: err}
		}
		return loc, nil
	}
	return nil, &InvalidInputError{Type: TypeLocation, Value: value, Err: fmt.Errorf("unsupported input type %T", value)}
}
