package input

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/toyz/axon-input/internal/annotations"
)

// From declares where a field's raw value comes from, as "<namespace>:<key>"
type From struct {
	Source string `json:"source" yaml:"source"`
}

// Split returns the namespace and key of the source.
func (f From) Split() (namespace, key string, err error) {
	namespace, key, ok := strings.Cut(f.Source, ":")
	if !ok || namespace == "" || key == "" {
		return "", "", configErrorf("source %q must be '<namespace>:<key>'", f.Source)
	}
	return namespace, key, nil
}

// LoaderKind names a loader variant
type LoaderKind string

const (
	KindEntity      LoaderKind = annotations.EntityName
	KindService     LoaderKind = annotations.ServiceName
	KindConstructor LoaderKind = annotations.ConstructorName
	KindArrayOf     LoaderKind = annotations.ArrayOfName
)

// ParseLoaderKind resolves a loader kind name, ignoring case
func ParseLoaderKind(name string) (LoaderKind, error) {
	for _, k := range []LoaderKind{KindEntity, KindService, KindConstructor, KindArrayOf} {
		if strings.EqualFold(string(k), name) {
			return k, nil
		}
	}
	return "", configErrorf("unknown loader kind %q", name)
}

// Loader is the closed set of value transformations a field may declare.
// Implementations: EntityLoader, ServiceLoader, ConstructorLoader, ArrayOfLoader.
type Loader interface {
	Kind() LoaderKind
	// Arguments returns the ordered arguments that rebuild the loader through NewLoader.
	Arguments() []any
	String() string
	isLoader()
}

// EntityLoader looks the value up in the entity's repository
type EntityLoader struct {
	Entity string
	By     string
}

func (l EntityLoader) Kind() LoaderKind { return KindEntity }
func (l EntityLoader) Arguments() []any { return []any{l.Entity, l.by()} }
func (l EntityLoader) String() string   { return fmt.Sprintf("entity(%s, by=%s)", l.Entity, l.by()) }
func (EntityLoader) isLoader()          {}

func (l EntityLoader) by() string {
	if l.By == "" {
		return "id"
	}
	return l.By
}

// ServiceLoader calls Method on a container service with the value and Args
type ServiceLoader struct {
	Service string
	Method  string
	Args    []any
}

func (l ServiceLoader) Kind() LoaderKind { return KindService }
func (l ServiceLoader) Arguments() []any { return append([]any{l.Service, l.Method}, l.Args...) }
func (l ServiceLoader) String() string {
	return fmt.Sprintf("service(%s, %s%s)", l.Service, l.Method, formatArgs(l.Args))
}
func (ServiceLoader) isLoader() {}

// ConstructorLoader builds a registered type from the value
type ConstructorLoader struct {
	Type  string
	Named bool
}

func (l ConstructorLoader) Kind() LoaderKind { return KindConstructor }
func (l ConstructorLoader) Arguments() []any { return []any{l.Type, l.Named} }
func (l ConstructorLoader) String() string {
	if l.Named {
		return fmt.Sprintf("constructor(%s, named=true)", l.Type)
	}
	return fmt.Sprintf("constructor(%s)", l.Type)
}
func (ConstructorLoader) isLoader() {}

// ArrayOfLoader applies the Element loader, built from Args, to every element of a list
type ArrayOfLoader struct {
	Element LoaderKind
	Args    []any
}

func (l ArrayOfLoader) Kind() LoaderKind { return KindArrayOf }
func (l ArrayOfLoader) Arguments() []any { return append([]any{string(l.Element)}, l.Args...) }
func (l ArrayOfLoader) String() string {
	return fmt.Sprintf("arrayOf(%s%s)", l.Element, formatArgs(l.Args))
}
func (ArrayOfLoader) isLoader() {}

func formatArgs(args []any) string {
	var b strings.Builder
	for _, a := range args {
		fmt.Fprintf(&b, ", %v", a)
	}
	return b.String()
}

// NewLoader instantiates a loader of the given kind from ordered arguments
func NewLoader(kind LoaderKind, args ...any) (Loader, error) {
	switch kind {
	case KindEntity:
		entity, err := stringArg(kind, "entity", args, 0, "")
		if err != nil {
			return nil, err
		}
		by, err := stringArg(kind, "by", args, 1, "id")
		if err != nil {
			return nil, err
		}
		return EntityLoader{Entity: entity, By: by}, nil
	case KindService:
		service, err := stringArg(kind, "service", args, 0, "")
		if err != nil {
			return nil, err
		}
		method, err := stringArg(kind, "method", args, 1, "")
		if err != nil {
			return nil, err
		}
		return ServiceLoader{Service: service, Method: method, Args: restArgs(args, 2)}, nil
	case KindConstructor:
		typ, err := stringArg(kind, "type", args, 0, "")
		if err != nil {
			return nil, err
		}
		named := false
		if len(args) > 1 && args[1] != nil {
			b, ok := args[1].(bool)
			if !ok {
				return nil, configErrorf("constructor: named must be a bool, got %T", args[1])
			}
			named = b
		}
		return ConstructorLoader{Type: typ, Named: named}, nil
	case KindArrayOf:
		name, err := stringArg(kind, "loader", args, 0, "")
		if err != nil {
			return nil, err
		}
		element, err := ParseLoaderKind(name)
		if err != nil {
			return nil, err
		}
		return ArrayOfLoader{Element: element, Args: restArgs(args, 1)}, nil
	default:
		return nil, configErrorf("unknown loader kind %q", kind)
	}
}

func stringArg(kind LoaderKind, name string, args []any, i int, def string) (string, error) {
	if i >= len(args) || args[i] == nil {
		if def == "" {
			return "", configErrorf("%s: missing %s argument", kind, name)
		}
		return def, nil
	}
	s, ok := args[i].(string)
	if !ok {
		return "", configErrorf("%s: %s must be a string, got %T", kind, name, args[i])
	}
	if s == "" {
		if def == "" {
			return "", configErrorf("%s: %s must not be empty", kind, name)
		}
		return def, nil
	}
	return s, nil
}

func restArgs(args []any, from int) []any {
	if from >= len(args) {
		return nil
	}
	out := make([]any, 0, len(args)-from)
	for _, arg := range args[from:] {
		out = append(out, normalizeArg(arg))
	}
	return out
}

// normalizeArg turns decoded JSON numbers back into the int64 or float64 a parsed
// directive carries.
func normalizeArg(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalizeArg(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = normalizeArg(e)
		}
		return out
	default:
		return v
	}
}

// ParseLoader parses a loader directive such as "entity(User, by=username)"
func ParseLoader(text string) (Loader, error) {
	parsed, err := annotations.Parse(annotations.LoaderDirective, text)
	if err != nil {
		return nil, &ConfigurationError{Msg: fmt.Sprintf("loader directive %q", text), Err: err}
	}
	kind, err := ParseLoaderKind(parsed.Name)
	if err != nil {
		return nil, err
	}
	return NewLoader(kind, parsed.Args...)
}

// FromEntity bootstraps a whole struct from an entity located by one input value
type FromEntity struct {
	Entity  string   `json:"entity" yaml:"entity"`
	From    string   `json:"from" yaml:"from"`
	By      string   `json:"by,omitempty" yaml:"by,omitempty"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// Column returns By, defaulting to "id"
func (f FromEntity) Column() string {
	if f.By == "" {
		return "id"
	}
	return f.By
}

// ParseFromEntity parses a type-level directive such as "entity(User, from=array:id, exclude=[password])"
func ParseFromEntity(text string) (*FromEntity, error) {
	parsed, err := annotations.Parse(annotations.TypeDirective, text)
	if err != nil {
		return nil, &ConfigurationError{Msg: fmt.Sprintf("entity directive %q", text), Err: err}
	}
	return &FromEntity{
		Entity:  parsed.String(0),
		From:    parsed.String(1),
		By:      parsed.String(2),
		Exclude: parsed.StringSlice(3),
	}, nil
}

// FieldMetadata is the resolved mapping of one struct field
type FieldMetadata struct {
	Field  string
	From   From
	Loader Loader
}

type fieldMetadataJSON struct {
	Field  string      `json:"field"`
	From   From        `json:"from"`
	Loader *loaderJSON `json:"loader,omitempty"`
}

type loaderJSON struct {
	Kind LoaderKind `json:"kind"`
	Args []any      `json:"args"`
}

// MarshalJSON encodes the loader with a kind discriminator
func (m FieldMetadata) MarshalJSON() ([]byte, error) {
	out := fieldMetadataJSON{Field: m.Field, From: m.From}
	if m.Loader != nil {
		out.Loader = &loaderJSON{Kind: m.Loader.Kind(), Args: m.Loader.Arguments()}
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the loader through NewLoader
func (m *FieldMetadata) UnmarshalJSON(data []byte) error {
	var in fieldMetadataJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil {
		return err
	}
	m.Field, m.From, m.Loader = in.Field, in.From, nil
	if in.Loader != nil {
		loader, err := NewLoader(in.Loader.Kind, in.Loader.Args...)
		if err != nil {
			return err
		}
		m.Loader = loader
	}
	return nil
}

// TypeMetadata lists the managed fields of a type in declaration order
type TypeMetadata struct {
	Type   string          `json:"type"`
	Fields []FieldMetadata `json:"fields"`
}

// Field returns the metadata of the named field
func (t *TypeMetadata) Field(name string) (FieldMetadata, bool) {
	for _, f := range t.Fields {
		if f.Field == name {
			return f, true
		}
	}
	return FieldMetadata{}, false
}
