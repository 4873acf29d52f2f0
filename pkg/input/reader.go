package input

import (
	"fmt"
	"reflect"
)

// Reader reads mapping directives declared for a struct type
type Reader interface {
	// From returns the source directive of a field, or nil when the field is not mapped
	From(owner reflect.Type, field reflect.StructField) (*From, error)
	// Loader returns the loader directive of a field, or nil
	Loader(owner reflect.Type, field reflect.StructField) (Loader, error)
	// Entity returns the type-level entity directive, or nil
	Entity(owner reflect.Type) (*FromEntity, error)
}

// Default struct tag names
const (
	DefaultFromTag   = "from"
	DefaultLoadTag   = "load"
	DefaultEntityTag = "input"
)

// TagReader reads directives from struct tags:
//
//	type UserInput struct {
//		_     struct{}  `input:"entity(User, from=query:id)"`
//		Name  string    `from:"data:name"`
//		Birth time.Time `from:"data:birth" load:"constructor(time.Time)"`
//	}
type TagReader struct {
	FromTag   string
	LoadTag   string
	EntityTag string
}

// NewTagReader creates a TagReader using the default tag names
func NewTagReader() *TagReader {
	return &TagReader{FromTag: DefaultFromTag, LoadTag: DefaultLoadTag, EntityTag: DefaultEntityTag}
}

func (r *TagReader) tags() (from, load, entity string) {
	from, load, entity = r.FromTag, r.LoadTag, r.EntityTag
	if from == "" {
		from = DefaultFromTag
	}
	if load == "" {
		load = DefaultLoadTag
	}
	if entity == "" {
		entity = DefaultEntityTag
	}
	return from, load, entity
}

// From implements Reader
func (r *TagReader) From(_ reflect.Type, field reflect.StructField) (*From, error) {
	tag, _, _ := r.tags()
	source, ok := field.Tag.Lookup(tag)
	if !ok {
		return nil, nil
	}
	return &From{Source: source}, nil
}

// Loader implements Reader
func (r *TagReader) Loader(owner reflect.Type, field reflect.StructField) (Loader, error) {
	_, tag, _ := r.tags()
	directive, ok := field.Tag.Lookup(tag)
	if !ok {
		return nil, nil
	}
	loader, err := ParseLoader(directive)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", owner, field.Name, err)
	}
	return loader, nil
}

// Entity implements Reader. The directive sits on a blank field.
func (r *TagReader) Entity(owner reflect.Type) (*FromEntity, error) {
	_, _, tag := r.tags()
	owner = structType(owner)
	if owner == nil {
		return nil, nil
	}
	for i := 0; i < owner.NumField(); i++ {
		f := owner.Field(i)
		if f.Name != "_" {
			continue
		}
		directive, ok := f.Tag.Lookup(tag)
		if !ok {
			continue
		}
		entity, err := ParseFromEntity(directive)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", owner, err)
		}
		return entity, nil
	}
	return nil, nil
}

// CompositeReader asks each reader in turn; the first non-nil answer wins
type CompositeReader []Reader

// From implements Reader
func (c CompositeReader) From(owner reflect.Type, field reflect.StructField) (*From, error) {
	for _, r := range c {
		from, err := r.From(owner, field)
		if err != nil || from != nil {
			return from, err
		}
	}
	return nil, nil
}

// Loader implements Reader
func (c CompositeReader) Loader(owner reflect.Type, field reflect.StructField) (Loader, error) {
	for _, r := range c {
		loader, err := r.Loader(owner, field)
		if err != nil || loader != nil {
			return loader, err
		}
	}
	return nil, nil
}

// Entity implements Reader
func (c CompositeReader) Entity(owner reflect.Type) (*FromEntity, error) {
	for _, r := range c {
		entity, err := r.Entity(owner)
		if err != nil || entity != nil {
			return entity, err
		}
	}
	return nil, nil
}

// TypeIdentity returns the fully qualified name of t, dereferencing pointers
func TypeIdentity(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "<nil>"
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

func structType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return t
}
