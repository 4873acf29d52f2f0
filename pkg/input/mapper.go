package input

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
)

// Mapper extracts field values from a Source and writes them onto copies of target objects
type Mapper struct {
	resolver   *Resolver
	dispatcher *Dispatcher
	hydrator   Hydrator
	logger     *slog.Logger
}

// MapperOption configures a Mapper
type MapperOption func(*Mapper)

// WithHydrator replaces the StructHydrator used to write mapped values
func WithHydrator(h Hydrator) MapperOption {
	return func(m *Mapper) { m.hydrator = h }
}

// WithMapperLogger sets the logger
func WithMapperLogger(l *slog.Logger) MapperOption {
	return func(m *Mapper) { m.logger = l }
}

// NewMapper creates a mapper
func NewMapper(resolver *Resolver, dispatcher *Dispatcher, opts ...MapperOption) *Mapper {
	m := &Mapper{resolver: resolver, dispatcher: dispatcher}
	for _, opt := range opts {
		opt(m)
	}
	if m.hydrator == nil {
		m.hydrator = NewStructHydrator()
	}
	if m.logger == nil {
		m.logger = discardLogger()
	}
	return m
}

// Resolver returns the metadata resolver
func (m *Mapper) Resolver() *Resolver {
	return m.resolver
}

// Extract returns the loaded values of every mapped field of t present in src
func (m *Mapper) Extract(ctx context.Context, t reflect.Type, src Source) (map[string]any, error) {
	return m.extract(ctx, t, src, true)
}

// ExtractRaw is Extract without applying loaders
func (m *Mapper) ExtractRaw(ctx context.Context, t reflect.Type, src Source) (map[string]any, error) {
	return m.extract(ctx, t, src, false)
}

func (m *Mapper) extract(ctx context.Context, t reflect.Type, src Source, load bool) (map[string]any, error) {
	meta, err := m.resolver.Resolve(ctx, t)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(meta.Fields))
	for _, field := range meta.Fields {
		namespace, key, err := field.From.Split()
		if err != nil {
			return nil, &FieldError{Field: field.Field, Err: err}
		}

		value, ok := src.Value(namespace, key)
		if !ok || value == nil {
			continue
		}

		if load && field.Loader != nil {
			value, err = m.dispatcher.Load(ctx, value, field.Loader)
			if err != nil {
				return nil, &FieldError{Field: field.Field, Err: err}
			}
		}
		out[field.Field] = value
	}

	m.logger.DebugContext(ctx, "extracted input", "type", meta.Type, "fields", len(out), "loaders", load)
	return out, nil
}

// Map returns a copy of target with every mapped field present in src written onto it.
// target is never modified. A pointer target yields a pointer, a struct value a struct value.
func (m *Mapper) Map(ctx context.Context, target any, src Source) (any, error) {
	cp, err := Clone(target)
	if err != nil {
		return nil, err
	}

	ptr, isValue := addressable(cp)
	if err := m.mapInto(ctx, ptr, src); err != nil {
		return nil, err
	}
	if isValue {
		return reflect.ValueOf(ptr).Elem().Interface(), nil
	}
	return ptr, nil
}

// mapInto writes the extracted values onto obj in place
func (m *Mapper) mapInto(ctx context.Context, obj any, src Source) error {
	data, err := m.Extract(ctx, reflect.TypeOf(obj), src)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if _, err := m.hydrator.Hydrate(data, obj); err != nil {
		return fmt.Errorf("hydrate %s: %w", TypeIdentity(reflect.TypeOf(obj)), err)
	}
	return nil
}

// addressable returns a pointer to v when v is a struct value
func addressable(v any) (any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Struct {
		return v, false
	}
	ptr := reflect.New(rv.Type())
	ptr.Elem().Set(rv)
	return ptr.Interface(), true
}

// Map maps src onto a copy of target and returns it typed
func Map[T any](ctx context.Context, m *Mapper, target *T, src Source) (*T, error) {
	if target == nil {
		target = new(T)
	}
	out, err := m.Map(ctx, target, src)
	if err != nil {
		return nil, err
	}
	typed, ok := out.(*T)
	if !ok {
		return nil, &TypeMismatchError{Expected: reflect.TypeOf(target).String(), Value: out, Context: "map"}
	}
	return typed, nil
}
