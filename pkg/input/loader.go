package input

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
)

// Dispatcher applies a field's Loader to its raw value
type Dispatcher struct {
	repositories Repositories
	services     Container
	types        Constructors
	logger       *slog.Logger
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithRepositories sets the entity repositories
func WithRepositories(r Repositories) DispatcherOption {
	return func(d *Dispatcher) { d.repositories = r }
}

// WithServices sets the service container
func WithServices(c Container) DispatcherOption {
	return func(d *Dispatcher) { d.services = c }
}

// WithConstructors replaces the builtin type registry
func WithConstructors(c Constructors) DispatcherOption {
	return func(d *Dispatcher) { d.types = c }
}

// WithDispatcherLogger sets the logger
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a dispatcher. Without WithConstructors it uses NewTypeRegistry.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	if d.types == nil {
		d.types = NewTypeRegistry()
	}
	if d.logger == nil {
		d.logger = discardLogger()
	}
	return d
}

// Load transforms value with loader. It panics on a Loader implementation outside this package.
func (d *Dispatcher) Load(ctx context.Context, value any, loader Loader) (any, error) {
	switch l := loader.(type) {
	case EntityLoader:
		return d.loadEntity(ctx, value, l)
	case *EntityLoader:
		return d.loadEntity(ctx, value, *l)
	case ServiceLoader:
		return d.loadService(ctx, value, l)
	case *ServiceLoader:
		return d.loadService(ctx, value, *l)
	case ConstructorLoader:
		return d.loadConstructor(value, l)
	case *ConstructorLoader:
		return d.loadConstructor(value, *l)
	case ArrayOfLoader:
		return d.loadArrayOf(ctx, value, l)
	case *ArrayOfLoader:
		return d.loadArrayOf(ctx, value, *l)
	default:
		panic(fmt.Sprintf("input: unsupported loader %T", loader))
	}
}

func (d *Dispatcher) loadEntity(ctx context.Context, value any, l EntityLoader) (any, error) {
	if d.repositories == nil {
		return nil, configErrorf("entity loader for %s: no repositories configured", l.Entity)
	}
	repo, err := d.repositories.Repository(l.Entity)
	if err != nil {
		return nil, fmt.Errorf("entity loader for %s: %w", l.Entity, err)
	}
	entity, err := repo.FindOne(ctx, map[string]any{l.by(): value})
	if err != nil {
		return nil, fmt.Errorf("entity loader for %s: %w", l.Entity, err)
	}
	if entity == nil {
		d.logger.DebugContext(ctx, "entity not found", "entity", l.Entity, "by", l.by(), "value", value)
	}
	return entity, nil
}

func (d *Dispatcher) loadService(ctx context.Context, value any, l ServiceLoader) (any, error) {
	if d.services == nil {
		return nil, configErrorf("service loader for %s: no container configured", l.Service)
	}
	svc, err := d.services.Get(l.Service)
	if err != nil {
		return nil, fmt.Errorf("service loader for %s: %w", l.Service, err)
	}
	return callMethod(ctx, svc, l.Method, value, l.Args)
}

func (d *Dispatcher) loadConstructor(value any, l ConstructorLoader) (any, error) {
	return d.types.Construct(l.Type, value, l.Named)
}

func (d *Dispatcher) loadArrayOf(ctx context.Context, value any, l ArrayOfLoader) (any, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array && rv.Kind() != reflect.Map) {
		return nil, &TypeMismatchError{Expected: "list or map", Value: value, Context: "arrayOf"}
	}

	if l.Element == KindArrayOf {
		return nil, configErrorf("recursive call of arrayOf loader")
	}
	element, err := NewLoader(l.Element, l.Args...)
	if err != nil {
		return nil, err
	}

	if rv.Kind() == reflect.Map {
		out := reflect.MakeMapWithSize(reflect.MapOf(rv.Type().Key(), reflect.TypeOf((*any)(nil)).Elem()), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			loaded, err := d.Load(ctx, iter.Value().Interface(), element)
			if err != nil {
				return nil, fmt.Errorf("arrayOf[%v]: %w", iter.Key().Interface(), err)
			}
			out.SetMapIndex(iter.Key(), reflectAny(loaded))
		}
		return out.Interface(), nil
	}

	out := make([]any, rv.Len())
	for i := range out {
		loaded, err := d.Load(ctx, rv.Index(i).Interface(), element)
		if err != nil {
			return nil, fmt.Errorf("arrayOf[%d]: %w", i, err)
		}
		out[i] = loaded
	}
	return out, nil
}

// reflectAny wraps v as a reflect.Value of interface type so nil results can be stored in maps
func reflectAny(v any) reflect.Value {
	out := reflect.New(reflect.TypeOf((*any)(nil)).Elem()).Elem()
	if v != nil {
		out.Set(reflect.ValueOf(v))
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
