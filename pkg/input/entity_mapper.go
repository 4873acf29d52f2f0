package input

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
)

// EntityMapper fills a struct from an entity located by one input value
type EntityMapper struct {
	reader       Reader
	repositories Repositories
	extractor    Hydrator
	hydrator     Hydrator
	logger       *slog.Logger
}

// EntityMapperOption configures an EntityMapper
type EntityMapperOption func(*EntityMapper)

// WithEntityExtractor sets how entity fields are read, e.g. NewAccessorHydrator()
func WithEntityExtractor(h Hydrator) EntityMapperOption {
	return func(e *EntityMapper) { e.extractor = h }
}

// WithEntityHydrator sets how entity fields are written onto the target
func WithEntityHydrator(h Hydrator) EntityMapperOption {
	return func(e *EntityMapper) { e.hydrator = h }
}

// WithEntityLogger sets the logger
func WithEntityLogger(l *slog.Logger) EntityMapperOption {
	return func(e *EntityMapper) { e.logger = l }
}

// NewEntityMapper creates an entity mapper
func NewEntityMapper(reader Reader, repositories Repositories, opts ...EntityMapperOption) *EntityMapper {
	e := &EntityMapper{reader: reader, repositories: repositories}
	for _, opt := range opts {
		opt(e)
	}
	if e.extractor == nil {
		e.extractor = NewStructHydrator()
	}
	if e.hydrator == nil {
		e.hydrator = NewStructHydrator()
	}
	if e.logger == nil {
		e.logger = discardLogger()
	}
	return e
}

// Map hydrates target in place from the entity its type declares and returns target.
// Without a directive, or without a value in src, target is returned untouched.
func (e *EntityMapper) Map(ctx context.Context, target any, src Source) (any, error) {
	directive, err := e.reader.Entity(reflect.TypeOf(target))
	if err != nil {
		return nil, err
	}
	if directive == nil {
		return target, nil
	}

	namespace, key, err := From{Source: directive.From}.Split()
	if err != nil {
		return nil, err
	}
	value, ok := src.Value(namespace, key)
	if !ok || value == nil {
		return target, nil
	}

	entity := value
	if !isObject(value) {
		entity, err = e.find(ctx, directive, value)
		if err != nil {
			return nil, err
		}
	}

	data, err := e.extractor.Extract(entity)
	if err != nil {
		return nil, fmt.Errorf("extract %s entity: %w", directive.Entity, err)
	}
	for _, excluded := range directive.Exclude {
		for k := range data {
			if strings.EqualFold(k, excluded) {
				delete(data, k)
			}
		}
	}

	e.logger.DebugContext(ctx, "bootstrapping from entity",
		"entity", directive.Entity, "by", directive.Column(), "fields", len(data))

	if _, err := e.hydrator.Hydrate(data, target); err != nil {
		return nil, fmt.Errorf("hydrate from %s entity: %w", directive.Entity, err)
	}
	return target, nil
}

func (e *EntityMapper) find(ctx context.Context, directive *FromEntity, value any) (any, error) {
	if e.repositories == nil {
		return nil, configErrorf("entity %s: no repositories configured", directive.Entity)
	}
	repo, err := e.repositories.Repository(directive.Entity)
	if err != nil {
		return nil, err
	}
	entity, err := repo.FindOne(ctx, map[string]any{directive.Column(): value})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", directive.Entity, err)
	}
	if entity == nil {
		return nil, &EntityNotFoundError{Entity: directive.Entity, By: directive.Column(), Value: value}
	}
	return entity, nil
}

// isObject reports whether v is already an entity rather than a lookup key
func isObject(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Struct || rv.Kind() == reflect.Map
}
