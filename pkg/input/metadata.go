package input

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// CacheKeyPrefix prefixes every metadata cache key
const CacheKeyPrefix = "axon-input:metadata:"

// Resolver computes the TypeMetadata of struct types and caches it
type Resolver struct {
	reader Reader
	cache  Cache
	logger *slog.Logger
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithCache sets the metadata cache; nil disables caching
func WithCache(c Cache) ResolverOption {
	return func(r *Resolver) { r.cache = c }
}

// WithResolverLogger sets the logger
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver reading directives with reader
func NewResolver(reader Reader, opts ...ResolverOption) *Resolver {
	r := &Resolver{reader: reader}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = discardLogger()
	}
	return r
}

// Reader returns the directive reader
func (r *Resolver) Reader() Reader {
	return r.reader
}

// CacheKey returns the cache key of t. The key carries a digest of the field layout,
// so same-named types declared in different functions only share a key when their
// fields and tags match.
func CacheKey(t reflect.Type) string {
	return CacheKeyPrefix + TypeIdentity(t) + "@" + strconv.FormatUint(fieldDigest(t), 16)
}

func fieldDigest(t reflect.Type) uint64 {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	d := xxhash.New()
	if t == nil || t.Kind() != reflect.Struct {
		return d.Sum64()
	}
	for _, f := range reflect.VisibleFields(t) {
		d.WriteString(f.Name)
		d.WriteString("\x00")
		d.WriteString(f.Type.String())
		d.WriteString("\x00")
		d.WriteString(string(f.Tag))
		d.WriteString("\x00")
		for _, i := range f.Index {
			d.WriteString(strconv.Itoa(i))
			d.WriteString(".")
		}
		d.WriteString("\n")
	}
	return d.Sum64()
}

// Resolve returns the metadata of t, a struct type or pointer to one. Cache failures
// are logged and treated as misses.
func (r *Resolver) Resolve(ctx context.Context, t reflect.Type) (*TypeMetadata, error) {
	st := structType(t)
	if st == nil {
		return nil, configErrorf("cannot resolve metadata of non-struct type %v", t)
	}
	key := CacheKey(st)

	if r.cache != nil {
		if meta := r.cached(ctx, key); meta != nil {
			return meta, nil
		}
	}

	meta, err := r.compute(st)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, meta); err != nil {
			r.logger.WarnContext(ctx, "failed to store type metadata", "key", key, "error", err)
		}
	}
	return meta, nil
}

func (r *Resolver) cached(ctx context.Context, key string) *TypeMetadata {
	has, err := r.cache.Has(ctx, key)
	if err != nil {
		r.logger.WarnContext(ctx, "metadata cache lookup failed", "key", key, "error", err)
		return nil
	}
	if !has {
		return nil
	}
	meta, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.WarnContext(ctx, "metadata cache read failed", "key", key, "error", err)
		return nil
	}
	if meta != nil {
		r.logger.DebugContext(ctx, "type metadata cache hit", "key", key)
	}
	return meta
}

func (r *Resolver) compute(t reflect.Type) (*TypeMetadata, error) {
	meta := &TypeMetadata{Type: TypeIdentity(t), Fields: []FieldMetadata{}}
	for _, field := range visibleFields(t) {
		from, err := r.reader.From(t, field)
		if err != nil {
			return nil, err
		}
		if from == nil {
			continue
		}
		if _, _, err := from.Split(); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t, field.Name, err)
		}

		loader, err := r.reader.Loader(t, field)
		if err != nil {
			return nil, err
		}

		meta.Fields = append(meta.Fields, FieldMetadata{Field: field.Name, From: *from, Loader: loader})
	}
	return meta, nil
}

// Entity returns the type-level entity directive of t, or nil
func (r *Resolver) Entity(t reflect.Type) (*FromEntity, error) {
	return r.reader.Entity(t)
}
