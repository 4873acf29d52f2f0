package input

import (
	"context"
	"reflect"
)

// Binder bootstraps a copy of the target from its entity directive, then overlays
// the mapped input fields
type Binder struct {
	mapper *Mapper
	entity *EntityMapper
}

// NewBinder creates a binder
func NewBinder(mapper *Mapper, entity *EntityMapper) *Binder {
	return &Binder{mapper: mapper, entity: entity}
}

// Bind returns a bound copy of target; target itself is not modified
func (b *Binder) Bind(ctx context.Context, target any, src Source) (any, error) {
	cp, err := Clone(target)
	if err != nil {
		return nil, err
	}
	ptr, isValue := addressable(cp)

	if b.entity != nil {
		if _, err := b.entity.Map(ctx, ptr, src); err != nil {
			return nil, err
		}
	}
	if err := b.mapper.mapInto(ctx, ptr, src); err != nil {
		return nil, err
	}

	if isValue {
		return reflect.ValueOf(ptr).Elem().Interface(), nil
	}
	return ptr, nil
}

// Bind binds src onto a copy of target and returns it typed
func Bind[T any](ctx context.Context, b *Binder, target *T, src Source) (*T, error) {
	if target == nil {
		target = new(T)
	}
	out, err := b.Bind(ctx, target, src)
	if err != nil {
		return nil, err
	}
	typed, ok := out.(*T)
	if !ok {
		return nil, &TypeMismatchError{Expected: reflect.TypeOf(target).String(), Value: out, Context: "bind"}
	}
	return typed, nil
}
