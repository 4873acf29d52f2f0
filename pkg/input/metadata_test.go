package input

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type SignupInput struct {
	_        struct{}  `input:"entity(User, from=query:id, exclude=[password])"`
	Name     string    `from:"data:name" load:"service(Names, Normalize)"`
	Author   *User     `from:"data:author" load:"entity(User, by=username)"`
	Scores   []int     `from:"query:scores" load:"arrayOf(service, Multiplier, MultiplyByTwo)"`
	Nickname string    `from:"data:profile.nickname"`
	Ignored  string
	internal string    `from:"data:internal"`
	Marker   *struct{} `json:"-"`
}

func TestResolverResolve(t *testing.T) {
	r := NewResolver(NewTagReader())

	meta, err := r.Resolve(context.Background(), reflect.TypeOf(&SignupInput{}))
	require.NoError(t, err)
	assert.Equal(t, TypeIdentity(reflect.TypeOf(SignupInput{})), meta.Type)
	assert.Equal(t, []FieldMetadata{
		{Field: "Name", From: From{Source: "data:name"}, Loader: ServiceLoader{Service: "Names", Method: "Normalize"}},
		{Field: "Author", From: From{Source: "data:author"}, Loader: EntityLoader{Entity: "User", By: "username"}},
		{Field: "Scores", From: From{Source: "query:scores"}, Loader: ArrayOfLoader{Element: KindService, Args: []any{"Multiplier", "MultiplyByTwo"}}},
		{Field: "Nickname", From: From{Source: "data:profile.nickname"}},
	}, meta.Fields)

	entity, err := r.Entity(reflect.TypeOf(SignupInput{}))
	require.NoError(t, err)
	assert.Equal(t, "query:id", entity.From)
}

type badSourceInput struct {
	Name string `from:"name"`
}

type badLoaderInput struct {
	Name string `from:"data:name" load:"lookup(Name)"`
}

func TestResolverErrors(t *testing.T) {
	r := NewResolver(NewTagReader())
	ctx := context.Background()

	_, err := r.Resolve(ctx, reflect.TypeOf(badSourceInput{}))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "badSourceInput.Name")

	_, err = r.Resolve(ctx, reflect.TypeOf(badLoaderInput{}))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = r.Resolve(ctx, reflect.TypeOf(42))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestResolverCache(t *testing.T) {
	reader := &countingReader{Reader: NewTagReader()}
	cache := NewMemoryCache()
	r := NewResolver(reader, WithCache(cache))
	ctx := context.Background()

	first, err := r.Resolve(ctx, reflect.TypeOf(SignupInput{}))
	require.NoError(t, err)
	reads := reader.count()
	require.Positive(t, reads)

	second, err := r.Resolve(ctx, reflect.TypeOf(&SignupInput{}))
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, reads, reader.count(), "second resolve is served from the cache")
	assert.Equal(t, 1, cache.Size())

	cached, err := cache.Get(ctx, CacheKey(reflect.TypeOf(SignupInput{})))
	require.NoError(t, err)
	assert.Same(t, first, cached)
	assert.Contains(t, CacheKey(reflect.TypeOf(SignupInput{})), CacheKeyPrefix)
}

func resolveLocalA(r *Resolver) (*TypeMetadata, error) {
	type Local struct {
		A string `from:"query:a"`
	}
	return r.Resolve(context.Background(), reflect.TypeOf(Local{}))
}

func resolveLocalB(r *Resolver) (*TypeMetadata, error) {
	type Local struct {
		B string `from:"query:b"`
	}
	return r.Resolve(context.Background(), reflect.TypeOf(Local{}))
}

func TestResolverCacheSeparatesLocalTypes(t *testing.T) {
	cache := NewMemoryCache()
	r := NewResolver(NewTagReader(), WithCache(cache))

	a, err := resolveLocalA(r)
	require.NoError(t, err)
	b, err := resolveLocalB(r)
	require.NoError(t, err)

	assert.Equal(t, a.Type, b.Type, "local types share an identity")
	require.Len(t, a.Fields, 1)
	require.Len(t, b.Fields, 1)
	assert.Equal(t, "A", a.Fields[0].Field)
	assert.Equal(t, "B", b.Fields[0].Field)
	assert.Equal(t, 2, cache.Size())

	again, err := resolveLocalB(r)
	require.NoError(t, err)
	assert.Same(t, b, again)
}

func TestResolverWithoutCache(t *testing.T) {
	reader := &countingReader{Reader: NewTagReader()}
	r := NewResolver(reader)

	for i := 0; i < 2; i++ {
		_, err := r.Resolve(context.Background(), reflect.TypeOf(SignupInput{}))
		require.NoError(t, err)
	}
	assert.Equal(t, 2*len(visibleFields(reflect.TypeOf(SignupInput{}))), reader.count())
}

type failingCache struct {
	err  error
	sets int
}

func (c *failingCache) Has(context.Context, string) (bool, error)          { return false, c.err }
func (c *failingCache) Get(context.Context, string) (*TypeMetadata, error) { return nil, c.err }
func (c *failingCache) Set(context.Context, string, *TypeMetadata) error {
	c.sets++
	return c.err
}

func TestResolverCacheFailuresAreLogged(t *testing.T) {
	logger, buf := bufferLogger()
	cache := &failingCache{err: errors.New("redis: connection refused")}
	r := NewResolver(NewTagReader(), WithCache(cache), WithResolverLogger(logger))

	meta, err := r.Resolve(context.Background(), reflect.TypeOf(SignupInput{}))
	require.NoError(t, err)
	assert.Len(t, meta.Fields, 4)
	assert.Equal(t, 1, cache.sets)
	assert.Contains(t, buf.String(), "metadata cache lookup failed")
	assert.Contains(t, buf.String(), "failed to store type metadata")
	assert.Contains(t, buf.String(), "connection refused")
}

func TestResolverConcurrent(t *testing.T) {
	r := NewResolver(NewTagReader(), WithCache(NewMemoryCache()))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			meta, err := r.Resolve(context.Background(), reflect.TypeOf(SignupInput{}))
			assert.NoError(t, err)
			assert.Len(t, meta.Fields, 4)
		}()
	}
	wg.Wait()
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	has, err := c.Has(ctx, "k")
	require.NoError(t, err)
	assert.False(t, has)
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, "k", &TypeMetadata{Type: "T"}))
	require.NoError(t, c.Set(ctx, "j", &TypeMetadata{Type: "J"}))
	has, _ = c.Has(ctx, "k")
	assert.True(t, has)
	assert.Equal(t, 2, c.Size())

	c.Delete("k")
	assert.Equal(t, 1, c.Size())
	c.Clear()
	assert.Equal(t, 0, c.Size())
}
