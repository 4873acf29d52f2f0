package input

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type UserForm struct {
	_        struct{} `input:"entity(User, from=query:id, exclude=[password])"`
	ID       int      `json:"id"`
	Username string   `json:"username" from:"data:username"`
	Password string   `json:"password"`
}

type UserByName struct {
	_        struct{} `input:"fromEntity(User, from=query:name, by=username)"`
	ID       int
	Username string
}

type PlainForm struct {
	Username string `from:"data:username"`
}

func newTestEntityMapper(repo Repository, opts ...EntityMapperOption) *EntityMapper {
	return NewEntityMapper(NewTagReader(), testRepositories(repo), opts...)
}

func TestEntityMapperBootstrapsFromEntity(t *testing.T) {
	repo := newUserRepository()
	e := newTestEntityMapper(repo)
	form := &UserForm{Password: "typed"}

	out, err := e.Map(context.Background(), form, MapSource{"id": "123"})
	require.NoError(t, err)
	assert.Same(t, form, out, "the target is hydrated in place")
	assert.Equal(t, 123, form.ID)
	assert.Equal(t, "User123", form.Username)
	assert.Equal(t, "typed", form.Password, "excluded fields are not copied")
	assert.Equal(t, []map[string]any{{"id": "123"}}, repo.calls)

	byName := &UserByName{}
	_, err = e.Map(context.Background(), byName, MapSource{"name": "User1"})
	require.NoError(t, err)
	assert.Equal(t, 1, byName.ID)
}

func TestEntityMapperPassThrough(t *testing.T) {
	repo := newUserRepository()
	e := newTestEntityMapper(repo)
	ctx := context.Background()

	plain := &PlainForm{Username: "x"}
	out, err := e.Map(ctx, plain, MapSource{"id": "1"})
	require.NoError(t, err)
	assert.Same(t, plain, out, "no directive")

	form := &UserForm{}
	_, err = e.Map(ctx, form, MapSource{})
	require.NoError(t, err)
	assert.Zero(t, *form, "no lookup value")

	_, err = e.Map(ctx, form, MapSource{"id": nil})
	require.NoError(t, err)
	assert.Zero(t, *form, "nil lookup value")
	assert.Zero(t, repo.callCount())
}

func TestEntityMapperObjectValue(t *testing.T) {
	repo := newUserRepository()
	e := newTestEntityMapper(repo)
	ctx := context.Background()

	form := &UserForm{}
	_, err := e.Map(ctx, form, MapSource{"id": &User{ID: 5, Username: "given", Password: "p"}})
	require.NoError(t, err)
	assert.Equal(t, &UserForm{ID: 5, Username: "given"}, form)

	form = &UserForm{}
	_, err = e.Map(ctx, form, MapSource{"id": map[string]any{"id": 8, "password": "p"}})
	require.NoError(t, err)
	assert.Equal(t, &UserForm{ID: 8}, form)
	assert.Zero(t, repo.callCount(), "objects are used without a lookup")
}

func TestEntityMapperNotFound(t *testing.T) {
	e := newTestEntityMapper(newUserRepository())

	_, err := e.Map(context.Background(), &UserForm{}, MapSource{"id": "999"})
	require.Error(t, err)
	assert.EqualError(t, err, "could not find entity 'User' by condition 'id = 999'")
	assert.ErrorIs(t, err, ErrEntityNotFound)
	assert.Equal(t, CodeEntityNotFound, CodeOf(err))
}

func TestEntityMapperErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewEntityMapper(NewTagReader(), nil).Map(ctx, &UserForm{}, MapSource{"id": "1"})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewEntityMapper(NewTagReader(), NewRepositoryMap(nil)).Map(ctx, &UserForm{}, MapSource{"id": "1"})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	boom := errors.New("timeout")
	failing := RepositoryFunc(func(context.Context, map[string]any) (any, error) { return nil, boom })
	_, err = newTestEntityMapper(failing).Map(ctx, &UserForm{}, MapSource{"id": "1"})
	assert.ErrorIs(t, err, boom)

	wrong := RepositoryFunc(func(context.Context, map[string]any) (any, error) {
		return &User{Username: "u"}, nil
	})
	_, err = newTestEntityMapper(wrong).Map(ctx, UserForm{}, MapSource{"id": "1"})
	assert.ErrorIs(t, err, ErrTypeMismatch, "value targets cannot be hydrated in place")
}

func TestEntityMapperAccessorExtractor(t *testing.T) {
	accounts := RepositoryFunc(func(_ context.Context, criteria map[string]any) (any, error) {
		return &Account{id: criteria["id"].(string), visible: true}, nil
	})
	type AccountView struct {
		_       struct{} `input:"entity(Account, from=attribute:account)"`
		ID      string   `json:"id"`
		Visible bool     `json:"visible"`
	}

	e := NewEntityMapper(NewTagReader(), NewRepositoryMap(map[string]Repository{"Account": accounts}),
		WithEntityExtractor(NewAccessorHydrator()))

	view := &AccountView{}
	_, err := e.Map(context.Background(), view, MapSource{"account": "123"})
	require.NoError(t, err)
	assert.Equal(t, "123", view.ID)
	assert.True(t, view.Visible)
}

func TestEntityMapperLogs(t *testing.T) {
	logger, buf := bufferLogger()
	e := newTestEntityMapper(newUserRepository(), WithEntityLogger(logger))

	_, err := e.Map(context.Background(), &UserForm{}, MapSource{"id": 1})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "bootstrapping from entity")
	assert.Contains(t, buf.String(), "entity=User")
}

func TestBinder(t *testing.T) {
	repo := newUserRepository()
	mapper := newTestMapper(repo)
	b := NewBinder(mapper, newTestEntityMapper(repo))
	ctx := context.Background()

	original := &UserForm{}
	out, err := b.Bind(ctx, original, MapSource{"id": "1", "username": "renamed"})
	require.NoError(t, err)
	form := out.(*UserForm)
	assert.NotSame(t, original, form)
	assert.Equal(t, 1, form.ID)
	assert.Equal(t, "renamed", form.Username, "mapped input overrides the entity")
	assert.Zero(t, *original)

	value, err := b.Bind(ctx, UserForm{}, MapSource{"id": "123"})
	require.NoError(t, err)
	assert.Equal(t, "User123", value.(UserForm).Username)

	typed, err := Bind(ctx, b, (*UserForm)(nil), MapSource{"id": "123"})
	require.NoError(t, err)
	assert.Equal(t, 123, typed.ID)

	_, err = Bind(ctx, b, (*UserForm)(nil), MapSource{"id": "999"})
	assert.ErrorIs(t, err, ErrEntityNotFound)

	plain, err := NewBinder(mapper, nil).Bind(ctx, &PlainForm{}, MapSource{"username": "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", plain.(*PlainForm).Username)
}
