package input

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ProfileUpdate struct {
	ID       int
	Nickname string
	Sellers  []*User
	Password string
}

const profileMapping = `
types:
  input.ProfileUpdate:
    entity: entity(User, from=query:id, exclude=[password])
    fields:
      Nickname:
        from: data:nick
        load: service(Names, Normalize)
      Sellers:
        from: data:sellers
        load: arrayOf(entity, User, by=username)
      Password: {}
`

func TestYAMLReader(t *testing.T) {
	reader, err := ParseYAML([]byte(profileMapping))
	require.NoError(t, err)
	typ := reflect.TypeOf(ProfileUpdate{})

	meta, err := NewResolver(reader).Resolve(context.Background(), typ)
	require.NoError(t, err)
	assert.Equal(t, []FieldMetadata{
		{Field: "Nickname", From: From{Source: "data:nick"}, Loader: ServiceLoader{Service: "Names", Method: "Normalize"}},
		{Field: "Sellers", From: From{Source: "data:sellers"}, Loader: ArrayOfLoader{Element: KindEntity, Args: []any{"User", "username"}}},
	}, meta.Fields)

	entity, err := reader.Entity(typ)
	require.NoError(t, err)
	assert.Equal(t, &FromEntity{Entity: "User", From: "query:id", By: "id", Exclude: []string{"password"}}, entity)

	entity, err = reader.Entity(reflect.TypeOf(User{}))
	require.NoError(t, err)
	assert.Nil(t, entity)
}

func TestYAMLReaderEntityMapping(t *testing.T) {
	reader, err := ParseYAML([]byte(`
types:
  input.ProfileUpdate:
    entity:
      entity: User
      from: attribute:user
      by: username
`))
	require.NoError(t, err)

	entity, err := reader.Entity(reflect.TypeOf(&ProfileUpdate{}))
	require.NoError(t, err)
	assert.Equal(t, "username", entity.Column())
	assert.Equal(t, "attribute:user", entity.From)
}

func TestYAMLReaderErrors(t *testing.T) {
	tests := map[string]string{
		"malformed yaml":        "types: [",
		"bad loader":            "types:\n  T:\n    fields:\n      F:\n        from: data:f\n        load: lookup(F)\n",
		"bad entity directive":  "types:\n  T:\n    entity: entity(User)\n",
		"entity mapping source": "types:\n  T:\n    entity:\n      entity: User\n      from: user\n",
		"entity mapping fields": "types:\n  T:\n    entity:\n      from: query:id\n",
		"entity sequence":       "types:\n  T:\n    entity: [User]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseYAML([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profileMapping), 0o600))

	reader, err := LoadYAMLFile(path)
	require.NoError(t, err)
	assert.Contains(t, reader.File().Types, "input.ProfileUpdate")

	_, err = LoadYAMLFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCompositeReader(t *testing.T) {
	yamlReader, err := ParseYAML([]byte(profileMapping))
	require.NoError(t, err)
	reader := CompositeReader{NewTagReader(), yamlReader}

	meta, err := NewResolver(reader).Resolve(context.Background(), reflect.TypeOf(ProfileUpdate{}))
	require.NoError(t, err)
	assert.Len(t, meta.Fields, 2, "yaml directives apply when tags are absent")

	meta, err = NewResolver(reader).Resolve(context.Background(), reflect.TypeOf(OrderInput{}))
	require.NoError(t, err)
	assert.NotEmpty(t, meta.Fields)

	entity, err := reader.Entity(reflect.TypeOf(UserForm{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"password"}, entity.Exclude)
}

func TestYAMLBindEndToEnd(t *testing.T) {
	reader, err := ParseYAML([]byte(profileMapping))
	require.NoError(t, err)
	repo := newUserRepository()
	mapper := NewMapper(NewResolver(reader), newTestDispatcher(repo))
	binder := NewBinder(mapper, NewEntityMapper(reader, testRepositories(repo)))

	out, err := Bind(context.Background(), binder, &ProfileUpdate{Password: "typed"}, MapSource{
		"id":      "1",
		"nick":    " new ",
		"sellers": []string{"User123"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.ID)
	assert.Equal(t, "NEW", out.Nickname)
	assert.Equal(t, "typed", out.Password)
	require.Len(t, out.Sellers, 1)
	assert.Equal(t, 123, out.Sellers[0].ID)
}
