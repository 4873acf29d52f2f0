package input

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSplit(t *testing.T) {
	ns, key, err := From{Source: "query:user.id"}.Split()
	require.NoError(t, err)
	assert.Equal(t, "query", ns)
	assert.Equal(t, "user.id", key)

	for _, bad := range []string{"", "query", ":id", "query:"} {
		_, _, err := From{Source: bad}.Split()
		assert.ErrorIs(t, err, ErrInvalidConfiguration, bad)
	}
}

func TestParseLoader(t *testing.T) {
	tests := []struct {
		directive string
		expected  Loader
	}{
		{"entity(User)", EntityLoader{Entity: "User", By: "id"}},
		{"entity(User, by=username)", EntityLoader{Entity: "User", By: "username"}},
		{"service(Multiplier, Multiply, 10)", ServiceLoader{Service: "Multiplier", Method: "Multiply", Args: []any{int64(10)}}},
		{"service(Multiplier, MultiplyByTwo)", ServiceLoader{Service: "Multiplier", Method: "MultiplyByTwo"}},
		{"constructor(time.Time)", ConstructorLoader{Type: "time.Time"}},
		{"constructor(DateTimeImmutable, named=true)", ConstructorLoader{Type: "DateTimeImmutable", Named: true}},
		{"arrayOf(entity, User, by=username)", ArrayOfLoader{Element: KindEntity, Args: []any{"User", "username"}}},
		{"arrayOf(constructor, int)", ArrayOfLoader{Element: KindConstructor, Args: []any{"int", false}}},
	}

	for _, tt := range tests {
		t.Run(tt.directive, func(t *testing.T) {
			loader, err := ParseLoader(tt.directive)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, loader)
		})
	}
}

func TestParseLoaderErrors(t *testing.T) {
	for _, directive := range []string{
		"entity()",
		"lookup(User)",
		"service(Multiplier)",
		"entity(User",
		"fromEntity(User, from=query:id)",
	} {
		_, err := ParseLoader(directive)
		assert.ErrorIs(t, err, ErrInvalidConfiguration, directive)
	}
}

func TestNewLoader(t *testing.T) {
	loader, err := NewLoader(KindArrayOf, "service", "Multiplier", "Multiply", 3)
	require.NoError(t, err)
	assert.Equal(t, ArrayOfLoader{Element: KindService, Args: []any{"Multiplier", "Multiply", 3}}, loader)
	assert.Equal(t, []any{"service", "Multiplier", "Multiply", 3}, loader.Arguments())
	assert.Equal(t, "arrayOf(service, Multiplier, Multiply, 3)", loader.String())

	loader, err = NewLoader(KindEntity, "User", "")
	require.NoError(t, err)
	assert.Equal(t, "entity(User, by=id)", loader.String())

	tests := []struct {
		name string
		kind LoaderKind
		args []any
	}{
		{"entity without name", KindEntity, nil},
		{"entity name not a string", KindEntity, []any{42}},
		{"service without method", KindService, []any{"Multiplier"}},
		{"constructor named not bool", KindConstructor, []any{"int", "yes"}},
		{"arrayOf unknown element", KindArrayOf, []any{"lookup"}},
		{"unknown kind", LoaderKind("lookup"), []any{"User"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(tt.kind, tt.args...)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestParseLoaderKind(t *testing.T) {
	kind, err := ParseLoaderKind("ARRAYOF")
	require.NoError(t, err)
	assert.Equal(t, KindArrayOf, kind)

	_, err = ParseLoaderKind("fromEntity")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestParseFromEntity(t *testing.T) {
	fe, err := ParseFromEntity("entity(User, from=query:id, exclude=[password])")
	require.NoError(t, err)
	assert.Equal(t, &FromEntity{Entity: "User", From: "query:id", By: "id", Exclude: []string{"password"}}, fe)

	fe, err = ParseFromEntity("fromEntity(User, from=data:name, by=username)")
	require.NoError(t, err)
	assert.Equal(t, "username", fe.Column())
	assert.Empty(t, fe.Exclude)

	_, err = ParseFromEntity("entity(User, from=id)")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	_, err = ParseFromEntity("entity(User)")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestFieldMetadataJSON(t *testing.T) {
	meta := TypeMetadata{
		Type: "app.Input",
		Fields: []FieldMetadata{
			{Field: "Name", From: From{Source: "data:name"}},
			{Field: "Author", From: From{Source: "data:author"}, Loader: EntityLoader{Entity: "User", By: "username"}},
			{Field: "Dates", From: From{Source: "data:dates"}, Loader: ArrayOfLoader{Element: KindConstructor, Args: []any{"time.Time", true}}},
		},
	}

	data, err := json.Marshal(meta)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "app.Input",
		"fields": [
			{"field": "Name", "from": {"source": "data:name"}},
			{"field": "Author", "from": {"source": "data:author"}, "loader": {"kind": "entity", "args": ["User", "username"]}},
			{"field": "Dates", "from": {"source": "data:dates"}, "loader": {"kind": "arrayOf", "args": ["constructor", "time.Time", true]}}
		]
	}`, string(data))

	var decoded TypeMetadata
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, meta, decoded)

	f, ok := decoded.Field("Author")
	require.True(t, ok)
	assert.Equal(t, KindEntity, f.Loader.Kind())
	_, ok = decoded.Field("Missing")
	assert.False(t, ok)

	err = json.Unmarshal([]byte(`{"field":"X","from":{"source":"a:b"},"loader":{"kind":"lookup","args":[]}}`), &FieldMetadata{})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestFieldMetadataJSONKeepsNumberTypes(t *testing.T) {
	loader, err := ParseLoader("service(Multiplier, Multiply, 10, 2.5)")
	require.NoError(t, err)
	field := FieldMetadata{Field: "Quantity", From: From{Source: "query:quantity"}, Loader: loader}

	data, err := json.Marshal(field)
	require.NoError(t, err)

	var decoded FieldMetadata
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, field, decoded)
	assert.Equal(t, []any{int64(10), 2.5}, decoded.Loader.(ServiceLoader).Args)
}
