package input

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Address struct {
	City string `json:"city"`
}

type Base struct {
	Created time.Time
}

type Profile struct {
	Base
	ID       int64             `json:"id"`
	Name     string            `field:"full_name"`
	Age      uint8             `json:"age,omitempty"`
	Score    float32           `json:"score"`
	Active   bool              `json:"active"`
	Timeout  time.Duration     `json:"timeout"`
	Token    uuid.UUID         `json:"token"`
	Nick     *string           `json:"nick"`
	Tags     []string          `json:"tags"`
	Limits   map[string]int    `json:"limits"`
	Home     Address           `json:"home"`
	Extra    any               `json:"extra"`
	Labels   map[string]string `json:"-"`
	internal string
}

func TestStructHydratorHydrate(t *testing.T) {
	h := NewStructHydrator()
	token := uuid.New()
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	p := &Profile{}
	out, err := h.Hydrate(map[string]any{
		"id":        "42",
		"FULL_NAME": "Ada",
		"age":       float64(36),
		"score":     int64(7),
		"active":    "true",
		"timeout":   "2s",
		"token":     token.String(),
		"nick":      "ada",
		"tags":      []any{"a", "b"},
		"limits":    map[string]any{"x": "1"},
		"home":      map[string]any{"city": "London"},
		"extra":     []int{1},
		"Labels":    map[string]string{"k": "v"},
		"Created":   created,
		"internal":  "ignored",
		"unknown":   "ignored",
	}, p)
	require.NoError(t, err)
	assert.Same(t, p, out)

	nick := "ada"
	assert.Equal(t, &Profile{
		Base:    Base{Created: created},
		ID:      42,
		Name:    "Ada",
		Age:     36,
		Score:   7,
		Active:  true,
		Timeout: 2 * time.Second,
		Token:   token,
		Nick:    &nick,
		Tags:    []string{"a", "b"},
		Limits:  map[string]int{"x": 1},
		Home:    Address{City: "London"},
		Extra:   []int{1},
		Labels:  map[string]string{"k": "v"},
	}, p)
}

type headline struct {
	Title    string
	Headline string `json:"title"`
}

func TestStructHydratorGoNamesWin(t *testing.T) {
	h := NewStructHydrator()

	v := &headline{Headline: "keep"}
	_, err := h.Hydrate(map[string]any{"Title": "new"}, v)
	require.NoError(t, err)
	assert.Equal(t, &headline{Title: "new", Headline: "keep"}, v)

	data, err := h.Extract(&headline{Title: "a", Headline: "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Title": "a", "title": "b"}, data)

	round := &headline{}
	_, err = h.Hydrate(data, round)
	require.NoError(t, err)
	assert.Equal(t, &headline{Title: "a", Headline: "b"}, round)
}

func TestStructHydratorMismatch(t *testing.T) {
	h := NewStructHydrator()

	tests := []struct {
		name string
		data map[string]any
	}{
		{"string into int", map[string]any{"id": "forty"}},
		{"fraction into int", map[string]any{"id": 1.5}},
		{"overflow", map[string]any{"age": 300}},
		{"negative into unsigned", map[string]any{"age": -1}},
		{"struct into string", map[string]any{"full_name": Address{}}},
		{"bad slice element", map[string]any{"tags": []any{"a", Address{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Hydrate(tt.data, &Profile{})
			assert.ErrorIs(t, err, ErrTypeMismatch)
		})
	}

	_, err := h.Hydrate(map[string]any{"token": "nope"}, &Profile{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.Hydrate(map[string]any{"id": 1}, Profile{})
	assert.ErrorIs(t, err, ErrTypeMismatch, "needs a pointer")
}

func TestStructHydratorNilClears(t *testing.T) {
	h := NewStructHydrator()
	nick := "x"
	p := &Profile{ID: 3, Nick: &nick}

	_, err := h.Hydrate(map[string]any{"id": nil, "nick": nil}, p)
	require.NoError(t, err)
	assert.Zero(t, p.ID)
	assert.Nil(t, p.Nick)
}

func TestStructHydratorExtract(t *testing.T) {
	h := NewStructHydrator()

	data, err := h.Extract(&User{ID: 1, Username: "User1", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": 1, "username": "User1", "password": "p"}, data)

	data, err = h.Extract(Address{City: "Paris"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "Paris"}, data)

	src := map[string]any{"a": 1}
	data, err = h.Extract(src)
	require.NoError(t, err)
	data["b"] = 2
	assert.Len(t, src, 1, "maps are copied")

	_, err = h.Extract((*User)(nil))
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = h.Extract(5)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestStructHydratorMap(t *testing.T) {
	target := map[string]any{"a": 1}
	out, err := NewStructHydrator().Hydrate(map[string]any{"b": 2}, target)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, out)
}

type Account struct {
	id      string
	visible bool
	email   string
}

func (a *Account) GetId() string       { return a.id }
func (a *Account) IsVisible() bool     { return a.visible }
func (a *Account) SetId(id string)     { a.id = id }
func (a *Account) SetVisible(v bool)   { a.visible = v }
func (a *Account) HasEmail() bool      { return a.email != "" }
func (a *Account) Issue() string       { return "not a getter" }
func (a *Account) GetPair() (int, int) { return 1, 2 }
func (a *Account) SetEmail(e string) error {
	if e == "" {
		return assert.AnError
	}
	a.email = e
	return nil
}

func TestAccessorHydratorExtract(t *testing.T) {
	h := NewAccessorHydrator()

	data, err := h.Extract(&Account{id: "123", visible: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "123", "visible": true, "email": false}, data)

	_, err = h.Extract((*Account)(nil))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestAccessorHydratorHydrate(t *testing.T) {
	h := NewAccessorHydrator()
	a := &Account{}

	_, err := h.Hydrate(map[string]any{"id": 123, "Visible": "true", "email": "a@b.c", "unknown": 1}, a)
	require.NoError(t, err)
	assert.Equal(t, &Account{id: "123", visible: true, email: "a@b.c"}, a)

	_, err = h.Hydrate(map[string]any{"email": ""}, a)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestLowerCamel(t *testing.T) {
	tests := map[string]string{
		"Id":      "id",
		"ID":      "id",
		"Visible": "visible",
		"URLPath": "urlPath",
		"userID":  "userID",
	}
	for in, want := range tests {
		assert.Equal(t, want, lowerCamel(in), in)
	}
}
