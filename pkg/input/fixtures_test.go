package input

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
)

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func testUsers() []*User {
	return []*User{
		{ID: 1, Username: "User1", Password: "secret1"},
		{ID: 123, Username: "User123", Password: "secret123"},
	}
}

// userRepository matches criteria loosely, like query parameters compared against typed columns
type userRepository struct {
	mu    sync.Mutex
	calls []map[string]any
	users []*User
}

func newUserRepository() *userRepository {
	return &userRepository{users: testUsers()}
}

func (r *userRepository) FindOne(_ context.Context, criteria map[string]any) (any, error) {
	r.mu.Lock()
	r.calls = append(r.calls, criteria)
	r.mu.Unlock()

	for _, u := range r.users {
		row := map[string]any{"id": u.ID, "username": u.Username}
		match := true
		for column, want := range criteria {
			if fmt.Sprint(row[column]) != fmt.Sprint(want) {
				match = false
				break
			}
		}
		if match {
			return u, nil
		}
	}
	return nil, nil
}

func (r *userRepository) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func testRepositories(repo Repository) *RepositoryMap {
	return NewRepositoryMap(map[string]Repository{"User": repo})
}

type Multiplier struct{}

func (Multiplier) MultiplyByTwo(v int) int { return v * 2 }

func (Multiplier) Multiply(v, by int) int { return v * by }

func (Multiplier) Sum(v int, more ...int) int {
	for _, m := range more {
		v += m
	}
	return v
}

func (Multiplier) Fail(v int) (int, error) { return 0, fmt.Errorf("cannot use %d", v) }

func (Multiplier) Scoped(ctx context.Context, v string) string {
	scope, _ := ctx.Value(scopeKey{}).(string)
	return scope + ":" + v
}

type scopeKey struct{}

type Names struct{}

func (Names) Normalize(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func testServices() *Services {
	return NewServices(map[string]any{
		"Multiplier": Multiplier{},
		"Names":      Names{},
	})
}

// countingReader counts directive reads per type
type countingReader struct {
	Reader
	mu    sync.Mutex
	reads int
}

func (c *countingReader) From(owner reflect.Type, field reflect.StructField) (*From, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return c.Reader.From(owner, field)
}

func (c *countingReader) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// bufferLogger returns a logger writing text records into the returned buffer
func bufferLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
