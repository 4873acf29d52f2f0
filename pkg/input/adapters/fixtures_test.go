package adapters

import (
	"context"
	"fmt"
	"testing"

	"github.com/toyz/axon-input/pkg/input"
)

type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CommentInput struct {
	PostID  int     `from:"attribute:post"`
	Body    string  `from:"data:body"`
	Author  *Author `from:"query:author" load:"entity(Author)"`
	Count   int     `from:"query:count" load:"constructor(int)"`
	Tenant  string  `from:"header:X-Tenant"`
	Session string  `from:"cookie:session"`
	User    string  `from:"attribute:user"`
}

func newTestBinder() *input.Binder {
	authors := input.RepositoryFunc(func(_ context.Context, criteria map[string]any) (any, error) {
		if fmt.Sprint(criteria["id"]) == "1" {
			return &Author{ID: 1, Name: "ada"}, nil
		}
		return nil, nil
	})
	repos := input.NewRepositoryMap(map[string]input.Repository{"Author": authors})

	reader := input.NewTagReader()
	mapper := input.NewMapper(input.NewResolver(reader), input.NewDispatcher(input.WithRepositories(repos)))
	return input.NewBinder(mapper, input.NewEntityMapper(reader, repos))
}

func checkComment(t *testing.T, got *CommentInput, body string) {
	t.Helper()
	if got == nil {
		t.Errorf("Expected bound input, got nil")
		return
	}
	if got.PostID != 7 {
		t.Errorf("Expected PostID 7, got %d", got.PostID)
	}
	if got.Body != body {
		t.Errorf("Expected Body '%s', got '%s'", body, got.Body)
	}
	if got.Author == nil || got.Author.Name != "ada" {
		t.Errorf("Expected author ada, got %+v", got.Author)
	}
	if got.Count != 3 {
		t.Errorf("Expected Count 3, got %d", got.Count)
	}
	if got.Tenant != "acme" {
		t.Errorf("Expected Tenant 'acme', got '%s'", got.Tenant)
	}
	if got.Session != "s1" {
		t.Errorf("Expected Session 's1', got '%s'", got.Session)
	}
	if got.User != "u1" {
		t.Errorf("Expected User 'u1', got '%s'", got.User)
	}
}
