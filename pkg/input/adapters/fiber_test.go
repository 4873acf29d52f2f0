package adapters

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newFiberApp(got **CommentInput) *fiber.App {
	app := fiber.New()
	setUser := func(c *fiber.Ctx) error {
		c.Locals("user", "u1")
		return c.Next()
	}
	app.Post("/posts/:post/comments", setUser, FiberBind[CommentInput](newTestBinder(), "input"), func(c *fiber.Ctx) error {
		*got = c.Locals("input").(*CommentInput)
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func TestFiberBind(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		expected    string
	}{
		{"json", "application/json", `{"body":"hello"}`, "hello"},
		{"form", "application/x-www-form-urlencoded", "body=from+form", "from form"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *CommentInput
			app := newFiberApp(&got)

			req, _ := http.NewRequest("POST", "/posts/7/comments?author=1&count=3", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			req.Header.Set("X-Tenant", "acme")
			req.AddCookie(&http.Cookie{Name: "session", Value: "s1"})

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("Failed to execute request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusNoContent {
				t.Fatalf("Expected status 204, got %d", resp.StatusCode)
			}
			checkComment(t, got, tt.expected)
		})
	}
}

func TestFiberBind_Error(t *testing.T) {
	var got *CommentInput
	app := newFiberApp(&got)

	req, _ := http.NewRequest("POST", "/posts/7/comments?author=1&count=many", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", resp.StatusCode)
	}

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), `"field":"Count"`) {
		t.Errorf("Expected field details in response body, got '%s'", buf.String())
	}
	if got != nil {
		t.Error("Expected handler not to run")
	}
}
