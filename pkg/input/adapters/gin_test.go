package adapters

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/toyz/axon-input/pkg/input"
)

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

func newGinEngine(got **CommentInput) *gin.Engine {
	engine := gin.New()
	setUser := func(c *gin.Context) {
		c.Set("user", "u1")
		c.Next()
	}
	engine.POST("/posts/:post/comments", setUser, GinBind[CommentInput](newTestBinder(), "input"), func(c *gin.Context) {
		*got = c.MustGet("input").(*CommentInput)
		c.Status(http.StatusNoContent)
	})
	return engine
}

func TestGinBind(t *testing.T) {
	var got *CommentInput
	engine := newGinEngine(&got)

	req := httptest.NewRequest("POST", "/posts/7/comments?author=1&count=3", strings.NewReader(`{"body":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant", "acme")
	req.AddCookie(&http.Cookie{Name: "session", Value: "s1"})
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d: %s", rec.Code, rec.Body.String())
	}
	checkComment(t, got, "hello")
}

func TestGinBind_Form(t *testing.T) {
	var got *CommentInput
	engine := newGinEngine(&got)

	req := httptest.NewRequest("POST", "/posts/7/comments?author=1&count=3", strings.NewReader("body=from+form"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Tenant", "acme")
	req.AddCookie(&http.Cookie{Name: "session", Value: "s1"})
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d: %s", rec.Code, rec.Body.String())
	}
	checkComment(t, got, "from form")
}

func TestGinBind_Error(t *testing.T) {
	var got *CommentInput
	engine := newGinEngine(&got)

	req := httptest.NewRequest("POST", "/posts/7/comments?count=many", nil)
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"details":{"field":"Count"}`) {
		t.Errorf("Expected field details in response body, got '%s'", body)
	}
	if got != nil {
		t.Error("Expected handler not to run")
	}
}

func TestGinRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest("GET", "/?tags[]=a&tags[]=b", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	c.Set("role", "admin")

	src := GinSource(c)
	if v, _ := src.Value(input.NamespaceParam, "id"); v != "9" {
		t.Errorf("Expected param '9', got %v", v)
	}
	if v, _ := src.Value(input.NamespaceAttribute, "role"); v != "admin" {
		t.Errorf("Expected attribute 'admin', got %v", v)
	}
	v, _ := src.Value(input.NamespaceQuery, "tags")
	if tags, ok := v.([]string); !ok || len(tags) != 2 {
		t.Errorf("Expected two tags, got %v", v)
	}
	if _, ok := src.Value(input.NamespaceAttribute, "missing"); ok {
		t.Error("Expected missing attribute to be absent")
	}
}
