package adapters

import (
	"github.com/gin-gonic/gin"
	"github.com/toyz/axon-input/pkg/input"
)

// GinRequest implements input.Request for Gin
type GinRequest struct {
	*input.HTTPRequest
	ctx *gin.Context
}

// Gin wraps a gin context
func Gin(c *gin.Context) *GinRequest {
	return &GinRequest{HTTPRequest: input.NewHTTPRequest(c.Request, nil), ctx: c}
}

// GinSource returns the input source of a gin request
func GinSource(c *gin.Context) *input.RequestSource {
	return input.NewRequestSource(Gin(c))
}

// Param returns a path parameter
func (r *GinRequest) Param(key string) string {
	return r.ctx.Param(key)
}

// Get returns a value set on the gin context, falling back to the request context
func (r *GinRequest) Get(key string) any {
	if value, ok := r.ctx.Get(key); ok {
		return value
	}
	return r.HTTPRequest.Get(key)
}

// ContentType returns the content type
func (r *GinRequest) ContentType() string {
	return r.ctx.GetHeader("Content-Type")
}

// GinBind binds every request onto a fresh T and stores the result under key.
// Failures abort the request with the mapped HTTP status.
func GinBind[T any](b *input.Binder, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		bound, err := input.Bind(c.Request.Context(), b, new(T), GinSource(c))
		if err != nil {
			AbortGin(c, err)
			return
		}
		c.Set(key, bound)
		c.Next()
	}
}

// AbortGin aborts the request with the HTTP error err maps to
func AbortGin(c *gin.Context, err error) {
	httpErr := input.HTTPErrorFrom(err)
	c.AbortWithStatusJSON(httpErr.StatusCode, errorBody(httpErr))
}
