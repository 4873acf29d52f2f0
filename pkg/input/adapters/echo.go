package adapters

import (
	"github.com/labstack/echo/v4"
	"github.com/toyz/axon-input/pkg/input"
)

// EchoRequest implements input.Request for Echo v4
type EchoRequest struct {
	*input.HTTPRequest
	context echo.Context
}

// Echo wraps an echo context
func Echo(c echo.Context) *EchoRequest {
	return &EchoRequest{HTTPRequest: input.NewHTTPRequest(c.Request(), nil), context: c}
}

// EchoSource returns the input source of an echo request
func EchoSource(c echo.Context) *input.RequestSource {
	return input.NewRequestSource(Echo(c))
}

// Param returns a path parameter
func (r *EchoRequest) Param(key string) string {
	return r.context.Param(key)
}

// QueryParams returns all query parameters
func (r *EchoRequest) QueryParams() map[string][]string {
	return r.context.QueryParams()
}

// Get returns a value set on the echo context, falling back to the request context
func (r *EchoRequest) Get(key string) any {
	if value := r.context.Get(key); value != nil {
		return value
	}
	return r.HTTPRequest.Get(key)
}

// EchoBind binds every request onto a fresh T and stores the result under key
func EchoBind[T any](b *input.Binder, key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			bound, err := input.Bind(c.Request().Context(), b, new(T), EchoSource(c))
			if err != nil {
				return EchoError(err)
			}
			c.Set(key, bound)
			return next(c)
		}
	}
}

// EchoError converts a mapping error into an *echo.HTTPError
func EchoError(err error) *echo.HTTPError {
	httpErr := input.HTTPErrorFrom(err)
	return echo.NewHTTPError(httpErr.StatusCode, errorBody(httpErr)).SetInternal(err)
}
