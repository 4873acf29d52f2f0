package adapters

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/toyz/axon-input/pkg/input"
)

// FiberRequest implements input.Request for Fiber
type FiberRequest struct {
	ctx *fiber.Ctx
}

// Fiber wraps a fiber context
func Fiber(c *fiber.Ctx) *FiberRequest {
	return &FiberRequest{ctx: c}
}

// FiberSource returns the input source of a fiber request
func FiberSource(c *fiber.Ctx) *input.RequestSource {
	return input.NewRequestSource(Fiber(c))
}

func (r *FiberRequest) Param(key string) string {
	return r.ctx.Params(key)
}

func (r *FiberRequest) QueryParams() map[string][]string {
	result := make(map[string][]string)
	r.ctx.Request().URI().QueryArgs().VisitAll(func(key, value []byte) {
		keyStr := string(key)
		result[keyStr] = append(result[keyStr], string(value))
	})
	return result
}

func (r *FiberRequest) Header(key string) string {
	return r.ctx.Get(key)
}

func (r *FiberRequest) Cookie(name string) (string, bool) {
	value := r.ctx.Request().Header.Cookie(name)
	if value == nil {
		return "", false
	}
	return string(value), true
}

// Get returns a fiber local
func (r *FiberRequest) Get(key string) any {
	return r.ctx.Locals(key)
}

func (r *FiberRequest) ContentType() string {
	return r.ctx.Get(fiber.HeaderContentType)
}

// Body returns a copy of the request body; fiber reuses its buffers after the handler returns
func (r *FiberRequest) Body() ([]byte, error) {
	return append([]byte(nil), r.ctx.Body()...), nil
}

func (r *FiberRequest) FormParams() (map[string][]string, error) {
	result := make(map[string][]string)
	if strings.HasPrefix(r.ContentType(), fiber.MIMEMultipartForm) {
		form, err := r.ctx.MultipartForm()
		if err != nil {
			return nil, err
		}
		for key, values := range form.Value {
			result[key] = append([]string(nil), values...)
		}
		return result, nil
	}
	if strings.HasPrefix(r.ContentType(), fiber.MIMEApplicationForm) {
		r.ctx.Request().PostArgs().VisitAll(func(key, value []byte) {
			keyStr := string(key)
			result[keyStr] = append(result[keyStr], string(value))
		})
	}
	return result, nil
}

// FiberBind binds every request onto a fresh T and stores the result in the locals under key
func FiberBind[T any](b *input.Binder, key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bound, err := input.Bind(c.UserContext(), b, new(T), FiberSource(c))
		if err != nil {
			return FiberError(c, err)
		}
		c.Locals(key, bound)
		return c.Next()
	}
}

// FiberError writes the HTTP error err maps to
func FiberError(c *fiber.Ctx, err error) error {
	httpErr := input.HTTPErrorFrom(err)
	return c.Status(httpErr.StatusCode).JSON(errorBody(httpErr))
}
