package input

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Request provides the framework-agnostic view of an HTTP request that RequestSource reads
type Request interface {
	// Param returns a route parameter, or "" when the route has none by that name
	Param(key string) string
	QueryParams() map[string][]string
	Header(key string) string
	Cookie(name string) (string, bool)
	// Get returns a value stored on the request context by middleware
	Get(key string) any
	ContentType() string
	Body() ([]byte, error)
	FormParams() (map[string][]string, error)
}

// Request namespaces understood by RequestSource
const (
	NamespaceQuery     = "query"
	NamespaceData      = "data"
	NamespacePost      = "post"
	NamespaceHeader    = "header"
	NamespaceCookie    = "cookie"
	NamespaceAttribute = "attribute"
	NamespaceParam     = "param"
)

// RequestSource exposes a Request as a Source. The JSON body is decoded once.
type RequestSource struct {
	req Request

	bodyOnce sync.Once
	body     map[string]any
	bodyErr  error
}

// NewRequestSource wraps req
func NewRequestSource(req Request) *RequestSource {
	return &RequestSource{req: req}
}

// Value implements Source
func (s *RequestSource) Value(namespace, key string) (any, bool) {
	switch strings.ToLower(namespace) {
	case NamespaceQuery:
		return multiValue(s.req.QueryParams(), key)
	case NamespaceData:
		if isJSON(s.req.ContentType()) {
			body := s.jsonBody()
			if body == nil {
				return nil, false
			}
			return MapSource(body).Value(namespace, key)
		}
		return s.form(key)
	case NamespacePost:
		return s.form(key)
	case NamespaceHeader:
		if v := s.req.Header(key); v != "" {
			return v, true
		}
		return nil, false
	case NamespaceCookie:
		if v, ok := s.req.Cookie(key); ok {
			return v, true
		}
		return nil, false
	case NamespaceAttribute, NamespaceParam:
		if v := s.req.Param(key); v != "" {
			return v, true
		}
		if v := s.req.Get(key); v != nil {
			return v, true
		}
		return nil, false
	default:
		return nil, false
	}
}

// BodyError returns the error from decoding the JSON body, if any
func (s *RequestSource) BodyError() error {
	s.jsonBody()
	return s.bodyErr
}

func (s *RequestSource) jsonBody() map[string]any {
	s.bodyOnce.Do(func() {
		raw, err := s.req.Body()
		if err != nil {
			s.bodyErr = err
			return
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			return
		}
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			s.bodyErr = &InvalidInputError{Type: "JSON object", Value: string(raw), Err: err}
			return
		}
		s.body = body
	})
	return s.body
}

func (s *RequestSource) form(key string) (any, bool) {
	params, err := s.req.FormParams()
	if err != nil {
		return nil, false
	}
	return multiValue(params, key)
}

func multiValue(values map[string][]string, key string) (any, bool) {
	v, ok := values[key]
	if !ok {
		v, ok = values[key+"[]"]
	}
	if !ok || len(v) == 0 {
		return nil, false
	}
	if len(v) == 1 && !strings.HasSuffix(key, "[]") {
		if _, list := values[key+"[]"]; !list {
			return v[0], true
		}
	}
	return append([]string(nil), v...), true
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// HTTPRequest implements Request over net/http. Route parameters and context values
// are supplied by the caller since net/http does not track them.
type HTTPRequest struct {
	R      *http.Request
	Params map[string]string
	Values func(key string) any

	bodyOnce sync.Once
	body     []byte
	bodyErr  error
}

// NewHTTPRequest wraps r with the given route parameters
func NewHTTPRequest(r *http.Request, params map[string]string) *HTTPRequest {
	return &HTTPRequest{R: r, Params: params}
}

func (h *HTTPRequest) Param(key string) string { return h.Params[key] }

func (h *HTTPRequest) QueryParams() map[string][]string { return h.R.URL.Query() }

func (h *HTTPRequest) Header(key string) string { return h.R.Header.Get(key) }

func (h *HTTPRequest) Cookie(name string) (string, bool) {
	c, err := h.R.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

func (h *HTTPRequest) Get(key string) any {
	if h.Values != nil {
		if v := h.Values(key); v != nil {
			return v
		}
	}
	return h.R.Context().Value(key)
}

func (h *HTTPRequest) ContentType() string { return h.R.Header.Get("Content-Type") }

// Body reads the request body once and restores it for later readers
func (h *HTTPRequest) Body() ([]byte, error) {
	h.bodyOnce.Do(func() {
		if h.R.Body == nil {
			return
		}
		h.body, h.bodyErr = io.ReadAll(h.R.Body)
		h.R.Body = io.NopCloser(bytes.NewReader(h.body))
	})
	return h.body, h.bodyErr
}

func (h *HTTPRequest) FormParams() (map[string][]string, error) {
	if isJSON(h.ContentType()) {
		return url.Values{}, nil
	}
	if strings.HasPrefix(h.ContentType(), "multipart/") {
		if err := h.R.ParseMultipartForm(32 << 20); err != nil {
			return nil, err
		}
		return h.R.PostForm, nil
	}
	if err := h.R.ParseForm(); err != nil {
		return nil, err
	}
	return h.R.PostForm, nil
}
