package input

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Container resolves services by name for the service loader
type Container interface {
	Get(name string) (any, error)
}

// Services is a map-backed Container safe for concurrent use
type Services struct {
	mu       sync.RWMutex
	services map[string]any
}

// NewServices creates a container holding the given services
func NewServices(services map[string]any) *Services {
	s := &Services{services: make(map[string]any, len(services))}
	for name, svc := range services {
		s.services[name] = svc
	}
	return s
}

// Set registers svc under name, replacing any previous service
func (s *Services) Set(name string, svc any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[name] = svc
}

// Get implements Container
func (s *Services) Get(name string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[name]
	if !ok {
		return nil, configErrorf("service %q is not registered", name)
	}
	return svc, nil
}

// Names returns the registered service names, sorted
func (s *Services) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.services))
	for name := range s.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// callMethod invokes svc.method(value, args...). A leading context.Context parameter
// receives ctx; arguments are coerced to the parameter types; a trailing error result
// is returned as the error.
func callMethod(ctx context.Context, svc any, method string, value any, args []any) (any, error) {
	m := reflect.ValueOf(svc).MethodByName(method)
	if !m.IsValid() {
		return nil, configErrorf("service %T has no method %q", svc, method)
	}
	mt := m.Type()

	in := make([]reflect.Value, 0, mt.NumIn())
	params := append([]any{value}, args...)
	first := 0
	if mt.NumIn() > 0 && mt.In(0) == contextType {
		in = append(in, reflect.ValueOf(ctx))
		first = 1
	}

	fixed := mt.NumIn() - first
	if mt.IsVariadic() {
		fixed--
	}
	if len(params) < fixed || (!mt.IsVariadic() && len(params) > fixed) {
		return nil, configErrorf("%T.%s takes %d arguments, got %d", svc, method, fixed, len(params))
	}

	for i, p := range params {
		var pt reflect.Type
		if mt.IsVariadic() && i >= fixed {
			pt = mt.In(mt.NumIn() - 1).Elem()
		} else {
			pt = mt.In(first + i)
		}
		arg, err := convertTo(p, pt, fmt.Sprintf("%s argument %d", method, i))
		if err != nil {
			return nil, err
		}
		in = append(in, arg)
	}

	out := m.Call(in)
	if n := len(out); n > 0 && mt.Out(n-1) == errorType {
		if errv := out[n-1]; !errv.IsNil() {
			return nil, errv.Interface().(error)
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}
