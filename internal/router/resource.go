package router

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/deppfellow/zrouter/internal/params"
	"github.com/labstack/echo/v4"
)

// A resource serves one path. Each capability it implements becomes one
// route for the matching HTTP method.
type (
	Getter interface {
		Get(c echo.Context, p params.Params) (any, error)
	}

	Poster interface {
		Post(c echo.Context, p params.Params) (any, error)
	}

	Putter interface {
		Put(c echo.Context, p params.Params) (any, error)
	}

	Deleter interface {
		Delete(c echo.Context, p params.Params) (any, error)
	}
)

// MethodFlags configures the route bound for one method of a resource.
type MethodFlags struct {
	Method string
	Open   bool
	Direct bool
}

// FlagProvider lets a resource declare its own MethodFlags. Flags passed to
// Bindings or AddResource take precedence.
type FlagProvider interface {
	RouteFlags() []MethodFlags
}

// Binding is a handler bound to one method.
type Binding struct {
	Method  string
	Handler HandlerFunc
	Open    bool
	Direct  bool
}

// Bindings returns one Binding per capability resource implements, in GET,
// POST, PUT, DELETE order. Methods without flags are protected and
// enveloped.
func Bindings(resource any, flags ...MethodFlags) []Binding {
	byMethod := make(map[string]MethodFlags)

	if provider, ok := resource.(FlagProvider); ok {
		for _, f := range provider.RouteFlags() {
			byMethod[strings.ToUpper(f.Method)] = f
		}
	}
	for _, f := range flags {
		byMethod[strings.ToUpper(f.Method)] = f
	}

	var bindings []Binding
	bind := func(method string, h HandlerFunc) {
		f := byMethod[method]
		bindings = append(bindings, Binding{
			Method:  method,
			Handler: h,
			Open:    f.Open,
			Direct:  f.Direct,
		})
	}

	if g, ok := resource.(Getter); ok {
		bind(http.MethodGet, g.Get)
	}
	if p, ok := resource.(Poster); ok {
		bind(http.MethodPost, p.Post)
	}
	if p, ok := resource.(Putter); ok {
		bind(http.MethodPut, p.Put)
	}
	if d, ok := resource.(Deleter); ok {
		bind(http.MethodDelete, d.Delete)
	}

	return bindings
}

// AddResource registers every capability of resource at path, each under
// its own generated endpoint identifier.
func (r *Router) AddResource(path string, resource any, flags ...MethodFlags) error {
	return r.Bind(path, Bindings(resource, flags...)...)
}

// AddResources calls AddResource for every entry, in path order.
func (r *Router) AddResources(resources map[string]any) error {
	paths := make([]string, 0, len(resources))
	for path := range resources {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := r.AddResource(path, resources[path]); err != nil {
			return fmt.Errorf("resource %s: %w", path, err)
		}
	}

	return nil
}

// Bind registers explicit bindings at path. Nothing is registered when a
// binding has no handler, repeats a method, or targets a taken route.
func (r *Router) Bind(path string, bindings ...Binding) error {
	r.mu.Lock()
	full := r.fullPath(path)
	seen := make(map[string]bool, len(bindings))
	for _, b := range bindings {
		method := strings.ToUpper(b.Method)
		if method == "" {
			r.mu.Unlock()
			return fmt.Errorf("binding for %s has no method", full)
		}
		if b.Handler == nil {
			r.mu.Unlock()
			return fmt.Errorf("%w for %s %s", ErrNilHandler, method, full)
		}
		if seen[method] || r.routeTaken(method, full) {
			r.mu.Unlock()
			return fmt.Errorf("%w: %s %s", ErrDuplicateRoute, method, full)
		}
		seen[method] = true
	}
	r.mu.Unlock()

	for _, b := range bindings {
		method := strings.ToUpper(b.Method)
		if err := r.register(path, "", []string{method}, b.Handler, b.Open, b.Direct); err != nil {
			return err
		}
	}

	return nil
}
