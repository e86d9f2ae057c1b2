package router

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
)

// endpointSeq numbers generated endpoint identifiers for the whole process,
// so routers sharing one echo instance never hand out the same id.
var endpointSeq atomic.Uint64

// RouteOption configures a route added with Add.
type RouteOption func(*routeOptions)

type routeOptions struct {
	methods  []string
	open     bool
	direct   bool
	endpoint string
}

// Open skips the authorization check.
func Open() RouteOption {
	return func(o *routeOptions) {
		o.open = true
	}
}

// Direct sends the handler's result as-is instead of enveloping it.
func Direct() RouteOption {
	return func(o *routeOptions) {
		o.direct = true
	}
}

// Methods sets the HTTP methods served. The default is GET.
func Methods(methods ...string) RouteOption {
	return func(o *routeOptions) {
		o.methods = append(o.methods, methods...)
	}
}

// Endpoint names the route instead of using a generated identifier.
func Endpoint(name string) RouteOption {
	return func(o *routeOptions) {
		o.endpoint = name
	}
}

// Add registers h at path for the configured methods. All methods of one Add
// share one endpoint identifier.
func (r *Router) Add(path string, h HandlerFunc, opts ...RouteOption) error {
	var o routeOptions
	for _, opt := range opts {
		opt(&o)
	}

	methods := normalizeMethods(o.methods)
	if len(methods) == 0 {
		methods = []string{http.MethodGet}
	}

	return r.register(path, o.endpoint, methods, h, o.open, o.direct)
}

func (r *Router) register(path, endpoint string, methods []string, h HandlerFunc, open, direct bool) error {
	if h == nil {
		return fmt.Errorf("%w for %s", ErrNilHandler, path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	full := r.fullPath(path)

	for _, method := range methods {
		if r.routeTaken(method, full) {
			return fmt.Errorf("%w: %s %s", ErrDuplicateRoute, method, full)
		}
	}

	if endpoint == "" {
		endpoint = r.newEndpoint()
	} else if r.endpointTaken(endpoint) {
		return fmt.Errorf("%w: %s", ErrDuplicateEndpoint, endpoint)
	}

	for _, method := range methods {
		reg := Registration{
			Method:   method,
			Path:     full,
			Endpoint: endpoint,
			Open:     open,
			Direct:   direct,
		}

		route := r.echo.Add(method, full, r.serve(reg, h), r.middleware...)
		route.Name = endpoint

		r.routes = append(r.routes, reg)
	}

	return nil
}

// newEndpoint returns the next free generated identifier.
func (r *Router) newEndpoint() string {
	for {
		id := fmt.Sprintf("endpoint-%d", endpointSeq.Add(1))
		if !r.endpointTaken(id) {
			return id
		}
	}
}

// endpointTaken checks the live echo table, which also holds routes added by
// other routers and by plain echo calls.
func (r *Router) endpointTaken(name string) bool {
	for _, route := range r.echo.Routes() {
		if route.Name == name {
			return true
		}
	}
	return false
}

func (r *Router) routeTaken(method, path string) bool {
	for _, route := range r.echo.Routes() {
		if route.Method == method && route.Path == path {
			return true
		}
	}
	return false
}

func normalizeMethods(methods []string) []string {
	seen := make(map[string]bool, len(methods))
	out := make([]string, 0, len(methods))

	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}

	return out
}
