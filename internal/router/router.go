// Package router registers handler functions on echo and runs every request
// through one fixed pipeline: parameter extraction, sanitizing, the
// authorization check, the handler, and the {code, msg, data} envelope.
//
//	r := router.New(e, "/api", router.WithVerifier(auth.VerifyUser))
//	r.Add("/orders/:id", getOrder)
//	r.AddResource("/accounts", accounts, router.MethodFlags{Method: http.MethodPost, Open: true})
//
// Handlers receive the echo context and the sanitized snake_case params and
// return a result or an error. Results are camelCased and enveloped unless
// the route is direct; *errs.Prompt and validation failures become 500 and
// 400 envelopes; any other error is handed to the error hook and returned to
// echo's HTTPErrorHandler.
package router

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/deppfellow/zrouter/internal/envelope"
	"github.com/deppfellow/zrouter/internal/params"
	"github.com/labstack/echo/v4"
)

var (
	ErrDuplicateEndpoint = errors.New("endpoint already registered")
	ErrDuplicateRoute    = errors.New("route already registered")
	ErrNilHandler        = errors.New("nil handler")
)

// HandlerFunc is the signature of every routed handler.
type HandlerFunc func(c echo.Context, p params.Params) (any, error)

// Verifier decides whether the caller of a protected route is authorized.
type Verifier func(c echo.Context) bool

// ErrorHook observes handler errors the router could not map to an envelope.
type ErrorHook func(c echo.Context, err error)

// ChainHooks returns a hook calling each non-nil hook in order.
func ChainHooks(hooks ...ErrorHook) ErrorHook {
	return func(c echo.Context, err error) {
		for _, hook := range hooks {
			if hook != nil {
				hook(c, err)
			}
		}
	}
}

// Registration is one row of the routing table.
type Registration struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Endpoint string `json:"endpoint"`
	Open     bool   `json:"open"`
	Direct   bool   `json:"direct"`
}

// Router registers routes under a common prefix on an echo instance.
type Router struct {
	echo          *echo.Echo
	prefix        string
	verify        Verifier
	onError       ErrorHook
	messages      envelope.Messages
	middleware    []echo.MiddlewareFunc
	slowThreshold time.Duration

	mu     sync.Mutex
	routes []Registration
}

// Option configures a Router.
type Option func(*Router)

// WithVerifier replaces the default verifier, which authorizes everyone.
func WithVerifier(v Verifier) Option {
	return func(r *Router) {
		r.verify = v
	}
}

// WithErrorHook replaces the default error hook, which does nothing.
func WithErrorHook(h ErrorHook) Option {
	return func(r *Router) {
		r.onError = h
	}
}

// WithMessages sets the success and unauthorized envelope texts. Empty
// fields keep their defaults.
func WithMessages(m envelope.Messages) Option {
	return func(r *Router) {
		if m.Success != "" {
			r.messages.Success = m.Success
		}
		if m.Unauthorized != "" {
			r.messages.Unauthorized = m.Unauthorized
		}
	}
}

// WithMiddleware adds route-level middleware to every route of the Router.
func WithMiddleware(m ...echo.MiddlewareFunc) Option {
	return func(r *Router) {
		r.middleware = append(r.middleware, m...)
	}
}

// WithSlowThreshold logs handler calls slower than d at warn level.
func WithSlowThreshold(d time.Duration) Option {
	return func(r *Router) {
		r.slowThreshold = d
	}
}

// New creates a Router that registers its routes on e under prefix.
func New(e *echo.Echo, prefix string, opts ...Option) *Router {
	r := &Router{
		echo:     e,
		prefix:   normalizePrefix(prefix),
		messages: envelope.DefaultMessages(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// VerifyUser reports whether the request may reach a protected route.
func (r *Router) VerifyUser(c echo.Context) bool {
	if r.verify == nil {
		return true
	}
	return r.verify(c)
}

// OnError passes an unmapped handler error to the error hook.
func (r *Router) OnError(c echo.Context, err error) {
	if r.onError != nil {
		r.onError(c, err)
	}
}

// Prefix returns the normalized path prefix.
func (r *Router) Prefix() string {
	return r.prefix
}

// Routes returns the routes registered through r, in registration order.
func (r *Router) Routes() []Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Registration, len(r.routes))
	copy(out, r.routes)
	return out
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

func (r *Router) fullPath(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	full := r.prefix + path
	if full == "" {
		return "/"
	}
	return full
}
