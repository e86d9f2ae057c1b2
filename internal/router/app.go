package router

import (
	"github.com/deppfellow/zrouter/internal/envelope"
	"github.com/deppfellow/zrouter/internal/handler"
	"github.com/deppfellow/zrouter/internal/middleware"
	"github.com/deppfellow/zrouter/internal/server"
	"github.com/labstack/echo/v4"
)

// App is the configured echo instance with its two routers: System serves
// the root-level operational routes, API everything under router.prefix.
type App struct {
	Echo   *echo.Echo
	System *Router
	API    *Router
}

// NewApp installs the global middleware stack and error handler on a new
// echo instance and registers the application's routes.
func NewApp(s *server.Server, h *handler.Handlers) (*App, error) {
	mw := middleware.NewMiddlewares(s)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = mw.Global.GlobalErrorHandler

	// Order matters: the logger built by EnhanceContext picks up the request
	// id, the New Relic trace and the authenticated user.
	e.Use(
		mw.Global.CORS(),
		middleware.RequestID(),
		mw.Tracing.NewRelicMiddleware(),
		mw.Auth.Authenticate,
		mw.ContextEnhancer.EnhanceContext(),
		mw.Tracing.EnhanceTracing(),
		mw.Global.RequestLogger(),
		mw.Global.Recover(),
		mw.Global.Secure(),
	)

	if mw.RateLimit.Enabled() {
		e.Use(mw.RateLimit.Limit())
	}

	opts := []Option{
		WithVerifier(mw.Auth.VerifyUser),
		WithErrorHook(ChainHooks(mw.Tracing.NoticeError, ReportErrors(s))),
		WithMessages(envelope.Messages{
			Success:      s.Config.Router.SuccessMessage,
			Unauthorized: s.Config.Router.UnauthorizedMessage,
		}),
		WithSlowThreshold(s.Config.Observability.Logging.SlowRequestThreshold),
	}

	app := &App{
		Echo:   e,
		System: New(e, "", opts...),
		API:    New(e, s.Config.Router.Prefix, opts...),
	}

	if err := registerSystemRoutes(app.System, h); err != nil {
		return nil, err
	}

	if err := registerAPIRoutes(app.API, h); err != nil {
		return nil, err
	}

	return app, nil
}

// Routes returns the system routes followed by the API routes.
func (a *App) Routes() []Registration {
	return append(a.System.Routes(), a.API.Routes()...)
}

func registerAPIRoutes(r *Router, h *handler.Handlers) error {
	return r.AddResources(map[string]any{
		"/session": h.Session,
	})
}
