package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/deppfellow/zrouter/internal/envelope"
	"github.com/deppfellow/zrouter/internal/middleware"
	"github.com/deppfellow/zrouter/internal/params"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// serve wraps h in the request pipeline for one registration.
func (r *Router) serve(reg Registration, h HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		c.Set(middleware.EndpointKey, reg.Endpoint)

		logger := middleware.GetLogger(c).With().
			Str("operation", "route").
			Str("endpoint", reg.Endpoint).
			Str("route", reg.Path).
			Logger()

		txn := newrelic.FromContext(c.Request().Context())
		if txn != nil {
			txn.AddAttribute("handler.name", reg.Path)
			txn.AddAttribute("handler.endpoint", reg.Endpoint)
		}

		p, err := params.Extract(c)
		if err != nil {
			if env, ok := envelope.FromError(err); ok {
				logger.Warn().Err(err).Msg("request parameters rejected")
				return r.writeEnvelope(c, reg, txn, env)
			}
			return r.fail(c, reg, logger, err)
		}
		p = params.Sanitize(p)

		if !reg.Open && !r.VerifyUser(c) {
			logger.Warn().Msg("user not authorized")
			return r.writeEnvelope(c, reg, txn, envelope.Unauthorized(r.messages.Unauthorized))
		}

		handlerStart := time.Now()
		result, panicked, err := invoke(h, c, p)
		elapsed := time.Since(handlerStart)

		handlerDuration.WithLabelValues(reg.Endpoint, reg.Method).Observe(elapsed.Seconds())
		if txn != nil {
			txn.AddAttribute("handler.duration_ms", elapsed.Milliseconds())
		}

		if r.slowThreshold > 0 && elapsed > r.slowThreshold {
			logger.Warn().
				Dur("handler_duration", elapsed).
				Dur("threshold", r.slowThreshold).
				Msg("slow handler")
		}

		if panicked {
			return r.fail(c, reg, logger, err)
		}

		if err != nil {
			if env, ok := envelope.FromError(err); ok {
				logger.Info().
					Err(err).
					Int("code", env.Code).
					Dur("handler_duration", elapsed).
					Msg("handler failure mapped to envelope")
				return r.writeEnvelope(c, reg, txn, env)
			}
			return r.fail(c, reg, logger, err)
		}

		logger.Debug().
			Dur("handler_duration", elapsed).
			Dur("total_duration", time.Since(start)).
			Msg("request completed")

		if reg.Direct {
			return writeDirect(c, result)
		}

		return r.writeEnvelope(c, reg, txn, envelope.Result(result, r.messages.Success))
	}
}

// invoke calls h and turns a panic into an error. http.ErrAbortHandler is
// re-raised so net/http can abort the connection.
func invoke(h HandlerFunc, c echo.Context, p params.Params) (result any, panicked bool, err error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if v == http.ErrAbortHandler {
			panic(v)
		}

		panicked = true
		result = nil
		if e, ok := v.(error); ok {
			err = errors.Wrap(e, "handler panic")
		} else {
			err = errors.Errorf("handler panic: %v", v)
		}
	}()

	result, err = h(c, p)
	return result, false, err
}

// fail hands an unmapped error to the error hook and returns it, with a
// stack, to echo's HTTPErrorHandler.
func (r *Router) fail(c echo.Context, reg Registration, logger zerolog.Logger, err error) error {
	unhandledErrorsTotal.WithLabelValues(reg.Endpoint).Inc()

	logger.Error().Err(err).Msg("handler execution failed")

	r.OnError(c, err)

	return errors.WithStack(err)
}

// writeEnvelope always answers with HTTP 200; the envelope code carries the
// outcome.
func (r *Router) writeEnvelope(c echo.Context, reg Registration, txn *newrelic.Transaction, env envelope.Envelope) error {
	envelopesTotal.WithLabelValues(reg.Endpoint, strconv.Itoa(env.Code)).Inc()

	if txn != nil {
		txn.AddAttribute("envelope.code", env.Code)
	}

	return c.JSON(http.StatusOK, env)
}

// writeDirect sends a direct route's result. A handler that already wrote
// the response is left alone.
func writeDirect(c echo.Context, result any) error {
	if c.Response().Committed {
		return nil
	}

	switch v := result.(type) {
	case nil:
		return c.NoContent(http.StatusNoContent)
	case []byte:
		return c.Blob(http.StatusOK, http.DetectContentType(v), v)
	case string:
		return c.String(http.StatusOK, v)
	default:
		return c.JSON(http.StatusOK, v)
	}
}
