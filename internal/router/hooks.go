package router

import (
	"context"
	"time"

	"github.com/deppfellow/zrouter/internal/lib/email"
	"github.com/deppfellow/zrouter/internal/middleware"
	"github.com/deppfellow/zrouter/internal/server"
	"github.com/labstack/echo/v4"
)

const reportEnqueueTimeout = 2 * time.Second

// ReportErrors returns a hook that queues an emailed error report, or nil
// when the job service is not running.
func ReportErrors(s *server.Server) ErrorHook {
	if s.Job == nil {
		return nil
	}

	return func(c echo.Context, err error) {
		report := email.ErrorReport{
			Service:    s.Config.Observability.ServiceName,
			Method:     c.Request().Method,
			Path:       c.Path(),
			Endpoint:   middleware.GetEndpoint(c),
			RequestID:  middleware.GetRequestID(c),
			Error:      err.Error(),
			OccurredAt: time.Now().UTC().Format(time.RFC3339),
		}

		// The report must be queued even if the client has gone away.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), reportEnqueueTimeout)
		defer cancel()

		if qerr := s.Job.EnqueueErrorReport(ctx, report); qerr != nil {
			middleware.GetLogger(c).Error().Err(qerr).Msg("failed to enqueue error report")
		}
	}
}
