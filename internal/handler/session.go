package handler

import (
	"github.com/deppfellow/zrouter/internal/middleware"
	"github.com/deppfellow/zrouter/internal/params"
	"github.com/deppfellow/zrouter/internal/server"
	"github.com/labstack/echo/v4"
)

// SessionHandler reports the authenticated caller.
type SessionHandler struct {
	Handler
}

func NewSessionHandler(s *server.Server) *SessionHandler {
	return &SessionHandler{
		Handler: NewHandler(s),
	}
}

func (h *SessionHandler) Get(c echo.Context, _ params.Params) (any, error) {
	role, _ := c.Get(middleware.UserRoleKey).(string)

	return map[string]any{
		"user_id":     middleware.GetUserID(c),
		"user_role":   role,
		"permissions": c.Get(middleware.PermissionsKey),
		"request_id":  middleware.GetRequestID(c),
	}, nil
}
