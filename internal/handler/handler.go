// Package handler holds the application's own route handlers. They follow
// the router's handler convention and are registered by the router package.
package handler

import "github.com/deppfellow/zrouter/internal/server"

// Handler gives every handler access to the shared server resources.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// recordEvent sends a New Relic custom event when New Relic is enabled.
func (h Handler) recordEvent(eventType string, params map[string]interface{}) {
	if app := h.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent(eventType, params)
	}
}
