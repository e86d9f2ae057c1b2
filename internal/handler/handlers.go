package handler

import (
	"github.com/deppfellow/zrouter/internal/server"
)

type Handlers struct {
	Health  *HealthHandler
	Metrics *MetricsHandler
	Session *SessionHandler
}

func NewHandlers(s *server.Server) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		Metrics: NewMetricsHandler(s),
		Session: NewSessionHandler(s),
	}
}
