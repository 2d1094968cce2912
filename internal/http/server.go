package http

import (
	"github.com/gin-gonic/gin"
)

// Server owns the gin engine serving the integration, passthrough and log
// endpoints. It exists so the app wires one value and tests can drive the
// engine directly.
type Server struct {
	Engine *gin.Engine
}

func NewServer(cfg RouterConfig) *Server {
	return &Server{Engine: NewRouter(cfg)}
}

func (s *Server) Run(address string) error {
	return s.Engine.Run(address)
}
