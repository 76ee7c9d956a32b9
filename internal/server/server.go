package server

import (
	"net/http"
	"time"

	"github.com/scythe504/quizroom-backend/internal/database"
	"github.com/scythe504/quizroom-backend/internal/game"
)

type Server struct {
	wsPath      string
	coordinator *game.Coordinator
	// db is nil when the results archive is disabled
	db database.Service
}

func New(wsPath string, coordinator *game.Coordinator, db database.Service) *Server {
	return &Server{
		wsPath:      wsPath,
		coordinator: coordinator,
		db:          db,
	}
}

// NewHTTPServer wraps the routes in an http.Server listening on addr.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
