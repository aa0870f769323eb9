package http

import (
	"context"
	"errors"
	"klyra/internal/api"
	"klyra/internal/presence"
	"klyra/internal/ws"
	"log/slog"
	"net/http"
)

type StatusServer struct {
	server *http.Server
	log    *slog.Logger
}

func NewStatusServer(hub *ws.Hub, store *presence.Store, addr string, logger *slog.Logger) *StatusServer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	statusHandler := api.NewStatusHandler(hub, store, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", statusHandler.HealthHandler)
	mux.HandleFunc("GET /api/users", statusHandler.UsersHandler)
	mux.HandleFunc("GET /api/users/{id}", statusHandler.UserHandler)

	if addr == "" {
		addr = "localhost:3002"
	}

	return &StatusServer{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		log: logger,
	}
}

// Start serves until Shutdown. A shutdown is not reported as an error.
func (s *StatusServer) Start() error {
	s.log.Info("status API started", "addr", s.server.Addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *StatusServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
