package ws

import (
	"context"
	"errors"
	"fmt"
	"klyra/internal/chat"
	"klyra/internal/presence"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrAlreadyStarted = errors.New("relay already started")

type Server struct {
	hub      *Hub
	presence *presence.Store
	log      *slog.Logger
	now      func() time.Time
	upgrader *websocket.Upgrader

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	router   *chat.Router
	ctx      context.Context
	cancel   context.CancelFunc
	closed   bool
	wg       sync.WaitGroup
}

type ServerOption func(*Server)

// WithClock overrides the clock used for event timestamps.
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) { s.now = now }
}

func NewServer(hub *Hub, store *presence.Store, logger *slog.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		hub:      hub,
		presence: store,
		log:      logger,
		now:      time.Now,
		upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Loopback only; desktop shells send varying origins.
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartRelay starts a relay with default settings and returns its status line.
func StartRelay(port uint16, label string) (string, error) {
	return NewServer(NewHub(nil, 0), presence.New(), nil).Start(port, label)
}

// Start binds 127.0.0.1:port and accepts connections in the background.
// The returned message names the bound port.
func (s *Server) Start(port uint16, label string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return "", ErrAlreadyStarted
	}

	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port))))
	if err != nil {
		return "", fmt.Errorf("failed to bind relay on port %d: %w", port, err)
	}

	s.router = chat.NewRouter(chat.Config{
		Label:       label,
		Broadcaster: s.hub,
		Presence:    s.presence,
		Logger:      s.log,
		Now:         s.now,
	})
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.HandleConnections)
	srv := &http.Server{Handler: mux}
	s.server = srv

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Debug("accept loop stopped", "err", err)
		}
	}()

	bound := ln.Addr().(*net.TCPAddr).Port
	s.log.Info("relay listening", "port", bound, "label", label)
	return fmt.Sprintf("Chat server started on port %d", bound), nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// HandleConnections upgrades r and runs the session until it ends.
// Requests arriving after Shutdown get 503 and are not upgraded.
func (s *Server) HandleConnections(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		http.Error(w, "relay is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("error upgrading to websocket", "err", err)
		return
	}

	conn := NewConnection(s.hub, s.router, ws, s.log)
	if err := conn.Handle(s.ctx); err != nil {
		s.log.Debug("connection ended", "session", conn.ID(), "err", err)
	}
}

// Shutdown stops accepting and closes every live session without narration.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	server, cancel := s.server, s.cancel
	s.mu.Unlock()

	if server == nil {
		return nil
	}

	err := server.Shutdown(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}
