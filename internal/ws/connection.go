package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"klyra/internal/chat"
	"klyra/internal/models"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// errPeerClosed marks a close frame from the client; only this path narrates
// the departure.
var errPeerClosed = errors.New("peer closed connection")

type wsConnection interface {
	Close() error
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
}

type sessionHub interface {
	NewQueue() *Queue
	Register(id string, q *Queue)
	Unregister(id string)
}

type eventRouter interface {
	Welcome() models.ServerMessage
	Dispatch(evt chat.Event)
	Depart()
}

type Connection struct {
	ws      wsConnection
	hub     sessionHub
	router  eventRouter
	log     *slog.Logger
	id      string
	queue   *Queue
	errorCh chan error
}

// NewConnection allocates a session ID and a delivery queue. The session is
// registered when Handle starts.
func NewConnection(
	hub sessionHub,
	router eventRouter,
	ws wsConnection,
	logger *slog.Logger,
) *Connection {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	id := uuid.NewString()
	return &Connection{
		ws:      ws,
		hub:     hub,
		router:  router,
		log:     logger.With("session", id),
		id:      id,
		queue:   hub.NewQueue(),
		errorCh: make(chan error, 2),
	}
}

func (c *Connection) ID() string {
	return c.id
}

// Handle runs the session until the client closes, a socket error occurs or
// ctx is cancelled. A clean close is reported as nil.
func (c *Connection) Handle(ctx context.Context) error {
	c.hub.Register(c.id, c.queue)

	// The welcome goes straight to this socket, before the write loop starts.
	if err := c.writeEvent(c.router.Welcome()); err != nil {
		c.teardown()
		return fmt.Errorf("failed to send welcome: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Go(func() {
		c.errorCh <- c.readLoop()
		cancel()
	})

	wg.Go(func() {
		c.errorCh <- c.writeLoop(ctx)
		cancel()
	})

	// The write loop always returns on cancel, so the first result is the cause.
	err := <-c.errorCh
	c.teardown()
	wg.Wait()

	if errors.Is(err, errPeerClosed) {
		c.log.Debug("session closed by peer")
		c.router.Depart()
		return nil
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		c.log.Debug("session closed on error", "err", err)
		return err
	}

	return nil
}

// teardown unregisters the session and unblocks both loops.
func (c *Connection) teardown() {
	c.hub.Unregister(c.id)
	c.queue.Close()
	_ = c.ws.Close()
}

func (c *Connection) readLoop() error {
	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			// 1006 is synthesized locally on EOF, never sent by a peer.
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code != websocket.CloseAbnormalClosure {
				return errPeerClosed
			}
			return err
		}
		if messageType != websocket.TextMessage {
			continue
		}

		evt, err := chat.Decode(data)
		if err != nil {
			c.log.Debug("dropping frame", "size", len(data), "err", err)
			continue
		}
		c.router.Dispatch(evt)
	}
}

func (c *Connection) writeLoop(ctx context.Context) error {
	for {
		frame, err := c.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
			return err
		}
	}
}

func (c *Connection) writeEvent(msg models.ServerMessage) error {
	frame, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}
