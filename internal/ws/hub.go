package ws

import (
	"encoding/json"
	"klyra/internal/models"
	"log/slog"
	"sync"
)

// Hub fans events out to every registered session.
type Hub struct {
	sessions   *Registry
	queueLimit int
	log        *slog.Logger

	// broadcastMu makes every session observe broadcasts in the same order.
	broadcastMu sync.Mutex
}

// NewHub returns a hub whose session queues hold at most queueLimit frames
// (0 for unbounded).
func NewHub(logger *slog.Logger, queueLimit int) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		sessions:   NewRegistry(),
		queueLimit: queueLimit,
		log:        logger,
	}
}

// NewQueue creates a delivery queue using the hub's limit.
func (h *Hub) NewQueue() *Queue {
	return NewQueue(h.queueLimit)
}

func (h *Hub) Register(id string, q *Queue) {
	h.sessions.Register(id, q)
	h.log.Debug("session registered", "session", id)
}

func (h *Hub) Unregister(id string) {
	h.sessions.Unregister(id)
}

// Sessions returns the number of registered sessions.
func (h *Hub) Sessions() int {
	return h.sessions.Len()
}

// Broadcast enqueues msg on every registered session. Sessions whose queue
// rejects it are unregistered after the pass.
func (h *Hub) Broadcast(msg models.ServerMessage) {
	frame, err := json.Marshal(msg)
	if err != nil {
		h.log.Debug("dropping unencodable event", "type", msg.Type, "err", err)
		return
	}

	var failed []string

	h.broadcastMu.Lock()
	for id, q := range h.sessions.Snapshot() {
		if err := q.Push(frame); err != nil {
			h.log.Debug("delivery failed", "session", id, "err", err)
			failed = append(failed, id)
		}
	}
	h.broadcastMu.Unlock()

	for _, id := range failed {
		h.sessions.Unregister(id)
	}
}
