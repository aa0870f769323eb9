package chat

import (
	"fmt"
	"klyra/internal/content"
	"klyra/internal/models"
	"log/slog"
	"time"
)

const leftText = "A user left the chat"

type broadcaster interface {
	Broadcast(msg models.ServerMessage)
}

type userStore interface {
	Upsert(user models.User)
}

type Config struct {
	Label       string
	Broadcaster broadcaster
	Presence    userStore
	Logger      *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Router turns decoded client events into broadcasts.
// It holds no message history: edits and deletes are passed through as-is.
type Router struct {
	label    string
	hub      broadcaster
	presence userStore
	log      *slog.Logger
	now      func() time.Time
}

func NewRouter(cfg Config) *Router {
	r := &Router{
		label:    cfg.Label,
		hub:      cfg.Broadcaster,
		presence: cfg.Presence,
		log:      cfg.Logger,
		now:      cfg.Now,
	}
	if r.log == nil {
		r.log = slog.New(slog.DiscardHandler)
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Welcome builds the greeting unicast to a newly registered session.
func (r *Router) Welcome() models.ServerMessage {
	return models.ServerMessage{
		Type:      models.ServerMessageTypeSystem,
		Text:      fmt.Sprintf("Welcome to %s!", r.label),
		Timestamp: r.timestamp(),
	}
}

// Depart narrates a clean disconnect to the remaining sessions.
func (r *Router) Depart() {
	r.broadcast(models.ServerMessage{
		Type: models.ServerMessageTypeSystem,
		Text: leftText,
	})
}

func (r *Router) Dispatch(evt Event) {
	switch e := evt.(type) {
	case Join:
		r.presence.Upsert(e.User)
		r.broadcast(models.ServerMessage{
			Type: models.ServerMessageTypeSystem,
			Text: fmt.Sprintf("%s joined the chat", content.DisplayName(e.User.Name)),
		})
	case Text:
		r.broadcast(models.ServerMessage{
			Type:      models.ServerMessageTypeText,
			Text:      e.Body,
			Sender:    e.Sender,
			Encrypted: e.Encrypted,
		})
	case File:
		r.log.Debug("relaying file", "mime", content.SniffMIME(e.Payload), "size", len(e.Payload))
		r.broadcast(models.ServerMessage{
			Type:     models.ServerMessageTypeFile,
			FileData: e.Payload,
			Sender:   e.Sender,
		})
	case Edit:
		r.broadcast(models.ServerMessage{
			Type:      models.ServerMessageTypeEdited,
			MessageID: e.MessageID,
			Text:      e.NewBody,
			Sender:    e.Sender,
			Encrypted: e.Encrypted,
		})
	case Delete:
		// No check that MessageID was ever sent.
		r.broadcast(models.ServerMessage{
			Type:      models.ServerMessageTypeDeleted,
			MessageID: e.MessageID,
			Sender:    e.Sender,
		})
	default:
		r.log.Debug("dropping event", "kind", fmt.Sprintf("%T", evt))
	}
}

// broadcast stamps msg at hand-off time; client-supplied times are ignored.
func (r *Router) broadcast(msg models.ServerMessage) {
	msg.Timestamp = r.timestamp()
	r.hub.Broadcast(msg)
}

func (r *Router) timestamp() int64 {
	return r.now().Unix()
}
