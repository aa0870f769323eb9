package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"klyra/internal/models"
)

var (
	ErrMalformed   = errors.New("malformed event")
	ErrUnknownType = errors.New("unknown event type")
)

// Event is a decoded client event. The concrete type is one of
// Join, Text, File, Edit or Delete.
type Event interface {
	Kind() models.ClientMessageType
}

type Join struct {
	User models.User
}

type Text struct {
	Sender    string
	Body      string
	Encrypted bool
}

type File struct {
	Sender  string
	Payload string
}

type Edit struct {
	MessageID string
	Sender    string
	NewBody   string
	Encrypted bool
}

type Delete struct {
	MessageID string
	Sender    string
}

func (Join) Kind() models.ClientMessageType   { return models.ClientMessageTypeJoin }
func (Text) Kind() models.ClientMessageType   { return models.ClientMessageTypeText }
func (File) Kind() models.ClientMessageType   { return models.ClientMessageTypeFile }
func (Edit) Kind() models.ClientMessageType   { return models.ClientMessageTypeEdit }
func (Delete) Kind() models.ClientMessageType { return models.ClientMessageTypeDelete }

type document map[string]json.RawMessage

// str returns the field as a string. Present-but-empty counts as present.
func (d document) str(key string) (string, error) {
	raw, ok := d[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrMalformed, key)
	}
	var s string
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) || json.Unmarshal(raw, &s) != nil {
		return "", fmt.Errorf("%w: %q is not a string", ErrMalformed, key)
	}
	return s, nil
}

// flag returns the field as a bool, false when missing or not a bool.
func (d document) flag(key string) bool {
	raw, ok := d[key]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}

// strs reads several required string fields in order.
func (d document) strs(keys ...string) ([]string, error) {
	out := make([]string, len(keys))
	for i, k := range keys {
		s, err := d.str(k)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// Decode parses one inbound text frame. Every failure wraps ErrMalformed or
// ErrUnknownType; callers drop the frame.
func Decode(data []byte) (Event, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	kind, err := doc.str("type")
	if err != nil {
		return nil, err
	}

	switch models.ClientMessageType(kind) {
	case models.ClientMessageTypeJoin:
		return decodeJoin(doc)
	case models.ClientMessageTypeText:
		f, err := doc.strs("text", "sender")
		if err != nil {
			return nil, err
		}
		return Text{Body: f[0], Sender: f[1], Encrypted: doc.flag("encrypted")}, nil
	case models.ClientMessageTypeFile:
		f, err := doc.strs("fileData", "sender")
		if err != nil {
			return nil, err
		}
		return File{Payload: f[0], Sender: f[1]}, nil
	case models.ClientMessageTypeEdit:
		f, err := doc.strs("messageId", "newText", "sender")
		if err != nil {
			return nil, err
		}
		return Edit{MessageID: f[0], NewBody: f[1], Sender: f[2], Encrypted: doc.flag("encrypted")}, nil
	case models.ClientMessageTypeDelete:
		f, err := doc.strs("messageId", "sender")
		if err != nil {
			return nil, err
		}
		return Delete{MessageID: f[0], Sender: f[1]}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, kind)
	}
}

func decodeJoin(doc document) (Event, error) {
	raw, ok := doc["user"]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformed, "user")
	}

	var user document
	if err := json.Unmarshal(raw, &user); err != nil || user == nil {
		return nil, fmt.Errorf("%w: %q is not an object", ErrMalformed, "user")
	}

	f, err := user.strs("id", "name", "nickname", "status")
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}

	return Join{User: models.User{ID: f[0], Name: f[1], Nickname: f[2], Status: f[3]}}, nil
}
