package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
)

// User is a presence record contributed by a user_join event.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Status   string `json:"status"`
}

type ClientMessageType string

const (
	ClientMessageTypeJoin   ClientMessageType = "user_join"
	ClientMessageTypeText   ClientMessageType = "message"
	ClientMessageTypeFile   ClientMessageType = "file"
	ClientMessageTypeEdit   ClientMessageType = "edit_message"
	ClientMessageTypeDelete ClientMessageType = "delete_message"
)

type ServerMessageType string

const (
	ServerMessageTypeSystem  ServerMessageType = "system"
	ServerMessageTypeText    ServerMessageType = "message"
	ServerMessageTypeFile    ServerMessageType = "file"
	ServerMessageTypeEdited  ServerMessageType = "message_edited"
	ServerMessageTypeDeleted ServerMessageType = "message_deleted"
)

// ServerMessage represents a message to the client.
// Only the fields belonging to Type are put on the wire.
type ServerMessage struct {
	Type      ServerMessageType
	Text      string
	Sender    string
	FileData  string
	MessageID string
	Encrypted bool
	Timestamp int64 // Unix timestamp (seconds)
}

type systemFrame struct {
	Type      ServerMessageType `json:"type"`
	Text      string            `json:"text"`
	Timestamp int64             `json:"timestamp"`
}

type textFrame struct {
	Type      ServerMessageType `json:"type"`
	Text      string            `json:"text"`
	Sender    string            `json:"sender"`
	Timestamp int64             `json:"timestamp"`
	Encrypted bool              `json:"encrypted"`
}

type fileFrame struct {
	Type      ServerMessageType `json:"type"`
	FileData  string            `json:"fileData"`
	Sender    string            `json:"sender"`
	Timestamp int64             `json:"timestamp"`
}

type editedFrame struct {
	Type      ServerMessageType `json:"type"`
	MessageID string            `json:"messageId"`
	NewText   string            `json:"newText"`
	Sender    string            `json:"sender"`
	Timestamp int64             `json:"timestamp"`
	Encrypted bool              `json:"encrypted"`
}

type deletedFrame struct {
	Type      ServerMessageType `json:"type"`
	MessageID string            `json:"messageId"`
	Sender    string            `json:"sender"`
	Timestamp int64             `json:"timestamp"`
}

func (m ServerMessage) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case ServerMessageTypeSystem:
		return json.Marshal(systemFrame{Type: m.Type, Text: m.Text, Timestamp: m.Timestamp})
	case ServerMessageTypeText:
		return json.Marshal(textFrame{Type: m.Type, Text: m.Text, Sender: m.Sender, Timestamp: m.Timestamp, Encrypted: m.Encrypted})
	case ServerMessageTypeFile:
		return json.Marshal(fileFrame{Type: m.Type, FileData: m.FileData, Sender: m.Sender, Timestamp: m.Timestamp})
	case ServerMessageTypeEdited:
		return json.Marshal(editedFrame{Type: m.Type, MessageID: m.MessageID, NewText: m.Text, Sender: m.Sender, Timestamp: m.Timestamp, Encrypted: m.Encrypted})
	case ServerMessageTypeDeleted:
		return json.Marshal(deletedFrame{Type: m.Type, MessageID: m.MessageID, Sender: m.Sender, Timestamp: m.Timestamp})
	default:
		return nil, fmt.Errorf("unknown server message type %q", m.Type)
	}
}

// UnmarshalJSON reads any outbound frame back. Used by clients and tests.
func (m *ServerMessage) UnmarshalJSON(data []byte) error {
	var frame struct {
		Type      ServerMessageType `json:"type"`
		Text      string            `json:"text"`
		NewText   string            `json:"newText"`
		Sender    string            `json:"sender"`
		FileData  string            `json:"fileData"`
		MessageID string            `json:"messageId"`
		Encrypted bool              `json:"encrypted"`
		Timestamp int64             `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		return err
	}

	*m = ServerMessage{
		Type:      frame.Type,
		Text:      frame.Text,
		Sender:    frame.Sender,
		FileData:  frame.FileData,
		MessageID: frame.MessageID,
		Encrypted: frame.Encrypted,
		Timestamp: frame.Timestamp,
	}
	if frame.Type == ServerMessageTypeEdited {
		m.Text = frame.NewText
	}
	return nil
}
