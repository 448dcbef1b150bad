package ws

import (
	"encoding/json"
	"time"

	"github.com/dkovac/parcelo/internal/domain"
	"github.com/google/uuid"
)

// Event types - Client → Server
const (
	EventTypeConversationSubscribe   = "conversation.subscribe"
	EventTypeConversationUnsubscribe = "conversation.unsubscribe"
	EventTypeInboxSubscribe          = "inbox.subscribe"
	EventTypePing                    = "ping"
)

// Event types - Server → Client
const (
	EventTypeConversationSnapshot = "conversation.snapshot"
	EventTypeMessageNew           = "message.new"
	EventTypeMessageRead          = "message.read"
	EventTypeInboxSnapshot        = "inbox.snapshot"
	EventTypePong                 = "pong"
	EventTypeError                = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type           string          `json:"type"`
	ConversationID *uuid.UUID      `json:"conversation_id,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Timestamp      int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type ConversationPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

// --- Server → Client payloads ---

// SnapshotPayload carries the full ordered thread; the client replaces its
// local copy wholesale, which also reconciles any optimistic pending rows.
type SnapshotPayload struct {
	Messages []domain.Message `json:"messages"`
}

type MessagePayload struct {
	domain.Message
}

type ReadPayload struct {
	ReaderID   uuid.UUID   `json:"reader_id"`
	MessageIDs []uuid.UUID `json:"message_ids"`
}

// InboxPayload carries the full conversation list ordered by latest activity.
type InboxPayload struct {
	Conversations []domain.Conversation `json:"conversations"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, conversationID *uuid.UUID, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:           eventType,
		ConversationID: conversationID,
		Payload:        data,
		Timestamp:      time.Now().Unix(),
	}, nil
}
