package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dkovac/parcelo/internal/domain"
	"github.com/dkovac/parcelo/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Feed is the read side of the messaging service the live layer needs:
// snapshots for new subscribers, inbox redelivery and passive read marking.
type Feed interface {
	ListConversations(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error)
	ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]domain.Message, error)
	MarkInboundRead(ctx context.Context, userID, conversationID uuid.UUID) ([]uuid.UUID, error)
}

const feedTimeout = 5 * time.Second

// Hub manages all active WebSocket clients and routes events.
type Hub struct {
	feed Feed
	log  zerolog.Logger

	// mu guards clients; the run loop writes, notifier goroutines read.
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg
}

type broadcastMsg struct {
	conversationID uuid.UUID
	data           []byte
	excludeID      *uuid.UUID // optional: skip this user (e.g. sender)
}

func NewHub(feed Feed, log zerolog.Logger) *Hub {
	return &Hub{
		feed:       feed,
		log:        log.With().Str("component", "ws-hub").Logger(),
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.userID]; ok {
				// Reconnect: stop the stale connection's write pump. Its own
				// unregister becomes a no-op below (pointer mismatch).
				close(old.done)
			} else {
				metrics.WSConnections.Inc()
			}
			h.clients[client.userID] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug().Stringer("user_id", client.userID).Int("total", total).Msg("client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client.userID] == client {
				delete(h.clients, client.userID)
				close(client.done)
				metrics.WSConnections.Dec()
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug().Stringer("user_id", client.userID).Int("total", total).Msg("client disconnected")

		case msg := <-h.broadcast:
			h.mu.Lock()
			for _, client := range h.clients {
				if msg.excludeID != nil && client.userID == *msg.excludeID {
					continue
				}
				if !client.IsSubscribed(msg.conversationID) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Client buffer full - disconnect
					delete(h.clients, client.userID)
					close(client.done)
					metrics.WSConnections.Dec()
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToConversation sends an event to all subscribers of a conversation.
func (h *Hub) BroadcastToConversation(conversationID uuid.UUID, event *Event, excludeUserID *uuid.UUID) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal error")
		return
	}
	h.broadcast <- &broadcastMsg{
		conversationID: conversationID,
		data:           data,
		excludeID:      excludeUserID,
	}
}

// SendToUser sends an event directly to a specific user.
func (h *Hub) SendToUser(userID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()
	if ok {
		select {
		case client.send <- data:
		default:
		}
	}
}

// IsSubscribed reports whether the user has the conversation feed open.
func (h *Hub) IsSubscribed(userID, conversationID uuid.UUID) bool {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()
	return ok && client.IsSubscribed(conversationID)
}

// MarkRead runs the passive read tracker for a viewer whose open feed just
// received inbound messages.
func (h *Hub) MarkRead(viewerID, conversationID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), feedTimeout)
	defer cancel()

	if _, err := h.feed.MarkInboundRead(ctx, viewerID, conversationID); err != nil {
		h.log.Warn().Err(err).
			Stringer("conversation_id", conversationID).
			Msg("mark read failed")
	}
}

// PushInbox redelivers the full ordered conversation list to a user, if they
// are connected and subscribed to their inbox.
func (h *Hub) PushInbox(userID uuid.UUID) {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok || !client.InboxSubscribed() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), feedTimeout)
	defer cancel()

	convs, err := h.feed.ListConversations(ctx, userID)
	if err != nil {
		h.log.Warn().Err(err).Stringer("user_id", userID).Msg("inbox fetch failed")
		return
	}
	evt, err := NewEvent(EventTypeInboxSnapshot, nil, InboxPayload{Conversations: convs})
	if err != nil {
		return
	}
	h.SendToUser(userID, evt)
}
