package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dkovac/parcelo/internal/service"
	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 256
)

// Client represents a single WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID

	// subscribedConversations tracks which threads this client has open.
	subscribedConversations map[uuid.UUID]struct{}
	inboxSubscribed         bool
	mu                      sync.RWMutex

	// send is never closed: concurrent senders (hub loop, notifier
	// goroutines) may hold a reference past unregistration. The write pump
	// exits when done is closed instead.
	send chan []byte
	done chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:                     hub,
		conn:                    conn,
		userID:                  userID,
		subscribedConversations: make(map[uuid.UUID]struct{}),
		send:                    make(chan []byte, sendBufSize),
		done:                    make(chan struct{}),
	}
}

// IsSubscribed checks if this client has a conversation feed open.
func (c *Client) IsSubscribed(conversationID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscribedConversations[conversationID]
	return ok
}

func (c *Client) InboxSubscribed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inboxSubscribed
}

func (c *Client) subscribe(conversationID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribedConversations[conversationID] = struct{}{}
}

func (c *Client) unsubscribe(conversationID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscribedConversations, conversationID)
}

// ReadPump reads events from the WebSocket and handles them.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(context.Background(), c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.hub.log.Debug().Stringer("user_id", c.userID).Msg("client closed connection")
			} else {
				c.hub.log.Debug().Err(err).Stringer("user_id", c.userID).Msg("read error")
			}
			return
		}

		c.handleEvent(&event)
	}
}

// WritePump writes queued events to the WebSocket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// handleEvent routes an incoming client event.
func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventTypeConversationSubscribe:
		var p ConversationPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid conversation.subscribe payload")
			return
		}
		c.openConversation(p.ConversationID)

	case EventTypeConversationUnsubscribe:
		var p ConversationPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid conversation.unsubscribe payload")
			return
		}
		c.unsubscribe(p.ConversationID)

	case EventTypeInboxSubscribe:
		c.mu.Lock()
		c.inboxSubscribed = true
		c.mu.Unlock()
		c.hub.PushInbox(c.userID)

	case EventTypePing:
		c.sendPong()

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

// openConversation verifies access, delivers the full ordered snapshot,
// registers the live subscription and marks inbound messages as read.
func (c *Client) openConversation(conversationID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), feedTimeout)
	defer cancel()

	messages, err := c.hub.feed.ListMessages(ctx, c.userID, conversationID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			c.sendError("NOT_FOUND", "conversation not found")
		case errors.Is(err, service.ErrNotParticipant):
			c.sendError("FORBIDDEN", "you are not a participant of this conversation")
		default:
			c.hub.log.Warn().Err(err).Stringer("conversation_id", conversationID).Msg("snapshot fetch failed")
			c.sendError("INTERNAL", "could not load conversation")
		}
		return
	}

	c.subscribe(conversationID)

	evt, err := NewEvent(EventTypeConversationSnapshot, &conversationID, SnapshotPayload{Messages: messages})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.log.Warn().
			Stringer("user_id", c.userID).
			Stringer("conversation_id", conversationID).
			Msg("snapshot dropped, send buffer full")
	}

	// Passive read tracking: opening the feed counts as a delivery tick.
	go c.hub.MarkRead(c.userID, conversationID)
}

func (c *Client) sendPong() {
	data, _ := json.Marshal(Event{Type: EventTypePong})
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(code, message string) {
	evt, err := NewEvent(EventTypeError, nil, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
