package ws

import (
	"github.com/dkovac/parcelo/internal/domain"
	"github.com/google/uuid"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyNewMessage(conv *domain.Conversation, msg *domain.Message) {
	evt, err := NewEvent(EventTypeMessageNew, &msg.ConversationID, MessagePayload{Message: *msg})
	if err != nil {
		n.hub.log.Error().Err(err).Msg("marshal error")
		return
	}
	n.hub.BroadcastToConversation(msg.ConversationID, evt, nil)

	// If the peer has the thread open, delivery doubles as a read tick.
	other := conv.OtherParticipant(msg.SenderID)
	if n.hub.IsSubscribed(other, conv.ID) {
		go n.hub.MarkRead(other, conv.ID)
	}
}

func (n *HubNotifier) NotifyMessagesRead(conv *domain.Conversation, readerID uuid.UUID, messageIDs []uuid.UUID) {
	evt, err := NewEvent(EventTypeMessageRead, &conv.ID, ReadPayload{ReaderID: readerID, MessageIDs: messageIDs})
	if err != nil {
		n.hub.log.Error().Err(err).Msg("marshal error")
		return
	}
	n.hub.BroadcastToConversation(conv.ID, evt, &readerID)
}

func (n *HubNotifier) NotifyConversationUpdated(conv *domain.Conversation) {
	n.hub.PushInbox(conv.InitiatorID)
	n.hub.PushInbox(conv.RecipientID)
}
