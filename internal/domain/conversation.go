package domain

import (
	"time"

	"github.com/google/uuid"
)

// conversationNamespace is the UUIDv5 namespace for conversation identity.
// Changing it would re-key every conversation, so it is fixed forever.
var conversationNamespace = uuid.MustParse("9b1e3f52-7c44-4a8e-bf0e-2d6a9c1f5e88")

// ListingRef optionally scopes a conversation to a specific listing.
// The zero value means a general thread between the two users.
type ListingRef struct {
	ParcelID      *uuid.UUID `json:"parcel_id,omitempty"`
	CourierTripID *uuid.UUID `json:"courier_trip_id,omitempty"`
}

// Equal reports whether two refs denote the same context. Both fields
// participate: parcel ids must match (both absent counts as a match) and
// courier trip ids must match the same way.
func (r ListingRef) Equal(other ListingRef) bool {
	return uuidPtrEqual(r.ParcelID, other.ParcelID) &&
		uuidPtrEqual(r.CourierTripID, other.CourierTripID)
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (r ListingRef) key() string {
	var p, c string
	if r.ParcelID != nil {
		p = r.ParcelID.String()
	}
	if r.CourierTripID != nil {
		c = r.CourierTripID.String()
	}
	return p + "|" + c
}

// ConversationID derives the identity of the conversation between two users
// for a given listing context. The participant order does not matter, so two
// users starting the same thread concurrently compute the same id and the
// insert can be an idempotent create-if-absent instead of query-then-create.
func ConversationID(a, b uuid.UUID, ref ListingRef) uuid.UUID {
	lo, hi := a, b
	if lo.String() > hi.String() {
		lo, hi = hi, lo
	}
	return uuid.NewSHA1(conversationNamespace, []byte(lo.String()+"|"+hi.String()+"|"+ref.key()))
}

// Conversation pairs exactly two users, optionally scoped to a listing.
// InitiatorID/RecipientID keep the creation order for display lookups; the
// identity itself is order-insensitive (see ConversationID).
type Conversation struct {
	ID            uuid.UUID  `json:"id"`
	InitiatorID   uuid.UUID  `json:"initiator_id"`
	RecipientID   uuid.UUID  `json:"recipient_id"`
	ParcelID      *uuid.UUID `json:"parcel_id,omitempty"`
	CourierTripID *uuid.UUID `json:"courier_trip_id,omitempty"`

	// ParticipantNames caches the last-known display name per user id.
	// Best effort, never authoritative.
	ParticipantNames map[string]string `json:"participant_names,omitempty"`
	// InitiatorName and OtherUserName are display hints for the list UI.
	// InitiatorName is first-writer-wins and never overwritten once set.
	InitiatorName string `json:"initiator_name,omitempty"`
	OtherUserName string `json:"other_user_name,omitempty"`

	LastMessage   string     `json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (c *Conversation) Ref() ListingRef {
	return ListingRef{ParcelID: c.ParcelID, CourierTripID: c.CourierTripID}
}

func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.InitiatorID == userID || c.RecipientID == userID
}

// OtherParticipant returns the peer of the given participant.
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if c.InitiatorID == userID {
		return c.RecipientID
	}
	return c.InitiatorID
}

// Message is an immutable chat line. The read flag is the only field that
// ever changes after creation, flipped once by the read tracker.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	DisplayName    string    `json:"display_name"`
	Text           string    `json:"text"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}
