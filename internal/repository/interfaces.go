package repository

import (
	"context"
	"time"

	"github.com/dkovac/parcelo/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

type ListingRepository interface {
	CreateParcel(ctx context.Context, parcel *domain.Parcel) error
	GetParcelByID(ctx context.Context, id uuid.UUID) (*domain.Parcel, error)
	ListParcels(ctx context.Context) ([]domain.Parcel, error)
	ListParcelsBySender(ctx context.Context, senderID uuid.UUID) ([]domain.Parcel, error)
	CreateTrip(ctx context.Context, trip *domain.CourierTrip) error
	GetTripByID(ctx context.Context, id uuid.UUID) (*domain.CourierTrip, error)
	ListTrips(ctx context.Context) ([]domain.CourierTrip, error)
	ListTripsByCourier(ctx context.Context, courierID uuid.UUID) ([]domain.CourierTrip, error)
}

type ConversationRepository interface {
	// CreateIfAbsent inserts the conversation unless its id already exists.
	// Returns true when a new row was written.
	CreateIfAbsent(ctx context.Context, conv *domain.Conversation) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	// ListByParticipant orders by the newest message, falling back to the
	// creation time for conversations with no messages yet.
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error)
	// ApplySummary mirrors the newest message onto the conversation and
	// refreshes the sender's cached display name. The initiator name is only
	// written when still blank.
	ApplySummary(ctx context.Context, conversationID uuid.UUID, text string, senderID uuid.UUID, senderName string, at time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// ListByConversation returns the full thread ordered by created_at
	// ascending, ties broken by id.
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error)
	// MarkInboundRead flips every unread message not sent by the viewer and
	// reports which ids changed. Re-running it is a no-op.
	MarkInboundRead(ctx context.Context, conversationID, viewerID uuid.UUID) ([]uuid.UUID, error)
}
