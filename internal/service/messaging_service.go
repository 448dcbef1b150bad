package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkovac/parcelo/internal/domain"
	"github.com/dkovac/parcelo/internal/metrics"
	"github.com/dkovac/parcelo/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("you are not a participant of this conversation")
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
	ErrMissingParticipant   = errors.New("missing participant id")
	ErrEmptyMessage         = errors.New("message text must not be empty")
	ErrUserNotFound         = errors.New("user not found")
	ErrListingNotFound      = errors.New("referenced listing not found")
)

// Notifier broadcasts real-time events to connected clients.
type Notifier interface {
	NotifyNewMessage(conv *domain.Conversation, msg *domain.Message)
	NotifyMessagesRead(conv *domain.Conversation, readerID uuid.UUID, messageIDs []uuid.UUID)
	NotifyConversationUpdated(conv *domain.Conversation)
}

const summaryTimeout = 5 * time.Second

// MessagingService is the entry point for everything conversational:
// starting threads, appending messages, listing feeds and read tracking.
type MessagingService struct {
	convRepo    repository.ConversationRepository
	msgRepo     repository.MessageRepository
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	notifier    Notifier
	log         zerolog.Logger
}

func NewMessagingService(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	log zerolog.Logger,
) *MessagingService {
	return &MessagingService{
		convRepo:    convRepo,
		msgRepo:     msgRepo,
		userRepo:    userRepo,
		listingRepo: listingRepo,
		log:         log.With().Str("component", "messaging").Logger(),
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessagingService) SetNotifier(n Notifier) {
	s.notifier = n
}

// StartOrGetConversation resolves the single conversation between the two
// users for the given listing context, creating it when absent. The id is
// derived from the pair and the context, so two users racing to start the
// same thread both land on the same row and the insert stays idempotent.
func (s *MessagingService) StartOrGetConversation(ctx context.Context, userID, targetUserID uuid.UUID, ref domain.ListingRef) (*domain.Conversation, error) {
	if userID == uuid.Nil || targetUserID == uuid.Nil {
		return nil, ErrMissingParticipant
	}
	if userID == targetUserID {
		return nil, ErrSelfConversation
	}

	initiator, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if initiator == nil {
		return nil, ErrUserNotFound
	}
	target, err := s.userRepo.GetByID(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrUserNotFound
	}

	conv := &domain.Conversation{
		ID:            domain.ConversationID(userID, targetUserID, ref),
		InitiatorID:   userID,
		RecipientID:   targetUserID,
		ParcelID:      ref.ParcelID,
		CourierTripID: ref.CourierTripID,
		InitiatorName: initiator.DisplayName,
		OtherUserName: target.DisplayName,
		CreatedAt:     time.Now(),
	}

	if err := s.validateListing(ctx, conv.Ref()); err != nil {
		return nil, err
	}

	created, err := s.convRepo.CreateIfAbsent(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	if created {
		metrics.ConversationsCreated.Inc()
		return conv, nil
	}

	// Lost the race or the thread already existed; either way the row under
	// this id is the canonical one.
	existing, err := s.convRepo.GetByID(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrConversationNotFound
	}
	return existing, nil
}

// SendMessage appends an immutable message to the conversation. The summary
// mirror on the conversation row is refreshed in the background; its failure
// never affects the message write.
func (s *MessagingService) SendMessage(ctx context.Context, userID, conversationID uuid.UUID, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	conv, err := s.conversationForParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	sender, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, ErrUserNotFound
	}

	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       userID,
		DisplayName:    sender.DisplayName,
		Text:           text,
		CreatedAt:      time.Now(),
	}

	if err := s.msgRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}
	metrics.MessagesSent.Inc()

	if s.notifier != nil {
		s.notifier.NotifyNewMessage(conv, msg)
	}

	go s.applySummary(conv.ID, text, userID, sender.DisplayName)

	return msg, nil
}

// applySummary is fire-and-forget: it runs detached from the sender's
// request and only logs on failure.
func (s *MessagingService) applySummary(conversationID uuid.UUID, text string, senderID uuid.UUID, senderName string) {
	ctx, cancel := context.WithTimeout(context.Background(), summaryTimeout)
	defer cancel()

	if err := s.convRepo.ApplySummary(ctx, conversationID, text, senderID, senderName, time.Now()); err != nil {
		s.log.Error().Err(err).
			Stringer("conversation_id", conversationID).
			Msg("summary update failed")
		return
	}

	if s.notifier != nil {
		conv, err := s.convRepo.GetByID(ctx, conversationID)
		if err != nil || conv == nil {
			return
		}
		s.notifier.NotifyConversationUpdated(conv)
	}
}

// ListConversations returns the user's threads, newest activity first.
func (s *MessagingService) ListConversations(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	convs, err := s.convRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}

// ListMessages returns the full ordered thread for a participant.
func (s *MessagingService) ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]domain.Message, error) {
	if _, err := s.conversationForParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	messages, err := s.msgRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// MarkInboundRead flips every unread message addressed to the viewer and
// tells the peer which ids changed. Safe to call repeatedly.
func (s *MessagingService) MarkInboundRead(ctx context.Context, userID, conversationID uuid.UUID) ([]uuid.UUID, error) {
	conv, err := s.conversationForParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	ids, err := s.msgRepo.MarkInboundRead(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	metrics.MessagesMarkedRead.Add(float64(len(ids)))

	if s.notifier != nil {
		s.notifier.NotifyMessagesRead(conv, userID, ids)
	}
	return ids, nil
}

// validateListing checks that a referenced parcel or courier trip exists
// before a conversation is keyed on it.
func (s *MessagingService) validateListing(ctx context.Context, ref domain.ListingRef) error {
	if ref.ParcelID != nil {
		parcel, err := s.listingRepo.GetParcelByID(ctx, *ref.ParcelID)
		if err != nil {
			return err
		}
		if parcel == nil {
			return ErrListingNotFound
		}
	}
	if ref.CourierTripID != nil {
		trip, err := s.listingRepo.GetTripByID(ctx, *ref.CourierTripID)
		if err != nil {
			return err
		}
		if trip == nil {
			return ErrListingNotFound
		}
	}
	return nil
}

func (s *MessagingService) conversationForParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}
