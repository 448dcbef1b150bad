package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dkovac/parcelo/internal/domain"
	"github.com/dkovac/parcelo/internal/service"
	"github.com/dkovac/parcelo/internal/transport/http/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ConversationHandler struct {
	messaging *service.MessagingService
	log       zerolog.Logger
}

func NewConversationHandler(messaging *service.MessagingService, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{messaging: messaging, log: log.With().Str("component", "http").Logger()}
}

// StartOrGet resolves (or lazily creates) the conversation with another user,
// optionally scoped to a listing. When "text" is present the first message is
// sent in the same call, which is how the listing dashboards start threads.
func (h *ConversationHandler) StartOrGet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input struct {
		UserID        uuid.UUID  `json:"user_id"`
		ParcelID      *uuid.UUID `json:"parcel_id,omitempty"`
		CourierTripID *uuid.UUID `json:"courier_trip_id,omitempty"`
		Text          string     `json:"text,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if input.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "user_id is required")
		return
	}

	ref := domain.ListingRef{ParcelID: input.ParcelID, CourierTripID: input.CourierTripID}
	conv, err := h.messaging.StartOrGetConversation(r.Context(), userID, input.UserID, ref)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfConversation):
			writeError(w, http.StatusBadRequest, "SELF_CONVERSATION", "Cannot start a conversation with yourself")
		case errors.Is(err, service.ErrMissingParticipant):
			writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "user_id is required")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		case errors.Is(err, service.ErrListingNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Listing not found")
		default:
			h.log.Error().Err(err).Msg("start conversation failed")
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	if input.Text != "" {
		if _, err := h.messaging.SendMessage(r.Context(), userID, conv.ID, input.Text); err != nil {
			switch {
			case errors.Is(err, service.ErrEmptyMessage):
				writeError(w, http.StatusBadRequest, "EMPTY_MESSAGE", "Message text must not be empty")
			default:
				h.log.Error().Err(err).Msg("first message failed")
				writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
			}
			return
		}
	}

	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convs, err := h.messaging.ListConversations(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("list conversations failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, convs)
}

func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	var input struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	msg, err := h.messaging.SendMessage(r.Context(), userID, convID, input.Text)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "EMPTY_MESSAGE", "Message text must not be empty")
		case errors.Is(err, service.ErrConversationNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
		default:
			h.log.Error().Err(err).Msg("send message failed")
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	messages, err := h.messaging.ListMessages(r.Context(), userID, convID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
		default:
			h.log.Error().Err(err).Msg("list messages failed")
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// MarkRead is the REST fallback for clients without a live feed open.
func (h *ConversationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	ids, err := h.messaging.MarkInboundRead(r.Context(), userID, convID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
		default:
			h.log.Error().Err(err).Msg("mark read failed")
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"marked_read": len(ids)})
}
