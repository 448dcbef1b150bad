package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/dkovac/parcelo/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

const conversationColumns = `id, initiator_id, recipient_id, parcel_id, courier_trip_id,
	participant_names, initiator_name, other_user_name, last_message, last_message_at, created_at`

func (r *ConversationRepo) CreateIfAbsent(ctx context.Context, conv *domain.Conversation) (bool, error) {
	query := `
		INSERT INTO conversations (id, initiator_id, recipient_id, parcel_id, courier_trip_id,
			participant_names, initiator_name, other_user_name, last_message, last_message_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`

	names := conv.ParticipantNames
	if names == nil {
		names = map[string]string{}
	}

	tag, err := r.pool.Exec(ctx, query,
		conv.ID, conv.InitiatorID, conv.RecipientID, conv.ParcelID, conv.CourierTripID,
		names, conv.InitiatorName, conv.OtherUserName,
		conv.LastMessage, conv.LastMessageAt, conv.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`

	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&conv.ID, &conv.InitiatorID, &conv.RecipientID, &conv.ParcelID, &conv.CourierTripID,
		&conv.ParticipantNames, &conv.InitiatorName, &conv.OtherUserName,
		&conv.LastMessage, &conv.LastMessageAt, &conv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &conv, err
}

func (r *ConversationRepo) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	// Threads with no messages yet sort by their creation time.
	query := `SELECT ` + conversationColumns + `
		FROM conversations
		WHERE initiator_id = $1 OR recipient_id = $1
		ORDER BY COALESCE(last_message_at, created_at) DESC, id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(
			&conv.ID, &conv.InitiatorID, &conv.RecipientID, &conv.ParcelID, &conv.CourierTripID,
			&conv.ParticipantNames, &conv.InitiatorName, &conv.OtherUserName,
			&conv.LastMessage, &conv.LastMessageAt, &conv.CreatedAt,
		); err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (r *ConversationRepo) ApplySummary(ctx context.Context, conversationID uuid.UUID, text string, senderID uuid.UUID, senderName string, at time.Time) error {
	query := `
		UPDATE conversations
		SET last_message = $2,
			last_message_at = $3,
			participant_names = jsonb_set(COALESCE(participant_names, '{}'::jsonb), ARRAY[$4::text], to_jsonb($5::text), true),
			initiator_name = CASE WHEN initiator_name IS NULL OR btrim(initiator_name) = '' THEN $5 ELSE initiator_name END
		WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, conversationID, text, at, senderID.String(), senderName)
	return err
}
