package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/serene-ai/serene-backend/internal/models"
	"github.com/serene-ai/serene-backend/internal/repository"
)

// SummaryRepository implements repository.SummaryRepository using PostgreSQL
type SummaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository creates a new PostgreSQL summary repository
func NewSummaryRepository(db *sqlx.DB) repository.SummaryRepository {
	return &SummaryRepository{db: db}
}

// GetByChatID retrieves the summary for a chat, nil when absent
func (r *SummaryRepository) GetByChatID(ctx context.Context, chatID string) (*models.ConversationSummary, error) {
	var summary models.ConversationSummary
	query := `
		SELECT id, chat_id, user_identity, summary_text, source, model_used,
		       token_count, event_count, emotion_event_count, user_message_count, duration_seconds,
		       key_topics, emotional_tone, has_personal_info, relevance_score,
		       dominant_emotions, created_at, updated_at
		FROM conversation_summaries
		WHERE chat_id = $1
	`

	err := r.db.GetContext(ctx, &summary, query, chatID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &summary, nil
}

// Upsert replaces the summary row for a chat in place. The created_at of an
// existing row is preserved by the conflict clause.
func (r *SummaryRepository) Upsert(ctx context.Context, summary *models.ConversationSummary) error {
	if summary.ID == "" {
		summary.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = now
	}
	summary.UpdatedAt = now

	if len(summary.KeyTopicsRaw) == 0 {
		summary.KeyTopicsRaw = []byte("[]")
	}
	if len(summary.DominantEmotions) == 0 {
		summary.DominantEmotions = []byte("[]")
	}

	query := `
		INSERT INTO conversation_summaries
			(id, chat_id, user_identity, summary_text, source, model_used,
			 token_count, event_count, emotion_event_count, user_message_count, duration_seconds,
			 key_topics, emotional_tone, has_personal_info, relevance_score,
			 dominant_emotions, created_at, updated_at)
		VALUES
			(:id, :chat_id, :user_identity, :summary_text, :source, :model_used,
			 :token_count, :event_count, :emotion_event_count, :user_message_count, :duration_seconds,
			 :key_topics, :emotional_tone, :has_personal_info, :relevance_score,
			 :dominant_emotions, :created_at, :updated_at)
		ON CONFLICT (chat_id) DO UPDATE SET
			summary_text = EXCLUDED.summary_text,
			source = EXCLUDED.source,
			model_used = EXCLUDED.model_used,
			token_count = EXCLUDED.token_count,
			event_count = EXCLUDED.event_count,
			emotion_event_count = EXCLUDED.emotion_event_count,
			user_message_count = EXCLUDED.user_message_count,
			duration_seconds = EXCLUDED.duration_seconds,
			key_topics = EXCLUDED.key_topics,
			emotional_tone = EXCLUDED.emotional_tone,
			has_personal_info = EXCLUDED.has_personal_info,
			relevance_score = EXCLUDED.relevance_score,
			dominant_emotions = EXCLUDED.dominant_emotions,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.NamedExecContext(ctx, query, summary)
	return err
}

// ListByUser retrieves summaries for a user, most recent first
func (r *SummaryRepository) ListByUser(ctx context.Context, userIdentity string, limit int) ([]*models.ConversationSummary, error) {
	var summaries []*models.ConversationSummary
	query := `
		SELECT id, chat_id, user_identity, summary_text, source, model_used,
		       token_count, event_count, emotion_event_count, user_message_count, duration_seconds,
		       key_topics, emotional_tone, has_personal_info, relevance_score,
		       dominant_emotions, created_at, updated_at
		FROM conversation_summaries
		WHERE user_identity = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	err := r.db.SelectContext(ctx, &summaries, query, userIdentity, limit)
	if err != nil {
		return nil, err
	}

	return summaries, nil
}
