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

// SessionRepository implements repository.SessionRepository using PostgreSQL
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &SessionRepository{db: db}
}

// GetByChatID retrieves a session by chat ID, nil when absent
func (r *SessionRepository) GetByChatID(ctx context.Context, chatID string) (*models.ConversationSession, error) {
	var session models.ConversationSession
	query := `
		SELECT id, chat_id, user_identity, status, started_at, ended_at,
		       duration_seconds, turns, metadata, emotion_payload, created_at, updated_at
		FROM conversation_sessions
		WHERE chat_id = $1
	`

	err := r.db.GetContext(ctx, &session, query, chatID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &session, nil
}

// Upsert inserts or updates the session row keyed on chat_id
func (r *SessionRepository) Upsert(ctx context.Context, session *models.ConversationSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	if len(session.Metadata) == 0 {
		session.Metadata = []byte("{}")
	}
	if len(session.TurnsRaw) == 0 {
		session.TurnsRaw = []byte("[]")
	}

	query := `
		INSERT INTO conversation_sessions
			(id, chat_id, user_identity, status, started_at, ended_at,
			 duration_seconds, turns, metadata, emotion_payload, created_at, updated_at)
		VALUES
			(:id, :chat_id, :user_identity, :status, :started_at, :ended_at,
			 :duration_seconds, :turns, :metadata, :emotion_payload, :created_at, :updated_at)
		ON CONFLICT (chat_id) DO UPDATE SET
			status = EXCLUDED.status,
			ended_at = EXCLUDED.ended_at,
			duration_seconds = EXCLUDED.duration_seconds,
			turns = EXCLUDED.turns,
			metadata = EXCLUDED.metadata,
			emotion_payload = EXCLUDED.emotion_payload,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.NamedExecContext(ctx, query, session)
	return err
}

// ListByUser retrieves all sessions for a user, most recent first
func (r *SessionRepository) ListByUser(ctx context.Context, userIdentity string) ([]*models.ConversationSession, error) {
	var sessions []*models.ConversationSession
	query := `
		SELECT id, chat_id, user_identity, status, started_at, ended_at,
		       duration_seconds, turns, metadata, emotion_payload, created_at, updated_at
		FROM conversation_sessions
		WHERE user_identity = $1
		ORDER BY updated_at DESC
	`

	err := r.db.SelectContext(ctx, &sessions, query, userIdentity)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}
