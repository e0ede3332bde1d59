package repository

import (
	"context"

	"github.com/serene-ai/serene-backend/internal/models"
)

// SessionRepository defines conversation-session storage operations.
// Upsert is keyed on chat_id: duplicate webhook delivery converges on one
// row instead of relying on mutual exclusion.
type SessionRepository interface {
	GetByChatID(ctx context.Context, chatID string) (*models.ConversationSession, error)
	Upsert(ctx context.Context, session *models.ConversationSession) error
	ListByUser(ctx context.Context, userIdentity string) ([]*models.ConversationSession, error)
}

// SummaryRepository defines conversation-summary storage operations.
// At most one live summary exists per chat_id.
type SummaryRepository interface {
	GetByChatID(ctx context.Context, chatID string) (*models.ConversationSummary, error)
	Upsert(ctx context.Context, summary *models.ConversationSummary) error
	ListByUser(ctx context.Context, userIdentity string, limit int) ([]*models.ConversationSummary, error)
}
