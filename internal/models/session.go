package models

import "time"

// Session lifecycle states. Sessions are never deleted, only archived.
const (
	SessionStatusActive   = "active"
	SessionStatusEnded    = "ended"
	SessionStatusArchived = "archived"
)

// ConversationTurn is one utterance within a session
type ConversationTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationSession represents one voice/chat conversation, keyed by chat
// ID. Owned by the session finalizer; mutated only through finalize and
// append operations.
type ConversationSession struct {
	ID              string             `db:"id" json:"id"`
	ChatID          string             `db:"chat_id" json:"chat_id"`
	UserIdentity    string             `db:"user_identity" json:"user_identity"`
	Status          string             `db:"status" json:"status"`
	StartedAt       time.Time          `db:"started_at" json:"started_at"`
	EndedAt         *time.Time         `db:"ended_at" json:"ended_at,omitempty"`
	DurationSeconds int64              `db:"duration_seconds" json:"duration_seconds"`
	Turns           []ConversationTurn `db:"-" json:"turns,omitempty"`
	TurnsRaw        []byte             `db:"turns" json:"-"`
	Metadata        []byte             `db:"metadata" json:"-"`
	EmotionPayload  []byte             `db:"emotion_payload" json:"-"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updated_at"`
}
