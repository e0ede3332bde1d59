package models

import "time"

// How a summary was produced. A fallback summary is still indexed and
// searchable; the source only records which path generated the text.
const (
	SummarySourceGenerated = "generated"
	SummarySourceFallback  = "fallback"
)

// ConversationSummary is the one-per-chat summary record. Re-finalization
// updates the existing row in place, never duplicates it.
type ConversationSummary struct {
	ID                string    `db:"id" json:"id"`
	ChatID            string    `db:"chat_id" json:"chat_id"`
	UserIdentity      string    `db:"user_identity" json:"user_identity"`
	SummaryText       string    `db:"summary_text" json:"summary_text"`
	Source            string    `db:"source" json:"source"`
	ModelUsed         string    `db:"model_used" json:"model_used"`
	TokenCount        int       `db:"token_count" json:"token_count"`
	EventCount        int       `db:"event_count" json:"event_count"`
	EmotionEventCount int       `db:"emotion_event_count" json:"emotion_event_count"`
	UserMessageCount  int       `db:"user_message_count" json:"user_message_count"`
	DurationSeconds   int64     `db:"duration_seconds" json:"duration_seconds"`
	KeyTopics         []string  `db:"-" json:"key_topics,omitempty"`
	KeyTopicsRaw      []byte    `db:"key_topics" json:"-"`
	EmotionalTone     string    `db:"emotional_tone" json:"emotional_tone"`
	HasPersonalInfo   bool      `db:"has_personal_info" json:"has_personal_info"`
	RelevanceScore    float64   `db:"relevance_score" json:"relevance_score"`
	DominantEmotions  []byte    `db:"dominant_emotions" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
