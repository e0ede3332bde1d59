package models

import "time"

// SearchResult is constructed per query and never persisted
type SearchResult struct {
	ChatID       string                 `json:"chat_id"`
	UserIdentity string                 `json:"user_identity"`
	Summary      string                 `json:"summary"`
	Score        float64                `json:"score"`
	CreatedAt    time.Time              `json:"created_at"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}
