package search

import (
	"sort"
	"strings"
	"time"

	"github.com/serene-ai/serene-backend/internal/models"
	"github.com/serene-ai/serene-backend/internal/vector"
)

// Combined-score weights. They sum to 1.0; the similarity term dominates and
// the personal-info bonus outweighs the remaining signals.
const (
	weightSimilarity   = 0.35
	weightRecency      = 0.15
	weightPersonalInfo = 0.20
	weightEmotion      = 0.10
	weightTopic        = 0.10
	weightStored       = 0.10
)

// recencyWindow is the horizon over which the recency score decays to zero
const recencyWindow = 168 * time.Hour

// Rank filters candidates below minScore on their raw similarity, orders the
// rest by the weighted combined score, and truncates to topK. The sort is
// stable: candidates with equal combined score keep their raw query order.
func Rank(matches []vector.QueryMatch, query string, minScore float64, topK int, now time.Time) []models.SearchResult {
	queryEmotions := EmotionWords(query)
	queryLower := strings.ToLower(query)

	type scored struct {
		match    vector.QueryMatch
		combined float64
	}

	candidates := make([]scored, 0, len(matches))
	for _, m := range matches {
		if m.Score < minScore {
			continue
		}
		candidates = append(candidates, scored{
			match:    m,
			combined: combinedScore(m, queryEmotions, queryLower, now),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].combined > candidates[j].combined
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	results := make([]models.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, toResult(c.match, c.combined))
	}

	return results
}

func combinedScore(m vector.QueryMatch, queryEmotions []string, queryLower string, now time.Time) float64 {
	score := weightSimilarity * m.Score
	score += weightRecency * recencyScore(metadataTime(m.Metadata, "created_at"), now)
	if metadataBool(m.Metadata, "has_personal_info") {
		score += weightPersonalInfo
	}
	score += weightEmotion * emotionRelevance(m.Metadata, queryEmotions)
	score += weightTopic * topicOverlap(m.Metadata, queryLower)
	score += weightStored * metadataFloat(m.Metadata, "relevance_score")
	return score
}

// recencyScore is 1 for a record created now and decays linearly to 0 at the
// edge of the recency window
func recencyScore(createdAt time.Time, now time.Time) float64 {
	if createdAt.IsZero() {
		return 0
	}
	age := now.Sub(createdAt)
	if age <= 0 {
		return 1
	}
	if age >= recencyWindow {
		return 0
	}
	return 1 - float64(age)/float64(recencyWindow)
}

// emotionRelevance matches query emotion words against the record's dominant
// emotion and summary text
func emotionRelevance(metadata map[string]interface{}, queryEmotions []string) float64 {
	if len(queryEmotions) == 0 {
		return 0
	}

	dominant := strings.ToLower(metadataString(metadata, "dominant_emotion"))
	for _, w := range queryEmotions {
		if w == dominant {
			return 1
		}
	}

	summary := strings.ToLower(metadataString(metadata, "summary"))
	for _, w := range queryEmotions {
		if strings.Contains(summary, w) {
			return 0.5
		}
	}

	return 0
}

// topicOverlap is the fraction of the record's stored topics that appear in
// the query text
func topicOverlap(metadata map[string]interface{}, queryLower string) float64 {
	topics := metadataStrings(metadata, "topics")
	if len(topics) == 0 {
		return 0
	}

	hits := 0
	for _, topic := range topics {
		if strings.Contains(queryLower, strings.ToLower(topic)) {
			hits++
		}
	}

	return float64(hits) / float64(len(topics))
}

func toResult(m vector.QueryMatch, combined float64) models.SearchResult {
	result := models.SearchResult{
		ChatID:       metadataString(m.Metadata, "chat_id"),
		UserIdentity: metadataString(m.Metadata, "user_identity"),
		Summary:      metadataString(m.Metadata, "summary"),
		Score:        m.Score,
		CreatedAt:    metadataTime(m.Metadata, "created_at"),
		Metadata: map[string]interface{}{
			"combined_score": combined,
		},
	}
	if topics := metadataStrings(m.Metadata, "topics"); len(topics) > 0 {
		result.Metadata["topics"] = topics
	}
	if emotion := metadataString(m.Metadata, "dominant_emotion"); emotion != "" {
		result.Metadata["dominant_emotion"] = emotion
	}
	return result
}

func metadataString(metadata map[string]interface{}, key string) string {
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}

func metadataBool(metadata map[string]interface{}, key string) bool {
	if v, ok := metadata[key].(bool); ok {
		return v
	}
	return false
}

func metadataFloat(metadata map[string]interface{}, key string) float64 {
	switch v := metadata[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func metadataTime(metadata map[string]interface{}, key string) time.Time {
	raw := metadataString(metadata, key)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func metadataStrings(metadata map[string]interface{}, key string) []string {
	switch v := metadata[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
