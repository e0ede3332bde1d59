package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/serene-ai/serene-backend/internal/models"
)

// MetadataType tags every conversation-summary vector so the search path can
// filter them out from anything else sharing the namespace
const MetadataType = "conversation_summary"

// Indexer embeds conversation summaries and upserts them into the vector
// store. Indexing is best-effort: failures are logged and swallowed so a
// broken vector store never fails a finalize call.
type Indexer struct {
	store     Store
	embedder  *Embedder
	namespace string
	logger    *logrus.Logger
	now       func() time.Time
}

// NewIndexer creates a vector indexer writing to the given namespace
func NewIndexer(store Store, embedder *Embedder, namespace string, logger *logrus.Logger) *Indexer {
	return &Indexer{
		store:     store,
		embedder:  embedder,
		namespace: namespace,
		logger:    logger,
		now:       time.Now,
	}
}

// Index embeds a summary and writes it to the vector store. Prior vectors
// for the same chat are retired first so re-finalization does not accumulate
// stale duplicates.
func (ix *Indexer) Index(ctx context.Context, summary *models.ConversationSummary) {
	log := ix.logger.WithField("chat_id", summary.ChatID)

	embedding, err := ix.embedder.Embed(ctx, FlattenSummary(summary))
	if err != nil {
		log.WithError(err).Warn("summary embedding failed, skipping indexing")
		return
	}

	deleteFilter := map[string]interface{}{
		"type":    MetadataType,
		"chat_id": summary.ChatID,
	}
	if err := ix.store.DeleteByFilter(ctx, ix.namespace, deleteFilter); err != nil {
		// Stale duplicates are preferable to losing the fresh vector
		log.WithError(err).Warn("failed to retire prior summary vectors")
	}

	vec := Vector{
		ID:       fmt.Sprintf("%s-%d", summary.ChatID, ix.now().Unix()),
		Values:   embedding,
		Metadata: BuildMetadata(summary),
	}

	if err := ix.store.Upsert(ctx, ix.namespace, []Vector{vec}); err != nil {
		log.WithError(err).Warn("summary vector upsert failed")
		return
	}

	log.Debug("summary indexed")
}

// FlattenSummary serializes a summary to the single deterministic string
// submitted for embedding
func FlattenSummary(summary *models.ConversationSummary) string {
	text := summary.SummaryText
	if len(summary.KeyTopics) > 0 {
		topics, err := json.Marshal(summary.KeyTopics)
		if err == nil {
			text = fmt.Sprintf("%s\nTopics: %s", text, topics)
		}
	}
	return text
}

// BuildMetadata assembles the vector metadata. Optional fields are omitted
// when absent, never written as null: the vector store handles null values
// inconsistently.
func BuildMetadata(summary *models.ConversationSummary) map[string]interface{} {
	dominantEmotion := "neutral"
	if summary.EmotionalTone != "" {
		dominantEmotion = summary.EmotionalTone
	}

	metadata := map[string]interface{}{
		"type":                MetadataType,
		"chat_id":             summary.ChatID,
		"user_identity":       summary.UserIdentity,
		"summary":             summary.SummaryText,
		"event_count":         summary.EventCount,
		"emotion_event_count": summary.EmotionEventCount,
		"dominant_emotion":    dominantEmotion,
		"has_personal_info":   summary.HasPersonalInfo,
		"relevance_score":     summary.RelevanceScore,
		"created_at":          summary.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":          summary.UpdatedAt.UTC().Format(time.RFC3339),
	}

	if len(summary.KeyTopics) > 0 {
		metadata["topics"] = summary.KeyTopics
	}
	if summary.DurationSeconds > 0 {
		metadata["duration_seconds"] = summary.DurationSeconds
	}
	if summary.ID != "" {
		metadata["summary_id"] = summary.ID
	}

	return metadata
}
