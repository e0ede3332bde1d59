package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/serene-ai/serene-backend/internal/emotion"
	"github.com/serene-ai/serene-backend/internal/models"
	"github.com/serene-ai/serene-backend/internal/repository"
)

// chatIDPlaceholder is what some webhook callers send before a real chat ID
// is assigned; it must never create a session
const chatIDPlaceholder = "unknown"

const minChatIDLength = 10

// EventSource fetches the emotion events for one conversation
type EventSource interface {
	FetchAll(ctx context.Context, chatID string) ([]models.EmotionEvent, error)
}

// SummaryEngine produces and persists the summary for a finalized session
type SummaryEngine interface {
	Summarize(ctx context.Context, chatID, userIdentity string, events []models.EmotionEvent, emo *models.EmotionSummary, durationSeconds int64) (*models.ConversationSummary, error)
}

// SummaryIndexer writes a summary into the vector index, best-effort
type SummaryIndexer interface {
	Index(ctx context.Context, summary *models.ConversationSummary)
}

// FinalizeRequest is the payload of the session-end webhook
type FinalizeRequest struct {
	UserIdentity string                 `json:"user_identity"`
	ChatID       string                 `json:"chat_id"`
	Timestamp    int64                  `json:"timestamp"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Finalizer owns the conversation-session state machine. Finalize ends a
// session and drives the downstream pipeline: event aggregation, summary
// generation, vector indexing. Only the session write itself can fail the
// call; everything after the state transition is best-effort.
type Finalizer struct {
	sessions   repository.SessionRepository
	events     EventSource
	summarizer SummaryEngine
	indexer    SummaryIndexer
	logger     *logrus.Logger
}

// NewFinalizer creates the session finalizer
func NewFinalizer(sessions repository.SessionRepository, events EventSource, summarizer SummaryEngine, indexer SummaryIndexer, logger *logrus.Logger) *Finalizer {
	return &Finalizer{
		sessions:   sessions,
		events:     events,
		summarizer: summarizer,
		indexer:    indexer,
		logger:     logger,
	}
}

// Finalize ends the session for a chat. A session that was never explicitly
// started is created implicitly, so webhook delivery does not depend on a
// prior start call. Calling finalize twice with the same chat and timestamp
// converges on the same session row.
func (f *Finalizer) Finalize(ctx context.Context, req FinalizeRequest) (*models.ConversationSession, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	endedAt := time.Unix(req.Timestamp, 0).UTC()

	session, err := f.sessions.GetByChatID(ctx, req.ChatID)
	if err != nil {
		return nil, &models.PersistenceFailure{Op: "session lookup", Err: err}
	}
	if session == nil {
		session = &models.ConversationSession{
			ChatID:       req.ChatID,
			UserIdentity: req.UserIdentity,
			Status:       models.SessionStatusActive,
			StartedAt:    endedAt,
		}
	}

	duration := req.Timestamp - session.StartedAt.Unix()
	if duration < 0 {
		duration = 0
	}

	session.Status = models.SessionStatusEnded
	session.EndedAt = &endedAt
	session.DurationSeconds = duration
	session.Metadata = mergeMetadata(session.Metadata, req.Metadata)

	if err := f.sessions.Upsert(ctx, session); err != nil {
		return nil, &models.PersistenceFailure{Op: "session finalize", Err: err}
	}

	f.runPipeline(ctx, session)

	return session, nil
}

// runPipeline executes the post-transition side effects sequentially. None
// of them may change the outcome of the finalize call.
func (f *Finalizer) runPipeline(ctx context.Context, session *models.ConversationSession) {
	log := f.logger.WithFields(logrus.Fields{
		"chat_id":       session.ChatID,
		"user_identity": session.UserIdentity,
	})

	var events []models.EmotionEvent
	var emoSummary *models.EmotionSummary

	fetched, err := f.events.FetchAll(ctx, session.ChatID)
	switch {
	case errors.Is(err, models.ErrDependencyUnavailable):
		log.Info("emotion provider not configured, proceeding without emotion context")
	case err != nil:
		log.WithError(err).Warn("emotion event fetch failed")
	default:
		events = fetched
		emoSummary = emotion.Aggregate(events)
		f.attachEmotionPayload(ctx, session, events, log)
	}

	summary, err := f.summarizer.Summarize(ctx, session.ChatID, session.UserIdentity, events, emoSummary, session.DurationSeconds)
	if err != nil {
		log.WithError(err).Warn("summarization failed")
		return
	}

	f.indexer.Index(ctx, summary)
}

// attachEmotionPayload embeds the raw event payload on the session row,
// best-effort
func (f *Finalizer) attachEmotionPayload(ctx context.Context, session *models.ConversationSession, events []models.EmotionEvent, log *logrus.Entry) {
	payload, err := json.Marshal(events)
	if err != nil {
		return
	}
	session.EmotionPayload = payload
	if err := f.sessions.Upsert(ctx, session); err != nil {
		log.WithError(err).Warn("failed to store raw emotion payload")
	}
}

func validate(req FinalizeRequest) error {
	switch {
	case req.ChatID == "":
		return models.NewValidationError("chat_id", "is required")
	case req.ChatID == chatIDPlaceholder:
		return models.NewValidationError("chat_id", "placeholder value is not a chat id")
	case len(req.ChatID) < minChatIDLength:
		return models.NewValidationError("chat_id", "must be at least 10 characters")
	case req.Timestamp <= 0:
		return models.NewValidationError("timestamp", "must be a positive epoch timestamp")
	}
	return nil
}

// mergeMetadata shallow-merges incoming keys over the existing metadata;
// incoming keys win
func mergeMetadata(existing []byte, incoming map[string]interface{}) []byte {
	if len(incoming) == 0 {
		if len(existing) == 0 {
			return []byte("{}")
		}
		return existing
	}

	merged := make(map[string]interface{})
	if len(existing) > 0 {
		// A corrupt existing blob is replaced rather than propagated
		_ = json.Unmarshal(existing, &merged)
	}
	for k, v := range incoming {
		merged[k] = v
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return existing
	}
	return data
}
