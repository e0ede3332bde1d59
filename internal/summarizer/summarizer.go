package summarizer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/serene-ai/serene-backend/internal/config"
	"github.com/serene-ai/serene-backend/internal/models"
	"github.com/serene-ai/serene-backend/internal/repository"
)

// chatCompleter is the slice of the OpenAI client the engine needs
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Engine produces one ConversationSummary per finalized session. Model
// failures and malformed output are recovered locally with a deterministic
// fallback; only the summary upsert can fail the call.
type Engine struct {
	client    chatCompleter
	model     string
	summaries repository.SummaryRepository
	logger    *logrus.Logger
}

// NewEngine creates a summarization engine. With no API key configured the
// engine always takes the fallback path.
func NewEngine(cfg config.OpenAIConfig, summaries repository.SummaryRepository, logger *logrus.Logger) *Engine {
	var client chatCompleter
	if cfg.APIKey != "" {
		client = openai.NewClient(cfg.APIKey)
	}

	return &Engine{
		client:    client,
		model:     cfg.SummaryModel,
		summaries: summaries,
		logger:    logger,
	}
}

// summaryPayload is the strict schema expected from the model. Anything that
// does not decode into it, or decodes with an empty summary, is a parse
// failure and triggers the fallback.
type summaryPayload struct {
	Summary         string   `json:"summary"`
	KeyTopics       []string `json:"key_topics"`
	EmotionalTone   string   `json:"emotional_tone"`
	HasPersonalInfo bool     `json:"has_personal_info"`
	RelevanceScore  float64  `json:"relevance_score"`
}

// generation is the tagged outcome of one summarization attempt
type generation struct {
	payload summaryPayload
	source  string
	model   string
	tokens  int
}

// Summarize builds a summary for a finalized session and upserts it keyed on
// chat_id. The emotion summary may be nil when the emotion provider is
// unavailable.
func (e *Engine) Summarize(ctx context.Context, chatID, userIdentity string, events []models.EmotionEvent, emo *models.EmotionSummary, durationSeconds int64) (*models.ConversationSummary, error) {
	userMessages := ExtractUserMessages(events)

	gen := e.generate(ctx, chatID, userMessages, emo)

	summary := &models.ConversationSummary{
		ChatID:           chatID,
		UserIdentity:     userIdentity,
		SummaryText:      gen.payload.Summary,
		Source:           gen.source,
		ModelUsed:        gen.model,
		TokenCount:       gen.tokens,
		EventCount:       len(events),
		UserMessageCount: len(userMessages),
		DurationSeconds:  durationSeconds,
		KeyTopics:        gen.payload.KeyTopics,
		EmotionalTone:    gen.payload.EmotionalTone,
		HasPersonalInfo:  gen.payload.HasPersonalInfo,
		RelevanceScore:   gen.payload.RelevanceScore,
	}

	summary.KeyTopicsRaw = marshalOrEmptyArray(gen.payload.KeyTopics)
	if emo != nil {
		summary.EmotionEventCount = len(emo.Timeline)
		summary.DominantEmotions = marshalOrEmptyArray(emo.DominantEmotions)
	}

	// Preserve the original record id and created_at across re-finalization
	if existing, err := e.summaries.GetByChatID(ctx, chatID); err == nil && existing != nil {
		summary.ID = existing.ID
		summary.CreatedAt = existing.CreatedAt
	}

	if err := e.summaries.Upsert(ctx, summary); err != nil {
		return nil, &models.PersistenceFailure{Op: "summary upsert", Err: err}
	}

	return summary, nil
}

func (e *Engine) generate(ctx context.Context, chatID string, userMessages []string, emo *models.EmotionSummary) generation {
	if e.client != nil && len(userMessages) > 0 {
		gen, err := e.callModel(ctx, userMessages, emo)
		if err == nil {
			return gen
		}
		e.logger.WithFields(logrus.Fields{
			"chat_id": chatID,
			"error":   err.Error(),
		}).Warn("summary generation failed, using fallback")
	}

	return e.fallback(userMessages, emo)
}

func (e *Engine) callModel(ctx context.Context, userMessages []string, emo *models.EmotionSummary) (generation, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(userMessages, emo)},
		},
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return generation{}, &models.DependencyFailure{Service: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return generation{}, fmt.Errorf("model returned no choices")
	}

	payload, err := parsePayload(resp.Choices[0].Message.Content)
	if err != nil {
		return generation{}, err
	}

	return generation{
		payload: payload,
		source:  models.SummarySourceGenerated,
		model:   resp.Model,
		tokens:  resp.Usage.TotalTokens,
	}, nil
}

func (e *Engine) fallback(userMessages []string, emo *models.EmotionSummary) generation {
	payload := summaryPayload{
		Summary:        FallbackText(len(userMessages), emo.TopEmotionNames(3)),
		EmotionalTone:  "neutral",
		RelevanceScore: 0.5,
	}
	if emo != nil && len(emo.DominantEmotions) > 0 {
		payload.EmotionalTone = emo.DominantEmotions[0].Name
	}

	return generation{payload: payload, source: models.SummarySourceFallback}
}

func parsePayload(content string) (summaryPayload, error) {
	var payload summaryPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return summaryPayload{}, fmt.Errorf("unparseable model response: %w", err)
	}
	if payload.Summary == "" {
		return summaryPayload{}, fmt.Errorf("model response missing summary field")
	}
	if payload.RelevanceScore < 0 || payload.RelevanceScore > 1 {
		payload.RelevanceScore = 0.5
	}
	return payload, nil
}

func marshalOrEmptyArray(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return []byte("[]")
	}
	return data
}
