package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/serene-ai/serene-backend/internal/config"
	"github.com/serene-ai/serene-backend/internal/models"
	"github.com/serene-ai/serene-backend/internal/vector"
)

const (
	// DefaultMinScore is the raw-similarity floor applied to scored searches
	DefaultMinScore = 0.2

	// candidateMultiplier over-fetches so post-filtering still fills topK
	candidateMultiplier = 3

	// factFetchLimit caps the summaries handed to the fact extractor
	factFetchLimit = 10
)

// chatCompleter is the slice of the OpenAI client the fact extractor needs
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Engine answers semantic and fact queries over indexed conversation
// summaries. State-free per call; nothing is mutated.
type Engine struct {
	store     vector.Store
	embedder  *vector.Embedder
	client    chatCompleter
	model     string
	namespace string
	logger    *logrus.Logger
	now       func() time.Time
}

// Request is one search invocation
type Request struct {
	Query    string
	Owner    string
	TopK     int
	MinScore float64
}

// NewEngine creates a retrieval engine over the given namespace
func NewEngine(store vector.Store, embedder *vector.Embedder, cfg config.OpenAIConfig, namespace string, logger *logrus.Logger) *Engine {
	var client chatCompleter
	if cfg.APIKey != "" {
		client = openai.NewClient(cfg.APIKey)
	}

	return &Engine{
		store:     store,
		embedder:  embedder,
		client:    client,
		model:     cfg.SummaryModel,
		namespace: namespace,
		logger:    logger,
		now:       time.Now,
	}
}

// Search classifies the query, tries the fact-extraction fast path where it
// applies, then runs a filtered similarity search ranked by the combined
// multi-factor score.
func (e *Engine) Search(ctx context.Context, req Request) ([]models.SearchResult, error) {
	queryType := ClassifyQuery(req.Query)

	if queryType == QueryTypeFactExtraction && req.Owner != "" {
		if result, found := e.extractFact(ctx, req.Query, req.Owner); found {
			return []models.SearchResult{result}, nil
		}
	}

	queryVector, err := e.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	filter := e.buildFilter(queryType, req.Owner, req.Query)

	matches, err := e.store.Query(ctx, e.namespace, queryVector, req.TopK*candidateMultiplier, filter, true)
	if err != nil {
		return nil, err
	}

	return Rank(matches, req.Query, req.MinScore, req.TopK, e.now()), nil
}

// SearchUserConversations is the browse-all mode: with no query text it
// lists the owner's conversations by recency only, with no relevance
// filtering. A non-empty query delegates to the scored search pinned to the
// owner.
func (e *Engine) SearchUserConversations(ctx context.Context, owner, query string, limit int) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) != "" {
		return e.Search(ctx, Request{
			Query:    query,
			Owner:    owner,
			TopK:     limit,
			MinScore: DefaultMinScore,
		})
	}

	matches, err := e.fetchOwnerRecords(ctx, owner, limit)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, models.SearchResult{
			ChatID:       metadataString(m.Metadata, "chat_id"),
			UserIdentity: metadataString(m.Metadata, "user_identity"),
			Summary:      metadataString(m.Metadata, "summary"),
			Score:        m.Score,
			CreatedAt:    metadataTime(m.Metadata, "created_at"),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	return results, nil
}

// buildFilter restricts the vector query to conversation summaries, the
// owner when given, and the query-type-specific metadata constraints
func (e *Engine) buildFilter(queryType QueryType, owner, query string) map[string]interface{} {
	filter := map[string]interface{}{
		"type": vector.MetadataType,
	}
	if owner != "" {
		filter["user_identity"] = owner
	}

	switch queryType {
	case QueryTypeEmotion:
		filter["dominant_emotion"] = map[string]interface{}{"$ne": "neutral"}
	case QueryTypeFactExtraction, QueryTypePersonalInfo:
		filter["has_personal_info"] = true
	case QueryTypeTopicBased:
		if token := ExtractTopicToken(query); token != "" {
			filter["topics"] = map[string]interface{}{"$in": []string{token}}
		}
	}

	return filter
}

// fetchOwnerRecords does a metadata-only fetch for an owner: a zero-vector
// query whose similarity scores are ignored
func (e *Engine) fetchOwnerRecords(ctx context.Context, owner string, limit int) ([]vector.QueryMatch, error) {
	filter := map[string]interface{}{
		"type":          vector.MetadataType,
		"user_identity": owner,
	}

	return e.store.Query(ctx, e.namespace, make([]float32, e.embedder.Dimension()), limit, filter, true)
}

const factExtractionPrompt = `You will receive numbered conversation summaries belonging to one user, followed by a question. If any summary literally states a fact answering the question, respond with JSON {"found": true, "fact": "<the stated value>"}. Only asserted facts count; a summary merely asking about the fact does not. If no summary states the fact, respond with {"found": false, "fact": ""}.`

type factPayload struct {
	Found bool   `json:"found"`
	Fact  string `json:"fact"`
}

// extractFact asks the language model to locate a literal previously-stated
// fact in the owner's summaries. Any failure falls through to the similarity
// pipeline.
func (e *Engine) extractFact(ctx context.Context, query, owner string) (models.SearchResult, bool) {
	if e.client == nil {
		return models.SearchResult{}, false
	}

	matches, err := e.fetchOwnerRecords(ctx, owner, factFetchLimit)
	if err != nil || len(matches) == 0 {
		if err != nil {
			e.logger.WithError(err).Warn("fact extraction fetch failed")
		}
		return models.SearchResult{}, false
	}

	var b strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&b, "%d. %s\n", i+1, metadataString(m.Metadata, "summary"))
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", query)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: factExtractionPrompt},
			{Role: openai.ChatMessageRoleUser, Content: b.String()},
		},
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		if err != nil {
			e.logger.WithError(err).Warn("fact extraction call failed")
		}
		return models.SearchResult{}, false
	}

	var payload factPayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return models.SearchResult{}, false
	}
	if !payload.Found || payload.Fact == "" {
		return models.SearchResult{}, false
	}

	return models.SearchResult{
		UserIdentity: owner,
		Summary:      payload.Fact,
		Score:        1.0,
		CreatedAt:    e.now(),
		Metadata: map[string]interface{}{
			"source": "fact_extraction",
		},
	}, true
}
