package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/serene-ai/serene-backend/internal/config"
	"github.com/serene-ai/serene-backend/internal/models"
	"github.com/serene-ai/serene-backend/internal/search"
	"github.com/serene-ai/serene-backend/internal/services"
	"github.com/serene-ai/serene-backend/internal/vector"
)

type stubSessionRepo struct {
	byChatID map[string]*models.ConversationSession
}

func (r *stubSessionRepo) GetByChatID(ctx context.Context, chatID string) (*models.ConversationSession, error) {
	return r.byChatID[chatID], nil
}

func (r *stubSessionRepo) Upsert(ctx context.Context, session *models.ConversationSession) error {
	copied := *session
	r.byChatID[session.ChatID] = &copied
	return nil
}

func (r *stubSessionRepo) ListByUser(ctx context.Context, userIdentity string) ([]*models.ConversationSession, error) {
	return nil, nil
}

type stubEventSource struct{}

func (stubEventSource) FetchAll(ctx context.Context, chatID string) ([]models.EmotionEvent, error) {
	return nil, nil
}

type stubSummaryEngine struct{}

func (stubSummaryEngine) Summarize(ctx context.Context, chatID, userIdentity string, events []models.EmotionEvent, emo *models.EmotionSummary, durationSeconds int64) (*models.ConversationSummary, error) {
	return &models.ConversationSummary{ChatID: chatID, UserIdentity: userIdentity}, nil
}

type stubIndexer struct{}

func (stubIndexer) Index(ctx context.Context, summary *models.ConversationSummary) {}

type stubVectorStore struct {
	matches []vector.QueryMatch
}

func (s *stubVectorStore) Upsert(ctx context.Context, namespace string, vectors []vector.Vector) error {
	return nil
}

func (s *stubVectorStore) Query(ctx context.Context, namespace string, vec []float32, topK int, filter map[string]interface{}, includeMetadata bool) ([]vector.QueryMatch, error) {
	return s.matches, nil
}

func (s *stubVectorStore) DeleteByFilter(ctx context.Context, namespace string, filter map[string]interface{}) error {
	return nil
}

type stubEmbeddingClient struct{}

func (stubEmbeddingClient) CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	return openai.EmbeddingResponse{
		Data: []openai.Embedding{{Embedding: make([]float32, 4)}},
	}, nil
}

func newTestApp(store vector.Store) (*fiber.App, *stubSessionRepo) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	sessions := &stubSessionRepo{byChatID: make(map[string]*models.ConversationSession)}

	embedder := vector.NewEmbedderWithClient(stubEmbeddingClient{}, "text-embedding-3-small", 4, 100)
	svc := &services.Services{
		Sessions:  sessions,
		Finalizer: services.NewFinalizer(sessions, stubEventSource{}, stubSummaryEngine{}, stubIndexer{}, logger),
		Search:    search.NewEngine(store, embedder, config.OpenAIConfig{}, "test", logger),
		Logger:    logger,
	}

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/webhooks/session-end", SessionEnd(svc))
	api.Get("/search", Search(svc))
	api.Get("/search/owner/:id", SearchUserConversations(svc))

	return app, sessions
}

func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestSessionEnd_Success(t *testing.T) {
	app, sessions := newTestApp(&stubVectorStore{})

	payload := `{"user_identity":"user-1","chat_id":"chat-1234567890","timestamp":1700000000}`
	req := httptest.NewRequest("POST", "/api/v1/webhooks/session-end", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "ended", body["status"])
	assert.NotNil(t, sessions.byChatID["chat-1234567890"])
}

func TestSessionEnd_ValidationErrors(t *testing.T) {
	app, _ := newTestApp(&stubVectorStore{})

	payloads := []string{
		`{"user_identity":"user-1","timestamp":1700000000}`,
		`{"user_identity":"user-1","chat_id":"unknown","timestamp":1700000000}`,
		`{"user_identity":"user-1","chat_id":"short","timestamp":1700000000}`,
		`{"user_identity":"user-1","chat_id":"chat-1234567890"}`,
	}

	for _, payload := range payloads {
		req := httptest.NewRequest("POST", "/api/v1/webhooks/session-end", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "payload: %s", payload)
	}
}

func TestSessionEnd_MalformedBody(t *testing.T) {
	app, _ := newTestApp(&stubVectorStore{})

	req := httptest.NewRequest("POST", "/api/v1/webhooks/session-end", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSearch_RequiresQuery(t *testing.T) {
	app, _ := newTestApp(&stubVectorStore{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/search", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSearch_LimitBounds(t *testing.T) {
	app, _ := newTestApp(&stubVectorStore{})

	for _, limit := range []string{"0", "21", "-3"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/search?q=gardening&limit="+limit, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "limit: %s", limit)
	}
}

func TestSearch_ReturnsResults(t *testing.T) {
	store := &stubVectorStore{matches: []vector.QueryMatch{
		{ID: "m1", Score: 0.9, Metadata: map[string]interface{}{
			"type":          vector.MetadataType,
			"chat_id":       "chat-1234567890",
			"user_identity": "user-1",
			"summary":       "Talked about gardening.",
		}},
	}}
	app, _ := newTestApp(store)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/search?q=gardening+tips&owner=user-1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, float64(1), body["count"])
	results, ok := body["results"].([]interface{})
	require.True(t, ok)
	require.Len(t, results, 1)
}

func TestSearchUserConversations_BrowseMode(t *testing.T) {
	store := &stubVectorStore{matches: []vector.QueryMatch{
		{ID: "m1", Score: 0, Metadata: map[string]interface{}{
			"chat_id":       "chat-1234567890",
			"user_identity": "user-1",
			"summary":       "A talk.",
			"created_at":    "2026-07-20T10:00:00Z",
		}},
	}}
	app, _ := newTestApp(store)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/search/owner/user-1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, float64(1), body["count"])
}

func TestSearchUserConversations_LimitBounds(t *testing.T) {
	app, _ := newTestApp(&stubVectorStore{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/search/owner/user-1?limit=51", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
