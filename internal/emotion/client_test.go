package emotion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/serene-ai/serene-backend/internal/config"
	"github.com/serene-ai/serene-backend/internal/models"
)

func newTestClient(url string, pageSize int) *Client {
	return NewClient(config.EmotionAPIConfig{
		APIKey:   "test-key",
		BaseURL:  url,
		PageSize: pageSize,
	})
}

// resty only unmarshals the result when the response declares a JSON
// content type
func writeEventsPage(t *testing.T, w http.ResponseWriter, page eventsPage) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(page); err != nil {
		t.Fatalf("encode events page: %v", err)
	}
}

func TestFetchAll_Unavailable(t *testing.T) {
	client := NewClient(config.EmotionAPIConfig{BaseURL: "http://localhost:1"})

	assert.False(t, client.Available())

	_, err := client.FetchAll(context.Background(), "chat-1234567890")
	assert.ErrorIs(t, err, models.ErrDependencyUnavailable)
}

func TestFetchAll_SinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chats/chat-1234567890/events", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("page_number"))
		assert.Equal(t, "2", r.URL.Query().Get("page_size"))
		assert.Equal(t, "true", r.URL.Query().Get("ascending_order"))
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		writeEventsPage(t, w, eventsPage{
			Events:     []models.EmotionEvent{{ID: "e1", Timestamp: 1}},
			TotalPages: 1,
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)

	events, err := client.FetchAll(context.Background(), "chat-1234567890")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
}

func TestFetchAll_ConcatenatesPagesInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page_number")
		switch page {
		case "0":
			writeEventsPage(t, w, eventsPage{
				Events:     []models.EmotionEvent{{ID: "e1"}, {ID: "e2"}},
				TotalPages: 3,
			})
		case "1":
			writeEventsPage(t, w, eventsPage{
				Events:     []models.EmotionEvent{{ID: "e3"}, {ID: "e4"}},
				TotalPages: 3,
			})
		case "2":
			writeEventsPage(t, w, eventsPage{
				Events:     []models.EmotionEvent{{ID: "e5"}},
				TotalPages: 3,
			})
		default:
			t.Errorf("unexpected page request %s", page)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)

	events, err := client.FetchAll(context.Background(), "chat-1234567890")
	require.NoError(t, err)

	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	assert.Equal(t, []string{"e1", "e2", "e3", "e4", "e5"}, ids)
}

func TestFetchAll_TotalPagesFromFirstPageWins(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		page := r.URL.Query().Get("page_number")
		// Later pages claim more pages exist; the first page's count holds
		totalPages := 2
		if page != "0" {
			totalPages = 50
		}
		writeEventsPage(t, w, eventsPage{
			Events:     []models.EmotionEvent{{ID: "ev-" + page}, {ID: "ev2-" + page}},
			TotalPages: totalPages,
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)

	events, err := client.FetchAll(context.Background(), "chat-1234567890")
	require.NoError(t, err)
	assert.Len(t, events, 4)
	assert.Equal(t, 2, requests)
}

func TestFetchAll_ShortPageEndsFetch(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeEventsPage(t, w, eventsPage{
			Events:     []models.EmotionEvent{{ID: "only"}},
			TotalPages: 10,
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)

	events, err := client.FetchAll(context.Background(), "chat-1234567890")
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 1, requests)
}

func TestFetchAll_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)

	_, err := client.FetchAll(context.Background(), "chat-1234567890")
	require.Error(t, err)

	var df *models.DependencyFailure
	assert.ErrorAs(t, err, &df)
	assert.Equal(t, "emotion-api", df.Service)
}

func TestNewClient_ClampsPageSize(t *testing.T) {
	client := NewClient(config.EmotionAPIConfig{APIKey: "k", PageSize: 500})
	assert.Equal(t, maxPageSize, client.pageSize)

	client = NewClient(config.EmotionAPIConfig{APIKey: "k", PageSize: 0})
	assert.Equal(t, maxPageSize, client.pageSize)
}
