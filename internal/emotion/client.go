package emotion

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/serene-ai/serene-backend/internal/config"
	"github.com/serene-ai/serene-backend/internal/models"
)

const maxPageSize = 100

// Client fetches emotion events for a conversation from the voice-analysis
// API, one page at a time in ascending time order.
type Client struct {
	http     *resty.Client
	apiKey   string
	pageSize int
}

// NewClient creates an emotion-event API client. A missing API key is not an
// error here; FetchAll reports the dependency as unavailable instead.
func NewClient(cfg config.EmotionAPIConfig) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(30 * time.Second).
		SetHeader("X-Api-Key", cfg.APIKey)

	return &Client{
		http:     http,
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
	}
}

// Available reports whether credentials are configured
func (c *Client) Available() bool {
	return c.apiKey != ""
}

type eventsPage struct {
	Events     []models.EmotionEvent `json:"events_page"`
	TotalPages int                   `json:"total_pages"`
	PageNumber int                   `json:"page_number"`
}

// FetchAll pages through all emotion events for a chat and concatenates the
// pages in order. The total page count reported by the first page is
// authoritative; if the provider changes it mid-fetch we stop at the
// originally reported count.
func (c *Client) FetchAll(ctx context.Context, chatID string) ([]models.EmotionEvent, error) {
	if !c.Available() {
		return nil, models.ErrDependencyUnavailable
	}

	var events []models.EmotionEvent
	totalPages := 1

	for page := 0; page < totalPages; page++ {
		p, err := c.fetchPage(ctx, chatID, page)
		if err != nil {
			return nil, &models.DependencyFailure{Service: "emotion-api", Err: err}
		}

		if page == 0 && p.TotalPages > 0 {
			totalPages = p.TotalPages
		}

		events = append(events, p.Events...)

		// A short page means the provider has nothing more for us
		if len(p.Events) < c.pageSize {
			break
		}
	}

	return events, nil
}

func (c *Client) fetchPage(ctx context.Context, chatID string, page int) (*eventsPage, error) {
	var result eventsPage

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("chatID", chatID).
		SetQueryParams(map[string]string{
			"page_number":     fmt.Sprintf("%d", page),
			"page_size":       fmt.Sprintf("%d", c.pageSize),
			"ascending_order": "true",
		}).
		SetResult(&result).
		Get("/chats/{chatID}/events")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("emotion API returned status %d: %s", resp.StatusCode(), resp.String())
	}

	return &result, nil
}
