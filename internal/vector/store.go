package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/serene-ai/serene-backend/internal/config"
)

// Vector is one record in the index
type Vector struct {
	ID       string                 `json:"id"`
	Values   []float32              `json:"values"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// QueryMatch is one similarity-search hit
type QueryMatch struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Store is the namespaced vector index the pipeline writes to and the search
// engine reads from
type Store interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]interface{}, includeMetadata bool) ([]QueryMatch, error)
	DeleteByFilter(ctx context.Context, namespace string, filter map[string]interface{}) error
}

// HTTPStore talks to a Pinecone-style vector database over its JSON API
type HTTPStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPStore creates a vector-store client
func NewHTTPStore(cfg config.VectorStoreConfig) *HTTPStore {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPStore{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Upsert writes vectors into a namespace
func (s *HTTPStore) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	payload := map[string]interface{}{
		"namespace": namespace,
		"vectors":   vectors,
	}

	var resp struct {
		UpsertedCount int `json:"upsertedCount"`
	}
	if err := s.post(ctx, "/vectors/upsert", payload, &resp); err != nil {
		return fmt.Errorf("vector upsert failed: %w", err)
	}

	return nil
}

// Query runs a similarity search within a namespace. Filter keys match
// metadata fields; values may be scalars or Mongo-style operator objects
// such as {"$ne": "neutral"} or {"$in": [...]}.
func (s *HTTPStore) Query(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]interface{}, includeMetadata bool) ([]QueryMatch, error) {
	payload := map[string]interface{}{
		"namespace":       namespace,
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": includeMetadata,
	}
	if len(filter) > 0 {
		payload["filter"] = filter
	}

	var resp struct {
		Matches []QueryMatch `json:"matches"`
	}
	if err := s.post(ctx, "/query", payload, &resp); err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	return resp.Matches, nil
}

// DeleteByFilter removes all vectors in a namespace matching a metadata
// filter
func (s *HTTPStore) DeleteByFilter(ctx context.Context, namespace string, filter map[string]interface{}) error {
	payload := map[string]interface{}{
		"namespace": namespace,
		"filter":    filter,
	}

	if err := s.post(ctx, "/vectors/delete", payload, nil); err != nil {
		return fmt.Errorf("vector delete failed: %w", err)
	}

	return nil
}

func (s *HTTPStore) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Api-Key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
