package vector

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/serene-ai/serene-backend/internal/config"
	"github.com/serene-ai/serene-backend/internal/models"
)

// EmbeddingClient is the slice of the OpenAI client the embedder needs
type EmbeddingClient interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Embedder turns summary/query text into fixed-dimension vectors. The
// requested dimension is pinned in configuration, distinct from the model's
// native output size, so the vector store's dimension stays constant across
// model upgrades.
type Embedder struct {
	client    EmbeddingClient
	model     string
	dimension int
	maxChars  int
}

// NewEmbedder creates an embedder backed by the OpenAI embeddings API
func NewEmbedder(cfg config.OpenAIConfig) *Embedder {
	var client EmbeddingClient
	if cfg.APIKey != "" {
		client = openai.NewClient(cfg.APIKey)
	}

	return NewEmbedderWithClient(client, cfg.EmbeddingModel, cfg.EmbeddingDimension, cfg.MaxEmbedChars)
}

// NewEmbedderWithClient creates an embedder over an explicit client
func NewEmbedderWithClient(client EmbeddingClient, model string, dimension, maxChars int) *Embedder {
	return &Embedder{
		client:    client,
		model:     model,
		dimension: dimension,
		maxChars:  maxChars,
	}
}

// Dimension returns the configured embedding dimension
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed generates an embedding for text. Empty input is rejected with a
// validation error before any request is made; long input is truncated to
// the configured maximum so the upstream model's limit is respected.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("text", "embedding input must not be empty")
	}
	if e.client == nil {
		return nil, fmt.Errorf("embedding: %w", models.ErrDependencyUnavailable)
	}

	text = Truncate(text, e.maxChars)

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dimension,
	})
	if err != nil {
		return nil, &models.DependencyFailure{Service: "openai-embeddings", Err: err}
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}

	embedding := resp.Data[0].Embedding
	if len(embedding) != e.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(embedding), e.dimension)
	}

	return embedding, nil
}

// Truncate limits text to max characters, counted in runes
func Truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
