package vector

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/serene-ai/serene-backend/internal/models"
)

type fakeEmbeddingClient struct {
	dimension int
	err       error
	lastReq   openai.EmbeddingRequest
}

func (f *fakeEmbeddingClient) CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	if req, ok := conv.(openai.EmbeddingRequest); ok {
		f.lastReq = req
	}
	if f.err != nil {
		return openai.EmbeddingResponse{}, f.err
	}
	return openai.EmbeddingResponse{
		Data: []openai.Embedding{
			{Embedding: make([]float32, f.dimension)},
		},
	}, nil
}

func TestEmbed_RejectsEmptyInput(t *testing.T) {
	embedder := NewEmbedderWithClient(&fakeEmbeddingClient{dimension: 4}, "text-embedding-3-small", 4, 100)

	_, err := embedder.Embed(context.Background(), "   \n\t ")
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
}

func TestEmbed_UnavailableWithoutClient(t *testing.T) {
	embedder := NewEmbedderWithClient(nil, "text-embedding-3-small", 4, 100)

	_, err := embedder.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, models.ErrDependencyUnavailable)
}

func TestEmbed_RequestsConfiguredDimension(t *testing.T) {
	client := &fakeEmbeddingClient{dimension: 4}
	embedder := NewEmbedderWithClient(client, "text-embedding-3-small", 4, 100)

	embedding, err := embedder.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Len(t, embedding, 4)

	assert.Equal(t, 4, client.lastReq.Dimensions)
	assert.Equal(t, openai.EmbeddingModel("text-embedding-3-small"), client.lastReq.Model)
	input, ok := client.lastReq.Input.([]string)
	require.True(t, ok)
	require.Len(t, input, 1)
	assert.Equal(t, "hello world", input[0])
}

func TestEmbed_TruncatesLongInput(t *testing.T) {
	client := &fakeEmbeddingClient{dimension: 4}
	embedder := NewEmbedderWithClient(client, "text-embedding-3-small", 4, 10)

	_, err := embedder.Embed(context.Background(), strings.Repeat("x", 50))
	require.NoError(t, err)
	input, ok := client.lastReq.Input.([]string)
	require.True(t, ok)
	require.Len(t, input, 1)
	assert.Equal(t, strings.Repeat("x", 10), input[0])
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	client := &fakeEmbeddingClient{dimension: 3}
	embedder := NewEmbedderWithClient(client, "text-embedding-3-small", 4, 100)

	_, err := embedder.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestEmbed_ClientErrorWrapped(t *testing.T) {
	client := &fakeEmbeddingClient{err: errors.New("quota exceeded")}
	embedder := NewEmbedderWithClient(client, "text-embedding-3-small", 4, 100)

	_, err := embedder.Embed(context.Background(), "hello")
	require.Error(t, err)

	var df *models.DependencyFailure
	assert.ErrorAs(t, err, &df)
	assert.Equal(t, "openai-embeddings", df.Service)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "abc", Truncate("abc", 0))

	// Runes, not bytes: multibyte characters are never split
	assert.Equal(t, "héllo", Truncate("héllo world", 5))
	assert.Len(t, []rune(Truncate(strings.Repeat("é", 20), 7)), 7)
}
