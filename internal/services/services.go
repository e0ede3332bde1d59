package services

import (
	"github.com/sirupsen/logrus"
	"github.com/serene-ai/serene-backend/internal/config"
	"github.com/serene-ai/serene-backend/internal/emotion"
	"github.com/serene-ai/serene-backend/internal/repository"
	"github.com/serene-ai/serene-backend/internal/search"
	"github.com/serene-ai/serene-backend/internal/summarizer"
	"github.com/serene-ai/serene-backend/internal/vector"
)

// Services is the dependency-injected container handed to the HTTP layer.
// Every component is constructed once at process start; there are no ambient
// singletons.
type Services struct {
	Sessions  repository.SessionRepository
	Summaries repository.SummaryRepository
	Finalizer *Finalizer
	Search    *search.Engine
	Logger    *logrus.Logger
}

// NewServices wires the pipeline: emotion client, summarizer, vector
// indexer, retrieval engine and session finalizer
func NewServices(cfg *config.Config, sessions repository.SessionRepository, summaries repository.SummaryRepository) *Services {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	emotionClient := emotion.NewClient(cfg.EmotionAPI)
	summaryEngine := summarizer.NewEngine(cfg.OpenAI, summaries, logger)

	store := vector.NewHTTPStore(cfg.VectorStore)
	embedder := vector.NewEmbedder(cfg.OpenAI)
	indexer := vector.NewIndexer(store, embedder, cfg.VectorStore.Namespace, logger)

	searchEngine := search.NewEngine(store, embedder, cfg.OpenAI, cfg.VectorStore.Namespace, logger)

	finalizer := NewFinalizer(sessions, emotionClient, summaryEngine, indexer, logger)

	return &Services{
		Sessions:  sessions,
		Summaries: summaries,
		Finalizer: finalizer,
		Search:    searchEngine,
		Logger:    logger,
	}
}
