package service

import (
	"context"
	"errors"
	"fmt"

	"clausewise-backend/models"
)

var ErrIndexingFailed = errors.New("failed to index clause")

// Embedder produces normalized embedding vectors for text
type Embedder interface {
	Embed(ctx context.Context, text, taskType string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float64, error)
}

// ClauseStore persists and searches embedded clauses
type ClauseStore interface {
	Insert(ctx context.Context, record *models.ClauseRecord) error
	InsertBatch(ctx context.Context, records []*models.ClauseRecord) error
	Search(ctx context.Context, embedding []float64, limit int) ([]models.ClauseRecord, error)
}

// IndexService pairs the embedding client with the clause store so callers
// index by text and search by query without touching vectors directly
type IndexService struct {
	embedder Embedder
	store    ClauseStore
}

// IndexServiceOption is a functional option for IndexService
type IndexServiceOption func(*IndexService)

// IndexWithEmbedder sets the embedding client
func IndexWithEmbedder(e Embedder) IndexServiceOption {
	return func(s *IndexService) {
		s.embedder = e
	}
}

// IndexWithStore sets the clause store
func IndexWithStore(store ClauseStore) IndexServiceOption {
	return func(s *IndexService) {
		s.store = store
	}
}

// NewIndexService creates a new index service
func NewIndexService(opts ...IndexServiceOption) *IndexService {
	s := &IndexService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IndexClause embeds a single clause and stores it with its metadata
func (s *IndexService) IndexClause(ctx context.Context, text string, metadata models.ClauseMetadata) (*models.ClauseRecord, error) {
	if s.embedder == nil {
		return nil, errors.New("embedder not set")
	}
	if s.store == nil {
		return nil, errors.New("clause store not set")
	}

	embedding, err := s.embedder.Embed(ctx, text, TaskTypeDocument)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexingFailed, err)
	}

	record := &models.ClauseRecord{
		Text:      text,
		Embedding: embedding,
		Metadata:  metadata,
	}
	if err := s.store.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexingFailed, err)
	}

	return record, nil
}

// IndexClauses embeds and stores a batch of clauses in one transaction.
// Records come back in input order with their assigned ids.
func (s *IndexService) IndexClauses(ctx context.Context, texts []string, metadata []models.ClauseMetadata) ([]*models.ClauseRecord, error) {
	if s.embedder == nil {
		return nil, errors.New("embedder not set")
	}
	if s.store == nil {
		return nil, errors.New("clause store not set")
	}
	if len(texts) != len(metadata) {
		return nil, fmt.Errorf("got %d texts but %d metadata entries", len(texts), len(metadata))
	}
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts, TaskTypeDocument)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexingFailed, err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("mismatch: got %d embeddings for %d texts", len(embeddings), len(texts))
	}

	records := make([]*models.ClauseRecord, len(texts))
	for i := range texts {
		records[i] = &models.ClauseRecord{
			Text:      texts[i],
			Embedding: embeddings[i],
			Metadata:  metadata[i],
		}
	}

	if err := s.store.InsertBatch(ctx, records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexingFailed, err)
	}

	return records, nil
}

// SearchSimilar embeds the query and returns the k nearest stored clauses
func (s *IndexService) SearchSimilar(ctx context.Context, query string, k int) ([]models.ClauseRecord, error) {
	if s.embedder == nil {
		return nil, errors.New("embedder not set")
	}
	if s.store == nil {
		return nil, errors.New("clause store not set")
	}

	embedding, err := s.embedder.Embed(ctx, query, TaskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return s.store.Search(ctx, embedding, k)
}
