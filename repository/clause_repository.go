package repository

import (
	"context"
	"fmt"
	"strings"

	"clausewise-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EmbeddingDimensions is fixed by the embedding model (gemini-embedding-001
// with 768-dim output). Every record in one store instance must use the same
// model; the store cannot detect mixing.
const EmbeddingDimensions = 768

// ClauseRepository handles database operations for indexed clauses.
// Inserts are append-only; no update or delete path is exposed.
type ClauseRepository struct {
	db *pgxpool.Pool
}

// NewClauseRepository creates a new clause repository
func NewClauseRepository(db *pgxpool.Pool) *ClauseRepository {
	return &ClauseRepository{db: db}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Insert stores a single clause record
func (r *ClauseRepository) Insert(ctx context.Context, record *models.ClauseRecord) error {
	if len(record.Embedding) != EmbeddingDimensions {
		return fmt.Errorf("embedding must be %d dimensions, got %d", EmbeddingDimensions, len(record.Embedding))
	}

	query := `
		INSERT INTO clauses (clause_text, embedding, metadata)
		VALUES ($1, $2::vector, $3)
		RETURNING id`

	err := r.db.QueryRow(
		ctx, query,
		record.Text,
		formatVector(record.Embedding),
		record.Metadata,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to insert clause: %w", err)
	}

	return nil
}

// InsertBatch stores multiple clause records in one transaction
func (r *ClauseRepository) InsertBatch(ctx context.Context, records []*models.ClauseRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO clauses (clause_text, embedding, metadata)
		VALUES ($1, $2::vector, $3)
		RETURNING id`

	for _, record := range records {
		if len(record.Embedding) != EmbeddingDimensions {
			return fmt.Errorf("embedding must be %d dimensions, got %d", EmbeddingDimensions, len(record.Embedding))
		}
		err := tx.QueryRow(
			ctx, query,
			record.Text,
			formatVector(record.Embedding),
			record.Metadata,
		).Scan(&record.ID)
		if err != nil {
			return fmt.Errorf("failed to insert clause: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Search performs a nearest-neighbor search by cosine similarity, ordered by
// descending similarity. Ties are broken arbitrarily by store order.
func (r *ClauseRepository) Search(
	ctx context.Context,
	embedding []float64,
	limit int,
) ([]models.ClauseRecord, error) {
	if len(embedding) != EmbeddingDimensions {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", EmbeddingDimensions, len(embedding))
	}

	vectorStr := formatVector(embedding)

	query := `
		SELECT
			id,
			clause_text,
			metadata,
			1 - (embedding <=> $1::vector) AS similarity
		FROM clauses
		ORDER BY embedding <=> $1::vector
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, vectorStr, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query clauses: %w", err)
	}
	defer rows.Close()

	var records []models.ClauseRecord
	for rows.Next() {
		var record models.ClauseRecord
		err := rows.Scan(
			&record.ID,
			&record.Text,
			&record.Metadata,
			&record.Similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clause: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clauses: %w", err)
	}

	return records, nil
}

// Count returns the number of indexed clauses
func (r *ClauseRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM clauses").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count clauses: %w", err)
	}
	return count, nil
}
