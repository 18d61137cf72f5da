package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// PgVectorIndex implements VectorIndex against the chunks table's
// pgvector embedding column, using cosine distance (the "<=>" operator).
type PgVectorIndex struct {
	pool *pgxpool.Pool
}

// NewPgVectorIndex creates a PgVectorIndex.
func NewPgVectorIndex(pool *pgxpool.Pool) *PgVectorIndex {
	return &PgVectorIndex{pool: pool}
}

var _ VectorIndex = (*PgVectorIndex)(nil)

// Search finds the top-K chunks most similar to queryEmbedding by cosine
// similarity, optionally constrained by doc_type/year/chapter.
func (idx *PgVectorIndex) Search(ctx context.Context, queryEmbedding []float32, topK int, filters Filters) ([]ProviderResult, error) {
	embedding := pgvector.NewVector(queryEmbedding)

	query := strings.Builder{}
	query.WriteString(`
		SELECT c.id, c.parent_doc_id, c.content, c.doc_type, c.section_path,
		       c.language, c.year, c.chapter, c.section_number,
		       1 - (c.embedding <=> $1::vector) AS similarity
		FROM chunks c
		WHERE 1 = 1`)

	args := []any{embedding}
	argN := 2
	if filters.DocType != "" {
		query.WriteString(fmt.Sprintf(" AND c.doc_type = $%d", argN))
		args = append(args, string(filters.DocType))
		argN++
	}
	if filters.Year != 0 {
		query.WriteString(fmt.Sprintf(" AND c.year = $%d", argN))
		args = append(args, filters.Year)
		argN++
	}
	if filters.Chapter != "" {
		query.WriteString(fmt.Sprintf(" AND c.chapter = $%d", argN))
		args = append(args, filters.Chapter)
		argN++
	}
	query.WriteString(fmt.Sprintf(" ORDER BY c.embedding <=> $1::vector LIMIT $%d", argN))
	args = append(args, topK)

	rows, err := idx.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("retrieval.PgVectorIndex.Search: %w", err)
	}
	defer rows.Close()

	var results []ProviderResult
	for rows.Next() {
		var c model.Chunk
		var similarity float64
		if err := rows.Scan(
			&c.ID, &c.ParentDocID, &c.Content, &c.DocType, &c.SectionPath,
			&c.Language, &c.Year, &c.Chapter, &c.SectionNumber, &similarity,
		); err != nil {
			return nil, fmt.Errorf("retrieval.PgVectorIndex.Search: scan: %w", err)
		}
		results = append(results, ProviderResult{Chunk: c, Score: similarity, Rank: len(results)})
	}

	slog.Info("[RETRIEVAL-DENSE] search complete", "results_count", len(results), "top_k", topK)
	return results, nil
}
