package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// PgFullTextIndex implements SparseIndex against a PostgreSQL ts_vector GIN
// index on chunk content.
type PgFullTextIndex struct {
	pool *pgxpool.Pool
}

// NewPgFullTextIndex creates a PgFullTextIndex.
func NewPgFullTextIndex(pool *pgxpool.Pool) *PgFullTextIndex {
	return &PgFullTextIndex{pool: pool}
}

var _ SparseIndex = (*PgFullTextIndex)(nil)

// Search finds chunks matching queryText via ts_rank_cd over a GIN index,
// optionally constrained by doc_type/year/chapter.
func (idx *PgFullTextIndex) Search(ctx context.Context, queryText string, topK int, filters Filters) ([]ProviderResult, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT c.id, c.parent_doc_id, c.content, c.doc_type, c.section_path,
		       c.language, c.year, c.chapter, c.section_number,
		       ts_rank_cd(c.content_tsv, plainto_tsquery('english', $1)) AS rank
		FROM chunks c
		WHERE c.content_tsv @@ plainto_tsquery('english', $1)`)

	args := []any{queryText}
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
	query.WriteString(fmt.Sprintf(" ORDER BY rank DESC LIMIT $%d", argN))
	args = append(args, topK)

	rows, err := idx.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("retrieval.PgFullTextIndex.Search: %w", err)
	}
	defer rows.Close()

	var results []ProviderResult
	for rows.Next() {
		var c model.Chunk
		var rank float64
		if err := rows.Scan(
			&c.ID, &c.ParentDocID, &c.Content, &c.DocType, &c.SectionPath,
			&c.Language, &c.Year, &c.Chapter, &c.SectionNumber, &rank,
		); err != nil {
			return nil, fmt.Errorf("retrieval.PgFullTextIndex.Search: scan: %w", err)
		}
		results = append(results, ProviderResult{Chunk: c, Score: rank, Rank: len(results)})
	}

	slog.Info("[RETRIEVAL-SPARSE] search complete", "results_count", len(results), "top_k", topK)
	return results, nil
}
