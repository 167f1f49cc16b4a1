package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"site-search/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

var identifierPattern = regexp.MustCompile(`[^a-z0-9_]`)

// pgVectorIndex implements domain.VectorIndex on a pgvector table. Each
// language index maps to its own table named after the index, e.g.
// "semantic-search-en" -> semantic_search_en.
type pgVectorIndex struct {
	pool  *pgxpool.Pool
	name  string
	table string
}

// NewPgVectorIndex creates a vector index bound to one table.
func NewPgVectorIndex(pool *pgxpool.Pool, name string) domain.VectorIndex {
	return &pgVectorIndex{
		pool:  pool,
		name:  name,
		table: tableNameFor(name),
	}
}

func tableNameFor(indexName string) string {
	return identifierPattern.ReplaceAllString(strings.ToLower(indexName), "_")
}

func (r *pgVectorIndex) Name() string {
	return r.name
}

// Upsert writes records by id so that re-indexing overwrites instead of
// duplicating.
func (r *pgVectorIndex) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	sql := fmt.Sprintf(`
		INSERT INTO %s (id, article_title, article_url, lang, slug, chunk_html_id, chunk_text_preview, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			article_title = EXCLUDED.article_title,
			article_url = EXCLUDED.article_url,
			lang = EXCLUDED.lang,
			slug = EXCLUDED.slug,
			chunk_html_id = EXCLUDED.chunk_html_id,
			chunk_text_preview = EXCLUDED.chunk_text_preview,
			embedding = EXCLUDED.embedding
	`, pgx.Identifier{r.table}.Sanitize())

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(sql,
			rec.ID,
			rec.Metadata.ArticleTitle,
			rec.Metadata.ArticleURL,
			rec.Metadata.Lang,
			rec.Metadata.Slug,
			rec.Metadata.ChunkHTMLID,
			rec.Metadata.ChunkTextPreview,
			pgvector.NewVector(rec.Embedding),
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert vector into %s: %w", r.table, err)
		}
	}
	return nil
}

// Query returns the topK nearest neighbours by cosine similarity, highest first.
func (r *pgVectorIndex) Query(ctx context.Context, vector []float32, topK int) ([]domain.VectorMatch, error) {
	sql := fmt.Sprintf(`
		SELECT id, article_title, article_url, lang, slug, chunk_html_id, chunk_text_preview,
		       1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgx.Identifier{r.table}.Sanitize())

	rows, err := r.pool.Query(ctx, sql, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table, err)
	}
	defer rows.Close()

	var matches []domain.VectorMatch
	for rows.Next() {
		var m domain.VectorMatch
		if err := rows.Scan(
			&m.ID,
			&m.Metadata.ArticleTitle,
			&m.Metadata.ArticleURL,
			&m.Metadata.Lang,
			&m.Metadata.Slug,
			&m.Metadata.ChunkHTMLID,
			&m.Metadata.ChunkTextPreview,
			&m.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return matches, nil
}
