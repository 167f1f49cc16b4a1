package repository

import (
	"context"
	"errors"
	"fmt"

	"site-search/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// contentRepository serves raw article text keyed by (lang, slug).
type contentRepository struct {
	pool *pgxpool.Pool
}

// NewContentRepository creates a ContentStore backed by the article_content table.
func NewContentRepository(pool *pgxpool.Pool) domain.ContentStore {
	return &contentRepository{pool: pool}
}

func (r *contentRepository) GetContent(ctx context.Context, lang, slug string) (string, error) {
	query := `
		SELECT body
		FROM article_content
		WHERE lang = $1 AND slug = $2
	`
	var body string
	err := r.pool.QueryRow(ctx, query, lang, slug).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: %s/%s", domain.ErrContentNotFound, lang, slug)
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch content %s/%s: %w", lang, slug, err)
	}
	return body, nil
}
