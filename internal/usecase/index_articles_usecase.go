package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"site-search/internal/domain"

	"golang.org/x/time/rate"
)

// IndexConfig holds the batch indexing parameters.
type IndexConfig struct {
	// BatchSize is the embedding request size.
	BatchSize int
	// EmbeddingDimension is the expected vector dimensionality.
	EmbeddingDimension int
	// PreviewLength bounds the metadata text preview, in runes.
	PreviewLength int
}

// DefaultIndexConfig returns the production indexing parameters.
func DefaultIndexConfig() IndexConfig {
	return IndexConfig{
		BatchSize:          50,
		EmbeddingDimension: 768,
		PreviewLength:      150,
	}
}

// IndexStats summarizes one indexing run.
type IndexStats struct {
	Indexed int
	Skipped int
}

// IndexArticlesUsecase embeds chunk batches and upserts them into the
// language-bound vector index.
type IndexArticlesUsecase interface {
	Execute(ctx context.Context, lang string, chunks []domain.Chunk) (IndexStats, error)
}

type indexArticlesUsecase struct {
	encoder domain.VectorEncoder
	indexes map[string]domain.VectorIndex
	limiter *rate.Limiter
	cfg     IndexConfig
	logger  *slog.Logger
}

// NewIndexArticlesUsecase wires the batch indexer. limiter paces embedding
// calls between batches and may be nil to disable pacing.
func NewIndexArticlesUsecase(
	encoder domain.VectorEncoder,
	indexes map[string]domain.VectorIndex,
	limiter *rate.Limiter,
	cfg IndexConfig,
	logger *slog.Logger,
) IndexArticlesUsecase {
	return &indexArticlesUsecase{
		encoder: encoder,
		indexes: indexes,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
	}
}

func (u *indexArticlesUsecase) Execute(ctx context.Context, lang string, chunks []domain.Chunk) (IndexStats, error) {
	var stats IndexStats

	index, ok := u.indexes[lang]
	if !ok {
		return stats, fmt.Errorf("%w: %q", domain.ErrNoIndexForLanguage, lang)
	}

	for start := 0; start < len(chunks); start += u.cfg.BatchSize {
		end := start + u.cfg.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if u.limiter != nil {
			if err := u.limiter.Wait(ctx); err != nil {
				return stats, fmt.Errorf("rate limit wait interrupted: %w", err)
			}
		}

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.ChunkText
		}

		embeddings, err := u.encoder.Encode(ctx, texts)
		if err != nil {
			return stats, fmt.Errorf("failed to embed batch starting at %d: %w", start, err)
		}
		if len(embeddings) != len(batch) {
			return stats, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(batch), len(embeddings))
		}

		records := make([]domain.VectorRecord, 0, len(batch))
		for i, c := range batch {
			if len(embeddings[i]) != u.cfg.EmbeddingDimension {
				return stats, fmt.Errorf("unexpected embedding dimension %d, want %d", len(embeddings[i]), u.cfg.EmbeddingDimension)
			}

			// A malformed unit is logged and skipped; it never aborts the batch.
			if c.ArticleURL == "" || c.ChunkHTMLID == "" {
				u.logger.Warn("chunk_skipped_missing_fields",
					slog.String("chunk_id", c.ChunkID),
					slog.String("article_title", c.ArticleTitle))
				stats.Skipped++
				continue
			}

			records = append(records, domain.VectorRecord{
				ID:        domain.VectorID(c.ChunkID),
				Embedding: embeddings[i],
				Metadata: domain.VectorMetadata{
					ArticleTitle:     c.ArticleTitle,
					ArticleURL:       c.ArticleURL,
					Lang:             lang,
					Slug:             slugFromURL(c.ArticleURL),
					ChunkHTMLID:      c.ChunkHTMLID,
					ChunkTextPreview: truncateRunes(c.ChunkText, u.cfg.PreviewLength),
				},
			})
		}

		if len(records) == 0 {
			continue
		}
		if err := index.Upsert(ctx, records); err != nil {
			return stats, fmt.Errorf("failed to upsert batch into %s: %w", index.Name(), err)
		}
		stats.Indexed += len(records)

		u.logger.Info("index_batch_completed",
			slog.String("index", index.Name()),
			slog.Int("batch_start", start),
			slog.Int("record_count", len(records)))
	}

	return stats, nil
}

// slugFromURL extracts the last path segment of an article URL.
func slugFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	p := strings.TrimSuffix(u.Path, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
