package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"site-search/internal/domain"
)

// KeywordSearchUsecase runs multi-term substring matching against the locally
// cached document index.
type KeywordSearchUsecase interface {
	Execute(ctx context.Context, query string) ([]domain.KeywordResult, error)
}

type keywordSearchUsecase struct {
	source  domain.KeywordDocumentSource
	matcher *domain.KeywordMatcher
	logger  *slog.Logger
}

// NewKeywordSearchUsecase wires the keyword matcher to its document source.
func NewKeywordSearchUsecase(
	source domain.KeywordDocumentSource,
	matcher *domain.KeywordMatcher,
	logger *slog.Logger,
) KeywordSearchUsecase {
	return &keywordSearchUsecase{
		source:  source,
		matcher: matcher,
		logger:  logger,
	}
}

func (u *keywordSearchUsecase) Execute(ctx context.Context, query string) ([]domain.KeywordResult, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, nil
	}

	start := time.Now()
	docs, err := u.source.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load keyword documents: %w", err)
	}

	results := u.matcher.Search(terms, docs)

	u.logger.Info("keyword_search_completed",
		slog.Int("term_count", len(terms)),
		slog.Int("document_count", len(docs)),
		slog.Int("result_count", len(results)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return results, nil
}
