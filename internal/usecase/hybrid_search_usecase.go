package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"site-search/internal/domain"
)

// HybridSearchOutput is the merged result list plus per-source error reports.
// A failed source contributes an empty set and its error message; it never
// blocks the other source.
type HybridSearchOutput struct {
	Results       []domain.MergedResult `json:"results"`
	KeywordError  string                `json:"keyword_error,omitempty"`
	SemanticError string                `json:"semantic_error,omitempty"`
}

// HybridSearchUsecase runs the keyword and semantic pipelines concurrently and
// merges their outputs once both complete.
type HybridSearchUsecase interface {
	Execute(ctx context.Context, query, targetLang string) (*HybridSearchOutput, error)
}

type hybridSearchUsecase struct {
	keyword       KeywordSearchUsecase
	semantic      SemanticSearchUsecase
	norm          domain.LinkNormalizer
	sourceTimeout time.Duration
	logger        *slog.Logger
}

// NewHybridSearchUsecase wires the two search pipelines and the merger.
// sourceTimeout bounds each pipeline independently.
func NewHybridSearchUsecase(
	keyword KeywordSearchUsecase,
	semantic SemanticSearchUsecase,
	norm domain.LinkNormalizer,
	sourceTimeout time.Duration,
	logger *slog.Logger,
) HybridSearchUsecase {
	return &hybridSearchUsecase{
		keyword:       keyword,
		semantic:      semantic,
		norm:          norm,
		sourceTimeout: sourceTimeout,
		logger:        logger,
	}
}

func (u *hybridSearchUsecase) Execute(ctx context.Context, query, targetLang string) (*HybridSearchOutput, error) {
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	var (
		wg              sync.WaitGroup
		keywordResults  []domain.KeywordResult
		semanticResults []domain.SemanticResult
		keywordErr      error
		semanticErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		kctx, cancel := context.WithTimeout(ctx, u.sourceTimeout)
		defer cancel()
		keywordResults, keywordErr = u.keyword.Execute(kctx, query)
	}()
	go func() {
		defer wg.Done()
		sctx, cancel := context.WithTimeout(ctx, u.sourceTimeout)
		defer cancel()
		semanticResults, semanticErr = u.semantic.Execute(sctx, query, targetLang)
	}()
	wg.Wait()

	out := &HybridSearchOutput{}
	if keywordErr != nil {
		u.logger.Warn("keyword_source_failed", slog.String("error", keywordErr.Error()))
		keywordResults = nil
		out.KeywordError = keywordErr.Error()
	}
	if semanticErr != nil {
		u.logger.Warn("semantic_source_failed", slog.String("error", semanticErr.Error()))
		semanticResults = nil
		out.SemanticError = semanticErr.Error()
	}

	out.Results = domain.MergeResults(semanticResults, keywordResults, u.norm)
	return out, nil
}
