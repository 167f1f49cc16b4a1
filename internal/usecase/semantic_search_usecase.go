package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"site-search/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SemanticSearchConfig holds the retrieval pipeline parameters.
type SemanticSearchConfig struct {
	// TopK is the nearest-neighbour fan-in from the vector index.
	TopK int
	// FinalN bounds the returned result count.
	FinalN int
	// VectorScoreThreshold filters raw similarity scores on the non-rerank path.
	VectorScoreThreshold float32
	// RerankScoreThreshold filters cross-encoder scores; calibrated differently
	// from raw similarity, so it is a separate constant.
	RerankScoreThreshold float32
	// MaxContextLength truncates each rerank context, in runes.
	MaxContextLength int
	// ContentFetchConcurrency bounds the per-candidate content store fan-out.
	ContentFetchConcurrency int
	// RerankTimeout bounds the cross-encoder call.
	RerankTimeout time.Duration
	// DefaultLang is the fallback for query language detection.
	DefaultLang string
	// AggregatePerArticle keeps only the best-scoring chunk per article so one
	// article cannot monopolize the result list.
	AggregatePerArticle bool
}

// DefaultSemanticSearchConfig returns the production pipeline parameters.
func DefaultSemanticSearchConfig() SemanticSearchConfig {
	return SemanticSearchConfig{
		TopK:                    20,
		FinalN:                  10,
		VectorScoreThreshold:    0.46,
		RerankScoreThreshold:    0.1,
		MaxContextLength:        2000,
		ContentFetchConcurrency: 4,
		RerankTimeout:           15 * time.Second,
		DefaultLang:             "en",
		AggregatePerArticle:     false,
	}
}

// SemanticSearchUsecase runs the embed, retrieve, rerank-or-threshold, format
// pipeline for one query.
type SemanticSearchUsecase interface {
	Execute(ctx context.Context, query, targetLang string) ([]domain.SemanticResult, error)
}

type semanticSearchUsecase struct {
	encoder  domain.VectorEncoder
	indexes  map[string]domain.VectorIndex
	store    domain.ContentStore
	reranker domain.Reranker
	policy   domain.RerankPolicy
	cfg      SemanticSearchConfig
	logger   *slog.Logger
}

// NewSemanticSearchUsecase wires the retrieval pipeline. indexes maps a
// language code to its vector index. store and reranker may be nil when the
// rerank path is disabled by policy.
func NewSemanticSearchUsecase(
	encoder domain.VectorEncoder,
	indexes map[string]domain.VectorIndex,
	store domain.ContentStore,
	reranker domain.Reranker,
	policy domain.RerankPolicy,
	cfg SemanticSearchConfig,
	logger *slog.Logger,
) SemanticSearchUsecase {
	return &semanticSearchUsecase{
		encoder:  encoder,
		indexes:  indexes,
		store:    store,
		reranker: reranker,
		policy:   policy,
		cfg:      cfg,
		logger:   logger,
	}
}

// candidate is the transient per-query retrieval unit.
type candidate struct {
	score   float32
	id      string
	lang    string
	slug    string
	title   string
	url     string
	anchor  string
	preview string
}

func (u *semanticSearchUsecase) Execute(ctx context.Context, query, targetLang string) ([]domain.SemanticResult, error) {
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	requestID := uuid.NewString()
	start := time.Now()

	// Stage 1: query embedding.
	embeddings, err := u.encoder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) != 1 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("embedding service returned %d vectors for 1 input", len(embeddings))
	}

	// Stage 2: nearest-neighbour retrieval from the language-bound index.
	index, ok := u.indexes[targetLang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrNoIndexForLanguage, targetLang)
	}

	matches, err := index.Query(ctx, embeddings[0], u.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector index %s: %w", index.Name(), err)
	}

	candidates := make([]candidate, 0, len(matches))
	for _, m := range matches {
		if m.Metadata.Lang == "" || m.Metadata.Slug == "" {
			continue
		}
		anchor := ""
		if m.Metadata.ChunkHTMLID != "" {
			anchor = m.Metadata.ArticleURL + "#" + m.Metadata.ChunkHTMLID
		}
		candidates = append(candidates, candidate{
			score:   m.Score,
			id:      m.ID,
			lang:    m.Metadata.Lang,
			slug:    m.Metadata.Slug,
			title:   m.Metadata.ArticleTitle,
			url:     m.Metadata.ArticleURL,
			anchor:  anchor,
			preview: m.Metadata.ChunkTextPreview,
		})
	}

	// Backends state descending similarity; re-sort defensively.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if u.cfg.AggregatePerArticle {
		candidates = bestPerArticle(candidates)
	}

	u.logger.Info("vector_retrieval_completed",
		slog.String("request_id", requestID),
		slog.String("index", index.Name()),
		slog.Int("candidate_count", len(candidates)))

	// Stage 3: rerank or threshold.
	queryLang := domain.DetectQueryLang(query, u.cfg.DefaultLang)
	useReranker := u.reranker != nil && u.store != nil && u.policy.Allows(queryLang, targetLang)

	if useReranker {
		candidates, err = u.rerank(ctx, requestID, query, candidates)
		if err != nil {
			return nil, err
		}
	} else {
		candidates = thresholdCandidates(candidates, u.cfg.VectorScoreThreshold)
	}

	// Stage 4: truncate and project to the public schema.
	if len(candidates) > u.cfg.FinalN {
		candidates = candidates[:u.cfg.FinalN]
	}

	results := make([]domain.SemanticResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, domain.SemanticResult{
			Title:      c.title,
			URL:        c.url,
			AnchorLink: c.anchor,
			Lang:       c.lang,
			Score:      c.score,
			Preview:    c.preview,
		})
	}

	u.logger.Info("semantic_search_completed",
		slog.String("request_id", requestID),
		slog.Bool("reranked", useReranker),
		slog.Int("result_count", len(results)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return results, nil
}

// rerank fetches candidate contents with a bounded fan-out, scores them with
// the cross-encoder, and re-sorts and filters by the rerank threshold.
// Candidates whose content cannot be fetched are skipped, not fatal.
func (u *semanticSearchUsecase) rerank(ctx context.Context, requestID, query string, candidates []candidate) ([]candidate, error) {
	contents := make([]string, len(candidates))
	ok := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.cfg.ContentFetchConcurrency)
	for i, c := range candidates {
		g.Go(func() error {
			text, err := u.store.GetContent(gctx, c.lang, c.slug)
			if err != nil {
				u.logger.Warn("content_fetch_skipped",
					slog.String("request_id", requestID),
					slog.String("lang", c.lang),
					slog.String("slug", c.slug),
					slog.String("error", err.Error()))
				return nil
			}
			contents[i] = text
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch candidate contents: %w", err)
	}

	fetched := make([]candidate, 0, len(candidates))
	rerankInput := make([]domain.RerankCandidate, 0, len(candidates))
	for i, c := range candidates {
		if !ok[i] || contents[i] == "" {
			continue
		}
		fetched = append(fetched, c)
		rerankInput = append(rerankInput, domain.RerankCandidate{
			ID:      c.id,
			Content: truncateRunes(contents[i], u.cfg.MaxContextLength),
		})
	}
	if len(fetched) == 0 {
		u.logger.Info("rerank_skipped_no_content", slog.String("request_id", requestID))
		return nil, nil
	}

	rerankCtx, cancel := context.WithTimeout(ctx, u.cfg.RerankTimeout)
	defer cancel()
	scored, err := u.reranker.Rerank(rerankCtx, query, rerankInput)
	if err != nil {
		return nil, fmt.Errorf("failed to rerank candidates: %w", err)
	}

	scores := make(map[string]float32, len(scored))
	for _, s := range scored {
		scores[s.ID] = s.Score
	}
	if len(scores) != len(rerankInput) {
		u.logger.Warn("rerank_score_count_mismatch",
			slog.String("request_id", requestID),
			slog.Int("sent", len(rerankInput)),
			slog.Int("scored", len(scores)))
	}

	// Missing scores default to 0; they fall below the threshold naturally.
	for i := range fetched {
		fetched[i].score = scores[fetched[i].id]
	}

	sort.SliceStable(fetched, func(i, j int) bool {
		return fetched[i].score > fetched[j].score
	})
	return thresholdCandidates(fetched, u.cfg.RerankScoreThreshold), nil
}

// thresholdCandidates keeps candidates scoring at or above cutoff, preserving order.
func thresholdCandidates(candidates []candidate, cutoff float32) []candidate {
	kept := candidates[:0]
	for _, c := range candidates {
		if c.score >= cutoff {
			kept = append(kept, c)
		}
	}
	return kept
}

// bestPerArticle keeps the highest-scoring candidate per article URL.
// Input must already be sorted descending by score.
func bestPerArticle(candidates []candidate) []candidate {
	seen := make(map[string]bool, len(candidates))
	kept := candidates[:0]
	for _, c := range candidates {
		if seen[c.url] {
			continue
		}
		seen[c.url] = true
		kept = append(kept, c)
	}
	return kept
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
