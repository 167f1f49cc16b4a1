package di

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"site-search/internal/adapter/aiclient"
	"site-search/internal/adapter/keyworddata"
	"site-search/internal/adapter/repository"
	"site-search/internal/domain"
	"site-search/internal/infra/config"
	"site-search/internal/infra/httpclient"
	"site-search/internal/usecase"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	// Adapters
	Indexes      map[string]domain.VectorIndex
	ContentStore domain.ContentStore
	Embedder     *aiclient.Embedder

	// Usecases
	SemanticUsecase usecase.SemanticSearchUsecase
	KeywordUsecase  usecase.KeywordSearchUsecase
	HybridUsecase   usecase.HybridSearchUsecase
	ChunkUsecase    usecase.ChunkArticlesUsecase
	IndexUsecase    usecase.IndexArticlesUsecase
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	// One vector index per configured language.
	indexes := make(map[string]domain.VectorIndex, len(cfg.Search.Languages))
	for _, lang := range cfg.Search.Languages {
		name := cfg.Search.IndexBaseName + "-" + lang
		indexes[lang] = repository.NewPgVectorIndex(pool, name)
	}
	contentStore := repository.NewContentRepository(pool)

	// Shared HTTP clients with connection pooling
	aiHTTP := httpclient.NewPooledClient(time.Duration(cfg.AI.Timeout) * time.Second)
	keywordHTTP := httpclient.NewPooledClient(time.Duration(cfg.Keyword.Timeout) * time.Second)

	embedder := aiclient.NewEmbedder(cfg.AI.BaseURL, cfg.AI.EmbeddingModel, cfg.AI.APIToken,
		time.Duration(cfg.AI.Timeout)*time.Second, log, aiHTTP)

	// Rerank path is gated per language pair; an empty policy disables it
	// without touching the rest of the pipeline.
	var (
		reranker domain.Reranker
		policy   domain.RerankPolicy
	)
	if cfg.Rerank.Enabled {
		reranker = aiclient.NewRerankerClient(cfg.AI.BaseURL, cfg.AI.RerankModel, cfg.AI.APIToken,
			time.Duration(cfg.AI.Timeout)*time.Second, log, aiHTTP)
		policy = domain.NewRerankPolicy(cfg.Search.DefaultLang)
		log.Info("reranker_enabled",
			slog.String("model", cfg.AI.RerankModel),
			slog.String("default_lang", cfg.Search.DefaultLang))
	} else {
		policy = domain.RerankPolicy{}
	}

	semanticCfg := usecase.SemanticSearchConfig{
		TopK:                    cfg.Search.TopK,
		FinalN:                  cfg.Search.FinalN,
		VectorScoreThreshold:    float32(cfg.Search.VectorScoreThreshold),
		RerankScoreThreshold:    float32(cfg.Search.RerankScoreThreshold),
		MaxContextLength:        cfg.Search.MaxContextLength,
		ContentFetchConcurrency: cfg.Search.ContentFetchConcurrency,
		RerankTimeout:           time.Duration(cfg.Rerank.Timeout) * time.Second,
		DefaultLang:             cfg.Search.DefaultLang,
		AggregatePerArticle:     cfg.Search.AggregatePerArticle,
	}
	semanticUsecase := usecase.NewSemanticSearchUsecase(
		embedder, indexes, contentStore, reranker, policy, semanticCfg, log,
	)

	fetcher, err := keyworddata.NewFetcher(cfg.Keyword.DataURL, keywordHTTP, log)
	if err != nil {
		return nil, err
	}
	keywordUsecase := usecase.NewKeywordSearchUsecase(fetcher, domain.NewKeywordMatcher(), log)

	norm := domain.LinkNormalizer{BasePath: cfg.Keyword.BasePath}
	hybridUsecase := usecase.NewHybridSearchUsecase(
		keywordUsecase, semanticUsecase, norm,
		time.Duration(cfg.Search.SourceTimeout)*time.Second, log,
	)

	chunkUsecase := usecase.NewChunkArticlesUsecase(domain.NewChunker(domain.DefaultChunkerConfig()), log)

	indexCfg := usecase.IndexConfig{
		BatchSize:          50,
		EmbeddingDimension: cfg.AI.EmbeddingDimension,
		PreviewLength:      150,
	}
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)
	indexUsecase := usecase.NewIndexArticlesUsecase(embedder, indexes, limiter, indexCfg, log)

	return &ApplicationComponents{
		Indexes:         indexes,
		ContentStore:    contentStore,
		Embedder:        embedder,
		SemanticUsecase: semanticUsecase,
		KeywordUsecase:  keywordUsecase,
		HybridUsecase:   hybridUsecase,
		ChunkUsecase:    chunkUsecase,
		IndexUsecase:    indexUsecase,
	}, nil
}
