package usecase

import (
	"log/slog"

	"site-search/internal/domain"
)

// ChunkArticlesUsecase turns a language's article collection into the chunk
// artifact consumed by the indexing stage.
type ChunkArticlesUsecase interface {
	Execute(articles []domain.Article) []domain.Chunk
}

type chunkArticlesUsecase struct {
	chunker domain.Chunker
	logger  *slog.Logger
}

// NewChunkArticlesUsecase wires the chunker.
func NewChunkArticlesUsecase(chunker domain.Chunker, logger *slog.Logger) ChunkArticlesUsecase {
	return &chunkArticlesUsecase{chunker: chunker, logger: logger}
}

func (u *chunkArticlesUsecase) Execute(articles []domain.Article) []domain.Chunk {
	var chunks []domain.Chunk
	for _, article := range articles {
		pageChunks := u.chunker.Chunk(article)
		u.logger.Debug("article_chunked",
			slog.String("article_id", article.ID),
			slog.Int("chunk_count", len(pageChunks)))
		chunks = append(chunks, pageChunks...)
	}
	u.logger.Info("chunking_completed",
		slog.Int("article_count", len(articles)),
		slog.Int("chunk_count", len(chunks)))
	return chunks
}
