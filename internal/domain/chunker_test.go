package domain_test

import (
	"strings"
	"testing"

	"site-search/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestChunker_Chunk(t *testing.T) {
	chunker := domain.NewChunker(domain.DefaultChunkerConfig())

	longPara := strings.Repeat("Some sentence about the topic. ", 3) // > 50 runes

	t.Run("Generates header chunk from description", func(t *testing.T) {
		article := domain.Article{
			ID:          "a1",
			Title:       "My Article",
			URL:         "/posts/my-article",
			Description: "  A short summary.  ",
			RawContent:  longPara,
		}
		chunks := chunker.Chunk(article)

		assert.GreaterOrEqual(t, len(chunks), 2)
		assert.Equal(t, "a1-chunk-header", chunks[0].ChunkID)
		assert.Equal(t, "a1-chunk-header", chunks[0].ChunkHTMLID)
		assert.Equal(t, "My Article\n\nA short summary.", chunks[0].ChunkText)
		assert.Equal(t, "My Article", chunks[0].ArticleTitle)
		assert.Equal(t, "/posts/my-article", chunks[0].ArticleURL)
	})

	t.Run("Skips header chunk when description is empty", func(t *testing.T) {
		article := domain.Article{ID: "a2", Title: "T", RawContent: longPara}
		chunks := chunker.Chunk(article)

		assert.Len(t, chunks, 1)
		assert.Equal(t, "a2-chunk-0", chunks[0].ChunkID)
	})

	t.Run("Splits at headings", func(t *testing.T) {
		content := longPara + "\n\n## Second Section\n\n" + longPara + "\n\n## Third Section\n\n" + longPara
		article := domain.Article{ID: "a3", RawContent: content}
		chunks := chunker.Chunk(article)

		assert.Len(t, chunks, 3)
		assert.Equal(t, "a3-chunk-0", chunks[0].ChunkID)
		assert.Equal(t, "a3-chunk-1", chunks[1].ChunkID)
		assert.Equal(t, "a3-chunk-2", chunks[2].ChunkID)
		assert.True(t, strings.HasPrefix(chunks[1].ChunkText, "## Second Section"))
		assert.True(t, strings.HasPrefix(chunks[2].ChunkText, "## Third Section"))
	})

	t.Run("Keeps preamble before first heading", func(t *testing.T) {
		content := "Intro paragraph before any heading, long enough to stand alone as a chunk.\n\n# Top\n\n" + longPara
		article := domain.Article{ID: "a4", RawContent: content}
		chunks := chunker.Chunk(article)

		assert.Len(t, chunks, 2)
		assert.True(t, strings.HasPrefix(chunks[0].ChunkText, "Intro paragraph"))
	})

	t.Run("Ignores headings deeper than the split level", func(t *testing.T) {
		content := longPara + "\n\n### Deep Heading\n\n" + longPara
		article := domain.Article{ID: "a5", RawContent: content}
		chunks := chunker.Chunk(article)

		assert.Len(t, chunks, 1)
		assert.Contains(t, chunks[0].ChunkText, "### Deep Heading")
	})

	t.Run("Merges short segments with the next one", func(t *testing.T) {
		content := "## Tiny\n\nshort\n\n## Next\n\n" + longPara
		article := domain.Article{ID: "a6", RawContent: content}
		chunks := chunker.Chunk(article)

		assert.Len(t, chunks, 1)
		assert.Contains(t, chunks[0].ChunkText, "## Tiny")
		assert.Contains(t, chunks[0].ChunkText, "## Next")
	})

	t.Run("Folds a short trailing segment into the previous chunk", func(t *testing.T) {
		content := longPara + "\n\n## End\n\nbye"
		article := domain.Article{ID: "a7", RawContent: content}
		chunks := chunker.Chunk(article)

		assert.Len(t, chunks, 1)
		assert.Contains(t, chunks[0].ChunkText, "## End")
	})

	t.Run("No headings produces a single chunk", func(t *testing.T) {
		article := domain.Article{ID: "a8", RawContent: longPara}
		chunks := chunker.Chunk(article)

		assert.Len(t, chunks, 1)
		assert.Equal(t, strings.TrimSpace(longPara), chunks[0].ChunkText)
	})

	t.Run("Empty article produces no chunks", func(t *testing.T) {
		chunks := chunker.Chunk(domain.Article{ID: "a9"})
		assert.Empty(t, chunks)
	})

	t.Run("Chunk ids are deterministic", func(t *testing.T) {
		article := domain.Article{ID: "a10", Description: "d", RawContent: longPara + "\n\n## Two\n\n" + longPara}
		first := chunker.Chunk(article)
		second := chunker.Chunk(article)

		assert.Equal(t, first, second)
	})
}
