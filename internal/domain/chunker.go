package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultSplitLevel is the deepest markdown heading level that starts a new segment.
	DefaultSplitLevel = 2
	// DefaultMinChunkLength is the minimum chunk length in runes. Shorter segments
	// are merged with their neighbours.
	DefaultMinChunkLength = 50
)

// ChunkerConfig holds the tunable parameters of the heading chunker.
type ChunkerConfig struct {
	SplitLevel         int
	MinChunkLength     int
	IncludeHeaderChunk bool
}

// DefaultChunkerConfig returns the production chunking parameters.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		SplitLevel:         DefaultSplitLevel,
		MinChunkLength:     DefaultMinChunkLength,
		IncludeHeaderChunk: true,
	}
}

// Chunker splits one article into retrieval-sized chunks.
type Chunker interface {
	Chunk(article Article) []Chunk
}

type headingChunker struct {
	cfg        ChunkerConfig
	headingPat *regexp.Regexp
}

// NewChunker creates a heading-based chunker. Content is sliced at markdown
// headings of level 1..SplitLevel, then consecutive slices are greedily merged
// until each chunk reaches MinChunkLength.
func NewChunker(cfg ChunkerConfig) Chunker {
	if cfg.SplitLevel <= 0 {
		cfg.SplitLevel = DefaultSplitLevel
	}
	if cfg.MinChunkLength < 0 {
		cfg.MinChunkLength = DefaultMinChunkLength
	}
	pattern := fmt.Sprintf(`(?m)^[ \t]*#{1,%d}[ \t]+.*$`, cfg.SplitLevel)
	return &headingChunker{
		cfg:        cfg,
		headingPat: regexp.MustCompile(pattern),
	}
}

func (c *headingChunker) Chunk(article Article) []Chunk {
	var chunks []Chunk

	// Header chunk: title + description, always first when a description exists.
	if c.cfg.IncludeHeaderChunk && strings.TrimSpace(article.Description) != "" {
		headerID := fmt.Sprintf("%s-chunk-header", article.ID)
		chunks = append(chunks, Chunk{
			ChunkID:      headerID,
			ArticleTitle: article.Title,
			ArticleURL:   article.URL,
			ChunkText:    article.Title + "\n\n" + strings.TrimSpace(article.Description),
			ChunkHTMLID:  headerID,
		})
	}

	segments := c.sliceAtHeadings(article.RawContent)
	merged := mergeSegments(segments, c.cfg.MinChunkLength)

	for i, text := range merged {
		id := fmt.Sprintf("%s-chunk-%d", article.ID, i)
		chunks = append(chunks, Chunk{
			ChunkID:      id,
			ArticleTitle: article.Title,
			ArticleURL:   article.URL,
			ChunkText:    text,
			ChunkHTMLID:  id,
		})
	}

	return chunks
}

// sliceAtHeadings cuts content at every heading start offset. Offset 0 is an
// implicit boundary, so any preamble before the first heading stays a segment.
func (c *headingChunker) sliceAtHeadings(content string) []string {
	if content == "" {
		return nil
	}

	boundaries := []int{0}
	for _, loc := range c.headingPat.FindAllStringIndex(content, -1) {
		if loc[0] > 0 {
			boundaries = append(boundaries, loc[0])
		}
	}

	var segments []string
	for i, start := range boundaries {
		end := len(content)
		if i+1 < len(boundaries) {
			end = boundaries[i+1]
		}
		if trimmed := strings.TrimSpace(content[start:end]); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return segments
}

// mergeSegments greedily merges consecutive segments left to right. The running
// buffer is flushed once it already holds at least minLength runes; a short
// trailing buffer folds into the previous chunk instead of becoming an
// undersized chunk of its own.
func mergeSegments(segments []string, minLength int) []string {
	var merged []string
	var buf string

	for _, seg := range segments {
		switch {
		case buf == "":
			buf = seg
		case utf8.RuneCountInString(buf) < minLength:
			buf = buf + "\n\n" + seg
		default:
			merged = append(merged, buf)
			buf = seg
		}
	}

	if buf != "" {
		if utf8.RuneCountInString(buf) >= minLength || len(merged) == 0 {
			merged = append(merged, buf)
		} else {
			merged[len(merged)-1] = merged[len(merged)-1] + "\n\n" + buf
		}
	}

	return merged
}
