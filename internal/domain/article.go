package domain

// Article is a single page produced by the static site generator.
// Immutable once built; consumed by the chunker and the keyword matcher.
type Article struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Lang        string `json:"lang"`
	RawContent  string `json:"rawContent"`
	Description string `json:"description,omitempty"`
}

// Chunk is one retrieval unit cut out of an article.
// ChunkID is derived deterministically from the article id and the chunk's
// position, so re-chunking unchanged content yields identical ids.
type Chunk struct {
	ChunkID      string `json:"chunk_id"`
	ArticleTitle string `json:"article_title"`
	ArticleURL   string `json:"article_url"`
	ChunkText    string `json:"chunk_text"`
	ChunkHTMLID  string `json:"chunk_html_id"`
}
