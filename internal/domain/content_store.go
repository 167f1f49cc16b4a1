package domain

import "context"

// ContentStore serves the full raw text of an article, keyed by language and
// slug. Backed by object storage or a database; the rerank path reads from it.
type ContentStore interface {
	// GetContent returns the raw article text. Returns ErrContentNotFound when
	// no content exists for the key.
	GetContent(ctx context.Context, lang, slug string) (string, error)
}
