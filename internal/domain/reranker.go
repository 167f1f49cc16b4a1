package domain

import (
	"context"
	"unicode"
)

// RerankCandidate is one document sent to the cross-encoder.
type RerankCandidate struct {
	// ID maps results back to the originating retrieval candidate.
	ID string
	// Content is the text scored against the query, already truncated by the
	// caller to bound payload size.
	Content string
}

// RerankResult carries a cross-encoder relevance score for a candidate.
type RerankResult struct {
	ID    string
	Score float32
}

// Reranker scores retrieval candidates against the query with a cross-encoder
// model for higher precision than vector similarity alone.
type Reranker interface {
	// Rerank returns one score per candidate. Scores associate by candidate ID;
	// missing candidates default to 0 at the caller.
	Rerank(ctx context.Context, query string, candidates []RerankCandidate) ([]RerankResult, error)

	// ModelName returns the model identifier for logging.
	ModelName() string
}

// LangPair identifies a (query language, target language) combination.
type LangPair struct {
	Query  string
	Target string
}

// RerankPolicy decides per language pair whether the rerank path is taken
// instead of raw similarity thresholding.
type RerankPolicy map[LangPair]bool

// NewRerankPolicy returns the default policy: rerank only when both the
// detected query language and the target language are the default language.
func NewRerankPolicy(defaultLang string) RerankPolicy {
	return RerankPolicy{{Query: defaultLang, Target: defaultLang}: true}
}

// Allows reports whether reranking applies to the given language pair.
func (p RerankPolicy) Allows(queryLang, targetLang string) bool {
	return p[LangPair{Query: queryLang, Target: targetLang}]
}

// DetectQueryLang is a cheap script heuristic: any Han rune marks the query as
// Chinese, anything else falls back to the default language.
func DetectQueryLang(query, defaultLang string) string {
	for _, r := range query {
		if unicode.Is(unicode.Han, r) {
			return "zh"
		}
	}
	return defaultLang
}
