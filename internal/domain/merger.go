package domain

import (
	"net/url"
	"strings"
)

// Origin tags where a merged result came from.
type Origin string

const (
	OriginKeyword  Origin = "keyword"
	OriginSemantic Origin = "semantic"
	OriginBoth     Origin = "both"
)

// SemanticResult is the public projection of one semantic retrieval hit.
type SemanticResult struct {
	Title      string  `json:"title"`
	URL        string  `json:"url,omitempty"`
	AnchorLink string  `json:"anchor_link,omitempty"`
	Lang       string  `json:"lang"`
	Score      float32 `json:"score"`
	Preview    string  `json:"preview,omitempty"`
}

// MergedResult is one entry of the combined, de-duplicated result list.
type MergedResult struct {
	Title   string  `json:"title"`
	Preview string  `json:"preview,omitempty"`
	Link    string  `json:"link"`
	Origin  Origin  `json:"origin"`
	Score   float32 `json:"score,omitempty"`
}

// LinkNormalizer computes identity keys so that equivalent links (absolute vs.
// relative, with or without trailing slash, query or fragment) collapse to the
// same canonical key.
type LinkNormalizer struct {
	// BasePath is a site prefix stripped from every path, e.g. "/blog".
	BasePath string
}

// Key normalizes a link to its canonical identity. Absolute URLs reduce to
// their path component; relative ones are used as-is minus query and fragment.
func (n LinkNormalizer) Key(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}

	p := link
	if u, err := url.Parse(link); err == nil {
		p = u.Path
		if p == "" {
			p = u.Opaque
		}
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	if base := strings.TrimSuffix(n.BasePath, "/"); base != "" {
		p = strings.TrimPrefix(p, base)
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// MergeResults combines semantic and keyword results into one ordered list
// keyed by normalized link. Semantic results come first in their given order;
// keyword-only results are appended. On key overlap the entry is re-tagged as
// OriginBoth and its title/preview upgrade to the keyword version when that
// version carries highlight markers. Within one source the first write wins.
func MergeResults(semantic []SemanticResult, keyword []KeywordResult, norm LinkNormalizer) []MergedResult {
	merged := make([]MergedResult, 0, len(semantic)+len(keyword))
	index := make(map[string]int)

	for _, s := range semantic {
		link := s.AnchorLink
		if link == "" {
			link = s.URL
		}
		key := norm.Key(link)
		if key != "" {
			if _, seen := index[key]; seen {
				continue
			}
			index[key] = len(merged)
		}
		merged = append(merged, MergedResult{
			Title:   s.Title,
			Preview: s.Preview,
			Link:    link,
			Origin:  OriginSemantic,
			Score:   s.Score,
		})
	}

	keywordSeen := make(map[string]bool)
	for _, k := range keyword {
		key := norm.Key(k.Permalink)
		if key != "" && keywordSeen[key] {
			continue
		}
		if key != "" {
			keywordSeen[key] = true
		}

		if idx, ok := index[key]; key != "" && ok {
			entry := &merged[idx]
			entry.Origin = OriginBoth
			if k.TitleHighlighted {
				entry.Title = k.Title
			}
			if k.PreviewHighlighted {
				entry.Preview = k.Preview
			}
			continue
		}

		merged = append(merged, MergedResult{
			Title:   k.Title,
			Preview: k.Preview,
			Link:    k.Permalink,
			Origin:  OriginKeyword,
		})
		if key != "" {
			index[key] = len(merged) - 1
		}
	}

	return merged
}
