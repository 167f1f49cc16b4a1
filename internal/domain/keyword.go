package domain

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// KeywordDocumentSource provides the locally cached document index. Fetching
// is memoized process-wide: concurrent callers share one in-flight load, a
// success is cached, and a failure resets the cache so a retry can succeed.
type KeywordDocumentSource interface {
	Documents(ctx context.Context) ([]KeywordDocument, error)
}

// KeywordDocument is one entry of the locally fetched document index.
// PlainContent is Content with markup stripped, filled at load time.
type KeywordDocument struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	Permalink    string `json:"permalink"`
	URL          string `json:"url,omitempty"`
	PlainContent string `json:"-"`
}

// Link returns the document's canonical link.
func (d KeywordDocument) Link() string {
	if d.Permalink != "" {
		return d.Permalink
	}
	return d.URL
}

// KeywordResult is a scored keyword match with highlighted excerpts.
type KeywordResult struct {
	Title              string // may contain <mark> markers
	Preview            string // may contain <mark> markers and "[...]"
	Permalink          string
	MatchCount         int
	TitleHighlighted   bool
	PreviewHighlighted bool
}

// KeywordMatcher runs multi-term, case-insensitive substring matching over a
// document collection and produces highlighted titles and previews.
type KeywordMatcher struct {
	CharLimit int
	Offset    int
}

// NewKeywordMatcher returns a matcher with the default preview parameters.
func NewKeywordMatcher() *KeywordMatcher {
	return &KeywordMatcher{
		CharLimit: DefaultPreviewCharLimit,
		Offset:    DefaultPreviewOffset,
	}
}

// Search scores every document by total match count over title and content,
// excludes documents with zero matches, and sorts descending by count. The
// sort is stable, so ties keep encounter order.
func (m *KeywordMatcher) Search(terms []string, docs []KeywordDocument) []KeywordResult {
	re := BuildTermPattern(terms)
	if re == nil {
		return nil
	}

	var results []KeywordResult
	for _, doc := range docs {
		titleSpans := findSpans(re, doc.Title)
		contentSpans := findSpans(re, doc.PlainContent)

		total := len(titleSpans) + len(contentSpans)
		if total == 0 {
			continue
		}

		title := doc.Title
		if len(titleSpans) > 0 {
			title = HighlightMatches(doc.Title, titleSpans, false, 0, 0)
		}

		var preview string
		if len(contentSpans) > 0 {
			preview = HighlightMatches(doc.PlainContent, contentSpans, true, m.CharLimit, m.Offset)
		} else {
			preview = TruncateEscaped(doc.PlainContent, m.CharLimit)
		}

		results = append(results, KeywordResult{
			Title:              title,
			Preview:            preview,
			Permalink:          doc.Link(),
			MatchCount:         total,
			TitleHighlighted:   len(titleSpans) > 0,
			PreviewHighlighted: len(contentSpans) > 0,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchCount > results[j].MatchCount
	})
	return results
}

// BuildTermPattern compiles a case-insensitive alternation of all non-empty
// terms with their special characters escaped. Returns nil when no usable
// term remains.
func BuildTermPattern(terms []string) *regexp.Regexp {
	var escaped []string
	for _, term := range terms {
		if t := strings.TrimSpace(term); t != "" {
			escaped = append(escaped, regexp.QuoteMeta(t))
		}
	}
	if len(escaped) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)` + strings.Join(escaped, "|"))
}

// findSpans returns all non-overlapping match ranges in rune offsets.
func findSpans(re *regexp.Regexp, text string) []Span {
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	spans := make([]Span, 0, len(locs))
	byteIdx, runeIdx := 0, 0
	for _, loc := range locs {
		for byteIdx < loc[0] {
			_, size := utf8.DecodeRuneInString(text[byteIdx:])
			byteIdx += size
			runeIdx++
		}
		start := runeIdx
		for byteIdx < loc[1] {
			_, size := utf8.DecodeRuneInString(text[byteIdx:])
			byteIdx += size
			runeIdx++
		}
		spans = append(spans, Span{Start: start, End: runeIdx})
	}
	return spans
}
