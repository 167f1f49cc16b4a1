package domain

import (
	"html"
	"sort"
	"strings"
)

const (
	// DefaultPreviewCharLimit bounds the emitted preview length in runes.
	DefaultPreviewCharLimit = 140
	// DefaultPreviewOffset is the context window kept on each side of a gap.
	DefaultPreviewOffset = 20
)

// Span marks a half-open match range [Start, End) in rune offsets.
type Span struct {
	Start int
	End   int
}

// HighlightMatches renders text with every match span wrapped in <mark>.
// Overlapping or touching spans collapse into a single marker. With ellipsis
// enabled, long gaps between spans shrink to an offset-sized context window on
// each side separated by a literal "[...]", and emission stops once the
// accumulated character budget is exceeded. Titles use ellipsis=false, which
// emits the full text. All literal text is HTML-escaped before markup is
// inserted.
func HighlightMatches(text string, spans []Span, ellipsis bool, charLimit, offset int) string {
	runes := []rune(text)

	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder
	i, lastIndex, charCount := 0, 0, 0

	for i < len(sorted) {
		item := sorted[i]
		if ellipsis && item.Start-offset > lastIndex {
			b.WriteString(escapeRunes(runes[lastIndex : lastIndex+offset]))
			b.WriteString(" [...] ")
			b.WriteString(escapeRunes(runes[item.Start-offset : item.Start]))
			charCount += offset * 2
		} else {
			b.WriteString(escapeRunes(runes[lastIndex:item.Start]))
			charCount += item.Start - lastIndex
		}

		// Fold any spans that overlap or touch this one into a single marker.
		j, end := i+1, item.End
		for j < len(sorted) && sorted[j].Start <= end {
			if sorted[j].End > end {
				end = sorted[j].End
			}
			j++
		}

		b.WriteString("<mark>")
		b.WriteString(escapeRunes(runes[item.Start:end]))
		b.WriteString("</mark>")
		charCount += end - item.Start

		i = j
		lastIndex = end
		if ellipsis && charCount > charLimit {
			break
		}
	}

	if lastIndex < len(runes) {
		end := len(runes)
		if ellipsis && lastIndex+offset < end {
			end = lastIndex + offset
		}
		b.WriteString(escapeRunes(runes[lastIndex:end]))
		if ellipsis && end != len(runes) {
			b.WriteString(" [...]")
		}
	}

	return b.String()
}

// TruncateEscaped returns the first limit runes of text, HTML-escaped.
// Used for previews of documents that matched only in the title.
func TruncateEscaped(text string, limit int) string {
	runes := []rune(text)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return escapeRunes(runes)
}

func escapeRunes(runes []rune) string {
	return html.EscapeString(string(runes))
}
