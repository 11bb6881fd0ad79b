// Package textutil holds the small span helpers shared by the text analyzers.
// Offsets are byte offsets into the original string.
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Window returns text[start-pad : end+pad], clipped to the text and widened to rune boundaries
func Window(text string, start, end, pad int) string {
	lo, hi := Bounds(text, start-pad, end+pad)
	return text[lo:hi]
}

// Bounds clips [start, end) to the text and widens it to rune boundaries
func Bounds(text string, start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start > end {
		start = end
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return start, end
}

// Span is a matched [Start, End) range
type Span struct {
	Start int
	End   int
}

// FindAllFold returns every case-insensitive occurrence of needle, without word boundaries
func FindAllFold(text, needle string) []Span {
	if needle == "" || text == "" {
		return nil
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(needle))
	matches := re.FindAllStringIndex(text, -1)
	spans := make([]Span, 0, len(matches))
	for _, m := range matches {
		spans = append(spans, Span{Start: m[0], End: m[1]})
	}
	return spans
}

// ContainsFold reports whether s contains substr, ignoring case
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

var sentenceBreak = regexp.MustCompile(`[.!?]+(?:\s+|$)|\n+`)

// Sentences splits text on terminal punctuation and line breaks, dropping empty pieces
func Sentences(text string) []string {
	var sentences []string
	last := 0
	for _, m := range sentenceBreak.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[last:m[1]]); s != "" {
			sentences = append(sentences, s)
		}
		last = m[1]
	}
	if s := strings.TrimSpace(text[last:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
