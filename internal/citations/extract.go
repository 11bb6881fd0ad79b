// Package citations extracts, classifies and attributes the sources cited by an answer.
package citations

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/azure/answer-engine-bot/internal/models"
)

var (
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)\s]+)\)`)
	bareURLPattern      = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]()']+`)
	referencePattern    = regexp.MustCompile(`\[(\d+)\]`)
)

const trailingPunctuation = ".,;:!?)"

// Hosts that show up in answers as placeholders rather than real sources
var excludedDomains = map[string]bool{
	"example.com":     true,
	"localhost":       true,
	"127.0.0.1":       true,
	"test.com":        true,
	"placeholder.com": true,
}

// Extract parses markdown links and bare URLs out of content and merges them with the
// provider-native citations. Markdown links come first, then bare URLs, then native ones.
func Extract(content string, native []models.Citation) []models.Citation {
	found := append(MarkdownLinks(content), BareURLs(content)...)
	return Merge(found, native)
}

// MarkdownLinks returns the [title](url) links in content, in order of appearance
func MarkdownLinks(content string) []models.Citation {
	var cites []models.Citation
	for _, m := range markdownLinkPattern.FindAllStringSubmatch(content, -1) {
		c, ok := NewCitation(m[2])
		if !ok {
			continue
		}
		c.Title = strings.TrimSpace(m[1])
		cites = append(cites, c)
	}
	return cites
}

// BareURLs returns every http(s) URL in content with trailing punctuation stripped
func BareURLs(content string) []models.Citation {
	var cites []models.Citation
	for _, raw := range bareURLPattern.FindAllString(content, -1) {
		c, ok := NewCitation(strings.TrimRight(raw, trailingPunctuation))
		if !ok {
			continue
		}
		cites = append(cites, c)
	}
	return cites
}

// NewCitation validates rawURL and derives its domain. Unparseable URLs, URLs without a
// host and placeholder hosts are rejected.
func NewCitation(rawURL string) (models.Citation, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return models.Citation{}, false
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return models.Citation{}, false
	}

	if excludedDomains[strings.ToLower(u.Hostname())] {
		return models.Citation{}, false
	}

	return models.Citation{
		URL:    rawURL,
		Domain: strings.ToLower(u.Host),
	}, true
}

// Merge combines citation lists keyed by URL, keeping first-seen order. When a URL repeats,
// empty fields of the kept record are filled from the later one; present values are never
// overwritten.
func Merge(lists ...[]models.Citation) []models.Citation {
	var merged []models.Citation
	index := make(map[string]int)

	for _, list := range lists {
		for _, c := range list {
			if c.URL == "" {
				continue
			}
			if c.Domain == "" {
				if u, err := url.Parse(c.URL); err == nil {
					c.Domain = strings.ToLower(u.Host)
				}
			}

			i, seen := index[c.URL]
			if !seen {
				index[c.URL] = len(merged)
				merged = append(merged, c)
				continue
			}

			existing := &merged[i]
			if existing.Title == "" && c.Title != "" {
				existing.Title = c.Title
			}
			if existing.Snippet == "" && c.Snippet != "" {
				existing.Snippet = c.Snippet
			}
			if existing.ReferenceNumber == 0 && c.ReferenceNumber != 0 {
				existing.ReferenceNumber = c.ReferenceNumber
			}
		}
	}

	return merged
}

// ReferencePositions maps each [n] marker in content to the byte offsets where it occurs
func ReferencePositions(content string) map[int][]int {
	positions := make(map[int][]int)
	for _, m := range referencePattern.FindAllStringSubmatchIndex(content, -1) {
		n, err := strconv.Atoi(content[m[2]:m[3]])
		if err != nil {
			continue
		}
		positions[n] = append(positions[n], m[0])
	}
	return positions
}
