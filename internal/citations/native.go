package citations

import (
	"github.com/azure/answer-engine-bot/internal/models"
)

// FromPayload normalizes the structured citation arrays different providers attach to
// their responses. Recognized shapes:
//
//	search_results: [{url, title, snippet, date}]          Perplexity
//	citations: ["https://..."]                              Perplexity (legacy)
//	grounding_chunks: [{uri, title}] or [{web: {uri, title}}] Gemini
//	groundingMetadata.groundingChunks: [{web: {uri, title}}]  Gemini REST
//	annotations: [{url, title}] or [{url_citation: {url, title}}]
//
// Each list is numbered from 1 in its own order.
func FromPayload(payload map[string]interface{}) []models.Citation {
	if len(payload) == 0 {
		return nil
	}

	var lists [][]models.Citation

	if results := asList(payload["search_results"]); len(results) > 0 {
		lists = append(lists, fromObjects(results, "url"))
	} else if legacy := asList(payload["citations"]); len(legacy) > 0 {
		lists = append(lists, fromStrings(legacy))
	}

	if chunks := asList(payload["grounding_chunks"]); len(chunks) > 0 {
		lists = append(lists, fromGroundingChunks(chunks))
	}
	for _, key := range []string{"groundingMetadata", "grounding_metadata"} {
		if meta := asMap(payload[key]); meta != nil {
			chunks := asList(meta["groundingChunks"])
			if len(chunks) == 0 {
				chunks = asList(meta["grounding_chunks"])
			}
			lists = append(lists, fromGroundingChunks(chunks))
		}
	}

	if annotations := asList(payload["annotations"]); len(annotations) > 0 {
		lists = append(lists, fromAnnotations(annotations))
	}

	return Merge(lists...)
}

func fromObjects(items []interface{}, urlKey string) []models.Citation {
	var cites []models.Citation
	for idx, item := range items {
		obj := asMap(item)
		if obj == nil {
			continue
		}
		c, ok := NewCitation(asString(obj[urlKey]))
		if !ok {
			continue
		}
		c.Title = asString(obj["title"])
		c.Snippet = asString(obj["snippet"])
		c.ReferenceNumber = idx + 1
		cites = append(cites, c)
	}
	return cites
}

func fromStrings(items []interface{}) []models.Citation {
	var cites []models.Citation
	for idx, item := range items {
		c, ok := NewCitation(asString(item))
		if !ok {
			continue
		}
		c.ReferenceNumber = idx + 1
		cites = append(cites, c)
	}
	return cites
}

func fromGroundingChunks(items []interface{}) []models.Citation {
	var cites []models.Citation
	for idx, item := range items {
		obj := asMap(item)
		if obj == nil {
			continue
		}
		if web := asMap(obj["web"]); web != nil {
			obj = web
		}
		c, ok := NewCitation(asString(obj["uri"]))
		if !ok {
			continue
		}
		c.Title = asString(obj["title"])
		c.ReferenceNumber = idx + 1
		cites = append(cites, c)
	}
	return cites
}

func fromAnnotations(items []interface{}) []models.Citation {
	var cites []models.Citation
	for idx, item := range items {
		obj := asMap(item)
		if obj == nil {
			continue
		}
		if nested := asMap(obj["url_citation"]); nested != nil {
			obj = nested
		}
		c, ok := NewCitation(asString(obj["url"]))
		if !ok {
			continue
		}
		c.Title = asString(obj["title"])
		c.ReferenceNumber = idx + 1
		cites = append(cites, c)
	}
	return cites
}

// asList accepts both JSON-decoded arrays and slices built in-process
func asList(v interface{}) []interface{} {
	switch list := v.(type) {
	case []interface{}:
		return list
	case []map[string]interface{}:
		out := make([]interface{}, len(list))
		for i, m := range list {
			out[i] = m
		}
		return out
	case []string:
		out := make([]interface{}, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	}
	return nil
}

func asMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return nil
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
