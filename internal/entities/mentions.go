// Package entities finds brand and competitor mentions in answers, classifies their
// rhetorical role and detects recommendation lists.
package entities

import (
	"strings"

	"github.com/azure/answer-engine-bot/internal/textutil"
)

// DefaultContextWindow is the number of bytes kept on each side of a mention
const DefaultContextWindow = 100

// MentionResult holds every occurrence of one target name
type MentionResult struct {
	Target    string   `json:"target"`
	Count     int      `json:"count"`
	Positions []int    `json:"positions"`
	Contexts  []string `json:"contexts"`
}

// FindMentions returns every case-insensitive occurrence of target in content with the
// surrounding text. Matching is plain substring matching, so "Go" also matches "Golang".
func FindMentions(content, target string, window int) MentionResult {
	result := MentionResult{
		Target:    target,
		Positions: []int{},
		Contexts:  []string{},
	}
	if strings.TrimSpace(target) == "" {
		return result
	}

	for _, span := range textutil.FindAllFold(content, target) {
		result.Positions = append(result.Positions, span.Start)
		result.Contexts = append(result.Contexts, strings.TrimSpace(textutil.Window(content, span.Start, span.End, window)))
	}
	result.Count = len(result.Positions)

	return result
}

// FindCompetitorMentions runs FindMentions for each competitor and keeps the ones that occur
func FindCompetitorMentions(content string, competitors []string, window int) map[string]MentionResult {
	results := make(map[string]MentionResult)
	for _, competitor := range competitors {
		if m := FindMentions(content, competitor, window); m.Count > 0 {
			results[competitor] = m
		}
	}
	return results
}
