package entities

import (
	"strings"

	"github.com/azure/answer-engine-bot/internal/models"
)

// MentionSummary counts contextual mentions by type, comparison outcome and aspect
type MentionSummary struct {
	ByType          map[string]int         `json:"by_type"`
	ComparisonStats models.ComparisonStats `json:"comparison_stats"`
	Aspects         map[string]int         `json:"aspects"`
}

var mentionTypes = []models.MentionType{
	models.MentionRecommendation,
	models.MentionCriticism,
	models.MentionComparison,
	models.MentionNeutral,
	models.MentionFeatureHighlight,
}

// Summarize aggregates mentions of brand. A comparison is a win when the brand is the
// winner, a loss when the compared target is, and a draw when there is no winner.
func Summarize(mentions []models.ContextualMention, brand string) MentionSummary {
	summary := MentionSummary{
		ByType:  make(map[string]int, len(mentionTypes)),
		Aspects: make(map[string]int),
		ComparisonStats: models.ComparisonStats{
			Targets: make(map[string]int),
		},
	}
	for _, t := range mentionTypes {
		summary.ByType[string(t)] = 0
	}

	for _, m := range mentions {
		summary.ByType[string(m.MentionType)]++

		for _, aspect := range m.AspectsMentioned {
			summary.Aspects[aspect]++
		}

		if m.MentionType != models.MentionComparison {
			continue
		}

		stats := &summary.ComparisonStats
		stats.Total++
		if m.ComparisonTarget != "" {
			stats.Targets[m.ComparisonTarget]++
		}

		switch {
		case m.ComparisonWinner == "":
			stats.Draws++
		case strings.EqualFold(m.ComparisonWinner, brand):
			stats.Wins++
		case strings.EqualFold(m.ComparisonWinner, m.ComparisonTarget):
			stats.Losses++
		default:
			stats.Draws++
		}
	}

	return summary
}
