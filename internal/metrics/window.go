package metrics

import (
	"github.com/azure/answer-engine-bot/internal/models"
)

// WindowSummary aggregates the daily metrics of a time window
type WindowSummary struct {
	Days              int                                 `json:"days"`
	StartDate         string                              `json:"start_date,omitempty"`
	EndDate           string                              `json:"end_date,omitempty"`
	AvgVisibility     float64                             `json:"avg_visibility"`
	AvgSentiment      float64                             `json:"avg_sentiment"`
	AvgShareOfVoice   float64                             `json:"avg_share_of_voice"`
	TotalMentions     int                                 `json:"total_mentions"`
	TotalQueries      int                                 `json:"total_queries"`
	SuccessfulQueries int                                 `json:"successful_queries"`
	Platforms         map[string]models.PlatformBreakdown `json:"platforms"`
	Daily             []models.DailyMetrics               `json:"daily"`
}

// SummarizeWindow averages scores over the days present and sums the counts. Per-platform
// figures are query-weighted. Days are expected in date order.
func SummarizeWindow(days []models.DailyMetrics) WindowSummary {
	summary := WindowSummary{
		Days:      len(days),
		Platforms: make(map[string]models.PlatformBreakdown),
		Daily:     days,
	}
	if len(days) == 0 {
		summary.Daily = []models.DailyMetrics{}
		return summary
	}

	summary.StartDate = days[0].Date
	summary.EndDate = days[len(days)-1].Date

	type platformAcc struct {
		mentions, queries         int
		visibility, sentiment     float64
		positionSum, positionDays float64
	}
	platforms := make(map[string]*platformAcc)

	var visibility, sentiment, share float64
	for _, d := range days {
		visibility += d.VisibilityScore
		sentiment += d.SentimentAvg
		share += d.ShareOfVoice
		summary.TotalMentions += d.MentionCount
		summary.TotalQueries += d.TotalQueries
		summary.SuccessfulQueries += d.SuccessfulQueries

		for name, pb := range d.PlatformBreakdown {
			acc := platforms[name]
			if acc == nil {
				acc = &platformAcc{}
				platforms[name] = acc
			}
			acc.mentions += pb.Mentions
			acc.queries += pb.Queries
			acc.visibility += pb.VisibilityScore * float64(pb.Queries)
			acc.sentiment += pb.SentimentAvg * float64(pb.Queries)
			if pb.PositionAvg != nil {
				acc.positionSum += *pb.PositionAvg
				acc.positionDays++
			}
		}
	}

	n := float64(len(days))
	summary.AvgVisibility = Round(visibility/n, 2)
	summary.AvgSentiment = Round(sentiment/n, 4)
	summary.AvgShareOfVoice = Round(share/n, 2)

	for name, acc := range platforms {
		pb := models.PlatformBreakdown{
			Mentions: acc.mentions,
			Queries:  acc.queries,
		}
		if acc.queries > 0 {
			pb.VisibilityScore = Round(acc.visibility/float64(acc.queries), 2)
			pb.SentimentAvg = Round(acc.sentiment/float64(acc.queries), 4)
		}
		if acc.positionDays > 0 {
			avg := Round(acc.positionSum/acc.positionDays, 2)
			pb.PositionAvg = &avg
		}
		summary.Platforms[name] = pb
	}

	return summary
}

// CompareWindows computes trends of the headline metrics between two windows
func CompareWindows(current, previous WindowSummary) map[string]models.Trend {
	return map[string]models.Trend{
		"visibility_score": Trend(current.AvgVisibility, previous.AvgVisibility),
		"sentiment_avg":    Trend(current.AvgSentiment, previous.AvgSentiment),
		"share_of_voice":   Trend(current.AvgShareOfVoice, previous.AvgShareOfVoice),
		"mention_count":    Trend(float64(current.TotalMentions), float64(previous.TotalMentions)),
	}
}

// CompareDays computes trends of the headline metrics between two days. A missing previous
// day compares against zero.
func CompareDays(current, previous *models.DailyMetrics) map[string]models.Trend {
	if current == nil {
		return map[string]models.Trend{}
	}
	prev := models.DailyMetrics{}
	if previous != nil {
		prev = *previous
	}
	return map[string]models.Trend{
		"visibility_score": Trend(current.VisibilityScore, prev.VisibilityScore),
		"sentiment_avg":    Trend(current.SentimentAvg, prev.SentimentAvg),
		"share_of_voice":   Trend(current.ShareOfVoice, prev.ShareOfVoice),
		"mention_count":    Trend(float64(current.MentionCount), float64(prev.MentionCount)),
	}
}
