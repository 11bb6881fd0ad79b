// Package metrics turns per-answer analysis results into visibility scores, share of voice
// and trends.
package metrics

import (
	"math"

	"github.com/azure/answer-engine-bot/internal/models"
)

// Visibility score weights
const (
	MentionRateWeight = 0.30
	SentimentWeight   = 0.20
	PositionWeight    = 0.25
	CitationWeight    = 0.25
)

// DefaultMaxPosition is the rank at which the position score bottoms out
const DefaultMaxPosition = 10

// VisibilityScore combines the four signals into a 0-100 score. mentionRate is 0-1,
// sentiment -1 to 1, positionScore and citationScore 0-100.
func VisibilityScore(mentionRate, sentiment, positionScore, citationScore float64) float64 {
	score := MentionRateWeight*(mentionRate*100) +
		SentimentWeight*((sentiment+1)*50) +
		PositionWeight*positionScore +
		CitationWeight*citationScore
	return clamp(score, 0, 100)
}

// MentionRate is the share of queries mentioning the brand, capped at 1
func MentionRate(totalQueries, mentions int) float64 {
	if totalQueries <= 0 {
		return 0
	}
	return math.Min(1, float64(mentions)/float64(totalQueries))
}

// PositionScore rates average list position: 100 for first place, falling linearly to 10
// at maxPosition and never below 0. No positions scores 0.
func PositionScore(positions []int, maxPosition int) float64 {
	if len(positions) == 0 {
		return 0
	}
	if maxPosition <= 0 {
		maxPosition = DefaultMaxPosition
	}

	sum := 0
	for _, p := range positions {
		sum += p
	}
	avg := math.Min(float64(sum)/float64(len(positions)), float64(maxPosition))

	return math.Max(0, 100*(1-(avg-1)/float64(maxPosition)))
}

// CitationScore rates how often the brand is cited: its share of all citations plus up to
// 20 bonus points for the absolute count, capped at 100
func CitationScore(brandCitations, totalCitations int) float64 {
	if totalCitations <= 0 {
		return 0
	}
	base := float64(brandCitations) / float64(totalCitations) * 100
	bonus := math.Min(20, float64(brandCitations)*2)
	return math.Min(100, base+bonus)
}

// ShareOfVoice returns each party's percentage of all mentions, keyed by name. When nobody
// is mentioned every party gets 0.
func ShareOfVoice(brand string, brandMentions int, competitors map[string]int) map[string]float64 {
	total := brandMentions
	for _, n := range competitors {
		total += n
	}

	shares := make(map[string]float64, len(competitors)+1)
	for name, n := range competitors {
		shares[name] = percentOf(n, total)
	}
	shares[brand] = percentOf(brandMentions, total)

	return shares
}

// Trend compares a metric against its previous value. From a previous value of 0 any
// positive value is a 100% rise.
func Trend(current, previous float64) models.Trend {
	if previous == 0 {
		if current > 0 {
			return models.Trend{Change: current, Direction: models.TrendUp, Percent: 100}
		}
		return models.Trend{Change: 0, Direction: models.TrendFlat, Percent: 0}
	}

	change := current - previous
	direction := models.TrendFlat
	switch {
	case change > 0:
		direction = models.TrendUp
	case change < 0:
		direction = models.TrendDown
	}

	return models.Trend{
		Change:    change,
		Direction: direction,
		Percent:   Round(change/previous*100, 2),
	}
}

// Round rounds v to the given number of decimal places
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func percentOf(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
