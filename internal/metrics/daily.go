package metrics

import (
	"sort"

	"github.com/azure/answer-engine-bot/internal/citations"
	"github.com/azure/answer-engine-bot/internal/models"
)

// TopCitationLimit is the number of ranked source domains kept per day
const TopCitationLimit = 10

// VisibilityMetrics is the rollup of a set of executions
type VisibilityMetrics struct {
	VisibilityScore   float64 `json:"visibility_score"`
	MentionRate       float64 `json:"mention_rate"`
	SentimentScore    float64 `json:"sentiment_score"`
	PositionScore     float64 `json:"position_score"`
	CitationScore     float64 `json:"citation_score"`
	ShareOfVoice      float64 `json:"share_of_voice"`
	MentionCount      int     `json:"mention_count"`
	TotalQueries      int     `json:"total_queries"`
	SuccessfulQueries int     `json:"successful_queries"`
}

// PlatformMetrics is VisibilityMetrics restricted to one platform
type PlatformMetrics struct {
	Platform string `json:"platform"`
	VisibilityMetrics
	PositionAvg *float64 `json:"position_avg"`
}

// rollup accumulates the raw signals of a set of executions
type rollup struct {
	queries        int
	successful     int
	mentionedIn    int
	mentions       int
	sentimentSum   float64
	sentimentN     int
	positions      []int
	brandCitations int
	citations      int
	competitors    map[string]int
}

func newRollup() *rollup {
	return &rollup{competitors: make(map[string]int)}
}

func (r *rollup) add(rec models.ExecutionRecord) {
	r.queries++
	if rec.Execution.Status == models.StatusCompleted {
		r.successful++
	}

	a := rec.Analysis
	if a == nil {
		return
	}

	if a.BrandMentioned {
		r.mentionedIn++
		r.mentions += a.MentionCount
	}
	// every analyzed answer counts; one without a mention contributes a neutral 0
	r.sentimentSum += a.SentimentScore
	r.sentimentN++
	if a.Position != nil {
		r.positions = append(r.positions, *a.Position)
	}
	r.brandCitations += a.BrandAttributedCitations
	r.citations += a.CitationCount
	for name, cm := range a.CompetitorMentions {
		r.competitors[name] += cm.Count
	}
}

func (r *rollup) metrics(brand string) VisibilityMetrics {
	rate := MentionRate(r.queries, r.mentionedIn)
	sentiment := r.sentimentAvg()
	position := PositionScore(r.positions, DefaultMaxPosition)
	citation := CitationScore(r.brandCitations, r.citations)

	return VisibilityMetrics{
		VisibilityScore:   VisibilityScore(rate, sentiment, position, citation),
		MentionRate:       rate,
		SentimentScore:    sentiment,
		PositionScore:     position,
		CitationScore:     citation,
		ShareOfVoice:      ShareOfVoice(brand, r.mentions, r.competitors)[brand],
		MentionCount:      r.mentions,
		TotalQueries:      r.queries,
		SuccessfulQueries: r.successful,
	}
}

func (r *rollup) sentimentAvg() float64 {
	if r.sentimentN == 0 {
		return 0
	}
	return r.sentimentSum / float64(r.sentimentN)
}

func (r *rollup) positionAvg() *float64 {
	if len(r.positions) == 0 {
		return nil
	}
	sum := 0
	for _, p := range r.positions {
		sum += p
	}
	avg := Round(float64(sum)/float64(len(r.positions)), 2)
	return &avg
}

// Daily rolls a day's executions for one brand into visibility metrics. Failed executions
// count as queries without a mention. The sentiment average runs over every analyzed
// answer, so answers that ignore the brand pull it toward neutral.
func Daily(brand string, records []models.ExecutionRecord) VisibilityMetrics {
	r := newRollup()
	for _, rec := range records {
		r.add(rec)
	}
	return r.metrics(brand)
}

// Platforms applies Daily separately to each platform's executions
func Platforms(brand string, records []models.ExecutionRecord) map[string]PlatformMetrics {
	rollups := make(map[string]*rollup)
	for _, rec := range records {
		p := rec.Execution.Platform
		if rollups[p] == nil {
			rollups[p] = newRollup()
		}
		rollups[p].add(rec)
	}

	result := make(map[string]PlatformMetrics, len(rollups))
	for platform, r := range rollups {
		result[platform] = PlatformMetrics{
			Platform:          platform,
			VisibilityMetrics: r.metrics(brand),
			PositionAvg:       r.positionAvg(),
		}
	}
	return result
}

// AggregateDay recomputes a brand's DailyMetrics from the full set of that day's executions.
// It returns false when there are no executions, in which case no row should be written.
// ID and timestamps are left to the repository.
func AggregateDay(brand models.Brand, date string, records []models.ExecutionRecord) (models.DailyMetrics, bool) {
	if len(records) == 0 {
		return models.DailyMetrics{}, false
	}

	overall := newRollup()
	var cites []models.Citation
	for _, rec := range records {
		overall.add(rec)
		if rec.Analysis != nil {
			cites = append(cites, rec.Analysis.Citations...)
		}
	}
	vm := overall.metrics(brand.Name)

	competitors := make(map[string]int, len(brand.Competitors))
	for _, c := range brand.Competitors {
		competitors[c] = 0
	}
	for name, n := range overall.competitors {
		competitors[name] += n
	}
	competitorShare := make(map[string]float64, len(competitors))
	for name, share := range ShareOfVoice(brand.Name, overall.mentions, competitors) {
		if _, ok := competitors[name]; ok {
			competitorShare[name] = Round(share, 2)
		}
	}

	breakdown := make(map[string]models.PlatformBreakdown)
	for platform, pm := range Platforms(brand.Name, records) {
		breakdown[platform] = models.PlatformBreakdown{
			Mentions:        pm.MentionCount,
			Queries:         pm.TotalQueries,
			VisibilityScore: Round(pm.VisibilityScore, 2),
			SentimentAvg:    Round(pm.SentimentScore, 4),
			PositionAvg:     pm.PositionAvg,
		}
	}

	return models.DailyMetrics{
		BrandID:                brand.ID,
		Date:                   date,
		VisibilityScore:        Round(vm.VisibilityScore, 2),
		SentimentAvg:           Round(vm.SentimentScore, 4),
		MentionCount:           vm.MentionCount,
		ShareOfVoice:           Round(vm.ShareOfVoice, 2),
		CompetitorShareOfVoice: competitorShare,
		PlatformBreakdown:      breakdown,
		TopCitations:           citations.TopSources(cites, TopCitationLimit),
		TotalQueries:           vm.TotalQueries,
		SuccessfulQueries:      vm.SuccessfulQueries,
	}, true
}

// SortedPlatforms returns the platform names of a breakdown in alphabetical order
func SortedPlatforms(breakdown map[string]models.PlatformBreakdown) []string {
	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
