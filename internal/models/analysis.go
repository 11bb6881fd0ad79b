package models

import "time"

// SourceType classifies the kind of site a citation points at
type SourceType string

const (
	SourceReviewSite SourceType = "review_site"
	SourceNews       SourceType = "news"
	SourceBlog       SourceType = "blog"
	SourceCommunity  SourceType = "community"
	SourceOfficial   SourceType = "official"
	SourceOther      SourceType = "other"
)

// Citation is a source URL referenced by an answer
type Citation struct {
	URL             string `json:"url"`
	Domain          string `json:"domain"`
	Title           string `json:"title,omitempty"`
	Snippet         string `json:"snippet,omitempty"`
	ReferenceNumber int    `json:"reference_number,omitempty"` // 0 when the answer has no [n] markers
}

// EnhancedCitation is a citation attributed to the brand and scored for authority
type EnhancedCitation struct {
	Citation
	MentionsBrand  bool       `json:"mentions_brand"`
	BrandContext   string     `json:"brand_context,omitempty"`
	SourceType     SourceType `json:"source_type"`
	AuthorityScore float64    `json:"authority_score"`
}

// MentionType is the rhetorical role of a mention
type MentionType string

const (
	MentionRecommendation   MentionType = "recommendation"
	MentionCriticism        MentionType = "criticism"
	MentionComparison       MentionType = "comparison"
	MentionNeutral          MentionType = "neutral"
	MentionFeatureHighlight MentionType = "feature_highlight"
)

// ContextualMention is one occurrence of a target name with its classification
type ContextualMention struct {
	TargetName       string      `json:"target_name"`
	ContextSnippet   string      `json:"context_snippet"`
	MentionType      MentionType `json:"mention_type"`
	PositionInText   int         `json:"position_in_text"`
	ComparisonTarget string      `json:"comparison_target,omitempty"`
	ComparisonWinner string      `json:"comparison_winner,omitempty"`
	AspectsMentioned []string    `json:"aspects_mentioned"`
	Confidence       float64     `json:"confidence"`
}

// Sentiment labels
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// SentimentResult is the sentiment of a span of text
type SentimentResult struct {
	Label      string  `json:"label"`
	Score      float64 `json:"score"`      // -1.0 to 1.0
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
	Context    string  `json:"context,omitempty"`
}

// AspectSentiment is sentiment restricted to one topical facet
type AspectSentiment struct {
	SentimentResult
	Aspect       string   `json:"aspect"`
	Evidence     []string `json:"evidence"`
	MentionCount int      `json:"mention_count"`
}

// MentionContext is a stored snippet around a brand occurrence
type MentionContext struct {
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// CompetitorMention summarizes one competitor's occurrences in an answer
type CompetitorMention struct {
	Count    int      `json:"count"`
	Contexts []string `json:"contexts"`
}

// CitationQuality summarizes the authority of an answer's sources
type CitationQuality struct {
	AvgAuthority float64        `json:"avg_authority"`
	SourceTypes  map[string]int `json:"source_types"`
}

// ComparisonStats counts head-to-head comparisons against competitors
type ComparisonStats struct {
	Total   int            `json:"total"`
	Wins    int            `json:"wins"`
	Losses  int            `json:"losses"`
	Draws   int            `json:"draws"`
	Targets map[string]int `json:"targets"`
}

// AnalysisResult is the structured outcome of analyzing one answer
type AnalysisResult struct {
	ID          string `json:"id"`
	ExecutionID string `json:"execution_id"`
	BrandID     string `json:"brand_id"`
	Platform    string `json:"platform"`

	BrandMentioned  bool             `json:"brand_mentioned"`
	MentionCount    int              `json:"mention_count"`
	MentionContexts []MentionContext `json:"mention_contexts"`

	Sentiment           string  `json:"sentiment"`
	SentimentScore      float64 `json:"sentiment_score"`
	SentimentConfidence float64 `json:"sentiment_confidence"`

	Position             *int `json:"position"`
	TotalRecommendations int  `json:"total_recommendations"`

	Citations     []Citation `json:"citations"`
	CitationCount int        `json:"citation_count"`

	CompetitorMentions map[string]CompetitorMention `json:"competitor_mentions"`

	BrandAttributedCitations int             `json:"brand_attributed_citations"`
	OwnedCitations           int             `json:"owned_citations"`
	CitationQuality          CitationQuality `json:"citation_quality"`

	MentionTypeBreakdown map[string]int  `json:"mention_type_breakdown"`
	ComparisonStats      ComparisonStats `json:"comparison_stats"`

	AspectSentiments []AspectSentiment `json:"aspect_sentiments"`
	DominantAspect   string            `json:"dominant_aspect,omitempty"`

	AnalyzedAt time.Time `json:"analyzed_at"`
}

// PlatformBreakdown is one platform's slice of a day's metrics
type PlatformBreakdown struct {
	Mentions        int      `json:"mentions"`
	Queries         int      `json:"queries"`
	VisibilityScore float64  `json:"visibility_score"`
	SentimentAvg    float64  `json:"sentiment_avg"`
	PositionAvg     *float64 `json:"position_avg"`
}

// SourceRank is a cited domain ranked by frequency
type SourceRank struct {
	Domain     string  `json:"domain"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DailyMetrics is the per (brand, date) aggregate of all analyses of that day
type DailyMetrics struct {
	ID                     string                       `json:"id"`
	BrandID                string                       `json:"brand_id"`
	Date                   string                       `json:"date"`
	VisibilityScore        float64                      `json:"visibility_score"`
	SentimentAvg           float64                      `json:"sentiment_avg"`
	MentionCount           int                          `json:"mention_count"`
	ShareOfVoice           float64                      `json:"share_of_voice"`
	CompetitorShareOfVoice map[string]float64           `json:"competitor_share_of_voice"`
	PlatformBreakdown      map[string]PlatformBreakdown `json:"platform_breakdown"`
	TopCitations           []SourceRank                 `json:"top_citations"`
	TotalQueries           int                          `json:"total_queries"`
	SuccessfulQueries      int                          `json:"successful_queries"`
	CreatedAt              time.Time                    `json:"created_at"`
	UpdatedAt              time.Time                    `json:"updated_at"`
}

// Trend directions
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// Trend is the change of a metric between two periods
type Trend struct {
	Change    float64 `json:"change"`
	Direction string  `json:"direction"`
	Percent   float64 `json:"percent"`
}
