package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/answer-engine-bot/internal/models"
)

func testBrand() models.Brand {
	return models.Brand{
		ID:          "brand-1",
		Name:        "Acme Corp",
		Domain:      "acme.io",
		Competitors: []string{"Beta Inc", "Gamma"},
	}
}

func fixedPipeline() *Pipeline {
	p := NewPipeline(nil)
	p.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestPipeline_Analyze_EmptyContent(t *testing.T) {
	p := fixedPipeline()

	assert.Nil(t, p.Analyze(models.RawAnswer{Platform: "chatgpt"}, testBrand()))
	assert.Nil(t, p.Analyze(models.RawAnswer{
		Platform:      "perplexity",
		NativePayload: map[string]interface{}{"error": "timeout"},
	}, testBrand()))
	assert.Nil(t, p.Analyze(models.RawAnswer{Platform: "claude", Content: " \n\t\n "}, testBrand()))
}

func TestPipeline_Analyze_InlineList(t *testing.T) {
	p := fixedPipeline()
	answer := models.RawAnswer{
		Platform: "chatgpt",
		Content:  "1. Acme Corp is the best tool. 2. Beta Inc is good too.",
	}

	result := p.Analyze(answer, testBrand())
	require.NotNil(t, result)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "brand-1", result.BrandID)
	assert.Equal(t, "chatgpt", result.Platform)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), result.AnalyzedAt)

	assert.True(t, result.BrandMentioned)
	assert.Equal(t, 1, result.MentionCount)
	require.Len(t, result.MentionContexts, 1)
	assert.Equal(t, 3, result.MentionContexts[0].Position)

	require.NotNil(t, result.Position)
	assert.Equal(t, 1, *result.Position)
	assert.Equal(t, 2, result.TotalRecommendations)

	assert.Equal(t, models.SentimentPositive, result.Sentiment)
	assert.InDelta(t, 1.0, result.SentimentScore, 1e-9)
	assert.InDelta(t, 0.2, result.SentimentConfidence, 1e-9)

	require.Contains(t, result.CompetitorMentions, "Beta Inc")
	assert.Equal(t, 1, result.CompetitorMentions["Beta Inc"].Count)
	assert.NotContains(t, result.CompetitorMentions, "Gamma")

	assert.Empty(t, result.Citations)
	assert.Zero(t, result.CitationCount)

	total := 0
	for _, n := range result.MentionTypeBreakdown {
		total += n
	}
	assert.Equal(t, 1, total)
}

func TestPipeline_Analyze_NotMentioned(t *testing.T) {
	p := fixedPipeline()
	answer := models.RawAnswer{
		Platform: "claude",
		Content:  "Gamma is terrible. Try Beta Inc instead.",
	}

	result := p.Analyze(answer, testBrand())
	require.NotNil(t, result)

	assert.False(t, result.BrandMentioned)
	assert.Zero(t, result.MentionCount)
	assert.Empty(t, result.MentionContexts)
	assert.Nil(t, result.Position)
	assert.Equal(t, models.SentimentNeutral, result.Sentiment)
	assert.Zero(t, result.SentimentScore)
	assert.Zero(t, result.SentimentConfidence)
	assert.Len(t, result.CompetitorMentions, 2)
	assert.Zero(t, result.ComparisonStats.Total)
}

func TestPipeline_Analyze_RankedFallback(t *testing.T) {
	p := fixedPipeline()
	answer := models.RawAnswer{
		Platform: "gemini",
		Content:  "Our picks: #2: Acme Corp for small teams.",
	}

	result := p.Analyze(answer, testBrand())
	require.NotNil(t, result)
	require.NotNil(t, result.Position)
	assert.Equal(t, 2, *result.Position)
}

func TestPipeline_Analyze_NativeCitations(t *testing.T) {
	p := fixedPipeline()
	answer := models.RawAnswer{
		Platform: "perplexity",
		Content:  "Acme Corp is a great product [1].",
		NativePayload: map[string]interface{}{
			"search_results": []interface{}{
				map[string]interface{}{"url": "https://www.capterra.com/p/123/review", "title": "Reviews"},
			},
		},
	}

	result := p.Analyze(answer, testBrand())
	require.NotNil(t, result)

	require.Len(t, result.Citations, 1)
	assert.Equal(t, "www.capterra.com", result.Citations[0].Domain)
	assert.Equal(t, 1, result.Citations[0].ReferenceNumber)
	assert.Equal(t, 1, result.CitationCount)
	assert.Equal(t, 1, result.BrandAttributedCitations)
	assert.Equal(t, 0, result.OwnedCitations)
	assert.InDelta(t, 0.80, result.CitationQuality.AvgAuthority, 1e-9)
	assert.Equal(t, map[string]int{"review_site": 1}, result.CitationQuality.SourceTypes)
}

func TestPipeline_Analyze_OwnedCitations(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected int
	}{
		{"hosted on brand domain", "Acme Corp pricing is listed at https://www.acme.io/pricing and https://www.g2.com/crm", 1},
		{"brand named in title", "Acme Corp is popular, see [Acme Corp review](https://www.techradar.com/reviews/crm)", 1},
		{"third-party only", "Acme Corp is popular, see https://www.g2.com/crm", 0},
		{"no citations", "Acme Corp is popular.", 0},
	}

	p := fixedPipeline()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Analyze(models.RawAnswer{Platform: "chatgpt", Content: tt.content}, testBrand())
			require.NotNil(t, result)
			assert.Equal(t, tt.expected, result.OwnedCitations)
		})
	}
}

func TestPipeline_Analyze_Caps(t *testing.T) {
	p := fixedPipeline()
	content := strings.Repeat("Acme Corp and Gamma. ", 8) +
		"Acme Corp pricing is affordable. The pricing is fair. Pricing plans are cheap."
	answer := models.RawAnswer{Platform: "chatgpt", Content: content}

	result := p.Analyze(answer, testBrand())
	require.NotNil(t, result)

	assert.Equal(t, 9, result.MentionCount)
	assert.Len(t, result.MentionContexts, MaxMentionContexts)
	assert.Equal(t, 8, result.CompetitorMentions["Gamma"].Count)
	assert.Len(t, result.CompetitorMentions["Gamma"].Contexts, MaxCompetitorContexts)

	var pricing *models.AspectSentiment
	for i := range result.AspectSentiments {
		if result.AspectSentiments[i].Aspect == "pricing" {
			pricing = &result.AspectSentiments[i]
		}
	}
	require.NotNil(t, pricing)
	assert.Equal(t, 3, pricing.MentionCount)
	assert.Len(t, pricing.Evidence, MaxAspectEvidence)
	assert.Equal(t, "pricing", result.DominantAspect)
}

func TestPipeline_Analyze_Deterministic(t *testing.T) {
	p := fixedPipeline()
	answer := models.RawAnswer{
		Platform: "chatgpt",
		Content: "Acme Corp vs Beta Inc: Acme Corp is better than Beta Inc for pricing. " +
			"See [G2](https://g2.com/acme) and https://reddit.com/r/saas.",
	}

	first := p.Analyze(answer, testBrand())
	second := p.Analyze(answer, testBrand())
	require.NotNil(t, first)
	require.NotNil(t, second)

	second.ID = first.ID
	assert.Equal(t, first, second)
	assert.Equal(t, "https://g2.com/acme", first.Citations[0].URL)
	assert.Equal(t, "G2", first.Citations[0].Title)
	assert.GreaterOrEqual(t, first.ComparisonStats.Total, 1)
}
