package entities

import (
	"strings"
	"testing"

	"github.com/azure/answer-engine-bot/internal/lexicon"
	"github.com/azure/answer-engine-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMentions(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		target    string
		count     int
		positions []int
	}{
		{
			name:      "Case-insensitive",
			content:   "Acme is good. ACME is cheap. acme wins.",
			target:    "Acme",
			count:     3,
			positions: []int{0, 14, 29},
		},
		{
			name:      "Substring matches are counted",
			content:   "Go is popular and Golang developers love it",
			target:    "Go",
			count:     2,
			positions: []int{0, 18},
		},
		{
			name:      "No occurrences",
			content:   "Nothing relevant here",
			target:    "Acme",
			count:     0,
			positions: []int{},
		},
		{
			name:      "Empty target",
			content:   "Acme",
			target:    "",
			count:     0,
			positions: []int{},
		},
		{
			name:      "Regex metacharacters escaped",
			content:   "Use C++ or c++ daily",
			target:    "C++",
			count:     2,
			positions: []int{4, 11},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindMentions(tt.content, tt.target, DefaultContextWindow)
			assert.Equal(t, tt.count, result.Count)
			assert.Equal(t, tt.positions, result.Positions)
			assert.Len(t, result.Contexts, tt.count)
		})
	}
}

func TestFindMentions_ContextWindow(t *testing.T) {
	content := "aaaaaaaaaa Acme bbbbbbbbbb"

	result := FindMentions(content, "Acme", 5)

	require.Equal(t, 1, result.Count)
	assert.Equal(t, "aaaa Acme bbbb", result.Contexts[0])
}

func TestFindCompetitorMentions(t *testing.T) {
	content := "Beta and Gamma are alternatives; Beta is cheaper."

	results := FindCompetitorMentions(content, []string{"Beta", "Gamma", "Delta"}, DefaultContextWindow)

	require.Len(t, results, 2)
	assert.Equal(t, 2, results["Beta"].Count)
	assert.Equal(t, 1, results["Gamma"].Count)
	_, ok := results["Delta"]
	assert.False(t, ok)
}

func TestDetectList(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		isList bool
		items  []string
	}{
		{
			name:   "Numbered list",
			input:  "Top tools:\n1. Acme\n2. Beta\n3. Gamma",
			isList: true,
			items:  []string{"Acme", "Beta", "Gamma"},
		},
		{
			name:   "Bullet list",
			input:  "Options:\n- Acme\n* Beta\n• Gamma",
			isList: true,
			items:  []string{"Acme", "Beta", "Gamma"},
		},
		{
			name:   "Numbered wins over bullets",
			input:  "- x\n- y\n- z\n- w\n1. Acme\n2. Beta\n3. Gamma",
			isList: true,
			items:  []string{"Acme", "Beta", "Gamma"},
		},
		{
			name:   "Two numbered lines are not a list",
			input:  "1. Acme\n2. Beta",
			isList: false,
		},
		{
			name:   "Inline enumeration",
			input:  "1. Acme Corp is the best tool. 2. Beta Inc is good too.",
			isList: true,
			items:  []string{"Acme Corp is the best tool.", "Beta Inc is good too."},
		},
		{
			name:   "Inline enumeration must start at one",
			input:  "Version 2. Then 3. Later",
			isList: false,
		},
		{
			name:   "Inline enumeration after a colon",
			input:  "Our top picks: 1. Acme 2. Beta 3. Gamma",
			isList: true,
			items:  []string{"Acme", "Beta", "Gamma"},
		},
		{
			name:   "Inline enumeration after an introducing phrase",
			input:  "Good options include 1. Acme and 2. Beta",
			isList: true,
			items:  []string{"Acme and", "Beta"},
		},
		{
			name:   "Inline enumeration after a stray number",
			input:  "We tested 3. 1. Acme 2. Beta",
			isList: true,
			items:  []string{"Acme", "Beta"},
		},
		{
			name:   "Stray numbers in prose",
			input:  "Pricing went up 2. 5. Then in 2024 1. and 2. things happened",
			isList: false,
		},
		{
			name:   "Numbers inside a sentence",
			input:  "Revenue grew by 1. 2 million in 2023 1. then 2. again",
			isList: false,
		},
		{
			name:   "Markers glued to words",
			input:  "Use v1. or v2. of the API",
			isList: false,
		},
		{
			name:   "Plain prose",
			input:  "Acme is a good choice for most teams.",
			isList: false,
		},
		{
			name:   "Empty",
			input:  "",
			isList: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isList, items := DetectList(tt.input)
			assert.Equal(t, tt.isList, isList)
			assert.Equal(t, tt.items, items)
		})
	}
}

func TestFindPosition(t *testing.T) {
	_, items := DetectList("1. Acme Corp is the best tool. 2. Beta Inc is good too.")

	pos, ok := FindPosition(items, "Acme Corp")
	assert.True(t, ok)
	assert.Equal(t, 1, pos)

	pos, ok = FindPosition(items, "beta inc")
	assert.True(t, ok)
	assert.Equal(t, 2, pos)

	_, ok = FindPosition(items, "Gamma")
	assert.False(t, ok)

	_, ok = FindPosition(items, "")
	assert.False(t, ok)
}

func TestFindRankedPosition(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected int
		found    bool
	}{
		{"Dot", "Picks: 2. Acme", 2, true},
		{"Paren", "Picks: 3) Acme", 3, true},
		{"Hash", "#4: Acme", 4, true},
		{"Dash", "5 - Acme", 5, true},
		{"Case-insensitive", "1. ACME", 1, true},
		{"Absent", "Acme is fine", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, ok := FindRankedPosition(tt.content, "Acme")
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, pos)
		})
	}
}

func TestCountTotalRecommendations(t *testing.T) {
	assert.Equal(t, 3, CountTotalRecommendations("Intro\n1. A\n2) B\n3.C\nOutro"))
	assert.Equal(t, 0, CountTotalRecommendations("No list here"))
}

func newTestExtractor() *Extractor {
	return NewExtractor(lexicon.Default())
}

func TestExtractContextualMentions_Types(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		brand      string
		mtype      models.MentionType
		confidence float64
	}{
		{
			name:       "Recommendation verb",
			content:    "For small teams I recommend Acme without hesitation.",
			brand:      "Acme",
			mtype:      models.MentionRecommendation,
			confidence: 0.85,
		},
		{
			name:       "Superlative after brand",
			content:    "Acme is the best tool for startups.",
			brand:      "Acme",
			mtype:      models.MentionRecommendation,
			confidence: 0.8,
		},
		{
			name:       "Avoid",
			content:    "Avoid BrandX, it's overpriced and buggy.",
			brand:      "BrandX",
			mtype:      models.MentionCriticism,
			confidence: 0.8,
		},
		{
			name:       "Negated recommendation is criticism",
			content:    "I wouldn't recommend Acme to anyone.",
			brand:      "Acme",
			mtype:      models.MentionCriticism,
			confidence: 0.8,
		},
		{
			name:       "Negative adjective",
			content:    "Acme feels clunky these days.",
			brand:      "Acme",
			mtype:      models.MentionCriticism,
			confidence: 0.8,
		},
		{
			name:       "Versus",
			content:    "Acme vs Beta: both work.",
			brand:      "Acme",
			mtype:      models.MentionComparison,
			confidence: 0.75,
		},
		{
			name:       "Feature highlight",
			content:    "Acme offers a visual workflow builder.",
			brand:      "Acme",
			mtype:      models.MentionFeatureHighlight,
			confidence: 0.7,
		},
		{
			name:       "Neutral",
			content:    "Acme was founded in 2015.",
			brand:      "Acme",
			mtype:      models.MentionNeutral,
			confidence: 0.5,
		},
	}

	e := newTestExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mentions := e.ExtractContextualMentions(tt.content, tt.brand, []string{"Beta"})
			require.Len(t, mentions, 1)
			assert.Equal(t, tt.mtype, mentions[0].MentionType)
			assert.InDelta(t, tt.confidence, mentions[0].Confidence, 1e-9)
			assert.Equal(t, tt.brand, mentions[0].TargetName)
		})
	}
}

func TestExtractContextualMentions_FirstRuleWins(t *testing.T) {
	// both a recommendation and a comparison; recommendation is checked first
	content := "Acme is the best option and is better than Beta."

	mentions := newTestExtractor().ExtractContextualMentions(content, "Acme", []string{"Beta"})

	require.Len(t, mentions, 1)
	assert.Equal(t, models.MentionRecommendation, mentions[0].MentionType)
	assert.Empty(t, mentions[0].ComparisonTarget)
}

func TestExtractContextualMentions_Comparison(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		competitors []string
		target      string
		winner      string
	}{
		{
			name:        "Brand better than competitor",
			content:     "Acme is better than Beta for reporting.",
			competitors: []string{"Beta"},
			target:      "Beta",
			winner:      "Acme",
		},
		{
			name:        "Competitor better than brand",
			content:     "Beta is better than Acme for reporting.",
			competitors: []string{"Beta"},
			target:      "Beta",
			winner:      "Beta",
		},
		{
			name:        "Canonicalized case",
			content:     "Acme vs beta: hard call.",
			competitors: []string{"Beta"},
			target:      "Beta",
			winner:      "",
		},
		{
			name:        "Canonicalized by containment",
			content:     "Acme vs BetaCloud. Teams prefer Acme.",
			competitors: []string{"BetaCloud Inc"},
			target:      "BetaCloud Inc",
			winner:      "Acme",
		},
		{
			name:        "Unknown target kept verbatim",
			content:     "Acme versus Zeta, a close race.",
			competitors: []string{"Beta"},
			target:      "Zeta",
			winner:      "",
		},
		{
			name:        "Inferior hands the win to the other side",
			content:     "Acme vs Beta. Beta is inferior for large teams.",
			competitors: []string{"Beta"},
			target:      "Beta",
			winner:      "Acme",
		},
		{
			name:        "Versus then competitor is better",
			content:     "Acme vs Beta: Beta is better for enterprises.",
			competitors: []string{"Beta"},
			target:      "Beta",
			winner:      "Beta",
		},
		{
			name:        "Versus then brand is better",
			content:     "Acme vs Beta: Acme is better for enterprises.",
			competitors: []string{"Beta"},
			target:      "Beta",
			winner:      "Acme",
		},
		{
			name:        "Competitor first then brand is better",
			content:     "Beta vs Acme: Acme is better for enterprises.",
			competitors: []string{"Beta"},
			target:      "Beta",
			winner:      "Acme",
		},
		{
			name:        "Competitor first then competitor is better",
			content:     "Beta vs Acme: Beta is better for enterprises.",
			competitors: []string{"Beta"},
			target:      "Beta",
			winner:      "Beta",
		},
		{
			name:        "Versus then brand is worse",
			content:     "Acme vs Beta: Acme is worse for enterprises.",
			competitors: []string{"Beta"},
			target:      "Beta",
			winner:      "Beta",
		},
		{
			name:        "Comparing brand and competitor",
			content:     "When comparing Acme and Beta, choose Beta.",
			competitors: []string{"Beta"},
			target:      "Beta",
			winner:      "Beta",
		},
		{
			name:        "Compared to competitor",
			content:     "Compared to Beta, Acme is cheaper for small teams.",
			competitors: []string{"Beta"},
			target:      "Beta",
			winner:      "",
		},
		{
			name:        "Both sides winning is a draw",
			content:     "Acme vs Beta. Acme wins on price while Beta wins on support.",
			competitors: []string{"Beta"},
			target:      "Beta",
			winner:      "",
		},
	}

	e := newTestExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mentions := e.ExtractContextualMentions(tt.content, "Acme", tt.competitors)
			require.NotEmpty(t, mentions)
			m := mentions[0]
			assert.Equal(t, models.MentionComparison, m.MentionType)
			assert.Equal(t, tt.target, m.ComparisonTarget)
			assert.Equal(t, tt.winner, m.ComparisonWinner)
		})
	}
}

func TestExtractContextualMentions_Aspects(t *testing.T) {
	content := "Acme has transparent pricing, a secure platform and responsive customer support."

	mentions := newTestExtractor().ExtractContextualMentions(content, "Acme", nil)

	require.Len(t, mentions, 1)
	assert.Equal(t, []string{"pricing", "security", "support"}, mentions[0].AspectsMentioned)
}

func TestExtractContextualMentions_OrderedByPosition(t *testing.T) {
	content := "Acme was founded in 2015. " + strings.Repeat("Filler text. ", 40) + "Avoid Acme for enterprise."

	mentions := newTestExtractor().ExtractContextualMentions(content, "Acme", nil)

	require.Len(t, mentions, 2)
	assert.Less(t, mentions[0].PositionInText, mentions[1].PositionInText)
	assert.Equal(t, models.MentionNeutral, mentions[0].MentionType)
	assert.Equal(t, models.MentionCriticism, mentions[1].MentionType)
}

func TestExtractContextualMentions_NoBrand(t *testing.T) {
	mentions := newTestExtractor().ExtractContextualMentions("Beta is great.", "Acme", []string{"Beta"})
	assert.Empty(t, mentions)
}

func TestSummarize(t *testing.T) {
	mentions := []models.ContextualMention{
		{MentionType: models.MentionRecommendation, AspectsMentioned: []string{"pricing"}},
		{MentionType: models.MentionComparison, ComparisonTarget: "Beta", ComparisonWinner: "Acme"},
		{MentionType: models.MentionComparison, ComparisonTarget: "Beta", ComparisonWinner: "Beta"},
		{MentionType: models.MentionComparison, ComparisonTarget: "Gamma"},
		{MentionType: models.MentionNeutral, AspectsMentioned: []string{"pricing", "support"}},
	}

	summary := Summarize(mentions, "Acme")

	assert.Equal(t, map[string]int{
		"recommendation":    1,
		"criticism":         0,
		"comparison":        3,
		"neutral":           1,
		"feature_highlight": 0,
	}, summary.ByType)
	assert.Equal(t, models.ComparisonStats{
		Total:   3,
		Wins:    1,
		Losses:  1,
		Draws:   1,
		Targets: map[string]int{"Beta": 2, "Gamma": 1},
	}, summary.ComparisonStats)
	assert.Equal(t, map[string]int{"pricing": 2, "support": 1}, summary.Aspects)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil, "Acme")
	assert.Zero(t, summary.ComparisonStats.Total)
	assert.Empty(t, summary.Aspects)
	assert.Len(t, summary.ByType, 5)
}
