// Package analysis assembles the per-answer AnalysisResult from the citation, mention and
// sentiment extractors.
package analysis

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/azure/answer-engine-bot/internal/citations"
	"github.com/azure/answer-engine-bot/internal/entities"
	"github.com/azure/answer-engine-bot/internal/lexicon"
	"github.com/azure/answer-engine-bot/internal/models"
	"github.com/azure/answer-engine-bot/internal/sentiment"
)

// Storage caps for the per-answer snippets
const (
	MaxMentionContexts    = 5
	MaxCompetitorContexts = 3
	MaxAspectEvidence     = 2
)

// Pipeline runs the text analyses over one answer. It holds only read-only lexicon data
// and is safe for concurrent use.
type Pipeline struct {
	extractor *entities.Extractor
	analyzer  *sentiment.Analyzer
	now       func() time.Time
}

// NewPipeline creates a pipeline over lex, or the built-in lexicon when lex is nil
func NewPipeline(lex *lexicon.Lexicon) *Pipeline {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Pipeline{
		extractor: entities.NewExtractor(lex),
		analyzer:  sentiment.NewAnalyzer(lex),
		now:       time.Now,
	}
}

// Analyze builds the AnalysisResult for answer. It returns nil when the answer has no
// content or only whitespace; such executions are failures and get no result.
func (p *Pipeline) Analyze(answer models.RawAnswer, brand models.Brand) *models.AnalysisResult {
	content := answer.Content
	if strings.TrimSpace(content) == "" {
		return nil
	}

	result := &models.AnalysisResult{
		ID:                 uuid.New().String(),
		BrandID:            brand.ID,
		Platform:           answer.Platform,
		Sentiment:          models.SentimentNeutral,
		MentionContexts:    []models.MentionContext{},
		CompetitorMentions: make(map[string]models.CompetitorMention),
		AnalyzedAt:         p.now().UTC(),
	}

	p.analyzeMentions(result, content, brand)
	p.analyzePosition(result, content, brand.Name)
	p.analyzeCitations(result, answer, brand)
	p.analyzeContext(result, content, brand)

	return result
}

func (p *Pipeline) analyzeMentions(result *models.AnalysisResult, content string, brand models.Brand) {
	mentions := entities.FindMentions(content, brand.Name, entities.DefaultContextWindow)
	result.MentionCount = mentions.Count
	result.BrandMentioned = mentions.Count > 0

	for i := 0; i < mentions.Count && i < MaxMentionContexts; i++ {
		result.MentionContexts = append(result.MentionContexts, models.MentionContext{
			Text:     mentions.Contexts[i],
			Position: mentions.Positions[i],
		})
	}

	if result.BrandMentioned {
		s := p.analyzer.AnalyzeMention(content, brand.Name, sentiment.DefaultMentionWindow)
		result.Sentiment = s.Label
		result.SentimentScore = s.Score
		result.SentimentConfidence = s.Confidence
	}

	for name, m := range entities.FindCompetitorMentions(content, brand.Competitors, entities.DefaultContextWindow) {
		contexts := m.Contexts
		if len(contexts) > MaxCompetitorContexts {
			contexts = contexts[:MaxCompetitorContexts]
		}
		result.CompetitorMentions[name] = models.CompetitorMention{
			Count:    m.Count,
			Contexts: contexts,
		}
	}
}

// analyzePosition looks for the brand in a detected list first and falls back to inline
// ranking patterns such as "3. Brand" or "#2: Brand".
func (p *Pipeline) analyzePosition(result *models.AnalysisResult, content, brand string) {
	isList, items := entities.DetectList(content)
	if isList {
		result.TotalRecommendations = len(items)
		if pos, ok := entities.FindPosition(items, brand); ok {
			result.Position = &pos
			return
		}
	} else {
		result.TotalRecommendations = entities.CountTotalRecommendations(content)
	}

	if pos, ok := entities.FindRankedPosition(content, brand); ok {
		result.Position = &pos
	}
}

// analyzeCitations counts an owned citation when it is hosted on the brand's domain or names
// the brand in its URL or title
func (p *Pipeline) analyzeCitations(result *models.AnalysisResult, answer models.RawAnswer, brand models.Brand) {
	cites := citations.Extract(answer.Content, citations.FromPayload(answer.NativePayload))
	if cites == nil {
		cites = []models.Citation{}
	}
	result.Citations = cites
	result.CitationCount = len(cites)

	stats := citations.GetEnhancedStats(answer.Content, cites, brand.Name)
	result.BrandAttributedCitations = stats.BrandAttributedCount
	result.OwnedCitations = len(citations.FindBrandCitations(cites, brand.Domain, brand.Name))
	result.CitationQuality = models.CitationQuality{
		AvgAuthority: stats.AvgAuthorityScore,
		SourceTypes:  stats.SourceTypeBreakdown,
	}
}

func (p *Pipeline) analyzeContext(result *models.AnalysisResult, content string, brand models.Brand) {
	mentions := p.extractor.ExtractContextualMentions(content, brand.Name, brand.Competitors)
	summary := entities.Summarize(mentions, brand.Name)
	result.MentionTypeBreakdown = summary.ByType
	result.ComparisonStats = summary.ComparisonStats

	detailed := p.analyzer.AnalyzeWithAspects(content, brand.Name)
	result.AspectSentiments = make([]models.AspectSentiment, 0, len(detailed.Aspects))
	for _, as := range detailed.Aspects {
		if len(as.Evidence) > MaxAspectEvidence {
			as.Evidence = as.Evidence[:MaxAspectEvidence]
		}
		result.AspectSentiments = append(result.AspectSentiments, as)
	}
	result.DominantAspect = detailed.DominantAspect
}
