// Package sentiment scores text with a lexicon and negation heuristic, per mention and per
// aspect.
package sentiment

import (
	"math"

	"github.com/azure/answer-engine-bot/internal/lexicon"
	"github.com/azure/answer-engine-bot/internal/models"
	"github.com/azure/answer-engine-bot/internal/textutil"
)

const (
	// DefaultMentionWindow is the number of bytes scored on each side of a brand mention
	DefaultMentionWindow = 100

	negationLookback  = 3
	positiveThreshold = 0.2
	negativeThreshold = -0.2
	maxConfidence     = 0.9
	noMatchConfidence = 0.5
	// matches needed to reach full confidence, before the cap
	confidenceScale = 10.0
)

// Analyzer is a rule-based sentiment scorer. It holds no mutable state.
type Analyzer struct {
	lex *lexicon.Lexicon
}

// NewAnalyzer creates an analyzer over lex, or the built-in lexicon when lex is nil
func NewAnalyzer(lex *lexicon.Lexicon) *Analyzer {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Analyzer{lex: lex}
}

// Analyze scores text. A sentiment word preceded within three tokens by a negation counts
// for the opposite polarity. Text without sentiment words is neutral with confidence 0.5.
func (a *Analyzer) Analyze(text string) models.SentimentResult {
	pos, neg := a.count(lexicon.Tokenize(text))
	return score(float64(pos), float64(neg))
}

// count tallies positive and negative hits among tokens, applying negation
func (a *Analyzer) count(tokens []string) (pos, neg int) {
	for i, tok := range tokens {
		var polarity int
		switch {
		case a.lex.IsPositive(tok):
			polarity = 1
		case a.lex.IsNegative(tok):
			polarity = -1
		default:
			continue
		}

		if a.negated(tokens, i) {
			polarity = -polarity
		}
		if polarity > 0 {
			pos++
		} else {
			neg++
		}
	}
	return pos, neg
}

func (a *Analyzer) negated(tokens []string, i int) bool {
	for j := max(0, i-negationLookback); j < i; j++ {
		if a.lex.IsNegation(tokens[j]) {
			return true
		}
	}
	return false
}

// score turns weighted hit counts into a result
func score(pos, neg float64) models.SentimentResult {
	total := pos + neg
	if total == 0 {
		return models.SentimentResult{
			Label:      models.SentimentNeutral,
			Score:      0,
			Confidence: noMatchConfidence,
		}
	}

	s := (pos - neg) / total
	return models.SentimentResult{
		Label:      label(s),
		Score:      s,
		Confidence: math.Min(maxConfidence, total/confidenceScale),
	}
}

func label(score float64) string {
	switch {
	case score > positiveThreshold:
		return models.SentimentPositive
	case score < negativeThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// AnalyzeMention scores the text around the first occurrence of brand. When brand does not
// occur the result is neutral with zero confidence.
func (a *Analyzer) AnalyzeMention(text, brand string, window int) models.SentimentResult {
	spans := textutil.FindAllFold(text, brand)
	if len(spans) == 0 {
		return models.SentimentResult{Label: models.SentimentNeutral}
	}

	context := textutil.Window(text, spans[0].Start, spans[0].End, window)
	result := a.Analyze(context)
	result.Context = context
	return result
}

// AnalyzeMultipleMentions scores the text around every occurrence of brand
func (a *Analyzer) AnalyzeMultipleMentions(text, brand string, window int) []models.SentimentResult {
	spans := textutil.FindAllFold(text, brand)
	results := make([]models.SentimentResult, 0, len(spans))
	for _, span := range spans {
		context := textutil.Window(text, span.Start, span.End, window)
		result := a.Analyze(context)
		result.Context = context
		results = append(results, result)
	}
	return results
}

// Aggregate combines results into their confidence-weighted mean. The aggregate confidence
// is the mean confidence. No results, or no confidence at all, gives neutral/0/0.
func Aggregate(results []models.SentimentResult) models.SentimentResult {
	neutral := models.SentimentResult{Label: models.SentimentNeutral}
	if len(results) == 0 {
		return neutral
	}

	var weight, weighted float64
	for _, r := range results {
		weight += r.Confidence
		weighted += r.Score * r.Confidence
	}
	if weight == 0 {
		return neutral
	}

	s := weighted / weight
	return models.SentimentResult{
		Label:      label(s),
		Score:      s,
		Confidence: weight / float64(len(results)),
	}
}
