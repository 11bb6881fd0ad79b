package sentiment

import (
	"math"

	"github.com/azure/answer-engine-bot/internal/lexicon"
	"github.com/azure/answer-engine-bot/internal/models"
	"github.com/azure/answer-engine-bot/internal/textutil"
)

const (
	aspectHitWeight  = 1.0
	genericHitWeight = 0.5
)

// DetailedSentiment is overall sentiment plus a per-aspect breakdown
type DetailedSentiment struct {
	Overall        models.SentimentResult   `json:"overall"`
	Aspects        []models.AspectSentiment `json:"aspects"`
	DominantAspect string                   `json:"dominant_aspect,omitempty"`
}

// AnalyzeWithAspects scores each aspect over the sentences that mention one of its keywords.
// Aspect-specific polarity phrases weigh 1.0 and generic lexicon words 0.5. Aspects without
// a qualifying sentence are left out. The dominant aspect has the most qualifying sentences,
// ties going to the larger absolute score and then to aspect order.
func (a *Analyzer) AnalyzeWithAspects(text, brand string) DetailedSentiment {
	detailed := DetailedSentiment{
		Aspects: []models.AspectSentiment{},
	}

	if brand != "" && len(textutil.FindAllFold(text, brand)) > 0 {
		detailed.Overall = a.AnalyzeMention(text, brand, DefaultMentionWindow)
	} else {
		detailed.Overall = a.Analyze(text)
	}

	sentences := textutil.Sentences(text)
	for _, aspect := range a.lex.AspectNames() {
		var evidence []string
		var pos, neg float64

		for _, sentence := range sentences {
			if !a.lex.MentionsAspect(aspect, sentence) {
				continue
			}
			evidence = append(evidence, sentence)

			ap, an := a.lex.CountAspectPolarity(aspect, sentence)
			gp, gn := a.count(lexicon.Tokenize(sentence))
			pos += float64(ap)*aspectHitWeight + float64(gp)*genericHitWeight
			neg += float64(an)*aspectHitWeight + float64(gn)*genericHitWeight
		}

		if len(evidence) == 0 {
			continue
		}

		detailed.Aspects = append(detailed.Aspects, models.AspectSentiment{
			SentimentResult: score(pos, neg),
			Aspect:          aspect,
			Evidence:        evidence,
			MentionCount:    len(evidence),
		})
	}

	detailed.DominantAspect = dominantAspect(detailed.Aspects)
	return detailed
}

func dominantAspect(aspects []models.AspectSentiment) string {
	best := -1
	for i, as := range aspects {
		if best < 0 {
			best = i
			continue
		}
		b := aspects[best]
		if as.MentionCount > b.MentionCount ||
			(as.MentionCount == b.MentionCount && math.Abs(as.Score) > math.Abs(b.Score)) {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return aspects[best].Aspect
}
