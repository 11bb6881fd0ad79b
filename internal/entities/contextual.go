package entities

import (
	"regexp"
	"sort"
	"strings"

	"github.com/azure/answer-engine-bot/internal/lexicon"
	"github.com/azure/answer-engine-bot/internal/models"
	"github.com/azure/answer-engine-bot/internal/textutil"
)

// ContextualWindow is the number of bytes examined on each side of a brand occurrence
const ContextualWindow = 200

// Placeholders expanded when a rule is compiled for a brand
const (
	brandToken  = "{brand}"
	targetToken = "{target}"
)

// mentionRule is one entry of the ordered classification table. The first rule whose
// match covers the brand occurrence decides the mention type.
type mentionRule struct {
	mentionType models.MentionType
	pattern     string
	confidence  float64
	// negatable rules do not fire when a negation word sits in or just before the match
	negatable bool
}

const sameSentence = `[^.!?\n]`

var mentionRules = []mentionRule{
	// recommendation
	{
		mentionType: models.MentionRecommendation,
		pattern:     `(?i:\b(?:recommend(?:ed|s)?|suggest(?:ed|s)?|choose|go with|opt for|top pick is|best bet is)\b)` + sameSentence + `{0,40}?` + brandToken,
		confidence:  0.85,
		negatable:   true,
	},
	{
		mentionType: models.MentionRecommendation,
		pattern:     brandToken + sameSentence + `{0,40}?(?i:\b(?:best|excellent|outstanding|top[- ](?:choice|pick|rated)|leading|ideal|great|superb|standout|highly rated)\b)`,
		confidence:  0.8,
		negatable:   true,
	},
	// criticism
	{
		mentionType: models.MentionCriticism,
		pattern:     `(?i:\b(?:avoid|don't use|do not use|stay away from|steer clear of|wouldn't recommend|would not recommend|not recommend|skip)\b)` + sameSentence + `{0,40}?` + brandToken,
		confidence:  0.8,
	},
	{
		mentionType: models.MentionCriticism,
		pattern:     brandToken + sameSentence + `{0,40}?(?i:\b(?:overpriced|buggy|unreliable|terrible|awful|poor|disappointing|clunky|outdated|lacking|frustrating|worst|problematic)\b)`,
		confidence:  0.8,
	},
	// comparison
	{
		mentionType: models.MentionComparison,
		pattern:     brandToken + `\s+(?i:vs\.?|versus)\s+` + targetToken,
		confidence:  0.75,
	},
	{
		mentionType: models.MentionComparison,
		pattern:     targetToken + `\s+(?i:vs\.?|versus)\s+` + brandToken,
		confidence:  0.75,
	},
	{
		mentionType: models.MentionComparison,
		pattern:     brandToken + sameSentence + `{0,30}?(?i:\b(?:better|worse|cheaper|faster|slower|easier|harder|stronger|weaker|more \w+|less \w+)\s+than)\s+` + targetToken,
		confidence:  0.75,
	},
	{
		mentionType: models.MentionComparison,
		pattern:     targetToken + sameSentence + `{0,30}?(?i:\b(?:better|worse|cheaper|faster|slower|easier|harder|stronger|weaker|more \w+|less \w+)\s+than)\s+` + brandToken,
		confidence:  0.75,
	},
	{
		mentionType: models.MentionComparison,
		pattern:     brandToken + sameSentence + `{0,30}?(?i:compared (?:to|with))\s+` + targetToken,
		confidence:  0.75,
	},
	{
		mentionType: models.MentionComparison,
		pattern:     `(?i:\b(?:comparing|compared (?:to|with)))\s+` + targetToken + `(?:\s+(?i:and|with|to|vs\.?|versus))?,?\s+` + brandToken,
		confidence:  0.75,
	},
	{
		mentionType: models.MentionComparison,
		pattern:     `(?i:\bcomparing)\s+` + brandToken + `\s+(?i:and|with|to|vs\.?|versus)\s+` + targetToken,
		confidence:  0.75,
	},
	// feature highlight
	{
		mentionType: models.MentionFeatureHighlight,
		pattern:     brandToken + `\s+(?i:offers|provides|has|features|includes|supports|comes with|delivers|lets you|allows)\s+` + sameSentence + `{3,}`,
		confidence:  0.7,
	},
}

const neutralConfidence = 0.5

// Win language for one side of a comparison. "{side} is worse" counts as a win for the
// other side. The captured gap between a side and its verb may not name the other side.
var (
	winTemplates = []string{
		`{side}(` + sameSentence + `{0,20}?)\b(?i:is|are)\s+(?i:(?:\w+\s+)?(?:better|superior|preferred|the winner|the better (?:choice|option)))`,
		`{side}\s+(?i:wins|comes out ahead|outperforms|excels)`,
		`(?i:\b(?:choose|recommend|prefer|go with|pick))\s+{side}`,
	}
	loseTemplates = []string{
		`{side}(` + sameSentence + `{0,20}?)\b(?i:is|are)\s+(?i:(?:\w+\s+)?(?:worse|inferior))`,
	}
)

// Capture for an unknown comparison target: one or two capitalized words on the same line.
// Dots are only allowed inside a word, as in "Monday.com".
const capitalizedName = `[A-Z0-9][\w&+-]*(?:\.[\w&+-]+)*(?:[ \t]+[A-Z0-9][\w&+-]*(?:\.[\w&+-]+)*)?`

type compiledRule struct {
	mentionRule
	re *regexp.Regexp
}

// Extractor classifies mentions using the shared lexicon
type Extractor struct {
	lex *lexicon.Lexicon
}

// NewExtractor creates a mention extractor backed by lex
func NewExtractor(lex *lexicon.Lexicon) *Extractor {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Extractor{lex: lex}
}

// ExtractContextualMentions classifies every occurrence of brand in content, in order of
// appearance
func (e *Extractor) ExtractContextualMentions(content, brand string, competitors []string) []models.ContextualMention {
	spans := textutil.FindAllFold(content, brand)
	if len(spans) == 0 {
		return []models.ContextualMention{}
	}

	rules := compileRules(brand, competitors)
	mentions := make([]models.ContextualMention, 0, len(spans))

	for _, span := range spans {
		lo, hi := textutil.Bounds(content, span.Start-ContextualWindow, span.End+ContextualWindow)
		window := content[lo:hi]
		rel := span.Start - lo

		mention := models.ContextualMention{
			TargetName:       brand,
			ContextSnippet:   strings.TrimSpace(window),
			MentionType:      models.MentionNeutral,
			PositionInText:   span.Start,
			AspectsMentioned: e.aspects(window),
			Confidence:       neutralConfidence,
		}

		for _, rule := range rules {
			target, ok := e.matchRule(rule, window, rel)
			if !ok {
				continue
			}
			mention.MentionType = rule.mentionType
			mention.Confidence = rule.confidence
			if rule.mentionType == models.MentionComparison {
				mention.ComparisonTarget = canonicalize(target, competitors)
				mention.ComparisonWinner = comparisonWinner(window, brand, mention.ComparisonTarget)
			}
			break
		}

		mentions = append(mentions, mention)
	}

	return mentions
}

func (e *Extractor) aspects(window string) []string {
	aspects := e.lex.MatchAspects(window)
	if aspects == nil {
		return []string{}
	}
	sort.Strings(aspects)
	return aspects
}

// matchRule reports whether a match of rule covers the occurrence starting at rel, and
// returns the captured comparison target, if any
func (e *Extractor) matchRule(rule compiledRule, window string, rel int) (string, bool) {
	for _, m := range rule.re.FindAllStringSubmatchIndex(window, -1) {
		if rel < m[0] || rel >= m[1] {
			continue
		}
		if rule.negatable && e.negated(window, m[0], m[1]) {
			continue
		}

		target := ""
		if len(m) >= 4 && m[2] >= 0 {
			target = strings.TrimRight(window[m[2]:m[3]], ".,;:!?")
			if target == "" {
				continue
			}
		}
		return target, true
	}
	return "", false
}

// negated checks the match and the few words before it, within the same sentence, for a
// negation
func (e *Extractor) negated(window string, start, end int) bool {
	lo, _ := textutil.Bounds(window, start-15, start)
	if cut := strings.LastIndexAny(window[lo:start], ".!?\n"); cut >= 0 {
		lo += cut + 1
	}
	for _, tok := range lexicon.Tokenize(window[lo:end]) {
		if e.lex.IsNegation(tok) {
			return true
		}
	}
	return false
}

func compileRules(brand string, competitors []string) []compiledRule {
	brandPattern := `(?i:` + regexp.QuoteMeta(brand) + `)`
	targetPattern := `(` + capitalizedName + `)`
	if known := competitorAlternation(competitors); known != "" {
		targetPattern = `(` + known + `|` + capitalizedName + `)`
	}

	rules := make([]compiledRule, 0, len(mentionRules))
	for _, r := range mentionRules {
		p := strings.ReplaceAll(r.pattern, brandToken, brandPattern)
		p = strings.ReplaceAll(p, targetToken, targetPattern)
		rules = append(rules, compiledRule{mentionRule: r, re: regexp.MustCompile(p)})
	}
	return rules
}

func competitorAlternation(competitors []string) string {
	var quoted []string
	for _, c := range competitors {
		if strings.TrimSpace(c) != "" {
			quoted = append(quoted, regexp.QuoteMeta(c))
		}
	}
	if len(quoted) == 0 {
		return ""
	}
	// longest first so "Beta Pro" wins over "Beta"
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return `(?i:` + strings.Join(quoted, "|") + `)`
}

// canonicalize maps a captured name onto the known competitor list, else keeps it verbatim
func canonicalize(name string, competitors []string) string {
	for _, c := range competitors {
		if strings.EqualFold(name, c) {
			return c
		}
	}
	lower := strings.ToLower(name)
	for _, c := range competitors {
		lc := strings.ToLower(c)
		if lc == "" {
			continue
		}
		if strings.Contains(lower, lc) || strings.Contains(lc, lower) {
			return c
		}
	}
	return name
}

// comparisonWinner decides a head-to-head from win language in the window. Exactly one
// side must win; otherwise the comparison is a draw and the winner is empty.
func comparisonWinner(window, brand, target string) string {
	if target == "" {
		return ""
	}
	brandWins := hasLanguage(window, brand, target, winTemplates) || hasLanguage(window, target, brand, loseTemplates)
	targetWins := hasLanguage(window, target, brand, winTemplates) || hasLanguage(window, brand, target, loseTemplates)

	switch {
	case brandWins && !targetWins:
		return brand
	case targetWins && !brandWins:
		return target
	default:
		return ""
	}
}

// hasLanguage reports whether a template matches side. A match whose gap names opponent
// is about the opponent and is skipped.
func hasLanguage(window, side, opponent string, templates []string) bool {
	sidePattern := `(?i:` + regexp.QuoteMeta(side) + `)`
	for _, tmpl := range templates {
		re := regexp.MustCompile(strings.ReplaceAll(tmpl, "{side}", sidePattern))
		// matches may overlap: a skipped match can hide a later occurrence of side
		for pos := 0; pos < len(window); {
			m := re.FindStringSubmatchIndex(window[pos:])
			if m == nil {
				break
			}
			if len(m) < 4 || m[2] < 0 || !textutil.ContainsFold(window[pos+m[2]:pos+m[3]], opponent) {
				return true
			}
			pos += m[0] + 1
		}
	}
	return false
}
