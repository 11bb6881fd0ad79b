package lexicon

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Aspect names, in the order they are reported
const (
	AspectPricing     = "pricing"
	AspectFeatures    = "features"
	AspectSupport     = "support"
	AspectEaseOfUse   = "ease_of_use"
	AspectPerformance = "performance"
	AspectIntegration = "integration"
	AspectSecurity    = "security"
)

// Aspect is a topical facet with its trigger keywords and facet-specific polarity words
type Aspect struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

// Lexicon holds the read-only word tables shared by the mention and sentiment analyzers.
// A Lexicon is never mutated after construction and is safe for concurrent use.
type Lexicon struct {
	positive map[string]bool
	negative map[string]bool
	negation map[string]bool
	aspects  []compiledAspect
}

type compiledAspect struct {
	Aspect
	keywords *regexp.Regexp
	positive *regexp.Regexp
	negative *regexp.Regexp
}

// File is the YAML shape accepted by Load. Words are added to the built-in tables.
type File struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
	Negation []string `yaml:"negation"`
	Aspects  []Aspect `yaml:"aspects"`
}

var (
	defaultLexicon     *Lexicon
	defaultLexiconOnce sync.Once
)

// Default returns the built-in lexicon
func Default() *Lexicon {
	defaultLexiconOnce.Do(func() {
		defaultLexicon = build(File{})
	})
	return defaultLexicon
}

// Load builds a lexicon from the built-in tables extended by the YAML file at path
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file %s: %w", path, err)
	}

	var extra File
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon file %s: %w", path, err)
	}

	return build(extra), nil
}

func build(extra File) *Lexicon {
	lex := &Lexicon{
		positive: toSet(positiveWords, extra.Positive),
		negative: toSet(negativeWords, extra.Negative),
		negation: toSet(negationWords, extra.Negation),
	}

	extraByName := make(map[string]Aspect)
	for _, a := range extra.Aspects {
		extraByName[strings.ToLower(a.Name)] = a
	}

	for _, base := range defaultAspects {
		merged := base
		if add, ok := extraByName[base.Name]; ok {
			merged.Keywords = append(append([]string{}, base.Keywords...), add.Keywords...)
			merged.Positive = append(append([]string{}, base.Positive...), add.Positive...)
			merged.Negative = append(append([]string{}, base.Negative...), add.Negative...)
		}
		lex.aspects = append(lex.aspects, compileAspect(merged))
	}

	return lex
}

func toSet(base []string, extra []string) map[string]bool {
	set := make(map[string]bool, len(base)+len(extra))
	for _, w := range base {
		set[strings.ToLower(w)] = true
	}
	for _, w := range extra {
		set[strings.ToLower(strings.TrimSpace(w))] = true
	}
	return set
}

func compileAspect(a Aspect) compiledAspect {
	return compiledAspect{
		Aspect:   a,
		keywords: wordPattern(a.Keywords),
		positive: wordPattern(a.Positive),
		negative: wordPattern(a.Negative),
	}
}

// wordPattern matches any of the phrases on word boundaries
func wordPattern(words []string) *regexp.Regexp {
	if len(words) == 0 {
		return nil
	}
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// IsPositive reports whether token is in the positive lexicon
func (l *Lexicon) IsPositive(token string) bool {
	return l.positive[token]
}

// IsNegative reports whether token is in the negative lexicon
func (l *Lexicon) IsNegative(token string) bool {
	return l.negative[token]
}

// IsNegation reports whether token negates the sentiment words that follow it.
// Contractions such as "don't" and "isn't" count through their n't suffix.
func (l *Lexicon) IsNegation(token string) bool {
	if l.negation[token] {
		return true
	}
	return strings.HasSuffix(token, "n't")
}

// AspectNames returns the aspect names in report order
func (l *Lexicon) AspectNames() []string {
	names := make([]string, len(l.aspects))
	for i, a := range l.aspects {
		names[i] = a.Name
	}
	return names
}

// MatchAspects returns every aspect with at least one keyword in text, in report order
func (l *Lexicon) MatchAspects(text string) []string {
	lower := strings.ToLower(text)
	var matched []string
	for _, a := range l.aspects {
		if a.keywords != nil && a.keywords.MatchString(lower) {
			matched = append(matched, a.Name)
		}
	}
	return matched
}

// MentionsAspect reports whether text contains a keyword of the named aspect
func (l *Lexicon) MentionsAspect(aspect, text string) bool {
	a := l.aspect(aspect)
	if a == nil || a.keywords == nil {
		return false
	}
	return a.keywords.MatchString(strings.ToLower(text))
}

// CountAspectPolarity counts facet-specific positive and negative phrases in text
func (l *Lexicon) CountAspectPolarity(aspect, text string) (positive, negative int) {
	a := l.aspect(aspect)
	if a == nil {
		return 0, 0
	}
	lower := strings.ToLower(text)
	if a.positive != nil {
		positive = len(a.positive.FindAllStringIndex(lower, -1))
	}
	if a.negative != nil {
		negative = len(a.negative.FindAllStringIndex(lower, -1))
	}
	return positive, negative
}

func (l *Lexicon) aspect(name string) *compiledAspect {
	for i := range l.aspects {
		if l.aspects[i].Name == name {
			return &l.aspects[i]
		}
	}
	return nil
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+(?:'[\p{L}]+)?`)

// Tokenize lowercases text and splits it into word tokens, keeping contractions whole
func Tokenize(text string) []string {
	lower := strings.ToLower(strings.ReplaceAll(text, "’", "'"))
	return tokenPattern.FindAllString(lower, -1)
}
