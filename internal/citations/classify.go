package citations

import (
	"strings"

	"github.com/azure/answer-engine-bot/internal/models"
)

var reviewSites = []string{
	"g2.com", "capterra.com", "trustradius.com", "trustpilot.com", "getapp.com",
	"softwareadvice.com", "gartner.com", "producthunt.com", "sitejabber.com",
	"consumerreports.org", "yelp.com", "bbb.org", "softwarereviews.com",
}

var newsSites = []string{
	"bloomberg.com", "reuters.com", "nytimes.com", "wsj.com", "ft.com", "forbes.com",
	"techcrunch.com", "theverge.com", "wired.com", "cnbc.com", "bbc.com", "bbc.co.uk",
	"theguardian.com", "washingtonpost.com", "apnews.com", "businessinsider.com",
	"venturebeat.com", "zdnet.com", "cnet.com", "engadget.com", "arstechnica.com",
	"pcmag.com", "axios.com", "infoworld.com",
}

var communitySites = []string{
	"reddit.com", "quora.com", "stackoverflow.com", "stackexchange.com",
	"news.ycombinator.com", "twitter.com", "x.com", "linkedin.com", "facebook.com",
	"youtube.com", "github.com", "discord.com",
}

var blogPlatforms = []string{
	"medium.com", "substack.com", "dev.to", "hashnode.dev", "wordpress.com",
}

type sourceRule struct {
	sourceType models.SourceType
	matches    func(domain string) bool
}

// Checked in order, first match wins
var sourceRules = []sourceRule{
	{models.SourceReviewSite, inSet(reviewSites)},
	{models.SourceNews, inSet(newsSites)},
	{models.SourceCommunity, inSet(communitySites)},
	{models.SourceBlog, func(d string) bool { return strings.Contains(d, "blog") || inSet(blogPlatforms)(d) }},
	{models.SourceOfficial, isOfficialTLD},
}

var defaultAuthority = map[models.SourceType]float64{
	models.SourceReviewSite: 0.80,
	models.SourceNews:       0.75,
	models.SourceOfficial:   0.85,
	models.SourceCommunity:  0.50,
	models.SourceBlog:       0.45,
	models.SourceOther:      0.40,
}

// Exact-domain authority overrides
var authorityOverrides = map[string]float64{
	"g2.com":               0.95,
	"gartner.com":          0.95,
	"forrester.com":        0.90,
	"trustradius.com":      0.85,
	"bloomberg.com":        0.95,
	"reuters.com":          0.95,
	"nytimes.com":          0.93,
	"wsj.com":              0.93,
	"ft.com":               0.92,
	"techcrunch.com":       0.85,
	"forbes.com":           0.85,
	"wikipedia.org":        0.90,
	"en.wikipedia.org":     0.90,
	"stackoverflow.com":    0.70,
	"github.com":           0.70,
	"news.ycombinator.com": 0.60,
}

// ClassifySourceType buckets a citation domain into a source type
func ClassifySourceType(domain string) models.SourceType {
	d := NormalizeDomain(domain)
	if d == "" {
		return models.SourceOther
	}
	for _, rule := range sourceRules {
		if rule.matches(d) {
			return rule.sourceType
		}
	}
	return models.SourceOther
}

// AuthorityScore rates how authoritative a domain is, from 0 to 1
func AuthorityScore(domain string, sourceType models.SourceType) float64 {
	if score, ok := authorityOverrides[NormalizeDomain(domain)]; ok {
		return score
	}
	if score, ok := defaultAuthority[sourceType]; ok {
		return score
	}
	return defaultAuthority[models.SourceOther]
}

// NormalizeDomain lowercases a host, drops its port and a leading www.
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	if !strings.HasPrefix(d, "[") {
		if host, _, found := strings.Cut(d, ":"); found {
			d = host
		}
	}
	d = strings.TrimSuffix(d, ".")
	return strings.TrimPrefix(d, "www.")
}

func inSet(domains []string) func(string) bool {
	return func(d string) bool {
		for _, candidate := range domains {
			if d == candidate || strings.HasSuffix(d, "."+candidate) {
				return true
			}
		}
		return false
	}
}

func isOfficialTLD(d string) bool {
	for _, tld := range []string{".gov", ".edu"} {
		if strings.HasSuffix(d, tld) || strings.Contains(d, tld+".") || strings.HasPrefix(d, tld[1:]+".") {
			return true
		}
	}
	return false
}
