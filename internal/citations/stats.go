package citations

import (
	"math"
	"sort"
	"strings"

	"github.com/azure/answer-engine-bot/internal/models"
)

// FindBrandCitations returns the citations hosted on the brand's domain or naming the brand
// in their URL or title
func FindBrandCitations(cites []models.Citation, brandDomain, brandName string) []models.Citation {
	domain := strings.ToLower(brandDomain)
	name := strings.ToLower(brandName)

	var matched []models.Citation
	for _, c := range cites {
		if domain != "" && strings.Contains(strings.ToLower(c.Domain), domain) {
			matched = append(matched, c)
			continue
		}
		if name == "" {
			continue
		}
		if strings.Contains(strings.ToLower(c.URL), name) || strings.Contains(strings.ToLower(c.Title), name) {
			matched = append(matched, c)
		}
	}
	return matched
}

// RankSources ranks cited domains by frequency, ties broken alphabetically. Percentages are
// rounded to one decimal.
func RankSources(cites []models.Citation) []models.SourceRank {
	counts := make(map[string]int)
	total := 0
	for _, c := range cites {
		if c.Domain == "" {
			continue
		}
		counts[c.Domain]++
		total++
	}
	if total == 0 {
		return []models.SourceRank{}
	}

	ranked := make([]models.SourceRank, 0, len(counts))
	for domain, count := range counts {
		ranked = append(ranked, models.SourceRank{
			Domain:     domain,
			Count:      count,
			Percentage: round(float64(count)/float64(total)*100, 1),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Domain < ranked[j].Domain
	})

	return ranked
}

// TopSources returns at most n entries of RankSources
func TopSources(cites []models.Citation, n int) []models.SourceRank {
	ranked := RankSources(cites)
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
