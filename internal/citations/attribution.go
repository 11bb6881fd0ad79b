package citations

import (
	"strconv"
	"strings"

	"github.com/azure/answer-engine-bot/internal/models"
	"github.com/azure/answer-engine-bot/internal/textutil"
)

const (
	// maxAttributionDistance is how far apart a [n] marker and a brand mention may start
	maxAttributionDistance = 300
	contextPadding         = 75
)

// EnhancedStats summarizes citation quality for one answer
type EnhancedStats struct {
	Total                int                       `json:"total"`
	BrandAttributedCount int                       `json:"brand_attributed_count"`
	AvgAuthorityScore    float64                   `json:"avg_authority_score"`
	SourceTypeBreakdown  map[string]int            `json:"source_type_breakdown"`
	Citations            []models.EnhancedCitation `json:"citations"`
}

// AttributeCitationsToMentions classifies every citation and decides whether it backs a
// brand mention. A citation is attributed when one of its [n] markers starts within 300
// bytes of a brand occurrence; otherwise when the brand appears in its URL or title.
// Citations without a reference number use their 1-based list index.
func AttributeCitationsToMentions(content string, cites []models.Citation, brand string) []models.EnhancedCitation {
	if len(cites) == 0 {
		return nil
	}

	refPositions := ReferencePositions(content)
	brandSpans := textutil.FindAllFold(content, brand)

	enhanced := make([]models.EnhancedCitation, 0, len(cites))
	for i, c := range cites {
		if c.ReferenceNumber == 0 {
			c.ReferenceNumber = i + 1
		}

		sourceType := ClassifySourceType(c.Domain)
		ec := models.EnhancedCitation{
			Citation:       c,
			SourceType:     sourceType,
			AuthorityScore: AuthorityScore(c.Domain, sourceType),
		}

		if context, ok := closestBrandContext(content, refPositions[c.ReferenceNumber], c.ReferenceNumber, brandSpans); ok {
			ec.MentionsBrand = true
			ec.BrandContext = context
		} else if brand != "" {
			b := strings.ToLower(brand)
			ec.MentionsBrand = strings.Contains(strings.ToLower(c.URL), b) || strings.Contains(strings.ToLower(c.Title), b)
		}

		enhanced = append(enhanced, ec)
	}

	return enhanced
}

// closestBrandContext finds the closest (marker, brand) pair within range and returns the
// padded text spanning both
func closestBrandContext(content string, refStarts []int, ref int, brandSpans []textutil.Span) (string, bool) {
	if len(refStarts) == 0 || len(brandSpans) == 0 {
		return "", false
	}

	markerLen := len("[]") + len(strconv.Itoa(ref))
	best := -1
	var lo, hi int

	for _, rs := range refStarts {
		for _, bs := range brandSpans {
			distance := rs - bs.Start
			if distance < 0 {
				distance = -distance
			}
			if distance > maxAttributionDistance {
				continue
			}
			if best >= 0 && distance >= best {
				continue
			}
			best = distance
			lo = min(rs, bs.Start)
			hi = max(rs+markerLen, bs.End)
		}
	}

	if best < 0 {
		return "", false
	}
	return strings.TrimSpace(textutil.Window(content, lo, hi, contextPadding)), true
}

// GetEnhancedStats attributes the citations and summarizes their quality
func GetEnhancedStats(content string, cites []models.Citation, brand string) EnhancedStats {
	enhanced := AttributeCitationsToMentions(content, cites, brand)

	stats := EnhancedStats{
		Total:               len(enhanced),
		SourceTypeBreakdown: make(map[string]int),
		Citations:           enhanced,
	}
	if len(enhanced) == 0 {
		return stats
	}

	var authority float64
	for _, ec := range enhanced {
		if ec.MentionsBrand {
			stats.BrandAttributedCount++
		}
		authority += ec.AuthorityScore
		stats.SourceTypeBreakdown[string(ec.SourceType)]++
	}
	stats.AvgAuthorityScore = round(authority/float64(len(enhanced)), 3)

	return stats
}
