package entities

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const minListItems = 3

var (
	numberedLinePattern = regexp.MustCompile(`^\s*\d+\.\s+(.+)$`)
	bulletLinePattern   = regexp.MustCompile(`^\s*[-*•]\s+(.+)$`)
	inlineMarkerPattern = regexp.MustCompile(`(\d+)\.\s`)
	recommendationLine  = regexp.MustCompile(`^\s*\d+[.)]\s*.+$`)
)

// inlineIntroPattern matches the text that may precede the "1." of an inline enumeration
var inlineIntroPattern = regexp.MustCompile(`(?i)(?:^|[:.!?;\-–]|\b(?:include|includes|including|are|is|options|picks|recommendations|choices|following|alternatives))$`)

// DetectList reports whether content is structured as a list and returns its items.
// Three or more numbered lines make a numbered list, which wins over bullets; otherwise
// three or more bullet lines make a bullet list. Failing both, a single line enumerating
// "1. ... 2. ..." counts as a numbered list.
func DetectList(content string) (bool, []string) {
	lines := strings.Split(content, "\n")

	var numbered, bullets []string
	for _, line := range lines {
		if m := numberedLinePattern.FindStringSubmatch(line); m != nil {
			numbered = append(numbered, strings.TrimSpace(m[1]))
			continue
		}
		if m := bulletLinePattern.FindStringSubmatch(line); m != nil {
			bullets = append(bullets, strings.TrimSpace(m[1]))
		}
	}

	if len(numbered) >= minListItems {
		return true, numbered
	}
	if len(bullets) >= minListItems {
		return true, bullets
	}

	for _, line := range lines {
		if items := inlineEnumeration(line); len(items) >= 2 {
			return true, items
		}
	}

	return false, nil
}

// inlineEnumeration extracts "1. a 2. b 3. c" from a single line. Markers must stand alone
// as words, start at 1 and increase by one; the run ends at the first marker out of
// sequence. The "1." must open the line or follow a colon, a sentence end or a phrase
// introducing the list, so stray numbers in prose are not read as an enumeration.
func inlineEnumeration(line string) []string {
	var markers [][]int
	for _, m := range inlineMarkerPattern.FindAllStringSubmatchIndex(line, -1) {
		if m[2] > 0 && !unicode.IsSpace(rune(line[m[2]-1])) {
			continue
		}
		markers = append(markers, m)
	}

	start := -1
	for i, m := range markers {
		if line[m[2]:m[3]] == "1" && inlineIntroPattern.MatchString(strings.TrimSpace(line[:m[2]])) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	run := [][]int{markers[start]}
	for _, m := range markers[start+1:] {
		n, _ := strconv.Atoi(line[m[2]:m[3]])
		prev, _ := strconv.Atoi(line[run[len(run)-1][2]:run[len(run)-1][3]])
		if n != prev+1 {
			break
		}
		run = append(run, m)
	}
	if len(run) < 2 {
		return nil
	}

	items := make([]string, 0, len(run))
	for i, m := range run {
		end := len(line)
		if i+1 < len(run) {
			end = run[i+1][2]
		}
		items = append(items, strings.TrimSpace(line[m[1]:end]))
	}
	return items
}

// FindPosition returns the 1-based index of the first item mentioning brand
func FindPosition(items []string, brand string) (int, bool) {
	if strings.TrimSpace(brand) == "" {
		return 0, false
	}
	b := strings.ToLower(brand)
	for i, item := range items {
		if strings.Contains(strings.ToLower(item), b) {
			return i + 1, true
		}
	}
	return 0, false
}

// FindRankedPosition looks for explicit rank markers in front of the brand
// ("2. Brand", "2) Brand", "#2: Brand", "2 - Brand")
func FindRankedPosition(content, brand string) (int, bool) {
	if strings.TrimSpace(brand) == "" {
		return 0, false
	}
	b := regexp.QuoteMeta(brand)
	patterns := []string{
		`(\d+)\.\s+` + b,
		`(\d+)\)\s+` + b,
		`#(\d+)[:\s]+` + b,
		`(\d+)\s*[-–]\s*` + b,
	}
	for _, p := range patterns {
		m := regexp.MustCompile(`(?i)` + p).FindStringSubmatch(content)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	return 0, false
}

// CountTotalRecommendations counts the numbered lines ("1." or "1)") in content
func CountTotalRecommendations(content string) int {
	count := 0
	for _, line := range strings.Split(content, "\n") {
		if recommendationLine.MatchString(line) {
			count++
		}
	}
	return count
}
