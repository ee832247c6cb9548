package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"clausewise-backend/models"
)

// compiledPatterns caches case-insensitive regexes for the fixed tables
var compiledPatterns = map[string]*regexp.Regexp{}

func init() {
	for _, table := range []map[string][]string{highRiskPatterns, mediumRiskPatterns, lowRiskPatterns} {
		for _, patterns := range table {
			for _, p := range patterns {
				if _, ok := compiledPatterns[p]; !ok {
					compiledPatterns[p] = regexp.MustCompile(`(?i)` + p)
				}
			}
		}
	}
}

// DetectFlags runs the pattern risk detector against one clause or document.
// It is pure and deterministic: identical input yields identical output. A
// pattern is reported at most once per invocation even if it matches several
// times. This always runs, even when the semantic path is used, because its
// findings also feed the risk aggregator.
func DetectFlags(text string) models.FlagReport {
	report := models.FlagReport{
		RedFlags:    scanTable(text, highRiskPatterns, models.RiskHigh),
		YellowFlags: scanTable(text, mediumRiskPatterns, models.RiskMedium),
		GreenFlags:  scanTable(text, lowRiskPatterns, models.RiskLow),
	}
	report.OverallRisk = RiskLevelFromCounts(len(report.RedFlags), len(report.YellowFlags))
	return report
}

func scanTable(text string, table map[string][]string, severity models.RiskLevel) []models.FlagFinding {
	// map iteration order is random; sort categories for determinism
	categories := make([]string, 0, len(table))
	for category := range table {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var findings []models.FlagFinding
	for _, category := range categories {
		for _, pattern := range table[category] {
			re := compiledPatterns[pattern]
			// the regexes carry (?i); matching the original text keeps the
			// offsets valid for snippet extraction
			loc := re.FindStringIndex(text)
			if loc == nil {
				continue
			}
			findings = append(findings, models.FlagFinding{
				Category:    aliasCategory(category),
				Pattern:     pattern,
				Severity:    severity,
				Reason:      flagReason(pattern, severity),
				TextSnippet: textSnippet(text, loc[0], loc[1]),
			})
		}
	}
	return findings
}

func aliasCategory(category string) string {
	if alias, ok := patternCategoryAliases[category]; ok {
		return alias
	}
	return category
}

// flagReason looks up the human explanation for a pattern, falling back to a
// generic severity message for unmapped patterns
func flagReason(pattern string, severity models.RiskLevel) string {
	if reason, ok := flagReasons[pattern]; ok {
		return reason
	}
	return fmt.Sprintf("%s risk detected: %s", severity, pattern)
}

// textSnippet returns the ±50 character window around a match
func textSnippet(text string, start, end int) string {
	from := start - 50
	if from < 0 {
		from = 0
	}
	to := end + 50
	if to > len(text) {
		to = len(text)
	}

	snippet := text[from:to]
	if from > 0 {
		snippet = "..." + snippet
	}
	if to < len(text) {
		snippet = snippet + "..."
	}
	return snippet
}

// RiskLevelFromCounts derives a pattern-only risk level from flag counts
func RiskLevelFromCounts(redCount, yellowCount int) models.RiskLevel {
	if redCount > 0 {
		return models.RiskHigh
	}
	if yellowCount >= 1 {
		return models.RiskMedium
	}
	return models.RiskLow
}

// CategorizeClause assigns a clause to the closed category set by keyword
// scoring; ties and zero scores fall through to "other"
func CategorizeClause(text string) models.ClauseCategory {
	lowered := strings.ToLower(text)

	best := models.CategoryOther
	maxScore := 0

	// evaluate in a fixed order so equal scores resolve deterministically
	for _, category := range models.AllCategories {
		keywords, ok := categoryKeywords[string(category)]
		if !ok {
			continue
		}
		score := 0
		for _, keyword := range keywords {
			if strings.Contains(lowered, keyword) {
				score++
			}
		}
		if score > maxScore {
			maxScore = score
			best = category
		}
	}

	return best
}
