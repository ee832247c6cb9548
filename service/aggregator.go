package service

import (
	"fmt"
	"math"

	"clausewise-backend/models"
)

// FinalRiskLevel merges the semantic classifier's output with its numeric
// risk score. A score of 70 or above forces HIGH and 30 or below forces LOW
// regardless of the categorical label; between the thresholds the label wins.
// Pattern-detector HIGH findings are handled separately by the caller and are
// never downgraded: they are always unioned into the concern list.
func FinalRiskLevel(classified models.RiskLevel, riskScore int) models.RiskLevel {
	if riskScore >= 70 {
		return models.RiskHigh
	}
	if riskScore <= 30 {
		return models.RiskLow
	}

	switch classified {
	case models.RiskHigh:
		return models.RiskHigh
	case models.RiskMedium:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// DocumentRiskScore computes the 0-100 document score from flag counts. Red
// flags weigh double yellow ones and green flags contribute nothing to the
// numerator, so any single red flag materially moves the score. A document
// with zero classified clauses scores 0.
func DocumentRiskScore(redCount, yellowCount, greenCount int) int {
	total := redCount + yellowCount + greenCount
	if total == 0 {
		return 0
	}

	score := float64(redCount*100+yellowCount*50) / float64(total*100) * 100
	rounded := int(math.Round(score))
	if rounded > 100 {
		return 100
	}
	return rounded
}

// AnalysisSummary builds the human-readable summary line of a risk report
func AnalysisSummary(redFlags, yellowFlags, greenFlags []models.AnalyzedClause) string {
	score := DocumentRiskScore(len(redFlags), len(yellowFlags), len(greenFlags))

	var summary string
	if len(redFlags) > 0 {
		summary += fmt.Sprintf("CRITICAL: Found %d high-risk clause(s) that take away your rights. ", len(redFlags))
	}
	if len(yellowFlags) > 0 {
		summary += fmt.Sprintf("WARNING: Found %d medium-risk clause(s) requiring attention. ", len(yellowFlags))
	}
	if len(greenFlags) > 0 {
		summary += fmt.Sprintf("Good: Found %d fair/standard clause(s). ", len(greenFlags))
	}
	summary += fmt.Sprintf("Overall Risk Score: %d/100", score)

	return summary
}
