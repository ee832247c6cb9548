package service

import (
	"strings"
	"testing"

	"clausewise-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFlagsRedFlag(t *testing.T) {
	report := DetectFlags("All payments are strictly non-refundable under any circumstances.")

	require.NotEmpty(t, report.RedFlags)
	assert.Equal(t, models.RiskHigh, report.OverallRisk)

	var found *models.FlagFinding
	for i := range report.RedFlags {
		if report.RedFlags[i].Pattern == `non-refundable` {
			found = &report.RedFlags[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "payment", found.Category)
	assert.Equal(t, models.RiskHigh, found.Severity)
	assert.Equal(t, "You cannot get your money back", found.Reason)
	assert.Contains(t, found.TextSnippet, "non-refundable")
}

func TestDetectFlagsUnicodePreservesSnippetOffsets(t *testing.T) {
	// characters whose lowercase form has a different byte length must not
	// shift the match window out of bounds
	text := strings.Repeat("Ⱥ", 200) + " All fees are non-refundable."
	report := DetectFlags(text)

	require.NotEmpty(t, report.RedFlags)
	var found *models.FlagFinding
	for i := range report.RedFlags {
		if report.RedFlags[i].Pattern == `non-refundable` {
			found = &report.RedFlags[i]
		}
	}
	require.NotNil(t, found)
	assert.Contains(t, found.TextSnippet, "non-refundable")
	assert.True(t, strings.HasPrefix(found.TextSnippet, "..."))
}

func TestDetectFlagsMatchesMixedCase(t *testing.T) {
	report := DetectFlags("ALL PAYMENTS ARE NON-REFUNDABLE.")

	require.NotEmpty(t, report.RedFlags)
	assert.Equal(t, models.RiskHigh, report.OverallRisk)
}

func TestDetectFlagsYellowOnly(t *testing.T) {
	report := DetectFlags("These terms are subject to change at our discretion.")

	assert.Empty(t, report.RedFlags)
	assert.NotEmpty(t, report.YellowFlags)
	assert.Equal(t, models.RiskMedium, report.OverallRisk)
}

func TestDetectFlagsGreenFlag(t *testing.T) {
	report := DetectFlags("We comply with GDPR and you may delete your account at any time.")

	assert.Empty(t, report.RedFlags)
	assert.NotEmpty(t, report.GreenFlags)
	assert.Equal(t, models.RiskLow, report.OverallRisk)

	reasons := make([]string, 0, len(report.GreenFlags))
	for _, f := range report.GreenFlags {
		reasons = append(reasons, f.Reason)
	}
	assert.Contains(t, reasons, "Complies with GDPR data protection")
}

func TestDetectFlagsBenignText(t *testing.T) {
	report := DetectFlags("This agreement describes how the parties will work together.")

	assert.Empty(t, report.RedFlags)
	assert.Empty(t, report.YellowFlags)
	assert.Equal(t, models.RiskLow, report.OverallRisk)
}

func TestDetectFlagsGenericReasonFallback(t *testing.T) {
	report := DetectFlags("You agree to mandatory arbitration for all disputes.")

	var found *models.FlagFinding
	for i := range report.RedFlags {
		if report.RedFlags[i].Pattern == `mandatory arbitration` {
			found = &report.RedFlags[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "HIGH risk detected: mandatory arbitration", found.Reason)
}

func TestDetectFlagsSnippetWindow(t *testing.T) {
	padding := strings.Repeat("lorem ipsum dolor sit amet consectetur ", 5)
	text := padding + "all charges are non-refundable " + padding

	report := DetectFlags(text)

	var found *models.FlagFinding
	for i := range report.RedFlags {
		if report.RedFlags[i].Pattern == `non-refundable` {
			found = &report.RedFlags[i]
		}
	}
	require.NotNil(t, found)
	assert.True(t, strings.HasPrefix(found.TextSnippet, "..."))
	assert.True(t, strings.HasSuffix(found.TextSnippet, "..."))
	assert.Contains(t, found.TextSnippet, "non-refundable")
}

func TestDetectFlagsDeterministic(t *testing.T) {
	text := "We may share data with third party partners. All fees are non-refundable. " +
		"Your account may be suspended and these terms are subject to change."

	first := DetectFlags(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DetectFlags(text))
	}
}

func TestDetectFlagsPatternReportedOnce(t *testing.T) {
	report := DetectFlags("Fees are non-refundable. Deposits are non-refundable. Everything is non-refundable.")

	count := 0
	for _, f := range report.RedFlags {
		if f.Pattern == `non-refundable` {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRiskLevelFromCounts(t *testing.T) {
	assert.Equal(t, models.RiskHigh, RiskLevelFromCounts(1, 0))
	assert.Equal(t, models.RiskHigh, RiskLevelFromCounts(2, 5))
	assert.Equal(t, models.RiskMedium, RiskLevelFromCounts(0, 1))
	assert.Equal(t, models.RiskLow, RiskLevelFromCounts(0, 0))
}

func TestCategorizeClause(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		expect models.ClauseCategory
	}{
		{
			name:   "payment",
			text:   "A monthly fee applies to your subscription and billing occurs in advance; no refund is given.",
			expect: models.CategoryPayment,
		},
		{
			name:   "data privacy",
			text:   "We collect and process personal information and store your data securely.",
			expect: models.CategoryDataPrivacy,
		},
		{
			name:   "arbitration",
			text:   "Any dispute shall be settled by arbitration rather than litigation in court.",
			expect: models.CategoryArbitration,
		},
		{
			name:   "no keywords",
			text:   "The sky was clear and the meeting went well.",
			expect: models.CategoryOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, CategorizeClause(tt.text))
		})
	}
}
