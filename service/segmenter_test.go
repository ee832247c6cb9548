package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentClausesNumberedSections(t *testing.T) {
	text := "TERMS OF SERVICE\n" +
		"1. All fees are charged monthly and are strictly non-refundable once processed.\n" +
		"2. We may share your personal information with trusted third party partners.\n" +
		"3. Your subscription will automatically renew unless cancelled in advance."

	clauses := SegmentClauses(text)

	require.Len(t, clauses, 3)
	assert.Contains(t, clauses[0], "non-refundable")
	assert.Contains(t, clauses[1], "third party")
	assert.Contains(t, clauses[2], "automatically renew")
}

func TestSegmentClausesParagraphFallback(t *testing.T) {
	text := "We collect personal information when you register for an account with us.\n\n" +
		"All disputes must be resolved through binding arbitration in our jurisdiction."

	clauses := SegmentClauses(text)

	require.Len(t, clauses, 2)
	assert.Contains(t, clauses[0], "personal information")
	assert.Contains(t, clauses[1], "binding arbitration")
}

func TestSegmentClausesDropsShortSpans(t *testing.T) {
	text := "Intro.\n" +
		"1. Short.\n" +
		"2. This clause is long enough to survive the minimum length filter applied here.\n" +
		"3. Also short."

	clauses := SegmentClauses(text)

	// one survivor forces the paragraph fallback, which still filters by length
	for _, clause := range clauses {
		assert.Greater(t, len(strings.TrimSpace(clause)), MinClauseLength)
	}
}

func TestSegmentClausesPreservesOrder(t *testing.T) {
	text := "Agreement\n" +
		"1. First clause about payments and the monthly billing cycle we use for charges.\n" +
		"2. Second clause about privacy and how personal data is collected and stored.\n" +
		"3. Third clause about termination and when accounts may be suspended by us."

	clauses := SegmentClauses(text)

	require.Len(t, clauses, 3)
	assert.Contains(t, clauses[0], "First clause")
	assert.Contains(t, clauses[1], "Second clause")
	assert.Contains(t, clauses[2], "Third clause")
}

func TestSegmentClausesEmptyInput(t *testing.T) {
	assert.Empty(t, SegmentClauses(""))
	assert.Empty(t, SegmentClauses("too short"))
}
