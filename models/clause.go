package models

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel represents the severity of a clause or finding
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// ClauseCategory classifies what a clause is about
type ClauseCategory string

const (
	CategoryDataPrivacy          ClauseCategory = "data-privacy"
	CategoryPayment              ClauseCategory = "payment"
	CategoryCancellation         ClauseCategory = "cancellation"
	CategoryArbitration          ClauseCategory = "arbitration"
	CategoryLiability            ClauseCategory = "liability"
	CategoryIntellectualProperty ClauseCategory = "intellectual-property"
	CategoryTermination          ClauseCategory = "termination"
	CategoryModification         ClauseCategory = "modification"
	CategoryOther                ClauseCategory = "other"
)

// AllCategories is the closed set of clause categories
var AllCategories = []ClauseCategory{
	CategoryDataPrivacy,
	CategoryPayment,
	CategoryCancellation,
	CategoryArbitration,
	CategoryLiability,
	CategoryIntellectualProperty,
	CategoryTermination,
	CategoryModification,
	CategoryOther,
}

// FlagFinding is a single detected risk signal. Findings are created by the
// pattern detector (one per matched pattern) or derived from semantic
// classification concerns, and are never mutated after creation.
type FlagFinding struct {
	Category    string    `json:"category"`
	Pattern     string    `json:"pattern"`
	Severity    RiskLevel `json:"severity"`
	Reason      string    `json:"reason"`
	TextSnippet string    `json:"text_snippet"`
}

// FlagReport groups pattern findings by severity for one clause or document
type FlagReport struct {
	RedFlags    []FlagFinding `json:"red_flags"`
	YellowFlags []FlagFinding `json:"yellow_flags"`
	GreenFlags  []FlagFinding `json:"green_flags"`
	OverallRisk RiskLevel     `json:"overall_risk"`
}

// AnalyzedClause is a clause enriched with a final classification.
// The ID is generated at analysis time and is not a content hash.
type AnalyzedClause struct {
	ID              string         `json:"id"`
	OriginalText    string         `json:"original_text"`
	PlainEnglish    string         `json:"plain_english"`
	RiskLevel       RiskLevel      `json:"risk_level"`
	Category        ClauseCategory `json:"category"`
	ConcernKeywords []string       `json:"concern_keywords"`
}

// NewClauseID generates an opaque analysis-time clause identifier
func NewClauseID() string {
	return "clause_" + uuid.NewString()
}

// DocumentRiskReport is the aggregate output for one document analysis.
// It is recomputed fresh on every analysis; there is no incremental update.
type DocumentRiskReport struct {
	DocumentID   string           `json:"document_id"`
	Source       string           `json:"source"`
	AnalyzedAt   time.Time        `json:"analyzed_at"`
	RedFlags     []AnalyzedClause `json:"red_flags"`
	YellowFlags  []AnalyzedClause `json:"yellow_flags"`
	GreenFlags   []AnalyzedClause `json:"green_flags"`
	TotalClauses int              `json:"total_clauses"`
	RiskScore    int              `json:"risk_score"`
	Summary      string           `json:"summary"`
}
