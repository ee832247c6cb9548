package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"clausewise-backend/models"
)

var (
	ErrUnknownFunction = errors.New("unknown query function")
	ErrMissingArgument = errors.New("missing required argument")
)

// Query intents the router can dispatch to. The closed set keeps routing
// deterministic; free-form questions go through SearchService instead.
const (
	FuncFindCancellation = "find_cancellation_clause"
	FuncFindPrivacy      = "find_privacy_clause"
	FuncFindDataSharing  = "find_data_sharing_clause"
	FuncFindPayment      = "find_payment_clause"
	FuncFindLiability    = "find_liability_clause"
	FuncAnalyzeRisk      = "analyze_specific_risk"
	FuncCompareClauses   = "compare_clauses"
)

// clauseQueries maps each find intent to the retrieval query used for it
var clauseQueries = map[string]string{
	FuncFindCancellation: "How do I cancel this subscription? What are the termination conditions?",
	FuncFindPrivacy:      "What personal information is collected? How is my privacy protected?",
	FuncFindDataSharing:  "Who do they share my data with? What third parties get my information?",
	FuncFindPayment:      "What are the payment terms? How much does this cost? Are there hidden fees?",
	FuncFindLiability:    "What is their liability? What warranties do they provide? What happens if something goes wrong?",
}

// riskQueries maps risk types accepted by analyze_specific_risk to retrieval
// queries
var riskQueries = map[string]string{
	"privacy":      "privacy risks, data collection, personal information handling",
	"cost":         "hidden fees, price increases, payment obligations, billing terms",
	"legal":        "legal obligations, binding arbitration, class action waivers, jurisdiction",
	"liability":    "liability limitations, warranty disclaimers, indemnification",
	"data_sharing": "third-party data sharing, information disclosure, data selling",
	"termination":  "account termination, service cancellation, contract ending",
}

// allFunctionNames is the set offered to the model router
var allFunctionNames = []string{
	FuncFindCancellation,
	FuncFindPrivacy,
	FuncFindDataSharing,
	FuncFindPayment,
	FuncFindLiability,
	FuncAnalyzeRisk,
	FuncCompareClauses,
}

const (
	findClauseLimit    = 3
	riskAnalysisLimit  = 5
	compareClauseLimit = 1
)

// QueryGenerator covers the generation calls the router needs
type QueryGenerator interface {
	ChooseFunction(ctx context.Context, functionNames []string, query, documentID string) (string, error)
	ClassifyClause(ctx context.Context, clause string) (*ClauseClassification, error)
	TranslateClause(ctx context.Context, clause string) (*PlainTranslation, error)
}

// QueryService routes structured legal intents over the clause index.
// Specific mode dispatches a named function directly; auto mode asks the
// model to pick one and falls back to a direct answer when the model's
// routing response is not parseable.
type QueryService struct {
	retriever Retriever
	generator QueryGenerator
}

// QueryServiceOption is a functional option for QueryService
type QueryServiceOption func(*QueryService)

// QueryWithRetriever sets the clause retriever
func QueryWithRetriever(r Retriever) QueryServiceOption {
	return func(s *QueryService) {
		s.retriever = r
	}
}

// QueryWithGenerator sets the routing generator
func QueryWithGenerator(g QueryGenerator) QueryServiceOption {
	return func(s *QueryService) {
		s.generator = g
	}
}

// NewQueryService creates a new query service
func NewQueryService(opts ...QueryServiceOption) *QueryService {
	s := &QueryService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClauseMatch is one retrieved clause in a query result. Classification and
// PlainEnglish are filled only by the intents that re-analyze their hits.
type ClauseMatch struct {
	Text           string                `json:"text"`
	Similarity     float64               `json:"similarity"`
	Category       string                `json:"category"`
	RiskLevel      string                `json:"riskLevel"`
	DocumentID     string                `json:"documentId,omitempty"`
	Classification *ClauseClassification `json:"classification,omitempty"`
	PlainEnglish   *PlainTranslation     `json:"plainEnglish,omitempty"`
}

// ClauseFindResult is the response for the find_* intents
type ClauseFindResult struct {
	Function       string                `json:"function"`
	Query          string                `json:"query"`
	TopMatch       ClauseMatch           `json:"topMatch"`
	Classification *ClauseClassification `json:"classification,omitempty"`
	PlainEnglish   *PlainTranslation     `json:"plainEnglish,omitempty"`
	RelatedClauses []ClauseMatch         `json:"relatedClauses"`
}

// RiskAnalysisResult is the response for analyze_specific_risk
type RiskAnalysisResult struct {
	RiskType    string           `json:"riskType"`
	Query       string           `json:"query"`
	OverallRisk models.RiskLevel `json:"overallRisk"`
	Summary     string           `json:"summary"`
	Matches     []ClauseMatch    `json:"matches"`
}

// DocumentClauses groups comparison matches by document
type DocumentClauses struct {
	DocumentID string        `json:"documentId"`
	Matches    []ClauseMatch `json:"matches"`
}

// ClauseComparisonResult is the response for compare_clauses. One retrieval
// runs per requested document id. The query is not scoped to the document,
// so the same best match can appear under several documents; Analysis
// summarizes how many documents produced a match.
type ClauseComparisonResult struct {
	ClauseType string            `json:"clauseType"`
	Query      string            `json:"query"`
	Analysis   string            `json:"analysis"`
	Documents  []DocumentClauses `json:"documents"`
}

// QueryResult wraps the outcome of a routed query. Exactly one of Result or
// DirectAnswer is set: DirectAnswer carries the model's raw text when its
// routing response could not be parsed.
type QueryResult struct {
	Function     string      `json:"function,omitempty"`
	Result       interface{} `json:"result,omitempty"`
	DirectAnswer string      `json:"directAnswer,omitempty"`
}

// routingDecision is the strict shape expected from the model router
type routingDecision struct {
	Function string            `json:"function"`
	Args     map[string]string `json:"args"`
}

// ProcessQuery routes a natural-language query. The model picks a function;
// if its response cannot be parsed the raw text is returned as a direct
// answer rather than an error.
func (s *QueryService) ProcessQuery(ctx context.Context, query, documentID string) (*QueryResult, error) {
	if s.generator == nil {
		return nil, errors.New("routing generator not set")
	}

	raw, err := s.generator.ChooseFunction(ctx, allFunctionNames, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("routing failed: %w", err)
	}

	var decision routingDecision
	if err := json.Unmarshal([]byte(raw), &decision); err != nil || decision.Function == "" {
		return &QueryResult{DirectAnswer: raw}, nil
	}

	if decision.Args == nil {
		decision.Args = make(map[string]string)
	}
	if _, ok := decision.Args["documentId"]; !ok && documentID != "" {
		decision.Args["documentId"] = documentID
	}

	result, err := s.Route(ctx, decision.Function, decision.Args)
	if err != nil {
		return nil, err
	}
	return &QueryResult{Function: decision.Function, Result: result}, nil
}

// Route dispatches a named function with its arguments
func (s *QueryService) Route(ctx context.Context, function string, args map[string]string) (interface{}, error) {
	switch function {
	case FuncFindCancellation, FuncFindPrivacy, FuncFindDataSharing, FuncFindPayment, FuncFindLiability:
		return s.FindClause(ctx, function)
	case FuncAnalyzeRisk:
		riskType := args["riskType"]
		if riskType == "" {
			return nil, fmt.Errorf("%w: riskType", ErrMissingArgument)
		}
		return s.AnalyzeRisk(ctx, riskType)
	case FuncCompareClauses:
		clauseType := args["clauseType"]
		if clauseType == "" {
			return nil, fmt.Errorf("%w: clauseType", ErrMissingArgument)
		}
		docIDs := splitDocumentIDs(args["documentIds"], args["documentId"])
		return s.CompareClauses(ctx, clauseType, docIDs)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, function)
	}
}

// FindClause retrieves the clauses matching one of the fixed find intents and
// enriches the best match with a classification and plain-English translation
func (s *QueryService) FindClause(ctx context.Context, function string) (*ClauseFindResult, error) {
	query, ok := clauseQueries[function]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, function)
	}

	records, err := s.retrieve(ctx, query, findClauseLimit)
	if err != nil {
		return nil, err
	}

	result := &ClauseFindResult{
		Function:       function,
		Query:          query,
		TopMatch:       clauseMatch(records[0]),
		RelatedClauses: clauseMatches(records[1:]),
	}

	if classification, err := s.generator.ClassifyClause(ctx, records[0].Text); err == nil {
		result.Classification = classification
	}
	if translation, err := s.generator.TranslateClause(ctx, records[0].Text); err == nil {
		result.PlainEnglish = translation
	}

	return result, nil
}

// AnalyzeRisk retrieves clauses relevant to a named risk type, re-classifies
// each hit, and reports an overall level from the fresh classifications. A
// clause whose classification fails keeps its stored level.
func (s *QueryService) AnalyzeRisk(ctx context.Context, riskType string) (*RiskAnalysisResult, error) {
	query, ok := riskQueries[riskType]
	if !ok {
		return nil, fmt.Errorf("unknown risk type: %s", riskType)
	}

	records, err := s.retrieve(ctx, query, riskAnalysisLimit)
	if err != nil {
		return nil, err
	}

	matches := make([]ClauseMatch, len(records))
	highCount := 0
	mediumCount := 0
	for i, record := range records {
		match := clauseMatch(record)
		level := record.Metadata.RiskLevel
		if classification, err := s.generator.ClassifyClause(ctx, record.Text); err == nil {
			match.Classification = classification
			match.Category = classification.Category
			match.RiskLevel = classification.RiskLevel
			level = RiskLevelFromString(classification.RiskLevel)
		}
		switch level {
		case models.RiskHigh:
			highCount++
		case models.RiskMedium:
			mediumCount++
		}
		matches[i] = match
	}

	overall := overallRiskFromCounts(highCount, mediumCount)
	summary := fmt.Sprintf("Found %d %s-related clauses. %d high-risk, %d medium-risk. Overall risk: %s",
		len(matches), riskType, highCount, mediumCount, overall)

	return &RiskAnalysisResult{
		RiskType:    riskType,
		Query:       query,
		OverallRisk: overall,
		Summary:     summary,
		Matches:     matches,
	}, nil
}

// CompareClauses runs one retrieval per requested document id and enriches
// each best match with a classification and plain-English translation. A
// document with no match comes back as an empty group rather than an error.
func (s *QueryService) CompareClauses(ctx context.Context, clauseType string, documentIDs []string) (*ClauseComparisonResult, error) {
	if len(documentIDs) == 0 {
		return nil, fmt.Errorf("%w: documentIds", ErrMissingArgument)
	}

	query := fmt.Sprintf("%s clause terms conditions", clauseType)
	result := &ClauseComparisonResult{
		ClauseType: clauseType,
		Query:      query,
		Documents:  make([]DocumentClauses, 0, len(documentIDs)),
	}

	found := 0
	for _, docID := range documentIDs {
		group := DocumentClauses{DocumentID: docID, Matches: []ClauseMatch{}}

		records, err := s.retrieve(ctx, query, compareClauseLimit)
		switch {
		case errors.Is(err, ErrNoRelevantContent):
			result.Documents = append(result.Documents, group)
			continue
		case err != nil:
			return nil, err
		}

		match := clauseMatch(records[0])
		if classification, err := s.generator.ClassifyClause(ctx, records[0].Text); err == nil {
			match.Classification = classification
			match.Category = classification.Category
			match.RiskLevel = classification.RiskLevel
		}
		if translation, err := s.generator.TranslateClause(ctx, records[0].Text); err == nil {
			match.PlainEnglish = translation
		}
		group.Matches = append(group.Matches, match)
		found++

		result.Documents = append(result.Documents, group)
	}

	result.Analysis = fmt.Sprintf("Compared %s clauses across %d documents. Found clauses in %d documents.",
		clauseType, len(documentIDs), found)

	return result, nil
}

func (s *QueryService) retrieve(ctx context.Context, query string, k int) ([]models.ClauseRecord, error) {
	if s.retriever == nil {
		return nil, errors.New("retriever not set")
	}
	if s.generator == nil {
		return nil, errors.New("routing generator not set")
	}

	records, err := s.retriever.SearchSimilar(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoRelevantContent
	}

	return records, nil
}

// overallRiskFromCounts maps per-clause risk counts to an overall level.
// Two high-risk matches, or one high combined with two mediums, mark the
// whole topic HIGH.
func overallRiskFromCounts(high, medium int) models.RiskLevel {
	switch {
	case high >= 2 || (high >= 1 && medium >= 2):
		return models.RiskHigh
	case high >= 1 || medium >= 2:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func clauseMatch(record models.ClauseRecord) ClauseMatch {
	return ClauseMatch{
		Text:       record.Text,
		Similarity: record.Similarity,
		Category:   string(record.Metadata.Category),
		RiskLevel:  string(record.Metadata.RiskLevel),
		DocumentID: record.Metadata.DocumentID,
	}
}

func clauseMatches(records []models.ClauseRecord) []ClauseMatch {
	matches := make([]ClauseMatch, len(records))
	for i, record := range records {
		matches[i] = clauseMatch(record)
	}
	return matches
}

func splitDocumentIDs(joined, single string) []string {
	var ids []string
	for _, part := range strings.Split(joined, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	if len(ids) == 0 && single != "" {
		ids = append(ids, single)
	}
	return ids
}
