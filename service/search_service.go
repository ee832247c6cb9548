package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clausewise-backend/models"
)

var ErrNoRelevantContent = errors.New("no relevant clauses found")

const (
	simpleSearchLimit   = 5
	enhancedSearchLimit = 3

	// relevance reported to the caller decays by rank, not by raw cosine
	// similarity, so results from differently scaled corpora compare evenly
	relevanceDecay = 0.15

	sourcePreviewLength = 200

	answeredConfidence = 0.85
	fallbackConfidence = 0.5
)

// Retriever finds stored clauses similar to a query
type Retriever interface {
	SearchSimilar(ctx context.Context, query string, k int) ([]models.ClauseRecord, error)
}

// AnswerGenerator produces grounded answers and plain-English translations
type AnswerGenerator interface {
	AnswerQuestion(ctx context.Context, question, clause string) (*ClauseAnswer, error)
	TranslateClause(ctx context.Context, clause string) (*PlainTranslation, error)
}

// SearchService answers natural-language questions about indexed clauses.
// Every answer is grounded in retrieved clause text; the generator never
// answers from its own knowledge alone.
type SearchService struct {
	retriever Retriever
	generator AnswerGenerator
}

// SearchServiceOption is a functional option for SearchService
type SearchServiceOption func(*SearchService)

// SearchWithRetriever sets the clause retriever
func SearchWithRetriever(r Retriever) SearchServiceOption {
	return func(s *SearchService) {
		s.retriever = r
	}
}

// SearchWithGenerator sets the answer generator
func SearchWithGenerator(g AnswerGenerator) SearchServiceOption {
	return func(s *SearchService) {
		s.generator = g
	}
}

// NewSearchService creates a new search service
func NewSearchService(opts ...SearchServiceOption) *SearchService {
	s := &SearchService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RelatedClause is a retrieval neighbor returned alongside an answer
type RelatedClause struct {
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
	Category   string  `json:"category"`
	RiskLevel  string  `json:"riskLevel"`
}

// SimpleSearchResult is the response for the single-clause answer mode
type SimpleSearchResult struct {
	Answer         string            `json:"answer"`
	SourceText     string            `json:"sourceText"`
	Conditions     []string          `json:"conditions"`
	Confidence     float64           `json:"confidence"`
	PlainEnglish   *PlainTranslation `json:"plainEnglish,omitempty"`
	RelatedClauses []RelatedClause   `json:"relatedClauses"`
}

// SourceClause is one clause contributing to an enhanced answer
type SourceClause struct {
	Text      string  `json:"text"`
	Category  string  `json:"category"`
	RiskLevel string  `json:"riskLevel"`
	Relevance float64 `json:"relevance"`
}

// EnhancedSearchResult is the response for the multi-clause answer mode
type EnhancedSearchResult struct {
	Answer       string            `json:"answer"`
	SourceText   string            `json:"sourceText"`
	Context      string            `json:"context"`
	Conditions   []string          `json:"conditions"`
	PlainEnglish *PlainTranslation `json:"plainEnglish,omitempty"`
	Sources      []SourceClause    `json:"sources"`
}

// ClauseExplanation is one retrieved clause with its translation
type ClauseExplanation struct {
	Text         string            `json:"text"`
	Category     string            `json:"category"`
	RiskLevel    string            `json:"riskLevel"`
	Similarity   float64           `json:"similarity"`
	PlainEnglish *PlainTranslation `json:"plainEnglish,omitempty"`
}

// AskResult is the conversational response shape
type AskResult struct {
	DirectAnswer  string   `json:"directAnswer"`
	Explanation   string   `json:"explanation"`
	Risks         []string `json:"risks"`
	RelatedTopics []string `json:"relatedTopics"`
}

// SimpleSearch answers a question from the single best-matching clause.
// When the generator cannot produce a structured answer, the raw clause text
// is returned at reduced confidence instead of failing the search.
func (s *SearchService) SimpleSearch(ctx context.Context, question string) (*SimpleSearchResult, error) {
	records, err := s.retrieve(ctx, question, simpleSearchLimit)
	if err != nil {
		return nil, err
	}

	top := records[0]
	result := &SimpleSearchResult{
		SourceText:     top.Text,
		RelatedClauses: relatedClauses(records[1:]),
	}

	answer, err := s.generator.AnswerQuestion(ctx, question, top.Text)
	switch {
	case err == nil:
		result.Answer = answer.Answer
		if answer.SourceText != "" {
			result.SourceText = answer.SourceText
		}
		result.Conditions = answer.Conditions
		result.Confidence = answeredConfidence
	case errors.Is(err, ErrInvalidModelResponse):
		result.Answer = top.Text
		result.Confidence = fallbackConfidence
	default:
		return nil, err
	}

	if translation, err := s.generator.TranslateClause(ctx, top.Text); err == nil {
		result.PlainEnglish = translation
	}

	return result, nil
}

// EnhancedSearch answers a question from the combined top matches so answers
// spanning multiple clauses are not cut off at clause boundaries
func (s *SearchService) EnhancedSearch(ctx context.Context, question string) (*EnhancedSearchResult, error) {
	records, err := s.retrieve(ctx, question, enhancedSearchLimit)
	if err != nil {
		return nil, err
	}

	var contextBuilder strings.Builder
	for i, record := range records {
		fmt.Fprintf(&contextBuilder, "[Clause %d]: %s\n\n", i+1, record.Text)
	}

	combined := contextBuilder.String()
	answer, err := s.generator.AnswerQuestion(ctx, question, combined)
	if err != nil {
		return nil, err
	}

	sources := make([]SourceClause, len(records))
	for i, record := range records {
		text := record.Text
		if len(text) > sourcePreviewLength {
			text = text[:sourcePreviewLength] + "..."
		}
		sources[i] = SourceClause{
			Text:      text,
			Category:  string(record.Metadata.Category),
			RiskLevel: string(record.Metadata.RiskLevel),
			Relevance: 1 - float64(i)*relevanceDecay,
		}
	}

	result := &EnhancedSearchResult{
		Answer:     answer.Answer,
		SourceText: answer.SourceText,
		Context:    combined,
		Conditions: answer.Conditions,
		Sources:    sources,
	}

	// best effort: the answer stands without a translation of the top clause
	if translation, err := s.generator.TranslateClause(ctx, records[0].Text); err == nil {
		result.PlainEnglish = translation
	}

	return result, nil
}

// Explain retrieves clauses matching a topic and translates each into plain
// English
func (s *SearchService) Explain(ctx context.Context, topic string) ([]ClauseExplanation, error) {
	records, err := s.retrieve(ctx, topic, simpleSearchLimit)
	if err != nil {
		return nil, err
	}

	explanations := make([]ClauseExplanation, len(records))
	for i, record := range records {
		explanations[i] = ClauseExplanation{
			Text:       record.Text,
			Category:   string(record.Metadata.Category),
			RiskLevel:  string(record.Metadata.RiskLevel),
			Similarity: record.Similarity,
		}
		if translation, err := s.generator.TranslateClause(ctx, record.Text); err == nil {
			explanations[i].PlainEnglish = translation
		}
	}

	return explanations, nil
}

// Ask answers conversationally, combining the grounded answer with a
// plain-English view of the source clause
func (s *SearchService) Ask(ctx context.Context, question string) (*AskResult, error) {
	search, err := s.SimpleSearch(ctx, question)
	if err != nil {
		return nil, err
	}

	result := &AskResult{
		DirectAnswer:  search.Answer,
		RelatedTopics: relatedTopics(search.RelatedClauses),
	}

	if search.PlainEnglish != nil {
		result.Explanation = search.PlainEnglish.WhatItMeans
		result.Risks = search.PlainEnglish.Risks
	}

	return result, nil
}

func (s *SearchService) retrieve(ctx context.Context, query string, k int) ([]models.ClauseRecord, error) {
	if s.retriever == nil {
		return nil, errors.New("retriever not set")
	}
	if s.generator == nil {
		return nil, errors.New("answer generator not set")
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

func relatedClauses(records []models.ClauseRecord) []RelatedClause {
	related := make([]RelatedClause, len(records))
	for i, record := range records {
		related[i] = RelatedClause{
			Text:       record.Text,
			Similarity: record.Similarity,
			Category:   string(record.Metadata.Category),
			RiskLevel:  string(record.Metadata.RiskLevel),
		}
	}
	return related
}

func relatedTopics(related []RelatedClause) []string {
	seen := make(map[string]bool)
	var topics []string
	for _, clause := range related {
		if clause.Category == "" || seen[clause.Category] {
			continue
		}
		seen[clause.Category] = true
		topics = append(topics, clause.Category)
	}
	return topics
}
