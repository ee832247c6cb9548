package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"clausewise-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRetriever struct {
	records []models.ClauseRecord
	err     error
	lastK   int
}

func (f *fakeRetriever) SearchSimilar(ctx context.Context, query string, k int) ([]models.ClauseRecord, error) {
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.records) {
		return f.records[:k], nil
	}
	return f.records, nil
}

type fakeGenerator struct {
	answer         *ClauseAnswer
	answerErr      error
	translation    *PlainTranslation
	translationErr error
	lastClause     string
}

func (f *fakeGenerator) AnswerQuestion(ctx context.Context, question, clause string) (*ClauseAnswer, error) {
	f.lastClause = clause
	if f.answerErr != nil {
		return nil, f.answerErr
	}
	return f.answer, nil
}

func (f *fakeGenerator) TranslateClause(ctx context.Context, clause string) (*PlainTranslation, error) {
	if f.translationErr != nil {
		return nil, f.translationErr
	}
	return f.translation, nil
}

func testRecords(n int) []models.ClauseRecord {
	records := make([]models.ClauseRecord, n)
	for i := range records {
		records[i] = models.ClauseRecord{
			Text:       fmt.Sprintf("Clause number %d about subscription terms and renewal conditions.", i+1),
			Similarity: 1 - float64(i)*0.1,
			Metadata: models.ClauseMetadata{
				Category:  models.CategoryPayment,
				RiskLevel: models.RiskMedium,
			},
		}
	}
	return records
}

func TestSimpleSearchNoResults(t *testing.T) {
	svc := NewSearchService(
		SearchWithRetriever(&fakeRetriever{}),
		SearchWithGenerator(&fakeGenerator{}),
	)

	_, err := svc.SimpleSearch(context.Background(), "how do I cancel?")
	assert.ErrorIs(t, err, ErrNoRelevantContent)
}

func TestSimpleSearchAnswered(t *testing.T) {
	retriever := &fakeRetriever{records: testRecords(5)}
	generator := &fakeGenerator{
		answer: &ClauseAnswer{
			Answer:     "You can cancel within 30 days.",
			SourceText: "cancellation is permitted within 30 days",
			Conditions: []string{"written notice required"},
		},
		translationErr: errors.New("unavailable"),
	}
	svc := NewSearchService(SearchWithRetriever(retriever), SearchWithGenerator(generator))

	result, err := svc.SimpleSearch(context.Background(), "how do I cancel?")
	require.NoError(t, err)

	assert.Equal(t, "You can cancel within 30 days.", result.Answer)
	assert.Equal(t, "cancellation is permitted within 30 days", result.SourceText)
	assert.Equal(t, answeredConfidence, result.Confidence)
	assert.Len(t, result.RelatedClauses, 4)
	assert.Equal(t, simpleSearchLimit, retriever.lastK)
	assert.Nil(t, result.PlainEnglish)
}

func TestSimpleSearchModelFallback(t *testing.T) {
	records := testRecords(2)
	generator := &fakeGenerator{
		answerErr:      fmt.Errorf("%w: bad json", ErrInvalidModelResponse),
		translationErr: errors.New("unavailable"),
	}
	svc := NewSearchService(
		SearchWithRetriever(&fakeRetriever{records: records}),
		SearchWithGenerator(generator),
	)

	result, err := svc.SimpleSearch(context.Background(), "how do I cancel?")
	require.NoError(t, err)

	assert.Equal(t, records[0].Text, result.Answer)
	assert.Equal(t, fallbackConfidence, result.Confidence)
}

func TestSimpleSearchOtherErrorsPropagate(t *testing.T) {
	generator := &fakeGenerator{answerErr: errors.New("connection refused")}
	svc := NewSearchService(
		SearchWithRetriever(&fakeRetriever{records: testRecords(1)}),
		SearchWithGenerator(generator),
	)

	_, err := svc.SimpleSearch(context.Background(), "how do I cancel?")
	assert.Error(t, err)
}

func TestEnhancedSearchCombinesContext(t *testing.T) {
	retriever := &fakeRetriever{records: testRecords(5)}
	generator := &fakeGenerator{
		answer:      &ClauseAnswer{Answer: "Combined answer."},
		translation: &PlainTranslation{Simple: "plain words"},
	}
	svc := NewSearchService(SearchWithRetriever(retriever), SearchWithGenerator(generator))

	result, err := svc.EnhancedSearch(context.Background(), "what are the renewal terms?")
	require.NoError(t, err)

	assert.Equal(t, enhancedSearchLimit, retriever.lastK)
	assert.Contains(t, generator.lastClause, "[Clause 1]:")
	assert.Contains(t, generator.lastClause, "[Clause 3]:")

	assert.Equal(t, generator.lastClause, result.Context)
	assert.Contains(t, result.Context, "[Clause 2]:")
	require.NotNil(t, result.PlainEnglish)
	assert.Equal(t, "plain words", result.PlainEnglish.Simple)

	require.Len(t, result.Sources, 3)
	assert.InDelta(t, 1.0, result.Sources[0].Relevance, 1e-9)
	assert.InDelta(t, 0.85, result.Sources[1].Relevance, 1e-9)
	assert.InDelta(t, 0.70, result.Sources[2].Relevance, 1e-9)
	assert.Equal(t, "payment", result.Sources[0].Category)
}

func TestEnhancedSearchTranslationFailureLeavesAnswer(t *testing.T) {
	generator := &fakeGenerator{
		answer:         &ClauseAnswer{Answer: "Combined answer."},
		translationErr: errors.New("unavailable"),
	}
	svc := NewSearchService(
		SearchWithRetriever(&fakeRetriever{records: testRecords(3)}),
		SearchWithGenerator(generator),
	)

	result, err := svc.EnhancedSearch(context.Background(), "renewal terms")
	require.NoError(t, err)
	assert.Equal(t, "Combined answer.", result.Answer)
	assert.Nil(t, result.PlainEnglish)
}

func TestEnhancedSearchTruncatesSources(t *testing.T) {
	long := strings.Repeat("very long clause text ", 20)
	records := []models.ClauseRecord{{Text: long, Similarity: 0.9}}
	generator := &fakeGenerator{
		answer:         &ClauseAnswer{Answer: "ok"},
		translationErr: errors.New("unavailable"),
	}
	svc := NewSearchService(
		SearchWithRetriever(&fakeRetriever{records: records}),
		SearchWithGenerator(generator),
	)

	result, err := svc.EnhancedSearch(context.Background(), "question")
	require.NoError(t, err)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, sourcePreviewLength+3, len(result.Sources[0].Text))
	assert.True(t, strings.HasSuffix(result.Sources[0].Text, "..."))
}

func TestExplainTranslatesEachClause(t *testing.T) {
	generator := &fakeGenerator{
		translation: &PlainTranslation{Simple: "plain words", Summary: "one line"},
		answerErr:   errors.New("should not be called"),
	}
	svc := NewSearchService(
		SearchWithRetriever(&fakeRetriever{records: testRecords(3)}),
		SearchWithGenerator(generator),
	)

	explanations, err := svc.Explain(context.Background(), "renewal")
	require.NoError(t, err)
	require.Len(t, explanations, 3)
	for _, e := range explanations {
		require.NotNil(t, e.PlainEnglish)
		assert.Equal(t, "plain words", e.PlainEnglish.Simple)
	}
}

func TestAskBuildsConversationalResult(t *testing.T) {
	generator := &fakeGenerator{
		answer: &ClauseAnswer{Answer: "Yes, fees apply."},
		translation: &PlainTranslation{
			WhatItMeans: "You will pay extra.",
			Risks:       []string{"hidden fees"},
		},
	}
	svc := NewSearchService(
		SearchWithRetriever(&fakeRetriever{records: testRecords(4)}),
		SearchWithGenerator(generator),
	)

	result, err := svc.Ask(context.Background(), "are there fees?")
	require.NoError(t, err)

	assert.Equal(t, "Yes, fees apply.", result.DirectAnswer)
	assert.Equal(t, "You will pay extra.", result.Explanation)
	assert.Equal(t, []string{"hidden fees"}, result.Risks)
	assert.Equal(t, []string{"payment"}, result.RelatedTopics)
}

func TestSearchRetrieverErrorPropagates(t *testing.T) {
	svc := NewSearchService(
		SearchWithRetriever(&fakeRetriever{err: errors.New("db down")}),
		SearchWithGenerator(&fakeGenerator{}),
	)

	_, err := svc.SimpleSearch(context.Background(), "question")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoRelevantContent)
}
