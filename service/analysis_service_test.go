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

type fakeClassifier struct {
	classification *ClauseClassification
	classifyErr    error
	risks          *RiskDetection
	risksErr       error
	calls          int
}

func (f *fakeClassifier) ClassifyClause(ctx context.Context, clause string) (*ClauseClassification, error) {
	f.calls++
	if f.classifyErr != nil {
		return nil, f.classifyErr
	}
	return f.classification, nil
}

func (f *fakeClassifier) DetectRisks(ctx context.Context, clause string) (*RiskDetection, error) {
	if f.risksErr != nil {
		return nil, f.risksErr
	}
	return f.risks, nil
}

type fakeIndexer struct {
	texts    []string
	metadata []models.ClauseMetadata
	err      error
}

func (f *fakeIndexer) IndexClauses(ctx context.Context, texts []string, metadata []models.ClauseMetadata) ([]*models.ClauseRecord, error) {
	f.texts = texts
	f.metadata = metadata
	if f.err != nil {
		return nil, f.err
	}
	return make([]*models.ClauseRecord, len(texts)), nil
}

const analysisTestDoc = `TERMS OF SERVICE
1. All subscription fees are strictly non-refundable and your plan will auto-renew each month.
2. We may share your personal information with third party partners for marketing purposes.
3. We will notify you in advance of any changes and you retain the right to cancel at any time.`

func textInput(text string) models.AnalysisInput {
	return models.AnalysisInput{Source: text, Type: models.SourceText}
}

func TestAnalyzePatternOnly(t *testing.T) {
	svc := NewAnalysisService()

	report, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Input: textInput(analysisTestDoc),
		UseAI: false,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalClauses)
	assert.True(t, strings.HasPrefix(report.DocumentID, "doc_"))
	assert.NotEmpty(t, report.RedFlags)
	assert.NotEmpty(t, report.GreenFlags)
	assert.Contains(t, report.Summary, "Overall Risk Score:")
	assert.Equal(t,
		DocumentRiskScore(len(report.RedFlags), len(report.YellowFlags), len(report.GreenFlags)),
		report.RiskScore)

	// pattern-only clauses carry concern keywords from matched patterns
	for _, clause := range report.RedFlags {
		assert.NotEmpty(t, clause.ConcernKeywords)
		assert.Empty(t, clause.PlainEnglish)
	}
}

func TestAnalyzeWithClassifier(t *testing.T) {
	classifier := &fakeClassifier{
		classification: &ClauseClassification{
			Category:     "payment",
			RiskLevel:    "MEDIUM",
			PlainEnglish: "You pay and cannot get money back.",
			Concerns:     []string{"no refunds"},
		},
		risks: &RiskDetection{
			OverallRiskScore: 80,
			RedFlags:         []string{"non-refundable charges"},
		},
	}
	svc := NewAnalysisService(AnalysisWithClassifier(classifier))

	report, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Input: textInput(analysisTestDoc),
		UseAI: true,
	})
	require.NoError(t, err)

	// score 80 forces HIGH for every clause
	assert.Equal(t, 3, report.TotalClauses)
	assert.Len(t, report.RedFlags, 3)
	assert.Empty(t, report.YellowFlags)
	assert.Equal(t, 100, report.RiskScore)
	assert.Equal(t, 3, classifier.calls)

	first := report.RedFlags[0]
	assert.Equal(t, models.CategoryPayment, first.Category)
	assert.Equal(t, "You pay and cannot get money back.", first.PlainEnglish)
	assert.Contains(t, first.ConcernKeywords, "no refunds")
	assert.Contains(t, first.ConcernKeywords, "non-refundable charges")
}

func TestAnalyzeRiskDetectionFailureKeepsClassifiedLevel(t *testing.T) {
	classifier := &fakeClassifier{
		classification: &ClauseClassification{
			Category:     "payment",
			RiskLevel:    "HIGH",
			PlainEnglish: "You pay and cannot get it back.",
		},
		risksErr: errors.New("quota exceeded"),
	}
	svc := NewAnalysisService(AnalysisWithClassifier(classifier))

	report, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Input: textInput(analysisTestDoc),
		UseAI: true,
	})
	require.NoError(t, err)

	// without a numeric score there is nothing to override the label with
	assert.Len(t, report.RedFlags, 3)
	assert.Empty(t, report.GreenFlags)
}

func TestAnalyzeClassifierFailureFallsBack(t *testing.T) {
	classifier := &fakeClassifier{classifyErr: errors.New("model unavailable")}
	svc := NewAnalysisService(AnalysisWithClassifier(classifier))

	report, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Input: textInput(analysisTestDoc),
		UseAI: true,
	})
	require.NoError(t, err)

	// fallback uses pattern results, so the non-refundable clause is still red
	assert.Equal(t, 3, report.TotalClauses)
	assert.NotEmpty(t, report.RedFlags)
	for _, clause := range report.RedFlags {
		assert.Empty(t, clause.PlainEnglish)
	}
}

func TestAnalyzeCapsClauseCount(t *testing.T) {
	var builder strings.Builder
	builder.WriteString("AGREEMENT\n")
	for i := 1; i <= 15; i++ {
		fmt.Fprintf(&builder, "%d. Clause number %d is long enough to pass the segmenter minimum length filter.\n", i, i)
	}

	svc := NewAnalysisService()

	report, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Input: textInput(builder.String()),
	})
	require.NoError(t, err)
	assert.Equal(t, maxClausesPerDocument, report.TotalClauses)
}

func TestAnalyzeIndexesClauses(t *testing.T) {
	indexer := &fakeIndexer{}
	svc := NewAnalysisService(AnalysisWithIndexer(indexer))

	report, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Input: textInput(analysisTestDoc),
		Index: true,
	})
	require.NoError(t, err)

	require.Len(t, indexer.texts, 3)
	require.Len(t, indexer.metadata, 3)
	for _, meta := range indexer.metadata {
		assert.Equal(t, report.DocumentID, meta.DocumentID)
		assert.Nil(t, meta.SourceURL)
	}
}

func TestAnalyzeIndexingFailureDoesNotFailReport(t *testing.T) {
	indexer := &fakeIndexer{err: errors.New("db down")}
	svc := NewAnalysisService(AnalysisWithIndexer(indexer))

	report, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Input: textInput(analysisTestDoc),
		Index: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalClauses)
}

func TestAnalyzeRejectsEmptyDocuments(t *testing.T) {
	svc := NewAnalysisService()

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{Input: textInput("")})
	assert.ErrorIs(t, err, ErrTextTooShort)
}

func TestAnalyzeUnsupportedSourceType(t *testing.T) {
	svc := NewAnalysisService()

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Input: models.AnalysisInput{Source: "x", Type: models.SourceType("carrier-pigeon")},
	})
	assert.Error(t, err)
}

func TestAnalyzePreservesDocumentOrder(t *testing.T) {
	svc := NewAnalysisService()

	report, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Input: textInput(analysisTestDoc),
	})
	require.NoError(t, err)

	var all []models.AnalyzedClause
	all = append(all, report.RedFlags...)
	all = append(all, report.YellowFlags...)
	all = append(all, report.GreenFlags...)
	require.Len(t, all, 3)

	for _, clause := range all {
		assert.True(t, strings.HasPrefix(clause.ID, "clause_"))
		assert.NotEmpty(t, clause.OriginalText)
	}
}
