package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"clausewise-backend/models"

	"github.com/google/uuid"
)

var ErrNoClausesFound = errors.New("no clauses found in document")

const (
	// maxClausesPerDocument caps AI analysis cost per request; clauses past
	// the cap are dropped, not queued
	maxClausesPerDocument = 10

	defaultAnalysisWorkers = 4
)

// ClauseClassifier covers the per-clause generation calls used by analysis
type ClauseClassifier interface {
	ClassifyClause(ctx context.Context, clause string) (*ClauseClassification, error)
	DetectRisks(ctx context.Context, clause string) (*RiskDetection, error)
}

// ClauseIndexer stores analyzed clauses for later retrieval
type ClauseIndexer interface {
	IndexClauses(ctx context.Context, texts []string, metadata []models.ClauseMetadata) ([]*models.ClauseRecord, error)
}

// AnalysisService runs the document risk pipeline: parse, segment, classify
// each clause, aggregate into a document report. Clause classification fans
// out across a bounded worker pool; result order always follows document
// order regardless of completion order.
type AnalysisService struct {
	classifier ClauseClassifier
	indexer    ClauseIndexer
	workers    int
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithClassifier sets the clause classifier
func AnalysisWithClassifier(c ClauseClassifier) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.classifier = c
	}
}

// AnalysisWithIndexer sets the clause indexer
func AnalysisWithIndexer(i ClauseIndexer) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.indexer = i
	}
}

// AnalysisWithWorkers bounds concurrent clause classification
func AnalysisWithWorkers(n int) AnalysisServiceOption {
	return func(s *AnalysisService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{
		workers: defaultAnalysisWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeRequest describes one document analysis
type AnalyzeRequest struct {
	Input models.AnalysisInput

	// UseAI enables semantic classification; when false, only the
	// deterministic pattern detector runs
	UseAI bool

	// Index stores the analyzed clauses in the vector index
	Index bool
}

// Analyze parses the input, segments it into clauses and produces a document
// risk report
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*models.DocumentRiskReport, error) {
	doc, err := s.parse(ctx, req.Input)
	if err != nil {
		return nil, err
	}

	clauses := SegmentClauses(doc.Text)
	if len(clauses) == 0 {
		return nil, ErrNoClausesFound
	}
	if len(clauses) > maxClausesPerDocument {
		clauses = clauses[:maxClausesPerDocument]
	}

	analyzed := s.analyzeClauses(ctx, clauses, req.UseAI)

	var red, yellow, green []models.AnalyzedClause
	for _, clause := range analyzed {
		switch clause.RiskLevel {
		case models.RiskHigh:
			red = append(red, clause)
		case models.RiskMedium:
			yellow = append(yellow, clause)
		default:
			green = append(green, clause)
		}
	}

	report := &models.DocumentRiskReport{
		DocumentID:   "doc_" + uuid.NewString(),
		Source:       doc.Metadata.Source,
		AnalyzedAt:   time.Now().UTC(),
		RedFlags:     red,
		YellowFlags:  yellow,
		GreenFlags:   green,
		TotalClauses: len(analyzed),
		RiskScore:    DocumentRiskScore(len(red), len(yellow), len(green)),
		Summary:      AnalysisSummary(red, yellow, green),
	}

	if req.Index && s.indexer != nil {
		if err := s.indexAnalyzed(ctx, analyzed, doc.Metadata, report.DocumentID); err != nil {
			// indexing is best-effort; the report is still valid without it
			log.Printf("Failed to index analyzed clauses: %v", err)
		}
	}

	return report, nil
}

func (s *AnalysisService) parse(ctx context.Context, input models.AnalysisInput) (*models.ParsedDocument, error) {
	switch input.Type {
	case models.SourceText:
		return ParseText(input.Source)
	case models.SourceURL:
		return ParseURL(ctx, input.Source)
	case models.SourcePDF:
		return ParsePDF([]byte(input.Source))
	default:
		return nil, fmt.Errorf("unsupported source type: %s", input.Type)
	}
}

func (s *AnalysisService) analyzeClauses(ctx context.Context, clauses []string, useAI bool) []models.AnalyzedClause {
	analyzed := make([]models.AnalyzedClause, len(clauses))

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i, clause := range clauses {
		wg.Add(1)
		go func(i int, clause string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			analyzed[i] = s.analyzeClause(ctx, clause, useAI)
		}(i, clause)
	}
	wg.Wait()

	return analyzed
}

// analyzeClause classifies a single clause. When semantic classification is
// unavailable or fails, the clause falls back to pattern-only results rather
// than failing the whole document.
func (s *AnalysisService) analyzeClause(ctx context.Context, clause string, useAI bool) models.AnalyzedClause {
	flags := DetectFlags(clause)

	result := models.AnalyzedClause{
		ID:           models.NewClauseID(),
		OriginalText: clause,
	}

	if useAI && s.classifier != nil {
		classification, err := s.classifier.ClassifyClause(ctx, clause)
		if err == nil {
			result.PlainEnglish = classification.PlainEnglish
			result.Category = CategoryFromString(classification.Category)

			concerns := append([]string{}, classification.Concerns...)

			classified := RiskLevelFromString(classification.RiskLevel)
			level := classified
			if risks, err := s.classifier.DetectRisks(ctx, clause); err == nil {
				level = FinalRiskLevel(classified, risks.OverallRiskScore)
				concerns = append(concerns, risks.RedFlags...)
			} else {
				// no real score to override with; keep the categorical label
				log.Printf("Risk detection failed for clause: %v", err)
			}

			for _, finding := range flags.RedFlags {
				concerns = append(concerns, finding.Pattern)
			}

			result.RiskLevel = level
			result.ConcernKeywords = dedupeStrings(concerns)
			return result
		}
		log.Printf("Clause classification failed, using pattern results: %v", err)
	}

	result.RiskLevel = flags.OverallRisk
	result.Category = CategorizeClause(clause)

	var concerns []string
	for _, finding := range flags.RedFlags {
		concerns = append(concerns, finding.Pattern)
	}
	for _, finding := range flags.YellowFlags {
		concerns = append(concerns, finding.Pattern)
	}
	result.ConcernKeywords = dedupeStrings(concerns)

	return result
}

func (s *AnalysisService) indexAnalyzed(ctx context.Context, analyzed []models.AnalyzedClause, docMeta models.DocumentMetadata, documentID string) error {
	texts := make([]string, len(analyzed))
	metadata := make([]models.ClauseMetadata, len(analyzed))
	now := time.Now().UTC()

	for i, clause := range analyzed {
		texts[i] = clause.OriginalText
		metadata[i] = models.ClauseMetadata{
			Category:   clause.Category,
			RiskLevel:  clause.RiskLevel,
			DocumentID: documentID,
			AnalyzedAt: now,
		}
		if docMeta.Type == models.SourceURL {
			source := docMeta.Source
			metadata[i].SourceURL = &source
		}
	}

	_, err := s.indexer.IndexClauses(ctx, texts, metadata)
	return err
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
