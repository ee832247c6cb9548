package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"clausewise-backend/models"

	"github.com/google/generative-ai-go/genai"
)

var (
	ErrInvalidModelResponse = errors.New("model response failed to parse as required JSON")
	ErrGenerationFailed     = errors.New("failed to generate content")
)

const (
	defaultGenerationModel = "gemini-2.0-flash"

	// documentCharLimit bounds whole-document prompts to respect context
	// limits; longer documents are truncated, not chunked
	documentCharLimit = 3000

	// Low temperatures bias toward consistent categorical output over
	// creative variation. This is a determinism/quality tradeoff, not a
	// performance knob.
	classifyTemperature = 0.3
	routingTemperature  = 0.2
)

// GeminiService wraps the Gemini generation API for clause understanding.
// Its job is prompt construction and strict response parsing, not model
// internals. Parsing failures surface as ErrInvalidModelResponse; no silent
// repair or relaxed re-parse is attempted.
type GeminiService struct {
	client    *genai.Client
	modelName string
}

// GeminiServiceOption is a functional option for GeminiService
type GeminiServiceOption func(*GeminiService)

// GeminiWithModel overrides the generation model name
func GeminiWithModel(name string) GeminiServiceOption {
	return func(s *GeminiService) {
		s.modelName = name
	}
}

// NewGeminiService creates a new Gemini service
func NewGeminiService(client *genai.Client, opts ...GeminiServiceOption) *GeminiService {
	s := &GeminiService{
		client:    client,
		modelName: defaultGenerationModel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClauseClassification is the strict response shape for ClassifyClause
type ClauseClassification struct {
	Category     string   `json:"category"`
	RiskLevel    string   `json:"riskLevel"`
	PlainEnglish string   `json:"plainEnglish"`
	Concerns     []string `json:"concerns"`
}

// DetectedRisk is one risk identified by DetectRisks
type DetectedRisk struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Severity    string `json:"severity"`
}

// RiskDetection is the strict response shape for DetectRisks
type RiskDetection struct {
	DetectedRisks    []DetectedRisk `json:"detectedRisks"`
	OverallRiskScore int            `json:"overallRiskScore"`
	RedFlags         []string       `json:"redFlags"`
}

// PlainTranslation is the strict response shape for TranslateClause
type PlainTranslation struct {
	Simple      string   `json:"simple"`
	WhatItMeans string   `json:"whatItMeans"`
	Risks       []string `json:"risks"`
	Summary     string   `json:"summary"`
}

// ClauseAnswer is the strict response shape for AnswerQuestion
type ClauseAnswer struct {
	Answer     string   `json:"answer"`
	SourceText string   `json:"sourceText"`
	Conditions []string `json:"conditions"`
}

// RiskySection and FairSection appear in DocumentOverview
type RiskySection struct {
	Title    string `json:"title"`
	Text     string `json:"text"`
	Risk     string `json:"risk"`
	Severity string `json:"severity"`
}

type FairSection struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// DocumentOverview is the strict response shape for AnalyzeDocument
type DocumentOverview struct {
	RiskySections []RiskySection `json:"riskySections"`
	FairSections  []FairSection  `json:"fairSections"`
	Summary       string         `json:"summary"`
}

// ClassifyClause assigns category, risk level, plain-English explanation and
// concern keywords to a single clause
func (s *GeminiService) ClassifyClause(ctx context.Context, clause string) (*ClauseClassification, error) {
	prompt := fmt.Sprintf(`You are a legal expert specializing in analyzing Terms & Conditions for consumer protection.

Analyze the following legal clause and provide:
1. The primary category (data-privacy, payment, cancellation, arbitration, liability, intellectual-property, termination, modification, other)
2. Risk level (HIGH, MEDIUM, LOW)
3. A plain English explanation of what this clause means
4. Any concerns or keywords that indicate risk

CLAUSE:
%s

Respond in JSON format:
{
  "category": "string",
  "riskLevel": "string",
  "plainEnglish": "string",
  "concerns": ["string"]
}`, clause)

	raw, err := s.generateJSON(ctx, prompt, classifyTemperature)
	if err != nil {
		return nil, err
	}

	var result ClauseClassification
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelResponse, err)
	}
	return &result, nil
}

// DetectRisks checks a clause for specific consumer-unfriendly practices and
// returns a 0-100 risk score alongside the individual findings
func (s *GeminiService) DetectRisks(ctx context.Context, clause string) (*RiskDetection, error) {
	prompt := fmt.Sprintf(`You are analyzing a legal clause for consumer-unfriendly practices.

CLAUSE:
%s

Check for these specific risks:
1. Data collection/selling to third parties
2. Auto-renewal with hidden cancellation
3. Forced arbitration (no court access)
4. Unilateral modification rights
5. Non-refundable charges
6. Account termination at company discretion
7. Limited liability or no warranty

For each risk found, explain:
- What the risk is
- How it affects the consumer
- How severe it is (HIGH/MEDIUM/LOW)

Respond in JSON format:
{
  "detectedRisks": [
    {
      "type": "string",
      "description": "string",
      "impact": "string",
      "severity": "HIGH|MEDIUM|LOW"
    }
  ],
  "overallRiskScore": 0-100,
  "redFlags": ["string"]
}`, clause)

	raw, err := s.generateJSON(ctx, prompt, classifyTemperature)
	if err != nil {
		return nil, err
	}

	var result RiskDetection
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelResponse, err)
	}
	return &result, nil
}

// TranslateClause converts legal jargon into plain English
func (s *GeminiService) TranslateClause(ctx context.Context, clause string) (*PlainTranslation, error) {
	prompt := fmt.Sprintf(`You are a legal translator specializing in making complex legal text understandable to consumers.

Translate this legal clause into simple, plain English that a 10-year-old could understand:

"%s"

Provide:
1. A simple explanation
2. What this means for the user (in practical terms)
3. Any risks or concerns
4. A one-sentence summary

Respond in JSON format:
{
  "simple": "string",
  "whatItMeans": "string",
  "risks": ["string"],
  "summary": "string"
}`, clause)

	raw, err := s.generateJSON(ctx, prompt, classifyTemperature)
	if err != nil {
		return nil, err
	}

	var result PlainTranslation
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelResponse, err)
	}
	return &result, nil
}

// AnswerQuestion answers a question grounded in the provided clause context
func (s *GeminiService) AnswerQuestion(ctx context.Context, question, clause string) (*ClauseAnswer, error) {
	prompt := fmt.Sprintf(`You are a legal expert. Answer the following question about the provided Terms & Conditions clause.

QUESTION:
%s

CLAUSE:
%s

Provide:
1. A direct answer in plain English
2. The specific part of the clause that answers the question
3. Any important conditions or limitations

Respond in JSON format:
{
  "answer": "string",
  "sourceText": "string",
  "conditions": ["string"]
}`, question, clause)

	raw, err := s.generateJSON(ctx, prompt, classifyTemperature)
	if err != nil {
		return nil, err
	}

	var result ClauseAnswer
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelResponse, err)
	}
	return &result, nil
}

// AnalyzeDocument analyzes a whole document, truncated to a fixed character
// limit to respect context windows
func (s *GeminiService) AnalyzeDocument(ctx context.Context, document string) (*DocumentOverview, error) {
	truncated := truncateDocument(document)

	prompt := fmt.Sprintf(`You are a legal expert specializing in consumer protection. Analyze the following Terms & Conditions document.

DOCUMENT:
%s

Identify and extract:
1. The most risky clauses (anti-consumer practices)
2. The most standard/fair clauses
3. Any unusual or hidden fees/restrictions

Respond in JSON format:
{
  "riskySections": [
    {
      "title": "string",
      "text": "string",
      "risk": "string",
      "severity": "HIGH|MEDIUM|LOW"
    }
  ],
  "fairSections": [
    {
      "title": "string",
      "text": "string"
    }
  ],
  "summary": "string"
}`, truncated)

	raw, err := s.generateJSON(ctx, prompt, classifyTemperature)
	if err != nil {
		return nil, err
	}
	return parseDocumentOverview(raw)
}

// truncateDocument caps a document for whole-document prompts
func truncateDocument(document string) string {
	if len(document) > documentCharLimit {
		return document[:documentCharLimit] + "..."
	}
	return document
}

// parseDocumentOverview decodes the model's document analysis response
func parseDocumentOverview(raw string) (*DocumentOverview, error) {
	var result DocumentOverview
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelResponse, err)
	}
	return &result, nil
}

// ChooseFunction asks the model to pick a structured legal intent for a
// natural-language query. The raw text is returned so the router can fall
// back to a direct answer when the response is not parseable JSON.
func (s *GeminiService) ChooseFunction(ctx context.Context, functionNames []string, query, documentID string) (string, error) {
	if documentID == "" {
		documentID = "not provided"
	}

	prompt := fmt.Sprintf(`You are a legal assistant that helps users find specific clauses in terms of service documents.
Available functions: %s

Given a user query, determine which function to call and extract parameters.
If documentId is not provided in context, respond with an error.
Return JSON: { "function": "function_name", "args": {...} }

Query: "%s"
Document ID: %s`, strings.Join(functionNames, ", "), query, documentID)

	// plain text here: an unparseable response is a valid outcome that the
	// router surfaces as a direct answer
	return s.generate(ctx, prompt, routingTemperature, "")
}

func (s *GeminiService) generateJSON(ctx context.Context, prompt string, temperature float32) (string, error) {
	return s.generate(ctx, prompt, temperature, "application/json")
}

func (s *GeminiService) generate(ctx context.Context, prompt string, temperature float32, responseMIMEType string) (string, error) {
	if s.client == nil {
		return "", errors.New("gemini client not set")
	}

	model := s.client.GenerativeModel(s.modelName)
	model.SetTemperature(temperature)
	if responseMIMEType != "" {
		model.ResponseMIMEType = responseMIMEType
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
	}

	result := builder.String()
	if result == "" {
		return "", ErrGenerationFailed
	}

	return result, nil
}

// RiskLevelFromString parses a model-reported risk level, defaulting to LOW
func RiskLevelFromString(level string) models.RiskLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "HIGH":
		return models.RiskHigh
	case "MEDIUM":
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// CategoryFromString parses a model-reported category, defaulting to other
func CategoryFromString(category string) models.ClauseCategory {
	normalized := models.ClauseCategory(strings.ToLower(strings.TrimSpace(category)))
	for _, known := range models.AllCategories {
		if normalized == known {
			return known
		}
	}
	return models.CategoryOther
}
