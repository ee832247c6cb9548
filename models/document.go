package models

import "time"

// SourceType identifies how a document entered the system
type SourceType string

const (
	SourceText SourceType = "text"
	SourceURL  SourceType = "url"
	SourcePDF  SourceType = "pdf"
)

// DocumentMetadata describes a parsed document
type DocumentMetadata struct {
	Source    string     `json:"source"`
	Type      SourceType `json:"type"`
	Title     string     `json:"title,omitempty"`
	PageCount int        `json:"page_count,omitempty"`
	WordCount int        `json:"word_count"`
	ParsedAt  time.Time  `json:"parsed_at"`
}

// ParsedDocument is the normalized output of the text/url/pdf parsers
type ParsedDocument struct {
	Text     string           `json:"text"`
	Metadata DocumentMetadata `json:"metadata"`
}

// AnalysisInput describes a document analysis request
type AnalysisInput struct {
	Source string     `json:"source"`
	Type   SourceType `json:"type"`
}
