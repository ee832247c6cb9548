package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ClauseMetadata is the advisory metadata stored alongside an indexed clause.
// DocumentID is advisory only; no back-reference to the source document is
// guaranteed to remain valid.
type ClauseMetadata struct {
	Category   ClauseCategory `json:"category"`
	RiskLevel  RiskLevel      `json:"riskLevel"`
	SourceURL  *string        `json:"sourceUrl,omitempty"`
	DocumentID string         `json:"documentId,omitempty"`
	AnalyzedAt time.Time      `json:"analyzedAt"`
}

// Value implements driver.Valuer for JSONB
func (m ClauseMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB
func (m *ClauseMetadata) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	if len(bytes) == 0 {
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// ClauseRecord is the unit stored in the vector store. The embedding length
// must be constant across all records in one store instance; the store does
// not detect model mixing.
type ClauseRecord struct {
	ID         uuid.UUID      `json:"id"`
	Text       string         `json:"text"`
	Embedding  []float64      `json:"-"`
	Metadata   ClauseMetadata `json:"metadata"`
	Similarity float64        `json:"similarity,omitempty"`
}
