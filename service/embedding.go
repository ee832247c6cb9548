package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

const (
	embeddingAPI   = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent"
	batchAPI       = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:batchEmbedContents"
	embeddingModel = "models/gemini-embedding-001"

	maxRetries     = 3
	initialBackoff = time.Second

	// Google's batch API limit
	embeddingBatchSize = 100
)

// Embedding task types for the Gemini embedding API. Queries and indexed
// documents use different task types so the model optimizes each side of the
// retrieval pair.
const (
	TaskTypeQuery    = "RETRIEVAL_QUERY"
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
)

var ErrEmbeddingFailed = errors.New("failed to generate embedding")

type EmbeddingRequest struct {
	Model                string       `json:"model"`
	Content              ContentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

type ContentInput struct {
	Parts []PartInput `json:"parts"`
}

type PartInput struct {
	Text string `json:"text"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingData `json:"embedding"`
}

type EmbeddingData struct {
	Values []float64 `json:"values"`
}

// BatchEmbeddingItem is the structure returned by batch API (no nested "embedding" key)
type BatchEmbeddingItem struct {
	Values []float64 `json:"values"`
}

type BatchEmbeddingRequest struct {
	Requests []EmbeddingRequest `json:"requests"`
}

type BatchEmbeddingResponse struct {
	Embeddings []BatchEmbeddingItem `json:"embeddings"`
}

// EmbeddingClient calls the Gemini embedding API directly over HTTP.
// All embeddings are L2-normalized so cosine distance in pgvector is
// meaningful.
type EmbeddingClient struct {
	apiKey     string
	httpClient *http.Client
	dimensions int
}

// NewEmbeddingClient creates an embedding client with the given API key
func NewEmbeddingClient(apiKey string) *EmbeddingClient {
	return &EmbeddingClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		dimensions: 768,
	}
}

// Embed generates a single normalized embedding for the given text
func (c *EmbeddingClient) Embed(ctx context.Context, text, taskType string) ([]float64, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("embedding API key not set")
	}

	reqBody := EmbeddingRequest{
		Model: embeddingModel,
		Content: ContentInput{
			Parts: []PartInput{{Text: text}},
		},
		TaskType:             taskType,
		OutputDimensionality: c.dimensions,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", embeddingAPI, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt == maxRetries-1 {
				return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var apiResp EmbeddingResponse
			if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
				resp.Body.Close()
				if attempt == maxRetries-1 {
					return nil, fmt.Errorf("failed to decode response: %w", err)
				}
				continue
			}
			resp.Body.Close()

			return normalizeL2(apiResp.Embedding.Values), nil
		}

		resp.Body.Close()

		// Don't retry on 400 or 401 errors
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("API error: %d", resp.StatusCode)
		}

		if attempt == maxRetries-1 {
			return nil, fmt.Errorf("API error after %d attempts: %d", maxRetries, resp.StatusCode)
		}
	}

	return nil, ErrEmbeddingFailed
}

// EmbedBatch generates normalized embeddings for multiple texts, preserving
// input order. Large inputs are split across batch API calls.
func (c *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float64, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("embedding API key not set")
	}
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float64, 0, len(texts))

	for i := 0; i < len(texts); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch := texts[i:end]
		requests := make([]EmbeddingRequest, len(batch))
		for j, text := range batch {
			requests[j] = EmbeddingRequest{
				Model: embeddingModel,
				Content: ContentInput{
					Parts: []PartInput{{Text: text}},
				},
				TaskType:             taskType,
				OutputDimensionality: c.dimensions,
			}
		}

		jsonData, err := json.Marshal(BatchEmbeddingRequest{Requests: requests})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal batch request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", batchAPI, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to send request: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("API error: %d - %s", resp.StatusCode, string(body))
		}

		var apiResp BatchEmbeddingResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		resp.Body.Close()

		if len(apiResp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("mismatch: got %d embeddings for %d texts in batch", len(apiResp.Embeddings), len(batch))
		}

		for k, item := range apiResp.Embeddings {
			if len(item.Values) == 0 {
				return nil, fmt.Errorf("text %d has empty embedding", i+k)
			}
			embeddings = append(embeddings, normalizeL2(item.Values))
		}

		// Brief sleep to avoid rate limits
		if end < len(texts) {
			time.Sleep(100 * time.Millisecond)
		}
	}

	return embeddings, nil
}

func normalizeL2(values []float64) []float64 {
	norm := 0.0
	for _, v := range values {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range values {
			values[i] /= norm
		}
	}
	return values
}
