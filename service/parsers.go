package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"clausewise-backend/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

var (
	ErrTextTooShort  = errors.New("text too short to analyze")
	ErrTextTooLong   = errors.New("text exceeds maximum length")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrFetchFailed   = errors.New("failed to fetch URL")
	ErrInvalidPDF    = errors.New("invalid PDF data")
	ErrEmptyDocument = errors.New("document contains no extractable text")
	ErrQueryTooShort = errors.New("query too short")
)

const (
	minDocumentLength = 50
	maxDocumentLength = 100000
	minQueryLength    = 3

	fetchTimeout = 10 * time.Second
	fetchUA      = "clausewise-backend/1.0"

	// response size limit for URL fetches (5MB)
	maxFetchSize = int64(5 * 1024 * 1024)
)

// contentSelectors are tried in order when extracting legal text from a page;
// the first non-empty match wins, then the whole body
var contentSelectors = []string{
	"main",
	"article",
	"[role=main]",
	".content",
	"#content",
	".terms",
	".legal",
}

var (
	crlfRe        = regexp.MustCompile(`\r\n?`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
	lineSpacingRe = regexp.MustCompile(`[ \t]+`)
	scriptPayload = regexp.MustCompile(`(?i)javascript:`)
	tagChars      = regexp.MustCompile(`[<>]`)
)

// ParseText normalizes raw pasted text into a parsed document. Line breaks
// are preserved because the segmenter splits on them; only horizontal
// whitespace and blank-line runs are collapsed.
func ParseText(text string) (*models.ParsedDocument, error) {
	normalized := normalizeDocumentText(text)
	if len(normalized) < minDocumentLength {
		return nil, ErrTextTooShort
	}
	if len(normalized) > maxDocumentLength {
		return nil, ErrTextTooLong
	}

	return &models.ParsedDocument{
		Text: normalized,
		Metadata: models.DocumentMetadata{
			Source:    "pasted text",
			Type:      models.SourceText,
			WordCount: len(strings.Fields(normalized)),
			ParsedAt:  time.Now().UTC(),
		},
	}, nil
}

// ParseURL fetches a page and extracts its legal text content
func ParseURL(ctx context.Context, rawURL string) (*models.ParsedDocument, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUA)

	client := &http.Client{Timeout: fetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, header, footer").Remove()

	content := extractContent(doc)
	if len(content) < minDocumentLength {
		return nil, ErrEmptyDocument
	}
	if len(content) > maxDocumentLength {
		content = content[:maxDocumentLength]
	}

	return &models.ParsedDocument{
		Text: content,
		Metadata: models.DocumentMetadata{
			Source:    rawURL,
			Type:      models.SourceURL,
			Title:     strings.TrimSpace(doc.Find("title").First().Text()),
			WordCount: len(strings.Fields(content)),
			ParsedAt:  time.Now().UTC(),
		},
	}, nil
}

// ParsePDF extracts plain text from PDF bytes
func ParsePDF(data []byte) (*models.ParsedDocument, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, ErrInvalidPDF
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	plainText, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("failed to extract PDF text: %w", err)
	}

	raw, err := io.ReadAll(plainText)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF text: %w", err)
	}

	text := normalizeDocumentText(string(raw))
	if len(text) < minDocumentLength {
		return nil, ErrEmptyDocument
	}
	if len(text) > maxDocumentLength {
		text = text[:maxDocumentLength]
	}

	return &models.ParsedDocument{
		Text: text,
		Metadata: models.DocumentMetadata{
			Source:    "uploaded PDF",
			Type:      models.SourcePDF,
			PageCount: reader.NumPage(),
			WordCount: len(strings.Fields(text)),
			ParsedAt:  time.Now().UTC(),
		},
	}, nil
}

// ValidateQuery checks a search query before it reaches retrieval
func ValidateQuery(query string) error {
	if len(strings.TrimSpace(query)) < minQueryLength {
		return ErrQueryTooShort
	}
	return nil
}

// SanitizeText strips markup characters and script payloads from user input
func SanitizeText(text string) string {
	text = tagChars.ReplaceAllString(text, "")
	text = scriptPayload.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// extractContent walks the content selector list and falls back to the whole
// body. Block elements join with blank lines so clause segmentation still
// sees paragraph boundaries.
func extractContent(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		selection := doc.Find(selector).First()
		if selection.Length() == 0 {
			continue
		}
		if text := blockText(selection); len(text) >= minDocumentLength {
			return text
		}
	}
	return blockText(doc.Find("body").First())
}

func blockText(selection *goquery.Selection) string {
	var blocks []string
	selection.Find("p, li, h1, h2, h3, h4, h5, h6").Each(func(_ int, block *goquery.Selection) {
		if text := strings.Join(strings.Fields(block.Text()), " "); text != "" {
			blocks = append(blocks, text)
		}
	})

	if len(blocks) == 0 {
		return strings.Join(strings.Fields(selection.Text()), " ")
	}
	return strings.Join(blocks, "\n\n")
}

func normalizeDocumentText(text string) string {
	text = crlfRe.ReplaceAllString(text, "\n")
	text = lineSpacingRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	text = strings.Join(lines, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
