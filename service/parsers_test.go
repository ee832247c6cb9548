package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clausewise-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTextNormalizes(t *testing.T) {
	raw := "First paragraph with  extra   spaces about subscription terms.\r\n\r\n\r\n\r\nSecond paragraph about data collection practices and storage."

	doc, err := ParseText(raw)
	require.NoError(t, err)

	assert.NotContains(t, doc.Text, "\r")
	assert.NotContains(t, doc.Text, "  ")
	assert.Contains(t, doc.Text, "First paragraph")
	assert.Equal(t, models.SourceText, doc.Metadata.Type)
	assert.Equal(t, len(strings.Fields(doc.Text)), doc.Metadata.WordCount)

	// blank-line runs collapse to a single paragraph break
	assert.Contains(t, doc.Text, "terms.\n\nSecond")
}

func TestParseTextTooShort(t *testing.T) {
	_, err := ParseText("tiny")
	assert.ErrorIs(t, err, ErrTextTooShort)
}

func TestParseTextTooLong(t *testing.T) {
	_, err := ParseText(strings.Repeat("a", maxDocumentLength+1))
	assert.ErrorIs(t, err, ErrTextTooLong)
}

func TestParseURLExtractsMainContent(t *testing.T) {
	page := `<html>
<head><title>Example Terms of Service</title></head>
<body>
<nav>Home About Pricing</nav>
<script>trackEverything();</script>
<main>
<h1>Terms of Service</h1>
<p>All subscription fees are non-refundable and renew automatically every month.</p>
<p>We may share personal information with third party partners when required.</p>
</main>
<footer>Copyright 2026</footer>
</body>
</html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer server.Close()

	doc, err := ParseURL(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "Example Terms of Service", doc.Metadata.Title)
	assert.Equal(t, models.SourceURL, doc.Metadata.Type)
	assert.Contains(t, doc.Text, "non-refundable")
	assert.NotContains(t, doc.Text, "trackEverything")
	assert.NotContains(t, doc.Text, "Home About Pricing")
	assert.NotContains(t, doc.Text, "Copyright 2026")
}

func TestParseURLRejectsBadScheme(t *testing.T) {
	_, err := ParseURL(context.Background(), "ftp://example.com/terms")
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = ParseURL(context.Background(), "not a url at all")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestParseURLNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := ParseURL(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestParsePDFRejectsNonPDF(t *testing.T) {
	_, err := ParsePDF([]byte("this is definitely not a pdf document at all"))
	assert.ErrorIs(t, err, ErrInvalidPDF)
}

func TestValidateQuery(t *testing.T) {
	assert.NoError(t, ValidateQuery("how do I cancel?"))
	assert.ErrorIs(t, ValidateQuery("hi"), ErrQueryTooShort)
	assert.ErrorIs(t, ValidateQuery("   a   "), ErrQueryTooShort)
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "scriptalert(1)/script", SanitizeText("<script>alert(1)</script>"))
	assert.Equal(t, "alert(1)", SanitizeText("javascript:alert(1)"))
	assert.Equal(t, "plain text stays", SanitizeText("  plain text stays  "))
}
