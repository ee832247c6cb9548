package service

import (
	"regexp"
	"strings"
)

// MinClauseLength is the minimum clause size after trimming. Shorter spans
// are dropped during segmentation and never classified.
const MinClauseLength = 50

var (
	sectionBoundaryRe = regexp.MustCompile(`\n\s*\d+\.\s+`)
	paragraphSplitRe  = regexp.MustCompile(`\n\s*\n`)
)

// SegmentClauses splits document text into discrete clause candidates.
// It first tries numbered-section boundaries ("1. ", "2. " at line start);
// if that yields fewer than 2 candidates it falls back to blank-line
// paragraphs. This is a heuristic, not a parser: documents with no explicit
// structure degrade to paragraph splitting rather than erroring. No
// de-duplication is performed and original document order is preserved.
func SegmentClauses(text string) []string {
	clauses := filterClauses(sectionBoundaryRe.Split(text, -1))

	if len(clauses) < 2 {
		return filterClauses(paragraphSplitRe.Split(text, -1))
	}

	return clauses
}

func filterClauses(parts []string) []string {
	clauses := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if len(trimmed) > MinClauseLength {
			clauses = append(clauses, trimmed)
		}
	}
	return clauses
}
