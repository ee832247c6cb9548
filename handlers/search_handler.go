package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"clausewise-backend/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler handles HTTP requests for clause search and Q&A
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchRequest is the JSON body for POST /api/search
type SearchRequest struct {
	Question string `json:"question" binding:"required"`
	Mode     string `json:"mode"`
}

// Search handles POST /api/search. Mode selects the retrieval strategy:
// simple (default), enhanced, explain, or ask.
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "question is required",
			},
		})
		return
	}

	question := service.SanitizeText(req.Question)
	if err := service.ValidateQuery(question); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "QUERY_TOO_SHORT",
				"message": "question must be at least 3 characters",
			},
		})
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = "simple"
	}

	var (
		result interface{}
		err    error
	)
	switch mode {
	case "simple":
		result, err = h.searchService.SimpleSearch(c.Request.Context(), question)
	case "enhanced":
		result, err = h.searchService.EnhancedSearch(c.Request.Context(), question)
	case "explain":
		result, err = h.searchService.Explain(c.Request.Context(), question)
	case "ask":
		result, err = h.searchService.Ask(c.Request.Context(), question)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_MODE",
				"message": "mode must be one of: simple, enhanced, explain, ask",
			},
		})
		return
	}

	if err != nil {
		h.respondSearchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

func (h *SearchHandler) respondSearchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoRelevantContent):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_RELEVANT_CONTENT",
				"message": "No indexed clauses matched the question",
			},
		})
	case errors.Is(err, service.ErrInvalidModelResponse):
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MODEL_RESPONSE_INVALID",
				"message": "The model returned an unparseable response",
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SEARCH_FAILED",
				"message": fmt.Sprintf("Search failed: %v", err),
			},
		})
	}
}
