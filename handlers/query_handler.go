package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"clausewise-backend/service"

	"github.com/gin-gonic/gin"
)

// QueryHandler handles HTTP requests for structured clause queries
type QueryHandler struct {
	queryService *service.QueryService
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(queryService *service.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

// QueryRequest is the JSON body for POST /api/query. When Function is set
// the named intent runs directly; otherwise Query is routed by the model.
type QueryRequest struct {
	Query      string            `json:"query"`
	DocumentID string            `json:"documentId"`
	Function   string            `json:"function"`
	Args       map[string]string `json:"args"`
}

// Query handles POST /api/query
func (h *QueryHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	if req.Function != "" {
		args := req.Args
		if args == nil {
			args = make(map[string]string)
		}
		if _, ok := args["documentId"]; !ok && req.DocumentID != "" {
			args["documentId"] = req.DocumentID
		}

		result, err := h.queryService.Route(c.Request.Context(), req.Function, args)
		if err != nil {
			h.respondQueryError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"function": req.Function,
				"result":   result,
			},
		})
		return
	}

	query := service.SanitizeText(req.Query)
	if err := service.ValidateQuery(query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "QUERY_TOO_SHORT",
				"message": "query must be at least 3 characters",
			},
		})
		return
	}

	result, err := h.queryService.ProcessQuery(c.Request.Context(), query, req.DocumentID)
	if err != nil {
		h.respondQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

func (h *QueryHandler) respondQueryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownFunction):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNKNOWN_FUNCTION",
				"message": err.Error(),
			},
		})
	case errors.Is(err, service.ErrMissingArgument):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_ARGUMENT",
				"message": err.Error(),
			},
		})
	case errors.Is(err, service.ErrNoRelevantContent):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_RELEVANT_CONTENT",
				"message": "No indexed clauses matched the query",
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "QUERY_FAILED",
				"message": fmt.Sprintf("Query failed: %v", err),
			},
		})
	}
}
