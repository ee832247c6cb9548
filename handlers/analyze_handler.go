package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"clausewise-backend/models"
	"clausewise-backend/repository"
	"clausewise-backend/service"
	"clausewise-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AnalyzeHandler handles HTTP requests for document risk analysis
type AnalyzeHandler struct {
	analysisService *service.AnalysisService
	fileRepo        *repository.FileRepository
	storage         storage.Storage
	maxUploadSize   int64
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(analysisService *service.AnalysisService, fileRepo *repository.FileRepository, docStorage storage.Storage) *AnalyzeHandler {
	return &AnalyzeHandler{
		analysisService: analysisService,
		fileRepo:        fileRepo,
		storage:         docStorage,
		maxUploadSize:   10 * 1024 * 1024, // 10MB
	}
}

// AnalyzeRequest is the JSON body for POST /api/analyze
type AnalyzeRequest struct {
	Text   string `json:"text"`
	URL    string `json:"url"`
	FileID string `json:"fileId"`
	UseAI  *bool  `json:"useAi"`
	Index  bool   `json:"index"`
}

// Analyze handles POST /api/analyze
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
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

	provided := 0
	for _, s := range []string{req.Text, req.URL, req.FileID} {
		if s != "" {
			provided++
		}
	}
	if provided > 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AMBIGUOUS_SOURCE",
				"message": "Provide exactly one of text, url, or fileId",
			},
		})
		return
	}

	var input models.AnalysisInput
	switch {
	case req.Text != "":
		input = models.AnalysisInput{Source: service.SanitizeText(req.Text), Type: models.SourceText}
	case req.URL != "":
		input = models.AnalysisInput{Source: req.URL, Type: models.SourceURL}
	case req.FileID != "":
		data, err := h.loadStoredFile(c, req.FileID)
		if err != nil {
			return
		}
		input = models.AnalysisInput{Source: string(data), Type: models.SourcePDF}
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_SOURCE",
				"message": "One of text, url, or fileId is required",
			},
		})
		return
	}

	useAI := true
	if req.UseAI != nil {
		useAI = *req.UseAI
	}

	report, err := h.analysisService.Analyze(c.Request.Context(), service.AnalyzeRequest{
		Input: input,
		UseAI: useAI,
		Index: req.Index,
	})
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// AnalyzeUpload handles POST /api/analyze/upload with a multipart PDF
func (h *AnalyzeHandler) AnalyzeUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	if fileHeader.Size > h.maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxUploadSize),
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_OPEN_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_READ_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	useAI := c.DefaultPostForm("use_ai", "true") != "false"
	index := c.PostForm("index") == "true"

	report, err := h.analysisService.Analyze(c.Request.Context(), service.AnalyzeRequest{
		Input: models.AnalysisInput{Source: string(data), Type: models.SourcePDF},
		UseAI: useAI,
		Index: index,
	})
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// loadStoredFile resolves a previously uploaded file and reads its content.
// It writes the error response itself; callers only need to bail out.
func (h *AnalyzeHandler) loadStoredFile(c *gin.Context, fileID string) ([]byte, error) {
	id, err := uuid.Parse(fileID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_ID",
				"message": "fileId must be a valid UUID",
			},
		})
		return nil, err
	}

	file, err := h.fileRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_NOT_FOUND",
				"message": "File not found",
			},
		})
		return nil, err
	}

	reader, err := h.storage.Download(c.Request.Context(), file.StoragePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_READ_ERROR",
				"message": "Failed to read stored file",
			},
		})
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_READ_ERROR",
				"message": "Failed to read stored file",
			},
		})
		return nil, err
	}
	return data, nil
}

func (h *AnalyzeHandler) respondAnalysisError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTextTooShort):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TEXT_TOO_SHORT",
				"message": "Document text is too short to analyze",
			},
		})
	case errors.Is(err, service.ErrTextTooLong):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TEXT_TOO_LONG",
				"message": "Document text exceeds the maximum length",
			},
		})
	case errors.Is(err, service.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_URL",
				"message": "URL must be a valid http or https address",
			},
		})
	case errors.Is(err, service.ErrFetchFailed):
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FETCH_FAILED",
				"message": "Could not fetch the document from the given URL",
			},
		})
	case errors.Is(err, service.ErrInvalidPDF):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_PDF",
				"message": "Uploaded file is not a valid PDF",
			},
		})
	case errors.Is(err, service.ErrEmptyDocument), errors.Is(err, service.ErrNoClausesFound):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_CLAUSES_FOUND",
				"message": "No analyzable clauses were found in the document",
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ANALYSIS_FAILED",
				"message": fmt.Sprintf("Failed to analyze document: %v", err),
			},
		})
	}
}
