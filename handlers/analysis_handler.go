package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"contractpilot-backend/repository"
	"contractpilot-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxUploadBytes bounds the accepted contract document size
const maxUploadBytes = 10 << 20

// AnalysisHandler handles HTTP requests for contract analysis
type AnalysisHandler struct {
	analysisService *service.AnalysisService
	documentService *service.DocumentService
	analysisRepo    *repository.AnalysisRepository
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(
	analysisService *service.AnalysisService,
	documentService *service.DocumentService,
	analysisRepo *repository.AnalysisRepository,
) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		documentService: documentService,
		analysisRepo:    analysisRepo,
	}
}

// AnalyzeRequest represents the JSON request body for text analysis
type AnalyzeRequest struct {
	Text string `json:"text"`
}

// Analyze handles POST /api/analyze. Accepts either a multipart upload
// (field "file") or a JSON body with the raw contract text.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	text, filename, ok := h.extractText(c)
	if !ok {
		return
	}

	// keep the original document around for later reference
	if filename != "" && h.documentService != nil {
		if _, _, err := h.documentService.ArchiveUpload(c.Request.Context(), filename, []byte(text)); err != nil {
			log.Printf("Warning: Failed to archive upload %s: %v", filename, err)
		}
	}

	result, err := h.analysisService.AnalyzeDocument(c.Request.Context(), service.AnalyzeDocumentRequest{
		Text: text,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyDocument):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "EMPTY_DOCUMENT",
					"message": "Document contains no analyzable text",
				},
			})
		case errors.Is(err, service.ErrTooManyClauseFailures):
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ANALYSIS_DEGRADED",
					"message": "Too many clauses could not be analyzed",
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ANALYSIS_FAILED",
					"message": err.Error(),
				},
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Result,
	})
}

// GetAnalysis handles GET /api/analyses/:id
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid analysis ID format",
			},
		})
		return
	}

	result, err := h.analysisRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Analysis result not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// extractText pulls the contract text from a multipart upload or JSON body.
// Reports false after having written the error response.
func (h *AnalysisHandler) extractText(c *gin.Context) (text, filename string, ok bool) {
	file, header, err := c.Request.FormFile("file")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_FILE",
					"message": "Failed to read uploaded file",
				},
			})
			return "", "", false
		}
		if len(data) > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FILE_TOO_LARGE",
					"message": "Uploaded file exceeds the 10MB limit",
				},
			})
			return "", "", false
		}
		return string(data), header.Filename, true
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Provide a contract file or a JSON body with a text field",
			},
		})
		return "", "", false
	}
	return req.Text, "", true
}
