package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"contractpilot-backend/repository"
	"contractpilot-backend/service"

	"github.com/gin-gonic/gin"
)

// DocumentHandler handles HTTP requests for rendered contract documents
type DocumentHandler struct {
	documentService *service.DocumentService
	analysisRepo    *repository.AnalysisRepository
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	documentService *service.DocumentService,
	analysisRepo *repository.AnalysisRepository,
) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		analysisRepo:    analysisRepo,
	}
}

// GenerateSafeContractRequest represents the request body for rendering a
// revised contract
type GenerateSafeContractRequest struct {
	AnalysisResultID  string `json:"analysis_result_id" binding:"required"`
	ApplyAlternatives *bool  `json:"apply_alternatives"`
}

// GenerateSafeContract handles POST /api/generate-safe-contract. The
// rendered document is returned as a plain-text download.
func (h *DocumentHandler) GenerateSafeContract(c *gin.Context) {
	var req GenerateSafeContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	analysisID, ok := parseID(c, req.AnalysisResultID, "INVALID_ANALYSIS_ID", "Invalid analysis_result_id format")
	if !ok {
		return
	}

	result, err := h.analysisRepo.GetByID(c.Request.Context(), analysisID)
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

	apply := true
	if req.ApplyAlternatives != nil {
		apply = *req.ApplyAlternatives
	}

	rendered, err := h.documentService.RenderSafeContract(c.Request.Context(), service.RenderSafeContractRequest{
		Result:            result,
		ApplyAlternatives: apply,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyDocument) {
			badRequest(c, "EMPTY_DOCUMENT", "Analysis result has no clauses to render")
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RENDER_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, rendered.Filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", rendered.Content)
}
