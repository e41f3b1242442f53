package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"contractpilot-backend/models"
	"contractpilot-backend/repository"
	"contractpilot-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CollaborationHandler handles HTTP requests for shared analysis reviews
type CollaborationHandler struct {
	collaborationService *service.CollaborationService
	analysisRepo         *repository.AnalysisRepository
}

// NewCollaborationHandler creates a new collaboration handler
func NewCollaborationHandler(
	collaborationService *service.CollaborationService,
	analysisRepo *repository.AnalysisRepository,
) *CollaborationHandler {
	return &CollaborationHandler{
		collaborationService: collaborationService,
		analysisRepo:         analysisRepo,
	}
}

// CreateShareRequest represents the request body for creating a share
type CreateShareRequest struct {
	Title            string `json:"title" binding:"required"`
	OwnerName        string `json:"owner_name" binding:"required"`
	AnalysisResultID string `json:"analysis_result_id" binding:"required"`
	ExpiresInDays    *int   `json:"expires_in_days"`
}

// CreateShare handles POST /api/shares
func (h *CollaborationHandler) CreateShare(c *gin.Context) {
	var req CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	analysisID, err := uuid.Parse(req.AnalysisResultID)
	if err != nil {
		badRequest(c, "INVALID_ANALYSIS_ID", "Invalid analysis_result_id format")
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
		collabError(c, err)
		return
	}

	var expiresAt *time.Time
	if req.ExpiresInDays != nil {
		if *req.ExpiresInDays <= 0 {
			badRequest(c, "INVALID_EXPIRY", "expires_in_days must be positive")
			return
		}
		t := time.Now().UTC().AddDate(0, 0, *req.ExpiresInDays)
		expiresAt = &t
	}

	share, err := h.collaborationService.CreateShare(service.CreateShareRequest{
		Title:     req.Title,
		OwnerName: req.OwnerName,
		Result:    result,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		collabError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    share,
	})
}

// ListShares handles GET /api/shares?actor_id=<uuid>
func (h *CollaborationHandler) ListShares(c *gin.Context) {
	actorID, ok := parseID(c, c.Query("actor_id"), "INVALID_ACTOR_ID", "Invalid actor_id format")
	if !ok {
		return
	}

	shares := h.collaborationService.SharesFor(actorID)
	if shares == nil {
		shares = []models.ShareRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    shares,
	})
}

// GetShare handles GET /api/shares/:id
func (h *CollaborationHandler) GetShare(c *gin.Context) {
	shareID, ok := parseID(c, c.Param("id"), "INVALID_ID", "Invalid share ID format")
	if !ok {
		return
	}

	share, err := h.collaborationService.GetShare(shareID)
	if err != nil {
		collabError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    share,
	})
}

// AddCollaboratorRequest represents the request body for adding a collaborator
type AddCollaboratorRequest struct {
	ActorID    string `json:"actor_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email"`
	Permission string `json:"permission" binding:"required"`
}

// AddCollaborator handles POST /api/shares/:id/collaborators
func (h *CollaborationHandler) AddCollaborator(c *gin.Context) {
	shareID, ok := parseID(c, c.Param("id"), "INVALID_ID", "Invalid share ID format")
	if !ok {
		return
	}

	var req AddCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	actorID, ok := parseID(c, req.ActorID, "INVALID_ACTOR_ID", "Invalid actor_id format")
	if !ok {
		return
	}
	permission, err := models.ParsePermission(req.Permission)
	if err != nil {
		badRequest(c, "INVALID_PERMISSION", err.Error())
		return
	}

	collaborator, err := h.collaborationService.AddCollaborator(service.AddCollaboratorRequest{
		ShareID:    shareID,
		ActorID:    actorID,
		Name:       req.Name,
		Email:      req.Email,
		Permission: permission,
	})
	if err != nil {
		collabError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    collaborator,
	})
}

// UpdatePermissionRequest represents the request body for a permission change
type UpdatePermissionRequest struct {
	ActorID    string `json:"actor_id" binding:"required"`
	Permission string `json:"permission" binding:"required"`
}

// UpdatePermission handles PUT /api/shares/:id/collaborators/:collaborator_id
func (h *CollaborationHandler) UpdatePermission(c *gin.Context) {
	shareID, ok := parseID(c, c.Param("id"), "INVALID_ID", "Invalid share ID format")
	if !ok {
		return
	}
	collaboratorID, ok := parseID(c, c.Param("collaborator_id"), "INVALID_COLLABORATOR_ID", "Invalid collaborator ID format")
	if !ok {
		return
	}

	var req UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	actorID, ok := parseID(c, req.ActorID, "INVALID_ACTOR_ID", "Invalid actor_id format")
	if !ok {
		return
	}
	permission, err := models.ParsePermission(req.Permission)
	if err != nil {
		badRequest(c, "INVALID_PERMISSION", err.Error())
		return
	}

	if err := h.collaborationService.UpdatePermission(shareID, actorID, collaboratorID, permission); err != nil {
		collabError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RemoveCollaborator handles DELETE /api/shares/:id/collaborators/:collaborator_id
func (h *CollaborationHandler) RemoveCollaborator(c *gin.Context) {
	shareID, ok := parseID(c, c.Param("id"), "INVALID_ID", "Invalid share ID format")
	if !ok {
		return
	}
	collaboratorID, ok := parseID(c, c.Param("collaborator_id"), "INVALID_COLLABORATOR_ID", "Invalid collaborator ID format")
	if !ok {
		return
	}
	actorID, ok := parseID(c, c.Query("actor_id"), "INVALID_ACTOR_ID", "Invalid actor_id format")
	if !ok {
		return
	}

	if err := h.collaborationService.RemoveCollaborator(shareID, actorID, collaboratorID); err != nil {
		collabError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AddCommentRequest represents the request body for adding a comment
type AddCommentRequest struct {
	ActorID      string  `json:"actor_id" binding:"required"`
	ClauseNumber int     `json:"clause_number" binding:"required"`
	Content      string  `json:"content" binding:"required"`
	CommentType  string  `json:"comment_type"`
	ParentID     *string `json:"parent_id"`
}

// AddComment handles POST /api/shares/:id/comments
func (h *CollaborationHandler) AddComment(c *gin.Context) {
	shareID, ok := parseID(c, c.Param("id"), "INVALID_ID", "Invalid share ID format")
	if !ok {
		return
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	actorID, ok := parseID(c, req.ActorID, "INVALID_ACTOR_ID", "Invalid actor_id format")
	if !ok {
		return
	}

	var parentID *uuid.UUID
	if req.ParentID != nil && *req.ParentID != "" {
		id, err := uuid.Parse(*req.ParentID)
		if err != nil {
			badRequest(c, "INVALID_PARENT_ID", "Invalid parent_id format")
			return
		}
		parentID = &id
	}

	comment, err := h.collaborationService.AddComment(service.AddCommentRequest{
		ShareID:      shareID,
		ActorID:      actorID,
		ClauseNumber: req.ClauseNumber,
		Content:      req.Content,
		Type:         models.CommentType(req.CommentType),
		ParentID:     parentID,
	})
	if err != nil {
		collabError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    comment,
	})
}

// GetComments handles GET /api/shares/:id/comments?clause_number=N
func (h *CollaborationHandler) GetComments(c *gin.Context) {
	shareID, ok := parseID(c, c.Param("id"), "INVALID_ID", "Invalid share ID format")
	if !ok {
		return
	}
	clauseNumber, err := strconv.Atoi(c.Query("clause_number"))
	if err != nil {
		badRequest(c, "INVALID_CLAUSE_NUMBER", "clause_number query parameter is required")
		return
	}

	comments, err := h.collaborationService.CommentsByClause(shareID, clauseNumber)
	if err != nil {
		collabError(c, err)
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    comments,
	})
}

// ResolveCommentRequest represents the request body for resolving a comment
type ResolveCommentRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
}

// ResolveComment handles POST /api/shares/:id/comments/:comment_id/resolve
func (h *CollaborationHandler) ResolveComment(c *gin.Context) {
	shareID, ok := parseID(c, c.Param("id"), "INVALID_ID", "Invalid share ID format")
	if !ok {
		return
	}
	commentID, ok := parseID(c, c.Param("comment_id"), "INVALID_COMMENT_ID", "Invalid comment ID format")
	if !ok {
		return
	}

	var req ResolveCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	actorID, ok := parseID(c, req.ActorID, "INVALID_ACTOR_ID", "Invalid actor_id format")
	if !ok {
		return
	}

	if err := h.collaborationService.ResolveComment(shareID, actorID, commentID); err != nil {
		collabError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SnapshotVersionRequest represents the request body for recording a version
type SnapshotVersionRequest struct {
	ActorID     string          `json:"actor_id" binding:"required"`
	Description string          `json:"description"`
	Clauses     []models.Clause `json:"clauses" binding:"required"`
}

// SnapshotVersion handles POST /api/shares/:id/versions
func (h *CollaborationHandler) SnapshotVersion(c *gin.Context) {
	shareID, ok := parseID(c, c.Param("id"), "INVALID_ID", "Invalid share ID format")
	if !ok {
		return
	}

	var req SnapshotVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	actorID, ok := parseID(c, req.ActorID, "INVALID_ACTOR_ID", "Invalid actor_id format")
	if !ok {
		return
	}

	snapshot, err := h.collaborationService.SnapshotVersion(service.SnapshotVersionRequest{
		ShareID:     shareID,
		ActorID:     actorID,
		Description: req.Description,
		Clauses:     req.Clauses,
	})
	if err != nil {
		collabError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    snapshot,
	})
}

// VersionDiff handles GET /api/shares/:id/versions/diff?from=N&to=M
func (h *CollaborationHandler) VersionDiff(c *gin.Context) {
	shareID, ok := parseID(c, c.Param("id"), "INVALID_ID", "Invalid share ID format")
	if !ok {
		return
	}
	from, err := strconv.Atoi(c.Query("from"))
	if err != nil {
		badRequest(c, "INVALID_VERSION", "from query parameter is required")
		return
	}
	to, err := strconv.Atoi(c.Query("to"))
	if err != nil {
		badRequest(c, "INVALID_VERSION", "to query parameter is required")
		return
	}

	changes, err := h.collaborationService.VersionDiff(shareID, from, to)
	if err != nil {
		collabError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"from":    from,
			"to":      to,
			"changes": changes,
		},
	})
}

// GenerateLinkRequest represents the request body for minting a share link
type GenerateLinkRequest struct {
	ActorID       string `json:"actor_id" binding:"required"`
	Permission    string `json:"permission" binding:"required"`
	ExpiresInDays *int   `json:"expires_in_days"`
}

// GenerateLink handles POST /api/shares/:id/links
func (h *CollaborationHandler) GenerateLink(c *gin.Context) {
	shareID, ok := parseID(c, c.Param("id"), "INVALID_ID", "Invalid share ID format")
	if !ok {
		return
	}

	var req GenerateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}
	actorID, ok := parseID(c, req.ActorID, "INVALID_ACTOR_ID", "Invalid actor_id format")
	if !ok {
		return
	}
	permission, err := models.ParsePermission(req.Permission)
	if err != nil {
		badRequest(c, "INVALID_PERMISSION", err.Error())
		return
	}

	var expiresAt *time.Time
	if req.ExpiresInDays != nil {
		if *req.ExpiresInDays <= 0 {
			badRequest(c, "INVALID_EXPIRY", "expires_in_days must be positive")
			return
		}
		t := time.Now().UTC().AddDate(0, 0, *req.ExpiresInDays)
		expiresAt = &t
	}

	link, err := h.collaborationService.GenerateShareLink(shareID, actorID, permission, expiresAt)
	if err != nil {
		collabError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    link,
	})
}

// ValidateLinkRequest represents the request body for validating a link token
type ValidateLinkRequest struct {
	Token string `json:"token" binding:"required"`
}

// ValidateLink handles POST /api/shares/:id/links/validate
func (h *CollaborationHandler) ValidateLink(c *gin.Context) {
	shareID, ok := parseID(c, c.Param("id"), "INVALID_ID", "Invalid share ID format")
	if !ok {
		return
	}

	var req ValidateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	permission, err := h.collaborationService.ValidateShareLink(shareID, req.Token)
	if err != nil {
		collabError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"permission": permission,
		},
	})
}

// parseID parses a UUID, writing the error response on failure
func parseID(c *gin.Context, raw, code, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, code, message)
		return uuid.Nil, false
	}
	return id, true
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// collabError maps collaboration service errors to HTTP responses
func collabError(c *gin.Context, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, service.ErrShareNotFound):
		status, code = http.StatusNotFound, "SHARE_NOT_FOUND"
	case errors.Is(err, service.ErrShareExpired):
		status, code = http.StatusGone, "SHARE_EXPIRED"
	case errors.Is(err, service.ErrPermissionDenied):
		status, code = http.StatusForbidden, "PERMISSION_DENIED"
	case errors.Is(err, service.ErrOwnerImmutable):
		status, code = http.StatusForbidden, "OWNER_IMMUTABLE"
	case errors.Is(err, service.ErrCommentNotFound):
		status, code = http.StatusNotFound, "COMMENT_NOT_FOUND"
	case errors.Is(err, service.ErrCollaboratorNotFound):
		status, code = http.StatusNotFound, "COLLABORATOR_NOT_FOUND"
	case errors.Is(err, service.ErrUnknownClause):
		status, code = http.StatusBadRequest, "UNKNOWN_CLAUSE"
	case errors.Is(err, service.ErrShareLinkInvalid):
		status, code = http.StatusUnauthorized, "INVALID_LINK"
	default:
		status, code = http.StatusInternalServerError, "INTERNAL_ERROR"
	}

	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": err.Error(),
		},
	})
}
