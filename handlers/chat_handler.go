package handlers

import (
	"errors"
	"net/http"

	"contractpilot-backend/models"
	"contractpilot-backend/repository"
	"contractpilot-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatHandler handles HTTP requests for consultation sessions
type ChatHandler struct {
	chatService      *service.ChatService
	laborChatService *service.ChatService
	analysisRepo     *repository.AnalysisRepository
	policy           service.Policy
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	chatService *service.ChatService,
	laborChatService *service.ChatService,
	analysisRepo *repository.AnalysisRepository,
	policy service.Policy,
) *ChatHandler {
	return &ChatHandler{
		chatService:      chatService,
		laborChatService: laborChatService,
		analysisRepo:     analysisRepo,
		policy:           policy,
	}
}

// HistoryTurn is a prior conversation turn supplied by the client
type HistoryTurn struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest represents the request body for a consultation message
type ChatRequest struct {
	SessionID           *string       `json:"session_id"`
	Message             string        `json:"message" binding:"required"`
	ConversationHistory []HistoryTurn `json:"conversation_history"`
	AnalysisResultID    *string       `json:"analysis_result_id"`
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	h.handleChat(c, h.chatService)
}

// LaborChat handles POST /api/labor-chat
func (h *ChatHandler) LaborChat(c *gin.Context) {
	h.handleChat(c, h.laborChatService)
}

func (h *ChatHandler) handleChat(c *gin.Context, svc *service.ChatService) {
	var req ChatRequest
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

	sessionID, ok := h.resolveSession(c, svc, &req)
	if !ok {
		return
	}

	result, err := svc.Message(c.Request.Context(), service.ChatMessageRequest{
		SessionID: sessionID,
		Content:   req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SESSION_NOT_FOUND",
					"message": "Consultation session not found",
				},
			})
		case errors.Is(err, service.ErrSessionBusy):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SESSION_BUSY",
					"message": "A message is already being processed for this session",
				},
			})
		default:
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CONSULTATION_FAILED",
					"message": err.Error(),
				},
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"session_id":   result.SessionID,
			"reply":        result.Reply.Content,
			"cited_cases":  result.Reply.CitedCases,
			"needs_expert": result.NeedsExpert,
		},
	})
}

// resolveSession finds the existing session or starts one seeded with the
// client-supplied history and optional analysis context
func (h *ChatHandler) resolveSession(c *gin.Context, svc *service.ChatService, req *ChatRequest) (uuid.UUID, bool) {
	if req.SessionID != nil && *req.SessionID != "" {
		id, err := uuid.Parse(*req.SessionID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_SESSION_ID",
					"message": "Invalid session_id format",
				},
			})
			return uuid.Nil, false
		}
		return id, true
	}

	start := service.StartSessionRequest{
		History: historyTurns(req.ConversationHistory),
	}

	if req.AnalysisResultID != nil && *req.AnalysisResultID != "" {
		analysisID, err := uuid.Parse(*req.AnalysisResultID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_ANALYSIS_ID",
					"message": "Invalid analysis_result_id format",
				},
			})
			return uuid.Nil, false
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
				return uuid.Nil, false
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RETRIEVAL_FAILED",
					"message": err.Error(),
				},
			})
			return uuid.Nil, false
		}
		start.AnalysisResultID = &analysisID
		start.Context = service.ContextFromAnalysis(result, h.policy)
	}

	session := svc.StartSession(start)
	return session.ID, true
}

func historyTurns(history []HistoryTurn) []models.Turn {
	turns := make([]models.Turn, 0, len(history))
	for _, t := range history {
		role := models.RoleUser
		if t.Role == string(models.RoleAssistant) {
			role = models.RoleAssistant
		}
		turns = append(turns, models.Turn{Role: role, Content: t.Content})
	}
	return turns
}
