package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"contractpilot-backend/models"
	"contractpilot-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	response string
}

func (g *fakeGenerator) Generate(ctx context.Context, req service.GenerateRequest) (string, error) {
	return g.response, nil
}

type fakeScorer struct{}

func (s *fakeScorer) Score(ctx context.Context, clause models.Clause, contractType string, cases []models.CitedCase) (*models.ClauseAnalysis, error) {
	return &models.ClauseAnalysis{RiskScore: 2, Summary: "표준 조항", Issues: []string{}}, nil
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	return envelope.Error.Code
}

func TestAnalyzeEmptyDocument(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := service.NewAnalysisService(service.AnalysisWithScorer(&fakeScorer{}))
	h := NewAnalysisHandler(svc, nil, nil)

	r := gin.New()
	r.POST("/api/analyze", h.Analyze)

	w := postJSON(t, r, "/api/analyze", gin.H{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_DOCUMENT", errorCode(t, w))
}

func TestAnalyzeReturnsResult(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := service.NewAnalysisService(service.AnalysisWithScorer(&fakeScorer{}))
	h := NewAnalysisHandler(svc, nil, nil)

	r := gin.New()
	r.POST("/api/analyze", h.Analyze)

	w := postJSON(t, r, "/api/analyze", gin.H{"text": "제1조 (목적)\n본 계약의 목적을 정한다."})
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Success bool                  `json:"success"`
		Data    models.AnalysisResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.NotZero(t, envelope.Data.TotalClauses)
	assert.Equal(t, models.RiskLevelLow, envelope.Data.OverallRiskLevel)
}

func TestChatUnknownSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	chat := service.NewChatService(service.ChatWithGenerator(&fakeGenerator{response: "답변"}))
	h := NewChatHandler(chat, chat, nil, service.DefaultPolicy())

	r := gin.New()
	r.POST("/api/chat", h.Chat)

	id := uuid.New().String()
	w := postJSON(t, r, "/api/chat", gin.H{"session_id": id, "message": "질문"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", errorCode(t, w))
}

func TestChatStartsSessionAndReplies(t *testing.T) {
	gin.SetMode(gin.TestMode)

	chat := service.NewChatService(service.ChatWithGenerator(&fakeGenerator{response: "도움이 되는 답변"}))
	h := NewChatHandler(chat, chat, nil, service.DefaultPolicy())

	r := gin.New()
	r.POST("/api/chat", h.Chat)

	w := postJSON(t, r, "/api/chat", gin.H{
		"message": "이 조항이 불리한가요?",
		"conversation_history": []gin.H{
			{"role": "user", "content": "이전 질문"},
			{"role": "assistant", "content": "이전 답변"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			SessionID   string `json:"session_id"`
			Reply       string `json:"reply"`
			NeedsExpert bool   `json:"needs_expert"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "도움이 되는 답변", envelope.Data.Reply)
	assert.NotEmpty(t, envelope.Data.SessionID)
}

func TestCollaborationErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := service.NewCollaborationService()
	h := NewCollaborationHandler(svc, nil)

	r := gin.New()
	r.GET("/api/shares/:id", h.GetShare)
	r.POST("/api/shares/:id/comments", h.AddComment)

	// unknown share
	req := httptest.NewRequest(http.MethodGet, "/api/shares/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SHARE_NOT_FOUND", errorCode(t, w))

	// expired share answers 410 on every operation
	expired := time.Now().UTC().Add(-time.Hour)
	share, err := svc.CreateShare(service.CreateShareRequest{
		Title:     "만료 테스트",
		OwnerName: "소유자",
		Result: &models.AnalysisResult{
			ID:      uuid.New(),
			Clauses: []models.AnnotatedClause{{Clause: models.Clause{Number: 1, Content: "조항"}}},
		},
		ExpiresAt: &expired,
	})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/api/shares/"+share.ID.String(), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "SHARE_EXPIRED", errorCode(t, w))
}

func TestCollaborationPermissionDenied(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := service.NewCollaborationService()
	h := NewCollaborationHandler(svc, nil)

	r := gin.New()
	r.POST("/api/shares/:id/comments", h.AddComment)

	share, err := svc.CreateShare(service.CreateShareRequest{
		Title:     "권한 테스트",
		OwnerName: "소유자",
		Result: &models.AnalysisResult{
			ID:      uuid.New(),
			Clauses: []models.AnnotatedClause{{Clause: models.Clause{Number: 1, Content: "조항"}}},
		},
	})
	require.NoError(t, err)

	viewer, err := svc.AddCollaborator(service.AddCollaboratorRequest{
		ShareID:    share.ID,
		ActorID:    share.Collaborators[0].ID,
		Name:       "열람자",
		Permission: models.PermissionView,
	})
	require.NoError(t, err)

	path := fmt.Sprintf("/api/shares/%s/comments", share.ID)
	w := postJSON(t, r, path, gin.H{
		"actor_id":      viewer.ID.String(),
		"clause_number": 1,
		"content":       "코멘트 시도",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "PERMISSION_DENIED", errorCode(t, w))
}
