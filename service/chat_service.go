package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"contractpilot-backend/models"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("consultation session not found")
	ErrSessionBusy     = errors.New("consultation session has a message in flight")
)

const contractChatSystemPrompt = `당신은 한국의 계약법 전문 AI 법률 상담사입니다.

역할:
- 계약서 조항의 의미와 법적 효력을 쉽게 설명합니다
- 불리한 조항의 위험성과 협상 포인트를 알려줍니다
- 관련 판례가 있으면 근거로 인용합니다

원칙:
- 대한민국 법률을 기준으로 답변합니다
- 확실하지 않은 내용은 추측하지 않습니다
- 구체적인 소송 전략 등 변호사 선임이 필요한 사안은 전문가 상담을 안내합니다
- 답변은 한국어로, 일반인이 이해할 수 있게 작성합니다`

// escalationFunc inspects the accumulated user-authored text of a session
// and reports whether it warrants suggesting a human expert
type escalationFunc func(userText string) bool

type chatSession struct {
	session  models.ConsultationSession
	context  *models.ContractContext
	userText strings.Builder
	busy     bool
}

// ChatService runs multi-turn consultation sessions. Sessions are held in
// memory; each session processes one message at a time and concurrent
// senders are rejected rather than queued.
type ChatService struct {
	generator    Generator
	retriever    CaseRetriever
	policy       Policy
	variant      models.SessionVariant
	systemPrompt string
	escalate     escalationFunc

	mu       sync.Mutex
	sessions map[uuid.UUID]*chatSession
}

// ChatServiceOption is a functional option for ChatService
type ChatServiceOption func(*ChatService)

// ChatWithGenerator sets the response generator
func ChatWithGenerator(g Generator) ChatServiceOption {
	return func(s *ChatService) {
		s.generator = g
	}
}

// ChatWithRetriever sets the precedent retriever
func ChatWithRetriever(r CaseRetriever) ChatServiceOption {
	return func(s *ChatService) {
		s.retriever = r
	}
}

// ChatWithPolicy sets the session policy
func ChatWithPolicy(p Policy) ChatServiceOption {
	return func(s *ChatService) {
		s.policy = p
	}
}

// NewChatService creates a general contract consultation service
func NewChatService(opts ...ChatServiceOption) *ChatService {
	s := &ChatService{
		policy:       DefaultPolicy(),
		variant:      models.VariantContract,
		systemPrompt: contractChatSystemPrompt,
		sessions:     make(map[uuid.UUID]*chatSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSessionRequest seeds a new consultation session
type StartSessionRequest struct {
	History          []models.Turn
	Context          *models.ContractContext
	AnalysisResultID *uuid.UUID
}

// StartSession creates a session, optionally seeded with prior turns and an
// analysis context. The session id is the handle for all later messages.
func (s *ChatService) StartSession(req StartSessionRequest) *models.ConsultationSession {
	now := time.Now().UTC()
	cs := &chatSession{
		session: models.ConsultationSession{
			ID:               uuid.New(),
			Variant:          s.variant,
			Turns:            append([]models.Turn(nil), req.History...),
			AnalysisResultID: req.AnalysisResultID,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		context: req.Context,
	}
	for _, t := range req.History {
		if t.Role == models.RoleUser {
			cs.userText.WriteString(t.Content)
			cs.userText.WriteString("\n")
		}
	}

	s.mu.Lock()
	s.sessions[cs.session.ID] = cs
	s.mu.Unlock()

	copied := cs.session
	return &copied
}

// GetSession returns a snapshot of the session
func (s *ChatService) GetSession(id uuid.UUID) (*models.ConsultationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := cs.session
	copied.Turns = append([]models.Turn(nil), cs.session.Turns...)
	return &copied, nil
}

// ChatMessageRequest carries one user message into a session
type ChatMessageRequest struct {
	SessionID uuid.UUID
	Content   string
}

// ChatMessageResult carries the assistant reply
type ChatMessageResult struct {
	SessionID   uuid.UUID
	Reply       models.Turn
	NeedsExpert bool
}

// Message appends the user turn, generates a grounded reply and appends it.
// Only one message per session may be in flight; a second concurrent sender
// gets ErrSessionBusy. Failed turns leave the transcript untouched.
func (s *ChatService) Message(ctx context.Context, req ChatMessageRequest) (*ChatMessageResult, error) {
	if s.generator == nil {
		return nil, errors.New("generator not set")
	}

	cs, err := s.acquire(req.SessionID)
	if err != nil {
		return nil, err
	}
	defer s.release(cs)

	var cases []models.CitedCase
	if s.retriever != nil {
		cases, err = s.retriever.Search(ctx, req.Content, "", s.policy.CitationLimit)
		if err != nil {
			// consultation degrades to an un-grounded answer rather than failing
			log.Printf("Warning: Failed to retrieve precedent for session %s: %v", req.SessionID, err)
			cases = nil
		}
	}

	prompt := s.buildPrompt(cs, req.Content)
	reply, err := s.generator.Generate(ctx, GenerateRequest{
		System:      s.buildSystem(cs, cases),
		Prompt:      prompt,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}
	reply = strings.TrimSpace(reply)

	now := time.Now().UTC()
	userTurn := models.Turn{Role: models.RoleUser, Content: req.Content, CreatedAt: now}
	assistantTurn := models.Turn{
		Role:       models.RoleAssistant,
		Content:    reply,
		CitedCases: attributeCases(reply, cases),
		CreatedAt:  now,
	}

	cs.userText.WriteString(req.Content)
	cs.userText.WriteString("\n")

	needsExpert := false
	if s.escalate != nil && !cs.session.ExpertSuggested && s.escalate(cs.userText.String()) {
		needsExpert = true
		cs.session.ExpertSuggested = true
		assistantTurn.NeedsExpert = true
	}

	cs.session.Turns = append(cs.session.Turns, userTurn, assistantTurn)
	cs.session.UpdatedAt = now

	return &ChatMessageResult{
		SessionID:   cs.session.ID,
		Reply:       assistantTurn,
		NeedsExpert: needsExpert,
	}, nil
}

func (s *ChatService) acquire(id uuid.UUID) (*chatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if cs.busy {
		return nil, ErrSessionBusy
	}
	cs.busy = true
	return cs, nil
}

func (s *ChatService) release(cs *chatSession) {
	s.mu.Lock()
	cs.busy = false
	s.mu.Unlock()
}

// buildSystem composes the variant system prompt with analysis context and
// retrieved precedent
func (s *ChatService) buildSystem(cs *chatSession, cases []models.CitedCase) string {
	var b strings.Builder
	b.WriteString(s.systemPrompt)

	if cs.context != nil {
		fmt.Fprintf(&b, "\n\n[분석된 계약 정보]\n계약 유형: %s\n", cs.context.ContractType)
		if cs.context.Summary != "" {
			fmt.Fprintf(&b, "분석 요약: %s\n", cs.context.Summary)
		}
		if len(cs.context.HighRiskClauses) > 0 {
			b.WriteString("고위험 조항:\n")
			for _, c := range cs.context.HighRiskClauses {
				fmt.Fprintf(&b, "- %s: %s\n", c.Title, c.Summary)
			}
		}
	}

	if len(cases) > 0 {
		b.WriteString("\n\n[참고 판례]\n")
		for _, c := range cases {
			fmt.Fprintf(&b, "- %s: %s\n", c.CaseNumber, c.Summary)
		}
	}

	return b.String()
}

// buildPrompt renders the recent transcript window plus the new message
func (s *ChatService) buildPrompt(cs *chatSession, content string) string {
	turns := cs.session.Turns
	window := s.policy.HistoryWindow
	if window > 0 && len(turns) > window {
		turns = turns[len(turns)-window:]
	}

	var b strings.Builder
	for _, t := range turns {
		label := "사용자"
		if t.Role == models.RoleAssistant {
			label = "상담사"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, t.Content)
	}
	fmt.Fprintf(&b, "사용자: %s\n상담사:", content)
	return b.String()
}

// attributeCases marks cases actually cited in the reply; when none are,
// the top matches are carried as related reading instead
func attributeCases(reply string, cases []models.CitedCase) []models.CitedCase {
	if len(cases) == 0 {
		return nil
	}

	var cited []models.CitedCase
	for _, c := range cases {
		if c.CaseNumber != "" && strings.Contains(reply, c.CaseNumber) {
			c.Relevance = "답변에서 인용됨"
			cited = append(cited, c)
		}
	}
	if len(cited) > 0 {
		return cited
	}

	related := cases
	if len(related) > 2 {
		related = related[:2]
	}
	out := make([]models.CitedCase, len(related))
	for i, c := range related {
		c.Relevance = relevanceRelated
		out[i] = c
	}
	return out
}

// ContextFromAnalysis derives the consultation context from an analysis
// result, carrying only the clauses at or above the high-risk threshold
func ContextFromAnalysis(result *models.AnalysisResult, policy Policy) *models.ContractContext {
	if result == nil {
		return nil
	}
	ctx := &models.ContractContext{
		ContractType: result.ContractType,
		Summary:      result.Summary,
	}
	for _, c := range result.Clauses {
		if c.Analysis == nil || c.Analysis.RiskScore < policy.HighRiskThreshold {
			continue
		}
		title := c.Title
		if title == "" {
			title = fmt.Sprintf("%d번 조항", c.Number)
		}
		ctx.HighRiskClauses = append(ctx.HighRiskClauses, models.ContextClause{
			Title:   title,
			Summary: c.Analysis.Summary,
		})
	}
	return ctx
}
