package service

import (
	"regexp"
	"strings"

	"contractpilot-backend/models"
)

const laborChatSystemPrompt = `당신은 한국의 노동법 전문 AI 상담사입니다.

역할:
- 근로계약, 임금, 해고, 퇴직금, 직장 내 괴롭힘 등 노동 문제를 상담합니다
- 근로기준법 등 관련 법령과 판례를 근거로 설명합니다
- 근로자가 취할 수 있는 현실적인 대응 방법을 안내합니다

원칙:
- 대한민국 노동법을 기준으로 답변합니다
- 확실하지 않은 내용은 추측하지 않습니다
- 노동청 진정, 소송 등 법적 절차가 필요해 보이는 사안은 노무사나 변호사 상담을 권합니다
- 답변은 한국어로, 일반인이 이해할 수 있게 작성합니다`

// escalationKeywords are signals that a labor consultation has moved past
// general guidance into territory needing a human professional
var escalationKeywords = []string{
	"소송", "진정", "고소", "신고",
	"임금체불", "체불", "해고", "퇴직금",
	"괴롭힘", "폭언", "산재",
	"얼마", "청구",
}

// moneyAmountPattern matches explicit won amounts, a strong signal the user
// wants a concrete monetary claim assessed
var moneyAmountPattern = regexp.MustCompile(`\d+\s*(원|만원|억)`)

// laborEscalation reports whether the accumulated user text warrants
// suggesting an expert consultation
func laborEscalation(userText string) bool {
	for _, kw := range escalationKeywords {
		if strings.Contains(userText, kw) {
			return true
		}
	}
	return moneyAmountPattern.MatchString(userText)
}

// NewLaborChatService creates a labor-law consultation service. It behaves
// like the general service but with labor framing and a one-time expert
// escalation signal per session.
func NewLaborChatService(opts ...ChatServiceOption) *ChatService {
	s := NewChatService(opts...)
	s.variant = models.VariantLabor
	s.systemPrompt = laborChatSystemPrompt
	s.escalate = laborEscalation
	if s.retriever == nil {
		s.retriever = NewLaborCaseRetriever()
	}
	return s
}
