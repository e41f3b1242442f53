package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"contractpilot-backend/models"
)

var ErrScoringFailed = errors.New("failed to score clause")

const scorerSystemPrompt = `당신은 한국 계약법 전문가입니다.
계약서 조항을 분석하고 관련 판례를 참고하여 위험도를 평가합니다.

위험도 기준:
- 8-10: 무효 가능성이 높거나 일방에게 현저히 불리한 조항
- 6-7: 협상이 필요한 실질적 불균형
- 4-5: 경미한 비대칭
- 0-3: 표준적이고 공정한 조항

응답 형식 (JSON):
{
    "risk_score": 0-10 (10이 가장 위험),
    "summary": "위험 요약 (1문장)",
    "issues": ["구체적인 문제점1", "구체적인 문제점2"]
}

위험도가 4 미만이면 issues는 빈 배열이어도 됩니다.
반드시 유효한 JSON만 출력하세요.`

// RiskScorer evaluates a single clause against the contract context and
// retrieved precedent. Scoring is stateless: the same capability and inputs
// produce the same analysis.
type RiskScorer struct {
	generator Generator
}

// NewRiskScorer creates a risk scorer backed by the given generator
func NewRiskScorer(generator Generator) *RiskScorer {
	return &RiskScorer{generator: generator}
}

// Score produces a ClauseAnalysis for one clause. Malformed capability
// output fails this clause only; no default score is ever substituted,
// because a fabricated low score is worse than a visible gap.
func (s *RiskScorer) Score(
	ctx context.Context,
	clause models.Clause,
	contractType string,
	cases []models.CitedCase,
) (*models.ClauseAnalysis, error) {
	if s.generator == nil {
		return nil, errors.New("generator not set")
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "조항: %s\n\n컨텍스트: 계약서 유형: %s\n", clause.Content, contractType)
	if len(cases) > 0 {
		prompt.WriteString("\n관련 판례:\n")
		for _, c := range cases {
			fmt.Fprintf(&prompt, "- %s: %s\n", c.CaseNumber, c.Summary)
		}
	}

	raw, err := s.generator.Generate(ctx, GenerateRequest{
		System:       scorerSystemPrompt,
		Prompt:       prompt.String(),
		Temperature:  0.3,
		JSONResponse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScoringFailed, err)
	}

	analysis, err := parseClauseAnalysis(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScoringFailed, err)
	}
	return analysis, nil
}

// parseClauseAnalysis decodes and validates the capability's JSON output
func parseClauseAnalysis(raw string) (*models.ClauseAnalysis, error) {
	var parsed struct {
		RiskScore *int     `json:"risk_score"`
		Summary   string   `json:"summary"`
		Issues    []string `json:"issues"`
	}
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("malformed analysis output: %v", err)
	}
	if parsed.RiskScore == nil {
		return nil, errors.New("analysis output missing risk_score")
	}
	if *parsed.RiskScore < 0 || *parsed.RiskScore > 10 {
		return nil, fmt.Errorf("risk_score out of range: %d", *parsed.RiskScore)
	}
	if strings.TrimSpace(parsed.Summary) == "" {
		return nil, errors.New("analysis output missing summary")
	}
	issues := parsed.Issues
	if issues == nil {
		issues = []string{}
	}
	return &models.ClauseAnalysis{
		RiskScore: *parsed.RiskScore,
		Summary:   parsed.Summary,
		Issues:    issues,
	}, nil
}

// stripJSONFences removes a markdown code fence around a JSON payload.
// Models occasionally wrap JSON output even when asked not to.
func stripJSONFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
